package handler

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/dverhoef/taskhive/internal/service"
)

// allowedUserUpdates are the only fields a profile PATCH may touch. Any other
// key rejects the whole request.
var allowedUserUpdates = map[string]bool{
	"name":     true,
	"email":    true,
	"password": true,
	"age":      true,
}

// UserHandler handles account, session, and avatar HTTP requests.
type UserHandler struct {
	auth         *service.AuthService
	users        *service.UserService
	avatars      *service.AvatarService
	loginLimiter *service.TokenBucket
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(auth *service.AuthService, users *service.UserService, avatars *service.AvatarService, loginLimiter *service.TokenBucket) *UserHandler {
	return &UserHandler{auth: auth, users: users, avatars: avatars, loginLimiter: loginLimiter}
}

// HandleSignup creates an account and logs it in.
// POST /users
// Request:  {"name":"...","email":"...","password":"...","age":30}
// Response: 201 {"user": {...}, "token": "..."}
func (h *UserHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Age      int64  `json:"age"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password, req.Age)
	if err != nil {
		writeDomainError(w, "register user", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":  toUserDTO(user),
		"token": token,
	})
}

// HandleLogin verifies credentials and issues a session token.
// POST /users/login
// Response: {"user": {...}, "token": "..."}
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.loginLimiter.Allow(clientAddr(r)) {
		writeError(w, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, "login user", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":  toUserDTO(user),
		"token": token,
	})
}

// HandleLogout revokes the session token the request was made with. Other
// sessions of the same user stay logged in.
// POST /users/logout
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	token := TokenFromContext(r.Context())

	if err := h.auth.Logout(r.Context(), user.ID, token); err != nil {
		writeDomainError(w, "logout user", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleLogoutAll revokes every session token of the user.
// POST /users/logoutAll
func (h *UserHandler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if err := h.auth.LogoutAll(r.Context(), user.ID); err != nil {
		writeDomainError(w, "logout all sessions", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleGetMe returns the authenticated user's profile.
// GET /users/me
func (h *UserHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleUpdateMe applies a partial profile update. The update is
// all-or-nothing: a single unknown field rejects the request before anything
// is written.
// PATCH /users/me
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var fields map[string]json.RawMessage
	if err := readJSON(r, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	for key := range fields {
		if !allowedUserUpdates[key] {
			writeError(w, http.StatusBadRequest, "Invalid updates.")
			return
		}
	}

	var upd service.UserUpdate
	if err := unmarshalField(fields, "name", &upd.Name); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := unmarshalField(fields, "email", &upd.Email); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := unmarshalField(fields, "password", &upd.Password); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := unmarshalField(fields, "age", &upd.Age); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if err := h.users.Update(r.Context(), user, upd); err != nil {
		writeDomainError(w, "update user", err)
		return
	}

	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleDeleteMe deletes the account and everything it owns, returning the
// deleted profile.
// DELETE /users/me
func (h *UserHandler) HandleDeleteMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if err := h.users.Delete(r.Context(), user.ID); err != nil {
		writeDomainError(w, "delete user", err)
		return
	}

	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleSetAvatar stores the uploaded avatar. Multipart field name is
// "avatar"; accepted extensions are .jpg, .jpeg and .png, up to 1 MB.
// POST /users/me/avatar
func (h *UserHandler) HandleSetAvatar(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if err := r.ParseMultipartForm(2 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "File too large.")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No avatar file provided.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeDomainError(w, "read avatar upload", err)
		return
	}

	if err := h.avatars.Set(r.Context(), user, header.Filename, data); err != nil {
		writeDomainError(w, "set avatar", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleClearAvatar removes the user's avatar.
// DELETE /users/me/avatar
func (h *UserHandler) HandleClearAvatar(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if err := h.avatars.Clear(r.Context(), user); err != nil {
		writeDomainError(w, "clear avatar", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleAvatarByID serves any user's avatar. This route is public; a missing
// user and a missing avatar are the same 404.
// GET /users/{id}/avatar
func (h *UserHandler) HandleAvatarByID(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}

	data, contentType, err := h.avatars.GetByUserID(r.Context(), userID)
	if err != nil {
		writeDomainError(w, "get avatar", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// unmarshalField decodes fields[key] into dst when the key is present.
func unmarshalField[T any](fields map[string]json.RawMessage, key string, dst **T) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

// clientAddr returns the host part of the request's remote address.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
