package handler

import (
	"net/http"

	"github.com/dverhoef/taskhive/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux. Account creation,
// login, the public avatar fetch, and the health check are open; everything
// else sits behind RequireAuth.
func RegisterRoutes(
	mux *http.ServeMux,
	auth *service.AuthService,
	users *service.UserService,
	tasks *service.TaskService,
	avatars *service.AvatarService,
	loginLimiter *service.TokenBucket,
) {
	userHandler := NewUserHandler(auth, users, avatars, loginLimiter)
	taskHandler := NewTaskHandler(tasks)

	protected := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(auth, h)
	}

	mux.HandleFunc("GET /healthz", HandleHealthz)

	mux.HandleFunc("POST /users", userHandler.HandleSignup)
	mux.HandleFunc("POST /users/login", userHandler.HandleLogin)
	mux.Handle("POST /users/logout", protected(userHandler.HandleLogout))
	mux.Handle("POST /users/logoutAll", protected(userHandler.HandleLogoutAll))
	mux.Handle("GET /users/me", protected(userHandler.HandleGetMe))
	mux.Handle("PATCH /users/me", protected(userHandler.HandleUpdateMe))
	mux.Handle("DELETE /users/me", protected(userHandler.HandleDeleteMe))
	mux.Handle("POST /users/me/avatar", protected(userHandler.HandleSetAvatar))
	mux.Handle("DELETE /users/me/avatar", protected(userHandler.HandleClearAvatar))
	mux.HandleFunc("GET /users/{id}/avatar", userHandler.HandleAvatarByID)

	mux.Handle("POST /tasks", protected(taskHandler.HandleCreate))
	mux.Handle("GET /tasks", protected(taskHandler.HandleList))
	mux.Handle("GET /tasks/{id}", protected(taskHandler.HandleGet))
	mux.Handle("PATCH /tasks/{id}", protected(taskHandler.HandleUpdate))
	mux.Handle("DELETE /tasks/{id}", protected(taskHandler.HandleDelete))
}
