package handler

import (
	"fintrack/internal/app/service"
	"fintrack/internal/common"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService *service.UserService
	log         *zap.Logger
}

func NewUserHandler(userService *service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

// RegisterPublicRoutes mounts the unauthenticated first-user route.
func (h *UserHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/users/bootstrap", h.bootstrap)
}

// RegisterRoutes mounts routes that expect Authenticator upstream.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Post("/users", h.create)
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	profile, err := h.userService.Me(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	profile, err := h.userService.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, profile)
}

func (h *UserHandler) bootstrap(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	profile, err := h.userService.Bootstrap(r.Context(), req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, profile)
}
