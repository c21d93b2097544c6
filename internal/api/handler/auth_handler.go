package handler

import (
	"fintrack/internal/app/service"
	"fintrack/internal/common"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	log         *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/forgot", h.forgot)
	r.Post("/reset", h.reset)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) forgot(w http.ResponseWriter, r *http.Request) {
	var req service.ForgotPasswordRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	resp, err := h.authService.ForgotPassword(r.Context(), req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) reset(w http.ResponseWriter, r *http.Request) {
	var req service.ResetPasswordRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	resp, err := h.authService.ResetPassword(r.Context(), req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}
