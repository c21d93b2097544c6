package handler

import (
	"fintrack/internal/app/service"
	"fintrack/internal/common"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TransactionHandler struct {
	txService  *service.TransactionService
	log        *zap.Logger
	maxPerPage int
}

func NewTransactionHandler(txService *service.TransactionService, log *zap.Logger, maxPerPage int) *TransactionHandler {
	return &TransactionHandler{txService: txService, log: log, maxPerPage: maxPerPage}
}

// RegisterRoutes mounts the transaction routes; the caller must be authenticated.
func (h *TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/summary", h.summary)
	r.Get("/{transactionID}", h.get)
	r.Delete("/{transactionID}", h.delete)
}

func (h *TransactionHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	var req service.CreateTransactionRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	view, err := h.txService.Create(r.Context(), userID, req)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, view)
}

func (h *TransactionHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	q, err := parseTransactionQuery(r.URL.Query(), h.maxPerPage)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	list, err := h.txService.List(r.Context(), userID, q)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, list)
}

func (h *TransactionHandler) summary(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	f, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	summary, err := h.txService.Summary(r.Context(), userID, f)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, summary)
}

func (h *TransactionHandler) get(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	view, err := h.txService.Get(r.Context(), userID, chi.URLParam(r, "transactionID"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, view)
}

func (h *TransactionHandler) delete(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if err := h.txService.Delete(r.Context(), userID, chi.URLParam(r, "transactionID")); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
