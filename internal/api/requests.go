package api

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/upcycle/internal/model"
	"github.com/erazemk/upcycle/internal/store"
)

// RequestsHandler handles the request workflow endpoints.
type RequestsHandler struct {
	DB *sql.DB
}

type createRequestBody struct {
	ContactDetails string `json:"contact_details"`
}

type respondBody struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type requestLists struct {
	Incoming []model.Request `json:"incoming"`
	Outgoing []model.Request `json:"outgoing"`
}

// Create handles POST /api/materials/{id}/requests.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var body createRequestBody
	if err := decodeJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := store.CreateRequest(r.Context(), h.DB, id, claims.Email, strings.TrimSpace(body.ContactDetails))
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "material not found")
		return
	case errors.Is(err, store.ErrSelfRequest):
		jsonError(w, http.StatusBadRequest, "You cannot request your own material")
		return
	case err != nil:
		slog.Error("failed to create request", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("material requested", "user", claims.Email, "material", id, "request", req.ID, "via", "api")
	jsonResponse(w, http.StatusCreated, req)
}

// List handles GET /api/requests.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	incoming, err := store.ListIncomingRequests(r.Context(), h.DB, claims.Email)
	if err != nil {
		slog.Error("failed to list incoming requests", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	outgoing, err := store.ListOutgoingRequests(r.Context(), h.DB, claims.Email)
	if err != nil {
		slog.Error("failed to list outgoing requests", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	lists := requestLists{Incoming: incoming, Outgoing: outgoing}
	if lists.Incoming == nil {
		lists.Incoming = []model.Request{}
	}
	if lists.Outgoing == nil {
		lists.Outgoing = []model.Request{}
	}
	jsonResponse(w, http.StatusOK, lists)
}

// Respond handles POST /api/requests/{id}/respond.
func (h *RequestsHandler) Respond(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var body respondBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := store.RespondToRequest(r.Context(), h.DB, id, claims.Email, body.Status, strings.TrimSpace(body.Reason))
	switch {
	case errors.Is(err, store.ErrInvalidStatus):
		jsonError(w, http.StatusBadRequest, "status must be Accepted or Rejected")
		return
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "request not found")
		return
	case errors.Is(err, store.ErrNotOwner):
		jsonError(w, http.StatusForbidden, "only the material owner can respond")
		return
	case err != nil:
		slog.Error("failed to respond to request", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("request answered", "user", claims.Email, "request", id, "status", req.Status, "via", "api")
	jsonResponse(w, http.StatusOK, req)
}
