package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/upcycle/internal/model"
	"github.com/erazemk/upcycle/internal/store"
)

// Messages of the send_request endpoint, read by the search page script.
const (
	msgLoginFirst  = "Please log in first"
	msgOwnMaterial = "You cannot request your own material"
	msgRequestSent = "Request sent successfully!"
)

type sendRequestBody struct {
	ContactDetails string `json:"contact_details"`
}

// SendRequest handles POST /send_request/{id}. It always answers JSON.
// The material is looked up before the session is checked, so an unknown
// material is a 404 even for anonymous callers.
func (s *Server) SendRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusNotFound, "Material not found")
		return
	}

	material, err := store.GetMaterial(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get material", "error", err)
		jsonError(w, http.StatusInternalServerError, "Could not send the request")
		return
	}
	if material == nil {
		jsonError(w, http.StatusNotFound, "Material not found")
		return
	}

	claims := GetSession(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, msgLoginFirst)
		return
	}

	// The body is optional; the search page sends contact details when given.
	var body sendRequestBody
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := store.CreateRequest(r.Context(), s.DB, id, claims.Email, strings.TrimSpace(body.ContactDetails))
	switch {
	case errors.Is(err, store.ErrSelfRequest):
		jsonError(w, http.StatusBadRequest, msgOwnMaterial)
		return
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "Material not found")
		return
	case err != nil:
		slog.Error("failed to create request", "error", err)
		jsonError(w, http.StatusInternalServerError, "Could not send the request")
		return
	}

	slog.Info("material requested", "user", claims.Email, "material", id, "request", req.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": msgRequestSent})
}

// RespondRequest handles POST /respond_request/{id}.
func (s *Server) RespondRequest(w http.ResponseWriter, r *http.Request) {
	claims := GetSession(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "request not found", http.StatusNotFound)
		return
	}

	status := r.FormValue("status")
	reason := strings.TrimSpace(r.FormValue("reason"))

	req, err := store.RespondToRequest(r.Context(), s.DB, id, claims.Email, status, reason)
	switch {
	case errors.Is(err, store.ErrInvalidStatus):
		http.Error(w, fmt.Sprintf("status must be %s or %s", model.RequestStatusAccepted, model.RequestStatusRejected), http.StatusBadRequest)
		return
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "request not found", http.StatusNotFound)
		return
	case errors.Is(err, store.ErrNotOwner):
		slog.Warn("respond by non-owner", "user", claims.Email, "request", id)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	case err != nil:
		slog.Error("failed to respond to request", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("request answered", "user", claims.Email, "request", req.ID, "status", req.Status)
	http.Redirect(w, r, "/requests", http.StatusSeeOther)
}

// RequestsPage handles GET /requests.
func (s *Server) RequestsPage(w http.ResponseWriter, r *http.Request) {
	claims := GetSession(r.Context())

	incoming, err := store.ListIncomingRequests(r.Context(), s.DB, claims.Email)
	if err != nil {
		slog.Error("failed to list incoming requests", "error", err)
	}
	outgoing, err := store.ListOutgoingRequests(r.Context(), s.DB, claims.Email)
	if err != nil {
		slog.Error("failed to list outgoing requests", "error", err)
	}

	s.Templates.Render(w, "requests.html", &struct {
		PageData
		Incoming []model.Request
		Outgoing []model.Request
	}{
		PageData: PageData{Title: "Requests", User: claims},
		Incoming: incoming,
		Outgoing: outgoing,
	})
}
