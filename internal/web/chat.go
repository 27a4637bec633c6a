package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/upcycle/internal/chat"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// ChatSubmit handles POST /chat. The model's reply is passed through unmodified;
// any failure is logged and answered with the fallback reply.
func (s *Server) ChatSubmit(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		jsonError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := s.Chat.GenerateReply(r.Context(), s.ChatPrompt, req.Message)
	if err != nil {
		var se *chat.ServiceError
		if errors.As(err, &se) {
			slog.Error("chat model call failed", "status", se.StatusCode, "error", se.Err)
		} else {
			slog.Error("chat model call failed", "error", err)
		}
		jsonResponse(w, http.StatusInternalServerError, chatResponse{Reply: chat.FallbackReply})
		return
	}

	jsonResponse(w, http.StatusOK, chatResponse{Reply: reply})
}
