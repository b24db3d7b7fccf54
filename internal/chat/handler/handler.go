// Package handler exposes the conversational chat endpoints.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"propertypilot_backend/internal/chat/transport"
	"propertypilot_backend/internal/flow"
	"propertypilot_backend/platform/httpkit"
	"propertypilot_backend/platform/logger"
	"propertypilot_backend/platform/validator"
)

// ModeReporter exposes which backend the session store is serving from.
type ModeReporter interface {
	Mode() string
}

// Handler serves the chat turn, session reset, and status endpoints.
type Handler struct {
	engine *flow.Engine
	store  ModeReporter
	val    *validator.Validator
}

// New creates the chat handler.
func New(engine *flow.Engine, store ModeReporter, val *validator.Validator) *Handler {
	return &Handler{engine: engine, store: store, val: val}
}

// Turn handles POST /api/v1/chat/turn.
func (h *Handler) Turn(c *gin.Context) {
	var req transport.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "message is required", err.Error())
		return
	}
	if req.Filters != nil {
		if err := h.val.Struct(req.Filters); err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid filters", err.Error())
			return
		}
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	ctx := context.WithValue(c.Request.Context(), logger.SessionIDKey, req.SessionID)
	result, err := h.engine.ProcessTurn(ctx, flow.TurnInput{
		SessionID: req.SessionID,
		Text:      req.Message,
		Filters:   req.Filters.ToFilter(),
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	resp := transport.FromTurnResult(result)
	resp.DegradedStore = h.store != nil && h.store.Mode() == "memory"
	httpkit.OK(c, resp)
}

// ResetSession handles DELETE /api/v1/chat/session/:id.
func (h *Handler) ResetSession(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		httpkit.Error(c, http.StatusBadRequest, "session id is required", nil)
		return
	}

	if err := h.engine.Reset(c.Request.Context(), sessionID); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Status handles GET /api/v1/chat/status. The session store mode is surfaced
// so operators can see when the service is running on the in-memory fallback.
func (h *Handler) Status(c *gin.Context) {
	mode := "memory"
	if h.store != nil {
		mode = h.store.Mode()
	}
	httpkit.OK(c, transport.StatusResponse{Status: "ok", SessionStore: mode})
}
