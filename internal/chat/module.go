// Package chat wires the conversational assistant's HTTP surface.
package chat

import (
	"propertypilot_backend/internal/chat/handler"
	"propertypilot_backend/internal/flow"
	apphttp "propertypilot_backend/internal/http"
	"propertypilot_backend/platform/validator"
)

// Module exposes the chat endpoints over the flow engine.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the chat module. store reports the session store mode for
// the status endpoint and may be nil when only the in-memory store is wired.
func NewModule(engine *flow.Engine, store handler.ModeReporter, val *validator.Validator) *Module {
	return &Module{handler: handler.New(engine, store, val)}
}

func (m *Module) Name() string {
	return "chat"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/chat")
	group.POST("/turn", ctx.ChatRateLimiter.RateLimit(), m.handler.Turn)
	group.DELETE("/session/:id", m.handler.ResetSession)
	group.GET("/status", m.handler.Status)
}

var _ apphttp.Module = (*Module)(nil)
