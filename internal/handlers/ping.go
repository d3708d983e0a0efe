package handlers

import "context"

// PingHandler serves the rate limited demo endpoint.
type PingHandler struct{}

// NewPingHandler creates a new ping handler.
func NewPingHandler() *PingHandler {
	return &PingHandler{}
}

func (h *PingHandler) Ping(ctx context.Context, _ *struct{}) (*PingResponse, error) {
	meta := RequestMetaFromContext(ctx)

	resp := &PingResponse{}
	resp.Body.Message = "pong"
	resp.Body.RequestID = meta.RequestID
	resp.Body.ClientID = meta.ClientID

	return resp, nil
}
