package handlers

// PingResponse is the response of the protected ping endpoint.
type PingResponse struct {
	Body struct {
		Message   string `doc:"Always pong"                    example:"pong"                  json:"message"`
		RequestID string `doc:"Identifier of this request"     example:"V1StGXR8_Z5jdHi6B-myT" json:"requestId"`
		ClientID  string `doc:"Client the request counted for" example:"acme"                  json:"clientId,omitempty"`
	}
}

// QuotaRequest addresses the quota records of one client.
type QuotaRequest struct {
	ClientID string `doc:"The client identifier" example:"acme" minLength:"1" path:"clientId"`
}

// QuotaResponse describes a client's quota in the current window.
type QuotaResponse struct {
	Body struct {
		ClientID  string `doc:"The client identifier"                  example:"acme"       json:"clientId"`
		Limit     uint64 `doc:"Requests allowed per window"            example:"100"        json:"limit"`
		Count     uint64 `doc:"Requests counted in the current window" example:"42"         json:"count"`
		Remaining uint64 `doc:"Requests left in the current window"    example:"58"         json:"remaining"`
		ResetAt   uint64 `doc:"Unix time the current window started"   example:"1700000000" json:"resetAt"`
		ResetIn   uint64 `doc:"Seconds until the window resets"        example:"17"         json:"resetIn"`
	}
}
