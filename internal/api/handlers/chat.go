package handlers

import (
	"net/http"

	"github.com/thaaaru/kadiya/internal/dispatch"
	"github.com/thaaaru/kadiya/internal/provider"
)

type chatRequest struct {
	// Either a single message or a full history.
	Message     string             `json:"message,omitempty"`
	Messages    []provider.Message `json:"messages,omitempty"`
	Tools       []provider.Tool    `json:"tools,omitempty"`
	Model       string             `json:"model,omitempty"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
	SessionKey  string             `json:"session_key,omitempty"`
}

type chatResponse struct {
	Content          string `json:"content"`
	Intent           string `json:"intent"`
	Tier             string `json:"tier"`
	Model            string `json:"model"`
	Reason           string `json:"reason"`
	MaxTokens        int    `json:"max_tokens"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// Chat handles POST /api/v1/chat. The request is routed, optimized and
// dispatched to the configured provider; the response carries the routing
// decision alongside the content.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if len(req.Messages) == 0 && req.Message != "" {
		req.Messages = []provider.Message{{Role: provider.RoleUser, Content: req.Message}}
	}
	if len(req.Messages) == 0 {
		fail(w, http.StatusBadRequest, "message or messages is required")
		return
	}
	sessionKey := req.SessionKey
	if sessionKey == "" {
		sessionKey = "api"
	}

	res, err := h.dispatcher.Dispatch(r.Context(), &dispatch.Request{
		Messages:    req.Messages,
		Tools:       req.Tools,
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		SessionKey:  sessionKey,
	})
	if err != nil {
		fail(w, http.StatusBadGateway, "dispatch: "+err.Error())
		return
	}

	ok(w, chatResponse{
		Content:          res.Content,
		Intent:           res.Intent,
		Tier:             string(res.Decision.Tier),
		Model:            res.Decision.Model,
		Reason:           res.Decision.Reason,
		MaxTokens:        res.EffectiveMaxTokens,
		PromptTokens:     res.Usage.PromptTokens,
		CompletionTokens: res.Usage.CompletionTokens,
	})
}
