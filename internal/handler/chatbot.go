package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stockwise/stockwise/internal/agent"
	"github.com/stockwise/stockwise/internal/middleware"
	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/security"
)

// TurnRunner runs one chat turn
type TurnRunner interface {
	Turn(ctx context.Context, req agent.TurnRequest) (*agent.TurnResult, error)
}

// ChatbotHandler handles POST /api/v1/chatbot
type ChatbotHandler struct {
	assistant TurnRunner
	maxLength int
	validator *security.PromptValidator // nil disables prompt screening
	pii       *security.PIIDetector     // nil disables keyword screening
	usage     *security.UsageTracker    // nil disables token budgets
	audit     *security.AuditLogger
}

type ChatbotOption func(*ChatbotHandler)

func WithPromptValidator(v *security.PromptValidator) ChatbotOption {
	return func(h *ChatbotHandler) { h.validator = v }
}

func WithPIIDetector(d *security.PIIDetector) ChatbotOption {
	return func(h *ChatbotHandler) { h.pii = d }
}

func WithUsageTracker(t *security.UsageTracker) ChatbotOption {
	return func(h *ChatbotHandler) { h.usage = t }
}

func WithAuditLogger(a *security.AuditLogger) ChatbotOption {
	return func(h *ChatbotHandler) { h.audit = a }
}

func NewChatbotHandler(assistant TurnRunner, maxLength int, opts ...ChatbotOption) *ChatbotHandler {
	h := &ChatbotHandler{assistant: assistant, maxLength: maxLength}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Chat runs one turn. The client owns the history: it sends the prior turns and
// gets them back extended by the user message and the reply.
func (h *ChatbotHandler) Chat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	caller, _ := middleware.UserFromContext(r.Context())

	var req models.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(h.maxLength); err != nil {
		writeServiceError(w, r, err)
		return
	}

	reject := func(code int, reason string) {
		h.audit.LogChatTurn(security.ChatAudit{
			UserID: caller.ID, Message: req.Content, Rejected: reason, Duration: time.Since(start),
		})
		models.WriteError(w, code, reason)
	}

	if h.validator != nil {
		if res := h.validator.Validate(req.Content); !res.Valid {
			reject(http.StatusBadRequest, "prompt validation failed: "+res.Message)
			return
		}
	}
	if h.pii != nil {
		if found, kw := h.pii.Detect(req.Content); found {
			reject(http.StatusBadRequest, "message references sensitive data ("+kw+")")
			return
		}
	}
	if h.usage != nil {
		if ok, reason := h.usage.CheckLimits(caller.ID); !ok {
			reject(http.StatusTooManyRequests, reason)
			return
		}
	}

	res, err := h.assistant.Turn(r.Context(), agent.TurnRequest{
		Message: req.Content,
		History: req.History,
		Caller:  caller,
	})

	audit := security.ChatAudit{UserID: caller.ID, Message: req.Content, Duration: time.Since(start), Err: err}
	if res != nil {
		audit.ToolsUsed = res.ToolsUsed
	}
	h.audit.LogChatTurn(audit)

	if err != nil {
		kind, retryable := agent.Classify(err)
		log.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("kind", kind).
			Msg("chat turn failed")
		models.WriteErrorBody(w, models.ErrorResponse{
			Message:   "An internal error occurred: " + err.Error(),
			Code:      http.StatusInternalServerError,
			Kind:      kind,
			Retryable: retryable,
		})
		return
	}

	models.WriteJSON(w, http.StatusOK, models.ChatResponse{
		Response: res.Reply,
		History:  res.History,
	})
}
