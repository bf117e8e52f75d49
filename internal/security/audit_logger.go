package security

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// AuditLogger logs security-relevant events with hashed identifiers
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// ChatAudit describes one completed or rejected chat turn
type ChatAudit struct {
	UserID    int64
	Message   string
	ToolsUsed []string
	Rejected  string // validation reason, empty when accepted
	Duration  time.Duration
	Err       error
}

// LogChatTurn records a chat turn without storing the message text
func (a *AuditLogger) LogChatTurn(e ChatAudit) {
	if a == nil || !a.enabled {
		return
	}
	evt := log.Info().
		Str("event", "chat_audit").
		Str("message_hash", hashStr(e.Message)[:16]).
		Str("user_hash", hashStr(strconv.FormatInt(e.UserID, 10))[:16]).
		Strs("tools", e.ToolsUsed).
		Bool("validation_passed", e.Rejected == "").
		Int64("execution_time_ms", e.Duration.Milliseconds()).
		Bool("success", e.Err == nil && e.Rejected == "")

	if e.Rejected != "" {
		evt = evt.Str("rejected", e.Rejected)
	}
	if e.Err != nil {
		evt = evt.Str("error", e.Err.Error())
	}
	evt.Msg("audit")
}

// LogMutation records a write to inventory data (sale, reorder, CRUD)
func (a *AuditLogger) LogMutation(userID int64, action, resource string, id int64) {
	if a == nil || !a.enabled {
		return
	}
	log.Info().
		Str("event", "mutation_audit").
		Str("user_hash", hashStr(strconv.FormatInt(userID, 10))[:16]).
		Str("action", action).
		Str("resource", resource).
		Int64("resource_id", id).
		Msg("audit")
}

func hashStr(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}
