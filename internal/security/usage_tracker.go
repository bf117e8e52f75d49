package security

import (
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
)

// UsageTracker accumulates language-model token usage per caller and logs each call.
// An optional per-caller token budget rejects further turns once spent.
type UsageTracker struct {
	maxTokens int64 // 0 means unlimited

	mu     sync.Mutex
	totals map[int64]int64
}

func NewUsageTracker(maxTokensPerUser int64) *UsageTracker {
	return &UsageTracker{maxTokens: maxTokensPerUser, totals: make(map[int64]int64)}
}

// CheckLimits reports whether userID may start another turn, with a reason when not
func (t *UsageTracker) CheckLimits(userID int64) (bool, string) {
	if t.maxTokens <= 0 {
		return true, ""
	}
	t.mu.Lock()
	used := t.totals[userID]
	t.mu.Unlock()
	if used < t.maxTokens {
		return true, ""
	}
	return false, "token budget exhausted: used " + strconv.FormatInt(used, 10) +
		" of " + strconv.FormatInt(t.maxTokens, 10)
}

// Record adds one model call's token counts for userID
func (t *UsageTracker) Record(userID int64, model string, inputTokens, outputTokens int) {
	t.mu.Lock()
	t.totals[userID] += int64(inputTokens + outputTokens)
	total := t.totals[userID]
	t.mu.Unlock()

	log.Info().
		Str("event", "llm_usage").
		Str("user_hash", hashStr(strconv.FormatInt(userID, 10))[:16]).
		Str("model", model).
		Int("input_tokens", inputTokens).
		Int("output_tokens", outputTokens).
		Int64("user_total_tokens", total).
		Msg("llm usage")
}

// Total returns the tokens recorded for userID so far
func (t *UsageTracker) Total(userID int64) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totals[userID]
}
