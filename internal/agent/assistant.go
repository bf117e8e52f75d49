// Package agent runs one chat turn: a model call that may request tools, a
// parallel batch of tool executions, and a follow-up call that phrases the answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/stockwise/stockwise/internal/llm"
	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/store"
	"github.com/stockwise/stockwise/internal/tools"
)

var (
	// ErrUnknownTool means the model asked for a tool that is not registered
	ErrUnknownTool = errors.New("unknown tool")
	// ErrToolFailed means a tool returned an error; no results were sent to the model
	ErrToolFailed = errors.New("tool execution failed")
	// ErrTimeout means the turn did not finish within the configured timeout
	ErrTimeout = errors.New("chat turn timed out")
)

const DefaultSystemPrompt = `You are a helpful, menu-driven inventory assistant for Stockwise.
Use the available tools to answer questions about the user's profile, their last order, products and inventory KPIs.
When the user greets you or asks for help, call get_capabilities and present the numbered menu.
Answer concisely using only the data the tools return.`

// UsageFunc receives token usage for each model call
type UsageFunc func(caller models.User, model string, usage llm.Usage)

// Assistant is the chat turn orchestrator. It is safe for concurrent use; every
// turn is independent and nothing is cached between turns.
type Assistant struct {
	client       llm.Client
	registry     *tools.Registry
	data         store.Reader
	model        string
	systemPrompt string
	timeout      time.Duration
	maxParallel  int
	onUsage      UsageFunc
}

type Option func(*Assistant)

func WithModel(model string) Option { return func(a *Assistant) { a.model = model } }

func WithSystemPrompt(p string) Option { return func(a *Assistant) { a.systemPrompt = p } }

// WithTimeout bounds the whole turn: both model calls and the tool batch
func WithTimeout(d time.Duration) Option { return func(a *Assistant) { a.timeout = d } }

// WithMaxParallelTools bounds concurrent tool executions within one batch
func WithMaxParallelTools(n int) Option { return func(a *Assistant) { a.maxParallel = n } }

func WithUsageFunc(fn UsageFunc) Option { return func(a *Assistant) { a.onUsage = fn } }

func NewAssistant(client llm.Client, registry *tools.Registry, data store.Reader, opts ...Option) *Assistant {
	a := &Assistant{
		client:       client,
		registry:     registry,
		data:         data,
		systemPrompt: DefaultSystemPrompt,
		timeout:      60 * time.Second,
		maxParallel:  4,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// TurnRequest is one user message plus the client-held history
type TurnRequest struct {
	Message string
	History []models.ChatTurn
	Caller  models.User
}

// TurnResult is the final reply and the history extended by exactly two turns
type TurnResult struct {
	Reply      string
	History    []models.ChatTurn
	ToolsUsed  []string
	ModelCalls int
}

// Turn runs one chat turn to completion
func (a *Assistant) Turn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	start := time.Now()
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	messages := a.buildMessages(req.History, req.Message)
	specs := a.registry.Specs()

	first, err := a.complete(ctx, req.Caller, llm.Request{
		Model:      a.model,
		Messages:   messages,
		Tools:      specs,
		ToolChoice: llm.ToolChoiceAuto,
	})
	if err != nil {
		return nil, a.turnError(ctx, err)
	}
	result := &TurnResult{Reply: first.Message.Content, ModelCalls: 1}

	if calls := first.Message.ToolCalls; len(calls) > 0 {
		// Resolve everything before running anything.
		resolved := make([]tools.Tool, len(calls))
		for i, c := range calls {
			t, ok := a.registry.Resolve(c.Name)
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownTool, c.Name)
			}
			resolved[i] = t
			result.ToolsUsed = append(result.ToolsUsed, c.Name)
		}

		outputs, err := a.runTools(ctx, req.Caller, resolved, calls)
		if err != nil {
			return nil, a.turnError(ctx, err)
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   first.Message.Content,
			ToolCalls: calls,
		})
		for i, c := range calls {
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: c.ID,
				Name:       c.Name,
				Content:    outputs[i],
			})
		}

		second, err := a.complete(ctx, req.Caller, llm.Request{Model: a.model, Messages: messages})
		if err != nil {
			return nil, a.turnError(ctx, err)
		}
		result.Reply = second.Message.Content
		result.ModelCalls = 2
	}

	result.History = make([]models.ChatTurn, 0, len(req.History)+2)
	result.History = append(result.History, req.History...)
	result.History = append(result.History,
		models.ChatTurn{Role: string(llm.RoleUser), Content: req.Message},
		models.ChatTurn{Role: string(llm.RoleAssistant), Content: result.Reply},
	)

	log.Info().
		Int64("user_id", req.Caller.ID).
		Strs("tools", result.ToolsUsed).
		Int("model_calls", result.ModelCalls).
		Int("history_len", len(result.History)).
		Dur("duration", time.Since(start)).
		Msg("chat turn complete")
	return result, nil
}

// buildMessages is system prompt, then prior history verbatim, then the new user turn.
func (a *Assistant) buildMessages(history []models.ChatTurn, message string) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: a.systemPrompt})
	for _, t := range history {
		msgs = append(msgs, llm.Message{Role: llm.Role(t.Role), Content: t.Content})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: message})
}

func (a *Assistant) complete(ctx context.Context, caller models.User, req llm.Request) (*llm.Response, error) {
	resp, err := a.client.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if a.onUsage != nil {
		a.onUsage(caller, a.model, resp.Usage)
	}
	return resp, nil
}

// runTools executes one batch in parallel. Outputs are indexed like calls. When
// several tools fail, the error of the earliest invocation is returned.
func (a *Assistant) runTools(ctx context.Context, caller models.User, resolved []tools.Tool, calls []llm.ToolCall) ([]string, error) {
	outputs := make([]string, len(calls))
	errs := make([]error, len(calls))

	var g errgroup.Group
	if a.maxParallel > 0 {
		g.SetLimit(a.maxParallel)
	}
	for i := range calls {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("tool", calls[i].Name).Bytes("stack", debug.Stack()).Msg("tool panicked")
					errs[i] = fmt.Errorf("panic: %v", r)
				}
			}()
			toolStart := time.Now()
			outputs[i], errs[i] = resolved[i].Call(ctx, a.data, caller, calls[i].Arguments)
			log.Debug().
				Str("tool", calls[i].Name).
				Str("call_id", calls[i].ID).
				Bool("ok", errs[i] == nil).
				Dur("duration", time.Since(toolStart)).
				Msg("tool executed")
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("%w: %s (call %s): %w", ErrToolFailed, calls[i].Name, calls[i].ID, err)
		}
	}
	return outputs, nil
}

// turnError maps deadline expiry of the turn context to ErrTimeout
func (a *Assistant) turnError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", ErrTimeout, a.timeout, err)
	}
	return err
}

// Classify names the failure kind and whether resubmitting the turn may succeed
func Classify(err error) (kind string, retryable bool) {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout", true
	case errors.Is(err, ErrUnknownTool):
		return "unknown_tool", false
	case errors.Is(err, ErrToolFailed):
		return "tool_failed", true
	case errors.Is(err, llm.ErrModelUnavailable):
		return "model_unavailable", true
	}
	return "internal", false
}
