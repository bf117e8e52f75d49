package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"
)

const anthropicMaxTokens = 4096

// Anthropic adapts the Messages API to the Client interface
type Anthropic struct {
	client *anthropic.Client
	model  string
}

var _ Client = (*Anthropic)(nil)

// NewAnthropic builds a client for Anthropic Claude or a compatible provider
func NewAnthropic(apiKey, baseURL, model string, opts ...option.RequestOption) *Anthropic {
	if model == "" {
		model = "claude-sonnet-4-6"
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)
	return &Anthropic{client: anthropic.NewClient(reqOpts...), model: model}
}

func (c *Anthropic) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	system, messages := toAnthropicMessages(req.Messages, len(req.Tools) > 0)
	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(model)),
		MaxTokens: anthropic.F(int64(anthropicMaxTokens)),
		Messages:  anthropic.F(messages),
	}
	if system != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{anthropic.NewTextBlock(system)})
	}
	if len(req.Tools) > 0 {
		toolParams := make([]anthropic.ToolUnionUnionParam, len(req.Tools))
		for i, t := range req.Tools {
			toolParams[i] = anthropic.ToolParam{
				Name:        anthropic.String(t.Name),
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.F[interface{}](paramsOrEmpty(t.Parameters)),
			}
		}
		params.Tools = anthropic.F(toolParams)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: messages.new: %w", ErrModelUnavailable, err)
	}

	out := &Response{
		Message: Message{Role: RoleAssistant},
		Usage: Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}
	var text strings.Builder
	for _, block := range resp.Content {
		switch b := block.AsUnion().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			out.Message.ToolCalls = append(out.Message.ToolCalls, ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: string(b.Input),
			})
		}
	}
	out.Message.Content = text.String()

	log.Debug().
		Str("model", model).
		Str("stop_reason", string(resp.StopReason)).
		Int("tool_calls", len(out.Message.ToolCalls)).
		Msg("anthropic completion")
	return out, nil
}

// toAnthropicMessages lifts system turns into the system prompt and folds each
// run of consecutive tool turns into one user message. The API rejects tool_use
// and tool_result blocks in a request without tools, so when withTools is false
// earlier tool calls and results are rendered as text blocks instead.
func toAnthropicMessages(msgs []Message, withTools bool) (string, []anthropic.MessageParam) {
	var system []string
	var out []anthropic.MessageParam
	var pending []anthropic.ContentBlockParamUnion

	flush := func() {
		if len(pending) > 0 {
			out = append(out, anthropic.NewUserMessage(pending...))
			pending = nil
		}
	}

	for _, m := range msgs {
		if m.Role == RoleTool {
			if withTools {
				pending = append(pending, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false))
			} else {
				pending = append(pending, anthropic.NewTextBlock(
					fmt.Sprintf("Result of %s (call %s):\n%s", m.Name, m.ToolCallID, m.Content)))
			}
			continue
		}
		flush()

		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				if withTools {
					blocks = append(blocks, anthropic.NewToolUseBlockParam(tc.ID, tc.Name, toolInput(tc.Arguments)))
					continue
				}
				blocks = append(blocks, anthropic.NewTextBlock(
					fmt.Sprintf("Called tool %s (call %s) with arguments %s", tc.Name, tc.ID, toolInput(tc.Arguments))))
			}
			if len(blocks) == 0 {
				blocks = append(blocks, anthropic.NewTextBlock(""))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		}
	}
	flush()
	return strings.Join(system, "\n\n"), out
}

// toolInput turns raw argument JSON into a value the SDK can re-encode; tool_use
// input must be an object.
func toolInput(args string) json.RawMessage {
	raw := json.RawMessage(strings.TrimSpace(args))
	var obj map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &obj) != nil || obj == nil {
		return json.RawMessage(`{}`)
	}
	return raw
}
