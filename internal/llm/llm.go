// Package llm is the provider-neutral chat-completion surface used by the assistant.
package llm

import (
	"context"
	"errors"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrModelUnavailable wraps every failure talking to the model API. Callers may retry the turn.
var ErrModelUnavailable = errors.New("model unavailable")

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolChoiceAuto lets the model decide whether to call tools
const ToolChoiceAuto = "auto"

// ToolCall is one tool invocation requested by the model
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON, may be empty
}

// Message is one entry of the conversation sent to the model.
// Assistant messages may carry ToolCalls; tool messages carry ToolCallID and Name.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// ToolSpec describes a callable tool to the model
type ToolSpec struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// Request is one chat-completion call
type Request struct {
	Model      string // empty means the client default
	Messages   []Message
	Tools      []ToolSpec
	ToolChoice string // only sent when Tools is non-empty
}

// Usage is the token accounting reported by the provider
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response is the model's reply: text and/or tool calls
type Response struct {
	Message Message
	Usage   Usage
}

// Client performs chat completions. Implementations are safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// emptyObjectSchema is sent for tools that take no parameters
func emptyObjectSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}}
}

func paramsOrEmpty(s *jsonschema.Schema) *jsonschema.Schema {
	if s == nil {
		return emptyObjectSchema()
	}
	return s
}
