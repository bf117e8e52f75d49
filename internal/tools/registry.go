package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/rs/zerolog/log"
	"github.com/stockwise/stockwise/internal/llm"
	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/store"
)

// Registry is the fixed name -> tool table. It is built once and never mutated.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry validates and indexes tools in the given order
func NewRegistry(tools ...Tool) (*Registry, error) {
	if len(tools) == 0 {
		return nil, fmt.Errorf("registry: no tools")
	}
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("registry: tool with empty name")
		}
		if _, dup := r.tools[t.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate tool %q", t.Name)
		}
		switch t.Convention {
		case UserScoped:
			if t.User == nil || t.Args != nil {
				return nil, fmt.Errorf("registry: %s tool %q needs exactly a user func", t.Convention, t.Name)
			}
		case ArgumentScoped:
			if t.Args == nil || t.User != nil {
				return nil, fmt.Errorf("registry: %s tool %q needs exactly an args func", t.Convention, t.Name)
			}
		default:
			return nil, fmt.Errorf("registry: tool %q has no calling convention", t.Name)
		}

		t.schema = buildSchema(t.Params)
		resolved, err := t.schema.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("registry: resolve schema for %q: %w", t.Name, err)
		}
		t.resolved = resolved

		r.order = append(r.order, t.Name)
		r.tools[t.Name] = t
	}
	return r, nil
}

// Describe returns every descriptor in registration order
func (r *Registry) Describe() []Descriptor {
	out := make([]Descriptor, len(r.order))
	for i, name := range r.order {
		out[i] = r.tools[name].Descriptor
	}
	return out
}

// Resolve looks a tool up by name
func (r *Registry) Resolve(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Specs renders the descriptors for the model API
func (r *Registry) Specs() []llm.ToolSpec {
	out := make([]llm.ToolSpec, len(r.order))
	for i, name := range r.order {
		t := r.tools[name]
		out[i] = llm.ToolSpec{Name: t.Name, Description: t.Description, Parameters: t.schema}
	}
	return out
}

func buildSchema(params map[string]Param) *jsonschema.Schema {
	s := &jsonschema.Schema{Type: "object", Properties: make(map[string]*jsonschema.Schema, len(params))}
	for name, p := range params {
		s.Properties[name] = &jsonschema.Schema{Type: p.Type, Description: p.Description}
		if p.Required {
			s.Required = append(s.Required, name)
		}
	}
	sort.Strings(s.Required)
	return s
}

// Call runs the tool according to its convention and renders the result as text.
// rawArgs is the model's argument payload; user-scoped tools ignore it.
func (t Tool) Call(ctx context.Context, data store.Reader, caller models.User, rawArgs string) (string, error) {
	var (
		result any
		err    error
	)
	switch t.Convention {
	case UserScoped:
		result, err = t.User(ctx, data, caller)
	case ArgumentScoped:
		args, perr := t.parseArgs(rawArgs)
		if perr != nil {
			return "", perr
		}
		result, err = t.Args(ctx, data, args)
	default:
		return "", fmt.Errorf("tool %q has no calling convention", t.Name)
	}
	if err != nil {
		return "", err
	}
	return Render(result)
}

func (t Tool) parseArgs(raw string) (Args, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		raw = "{}"
	}

	var args Args
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		if !t.Lenient {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadArguments, t.Name, err)
		}
		log.Warn().Err(err).Str("tool", t.Name).Msg("malformed tool arguments, using none")
		return Args{}, nil
	}

	if t.resolved != nil {
		if err := t.resolved.Validate(map[string]any(args)); err != nil {
			if !t.Lenient {
				return nil, fmt.Errorf("%w: %s: %v", ErrBadArguments, t.Name, err)
			}
			log.Debug().Err(err).Str("tool", t.Name).Msg("tool arguments failed schema validation")
		}
	}
	return args, nil
}

// Render stringifies a tool result. Strings pass through; anything else is JSON encoded.
func Render(v any) (string, error) {
	switch r := v.(type) {
	case string:
		return r, nil
	case nil:
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("render tool result: %w", err)
	}
	return string(b), nil
}
