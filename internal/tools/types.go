// Package tools defines the assistant's tool descriptors, the registry that maps
// names to callables, and the inventory tools themselves.
package tools

import (
	"context"
	"errors"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/store"
)

// ErrBadArguments is returned by strict tools whose argument payload cannot be used
var ErrBadArguments = errors.New("bad tool arguments")

// Convention selects how a tool is called
type Convention int

const (
	// UserScoped tools receive the caller and ignore model-supplied arguments
	UserScoped Convention = iota + 1
	// ArgumentScoped tools receive the parsed argument payload
	ArgumentScoped
)

func (c Convention) String() string {
	switch c {
	case UserScoped:
		return "user-scoped"
	case ArgumentScoped:
		return "argument-scoped"
	}
	return "unknown"
}

// Param describes one tool parameter
type Param struct {
	Type        string
	Description string
	Required    bool
}

// Descriptor is what the model sees about a tool
type Descriptor struct {
	Name        string
	Description string
	Params      map[string]Param
	Convention  Convention
	// Lenient tools run with empty arguments when the payload is malformed
	Lenient bool
}

// Args is a parsed argument payload
type Args map[string]any

// String returns the string argument key, or "" when absent or not a string.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// UserFunc implements a user-scoped tool
type UserFunc func(ctx context.Context, data store.Reader, caller models.User) (any, error)

// ArgsFunc implements an argument-scoped tool
type ArgsFunc func(ctx context.Context, data store.Reader, args Args) (any, error)

// Tool is a descriptor plus the callable matching its convention
type Tool struct {
	Descriptor
	User UserFunc
	Args ArgsFunc

	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
}
