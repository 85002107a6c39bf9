// Package assistant describes the request/response protocol spoken with a
// hosted generative model, including model-invoked tool calls.
package assistant

import "context"

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Blob struct {
	MIMEType string
	Data     []byte
}

type ToolParameter struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

type ToolDeclaration struct {
	Name        string
	Description string
	Parameters  []ToolParameter
}

type FunctionCall struct {
	ID   string
	Name string
	Args map[string]any
	// ThoughtSignature is opaque model state that must be replayed with the
	// call on the next turn.
	ThoughtSignature []byte
}

type FunctionResult struct {
	ID       string
	Name     string
	Response map[string]any
}

// Message is one conversation turn. A user turn carries text, audio, or
// function results; a model turn carries text and/or function calls.
type Message struct {
	Role    Role
	Text    string
	Audio   *Blob
	Calls   []FunctionCall
	Results []FunctionResult
}

type Request struct {
	Messages []Message
	Tools    []ToolDeclaration
}

type Response struct {
	Text  string
	Calls []FunctionCall
}

type Model interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Response, error)
}

func UserText(text string) Message {
	return Message{Role: RoleUser, Text: text}
}
