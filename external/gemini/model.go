package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/auth/credentials"
	"github.com/Houssemalou/lingua-hub/internal/assistant"
	"google.golang.org/genai"
)

type ClientConfig struct {
	APIKey          string
	Model           string
	UseVertex       bool
	ProjectID       string
	Location        string
	CredentialsJSON string
}

type Model struct {
	client *genai.Client
	model  string
}

func NewModel(ctx context.Context, cfg ClientConfig) (*Model, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.UseVertex {
		cc = &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  cfg.ProjectID,
			Location: cfg.Location,
		}
		if cfg.CredentialsJSON != "" {
			creds, err := credentials.DetectDefault(&credentials.DetectOptions{
				CredentialsJSON: []byte(cfg.CredentialsJSON),
				Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
			})
			if err != nil {
				return nil, fmt.Errorf("detect credentials: %w", err)
			}
			cc.Credentials = creds
		}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	slog.Info("gemini client initialized", "model", cfg.Model, "vertex", cfg.UseVertex)
	return &Model{client: client, model: cfg.Model}, nil
}

func (m *Model) Name() string {
	return m.model
}

func (m *Model) Generate(ctx context.Context, req assistant.Request) (*assistant.Response, error) {
	var cfg *genai.GenerateContentConfig
	if len(req.Tools) > 0 {
		cfg = &genai.GenerateContentConfig{Tools: toGenaiTools(req.Tools)}
	}
	resp, err := m.client.Models.GenerateContent(ctx, m.model, toGenaiContents(req.Messages), cfg)
	if err != nil {
		return nil, err
	}
	return fromGenaiResponse(resp), nil
}

func toGenaiContents(messages []assistant.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		c := &genai.Content{Role: string(msg.Role)}
		if msg.Text != "" {
			c.Parts = append(c.Parts, &genai.Part{Text: msg.Text})
		}
		if msg.Audio != nil {
			c.Parts = append(c.Parts, &genai.Part{InlineData: &genai.Blob{MIMEType: msg.Audio.MIMEType, Data: msg.Audio.Data}})
		}
		for _, call := range msg.Calls {
			c.Parts = append(c.Parts, &genai.Part{
				FunctionCall:     &genai.FunctionCall{ID: call.ID, Name: call.Name, Args: call.Args},
				ThoughtSignature: call.ThoughtSignature,
			})
		}
		for _, res := range msg.Results {
			c.Parts = append(c.Parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{ID: res.ID, Name: res.Name, Response: res.Response}})
		}
		if len(c.Parts) == 0 {
			continue
		}
		contents = append(contents, c)
	}
	return contents
}

func toGenaiTools(decls []assistant.ToolDeclaration) []*genai.Tool {
	fns := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		schema := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: make(map[string]*genai.Schema, len(d.Parameters)),
		}
		for _, p := range d.Parameters {
			schema.Properties[p.Name] = &genai.Schema{Type: schemaType(p.Type), Description: p.Description}
			if p.Required {
				schema.Required = append(schema.Required, p.Name)
			}
		}
		fns = append(fns, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  schema,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: fns}}
}

func schemaType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// fromGenaiResponse reads the first candidate. Function-call parts keep their
// thought signature; text is only collected when there are no calls.
func fromGenaiResponse(resp *genai.GenerateContentResponse) *assistant.Response {
	out := &assistant.Response{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.FunctionCall == nil {
			continue
		}
		fc := part.FunctionCall
		out.Calls = append(out.Calls, assistant.FunctionCall{
			ID:               fc.ID,
			Name:             fc.Name,
			Args:             fc.Args,
			ThoughtSignature: part.ThoughtSignature,
		})
	}
	if len(out.Calls) == 0 {
		out.Text = resp.Text()
	}
	return out
}
