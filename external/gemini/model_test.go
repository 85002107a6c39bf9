package gemini

import (
	"context"
	"testing"

	"github.com/Houssemalou/lingua-hub/internal/assistant"
	"github.com/Houssemalou/lingua-hub/internal/audio"
	"google.golang.org/genai"
)

func TestToGenaiContents_MapsEveryPartKind(t *testing.T) {
	contents := toGenaiContents([]assistant.Message{
		{Role: assistant.RoleUser, Text: "hello", Audio: &assistant.Blob{MIMEType: "audio/wav", Data: []byte{1, 2}}},
		{Role: assistant.RoleModel, Calls: []assistant.FunctionCall{{ID: "c1", Name: "get_room_info", Args: map[string]any{"room_id": "r1"}}}},
		{Role: assistant.RoleUser, Results: []assistant.FunctionResult{{ID: "c1", Name: "get_room_info", Response: map[string]any{"level": "B1"}}}},
		{Role: assistant.RoleUser},
	})

	if len(contents) != 3 {
		t.Fatalf("expected empty message to be skipped, got %d contents", len(contents))
	}
	if contents[0].Role != "user" || len(contents[0].Parts) != 2 {
		t.Fatalf("unexpected first content: %+v", contents[0])
	}
	if contents[0].Parts[0].Text != "hello" || contents[0].Parts[1].InlineData.MIMEType != "audio/wav" {
		t.Fatalf("unexpected first content parts: %+v", contents[0].Parts)
	}
	call := contents[1].Parts[0].FunctionCall
	if contents[1].Role != "model" || call == nil || call.Name != "get_room_info" || call.Args["room_id"] != "r1" {
		t.Fatalf("unexpected function call content: %+v", contents[1])
	}
	res := contents[2].Parts[0].FunctionResponse
	if res == nil || res.ID != "c1" || res.Response["level"] != "B1" {
		t.Fatalf("unexpected function response content: %+v", contents[2])
	}
}

func TestToGenaiTools_BuildsObjectSchema(t *testing.T) {
	tools := toGenaiTools([]assistant.ToolDeclaration{{
		Name:        "get_room_info",
		Description: "room",
		Parameters: []assistant.ToolParameter{
			{Name: "room_id", Type: "string", Description: "id", Required: true},
			{Name: "limit", Type: "integer"},
		},
	}})

	if len(tools) != 1 || len(tools[0].FunctionDeclarations) != 1 {
		t.Fatalf("unexpected tools: %+v", tools)
	}
	decl := tools[0].FunctionDeclarations[0]
	if decl.Parameters.Type != genai.TypeObject {
		t.Fatalf("unexpected schema type: %v", decl.Parameters.Type)
	}
	if decl.Parameters.Properties["room_id"].Type != genai.TypeString || decl.Parameters.Properties["limit"].Type != genai.TypeInteger {
		t.Fatalf("unexpected property types: %+v", decl.Parameters.Properties)
	}
	if len(decl.Parameters.Required) != 1 || decl.Parameters.Required[0] != "room_id" {
		t.Fatalf("unexpected required list: %+v", decl.Parameters.Required)
	}
}

func TestFromGenaiResponse_Nil(t *testing.T) {
	got := fromGenaiResponse(nil)
	if got == nil || got.Text != "" || len(got.Calls) != 0 {
		t.Fatalf("unexpected response: %+v", got)
	}
}

type stubModel struct {
	got  assistant.Request
	text string
}

func (m *stubModel) Name() string { return "stub" }

func (m *stubModel) Generate(_ context.Context, req assistant.Request) (*assistant.Response, error) {
	m.got = req
	return &assistant.Response{Text: m.text}, nil
}

func TestModelTranscriber_SendsWAVAndTrims(t *testing.T) {
	model := &stubModel{text: "  bonjour tout le monde \n"}
	stt := NewModelTranscriber(model)

	text, err := stt.Transcribe(context.Background(), audio.Chunk{SampleRate: audio.SampleRate, Channels: audio.Channels, PCM: []int16{1, 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "bonjour tout le monde" {
		t.Fatalf("unexpected text: %q", text)
	}
	if len(model.got.Messages) != 1 || model.got.Messages[0].Audio == nil {
		t.Fatalf("expected a single message with audio, got %+v", model.got.Messages)
	}
	if model.got.Messages[0].Audio.MIMEType != "audio/wav" || string(model.got.Messages[0].Audio.Data[:4]) != "RIFF" {
		t.Fatal("expected inline wav payload")
	}
	if len(model.got.Tools) != 0 {
		t.Fatal("transcription must not declare tools")
	}
}

func TestFunctionCallTurn_ReplaysThoughtSignature(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: "model",
				Parts: []*genai.Part{{
					FunctionCall:     &genai.FunctionCall{ID: "c1", Name: "get_room_info", Args: map[string]any{"room_id": "r1"}},
					ThoughtSignature: []byte("sig"),
				}},
			},
		}},
	}

	got := fromGenaiResponse(resp)
	if got.Text != "" {
		t.Fatalf("expected no text on a function-call turn, got %q", got.Text)
	}
	if len(got.Calls) != 1 || string(got.Calls[0].ThoughtSignature) != "sig" {
		t.Fatalf("unexpected calls: %+v", got.Calls)
	}

	contents := toGenaiContents([]assistant.Message{{Role: assistant.RoleModel, Calls: got.Calls}})
	if len(contents) != 1 || len(contents[0].Parts) != 1 {
		t.Fatalf("unexpected contents: %+v", contents)
	}
	part := contents[0].Parts[0]
	if part.FunctionCall == nil || part.FunctionCall.Name != "get_room_info" {
		t.Fatalf("unexpected replayed part: %+v", part)
	}
	if string(part.ThoughtSignature) != "sig" {
		t.Fatalf("expected thought signature to be replayed, got %q", part.ThoughtSignature)
	}
}

func TestFromGenaiResponse_Text(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: "{\"summary\":\"ok\"}"}}},
		}},
	}
	got := fromGenaiResponse(resp)
	if got.Text != `{"summary":"ok"}` || len(got.Calls) != 0 {
		t.Fatalf("unexpected response: %+v", got)
	}
}
