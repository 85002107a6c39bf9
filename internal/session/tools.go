package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Houssemalou/lingua-hub/internal/assistant"
)

const (
	toolGetRoomInfo         = "get_room_info"
	toolGetRoomParticipants = "get_room_participants"
)

type toolFunc func(ctx context.Context, args map[string]any) map[string]any

type summaryTool struct {
	declaration assistant.ToolDeclaration
	execute     toolFunc
}

func roomIDParameter() []assistant.ToolParameter {
	return []assistant.ToolParameter{{
		Name:        "room_id",
		Type:        "string",
		Description: "Identifier of the room",
		Required:    true,
	}}
}

func (m *Monitor) summaryTools() []summaryTool {
	return []summaryTool{
		{
			declaration: assistant.ToolDeclaration{
				Name:        toolGetRoomInfo,
				Description: "Get room details: objective, language taught, level and instructor",
				Parameters:  roomIDParameter(),
			},
			execute: func(ctx context.Context, args map[string]any) map[string]any {
				return map[string]any{"output": m.backend.FetchRoomInfo(ctx, m.roomIDArg(args))}
			},
		},
		{
			declaration: assistant.ToolDeclaration{
				Name:        toolGetRoomParticipants,
				Description: "Get the participants of the room with their names and roles",
				Parameters:  roomIDParameter(),
			},
			execute: func(ctx context.Context, args map[string]any) map[string]any {
				return map[string]any{"output": m.backend.FetchParticipants(ctx, m.roomIDArg(args))}
			},
		},
	}
}

func (m *Monitor) roomIDArg(args map[string]any) string {
	if v, ok := args["room_id"].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return m.opts.RoomID
}

// runToolLoop sends the prompt and keeps resolving model-issued function
// calls until the model answers with text. At most maxCalls calls are
// executed.
func runToolLoop(ctx context.Context, model assistant.Model, prompt string, tools []summaryTool, maxCalls int) (string, error) {
	declarations := make([]assistant.ToolDeclaration, 0, len(tools))
	byName := make(map[string]toolFunc, len(tools))
	for _, t := range tools {
		declarations = append(declarations, t.declaration)
		byName[t.declaration.Name] = t.execute
	}

	messages := []assistant.Message{assistant.UserText(prompt)}
	executed := 0
	for {
		resp, err := model.Generate(ctx, assistant.Request{Messages: messages, Tools: declarations})
		if err != nil {
			return "", fmt.Errorf("model call: %w", err)
		}
		if len(resp.Calls) == 0 {
			return resp.Text, nil
		}

		messages = append(messages, assistant.Message{Role: assistant.RoleModel, Text: resp.Text, Calls: resp.Calls})
		results := make([]assistant.FunctionResult, 0, len(resp.Calls))
		for _, call := range resp.Calls {
			if executed >= maxCalls {
				return "", fmt.Errorf("max tool calls (%d) exceeded", maxCalls)
			}
			executed++
			slog.Info("executing model tool call", "tool", call.Name, "call_id", call.ID, "args", call.Args)
			var out map[string]any
			if fn, ok := byName[call.Name]; ok {
				out = fn(ctx, call.Args)
			} else {
				out = map[string]any{"error": fmt.Sprintf("unknown tool %q", call.Name)}
			}
			results = append(results, assistant.FunctionResult{ID: call.ID, Name: call.Name, Response: out})
		}
		messages = append(messages, assistant.Message{Role: assistant.RoleUser, Results: results})
	}
}
