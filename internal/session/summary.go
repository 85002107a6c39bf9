package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Houssemalou/lingua-hub/internal/backend"
)

const (
	generatedByFallback = "fallback"

	// activeParticipationThreshold is exclusive: more interactions than this
	// count as active.
	activeParticipationThreshold = 10
	participationActive          = "active"
	participationModerate        = "moderate"
)

type summaryPromptInput struct {
	SessionID    string
	RoomID       string
	Elapsed      time.Duration
	Participants int
	Transcript   string
	ModelName    string
}

func buildSummaryPrompt(in summaryPromptInput) string {
	var b strings.Builder
	b.WriteString("You analyse recorded language-learning sessions.\n\n")
	fmt.Fprintf(&b, "Session ID: %s\n", in.SessionID)
	fmt.Fprintf(&b, "Room ID: %s\n", in.RoomID)
	fmt.Fprintf(&b, "Duration: %.1f minutes\n", in.Elapsed.Minutes())
	fmt.Fprintf(&b, "Participants: %d\n\n", in.Participants)
	b.WriteString("Full transcript:\n")
	b.WriteString(in.Transcript)
	b.WriteString("\n\nSteps:\n")
	fmt.Fprintf(&b, "1. Call %s(room_id=%q) for the session objective, taught language, student level and instructor.\n", toolGetRoomInfo, in.RoomID)
	fmt.Fprintf(&b, "2. Call %s(room_id=%q) for the participant list with names and roles.\n", toolGetRoomParticipants, in.RoomID)
	b.WriteString("3. Analyse the transcript in that context.\n")
	b.WriteString("4. Produce one JSON object with these fields:\n")
	b.WriteString("   - summary: overall summary of the session\n")
	b.WriteString("   - key_topics: main topics covered (array of strings)\n")
	b.WriteString("   - vocabulary_covered: new vocabulary (array of objects with word and definition)\n")
	b.WriteString("   - grammar_points: grammar discussed (array of objects with explanations)\n")
	b.WriteString("   - student_highlights: per student {participation, strengths, areas_to_improve} keyed by student id\n")
	b.WriteString("   - recommendations: suggestions for the next session (array of strings)\n")
	b.WriteString("   - audio_transcript: the full transcript\n")
	b.WriteString("   - duration_minutes: duration in whole minutes (integer)\n")
	fmt.Fprintf(&b, "   - generated_by: %q\n\n", in.ModelName)
	b.WriteString("Reply with the JSON object only, no text before or after it.")
	return b.String()
}

// renderTranscript orders records by capture time so that transcriptions
// finishing out of order across participants still read chronologically.
func renderTranscript(records []TranscriptionRecord) string {
	ordered := append([]TranscriptionRecord(nil), records...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CapturedAt.Before(ordered[j].CapturedAt)
	})
	lines := make([]string, 0, len(ordered))
	for _, r := range ordered {
		lines = append(lines, fmt.Sprintf("[%s]: %s", r.Participant, r.Text))
	}
	return strings.Join(lines, "\n")
}

var errNoJSONObject = errors.New("model response contains no JSON object")

// modelSummary accepts fractional durations; the outer field shadows the
// embedded integer one.
type modelSummary struct {
	backend.SessionSummary
	DurationMinutes float64 `json:"duration_minutes"`
}

func parseSummary(text string) (backend.SessionSummary, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return backend.SessionSummary{}, errNoJSONObject
	}
	var ms modelSummary
	if err := json.Unmarshal([]byte(text[start:end+1]), &ms); err != nil {
		return backend.SessionSummary{}, fmt.Errorf("decode model summary: %w", err)
	}
	s := ms.SessionSummary
	s.DurationMinutes = int(ms.DurationMinutes)
	return s, nil
}

func normalizeSummary(s *backend.SessionSummary, transcript string, minutes int, generatedBy string) {
	if s.AudioTranscript == "" {
		s.AudioTranscript = transcript
	}
	if s.GeneratedBy == "" {
		s.GeneratedBy = generatedBy
	}
	if s.DurationMinutes <= 0 {
		s.DurationMinutes = minutes
	}
	if s.KeyTopics == nil {
		s.KeyTopics = []json.RawMessage{}
	}
	if s.VocabularyCovered == nil {
		s.VocabularyCovered = []json.RawMessage{}
	}
	if s.GrammarPoints == nil {
		s.GrammarPoints = []json.RawMessage{}
	}
	if s.Recommendations == nil {
		s.Recommendations = []json.RawMessage{}
	}
	if s.StudentHighlights == nil {
		s.StudentHighlights = map[string]backend.ParticipantHighlight{}
	}
}

func fallbackSummary(transcript string, elapsed time.Duration, activity map[string]ParticipantActivity) backend.SessionSummary {
	highlights := make(map[string]backend.ParticipantHighlight, len(activity))
	for identity, a := range activity {
		highlights[identity] = backend.ParticipantHighlight{
			Interactions:  a.Interactions,
			Participation: participationLabel(a.Interactions),
		}
	}
	return backend.SessionSummary{
		Summary:           fmt.Sprintf("Session completed. Duration: %.1f minutes, %d participants.", elapsed.Minutes(), len(activity)),
		KeyTopics:         []json.RawMessage{},
		VocabularyCovered: []json.RawMessage{},
		GrammarPoints:     []json.RawMessage{},
		StudentHighlights: highlights,
		Recommendations:   []json.RawMessage{},
		AudioTranscript:   transcript,
		DurationMinutes:   durationFloor(elapsed),
		GeneratedBy:       generatedByFallback,
	}
}

func participationLabel(interactions int) string {
	if interactions > activeParticipationThreshold {
		return participationActive
	}
	return participationModerate
}

func durationFloor(elapsed time.Duration) int {
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / time.Minute)
}
