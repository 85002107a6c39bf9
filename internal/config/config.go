package config

import (
	"fmt"
	"time"
)

const (
	TranscriberGemini      = "gemini"
	TranscriberCloudSpeech = "cloud_speech"
)

type Config struct {
	Env string

	LiveKitURL                  string
	LiveKitAPIKey               string
	LiveKitAPISecret            string
	LiveKitAgentIdentity        string
	LiveKitRooms                []string
	LiveKitSubscribeScreenShare bool
	WebhookListenAddr           string

	GeminiAPIKey               string
	GeminiModel                string
	GeminiUseVertex            bool
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudLocation        string

	Transcriber               string
	GoogleCloudSpeechLocation string
	GoogleCloudSpeechModel    string
	GoogleCloudSpeechRetry    bool
	DefaultTranscribeLanguage string

	BackendURL     string
	BackendTimeout time.Duration

	ModelTimeout         time.Duration
	TranscriptionTimeout time.Duration
	MaxToolCalls         int

	AudioChunkDuration    time.Duration
	AudioMinChunkDuration time.Duration
	AudioSilenceRMS       float64

	ParticipantQueueSize        int
	MaxConcurrentTranscriptions int
	MaxTranscriptRecords        int
	SummaryFlushTimeout         time.Duration
	MaxSessionDurationMin       int

	DatabaseURL string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	for _, p := range c.positiveFieldChecks() {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}
	if c.AudioMinChunkDuration > c.AudioChunkDuration {
		return fmt.Errorf("AUDIO_MIN_CHUNK_DURATION (%s) must not exceed AUDIO_CHUNK_DURATION (%s)", c.AudioMinChunkDuration, c.AudioChunkDuration)
	}
	if c.AudioSilenceRMS < 0 {
		return fmt.Errorf("AUDIO_SILENCE_RMS must not be negative, got %v", c.AudioSilenceRMS)
	}
	if c.GeminiUseVertex {
		if c.GoogleCloudProjectID == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID is required when GEMINI_USE_VERTEX=true")
		}
	} else if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required unless GEMINI_USE_VERTEX=true")
	}
	switch c.Transcriber {
	case TranscriberGemini:
	case TranscriberCloudSpeech:
		if c.GoogleCloudProjectID == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID is required when TRANSCRIBER=%s", TranscriberCloudSpeech)
		}
		if c.GoogleCloudCredentialsJSON == "" {
			return fmt.Errorf("GOOGLE_CLOUD_CREDENTIALS_JSON is required when TRANSCRIBER=%s", TranscriberCloudSpeech)
		}
	default:
		return fmt.Errorf("TRANSCRIBER must be %q or %q, got %q", TranscriberGemini, TranscriberCloudSpeech, c.Transcriber)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "LIVEKIT_URL", value: c.LiveKitURL},
		{name: "LIVEKIT_API_KEY", value: c.LiveKitAPIKey},
		{name: "LIVEKIT_API_SECRET", value: c.LiveKitAPISecret},
		{name: "LIVEKIT_AGENT_IDENTITY", value: c.LiveKitAgentIdentity},
		{name: "GEMINI_MODEL", value: c.GeminiModel},
		{name: "BACKEND_URL", value: c.BackendURL},
	}
}

type positiveEnvField struct {
	name  string
	value int64
}

func (c *Config) positiveFieldChecks() []positiveEnvField {
	return []positiveEnvField{
		{name: "BACKEND_TIMEOUT", value: int64(c.BackendTimeout)},
		{name: "MODEL_TIMEOUT", value: int64(c.ModelTimeout)},
		{name: "TRANSCRIPTION_TIMEOUT", value: int64(c.TranscriptionTimeout)},
		{name: "MAX_TOOL_CALLS", value: int64(c.MaxToolCalls)},
		{name: "AUDIO_CHUNK_DURATION", value: int64(c.AudioChunkDuration)},
		{name: "AUDIO_MIN_CHUNK_DURATION", value: int64(c.AudioMinChunkDuration)},
		{name: "PARTICIPANT_QUEUE_SIZE", value: int64(c.ParticipantQueueSize)},
		{name: "MAX_CONCURRENT_TRANSCRIPTIONS", value: int64(c.MaxConcurrentTranscriptions)},
		{name: "MAX_TRANSCRIPT_RECORDS", value: int64(c.MaxTranscriptRecords)},
		{name: "SUMMARY_FLUSH_TIMEOUT", value: int64(c.SummaryFlushTimeout)},
		{name: "MAX_SESSION_DURATION_MIN", value: int64(c.MaxSessionDurationMin)},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) MaxSessionDuration() time.Duration {
	return time.Duration(c.MaxSessionDurationMin) * time.Minute
}

func (c *Config) JournalEnabled() bool {
	return c.DatabaseURL != ""
}
