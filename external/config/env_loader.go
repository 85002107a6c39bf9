package config

import (
	"fmt"
	"strings"
	"time"

	internalconfig "github.com/Houssemalou/lingua-hub/internal/config"
	"github.com/caarlos0/env/v11"
)

type envConfig struct {
	Env string `env:"ENV" envDefault:"production"`

	LiveKitURL                  string   `env:"LIVEKIT_URL,required"`
	LiveKitAPIKey               string   `env:"LIVEKIT_API_KEY,required"`
	LiveKitAPISecret            string   `env:"LIVEKIT_API_SECRET,required"`
	LiveKitAgentIdentity        string   `env:"LIVEKIT_AGENT_IDENTITY" envDefault:"session-agent"`
	LiveKitRooms                []string `env:"LIVEKIT_ROOMS" envSeparator:","`
	LiveKitSubscribeScreenShare bool     `env:"LIVEKIT_SUBSCRIBE_SCREEN_SHARE" envDefault:"true"`
	WebhookListenAddr           string   `env:"WEBHOOK_LISTEN_ADDR" envDefault:":8090"`

	GeminiAPIKey               string `env:"GEMINI_API_KEY"`
	GeminiModel                string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	GeminiUseVertex            bool   `env:"GEMINI_USE_VERTEX" envDefault:"false"`
	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudLocation        string `env:"GOOGLE_CLOUD_LOCATION" envDefault:"us-central1"`

	Transcriber               string `env:"TRANSCRIBER" envDefault:"gemini"`
	GoogleCloudSpeechLocation string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel    string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"long"`
	GoogleCloudSpeechRetry    bool   `env:"GOOGLE_CLOUD_SPEECH_RETRY" envDefault:"false"`
	DefaultTranscribeLanguage string `env:"DEFAULT_TRANSCRIBE_LANGUAGE" envDefault:"en-US"`

	BackendURL     string        `env:"BACKEND_URL" envDefault:"http://localhost:8080"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`

	ModelTimeout         time.Duration `env:"MODEL_TIMEOUT" envDefault:"60s"`
	TranscriptionTimeout time.Duration `env:"TRANSCRIPTION_TIMEOUT" envDefault:"30s"`
	MaxToolCalls         int           `env:"MAX_TOOL_CALLS" envDefault:"8"`

	AudioChunkDuration    time.Duration `env:"AUDIO_CHUNK_DURATION" envDefault:"10s"`
	AudioMinChunkDuration time.Duration `env:"AUDIO_MIN_CHUNK_DURATION" envDefault:"1s"`
	AudioSilenceRMS       float64       `env:"AUDIO_SILENCE_RMS" envDefault:"0"`

	ParticipantQueueSize        int           `env:"PARTICIPANT_QUEUE_SIZE" envDefault:"8"`
	MaxConcurrentTranscriptions int           `env:"MAX_CONCURRENT_TRANSCRIPTIONS" envDefault:"4"`
	MaxTranscriptRecords        int           `env:"MAX_TRANSCRIPT_RECORDS" envDefault:"5000"`
	SummaryFlushTimeout         time.Duration `env:"SUMMARY_FLUSH_TIMEOUT" envDefault:"15s"`
	MaxSessionDurationMin       int           `env:"MAX_SESSION_DURATION_MIN" envDefault:"180"`

	DatabaseURL string `env:"DATABASE_URL"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                         raw.Env,
		LiveKitURL:                  raw.LiveKitURL,
		LiveKitAPIKey:               raw.LiveKitAPIKey,
		LiveKitAPISecret:            raw.LiveKitAPISecret,
		LiveKitAgentIdentity:        raw.LiveKitAgentIdentity,
		LiveKitRooms:                compactRooms(raw.LiveKitRooms),
		LiveKitSubscribeScreenShare: raw.LiveKitSubscribeScreenShare,
		WebhookListenAddr:           raw.WebhookListenAddr,
		GeminiAPIKey:                raw.GeminiAPIKey,
		GeminiModel:                 raw.GeminiModel,
		GeminiUseVertex:             raw.GeminiUseVertex,
		GoogleCloudProjectID:        raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON:  raw.GoogleCloudCredentialsJSON,
		GoogleCloudLocation:         raw.GoogleCloudLocation,
		Transcriber:                 raw.Transcriber,
		GoogleCloudSpeechLocation:   raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:      raw.GoogleCloudSpeechModel,
		GoogleCloudSpeechRetry:      raw.GoogleCloudSpeechRetry,
		DefaultTranscribeLanguage:   raw.DefaultTranscribeLanguage,
		BackendURL:                  raw.BackendURL,
		BackendTimeout:              raw.BackendTimeout,
		ModelTimeout:                raw.ModelTimeout,
		TranscriptionTimeout:        raw.TranscriptionTimeout,
		MaxToolCalls:                raw.MaxToolCalls,
		AudioChunkDuration:          raw.AudioChunkDuration,
		AudioMinChunkDuration:       raw.AudioMinChunkDuration,
		AudioSilenceRMS:             raw.AudioSilenceRMS,
		ParticipantQueueSize:        raw.ParticipantQueueSize,
		MaxConcurrentTranscriptions: raw.MaxConcurrentTranscriptions,
		MaxTranscriptRecords:        raw.MaxTranscriptRecords,
		SummaryFlushTimeout:         raw.SummaryFlushTimeout,
		MaxSessionDurationMin:       raw.MaxSessionDurationMin,
		DatabaseURL:                 raw.DatabaseURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func compactRooms(rooms []string) []string {
	out := make([]string, 0, len(rooms))
	seen := make(map[string]struct{}, len(rooms))
	for _, r := range rooms {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
