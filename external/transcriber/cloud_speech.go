package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/Houssemalou/lingua-hub/internal/audio"
	"github.com/Houssemalou/lingua-hub/internal/transcriber"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const speechAPIEndpointPort = 443

type CloudSpeechConfig struct {
	ProjectID        string
	CredentialsJSON  string
	Language         string
	Location         string
	Model            string
	// RetryUnavailable retries a chunk once after Unavailable or Aborted.
	RetryUnavailable bool
}

type CloudSpeechTranscriber struct {
	projectID        string
	credentialsJSON  string
	language         string
	location         string
	model            string
	retryUnavailable bool

	mu     sync.Mutex
	client *speech.Client
}

func NewCloudSpeechTranscriber(cfg CloudSpeechConfig) transcriber.Transcriber {
	return &CloudSpeechTranscriber{
		projectID:        cfg.ProjectID,
		credentialsJSON:  cfg.CredentialsJSON,
		language:         cfg.Language,
		location:         strings.TrimSpace(cfg.Location),
		model:            strings.TrimSpace(cfg.Model),
		retryUnavailable: cfg.RetryUnavailable,
	}
}

type recognizeCall func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

func (t *CloudSpeechTranscriber) Transcribe(ctx context.Context, chunk audio.Chunk) (string, error) {
	client, err := t.speechClient(ctx)
	if err != nil {
		return "", err
	}
	resp, err := t.recognize(ctx, t.recognizeRequest(chunk), func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return client.Recognize(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	parts := make([]string, 0, len(resp.GetResults()))
	for _, result := range resp.GetResults() {
		if len(result.GetAlternatives()) == 0 {
			continue
		}
		if text := strings.TrimSpace(result.GetAlternatives()[0].GetTranscript()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

func (t *CloudSpeechTranscriber) recognize(ctx context.Context, req *speechpb.RecognizeRequest, call recognizeCall) (*speechpb.RecognizeResponse, error) {
	resp, err := call(ctx, req)
	if err != nil && t.retryUnavailable && isRetryableRecognizeError(err) {
		slog.Warn("cloud speech recognize failed with retryable error; retrying once", "error", err)
		resp, err = call(ctx, req)
	}
	return resp, err
}

func (t *CloudSpeechTranscriber) recognizeRequest(chunk audio.Chunk) *speechpb.RecognizeRequest {
	return &speechpb.RecognizeRequest{
		Recognizer: fmt.Sprintf("projects/%s/locations/%s/recognizers/_", t.projectID, t.location),
		Config: &speechpb.RecognitionConfig{
			Model:         t.model,
			LanguageCodes: []string{t.language},
			DecodingConfig: &speechpb.RecognitionConfig_ExplicitDecodingConfig{
				ExplicitDecodingConfig: &speechpb.ExplicitDecodingConfig{
					Encoding:          speechpb.ExplicitDecodingConfig_LINEAR16,
					SampleRateHertz:   int32(chunk.SampleRate),
					AudioChannelCount: int32(chunk.Channels),
				},
			},
			Features: &speechpb.RecognitionFeatures{EnableAutomaticPunctuation: true},
		},
		AudioSource: &speechpb.RecognizeRequest_Content{Content: chunk.PCMBytes()},
	}
}

func (t *CloudSpeechTranscriber) speechClient(ctx context.Context) (*speech.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		return t.client, nil
	}
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(t.credentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}
	opts := []option.ClientOption{
		option.WithAuthCredentials(creds),
	}
	if t.location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", t.location, speechAPIEndpointPort)))
	}
	// The client outlives the request that created it.
	client, err := speech.NewClient(context.WithoutCancel(ctx), opts...)
	if err != nil {
		return nil, err
	}
	slog.Info("cloud speech client initialized", "location", t.location, "model", t.model, "language", t.language)
	t.client = client
	return client, nil
}

func (t *CloudSpeechTranscriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

func isRetryableRecognizeError(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	return st.Code() == codes.Unavailable || st.Code() == codes.Aborted
}
