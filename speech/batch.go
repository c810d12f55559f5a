package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// BatchAPI uploads recordings to a generic transcription endpoint as
// multipart form data with a single file field, and reads the transcript
// from the JSON response.
type BatchAPI struct {
	url   string
	field string
	http  *http.Client
}

// BatchAPIConfig holds configuration for BatchAPI.
type BatchAPIConfig struct {
	URL       string
	FileField string        // defaults to "file"
	Timeout   time.Duration // defaults to 60s
}

// NewBatchAPI creates a batch transcription provider.
func NewBatchAPI(cfg BatchAPIConfig) *BatchAPI {
	field := cfg.FileField
	if field == "" {
		field = "file"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &BatchAPI{
		url:   cfg.URL,
		field: field,
		http:  &http.Client{Timeout: timeout},
	}
}

// Name returns the provider identifier.
func (b *BatchAPI) Name() string { return "batch-http" }

// Transcribe wraps the samples in a WAV container and uploads them.
// A response without a transcript field is not an error; the raw body is
// surfaced instead.
func (b *BatchAPI) Transcribe(ctx context.Context, samples []float32, sampleRate int) (*TranscribeResult, error) {
	wav := EncodeWAV(samples, sampleRate)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(b.field, "recording.wav")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload recording: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcription endpoint returned %d: %s", resp.StatusCode, body)
	}

	result := &TranscribeResult{}
	if err := json.Unmarshal(body, result); err != nil || result.Text == "" {
		result.Raw = string(body)
	}
	return result, nil
}
