package speech

import (
	"bytes"
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Whisper is a batch Transcriber backed by OpenAI's transcription API via
// the official SDK.
type Whisper struct {
	client openai.Client
	model  openai.AudioModel
}

// NewWhisper creates a Whisper provider. An empty model selects whisper-1.
func NewWhisper(apiKey, model string) *Whisper {
	m := openai.AudioModel(model)
	if model == "" {
		m = openai.AudioModelWhisper1
	}
	return &Whisper{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  m,
	}
}

// Name returns the provider identifier.
func (w *Whisper) Name() string { return "whisper" }

// Transcribe wraps the samples in a WAV container and sends them through the
// SDK.
func (w *Whisper) Transcribe(ctx context.Context, samples []float32, sampleRate int) (*TranscribeResult, error) {
	wav := EncodeWAV(samples, sampleRate)

	resp, err := w.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(wav), "recording.wav", "audio/wav"),
		Model: w.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai transcription: %w", err)
	}

	return &TranscribeResult{Text: resp.Text}, nil
}
