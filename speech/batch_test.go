package speech

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBatchAPI_Transcribe(t *testing.T) {
	var gotField string
	var gotFile []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		for field, headers := range r.MultipartForm.File {
			gotField = field
			f, err := headers[0].Open()
			if err != nil {
				t.Fatalf("open upload: %v", err)
			}
			gotFile, _ = io.ReadAll(f)
			f.Close()
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transcript":"take two tablets daily"}`))
	}))
	defer server.Close()

	api := NewBatchAPI(BatchAPIConfig{URL: server.URL})
	result, err := api.Transcribe(context.Background(), []float32{0.1, -0.1}, 16000)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if result.Text != "take two tablets daily" {
		t.Errorf("Text = %q", result.Text)
	}
	if gotField != "file" {
		t.Errorf("file field = %q, want %q", gotField, "file")
	}
	if len(gotFile) != 44+4 || !bytes.Equal(gotFile[0:4], []byte("RIFF")) {
		t.Errorf("uploaded %d bytes, want a 48-byte WAV container", len(gotFile))
	}
}

func TestBatchAPI_CustomFileField(t *testing.T) {
	var gotField string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		for field := range r.MultipartForm.File {
			gotField = field
		}
		w.Write([]byte(`{"transcript":"ok"}`))
	}))
	defer server.Close()

	api := NewBatchAPI(BatchAPIConfig{URL: server.URL, FileField: "audio"})
	if _, err := api.Transcribe(context.Background(), []float32{0}, 16000); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotField != "audio" {
		t.Errorf("file field = %q, want %q", gotField, "audio")
	}
}

func TestBatchAPI_RawBodyFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"processing"}`))
	}))
	defer server.Close()

	api := NewBatchAPI(BatchAPIConfig{URL: server.URL})
	result, err := api.Transcribe(context.Background(), []float32{0}, 16000)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "" {
		t.Errorf("Text = %q, want empty", result.Text)
	}
	if result.Raw != `{"status":"processing"}` {
		t.Errorf("Raw = %q", result.Raw)
	}
}

func TestBatchAPI_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	api := NewBatchAPI(BatchAPIConfig{URL: server.URL})
	if _, err := api.Transcribe(context.Background(), []float32{0}, 16000); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	a := &fakeTranscriber{name: "a"}
	b := &fakeTranscriber{name: "b"}
	reg.Register(a)
	reg.Register(b)

	if got := reg.Get("a"); got != Transcriber(a) {
		t.Error("Get(a) returned wrong provider")
	}
	if reg.Get("missing") != nil {
		t.Error("Get(missing) should be nil")
	}
	if len(reg.List()) != 2 {
		t.Errorf("List returned %d providers, want 2", len(reg.List()))
	}

	// Re-registering the same name replaces.
	a2 := &fakeTranscriber{name: "a"}
	reg.Register(a2)
	if got := reg.Get("a"); got != Transcriber(a2) {
		t.Error("Register did not replace existing provider")
	}
	if len(reg.List()) != 2 {
		t.Errorf("List returned %d providers after replace, want 2", len(reg.List()))
	}
}
