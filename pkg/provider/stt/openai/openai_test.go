package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/translive/translive/pkg/provider/stt"
	"github.com/translive/translive/pkg/provider/stt/openai"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := openai.New(""); err == nil {
		t.Fatal("empty api key should be rejected")
	}
}

func TestTranscribe(t *testing.T) {
	var gotPath, gotContentType, gotLanguage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart form: %v", err)
		}
		gotLanguage = r.FormValue("language")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": "guten Tag"})
	}))
	defer srv.Close()

	p, err := openai.New("test-key", openai.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	res, err := p.Transcribe(context.Background(), stt.Audio{
		PCM:        make([]byte, 3200),
		SampleRate: 16000,
		Channels:   1,
	}, "de")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "guten Tag" {
		t.Errorf("text: got %q, want %q", res.Text, "guten Tag")
	}
	if !strings.HasSuffix(gotPath, "/audio/transcriptions") {
		t.Errorf("unexpected path %q", gotPath)
	}
	if !strings.HasPrefix(gotContentType, "multipart/form-data") {
		t.Errorf("unexpected content type %q", gotContentType)
	}
	if gotLanguage != "de" {
		t.Errorf("language: got %q, want %q", gotLanguage, "de")
	}
}

func TestTranscribeEmptyAudio(t *testing.T) {
	p, err := openai.New("test-key", openai.WithBaseURL("http://127.0.0.1:0"))
	if err != nil {
		t.Fatal(err)
	}
	res, err := p.Transcribe(context.Background(), stt.Audio{}, "en")
	if err != nil {
		t.Fatalf("empty audio should short-circuit, got %v", err)
	}
	if res.Text != "" {
		t.Errorf("text: got %q, want empty", res.Text)
	}
}

func TestTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := openai.New("test-key", openai.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Transcribe(context.Background(), stt.Audio{
		PCM: make([]byte, 320), SampleRate: 16000, Channels: 1,
	}, "en"); err == nil {
		t.Fatal("server error should surface")
	}
}
