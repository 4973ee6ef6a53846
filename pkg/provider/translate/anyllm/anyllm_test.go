package anyllm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/translive/translive/pkg/provider/translate/anyllm"
)

func TestNewValidation(t *testing.T) {
	if _, err := anyllm.New("", "gpt-4o-mini"); err == nil {
		t.Error("empty provider name should be rejected")
	}
	if _, err := anyllm.New("openai", ""); err == nil {
		t.Error("empty model should be rejected")
	}
	if _, err := anyllm.New("not-a-provider", "m"); err == nil {
		t.Error("unknown provider name should be rejected")
	}
}

func TestTranslate(t *testing.T) {
	var gotReq struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": " guten Morgen \n"}},
			},
		})
	}))
	defer srv.Close()

	p, err := anyllm.New("openai", "gpt-4o-mini",
		anyllmlib.WithAPIKey("test-key"),
		anyllmlib.WithBaseURL(srv.URL),
	)
	if err != nil {
		t.Fatal(err)
	}

	out, err := p.Translate(context.Background(), "good morning", "en", "de")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if out != "guten Morgen" {
		t.Errorf("translation: got %q, want %q (trimmed)", out, "guten Morgen")
	}

	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model: got %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" ||
		!strings.Contains(gotReq.Messages[0].Content, "from en to de") {
		t.Errorf("system message: got %+v", gotReq.Messages[0])
	}
	if gotReq.Messages[1].Role != "user" || gotReq.Messages[1].Content != "good morning" {
		t.Errorf("user message: got %+v", gotReq.Messages[1])
	}
}

func TestTranslateEmptyText(t *testing.T) {
	p, err := anyllm.New("openai", "gpt-4o-mini", anyllmlib.WithAPIKey("test-key"))
	if err != nil {
		t.Fatal(err)
	}
	out, err := p.Translate(context.Background(), "", "en", "de")
	if err != nil {
		t.Fatalf("empty text should short-circuit, got %v", err)
	}
	if out != "" {
		t.Errorf("got %q, want empty", out)
	}
}
