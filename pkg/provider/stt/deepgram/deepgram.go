// Package deepgram provides a Deepgram-backed STT provider using the
// streaming WebSocket API. Utterance segmentation happens upstream, so each
// Transcribe call opens a short-lived connection, streams the utterance,
// signals end of stream, and collects the final results.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/coder/websocket"

	"github.com/translive/translive/pkg/provider/stt"
)

const (
	deepgramEndpoint = "wss://api.deepgram.com/v1/listen"
	defaultModel     = "nova-3"

	// writeChunkBytes is the slice size for streaming PCM over the socket.
	// 8 KiB is 256 ms of 16 kHz mono audio.
	writeChunkBytes = 8192
)

// Compile-time assertion that Provider satisfies stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Option is a functional option for configuring the Deepgram Provider.
type Option func(*Provider)

// WithModel sets the Deepgram model to use (e.g., "nova-3", "base").
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// WithEndpoint overrides the WebSocket endpoint URL. Used in tests.
func WithEndpoint(endpoint string) Option {
	return func(p *Provider) { p.endpoint = endpoint }
}

// Provider implements stt.Provider backed by the Deepgram streaming API.
type Provider struct {
	apiKey   string
	model    string
	endpoint string
}

// New creates a new Deepgram Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("deepgram: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:   apiKey,
		model:    defaultModel,
		endpoint: deepgramEndpoint,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Transcribe streams one utterance to Deepgram and returns the joined final
// results.
func (p *Provider) Transcribe(ctx context.Context, in stt.Audio, language string) (stt.Result, error) {
	if len(in.PCM) == 0 {
		return stt.Result{}, nil
	}

	wsURL, err := p.buildURL(in, language)
	if err != nil {
		return stt.Result{}, fmt.Errorf("deepgram: build URL: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.apiKey)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: headers,
	})
	if err != nil {
		return stt.Result{}, fmt.Errorf("deepgram: dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "utterance complete")

	// An utterance is bounded (a few hundred KiB at most), so the audio is
	// written in full before results are read back.
	for off := 0; off < len(in.PCM); off += writeChunkBytes {
		end := min(off+writeChunkBytes, len(in.PCM))
		if err := conn.Write(ctx, websocket.MessageBinary, in.PCM[off:end]); err != nil {
			return stt.Result{}, fmt.Errorf("deepgram: write audio: %w", err)
		}
	}
	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"CloseStream"}`)); err != nil {
		return stt.Result{}, fmt.Errorf("deepgram: close stream: %w", err)
	}

	var (
		parts      []string
		confidence float64
		results    int
	)
	for {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			// The server closes the socket once the final results for the
			// stream have been delivered.
			var closeErr websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.StatusNormalClosure {
				break
			}
			if ctx.Err() != nil {
				return stt.Result{}, fmt.Errorf("deepgram: read results: %w", ctx.Err())
			}
			if results > 0 {
				break
			}
			return stt.Result{}, fmt.Errorf("deepgram: read results: %w", err)
		}

		text, conf, ok := parseResponse(msg)
		if !ok {
			continue
		}
		if text != "" {
			parts = append(parts, text)
		}
		confidence += conf
		results++
	}

	if results > 0 {
		confidence /= float64(results)
	}
	return stt.Result{
		Text:       strings.Join(parts, " "),
		Confidence: confidence,
	}, nil
}

// buildURL constructs the streaming endpoint URL for one utterance.
func (p *Provider) buildURL(in stt.Audio, language string) (string, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("model", p.model)
	q.Set("encoding", "linear16")
	q.Set("punctuate", "true")
	q.Set("sample_rate", strconv.Itoa(in.SampleRate))
	if language != "" {
		q.Set("language", language)
	}
	if in.Channels > 0 {
		q.Set("channels", strconv.Itoa(in.Channels))
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// response is the JSON structure returned by Deepgram for a Results event.
type response struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// parseResponse extracts the transcript text and confidence from a raw
// WebSocket message. Returns ok=false for messages that should be ignored
// (metadata events, interim results, empty alternatives).
func parseResponse(data []byte) (text string, confidence float64, ok bool) {
	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", 0, false
	}
	if resp.Type != "Results" || !resp.IsFinal {
		return "", 0, false
	}
	if len(resp.Channel.Alternatives) == 0 {
		return "", 0, false
	}
	alt := resp.Channel.Alternatives[0]
	return alt.Transcript, alt.Confidence, true
}
