// Package mock provides a test double for the stt.Provider interface.
//
// Use Provider to script transcription results and inspect the audio that
// was submitted:
//
//	p := &mock.Provider{Results: []stt.Result{{Text: "hello"}}}
//	res, _ := p.Transcribe(ctx, audio, "en")
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/translive/translive/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Provider.Transcribe.
type TranscribeCall struct {
	// Audio is the value passed to Transcribe. PCM is a copy.
	Audio stt.Audio

	// Language is the language tag passed to Transcribe.
	Language string
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// Results are returned by successive Transcribe calls in order. When the
	// script runs out, Result is returned instead.
	Results []stt.Result

	// Result is returned by Transcribe once Results is exhausted.
	Result stt.Result

	// Errs are returned by successive Transcribe calls in order, paired with
	// Results by index. A nil entry means success.
	Errs []error

	// Err, if non-nil, is returned by every Transcribe call once Errs is
	// exhausted.
	Err error

	// Delay, when positive, makes Transcribe block for the given duration or
	// until ctx is done. Used to simulate slow inference.
	Delay time.Duration

	// TranscribeCalls records every call to Transcribe in order.
	TranscribeCalls []TranscribeCall

	next int
}

// Transcribe records the call and returns the next scripted result.
func (p *Provider) Transcribe(ctx context.Context, audio stt.Audio, language string) (stt.Result, error) {
	p.mu.Lock()
	cp := make([]byte, len(audio.PCM))
	copy(cp, audio.PCM)
	rec := audio
	rec.PCM = cp
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{Audio: rec, Language: language})

	i := p.next
	p.next++

	res := p.Result
	if i < len(p.Results) {
		res = p.Results[i]
	}
	err := p.Err
	if i < len(p.Errs) {
		err = p.Errs[i]
	}
	delay := p.Delay
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return stt.Result{}, ctx.Err()
		}
	}
	if err != nil {
		return stt.Result{}, err
	}
	return res, nil
}

// ResetCalls clears all recorded calls and rewinds the script. Thread-safe.
func (p *Provider) ResetCalls() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranscribeCalls = nil
	p.next = 0
}

// Ensure Provider implements stt.Provider at compile time.
var _ stt.Provider = (*Provider)(nil)
