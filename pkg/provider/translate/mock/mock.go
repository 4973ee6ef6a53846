// Package mock provides a test double for the translate.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/translive/translive/pkg/provider/translate"
)

// TranslateCall records a single invocation of Provider.Translate.
type TranslateCall struct {
	Text   string
	Source string
	Target string
}

// Provider is a mock implementation of translate.Provider.
type Provider struct {
	mu sync.Mutex

	// Translations are returned by successive Translate calls in order. When
	// the script runs out, Translation is returned instead.
	Translations []string

	// Translation is returned by Translate once Translations is exhausted.
	Translation string

	// Err, if non-nil, is returned by every Translate call.
	Err error

	// TranslateCalls records every call to Translate in order.
	TranslateCalls []TranslateCall

	next int
}

// Translate records the call and returns the next scripted translation.
func (p *Provider) Translate(_ context.Context, text, source, target string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranslateCalls = append(p.TranslateCalls, TranslateCall{Text: text, Source: source, Target: target})
	if p.Err != nil {
		return "", p.Err
	}
	if p.next < len(p.Translations) {
		out := p.Translations[p.next]
		p.next++
		return out, nil
	}
	return p.Translation, nil
}

// ResetCalls clears all recorded calls and rewinds the script. Thread-safe.
func (p *Provider) ResetCalls() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranslateCalls = nil
	p.next = 0
}

// Ensure Provider implements translate.Provider at compile time.
var _ translate.Provider = (*Provider)(nil)
