// Package translate defines the Provider interface for text translation
// backends.
//
// A translation provider converts one transcript utterance between two
// languages identified by BCP-47 tags. Providers are stateless per call and
// must be safe for concurrent use.
package translate

import "context"

// Provider is the abstraction over any translation backend.
type Provider interface {
	// Translate converts text from the source language to the target
	// language. Both languages are BCP-47 tags (e.g., "en", "de").
	//
	// Translate must honour ctx cancellation. A translation failure is
	// recoverable for the caller; implementations return a wrapped error and
	// remain usable for subsequent calls.
	Translate(ctx context.Context, text, source, target string) (string, error)
}
