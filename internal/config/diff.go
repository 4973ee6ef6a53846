package config

// ConfigDiff describes what changed between two configs. The watcher hands
// this to the application so it can decide what applies live and what needs
// a restart.
type ConfigDiff struct {
	// LogLevelChanged is safe to apply without restart.
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// ChunkingChanged applies to the next utterance; the accumulator picks
	// up new thresholds when it is rebuilt between sessions.
	ChunkingChanged bool
	NewChunking     ChunkingConfig

	// ProvidersChanged and CaptureChanged require a restart: the affected
	// components hold live device or network handles.
	ProvidersChanged bool
	CaptureChanged   bool
	SessionChanged   bool
}

// Any reports whether the diff contains any change at all.
func (d ConfigDiff) Any() bool {
	return d.LogLevelChanged || d.ChunkingChanged || d.ProvidersChanged || d.CaptureChanged || d.SessionChanged
}

// RequiresRestart reports whether any changed setting cannot be applied to
// the running session.
func (d ConfigDiff) RequiresRestart() bool {
	return d.ProvidersChanged || d.CaptureChanged || d.SessionChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Log.Level != new.Log.Level {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Log.Level
	}

	if old.Chunking != new.Chunking {
		d.ChunkingChanged = true
		d.NewChunking = new.Chunking
	}

	if !providersEqual(old.Providers, new.Providers) {
		d.ProvidersChanged = true
	}
	if old.Capture != new.Capture {
		d.CaptureChanged = true
	}
	if old.Session != new.Session {
		d.SessionChanged = true
	}

	return d
}

// providersEqual compares provider blocks field by field. ProviderEntry
// contains a map, so it cannot be compared with ==.
func providersEqual(a, b ProvidersConfig) bool {
	if !entryEqual(a.VAD, b.VAD) || !entryEqual(a.STT, b.STT) || !entryEqual(a.Translate, b.Translate) {
		return false
	}
	if len(a.STTFallbacks) != len(b.STTFallbacks) || len(a.TranslateFallbacks) != len(b.TranslateFallbacks) {
		return false
	}
	for i := range a.STTFallbacks {
		if !entryEqual(a.STTFallbacks[i], b.STTFallbacks[i]) {
			return false
		}
	}
	for i := range a.TranslateFallbacks {
		if !entryEqual(a.TranslateFallbacks[i], b.TranslateFallbacks[i]) {
			return false
		}
	}
	return true
}

func entryEqual(a, b ProviderEntry) bool {
	if a.Name != b.Name || a.APIKey != b.APIKey || a.BaseURL != b.BaseURL || a.Model != b.Model {
		return false
	}
	if len(a.Options) != len(b.Options) {
		return false
	}
	for k, v := range a.Options {
		if bv, ok := b.Options[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
