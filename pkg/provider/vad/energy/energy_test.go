package energy_test

import (
	"encoding/binary"
	"testing"

	"github.com/translive/translive/pkg/provider/vad"
	"github.com/translive/translive/pkg/provider/vad/energy"
)

// tone returns n samples of a constant-amplitude square wave as LE PCM.
func tone(n int, amplitude int16) []byte {
	buf := make([]byte, n*2)
	for i := range n {
		s := amplitude
		if i%2 == 1 {
			s = -amplitude
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

func newSession(t *testing.T) vad.SessionHandle {
	t.Helper()
	sess, err := energy.New().NewSession(vad.Config{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return sess
}

func TestSilenceFrames(t *testing.T) {
	sess := newSession(t)
	defer sess.Close()

	for i := range 10 {
		ev, err := sess.ProcessFrame(make([]byte, 640))
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if ev.Type != vad.Silence {
			t.Fatalf("frame %d: got %v, want Silence", i, ev.Type)
		}
	}
}

func TestSpeechStartAndEnd(t *testing.T) {
	sess := newSession(t)
	defer sess.Close()

	ev, err := sess.ProcessFrame(tone(320, 8000))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Type != vad.SpeechStart {
		t.Errorf("first loud frame: got %v, want SpeechStart", ev.Type)
	}

	ev, _ = sess.ProcessFrame(tone(320, 8000))
	if ev.Type != vad.SpeechContinue {
		t.Errorf("second loud frame: got %v, want SpeechContinue", ev.Type)
	}
	if !ev.Type.IsSpeech() {
		t.Error("SpeechContinue should classify as speech")
	}

	// Smoothing decays over a few frames before the detector reports silence.
	var last vad.Event
	for range 20 {
		last, _ = sess.ProcessFrame(make([]byte, 640))
		if !last.Type.IsSpeech() {
			break
		}
	}
	if last.Type != vad.SpeechEnd {
		t.Errorf("after silence: got %v, want SpeechEnd", last.Type)
	}
}

func TestReset(t *testing.T) {
	sess := newSession(t)
	defer sess.Close()

	sess.ProcessFrame(tone(320, 8000))
	sess.Reset()

	ev, _ := sess.ProcessFrame(make([]byte, 640))
	if ev.Type != vad.Silence {
		t.Errorf("after reset: got %v, want Silence", ev.Type)
	}
}

func TestInvalidConfig(t *testing.T) {
	if _, err := energy.New().NewSession(vad.Config{SampleRate: 0}); err == nil {
		t.Error("zero sample rate should be rejected")
	}
	if _, err := energy.New().NewSession(vad.Config{SampleRate: 16000, SpeechThreshold: 1.5}); err == nil {
		t.Error("out-of-range threshold should be rejected")
	}
}

func TestMisalignedFrame(t *testing.T) {
	sess := newSession(t)
	defer sess.Close()
	if _, err := sess.ProcessFrame([]byte{1, 2, 3}); err == nil {
		t.Error("odd-length frame should be rejected")
	}
}

func TestClosedSession(t *testing.T) {
	sess := newSession(t)
	if err := sess.Close(); err != nil {
		t.Fatal(err)
	}
	if err := sess.Close(); err != nil {
		t.Error("second Close should be a no-op")
	}
	if _, err := sess.ProcessFrame(make([]byte, 640)); err == nil {
		t.Error("ProcessFrame after Close should error")
	}
}
