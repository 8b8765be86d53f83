package voice

import (
	"encoding/binary"
	"testing"
	"time"
)

// frames are 100ms of 16kHz mono PCM16.
const testFrameSamples = 1600

func loudFrame() []byte {
	frame := make([]byte, testFrameSamples*2)
	for i := 0; i < testFrameSamples; i++ {
		binary.LittleEndian.PutUint16(frame[i*2:], uint16(int16(20000)))
	}
	return frame
}

func silentFrame() []byte {
	return make([]byte, testFrameSamples*2)
}

func newTestVAD() *VAD {
	return NewVAD(0.5, 500*time.Millisecond, 200*time.Millisecond, 16000)
}

func TestVADDetectsUtterance(t *testing.T) {
	v := newTestVAD()

	// 300ms of speech
	for i := 0; i < 3; i++ {
		if got := v.Feed(loudFrame()); got != nil {
			t.Fatal("utterance reported during speech")
		}
	}
	if v.State() != StateSpeaking {
		t.Fatal("state = silent during speech")
	}

	// 400ms of silence - not yet enough
	var utterance []byte
	for i := 0; i < 4; i++ {
		utterance = v.Feed(silentFrame())
	}
	if utterance != nil {
		t.Fatal("utterance reported before silence threshold")
	}

	// 500ms reached
	utterance = v.Feed(silentFrame())
	if utterance == nil {
		t.Fatal("no utterance after silence threshold")
	}

	// 3 speech + 5 silence frames captured
	if want := 8 * testFrameSamples * 2; len(utterance) != want {
		t.Errorf("utterance length = %d, want %d", len(utterance), want)
	}
	if v.State() != StateSilent {
		t.Error("detector did not reset")
	}
}

func TestVADIgnoresNoiseBurst(t *testing.T) {
	v := newTestVAD()

	// 100ms burst, below the 200ms minimum
	v.Feed(loudFrame())
	for i := 0; i < 5; i++ {
		if got := v.Feed(silentFrame()); got != nil {
			t.Fatal("noise burst reported as utterance")
		}
	}
}

func TestVADIgnoresSilence(t *testing.T) {
	v := newTestVAD()

	for i := 0; i < 20; i++ {
		if got := v.Feed(silentFrame()); got != nil {
			t.Fatal("utterance from pure silence")
		}
	}
	if v.State() != StateSilent {
		t.Error("state changed on silence")
	}
}

func TestVADFlush(t *testing.T) {
	v := newTestVAD()

	for i := 0; i < 3; i++ {
		v.Feed(loudFrame())
	}

	utterance := v.Flush()
	if utterance == nil {
		t.Fatal("Flush returned nil mid-utterance")
	}
	if want := 3 * testFrameSamples * 2; len(utterance) != want {
		t.Errorf("flushed length = %d, want %d", len(utterance), want)
	}

	if v.Flush() != nil {
		t.Error("second Flush not nil")
	}
}

func TestRMSEnergy(t *testing.T) {
	if got := rmsEnergy(silentFrame()); got != 0 {
		t.Errorf("silent energy = %v, want 0", got)
	}

	loud := rmsEnergy(loudFrame())
	if loud < 0.6 || loud > 0.62 {
		t.Errorf("loud energy = %v, want ~0.61", loud)
	}
}
