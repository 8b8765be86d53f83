package voice

import (
	"encoding/binary"
	"math"
	"time"
)

// VADState is the speaking/silent state of the detector.
type VADState int

const (
	// StateSilent means no speech is in progress.
	StateSilent VADState = iota

	// StateSpeaking means an utterance is being captured.
	StateSpeaking
)

// VAD is a simple energy-based voice activity detector. It accumulates
// PCM16 frames while speech is detected and reports a complete utterance
// after the configured silence duration.
type VAD struct {
	threshold  float64
	silence    time.Duration
	minSpeech  time.Duration
	sampleRate int

	state     VADState
	buf       []byte
	silentFor time.Duration
	speechFor time.Duration
}

// NewVAD creates a detector for PCM16 mono audio at the given rate.
func NewVAD(threshold float64, silence, minSpeech time.Duration, sampleRate int) *VAD {
	return &VAD{
		threshold:  threshold,
		silence:    silence,
		minSpeech:  minSpeech,
		sampleRate: sampleRate,
	}
}

// Feed processes one frame. When a complete utterance is detected it is
// returned and the detector resets; otherwise Feed returns nil.
func (v *VAD) Feed(frame []byte) []byte {
	if len(frame) < 2 {
		return nil
	}

	frameDur := pcmFrameDuration(len(frame), v.sampleRate)
	active := rmsEnergy(frame) >= v.threshold

	switch v.state {
	case StateSilent:
		if active {
			v.state = StateSpeaking
			v.buf = append(v.buf[:0], frame...)
			v.speechFor = frameDur
			v.silentFor = 0
		}

	case StateSpeaking:
		v.buf = append(v.buf, frame...)
		v.speechFor += frameDur
		if active {
			v.silentFor = 0
			return nil
		}

		v.silentFor += frameDur
		if v.silentFor >= v.silence {
			utterance := v.buf
			spoke := v.speechFor - v.silentFor
			v.reset()
			if spoke < v.minSpeech {
				// Too short to be speech, likely a noise burst
				return nil
			}
			out := make([]byte, len(utterance))
			copy(out, utterance)
			return out
		}
	}

	return nil
}

// Flush returns any buffered utterance regardless of silence, for use
// when the input stream ends mid-utterance.
func (v *VAD) Flush() []byte {
	if v.state != StateSpeaking || v.speechFor < v.minSpeech {
		v.reset()
		return nil
	}
	out := make([]byte, len(v.buf))
	copy(out, v.buf)
	v.reset()
	return out
}

// State returns the current detector state.
func (v *VAD) State() VADState {
	return v.state
}

func (v *VAD) reset() {
	v.state = StateSilent
	v.buf = v.buf[:0]
	v.silentFor = 0
	v.speechFor = 0
}

// rmsEnergy returns the normalized RMS energy of a PCM16 frame, 0.0-1.0.
func rmsEnergy(frame []byte) float64 {
	samples := len(frame) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < samples; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(frame[i*2:])))
		sum += s * s
	}
	return math.Sqrt(sum/float64(samples)) / math.MaxInt16
}

// pcmFrameDuration returns the play time of a PCM16 mono frame.
func pcmFrameDuration(bytes, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(bytes/2) * time.Second / time.Duration(sampleRate)
}
