package transport

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"
)

// WebRTC audio runs Opus at 48kHz mono with 20ms frames.
const (
	opusSampleRate = 48000
	opusChannels   = 1

	// opusFrameSamples is one 20ms frame at 48kHz.
	opusFrameSamples = opusSampleRate / 50

	// maxDecodedSamples bounds one decoded packet (120ms at 48kHz).
	maxDecodedSamples = 5760

	// maxEncodedBytes is ample for a 20ms mono voice frame.
	maxEncodedBytes = 1275
)

// opusDecoder decodes inbound Opus packets to 48kHz mono PCM.
type opusDecoder struct {
	dec *opus.Decoder
	buf []int16
}

func newOpusDecoder() (*opusDecoder, error) {
	dec, err := opus.NewDecoder(opusSampleRate, opusChannels)
	if err != nil {
		return nil, fmt.Errorf("transport: create opus decoder: %w", err)
	}
	return &opusDecoder{
		dec: dec,
		buf: make([]int16, maxDecodedSamples),
	}, nil
}

// Decode returns the PCM samples of one packet. The returned slice is
// valid until the next Decode call.
func (d *opusDecoder) Decode(packet []byte) ([]int16, error) {
	n, err := d.dec.Decode(packet, d.buf)
	if err != nil {
		return nil, fmt.Errorf("transport: opus decode: %w", err)
	}
	return d.buf[:n], nil
}

// opusEncoder encodes 48kHz mono PCM into Opus packets, buffering partial
// frames between calls so arbitrary chunk sizes are accepted.
type opusEncoder struct {
	enc     *opus.Encoder
	pending []int16
	out     []byte
}

func newOpusEncoder() (*opusEncoder, error) {
	enc, err := opus.NewEncoder(opusSampleRate, opusChannels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("transport: create opus encoder: %w", err)
	}
	return &opusEncoder{
		enc: enc,
		out: make([]byte, maxEncodedBytes),
	}, nil
}

// Encode appends samples and returns the complete 20ms packets now
// available. Leftover samples are held for the next call.
func (e *opusEncoder) Encode(samples []int16) ([][]byte, error) {
	e.pending = append(e.pending, samples...)

	var packets [][]byte
	for len(e.pending) >= opusFrameSamples {
		frame := e.pending[:opusFrameSamples]
		e.pending = e.pending[opusFrameSamples:]

		n, err := e.enc.Encode(frame, e.out)
		if err != nil {
			return packets, fmt.Errorf("transport: opus encode: %w", err)
		}
		packet := make([]byte, n)
		copy(packet, e.out[:n])
		packets = append(packets, packet)
	}
	return packets, nil
}

// Flush pads any pending partial frame with silence and encodes it.
func (e *opusEncoder) Flush() ([]byte, error) {
	if len(e.pending) == 0 {
		return nil, nil
	}

	frame := make([]int16, opusFrameSamples)
	copy(frame, e.pending)
	e.pending = e.pending[:0]

	n, err := e.enc.Encode(frame, e.out)
	if err != nil {
		return nil, fmt.Errorf("transport: opus encode: %w", err)
	}
	packet := make([]byte, n)
	copy(packet, e.out[:n])
	return packet, nil
}
