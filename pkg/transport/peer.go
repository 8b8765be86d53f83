// Package transport carries conversation audio over WebRTC. Each browser
// connection gets one Peer: inbound Opus is decoded and downsampled for
// the STT stage, synthesized replies are upsampled and encoded back out
// on a local audio track.
package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"
	"github.com/pion/webrtc/v3/pkg/media"
)

// Audio rates at the pipeline boundaries.
const (
	// CaptureRate is the PCM rate delivered to OnAudioIn, matching what
	// the STT stage expects.
	CaptureRate = 16000

	// PlaybackRate is the PCM rate PlayPCM accepts, matching what the
	// TTS stage produces.
	PlaybackRate = 24000
)

// ErrClosed is returned when using a peer after Close.
var ErrClosed = errors.New("transport: peer closed")

// Config tunes a Peer.
type Config struct {
	// STUNServers for ICE. Empty means host candidates only, which is
	// fine on a LAN deployment.
	STUNServers []string

	// Logger for connection events.
	Logger *slog.Logger
}

// Peer is one WebRTC audio connection.
type Peer struct {
	id     string
	pc     *webrtc.PeerConnection
	track  *webrtc.TrackLocalStaticSample
	logger *slog.Logger

	mu        sync.Mutex
	encoder   *opusEncoder
	onAudioIn func(pcm []byte)
	onClosed  func()
	closed    bool
}

// NewPeer creates a peer connection ready to answer a browser offer.
func NewPeer(cfg Config) (*Peer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var iceServers []webrtc.ICEServer
	for _, url := range cfg.STUNServers {
		iceServers = append(iceServers, webrtc.ICEServer{URLs: []string{url}})
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, fmt.Errorf("transport: create peer connection: %w", err)
	}

	track, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypeOpus,
		ClockRate: opusSampleRate,
		Channels:  opusChannels,
	}, "audio", "voice-agent")
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("transport: create audio track: %w", err)
	}
	if _, err := pc.AddTrack(track); err != nil {
		pc.Close()
		return nil, fmt.Errorf("transport: add audio track: %w", err)
	}

	encoder, err := newOpusEncoder()
	if err != nil {
		pc.Close()
		return nil, err
	}

	id := uuid.NewString()
	p := &Peer{
		id:      id,
		pc:      pc,
		track:   track,
		encoder: encoder,
		logger:  logger.With("component", "transport", "session_id", id),
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if track.Kind() != webrtc.RTPCodecTypeAudio {
			return
		}
		p.logger.Info("audio track connected", "codec", track.Codec().MimeType)
		go p.readTrack(track)
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		p.logger.Debug("connection state changed", "state", state.String())
		switch state {
		case webrtc.PeerConnectionStateFailed,
			webrtc.PeerConnectionStateClosed,
			webrtc.PeerConnectionStateDisconnected:
			p.notifyClosed()
		}
	})

	return p, nil
}

// ID returns the session identifier assigned to this connection.
func (p *Peer) ID() string {
	return p.id
}

// OnAudioIn sets the callback receiving 16kHz mono PCM16 from the remote
// side. Set before HandleOffer.
func (p *Peer) OnAudioIn(fn func(pcm []byte)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onAudioIn = fn
}

// OnClosed sets a callback fired once when the connection ends.
func (p *Peer) OnClosed(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClosed = fn
}

// IsClosed reports whether the connection has ended, by Close or by the
// connection state machine. The OnClosed callback fires only once, so a
// caller that installs state after HandleOffer must re-check this to
// catch a close that raced its setup.
func (p *Peer) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// HandleOffer completes the SDP exchange: it applies the browser's offer
// and returns an answer with ICE candidates already gathered, so no
// trickle signaling channel is needed.
func (p *Peer) HandleOffer(offerSDP string) (string, error) {
	offer := webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  offerSDP,
	}
	if err := p.pc.SetRemoteDescription(offer); err != nil {
		return "", fmt.Errorf("transport: set remote description: %w", err)
	}

	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return "", fmt.Errorf("transport: create answer: %w", err)
	}

	gathered := webrtc.GatheringCompletePromise(p.pc)
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return "", fmt.Errorf("transport: set local description: %w", err)
	}
	<-gathered

	return p.pc.LocalDescription().SDP, nil
}

// PlayPCM queues 24kHz mono PCM16 for playback on the outbound track.
func (p *Peer) PlayPCM(pcm []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	samples := Resample(BytesToSamples(pcm), PlaybackRate, opusSampleRate)
	packets, err := p.encoder.Encode(samples)
	if err != nil {
		return err
	}

	for _, packet := range packets {
		if err := p.track.WriteSample(media.Sample{
			Data:     packet,
			Duration: 20 * time.Millisecond,
		}); err != nil {
			return fmt.Errorf("transport: write sample: %w", err)
		}
	}
	return nil
}

// FlushPlayback pads and sends any buffered partial frame. Call at the
// end of each reply so the tail is not held back.
func (p *Peer) FlushPlayback() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	packet, err := p.encoder.Flush()
	if err != nil || packet == nil {
		return err
	}
	return p.track.WriteSample(media.Sample{
		Data:     packet,
		Duration: 20 * time.Millisecond,
	})
}

// Close tears down the connection.
func (p *Peer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	return p.pc.Close()
}

// readTrack decodes inbound packets and hands PCM to the capture callback.
func (p *Peer) readTrack(track *webrtc.TrackRemote) {
	decoder, err := newOpusDecoder()
	if err != nil {
		p.logger.Error("decoder setup failed", "error", err)
		return
	}

	for {
		packet, _, err := track.ReadRTP()
		if err != nil {
			p.logger.Debug("audio track ended", "error", err)
			return
		}
		p.handlePacket(decoder, packet)
	}
}

func (p *Peer) handlePacket(decoder *opusDecoder, packet *rtp.Packet) {
	if len(packet.Payload) == 0 {
		return
	}

	samples, err := decoder.Decode(packet.Payload)
	if err != nil {
		p.logger.Warn("opus decode failed", "error", err)
		return
	}

	p.mu.Lock()
	fn := p.onAudioIn
	p.mu.Unlock()
	if fn == nil {
		return
	}

	fn(SamplesToBytes(Resample(samples, opusSampleRate, CaptureRate)))
}

func (p *Peer) notifyClosed() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	fn := p.onClosed
	p.mu.Unlock()

	if fn != nil {
		fn()
	}
}
