package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/voxhollow/voice-agent/pkg/hub"
	"github.com/voxhollow/voice-agent/pkg/inference"
	"github.com/voxhollow/voice-agent/pkg/stt"
	"github.com/voxhollow/voice-agent/pkg/tools"
	"github.com/voxhollow/voice-agent/pkg/tts"
)

// Common errors returned by the engine.
var (
	ErrNotStarted     = errors.New("voice: engine not started")
	ErrAlreadyStarted = errors.New("voice: engine already started")
)

// replyToolLimit is spoken when the model keeps calling tools without
// ever producing an answer.
const replyToolLimit = "I wasn't able to complete that request."

// Engine runs one conversation: VAD-segmented audio in, transcription,
// a tool-calling chat loop, and synthesized speech out.
type Engine struct {
	cfg      Config
	stt      stt.Provider
	llm      inference.Provider
	tts      tts.Provider
	registry *tools.Registry
	history  *History
	vad      *VAD
	metrics  *MetricsCollector
	feed     *hub.Hub
	logger   *slog.Logger

	mu          sync.Mutex
	started     bool
	speakCancel context.CancelFunc
	onAudioOut  func(pcm []byte)
	onTurn      func(user, reply string)
	onError     func(err error)

	utterances chan []byte
	done       chan struct{}
}

// NewEngine assembles a conversation engine. The hub may be nil when no
// transcript feed is wanted.
func NewEngine(cfg Config, sttProv stt.Provider, llm inference.Provider, ttsProv tts.Provider, registry *tools.Registry, feed *hub.Hub, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		cfg:      cfg,
		stt:      sttProv,
		llm:      llm,
		tts:      ttsProv,
		registry: registry,
		history:  NewHistory(cfg.SystemPrompt, cfg.MaxHistory),
		vad:      NewVAD(cfg.VADThreshold, cfg.VADSilenceDuration, cfg.VADMinSpeech, cfg.InputSampleRate),
		metrics:  NewMetricsCollector(),
		feed:     feed,
		logger:   logger.With("component", "voice", "session_id", cfg.SessionID),

		utterances: make(chan []byte, 4),
		done:       make(chan struct{}),
	}, nil
}

// OnAudioOut sets the callback receiving synthesized PCM chunks at the
// configured output sample rate. Set before Start.
func (e *Engine) OnAudioOut(fn func(pcm []byte)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onAudioOut = fn
}

// OnTurn sets a callback fired after each completed turn with the user
// text and the spoken reply.
func (e *Engine) OnTurn(fn func(user, reply string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTurn = fn
}

// OnError sets the callback for turn-level failures.
func (e *Engine) OnError(fn func(err error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onError = fn
}

// Start launches the turn loop. Utterances queued by SendAudio are
// processed one at a time until ctx is cancelled or Stop is called.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.started = true
	e.mu.Unlock()

	go e.run(ctx)
	return nil
}

// Stop shuts down the engine and interrupts any speech in progress.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return ErrNotStarted
	}
	e.started = false
	close(e.done)
	if e.speakCancel != nil {
		e.speakCancel()
	}
	return nil
}

// SendAudio feeds a PCM16 frame into voice activity detection. A frame
// that completes an utterance interrupts any reply in progress (barge-in)
// and queues the utterance for a conversation turn.
func (e *Engine) SendAudio(frame []byte) error {
	e.mu.Lock()
	started := e.started
	e.mu.Unlock()
	if !started {
		return ErrNotStarted
	}

	utterance := e.vad.Feed(frame)
	if utterance == nil {
		return nil
	}

	e.metrics.MarkSpeechEnd()
	e.Interrupt()

	select {
	case e.utterances <- utterance:
	default:
		e.logger.Warn("utterance queue full, dropping")
	}
	return nil
}

// Interrupt stops the current reply playback, if any.
func (e *Engine) Interrupt() {
	e.mu.Lock()
	cancel := e.speakCancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Say synthesizes and plays text directly, bypassing the model. Used for
// announcements and wake greetings. Satisfies session.Handle.
func (e *Engine) Say(ctx context.Context, text string) error {
	e.publish("assistant", text, true)
	return e.speak(ctx, text)
}

// Metrics returns latency metrics for the current turn.
func (e *Engine) Metrics() Metrics {
	return e.metrics.Current()
}

// History exposes the conversation history, mainly for tests and debug
// endpoints.
func (e *Engine) History() *History {
	return e.history
}

func (e *Engine) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case utterance := <-e.utterances:
			if err := e.turn(ctx, utterance); err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				e.logger.Error("conversation turn failed", "error", err)
				e.emitError(err)
			}
		}
	}
}

// turn runs one full conversation turn from a captured utterance.
func (e *Engine) turn(ctx context.Context, utterance []byte) error {
	result, err := e.stt.Transcribe(ctx, utterance)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}
	e.metrics.MarkTranscript()

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return nil
	}

	e.logger.Info("user said", "text", text, "stt_ms", result.LatencyMs)
	e.publish("user", text, true)

	reply, err := e.HandleUtterance(ctx, text)
	if err != nil {
		return err
	}

	e.metrics.MarkTurnDone()
	e.logger.Info("turn complete", "latency", e.metrics.Current().FormatLatency())

	e.mu.Lock()
	onTurn := e.onTurn
	e.mu.Unlock()
	if onTurn != nil {
		onTurn(text, reply)
	}
	return nil
}

// HandleUtterance runs the chat loop for one piece of user text and
// speaks the reply. Exposed for text-driven frontends and tests.
func (e *Engine) HandleUtterance(ctx context.Context, text string) (string, error) {
	e.history.AddUser(text)

	reply, err := e.converse(ctx)
	if err != nil {
		return "", err
	}

	e.metrics.MarkReply()
	e.history.AddAssistant(reply)
	e.publish("assistant", reply, true)

	if err := e.speak(ctx, reply); err != nil && !errors.Is(err, context.Canceled) {
		return reply, fmt.Errorf("speak: %w", err)
	}
	return reply, nil
}

// converse runs the model with the registered tools until it produces a
// text reply or the tool round budget runs out.
func (e *Engine) converse(ctx context.Context) (string, error) {
	var defs []inference.Tool
	if e.registry != nil {
		defs = e.registry.Definitions()
	}

	for round := 0; round < e.cfg.MaxToolRounds; round++ {
		resp, err := e.llm.Chat(ctx, &inference.ChatRequest{
			Messages:    e.history.Messages(),
			Tools:       defs,
			Model:       e.cfg.Model,
			MaxTokens:   e.cfg.MaxTokens,
			Temperature: e.cfg.Temperature,
		})
		if err != nil {
			return "", fmt.Errorf("chat: %w", err)
		}

		msg := resp.Message
		if len(msg.ToolCalls) == 0 {
			return strings.TrimSpace(msg.Content), nil
		}

		e.history.Add(msg)
		for _, call := range msg.ToolCalls {
			e.metrics.IncrementToolCalls()

			var args map[string]any
			if call.Arguments != "" {
				if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
					e.logger.Warn("malformed tool arguments", "tool", call.Name, "error", err)
				}
			}

			// A model can hallucinate a tool call even when none were
			// offered; answer it like any other failed invocation.
			result := `{"error": "no tools are registered"}`
			if e.registry != nil {
				result = e.registry.Invoke(ctx, call.Name, args)
			}
			e.history.AddToolResult(call.ID, result)
			e.publish("tool", call.Name+": "+result, true)
		}
	}

	e.logger.Warn("tool round limit reached", "rounds", e.cfg.MaxToolRounds)
	return replyToolLimit, nil
}

// speak streams TTS audio for text to the output callback. Cancelling the
// context (barge-in, shutdown) stops playback mid-stream.
func (e *Engine) speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	e.mu.Lock()
	out := e.onAudioOut
	speakCtx, cancel := context.WithCancel(ctx)
	e.speakCancel = cancel
	e.mu.Unlock()
	defer cancel()

	stream, err := e.tts.Stream(speakCtx, text)
	if err != nil {
		return err
	}
	defer stream.Close()

	first := true
	for {
		if speakCtx.Err() != nil {
			return speakCtx.Err()
		}
		chunk, err := stream.Read()
		if err != nil {
			return err
		}
		if chunk == nil {
			return nil
		}
		if len(chunk) == 0 {
			continue
		}
		if first {
			e.metrics.MarkFirstAudio()
			first = false
		}
		if out != nil {
			out(chunk)
		}
	}
}

func (e *Engine) publish(role, text string, final bool) {
	if e.feed == nil {
		return
	}
	e.feed.Publish(hub.Event{
		SessionID: e.cfg.SessionID,
		Role:      role,
		Text:      text,
		Final:     final,
	})
}

func (e *Engine) emitError(err error) {
	e.mu.Lock()
	onError := e.onError
	e.mu.Unlock()
	if onError != nil {
		onError(err)
	}
}
