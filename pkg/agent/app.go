package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voxhollow/voice-agent/internal/log"
	"github.com/voxhollow/voice-agent/pkg/catalog"
	"github.com/voxhollow/voice-agent/pkg/control"
	"github.com/voxhollow/voice-agent/pkg/hub"
	"github.com/voxhollow/voice-agent/pkg/inference"
	"github.com/voxhollow/voice-agent/pkg/search"
	"github.com/voxhollow/voice-agent/pkg/session"
	"github.com/voxhollow/voice-agent/pkg/stt"
	"github.com/voxhollow/voice-agent/pkg/tools"
	"github.com/voxhollow/voice-agent/pkg/transport"
	"github.com/voxhollow/voice-agent/pkg/tts"
	"github.com/voxhollow/voice-agent/pkg/voice"
)

// catalogConnectAttempts bounds startup retries against the workflow
// catalog. The agent still starts when the catalog is down; tools arrive
// on the next reload.
const catalogConnectAttempts = 3

// remoteCatalog pairs a protocol connection with its discoverer.
type remoteCatalog struct {
	name       string
	caller     *catalog.MCPCaller
	discoverer *catalog.Discoverer
}

// conn is one live browser connection and its pipeline.
type conn struct {
	engine *voice.Engine
	peer   *transport.Peer
}

// App owns every long-lived component and implements the control plane's
// Connector and ToolReloader.
type App struct {
	cfg    Config
	logger *slog.Logger

	llm     *inference.Client
	sttProv *stt.Whisper
	ttsProv *tts.Chatterbox

	registry *tools.Registry
	sessions *session.Registry
	feed     *hub.Hub
	control  *control.Server

	catalogs []*remoteCatalog
	runner   *catalog.Runner

	systemPrompt string

	mu    sync.Mutex
	conns map[string]*conn

	workflowMu    sync.Mutex
	workflowNames []string
}

// New creates the application. Environment overrides are applied here so
// callers only deal with flags.
func New(cfg Config) (*App, error) {
	cfg.LoadEnvConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := "info"
	if cfg.Debug {
		level = "debug"
	}
	log.Init(level)

	return &App{
		cfg:    cfg,
		logger: log.Component("agent"),
		conns:  make(map[string]*conn),
	}, nil
}

// Init builds all components. Call after New and before Run.
func (a *App) Init(ctx context.Context) error {
	var err error

	llmOpts := []inference.Option{
		inference.WithBaseURL(a.cfg.LLMBaseURL),
		inference.WithLogger(a.logger),
	}
	if a.cfg.LLMAPIKey != "" {
		llmOpts = append(llmOpts, inference.WithAPIKey(a.cfg.LLMAPIKey))
	}
	if a.cfg.LLMModel != "" {
		llmOpts = append(llmOpts, inference.WithModel(a.cfg.LLMModel))
	}
	a.llm, err = inference.NewClient(llmOpts...)
	if err != nil {
		return fmt.Errorf("inference init: %w", err)
	}

	sttOpts := []stt.Option{
		stt.WithBaseURL(a.cfg.STTBaseURL),
		stt.WithLogger(a.logger),
	}
	if a.cfg.STTModel != "" {
		sttOpts = append(sttOpts, stt.WithModel(a.cfg.STTModel))
	}
	if a.cfg.Language != "" {
		sttOpts = append(sttOpts, stt.WithLanguage(a.cfg.Language))
	}
	a.sttProv, err = stt.NewWhisper(sttOpts...)
	if err != nil {
		return fmt.Errorf("speech-to-text init: %w", err)
	}

	ttsOpts := []tts.Option{
		tts.WithBaseURL(a.cfg.TTSBaseURL),
		tts.WithLogger(a.logger),
	}
	if a.cfg.TTSVoice != "" {
		ttsOpts = append(ttsOpts, tts.WithVoice(a.cfg.TTSVoice))
	}
	if a.cfg.TTSModel != "" {
		ttsOpts = append(ttsOpts, tts.WithModel(a.cfg.TTSModel))
	}
	a.ttsProv, err = tts.NewChatterbox(ttsOpts...)
	if err != nil {
		return fmt.Errorf("text-to-speech init: %w", err)
	}

	a.systemPrompt = LoadSystemPrompt(a.cfg.SystemPromptPath)
	a.registry = tools.NewRegistry(a.logger)
	a.sessions = session.NewRegistry(a.logger)
	a.feed = hub.New(a.logger)

	if a.cfg.SearxURL != "" {
		backend := search.NewSearxBackend(a.cfg.SearxURL)
		tool := search.NewTool(backend, a.llm, search.WithToolLogger(a.logger))
		tools.RegisterWebSearch(a.registry, tool)
	}

	a.initCatalogs(ctx)
	if len(a.catalogs) > 0 {
		if _, err := a.Reload(ctx); err != nil {
			a.logger.Warn("initial tool discovery failed", "error", err)
		}
	}

	a.control = control.NewServer(control.Deps{
		Sessions:  a.sessions,
		Connector: a,
		Reloader:  a,
		Voices:    a.ttsProv,
		Models:    a.llm,
		Feed:      a.feed,
		Logger:    a.logger,
	})

	return nil
}

// initCatalogs connects the configured workflow catalogs. Connection
// failures are logged, not fatal.
func (a *App) initCatalogs(ctx context.Context) {
	var servers []catalog.ServerConfig
	if a.cfg.CatalogURL != "" {
		servers = append(servers, catalog.ServerConfig{
			Name:      "workflows",
			URL:       a.cfg.CatalogURL,
			AuthToken: a.cfg.CatalogToken,
		})
	}
	if a.cfg.ServersPath != "" {
		servers = append(servers, catalog.LoadServersFile(a.cfg.ServersPath)...)
	}

	a.runner = catalog.NewRunner(a.cfg.WebhookBaseURL, catalog.NameMap{}, a.logger)

	for _, srv := range servers {
		caller := catalog.NewMCPCaller(srv, a.logger)
		if err := caller.ConnectWithRetry(ctx, catalogConnectAttempts, time.Second); err != nil {
			a.logger.Warn("catalog unreachable", "server", srv.Name, "error", err)
			continue
		}
		a.catalogs = append(a.catalogs, &remoteCatalog{
			name:       srv.Name,
			caller:     caller,
			discoverer: catalog.NewDiscoverer(caller, catalog.NewDetailCache(a.cfg.CacheTTL), a.logger),
		})
	}
}

// Run blocks serving the control plane until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	go a.feed.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.control.Listen(a.cfg.ListenAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Shutdown tears down live sessions and all components.
func (a *App) Shutdown() {
	a.mu.Lock()
	conns := a.conns
	a.conns = make(map[string]*conn)
	a.mu.Unlock()

	for id, c := range conns {
		a.sessions.Unregister(id)
		c.engine.Stop()
		c.peer.Close()
	}

	if a.control != nil {
		if err := a.control.Shutdown(); err != nil {
			a.logger.Warn("control plane shutdown failed", "error", err)
		}
	}
	for _, rc := range a.catalogs {
		rc.caller.Close()
	}
	if a.llm != nil {
		a.llm.Close()
	}
	if a.sttProv != nil {
		a.sttProv.Close()
	}
	if a.ttsProv != nil {
		a.ttsProv.Close()
	}
}

// Connect establishes a new conversation session from a WebRTC offer: it
// builds a pipeline, bridges it to the peer connection, and registers the
// session with the control plane.
func (a *App) Connect(ctx context.Context, offerSDP string) (string, string, error) {
	peer, err := transport.NewPeer(transport.Config{
		STUNServers: a.cfg.STUNServers,
		Logger:      a.logger,
	})
	if err != nil {
		return "", "", err
	}
	id := peer.ID()

	vcfg := voice.DefaultConfig().
		WithSessionID(id).
		WithSystemPrompt(a.systemPrompt)
	if a.cfg.LLMModel != "" {
		vcfg.Model = a.cfg.LLMModel
	}

	engine, err := voice.NewEngine(vcfg, a.sttProv, a.llm, a.ttsProv, a.registry, a.feed, a.logger)
	if err != nil {
		peer.Close()
		return "", "", err
	}

	peer.OnAudioIn(func(pcm []byte) {
		if err := engine.SendAudio(pcm); err != nil {
			a.logger.Debug("dropping inbound audio", "session_id", id, "error", err)
		}
	})
	engine.OnAudioOut(func(pcm []byte) {
		if err := peer.PlayPCM(pcm); err != nil {
			a.logger.Warn("playback failed", "session_id", id, "error", err)
		}
	})
	engine.OnTurn(func(user, reply string) {
		if err := peer.FlushPlayback(); err != nil {
			a.logger.Debug("playback flush failed", "session_id", id, "error", err)
		}
	})
	peer.OnClosed(func() {
		a.dropSession(id)
	})

	if err := engine.Start(context.Background()); err != nil {
		peer.Close()
		return "", "", err
	}

	answer, err := peer.HandleOffer(offerSDP)
	if err != nil {
		engine.Stop()
		peer.Close()
		return "", "", err
	}

	a.mu.Lock()
	a.conns[id] = &conn{engine: engine, peer: peer}
	a.mu.Unlock()
	a.sessions.Register(id, engine)

	// The close notification fires only once and may have raced this
	// registration; a peer that died during setup must not leave a live
	// registry entry behind.
	if peer.IsClosed() {
		a.dropSession(id)
		return "", "", fmt.Errorf("agent: connection closed during setup")
	}

	return id, answer, nil
}

// dropSession cleans up one connection. Safe to call more than once.
func (a *App) dropSession(id string) {
	a.mu.Lock()
	c := a.conns[id]
	delete(a.conns, id)
	a.mu.Unlock()

	if c == nil {
		return
	}
	a.sessions.Unregister(id)
	c.engine.Stop()
	c.peer.Close()
	a.logger.Info("session closed", "session_id", id)
}

// Reload rebuilds the workflow tool set: every catalog's detail cache is
// cleared, discovery re-runs, and stale workflow tools are replaced. The
// web search tool is untouched. Returns the total tool count.
func (a *App) Reload(ctx context.Context) (int, error) {
	var (
		defs  []catalog.Definition
		names = catalog.NameMap{}
	)
	for _, rc := range a.catalogs {
		rc.discoverer.Cache().Clear()
		found, foundNames := rc.discoverer.Discover(ctx)
		defs = append(defs, found...)
		for tool, workflow := range foundNames {
			names[tool] = workflow
		}
	}
	a.runner.SetNames(names)

	a.workflowMu.Lock()
	defer a.workflowMu.Unlock()

	for _, name := range a.workflowNames {
		a.registry.Unregister(name)
	}
	tools.RegisterWorkflows(a.registry, defs, a.runner)

	a.workflowNames = a.workflowNames[:0]
	for _, def := range defs {
		a.workflowNames = append(a.workflowNames, def.Name)
	}

	a.logger.Info("tool set rebuilt", "workflows", len(defs), "total", a.registry.Count())
	return a.registry.Count(), nil
}
