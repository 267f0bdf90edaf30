package gateway

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/culturalabs/cultura/internal/bus"
	"github.com/culturalabs/cultura/internal/channel"
	"github.com/culturalabs/cultura/internal/completion"
	"github.com/culturalabs/cultura/internal/config"
	"github.com/culturalabs/cultura/internal/geo"
	"github.com/culturalabs/cultura/internal/metrics"
	"github.com/culturalabs/cultura/internal/profile"
	"github.com/culturalabs/cultura/internal/stylist"
)

// Options for creating a Gateway
type Options struct {
	Backend    completion.Backend // injected model backend (for testing)
	SignalChan chan os.Signal     // for testing signal handling
}

type Gateway struct {
	cfg        *config.Config
	bus        *bus.MessageBus
	svc        *completion.Service
	pipeline   *stylist.Pipeline
	channels   *channel.ChannelManager
	cron       *cron.Cron
	signalChan chan os.Signal
}

// New creates a Gateway with default options
func New(cfg *config.Config) (*Gateway, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates a Gateway with custom options for testing
func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	g := &Gateway{cfg: cfg}

	backend := opts.Backend
	if backend == nil {
		var err error
		backend, err = newBackend(cfg)
		if err != nil {
			return nil, err
		}
	}

	g.svc = completion.NewService(backend, cfg.Models, metrics.NewRecorder())

	store := profile.NewStore()
	enricher, err := stylist.NewEnricher(g.svc, geo.NewClient(cfg.Geo), cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("create enricher: %w", err)
	}
	g.pipeline = stylist.NewPipeline(g.svc, store, enricher)

	g.bus = bus.NewMessageBus(config.DefaultBufSize)

	chMgr, err := channel.NewChannelManager(cfg.Channels, cfg.Gateway, g.bus, g.pipeline.Respond)
	if err != nil {
		return nil, fmt.Errorf("create channel manager: %w", err)
	}
	g.channels = chMgr

	g.cron = cron.New()
	if _, err := g.cron.AddFunc("0 * * * *", func() {
		log.Printf("[gateway] model stats: %s", g.svc.Stats().Report())
	}); err != nil {
		return nil, fmt.Errorf("schedule stats report: %w", err)
	}

	g.signalChan = opts.SignalChan
	return g, nil
}

func newBackend(cfg *config.Config) (completion.Backend, error) {
	switch cfg.Provider.Type {
	case "anthropic":
		return completion.NewAnthropicBackend(cfg.Provider, cfg.Models.MaxTokens)
	default: // "gemini" or empty
		return completion.NewGeminiBackend(context.Background(), cfg.Provider.APIKey)
	}
}

func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := g.channels.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	log.Printf("[gateway] channels started: %v", g.channels.EnabledChannels())

	g.cron.Start()

	go g.processLoop(ctx)

	log.Printf("[gateway] running on %s:%d", g.cfg.Gateway.Host, g.cfg.Gateway.Port)

	// Use injected signal channel for testing, or create default
	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}
	<-sigCh

	log.Printf("[gateway] shutting down...")
	return g.Shutdown()
}

func (g *Gateway) processLoop(ctx context.Context) {
	for {
		select {
		case msg := <-g.bus.Inbound:
			log.Printf("[gateway] inbound from %s/%s: %s", msg.Channel, msg.SenderID, truncate(msg.Content, 80))
			go g.handleInbound(ctx, msg)
		case <-ctx.Done():
			return
		}
	}
}

func (g *Gateway) handleInbound(ctx context.Context, msg bus.InboundMessage) {
	reply, err := g.pipeline.Respond(ctx, msg.SenderID, msg.Content)
	if err != nil {
		log.Printf("[gateway] respond error: %v", err)
		reply = stylist.ErrorReply(err)
	}
	if reply == "" {
		return
	}
	g.bus.Outbound <- bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: reply,
	}
}

func (g *Gateway) Shutdown() error {
	g.cron.Stop()
	if err := g.channels.StopAll(); err != nil {
		log.Printf("[gateway] stop channels: %v", err)
	}
	g.bus.Close()
	log.Printf("[gateway] stopped")
	return nil
}

// Pipeline exposes the responder, for the CLI chat command.
func (g *Gateway) Pipeline() *stylist.Pipeline {
	return g.pipeline
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
