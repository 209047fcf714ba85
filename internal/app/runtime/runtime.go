package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"makeChannel/internal/app/events"
	"makeChannel/internal/domain"
	"makeChannel/internal/infrastructure/config"
	sqlitestorage "makeChannel/internal/infrastructure/persistence/sqlite"
	discordadapter "makeChannel/internal/interface/adapters/discord"
	ws "makeChannel/internal/interface/api/ws"
	"makeChannel/internal/usecase/commands"
	"makeChannel/internal/usecase/handle_message"
	"makeChannel/internal/usecase/notifications"
)

// Runtime arma el bot completo: adapter de Discord, router, bus, auditoría y
// servidor de observadores.
type Runtime struct {
	cfg *config.Config
	log *zap.Logger

	bus        *events.Bus
	discord    *discordadapter.Adapter
	interactor *handle_message.Interactor
	audit      *sqlitestorage.AuditStore
	wsServer   *ws.Server

	wg sync.WaitGroup
}

func New(cfg *config.Config, log *zap.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("runtime: config nil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	run := &Runtime{
		cfg: cfg,
		log: log,
		bus: events.NewBus(log.Named("events")),
	}

	if cfg.DatabasePath != "" {
		store, err := sqlitestorage.NewAuditStore(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("runtime: %w", err)
		}
		run.audit = store
	}

	if cfg.ObserverAddr != "" {
		wsCfg := ws.Config{
			Addr:     cfg.ObserverAddr,
			Commands: commands.Catalog(cfg.Prefix),
		}
		if run.audit != nil {
			wsCfg.Audit = run.audit
		}
		run.wsServer = ws.NewServer(wsCfg, log.Named("ws"))
	}

	run.discord = discordadapter.NewAdapter(discordadapter.Config{
		Token:  cfg.DiscordToken,
		Marker: cfg.Marker,
	}, log.Named("discord"))

	router := commands.NewRouter(commands.RouterConfig{
		Prefix:        cfg.Prefix,
		MaxNameLength: cfg.MaxNameLength,
		Approval: commands.ApprovalConfig{
			Emoji:            cfg.Emoji,
			Quorum:           cfg.Quorum,
			ExcludeRequester: cfg.ExcludeRequester,
		},
	}, run.discord, run.bus, log.Named("commands"))

	run.interactor = handle_message.NewInteractor(router, run.bus, log.Named("handler"))
	run.discord.SetHandlers(run.interactor.OnMessage, run.interactor.OnReaction)

	return run, nil
}

// Run se bloquea hasta que ctx se cancela o el gateway de Discord falla.
func (r *Runtime) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Los pumps siguen vivos tras la cancelación hasta que el bus se cierra.
	drainCtx := context.WithoutCancel(ctx)

	if r.audit != nil {
		recorder := notifications.NewAuditRecorder(r.audit, r.log.Named("audit"))
		r.pump("audit", func(env events.Envelope) {
			recorder.Record(drainCtx, env.Topic, env.Payload)
		})
	}

	if r.wsServer != nil {
		r.pump("ws", func(env events.Envelope) {
			if err := r.wsServer.Broadcast(drainCtx, env.Topic, env.Payload); err != nil {
				r.log.Debug("ws: broadcast", zap.Error(err))
			}
		})

		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := r.wsServer.Start(ctx); err != nil {
				r.log.Error("ws: servidor detenido", zap.Error(err))
			}
		}()
	}

	r.log.Info("iniciando bot...",
		zap.String("prefix", r.cfg.Prefix),
		zap.String("marker", r.cfg.Marker),
		zap.Int("quorum", r.cfg.Quorum),
	)

	err := r.discord.Start(ctx)
	cancel()

	// Los handlers en curso terminan antes de cerrar el bus.
	r.interactor.Close()
	r.bus.Close()
	r.wg.Wait()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runtime) Close() error {
	if r.audit != nil {
		return r.audit.Close()
	}
	return nil
}

// pump reenvía los tópicos auditables a fn hasta que el bus cierra la suscripción.
func (r *Runtime) pump(name string, fn func(events.Envelope)) {
	ch, unsubscribe := r.bus.Subscribe(notifications.Topics...)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer unsubscribe()
		for env := range ch {
			fn(env)
		}
	}()
	r.log.Debug("pump iniciado", zap.String("name", name))
}

var _ domain.EventPublisher = (*events.Bus)(nil)
