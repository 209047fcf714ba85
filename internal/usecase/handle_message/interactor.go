// Package handle_message corre cada evento entrante en su propia tarea aislada.
package handle_message

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"makeChannel/internal/domain"
)

// Handler es lo que el Interactor necesita del router de comandos.
type Handler interface {
	HandleMessage(ctx context.Context, msg domain.Message) error
	HandleReaction(ctx context.Context, ev domain.ReactionEvent) error
}

type Interactor struct {
	handler Handler
	events  domain.EventPublisher
	log     *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewInteractor(handler Handler, events domain.EventPublisher, log *zap.Logger) *Interactor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Interactor{
		handler: handler,
		events:  events,
		log:     log,
	}
}

// OnMessage lanza el handler en una goroutine propia y vuelve enseguida.
func (uc *Interactor) OnMessage(ctx context.Context, msg domain.Message) {
	uc.spawn(ctx, "message", func(ctx context.Context) error {
		return uc.handler.HandleMessage(ctx, msg)
	}, zap.String("channel", msg.ChannelID), zap.String("message", msg.ID))
}

func (uc *Interactor) OnReaction(ctx context.Context, ev domain.ReactionEvent) {
	uc.spawn(ctx, "reaction", func(ctx context.Context) error {
		return uc.handler.HandleReaction(ctx, ev)
	}, zap.String("channel", ev.ChannelID), zap.String("message", ev.MessageID), zap.String("emoji", ev.Emoji))
}

// Wait bloquea hasta que terminen todos los handlers en curso.
func (uc *Interactor) Wait() {
	uc.wg.Wait()
}

// Close deja de aceptar eventos y espera a los handlers en curso.
func (uc *Interactor) Close() {
	uc.mu.Lock()
	uc.closed = true
	uc.mu.Unlock()
	uc.wg.Wait()
}

// spawn desacopla el handler de la cancelación: una vez iniciado corre hasta terminar.
func (uc *Interactor) spawn(ctx context.Context, source string, fn func(context.Context) error, fields ...zap.Field) {
	ctx = context.WithoutCancel(ctx)

	uc.mu.Lock()
	if uc.closed {
		uc.mu.Unlock()
		uc.log.Debug("evento descartado tras el cierre", append(fields, zap.String("source", source))...)
		return
	}
	uc.wg.Add(1)
	uc.mu.Unlock()

	go func() {
		defer uc.wg.Done()
		uc.run(ctx, source, fn, fields...)
	}()
}

// run nunca deja escapar un error ni un panic fuera del evento.
func (uc *Interactor) run(ctx context.Context, source string, fn func(context.Context) error, fields ...zap.Field) {
	defer func() {
		if rec := recover(); rec != nil {
			uc.fail(source, fmt.Errorf("panic: %v", rec), fields...)
		}
	}()

	if err := fn(ctx); err != nil {
		uc.fail(source, err, fields...)
	}
}

func (uc *Interactor) fail(source string, err error, fields ...zap.Field) {
	uc.log.Error("error en handler", append(fields, zap.String("source", source), zap.Error(err))...)
	if uc.events == nil {
		return
	}
	uc.events.Publish(domain.TopicAppError, domain.AppError{
		Source: source,
		Error:  err.Error(),
		At:     time.Now().UTC(),
	})
}
