package commands

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"makeChannel/internal/domain"
)

// Router despacha mensajes y reacciones hacia el parser, el reconciliador y
// la máquina de aprobación.
type Router struct {
	parser     *Parser
	client     domain.ChatClient
	reconciler *AccessReconciler
	approvals  *Approvals
	events     domain.EventPublisher
	log        *zap.Logger
	now        func() time.Time
}

type RouterConfig struct {
	Prefix        string
	MaxNameLength int
	Approval      ApprovalConfig
}

func NewRouter(cfg RouterConfig, client domain.ChatClient, events domain.EventPublisher, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	parser := NewParser(cfg.Prefix, cfg.MaxNameLength)
	return &Router{
		parser:     parser,
		client:     client,
		reconciler: NewAccessReconciler(client, log.Named("access")),
		approvals:  NewApprovals(cfg.Approval, parser, client, log.Named("approval")),
		events:     events,
		log:        log,
		now:        time.Now,
	}
}

func (r *Router) HandleMessage(ctx context.Context, msg domain.Message) error {
	if msg.AuthorIsBot {
		return nil
	}

	origin, err := r.client.Channel(ctx, msg.ChannelID, false)
	if err != nil {
		return fmt.Errorf("router: fetch channel %s: %w", msg.ChannelID, err)
	}

	cmd, ok := r.parser.Parse(msg, origin)
	if !ok {
		return nil
	}

	switch p := cmd.Payload.(type) {
	case Create:
		if err := r.approvals.Propose(ctx, cmd); err != nil {
			return fmt.Errorf("router: propose %q: %w", p.Name, err)
		}
		r.publish(domain.TopicCreateProposed, domain.CreateProposed{
			GuildID:     cmd.GuildID,
			CategoryID:  cmd.CategoryID,
			ChannelID:   cmd.ChannelID,
			MessageID:   cmd.MessageID,
			RequesterID: cmd.RequesterID,
			Name:        p.Name,
			At:          r.now().UTC(),
		})
		return nil

	case List:
		managed, err := r.managed(ctx, cmd)
		if err != nil {
			return err
		}
		return r.client.Reply(ctx, cmd.ChannelID, cmd.MessageID, FormatList(managed))

	case Join:
		return r.reconcile(ctx, cmd, VerbJoin, p.Selectors)

	case Leave:
		return r.reconcile(ctx, cmd, VerbLeave, p.Selectors)
	}

	return fmt.Errorf("router: payload desconocido %T", cmd.Payload)
}

func (r *Router) HandleReaction(ctx context.Context, ev domain.ReactionEvent) error {
	created, err := r.approvals.HandleReaction(ctx, ev)
	if err != nil {
		return err
	}
	if created == nil {
		return nil
	}
	r.publish(domain.TopicChannelCreated, domain.ChannelCreatedEvent{
		GuildID:     created.GuildID,
		CategoryID:  created.CategoryID,
		ChannelID:   created.ChannelID,
		Name:        created.Name,
		RequesterID: created.RequesterID,
		Granted:     created.Granted,
		At:          r.now().UTC(),
	})
	return nil
}

// reconcile fija el conjunto de canales antes de la primera mutación.
func (r *Router) reconcile(ctx context.Context, cmd Command, verb Verb, selectors []Selector) error {
	managed, err := r.managed(ctx, cmd)
	if err != nil {
		return err
	}
	targets := Select(managed, selectors)

	if err := r.reconciler.Reconcile(ctx, targets, verb, cmd.RequesterID); err != nil {
		return err
	}

	if err := r.client.Reply(ctx, cmd.ChannelID, cmd.MessageID, verb.Reply()); err != nil {
		return fmt.Errorf("router: reply: %w", err)
	}

	ids := make([]string, 0, len(targets))
	for _, ch := range targets {
		ids = append(ids, ch.ID)
	}
	r.publish(domain.TopicAccessChanged, domain.AccessChanged{
		GuildID:    cmd.GuildID,
		CategoryID: cmd.CategoryID,
		UserID:     cmd.RequesterID,
		Granted:    verb == VerbJoin,
		ChannelIDs: ids,
		At:         r.now().UTC(),
	})
	return nil
}

func (r *Router) managed(ctx context.Context, cmd Command) ([]domain.Channel, error) {
	children, err := r.client.CategoryChildren(ctx, cmd.GuildID, cmd.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("router: category children: %w", err)
	}
	return FilterManaged(children), nil
}

func (r *Router) publish(topic string, payload any) {
	if r.events == nil {
		return
	}
	r.events.Publish(topic, payload)
}
