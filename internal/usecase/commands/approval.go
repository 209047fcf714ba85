package commands

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"makeChannel/internal/domain"
)

const (
	DefaultApprovalEmoji = "👍"
	DefaultQuorum        = 4
)

type ApprovalConfig struct {
	Emoji  string
	Quorum int
	// ExcludeRequester saca al autor del pedido del conjunto de aprobadores.
	// El usuario que dispara el evento se agrega igual.
	ExcludeRequester bool
}

// ChannelCreated describe el canal materializado por quórum.
type ChannelCreated struct {
	GuildID     string
	CategoryID  string
	ChannelID   string
	Name        string
	RequesterID string
	Approvers   []string
	Granted     []string
}

// Approvals promueve un pedido "create" a un canal real cuando llega al quórum.
// El mensaje con sus reacciones es el único estado; no hay store propio.
type Approvals struct {
	cfg    ApprovalConfig
	parser *Parser
	client domain.ChatClient
	log    *zap.Logger
}

func NewApprovals(cfg ApprovalConfig, parser *Parser, client domain.ChatClient, log *zap.Logger) *Approvals {
	if cfg.Emoji == "" {
		cfg.Emoji = DefaultApprovalEmoji
	}
	if cfg.Quorum <= 0 {
		cfg.Quorum = DefaultQuorum
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Approvals{cfg: cfg, parser: parser, client: client, log: log}
}

func (a *Approvals) Emoji() string { return a.cfg.Emoji }

// Propose marca el mensaje del pedido con el emoji de aprobación.
func (a *Approvals) Propose(ctx context.Context, cmd Command) error {
	return a.client.React(ctx, cmd.ChannelID, cmd.MessageID, a.cfg.Emoji)
}

// HandleReaction devuelve (nil, nil) en cualquier rama que no crea un canal.
func (a *Approvals) HandleReaction(ctx context.Context, ev domain.ReactionEvent) (*ChannelCreated, error) {
	if ev.Emoji != a.cfg.Emoji {
		return nil, nil
	}

	origin, err := a.client.Channel(ctx, ev.ChannelID, true)
	if err != nil {
		return nil, fmt.Errorf("approval: fetch channel: %w", err)
	}
	if origin.Kind != domain.ChannelKindText {
		return nil, nil
	}

	msg, err := a.client.Message(ctx, ev.ChannelID, ev.MessageID)
	if err != nil {
		return nil, fmt.Errorf("approval: fetch message: %w", err)
	}
	if msg.GuildID == "" {
		msg.GuildID = ev.GuildID
	}

	cmd, ok := a.parser.Parse(msg, origin)
	if !ok {
		return nil, nil
	}
	create, ok := cmd.Payload.(Create)
	if !ok {
		return nil, nil
	}

	count := msg.ReactionCount(a.cfg.Emoji)
	if count < a.cfg.Quorum {
		a.log.Debug("esperando quórum",
			zap.String("message", msg.ID),
			zap.String("name", create.Name),
			zap.Int("count", count),
			zap.Int("quorum", a.cfg.Quorum),
		)
		return nil, nil
	}

	// Este chequeo es el único candado contra creaciones duplicadas y no es
	// atómico: dos mensajes distintos con el mismo nombre pueden competir.
	exists, err := a.nameTaken(ctx, cmd.GuildID, create.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	created, err := a.client.CreateTextChannel(ctx, cmd.GuildID, cmd.CategoryID, create.Name)
	if err != nil {
		return nil, fmt.Errorf("approval: create channel %q: %w", create.Name, err)
	}

	a.log.Info("canal creado por quórum",
		zap.String("guild", cmd.GuildID),
		zap.String("channel", created.ID),
		zap.String("name", create.Name),
		zap.Int("count", count),
	)

	if err := a.seedOverwrites(ctx, cmd, created.ID); err != nil {
		return nil, err
	}

	approvers, err := a.approvers(ctx, msg, cmd.RequesterID)
	if err != nil {
		return nil, err
	}

	granted := distinct(append([]string{ev.UserID}, approvers...))
	for _, userID := range granted {
		err := a.client.CreateOverwrite(ctx, created.ID, domain.Overwrite{
			PrincipalID: userID,
			Type:        domain.PrincipalMember,
			View:        domain.ViewAllow,
		})
		if err != nil {
			return nil, fmt.Errorf("approval: grant %s: %w", userID, err)
		}
	}

	if err := a.client.Reply(ctx, msg.ChannelID, msg.ID, createdReply(created.ID, cmd.RequesterID, approvers)); err != nil {
		return nil, fmt.Errorf("approval: reply: %w", err)
	}

	return &ChannelCreated{
		GuildID:     cmd.GuildID,
		CategoryID:  cmd.CategoryID,
		ChannelID:   created.ID,
		Name:        create.Name,
		RequesterID: cmd.RequesterID,
		Approvers:   approvers,
		Granted:     granted,
	}, nil
}

func (a *Approvals) nameTaken(ctx context.Context, guildID, name string) (bool, error) {
	channels, err := a.client.GuildChannels(ctx, guildID)
	if err != nil {
		return false, fmt.Errorf("approval: list guild channels: %w", err)
	}
	for _, ch := range channels {
		if ch.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// seedOverwrites deja el canal visible para el bot y oculto para @everyone.
func (a *Approvals) seedOverwrites(ctx context.Context, cmd Command, channelID string) error {
	err := a.client.CreateOverwrite(ctx, channelID, domain.Overwrite{
		PrincipalID: a.client.BotUserID(),
		Type:        domain.PrincipalMember,
		View:        domain.ViewAllow,
	})
	if err != nil {
		return fmt.Errorf("approval: grant bot: %w", err)
	}

	everyone, err := a.client.EveryoneRoleID(ctx, cmd.GuildID)
	if err != nil {
		return fmt.Errorf("approval: everyone role: %w", err)
	}
	err = a.client.EditOverwrite(ctx, channelID, domain.Overwrite{
		PrincipalID: everyone,
		Type:        domain.PrincipalRole,
		View:        domain.ViewDeny,
	})
	if err != nil {
		return fmt.Errorf("approval: deny everyone: %w", err)
	}
	return nil
}

// approvers devuelve los usuarios humanos distintos que reaccionaron, en el
// orden que los entrega la plataforma.
func (a *Approvals) approvers(ctx context.Context, msg domain.Message, requesterID string) ([]string, error) {
	users, err := a.client.ReactionUsers(ctx, msg.ChannelID, msg.ID, a.cfg.Emoji)
	if err != nil {
		return nil, fmt.Errorf("approval: reaction users: %w", err)
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		if u.Bot {
			continue
		}
		if a.cfg.ExcludeRequester && u.ID == requesterID {
			continue
		}
		ids = append(ids, u.ID)
	}
	return distinct(ids), nil
}

func createdReply(channelID, requesterID string, approvers []string) string {
	mentions := make([]string, 0, len(approvers))
	for _, id := range approvers {
		mentions = append(mentions, "<@"+id+">")
	}
	return fmt.Sprintf("Created: <#%s> (by <@%s>, and approved by %s)",
		channelID, requesterID, strings.Join(mentions, ", "))
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
