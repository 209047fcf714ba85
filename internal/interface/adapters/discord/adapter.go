// Package discordadapter conecta el bot a Discord usando discordgo.
package discordadapter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"makeChannel/internal/domain"
)

const reactionPageSize = 100

type Config struct {
	Token string
	// Marker es el texto que, presente en el topic, convierte a un canal en
	// canal de comandos.
	Marker string
}

type MessageHandler func(ctx context.Context, msg domain.Message)
type ReactionHandler func(ctx context.Context, ev domain.ReactionEvent)

// Adapter implementa domain.ChatClient sobre una sesión de discordgo.
type Adapter struct {
	cfg Config
	log *zap.Logger

	mu         sync.RWMutex
	session    *discordgo.Session
	onMessage  MessageHandler
	onReaction ReactionHandler
}

func NewAdapter(cfg Config, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{cfg: cfg, log: log}
}

func (a *Adapter) SetHandlers(onMessage MessageHandler, onReaction ReactionHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onMessage = onMessage
	a.onReaction = onReaction
}

// Start abre el gateway y se bloquea hasta que ctx se cancela.
func (a *Adapter) Start(ctx context.Context) error {
	if a.cfg.Token == "" {
		return errors.New("discord: token vacío")
	}

	session, err := discordgo.New("Bot " + a.cfg.Token)
	if err != nil {
		return fmt.Errorf("discord: New: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent

	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.log.Info("discord: conectado",
			zap.String("user", r.User.Username),
			zap.Int("guilds", len(r.Guilds)),
		)
	})

	session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		a.mu.RLock()
		handler := a.onMessage
		a.mu.RUnlock()
		if handler == nil || m.Message == nil {
			return
		}
		handler(ctx, mapMessageToDomain(m.Message))
	})

	session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		a.mu.RLock()
		handler := a.onReaction
		a.mu.RUnlock()
		if handler == nil || r.MessageReaction == nil {
			return
		}
		handler(ctx, domain.ReactionEvent{
			GuildID:   r.GuildID,
			ChannelID: r.ChannelID,
			MessageID: r.MessageID,
			Emoji:     r.Emoji.Name,
			UserID:    r.UserID,
		})
	})

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord: Open: %w", err)
	}

	a.mu.Lock()
	a.session = session
	a.mu.Unlock()

	<-ctx.Done()

	a.mu.Lock()
	if err := a.session.Close(); err != nil {
		a.log.Warn("discord: close", zap.Error(err))
	}
	a.session = nil
	a.mu.Unlock()

	return ctx.Err()
}

func (a *Adapter) sess() (*discordgo.Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return nil, errors.New("discord: sesión no inicializada (Start no llamado o falló)")
	}
	return a.session, nil
}

func (a *Adapter) BotUserID() string {
	s, err := a.sess()
	if err != nil || s.State == nil || s.State.User == nil {
		return ""
	}
	return s.State.User.ID
}

// ----- ChannelDirectory -----

func (a *Adapter) Channel(ctx context.Context, channelID string, fresh bool) (domain.Channel, error) {
	s, err := a.sess()
	if err != nil {
		return domain.Channel{}, err
	}

	if !fresh && s.State != nil {
		if ch, err := s.State.Channel(channelID); err == nil {
			return mapChannelToDomain(ch, a.cfg.Marker), nil
		}
	}

	ch, err := s.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return domain.Channel{}, fmt.Errorf("discord: channel %s: %w", channelID, err)
	}
	return mapChannelToDomain(ch, a.cfg.Marker), nil
}

func (a *Adapter) CategoryChildren(ctx context.Context, guildID, categoryID string) ([]domain.Channel, error) {
	all, err := a.GuildChannels(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return childrenOf(all, categoryID), nil
}

func (a *Adapter) GuildChannels(ctx context.Context, guildID string) ([]domain.Channel, error) {
	s, err := a.sess()
	if err != nil {
		return nil, err
	}
	channels, err := s.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: guild channels %s: %w", guildID, err)
	}
	out := make([]domain.Channel, 0, len(channels))
	for _, ch := range channels {
		out = append(out, mapChannelToDomain(ch, a.cfg.Marker))
	}
	return out, nil
}

func (a *Adapter) EveryoneRoleID(ctx context.Context, guildID string) (string, error) {
	s, err := a.sess()
	if err != nil {
		return "", err
	}
	roles, err := s.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("discord: guild roles %s: %w", guildID, err)
	}
	return everyoneRole(roles, guildID)
}

func (a *Adapter) CreateTextChannel(ctx context.Context, guildID, parentID, name string) (domain.Channel, error) {
	s, err := a.sess()
	if err != nil {
		return domain.Channel{}, err
	}
	ch, err := s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: parentID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return domain.Channel{}, fmt.Errorf("discord: create channel %q: %w", name, err)
	}
	return mapChannelToDomain(ch, a.cfg.Marker), nil
}

// ----- OverwriteStore -----

func (a *Adapter) Overwrites(ctx context.Context, channelID string) ([]domain.Overwrite, error) {
	raw, err := a.rawOverwrites(ctx, channelID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Overwrite, 0, len(raw))
	for _, ow := range raw {
		out = append(out, mapOverwriteToDomain(ow))
	}
	return out, nil
}

func (a *Adapter) CreateOverwrite(ctx context.Context, channelID string, ow domain.Overwrite) error {
	allow, deny := applyView(0, 0, ow.View)
	return a.setOverwrite(ctx, channelID, ow, allow, deny)
}

// EditOverwrite solo toca ViewChannel y conserva el resto de los permisos.
func (a *Adapter) EditOverwrite(ctx context.Context, channelID string, ow domain.Overwrite) error {
	raw, err := a.rawOverwrites(ctx, channelID)
	if err != nil {
		return err
	}
	var allow, deny int64
	for _, existing := range raw {
		if existing.ID == ow.PrincipalID {
			allow, deny = existing.Allow, existing.Deny
			break
		}
	}
	allow, deny = applyView(allow, deny, ow.View)
	return a.setOverwrite(ctx, channelID, ow, allow, deny)
}

func (a *Adapter) DeleteOverwrite(ctx context.Context, channelID, principalID string) error {
	s, err := a.sess()
	if err != nil {
		return err
	}
	if err := s.ChannelPermissionDelete(channelID, principalID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: delete overwrite %s/%s: %w", channelID, principalID, err)
	}
	return nil
}

func (a *Adapter) rawOverwrites(ctx context.Context, channelID string) ([]*discordgo.PermissionOverwrite, error) {
	s, err := a.sess()
	if err != nil {
		return nil, err
	}
	ch, err := s.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: overwrites %s: %w", channelID, err)
	}
	return ch.PermissionOverwrites, nil
}

func (a *Adapter) setOverwrite(ctx context.Context, channelID string, ow domain.Overwrite, allow, deny int64) error {
	s, err := a.sess()
	if err != nil {
		return err
	}
	err = s.ChannelPermissionSet(channelID, ow.PrincipalID, overwriteType(ow.Type), allow, deny, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: set overwrite %s/%s: %w", channelID, ow.PrincipalID, err)
	}
	return nil
}

// ----- MessageStore / Responder -----

func (a *Adapter) Message(ctx context.Context, channelID, messageID string) (domain.Message, error) {
	s, err := a.sess()
	if err != nil {
		return domain.Message{}, err
	}
	m, err := s.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return domain.Message{}, fmt.Errorf("discord: message %s/%s: %w", channelID, messageID, err)
	}
	return mapMessageToDomain(m), nil
}

// ReactionUsers pagina la lista completa de usuarios que reaccionaron con emoji.
func (a *Adapter) ReactionUsers(ctx context.Context, channelID, messageID, emoji string) ([]domain.User, error) {
	s, err := a.sess()
	if err != nil {
		return nil, err
	}

	var (
		out   []domain.User
		after string
	)
	for {
		page, err := s.MessageReactions(channelID, messageID, emoji, reactionPageSize, "", after, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("discord: reaction users %s/%s: %w", channelID, messageID, err)
		}
		for _, u := range page {
			out = append(out, domain.User{ID: u.ID, Bot: u.Bot})
		}
		if len(page) < reactionPageSize {
			return out, nil
		}
		after = page[len(page)-1].ID
	}
}

func (a *Adapter) React(ctx context.Context, channelID, messageID, emoji string) error {
	s, err := a.sess()
	if err != nil {
		return err
	}
	if err := s.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: react %s/%s: %w", channelID, messageID, err)
	}
	return nil
}

func (a *Adapter) Reply(ctx context.Context, channelID, messageID, text string) error {
	s, err := a.sess()
	if err != nil {
		return err
	}
	ref := &discordgo.MessageReference{MessageID: messageID, ChannelID: channelID}
	if _, err := s.ChannelMessageSendReply(channelID, text, ref, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: reply %s/%s: %w", channelID, messageID, err)
	}
	a.log.Debug("discord: respuesta enviada", zap.String("channel", channelID), zap.String("message", messageID))
	return nil
}

// ----- mapeos -----

func mapChannelToDomain(ch *discordgo.Channel, marker string) domain.Channel {
	out := domain.Channel{
		ID:       ch.ID,
		GuildID:  ch.GuildID,
		ParentID: ch.ParentID,
		Name:     ch.Name,
		Position: ch.Position,
	}
	switch ch.Type {
	case discordgo.ChannelTypeGuildText:
		out.Kind = domain.ChannelKindText
		out.IsCommandChannel = isCommandTopic(ch.Topic, marker)
	case discordgo.ChannelTypeGuildCategory:
		out.Kind = domain.ChannelKindCategory
	default:
		out.Kind = domain.ChannelKindOther
	}
	return out
}

func isCommandTopic(topic, marker string) bool {
	return marker != "" && strings.Contains(topic, marker)
}

// childrenOf filtra los hijos de la categoría y los ordena como los muestra Discord.
func childrenOf(all []domain.Channel, categoryID string) []domain.Channel {
	out := make([]domain.Channel, 0)
	for _, ch := range all {
		if ch.ParentID == categoryID {
			out = append(out, ch)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return snowflakeLess(out[i].ID, out[j].ID)
	})
	return out
}

func snowflakeLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func everyoneRole(roles []*discordgo.Role, guildID string) (string, error) {
	for _, r := range roles {
		if r.ID == guildID {
			return r.ID, nil
		}
	}
	for _, r := range roles {
		if r.Name == "@everyone" {
			return r.ID, nil
		}
	}
	return "", fmt.Errorf("discord: rol @everyone de %s: %w", guildID, domain.ErrNotFound)
}

func mapOverwriteToDomain(ow *discordgo.PermissionOverwrite) domain.Overwrite {
	out := domain.Overwrite{PrincipalID: ow.ID, Type: domain.PrincipalRole}
	if ow.Type == discordgo.PermissionOverwriteTypeMember {
		out.Type = domain.PrincipalMember
	}
	switch {
	case ow.Allow&discordgo.PermissionViewChannel != 0:
		out.View = domain.ViewAllow
	case ow.Deny&discordgo.PermissionViewChannel != 0:
		out.View = domain.ViewDeny
	}
	return out
}

func overwriteType(t domain.PrincipalType) discordgo.PermissionOverwriteType {
	if t == domain.PrincipalMember {
		return discordgo.PermissionOverwriteTypeMember
	}
	return discordgo.PermissionOverwriteTypeRole
}

// applyView fija el bit de ViewChannel según view sin tocar los demás bits.
func applyView(allow, deny int64, view domain.ViewAccess) (int64, int64) {
	allow &^= discordgo.PermissionViewChannel
	deny &^= discordgo.PermissionViewChannel
	switch view {
	case domain.ViewAllow:
		allow |= discordgo.PermissionViewChannel
	case domain.ViewDeny:
		deny |= discordgo.PermissionViewChannel
	}
	return allow, deny
}

func mapMessageToDomain(m *discordgo.Message) domain.Message {
	out := domain.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
	}
	if m.Author != nil {
		out.AuthorID = m.Author.ID
		out.AuthorIsBot = m.Author.Bot
	}
	for _, r := range m.Reactions {
		if r == nil || r.Emoji == nil {
			continue
		}
		out.Reactions = append(out.Reactions, domain.Reaction{Emoji: r.Emoji.Name, Count: r.Count})
	}
	return out
}

var _ domain.ChatClient = (*Adapter)(nil)
