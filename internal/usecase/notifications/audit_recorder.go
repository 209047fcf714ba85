package notifications

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"makeChannel/internal/domain"
)

// Topics son los tópicos del bus que terminan en el registro de auditoría.
var Topics = []string{
	domain.TopicAccessChanged,
	domain.TopicCreateProposed,
	domain.TopicChannelCreated,
	domain.TopicAppError,
}

// AuditRecorder traduce los eventos del bus a filas de auditoría.
type AuditRecorder struct {
	repo domain.AuditRepository
	log  *zap.Logger
	now  func() time.Time
}

func NewAuditRecorder(repo domain.AuditRepository, log *zap.Logger) *AuditRecorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditRecorder{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Record guarda una fila por efecto. Los errores solo se registran en el log.
func (r *AuditRecorder) Record(ctx context.Context, topic string, payload any) {
	for _, entry := range r.entries(payload) {
		if err := r.repo.Record(ctx, entry); err != nil {
			r.log.Warn("no se pudo registrar auditoría",
				zap.String("topic", topic),
				zap.String("kind", string(entry.Kind)),
				zap.Error(err),
			)
		}
	}
}

func (r *AuditRecorder) entries(payload any) []*domain.AuditEntry {
	switch ev := payload.(type) {
	case domain.AccessChanged:
		kind := domain.AuditAccessRevoked
		if ev.Granted {
			kind = domain.AuditAccessGranted
		}
		out := make([]*domain.AuditEntry, 0, len(ev.ChannelIDs))
		for _, channelID := range ev.ChannelIDs {
			out = append(out, &domain.AuditEntry{
				Kind:      kind,
				GuildID:   ev.GuildID,
				ChannelID: channelID,
				UserID:    ev.UserID,
				CreatedAt: r.stamp(ev.At),
			})
		}
		return out

	case domain.CreateProposed:
		return []*domain.AuditEntry{{
			Kind:      domain.AuditCreateProposed,
			GuildID:   ev.GuildID,
			ChannelID: ev.ChannelID,
			UserID:    ev.RequesterID,
			Detail:    ev.Name,
			Metadata:  map[string]string{"message_id": ev.MessageID},
			CreatedAt: r.stamp(ev.At),
		}}

	case domain.ChannelCreatedEvent:
		return []*domain.AuditEntry{{
			Kind:      domain.AuditChannelCreated,
			GuildID:   ev.GuildID,
			ChannelID: ev.ChannelID,
			UserID:    ev.RequesterID,
			Detail:    ev.Name,
			Metadata:  map[string]string{"granted": strings.Join(ev.Granted, ",")},
			CreatedAt: r.stamp(ev.At),
		}}

	case domain.AppError:
		return []*domain.AuditEntry{{
			Kind:      domain.AuditHandlerError,
			Detail:    ev.Error,
			Metadata:  map[string]string{"source": ev.Source},
			CreatedAt: r.stamp(ev.At),
		}}
	}

	r.log.Debug("evento sin auditoría", zap.Any("payload", payload))
	return nil
}

func (r *AuditRecorder) stamp(at time.Time) time.Time {
	if at.IsZero() {
		return r.now().UTC()
	}
	return at
}
