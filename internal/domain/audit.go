package domain

import (
	"context"
	"time"
)

type AuditKind string

const (
	AuditAccessGranted  AuditKind = "access_granted"
	AuditAccessRevoked  AuditKind = "access_revoked"
	AuditCreateProposed AuditKind = "create_proposed"
	AuditChannelCreated AuditKind = "channel_created"
	AuditHandlerError   AuditKind = "handler_error"
)

// AuditEntry registra un efecto ya aplicado. Nunca se relee para decidir nada.
type AuditEntry struct {
	ID        int64
	Kind      AuditKind
	GuildID   string
	ChannelID string
	UserID    string
	Detail    string
	Metadata  map[string]string
	CreatedAt time.Time
}

type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	Recent(ctx context.Context, limit int) ([]*AuditEntry, error)
}
