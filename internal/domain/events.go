package domain

import "time"

const (
	TopicAccessChanged  = "access:changed"
	TopicCreateProposed = "create:proposed"
	TopicChannelCreated = "channel:created"
	TopicAppError       = "app:error"
)

// AccessChanged se publica después de un join/leave completo.
type AccessChanged struct {
	GuildID    string    `json:"guild_id"`
	CategoryID string    `json:"category_id"`
	UserID     string    `json:"user_id"`
	Granted    bool      `json:"granted"`
	ChannelIDs []string  `json:"channel_ids"`
	At         time.Time `json:"at"`
}

type CreateProposed struct {
	GuildID     string    `json:"guild_id"`
	CategoryID  string    `json:"category_id"`
	ChannelID   string    `json:"channel_id"`
	MessageID   string    `json:"message_id"`
	RequesterID string    `json:"requester_id"`
	Name        string    `json:"name"`
	At          time.Time `json:"at"`
}

type ChannelCreatedEvent struct {
	GuildID     string    `json:"guild_id"`
	CategoryID  string    `json:"category_id"`
	ChannelID   string    `json:"channel_id"`
	Name        string    `json:"name"`
	RequesterID string    `json:"requester_id"`
	Granted     []string  `json:"granted"`
	At          time.Time `json:"at"`
}

type AppError struct {
	Source string    `json:"source"`
	Error  string    `json:"error"`
	At     time.Time `json:"at"`
}
