package domain

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// ChannelDirectory lee y crea canales del servidor.
type ChannelDirectory interface {
	// Channel con fresh=true ignora cualquier cache del cliente.
	Channel(ctx context.Context, channelID string, fresh bool) (Channel, error)
	// CategoryChildren devuelve los hijos de la categoría en orden de posición.
	CategoryChildren(ctx context.Context, guildID, categoryID string) ([]Channel, error)
	GuildChannels(ctx context.Context, guildID string) ([]Channel, error)
	EveryoneRoleID(ctx context.Context, guildID string) (string, error)
	CreateTextChannel(ctx context.Context, guildID, parentID, name string) (Channel, error)
}

type OverwriteStore interface {
	Overwrites(ctx context.Context, channelID string) ([]Overwrite, error)
	CreateOverwrite(ctx context.Context, channelID string, ow Overwrite) error
	EditOverwrite(ctx context.Context, channelID string, ow Overwrite) error
	DeleteOverwrite(ctx context.Context, channelID, principalID string) error
}

type MessageStore interface {
	Message(ctx context.Context, channelID, messageID string) (Message, error)
	ReactionUsers(ctx context.Context, channelID, messageID, emoji string) ([]User, error)
}

type Responder interface {
	React(ctx context.Context, channelID, messageID, emoji string) error
	Reply(ctx context.Context, channelID, messageID, text string) error
}

type Identity interface {
	BotUserID() string
}

// ChatClient agrupa todo lo que el bot consume de la plataforma.
type ChatClient interface {
	ChannelDirectory
	OverwriteStore
	MessageStore
	Responder
	Identity
}

// EventPublisher es lo que los usecases usan para avisar efectos aplicados.
type EventPublisher interface {
	Publish(topic string, payload any)
}
