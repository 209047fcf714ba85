package domain

type Platform string

const (
	PlatformDiscord Platform = "discord"
)

// Message es la vista mínima de un mensaje de chat que necesita el bot.
type Message struct {
	ID          string
	ChannelID   string
	GuildID     string
	AuthorID    string
	AuthorIsBot bool
	Content     string

	// Reactions trae el conteo que reporta la plataforma por emoji.
	Reactions []Reaction
}

type Reaction struct {
	Emoji string
	Count int
}

// ReactionCount devuelve el conteo de la plataforma para emoji, o 0.
func (m Message) ReactionCount(emoji string) int {
	for _, r := range m.Reactions {
		if r.Emoji == emoji {
			return r.Count
		}
	}
	return 0
}

type User struct {
	ID  string
	Bot bool
}

// ReactionEvent llega del gateway cuando alguien agrega una reacción.
type ReactionEvent struct {
	GuildID   string
	ChannelID string
	MessageID string
	Emoji     string
	UserID    string
}
