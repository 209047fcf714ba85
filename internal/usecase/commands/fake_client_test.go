package commands

import (
	"context"
	"fmt"
	"sync"

	"makeChannel/internal/domain"
)

type replyCall struct {
	ChannelID string
	MessageID string
	Text      string
}

type reactCall struct {
	ChannelID string
	MessageID string
	Emoji     string
}

// fakeClient es un servidor de Discord en memoria para las pruebas.
type fakeClient struct {
	mu sync.Mutex

	botID      string
	channels   []domain.Channel
	overwrites map[string][]domain.Overwrite
	messages   map[string]domain.Message
	reactors   map[string][]domain.User
	roles      map[string]string

	replies []replyCall
	reacts  []reactCall
	created []domain.Channel
	creates int
	edits   int
	deletes int
	nextID  int

	// failOverwrite hace fallar cualquier mutación de overwrite en ese canal.
	failOverwrite map[string]error
	failChannel   error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		botID:         "bot",
		overwrites:    make(map[string][]domain.Overwrite),
		messages:      make(map[string]domain.Message),
		reactors:      make(map[string][]domain.User),
		roles:         make(map[string]string),
		failOverwrite: make(map[string]error),
	}
}

func msgKey(channelID, messageID string) string { return channelID + "/" + messageID }

func (f *fakeClient) addChannel(ch domain.Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = append(f.channels, ch)
}

func (f *fakeClient) addMessage(msg domain.Message, reactors ...domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[msgKey(msg.ChannelID, msg.ID)] = msg
	f.reactors[msgKey(msg.ChannelID, msg.ID)] = reactors
}

func (f *fakeClient) overwritesOf(channelID string) []domain.Overwrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Overwrite(nil), f.overwrites[channelID]...)
}

func (f *fakeClient) channelNamed(name string) (domain.Channel, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return domain.Channel{}, false
}

func (f *fakeClient) Channel(_ context.Context, channelID string, _ bool) (domain.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failChannel != nil {
		return domain.Channel{}, f.failChannel
	}
	for _, ch := range f.channels {
		if ch.ID == channelID {
			return ch, nil
		}
	}
	return domain.Channel{}, fmt.Errorf("channel %s: %w", channelID, domain.ErrNotFound)
}

func (f *fakeClient) CategoryChildren(_ context.Context, guildID, categoryID string) ([]domain.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Channel
	for _, ch := range f.channels {
		if ch.GuildID == guildID && ch.ParentID == categoryID {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *fakeClient) GuildChannels(_ context.Context, guildID string) ([]domain.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Channel
	for _, ch := range f.channels {
		if ch.GuildID == guildID {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *fakeClient) EveryoneRoleID(_ context.Context, guildID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.roles[guildID]; ok {
		return id, nil
	}
	return guildID, nil
}

func (f *fakeClient) CreateTextChannel(_ context.Context, guildID, parentID, name string) (domain.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ch := domain.Channel{
		ID:       fmt.Sprintf("new-%d", f.nextID),
		GuildID:  guildID,
		ParentID: parentID,
		Name:     name,
		Kind:     domain.ChannelKindText,
	}
	f.channels = append(f.channels, ch)
	f.created = append(f.created, ch)
	return ch, nil
}

func (f *fakeClient) Overwrites(_ context.Context, channelID string) ([]domain.Overwrite, error) {
	return f.overwritesOf(channelID), nil
}

// CreateOverwrite agrega sin mirar si ya existe, para detectar duplicados.
func (f *fakeClient) CreateOverwrite(_ context.Context, channelID string, ow domain.Overwrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOverwrite[channelID]; err != nil {
		return err
	}
	f.creates++
	f.overwrites[channelID] = append(f.overwrites[channelID], ow)
	return nil
}

func (f *fakeClient) EditOverwrite(_ context.Context, channelID string, ow domain.Overwrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOverwrite[channelID]; err != nil {
		return err
	}
	f.edits++
	list := f.overwrites[channelID]
	for i := range list {
		if list[i].PrincipalID == ow.PrincipalID {
			list[i] = ow
			return nil
		}
	}
	f.overwrites[channelID] = append(list, ow)
	return nil
}

func (f *fakeClient) DeleteOverwrite(_ context.Context, channelID, principalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOverwrite[channelID]; err != nil {
		return err
	}
	f.deletes++
	list := f.overwrites[channelID]
	out := list[:0]
	for _, ow := range list {
		if ow.PrincipalID != principalID {
			out = append(out, ow)
		}
	}
	f.overwrites[channelID] = out
	return nil
}

func (f *fakeClient) Message(_ context.Context, channelID, messageID string) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[msgKey(channelID, messageID)]
	if !ok {
		return domain.Message{}, fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
	}
	return msg, nil
}

func (f *fakeClient) ReactionUsers(_ context.Context, channelID, messageID, _ string) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.User(nil), f.reactors[msgKey(channelID, messageID)]...), nil
}

func (f *fakeClient) React(_ context.Context, channelID, messageID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reacts = append(f.reacts, reactCall{ChannelID: channelID, MessageID: messageID, Emoji: emoji})
	return nil
}

func (f *fakeClient) Reply(_ context.Context, channelID, messageID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, replyCall{ChannelID: channelID, MessageID: messageID, Text: text})
	return nil
}

func (f *fakeClient) BotUserID() string { return f.botID }

var _ domain.ChatClient = (*fakeClient)(nil)

type recordedEvent struct {
	Topic   string
	Payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) Publish(topic string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Topic: topic, Payload: payload})
}
