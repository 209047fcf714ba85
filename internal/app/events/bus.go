package events

import (
	"sync"

	"go.uber.org/zap"
)

const defaultBufferSize = 128

// Envelope viaja por el bus junto con su tópico.
type Envelope struct {
	Topic   string `json:"type"`
	Payload any    `json:"data"`
}

// Bus es un pub/sub en memoria. Publish nunca bloquea: si un suscriptor está
// lleno el evento se descarta para él y se cuenta.
type Bus struct {
	log *zap.Logger

	mu        sync.RWMutex
	subs      map[string]map[int]chan Envelope
	nextSubID int
	closed    bool

	dropMu     sync.Mutex
	dropCounts map[string]uint64
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		log:        log,
		subs:       make(map[string]map[int]chan Envelope),
		dropCounts: make(map[string]uint64),
	}
}

func (b *Bus) Publish(topic string, payload any) {
	if topic == "" {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	env := Envelope{Topic: topic, Payload: payload}
	for _, ch := range b.subs[topic] {
		select {
		case ch <- env:
		default:
			b.recordDrop(topic)
		}
	}
}

// Subscribe devuelve un único canal que recibe todos los tópicos pedidos.
// La función devuelta cancela la suscripción y cierra el canal.
func (b *Bus) Subscribe(topics ...string) (<-chan Envelope, func()) {
	ch := make(chan Envelope, defaultBufferSize)

	b.mu.Lock()
	id := b.nextSubID
	b.nextSubID++
	if b.closed || len(topics) == 0 {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	for _, topic := range topics {
		if b.subs[topic] == nil {
			b.subs[topic] = make(map[int]chan Envelope)
		}
		b.subs[topic][id] = ch
	}
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if !b.removeLocked(id, topics) {
				return
			}
			close(ch)
		})
	}

	return ch, unsubscribe
}

// Close cierra todos los canales de suscriptores; Publish posterior no hace nada.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true

	closedIDs := make(map[int]struct{})
	for topic, subs := range b.subs {
		for id, ch := range subs {
			if _, done := closedIDs[id]; !done {
				closedIDs[id] = struct{}{}
				close(ch)
			}
		}
		delete(b.subs, topic)
	}
}

// Drops devuelve cuántos eventos se descartaron para topic.
func (b *Bus) Drops(topic string) uint64 {
	b.dropMu.Lock()
	defer b.dropMu.Unlock()
	return b.dropCounts[topic]
}

// removeLocked devuelve false si la suscripción ya no existía (bus cerrado).
func (b *Bus) removeLocked(id int, topics []string) bool {
	found := false
	for _, topic := range topics {
		subs, ok := b.subs[topic]
		if !ok {
			continue
		}
		if _, ok := subs[id]; ok {
			found = true
			delete(subs, id)
		}
		if len(subs) == 0 {
			delete(b.subs, topic)
		}
	}
	return found
}

func (b *Bus) recordDrop(topic string) {
	b.dropMu.Lock()
	defer b.dropMu.Unlock()
	b.dropCounts[topic]++
	if b.dropCounts[topic]%100 == 1 {
		b.log.Warn("events: descartando eventos",
			zap.String("topic", topic),
			zap.Uint64("total", b.dropCounts[topic]),
		)
	}
}
