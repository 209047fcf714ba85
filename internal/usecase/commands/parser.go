package commands

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"makeChannel/internal/domain"
)

const DefaultPrefix = "mc"

// Parser convierte texto libre en Command. Nunca responde ni registra rechazos.
type Parser struct {
	Prefix string
	// MaxNameLength > 0 limita el largo (en runas) del nombre al crear.
	MaxNameLength int
}

func NewParser(prefix string, maxNameLength int) *Parser {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Parser{Prefix: prefix, MaxNameLength: maxNameLength}
}

// Parse devuelve false cuando el mensaje no es un comando válido.
func (p *Parser) Parse(msg domain.Message, origin domain.Channel) (Command, bool) {
	if !origin.IsCommandChannel || origin.ParentID == "" || msg.AuthorIsBot {
		return Command{}, false
	}

	tokens := tokenize(msg.Content)
	if len(tokens) < 2 || tokens[0] != p.Prefix {
		return Command{}, false
	}

	payload, ok := p.parsePayload(tokens[1:])
	if !ok {
		return Command{}, false
	}

	guildID := msg.GuildID
	if guildID == "" {
		guildID = origin.GuildID
	}

	return Command{
		GuildID:     guildID,
		CategoryID:  origin.ParentID,
		ChannelID:   msg.ChannelID,
		MessageID:   msg.ID,
		RequesterID: msg.AuthorID,
		Payload:     payload,
	}, true
}

func (p *Parser) parsePayload(cmds []string) (Payload, bool) {
	switch {
	case cmds[0] == "join" || cmds[0] == "leave":
		// "join" o "leave" sin objetivos no es un nombre de canal a crear.
		if len(cmds) < 2 {
			return nil, false
		}
		selectors := make([]Selector, 0, len(cmds)-1)
		for _, token := range cmds[1:] {
			selectors = append(selectors, parseSelector(token))
		}
		if cmds[0] == "join" {
			return Join{Selectors: selectors}, true
		}
		return Leave{Selectors: selectors}, true

	case cmds[0] == "list":
		return List{}, true

	case len(cmds) == 1:
		name := strings.ToLower(cmds[0])
		if p.MaxNameLength > 0 && utf8.RuneCountInString(name) > p.MaxNameLength {
			return nil, false
		}
		return Create{Name: name}, true
	}

	return nil, false
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == '　' || r == ','
	})
}
