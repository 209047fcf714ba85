package commands

import (
	"math"
	"strconv"
	"strings"

	"makeChannel/internal/domain"
)

// Command es el resultado de interpretar un mensaje. Vive solo durante un handler.
type Command struct {
	GuildID     string
	CategoryID  string
	ChannelID   string
	MessageID   string
	RequesterID string
	Payload     Payload
}

// Payload es un tipo suma cerrado: Create, Join, Leave o List.
type Payload interface {
	isPayload()
}

type Create struct {
	Name string
}

type Join struct {
	Selectors []Selector
}

type Leave struct {
	Selectors []Selector
}

type List struct{}

func (Create) isPayload() {}
func (Join) isPayload()   {}
func (Leave) isPayload()  {}
func (List) isPayload()   {}

// Selector es un tipo suma cerrado: Wildcard, Index o NameSubstring.
type Selector interface {
	Matches(position int, ch domain.Channel) bool
	String() string
	isSelector()
}

type Wildcard struct{}

// Index apunta a la posición en la lista ya filtrada de canales gestionados.
type Index int

type NameSubstring string

func (Wildcard) Matches(int, domain.Channel) bool { return true }
func (Wildcard) String() string                   { return "*" }

func (i Index) Matches(position int, _ domain.Channel) bool { return int(i) == position }
func (i Index) String() string                              { return strconv.Itoa(int(i)) }

func (s NameSubstring) Matches(_ int, ch domain.Channel) bool {
	return strings.Contains(ch.Name, string(s))
}
func (s NameSubstring) String() string { return string(s) }

func (Wildcard) isSelector()      {}
func (Index) isSelector()         {}
func (NameSubstring) isSelector() {}

// unreachableIndex no coincide con ninguna posición.
const unreachableIndex = Index(math.MaxInt)

// parseSelector: un token numérico siempre es Index, aunque exista un canal con ese nombre.
// Un número fuera de rango sigue siendo Index y no selecciona nada.
func parseSelector(token string) Selector {
	if token == "*" {
		return Wildcard{}
	}
	if !isDigits(token) {
		return NameSubstring(token)
	}
	n, err := strconv.ParseUint(token, 10, 31)
	if err != nil {
		return unreachableIndex
	}
	return Index(n)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
