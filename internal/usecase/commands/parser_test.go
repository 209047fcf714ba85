package commands

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"makeChannel/internal/domain"
)

var commandChannel = domain.Channel{
	ID:               "cmd",
	GuildID:          "g",
	ParentID:         "cat",
	Name:             "make-channel",
	Kind:             domain.ChannelKindText,
	IsCommandChannel: true,
}

func message(content string) domain.Message {
	return domain.Message{
		ID:        "m1",
		ChannelID: "cmd",
		GuildID:   "g",
		AuthorID:  "alice",
		Content:   content,
	}
}

func TestParseAccepted(t *testing.T) {
	p := NewParser("", 0)

	tests := []struct {
		name    string
		content string
		want    Payload
	}{
		{
			name:    "join mixes selectors",
			content: "mc join 0 foo *",
			want:    Join{Selectors: []Selector{Index(0), NameSubstring("foo"), Wildcard{}}},
		},
		{
			name:    "leave wildcard",
			content: "mc leave *",
			want:    Leave{Selectors: []Selector{Wildcard{}}},
		},
		{
			name:    "create lower-cases",
			content: "mc General",
			want:    Create{Name: "general"},
		},
		{
			name:    "list",
			content: "mc list",
			want:    List{},
		},
		{
			name:    "list ignores extra tokens",
			content: "mc list please",
			want:    List{},
		},
		{
			name:    "commas and full-width spaces split tokens",
			content: "  mc　join,1,,bar  ",
			want:    Join{Selectors: []Selector{Index(1), NameSubstring("bar")}},
		},
		{
			name:    "negative and signed numbers are names",
			content: "mc join -1 +2 3x",
			want:    Join{Selectors: []Selector{NameSubstring("-1"), NameSubstring("+2"), NameSubstring("3x")}},
		},
		{
			name:    "numeric token is always an index",
			content: "mc join 2024",
			want:    Join{Selectors: []Selector{Index(2024)}},
		},
		{
			name:    "out of range number is still an index",
			content: "mc join 2147483648 99999999999999999999999",
			want:    Join{Selectors: []Selector{unreachableIndex, unreachableIndex}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Parse(message(tt.content), commandChannel)
			if !ok {
				t.Fatalf("Parse(%q) rejected", tt.content)
			}
			want := Command{
				GuildID:     "g",
				CategoryID:  "cat",
				ChannelID:   "cmd",
				MessageID:   "m1",
				RequesterID: "alice",
				Payload:     tt.want,
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.content, diff)
			}
		})
	}
}

func TestParseRejectsEachPrecondition(t *testing.T) {
	p := NewParser("mc", 0)

	notCommand := commandChannel
	notCommand.IsCommandChannel = false

	noParent := commandChannel
	noParent.ParentID = ""

	botMsg := message("mc join 0")
	botMsg.AuthorIsBot = true

	tests := []struct {
		name   string
		msg    domain.Message
		origin domain.Channel
	}{
		{"channel without marker", message("mc join 0"), notCommand},
		{"channel without category", message("mc join 0"), noParent},
		{"bot author", botMsg, commandChannel},
		{"single token", message("mc"), commandChannel},
		{"empty", message(" , 　"), commandChannel},
		{"wrong prefix", message("mk join 0"), commandChannel},
		{"prefix must be a whole token", message("mcjoin 0"), commandChannel},
		{"join without targets", message("mc join"), commandChannel},
		{"leave without targets", message("mc leave"), commandChannel},
		{"unknown verb with extra tokens", message("mc make foo"), commandChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := p.Parse(tt.msg, tt.origin); ok {
				t.Fatalf("Parse accepted %+v", got)
			}
		})
	}
}

func TestParseMaxNameLength(t *testing.T) {
	p := NewParser("mc", 5)

	if _, ok := p.Parse(message("mc abcde"), commandChannel); !ok {
		t.Fatal("name at the limit rejected")
	}
	if _, ok := p.Parse(message("mc ñandú"), commandChannel); !ok {
		t.Fatal("limit must count runes, not bytes")
	}
	if _, ok := p.Parse(message("mc abcdef"), commandChannel); ok {
		t.Fatal("name over the limit accepted")
	}
	if _, ok := p.Parse(message("mc join abcdefgh"), commandChannel); !ok {
		t.Fatal("limit must not apply to selectors")
	}
}

func TestParseCustomPrefix(t *testing.T) {
	p := NewParser("<@123>", 0)

	got, ok := p.Parse(message("<@123> list"), commandChannel)
	if !ok {
		t.Fatal("mention prefix rejected")
	}
	if _, isList := got.Payload.(List); !isList {
		t.Fatalf("payload = %T, want List", got.Payload)
	}
	if _, ok := p.Parse(message("mc list"), commandChannel); ok {
		t.Fatal("default prefix accepted with a custom one configured")
	}
}

func TestParseFallsBackToChannelGuild(t *testing.T) {
	msg := message("mc list")
	msg.GuildID = ""

	got, ok := NewParser("", 0).Parse(msg, commandChannel)
	if !ok {
		t.Fatal("rejected")
	}
	if got.GuildID != "g" {
		t.Fatalf("GuildID = %q, want g", got.GuildID)
	}
}
