package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"makeChannel/internal/domain"
)

func text(id, name string) domain.Channel {
	return domain.Channel{ID: id, GuildID: "g", ParentID: "cat", Name: name, Kind: domain.ChannelKindText}
}

func names(channels []domain.Channel) []string {
	out := make([]string, 0, len(channels))
	for _, ch := range channels {
		out = append(out, ch.Name)
	}
	return out
}

func TestFilterManaged(t *testing.T) {
	cmd := text("0", "bot")
	cmd.IsCommandChannel = true
	voice := domain.Channel{ID: "v", Name: "voz", Kind: domain.ChannelKindOther}

	got := FilterManaged([]domain.Channel{text("1", "a"), cmd, voice, text("2", "b")})

	assert.Equal(t, []string{"a", "b"}, names(got))
}

func TestSelectByIndex(t *testing.T) {
	managed := []domain.Channel{text("1", "A"), text("2", "B"), text("3", "C")}

	assert.Equal(t, []string{"B"}, names(Select(managed, []Selector{Index(1)})))
	assert.Empty(t, Select(managed, []Selector{Index(3)}))
}

func TestSelectIndexUsesFilteredPositions(t *testing.T) {
	cmd := text("0", "bot")
	cmd.IsCommandChannel = true

	managed := FilterManaged([]domain.Channel{cmd, text("1", "A"), text("2", "B")})

	assert.Equal(t, []string{"A"}, names(Select(managed, []Selector{Index(0)})))
}

func TestSelectBySubstring(t *testing.T) {
	managed := []domain.Channel{text("1", "alpha"), text("2", "beta"), text("3", "gamma")}

	got := Select(managed, []Selector{NameSubstring("a")})
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, names(got))

	got = Select(managed, []Selector{NameSubstring("mm")})
	assert.Equal(t, []string{"gamma"}, names(got))

	got = Select(managed, []Selector{NameSubstring("ph")})
	assert.Equal(t, []string{"alpha"}, names(got))
}

func TestSelectOutOfRangeNumberMatchesNothing(t *testing.T) {
	managed := []domain.Channel{text("1", "log-2147483648"), text("2", "beta")}

	sel := parseSelector("2147483648")

	assert.Equal(t, unreachableIndex, sel)
	assert.Empty(t, Select(managed, []Selector{sel}))
}

func TestSelectWildcardIsUnion(t *testing.T) {
	managed := []domain.Channel{text("1", "alpha"), text("2", "beta"), text("3", "gamma")}

	got := Select(managed, []Selector{NameSubstring("zzz"), Wildcard{}, Index(7)})

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, names(got))
}

func TestSelectDeduplicates(t *testing.T) {
	managed := []domain.Channel{text("1", "alpha"), text("2", "beta")}

	got := Select(managed, []Selector{Index(0), NameSubstring("alp"), Wildcard{}, Index(0)})

	assert.Equal(t, []string{"alpha", "beta"}, names(got))
}

func TestFormatList(t *testing.T) {
	managed := []domain.Channel{text("1", "alpha"), text("2", "beta")}

	assert.Equal(t, "\n0: alpha\n1: beta", FormatList(managed))
	assert.Equal(t, "\n", FormatList(nil))
}
