package commands

import (
	"fmt"
	"strings"

	"makeChannel/internal/domain"
)

// FilterManaged se queda con los canales de texto que no reciben comandos.
func FilterManaged(children []domain.Channel) []domain.Channel {
	out := make([]domain.Channel, 0, len(children))
	for _, ch := range children {
		if ch.Kind != domain.ChannelKindText || ch.IsCommandChannel {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// Select incluye el canal en la posición i si cualquier selector lo acepta.
// Cada canal aparece una sola vez y en el orden de managed.
func Select(managed []domain.Channel, selectors []Selector) []domain.Channel {
	seen := make(map[string]struct{}, len(managed))
	out := make([]domain.Channel, 0, len(managed))
	for i, ch := range managed {
		if _, dup := seen[ch.ID]; dup {
			continue
		}
		for _, sel := range selectors {
			if sel.Matches(i, ch) {
				seen[ch.ID] = struct{}{}
				out = append(out, ch)
				break
			}
		}
	}
	return out
}

// FormatList arma la respuesta de "list": una línea "i: nombre" por canal.
func FormatList(managed []domain.Channel) string {
	var b strings.Builder
	for i, ch := range managed {
		fmt.Fprintf(&b, "\n%d: %s", i, ch.Name)
	}
	if b.Len() == 0 {
		return "\n"
	}
	return b.String()
}
