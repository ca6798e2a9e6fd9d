package output

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/keaz/kcli/pkg/filter"
)

var (
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8AB4F8"))
	stringStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#34A853"))
	numberStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBC04"))
	boolStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A142F4"))
	nullStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9AA0A6")).Italic(true)
)

// Meta renders the partition/offset prefix printed before each tailed
// message.
func Meta(partition int32, offset int64) string {
	return mutedStyle.Render(fmt.Sprintf("p%d@%d", partition, offset))
}

// Message renders one tailed payload as a single line. Well-formed JSON is
// compacted, its keys sorted and its tokens colorized. Anything else passes
// through verbatim.
func Message(value string) string {
	doc, err := filter.Decode([]byte(value))
	if err != nil {
		return value
	}
	var b strings.Builder
	writeValue(&b, doc)
	return b.String()
}

func writeValue(b *strings.Builder, v any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(keyStyle.Render(strconv.Quote(k)))
			b.WriteString(": ")
			writeValue(b, t[k])
		}
		b.WriteString("}")
	case []any:
		b.WriteString("[")
		for i, item := range t {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, item)
		}
		b.WriteString("]")
	case string:
		b.WriteString(stringStyle.Render(strconv.Quote(t)))
	case json.Number:
		b.WriteString(numberStyle.Render(t.String()))
	case bool:
		b.WriteString(boolStyle.Render(strconv.FormatBool(t)))
	case nil:
		b.WriteString(nullStyle.Render("null"))
	default:
		b.WriteString(fmt.Sprint(t))
	}
}
