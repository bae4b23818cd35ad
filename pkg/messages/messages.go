package messages

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/korjavin/mealwatch/pkg/models"
)

// MaxMessageLength is the Telegram limit on message text, in UTF-16 units
const MaxMessageLength = 4096

// FormatWeek renders a snapshot as a readable weekly menu
func FormatWeek(snap models.Snapshot) string {
	days := snap.Days()
	if len(days) == 0 {
		return "🍽️ The weekly menu is empty."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🍽️ New weekly menu from %s\n", days[0].Key())

	for _, day := range days {
		sb.WriteString("\n")
		if day.Weekday != "" {
			fmt.Fprintf(&sb, "📅 %s (%s)\n", day.Date.Format("01/02"), day.Weekday)
		} else {
			fmt.Fprintf(&sb, "📅 %s\n", day.Date.Format("01/02"))
		}
		fmt.Fprintf(&sb, "중식: %s\n", formatItems(day.Lunch))
		fmt.Fprintf(&sb, "석식: %s\n", formatItems(day.Dinner))
	}

	if snap.Main != "" {
		sb.WriteString("\n")
		sb.WriteString(snap.Main)
		sb.WriteString("\n")
	}
	if snap.Notice != "" {
		sb.WriteString(snap.Notice)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatItems joins menu items, or marks the meal as not served
func formatItems(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// Split breaks text into chunks of at most limit UTF-16 units, cutting at
// line breaks where possible
func Split(text string, limit int) []string {
	if limit <= 0 || textLen(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		n := textLen(line)
		if curLen > 0 && curLen+1+n > limit {
			flush()
		}
		for n > limit {
			head, tail := cutAt(line, limit)
			flush()
			chunks = append(chunks, head)
			line, n = tail, textLen(tail)
		}
		if curLen > 0 {
			cur.WriteByte('\n')
			curLen++
		}
		cur.WriteString(line)
		curLen += n
	}
	flush()
	return chunks
}

func textLen(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// cutAt splits s after the last rune that fits in limit UTF-16 units
func cutAt(s string, limit int) (string, string) {
	n := 0
	for i, r := range s {
		w := len(utf16.Encode([]rune{r}))
		if w < 0 {
			w = 1
		}
		if n+w > limit {
			return s[:i], s[i:]
		}
		n += w
	}
	return s, ""
}
