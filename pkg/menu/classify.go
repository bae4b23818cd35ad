package menu

import (
	"regexp"
	"strings"
	"unicode"
)

// LineKind labels a body line of the extracted text
type LineKind int

const (
	KindMenuRow LineKind = iota
	KindOrigin
	KindBoilerplate
)

func (k LineKind) String() string {
	switch k {
	case KindMenuRow:
		return "menu-row"
	case KindOrigin:
		return "origin"
	case KindBoilerplate:
		return "ignored-boilerplate"
	default:
		return "unknown"
	}
}

// datePattern matches a "11월 17일" pair
var datePattern = regexp.MustCompile(`(\d{1,2})\s*월\s*(\d{1,2})\s*일`)

// Rules holds the layout heuristics for one document family
type Rules struct {
	// WeekdayRunes are the characters a weekday header may consist of
	WeekdayRunes string
	// WeekdayLookahead bounds the search after the date header
	WeekdayLookahead int
	// OriginMarker starts the sticky origin section. It must open the line
	// so a cell like 돈까스(원산지:국내산) stays a menu row.
	OriginMarker *regexp.Regexp
	// Boilerplate lines are dropped by exact value. This includes the floating
	// origin header that shows up inside the table.
	Boilerplate map[string]bool
	// NoticePrefixes route origin lines to the notice text
	NoticePrefixes []string
}

// DefaultRules returns the heuristics for the dormitory weekly menu
func DefaultRules() Rules {
	return Rules{
		WeekdayRunes:     "월화수목금토일",
		WeekdayLookahead: 4,
		OriginMarker:     regexp.MustCompile(`^\s*[\[<【〔]\s*원\s*산\s*지[^\]>】〕]*[\]>】〕]`),
		Boilerplate: setOf(
			"식단표", "주간식단표", "주간 식단표", "기숙사 식단표",
			"구분", "메뉴", "조식", "중식", "석식", "중 식", "석 식",
			"Lunch", "Dinner", "LUNCH", "DINNER",
			"원산지", "원 산 지", "원산지표시", "원산지 표시",
		),
		NoticePrefixes: []string{"*", "※"},
	}
}

// ClassifiedLine is a body line with its label
type ClassifiedLine struct {
	Text string
	Kind LineKind
}

// Classification is the result of a single forward pass over the document
type Classification struct {
	DateHeader    string
	WeekdayHeader string
	Body          []ClassifiedLine
}

// Lines returns the body lines of the given kind in document order
func (c Classification) Lines(kind LineKind) []string {
	var out []string
	for _, l := range c.Body {
		if l.Kind == kind {
			out = append(out, l.Text)
		}
	}
	return out
}

// cleanLines trims every line and drops the blank ones
func cleanLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Classify finds the date and weekday headers and labels every line after the
// weekday header
func (r Rules) Classify(lines []string) (Classification, error) {
	lines = cleanLines(lines)

	dateIdx := -1
	for i, line := range lines {
		if datePattern.MatchString(line) {
			dateIdx = i
			break
		}
	}
	if dateIdx < 0 {
		return Classification{}, &ParseError{Kind: NoDateHeader}
	}

	weekdayIdx := -1
	for i := dateIdx + 1; i < len(lines) && i <= dateIdx+r.WeekdayLookahead; i++ {
		if r.isWeekdayHeader(lines[i]) {
			weekdayIdx = i
			break
		}
	}
	if weekdayIdx < 0 {
		return Classification{}, &ParseError{
			Kind:   NoWeekdayHeader,
			Detail: "after date header " + quote(lines[dateIdx]),
		}
	}

	c := Classification{
		DateHeader:    lines[dateIdx],
		WeekdayHeader: lines[weekdayIdx],
	}

	inOrigin := false
	for _, line := range lines[weekdayIdx+1:] {
		kind := KindMenuRow
		switch {
		case inOrigin:
			kind = KindOrigin
		case r.Boilerplate[line]:
			kind = KindBoilerplate
		case r.OriginMarker != nil && r.OriginMarker.MatchString(line):
			inOrigin = true
			kind = KindOrigin
		}
		c.Body = append(c.Body, ClassifiedLine{Text: line, Kind: kind})
	}
	return c, nil
}

// isWeekdayHeader reports whether the line is only weekday labels, whitespace
// and parentheses
func (r Rules) isWeekdayHeader(line string) bool {
	seen := false
	for _, ch := range line {
		switch {
		case strings.ContainsRune(r.WeekdayRunes, ch):
			seen = true
		case unicode.IsSpace(ch), strings.ContainsRune("()（）", ch):
		default:
			return false
		}
	}
	return seen
}

func setOf(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func quote(s string) string {
	return `"` + s + `"`
}
