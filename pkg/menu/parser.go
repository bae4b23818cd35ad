// Package menu turns the flattened text of a weekly cafeteria menu into a
// dated schedule and decides whether two schedules differ.
package menu

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/korjavin/mealwatch/pkg/models"
)

// Layout describes how the table rows are shared between the two meals
type Layout struct {
	// LunchRows returns how many of the total menu rows belong to lunch;
	// the rest belong to dinner
	LunchRows func(total int) int
}

// HalfSplit gives lunch the first half of the rows and the extra row of an
// odd count
func HalfSplit(total int) int {
	return (total + 1) / 2
}

// DefaultLayout is the fixed two-block weekly table
func DefaultLayout() Layout {
	return Layout{LunchRows: HalfSplit}
}

// Parser builds snapshots from extracted document lines
type Parser struct {
	rules  Rules
	layout Layout
	now    func() time.Time
}

// Option configures a Parser
type Option func(*Parser)

// WithRules overrides the classification heuristics
func WithRules(r Rules) Option {
	return func(p *Parser) { p.rules = r }
}

// WithLayout overrides the lunch/dinner row split
func WithLayout(l Layout) Option {
	return func(p *Parser) { p.layout = l }
}

// WithClock sets the clock the year is taken from
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// NewParser creates a parser with the dormitory defaults
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		rules:  DefaultRules(),
		layout: DefaultLayout(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse builds one snapshot from the document lines. It fails with a
// *ParseError when the document does not have the weekly-grid shape.
func (p *Parser) Parse(lines []string) (models.Snapshot, error) {
	c, err := p.rules.Classify(lines)
	if err != nil {
		return models.Snapshot{}, err
	}

	dates, err := parseDateAxis(c.DateHeader, p.now().Year())
	if err != nil {
		return models.Snapshot{}, err
	}
	weekdays := parseWeekdays(c.WeekdayHeader)

	rows := c.Lines(KindMenuRow)
	split := p.layout.LunchRows(len(rows))
	if split < 0 {
		split = 0
	}
	if split > len(rows) {
		split = len(rows)
	}
	lunch := columns(rows[:split], len(dates))
	dinner := columns(rows[split:], len(dates))

	snap := models.Snapshot{
		OriginBlock: p.rules.splitOrigin(c.Lines(KindOrigin)),
		Menus:       make(map[string]models.MenuEntry, len(dates)),
	}
	for i, date := range dates {
		entry := models.MenuEntry{
			Lunch:  lunch[i],
			Dinner: dinner[i],
		}
		if i < len(weekdays) {
			entry.Weekday = weekdays[i]
		}
		snap.Menus[date.Format(models.DateLayout)] = entry
	}
	return snap, nil
}

// parseDateAxis reads every (month, day) pair of the header, left to right
func parseDateAxis(header string, year int) ([]time.Time, error) {
	var dates []time.Time
	for _, m := range datePattern.FindAllStringSubmatch(header, -1) {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])

		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if month < 1 || month > 12 || date.Month() != time.Month(month) || date.Day() != day {
			return nil, &ParseError{
				Kind:   InvalidCalendarDate,
				Detail: fmt.Sprintf("%d-%02d-%02d from %q", year, month, day, strings.TrimSpace(m[0])),
			}
		}
		dates = append(dates, date)
	}
	return dates, nil
}

// parseWeekdays splits the weekday header into labels, dropping the
// parentheses some documents wrap them in
func parseWeekdays(header string) []string {
	var labels []string
	for _, tok := range strings.Fields(header) {
		tok = strings.Trim(tok, "()（）")
		if tok != "" {
			labels = append(labels, tok)
		}
	}
	return labels
}

// columns distributes the whitespace-separated cells of each row to the
// day at the same position. Cells past the day axis are dropped.
func columns(rows []string, days int) [][]string {
	items := make([][]string, days)
	for i := range items {
		items[i] = []string{}
	}
	for _, row := range rows {
		cells := strings.Fields(row)
		for i := 0; i < days && i < len(cells); i++ {
			if cell := NormalizeCell(cells[i]); cell != "" {
				items[i] = append(items[i], cell)
			}
		}
	}
	return items
}

// splitOrigin separates footnote lines from the declarative origin text
func (r Rules) splitOrigin(lines []string) models.OriginBlock {
	var main, notice []string
	for _, line := range strings.Split(strings.Join(lines, "\n"), "\n") {
		if r.isNotice(line) {
			notice = append(notice, line)
		} else {
			main = append(main, line)
		}
	}
	return models.OriginBlock{
		Main:   strings.TrimSpace(strings.Join(main, "\n")),
		Notice: strings.TrimSpace(strings.Join(notice, "\n")),
	}
}

func (r Rules) isNotice(line string) bool {
	line = strings.TrimSpace(line)
	for _, prefix := range r.NoticePrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
