package menu

import "fmt"

// ErrorKind tells why a document did not have the expected weekly-grid shape
type ErrorKind string

const (
	NoDateHeader        ErrorKind = "no date header"
	NoWeekdayHeader     ErrorKind = "no weekday header"
	InvalidCalendarDate ErrorKind = "invalid calendar date"
)

// ParseError is returned when the document cannot be turned into a schedule.
// No partial snapshot is ever returned alongside it.
type ParseError struct {
	Kind   ErrorKind
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return "parse menu: " + string(e.Kind)
	}
	return fmt.Sprintf("parse menu: %s: %s", e.Kind, e.Detail)
}

// Is matches any ParseError of the same kind, so the sentinels below work with errors.Is
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	return ok && t.Kind == e.Kind
}

var (
	ErrNoDateHeader        = &ParseError{Kind: NoDateHeader}
	ErrNoWeekdayHeader     = &ParseError{Kind: NoWeekdayHeader}
	ErrInvalidCalendarDate = &ParseError{Kind: InvalidCalendarDate}
)
