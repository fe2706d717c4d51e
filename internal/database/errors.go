package database

import (
	"errors"
	"html"
	"strings"
)

// Kind classifies a client failure.
type Kind int

const (
	// KindConnection covers connect and database-select failures.
	KindConnection Kind = iota + 1
	// KindQuery covers failed statements and fetches against an invalid result.
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// ErrorMode selects what the client does with a failure.
type ErrorMode int

const (
	// ErrorModeHalt writes an HTML diagnostic and exits the process.
	ErrorModeHalt ErrorMode = iota
	// ErrorModeSilent swallows the failure; callers get zero values and a nil error.
	ErrorModeSilent
	// ErrorModeReturn returns a *Error to the caller.
	ErrorModeReturn
)

// ParseErrorMode maps "halt", "silent" and "return" to an ErrorMode.
func ParseErrorMode(s string) (ErrorMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "halt", "":
		return ErrorModeHalt, true
	case "silent":
		return ErrorModeSilent, true
	case "return":
		return ErrorModeReturn, true
	default:
		return ErrorModeHalt, false
	}
}

var (
	// ErrNoResultSet is returned when a fetch runs against a statement that produced no rows handle.
	ErrNoResultSet = errors.New("last statement did not produce a result set")
	// ErrClosed is returned by operations on a closed client.
	ErrClosed = errors.New("client is closed")
)

// Error is the typed failure surfaced in ErrorModeReturn and rendered in ErrorModeHalt.
type Error struct {
	Kind    Kind
	Message string
	SQL     string
	Err     error

	label string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.SQL != "" {
		b.WriteString(" [sql: ")
		b.WriteString(e.SQL)
		b.WriteString("]")
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTML renders the diagnostic block written before halting. The caller's
// message is written as given; driver text and SQL are escaped.
func (e *Error) HTML() string {
	label := e.label
	if label == "" {
		label = "Database Error"
	}

	var b strings.Builder
	b.WriteString("<h1>Error!</h1>")
	if e.Message != "" {
		b.WriteString(e.Message)
		b.WriteString("<br />")
	}
	if e.Err != nil {
		b.WriteString("<b>")
		b.WriteString(label)
		b.WriteString(":</b> ")
		b.WriteString(html.EscapeString(e.Err.Error()))
		b.WriteString("<br />")
	}
	if e.SQL != "" {
		b.WriteString("<b>SQL Statement:</b> ")
		b.WriteString(html.EscapeString(e.SQL))
	}
	return b.String()
}

// KindOf reports the Kind of err if it wraps a *Error.
func KindOf(err error) (Kind, bool) {
	var dbErr *Error
	if errors.As(err, &dbErr) {
		return dbErr.Kind, true
	}
	return 0, false
}

// IsConnectionError reports whether err is a connection failure.
func IsConnectionError(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindConnection
}

// IsQueryError reports whether err is a statement or fetch failure.
func IsQueryError(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindQuery
}
