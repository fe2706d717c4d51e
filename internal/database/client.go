package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/dhima/dbhelper/internal/logging"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ErrNotConnected is routed when a statement runs without a session.
var ErrNotConnected = errors.New("no open database session")

// Stats counts statements run and failures routed through the error path.
type Stats struct {
	Statements int64 `json:"statements"`
	Failures   int64 `json:"failures"`
}

// Client owns a single database session and the state of its last statement.
// It is not safe for concurrent use: the generated id returned by Insert is
// only meaningful while one caller drives the session.
type Client struct {
	creds   Credentials
	dialect Dialect
	builder Builder
	mode    ErrorMode
	logger  logging.Logger
	out     io.Writer
	exit    func(int)

	db   *sqlx.DB
	conn *sqlx.Conn

	lastSQL    string
	lastResult *Result
	lastErr    error
	closed     bool
	stats      Stats
}

// Option configures a Client.
type Option func(*Client)

// WithDialect selects the driver rules. Defaults to MySQL.
func WithDialect(d Dialect) Option {
	return func(c *Client) { c.dialect = d }
}

// WithErrorMode selects halt (default), silent or return behaviour.
func WithErrorMode(m ErrorMode) Option {
	return func(c *Client) { c.mode = m }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithOutput sets where halt mode writes its diagnostic. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Client) { c.out = w }
}

// WithExit replaces os.Exit in halt mode.
func WithExit(exit func(int)) Option {
	return func(c *Client) { c.exit = exit }
}

// New opens a session and selects the named database.
//
// In ErrorModeSilent a failed connect still returns a usable client; the next
// Query retries with the same credentials.
func New(ctx context.Context, host, user, password, name string, opts ...Option) (*Client, error) {
	c := &Client{
		creds:   Credentials{Host: host, User: user, Password: password, Name: name},
		dialect: MySQL,
		mode:    ErrorModeHalt,
		logger:  logging.NewNoOpLogger(),
		out:     os.Stdout,
		exit:    os.Exit,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.builder = Builder{Dialect: c.dialect}
	c.logger = c.logger.With(zap.String("component", "database"), zap.String("dialect", c.dialect.Name()))

	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect(ctx context.Context) error {
	connectMsg := "Could not connect to database. Make sure settings are correct."
	missingMsg := fmt.Sprintf("Database '%s' could not be found.", c.creds.Name)

	dsn, err := c.dialect.DSN(c.creds)
	if err != nil {
		if c.dialect.IsUnknownDatabase(err) {
			return c.fail(KindConnection, missingMsg, err)
		}
		return c.fail(KindConnection, connectMsg, err)
	}

	db, err := sqlx.Open(c.dialect.DriverName(), dsn)
	if err != nil {
		return c.fail(KindConnection, connectMsg, fmt.Errorf("open database: %w", err))
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Connx(ctx)
	if err == nil {
		err = conn.PingContext(ctx)
		if err != nil {
			_ = conn.Close()
		}
	}
	if err != nil {
		_ = db.Close()
		if c.dialect.IsUnknownDatabase(err) {
			return c.fail(KindConnection, missingMsg, err)
		}
		return c.fail(KindConnection, connectMsg, err)
	}

	if err := c.dialect.SelectDatabase(ctx, conn, c.creds.Name); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return c.fail(KindConnection, missingMsg, err)
	}

	c.db = db
	c.conn = conn
	c.logger.Info("database session opened",
		zap.String("host", c.creds.Host),
		zap.String("database", c.creds.Name),
	)
	return nil
}

// Query runs sqlText on the session and records it as the last statement.
// Statements that produce rows (SELECT-family, or anything with RETURNING)
// yield a row set; everything else an exec result.
func (c *Client) Query(ctx context.Context, sqlText string) (*Result, error) {
	if c.closed {
		return nil, c.fail(KindQuery, "", ErrClosed)
	}

	c.closeLast()
	c.lastResult = nil

	if c.conn == nil {
		err := c.connect(ctx)
		if err != nil || c.conn == nil {
			// silent mode: the connect failure was already routed once
			c.lastSQL = sqlText
			return nil, err
		}
	}

	c.lastSQL = sqlText
	c.stats.Statements++

	c.logger.Debug("executing statement", zap.String("sql", sqlText))

	if returnsRows(sqlText) {
		rows, err := c.conn.QueryxContext(ctx, sqlText)
		if err != nil {
			return nil, c.fail(KindQuery, "", err)
		}
		cols, err := rows.Columns()
		if err != nil {
			_ = rows.Close()
			return nil, c.fail(KindQuery, "", err)
		}
		c.lastErr = nil
		if len(cols) == 0 {
			_ = rows.Close()
			c.lastResult = &Result{sql: sqlText}
			return c.lastResult, nil
		}
		c.lastResult = &Result{sql: sqlText, rows: rows, columns: cols}
		return c.lastResult, nil
	}

	res, err := c.conn.ExecContext(ctx, sqlText)
	if err != nil {
		return nil, c.fail(KindQuery, "", err)
	}
	c.lastErr = nil
	c.lastResult = &Result{sql: sqlText, exec: res}
	return c.lastResult, nil
}

// Fail routes a caller-supplied message through the error path together with
// the last driver error and the last statement.
func (c *Client) Fail(message string) error {
	return c.fail(KindQuery, message, c.lastErr)
}

func (c *Client) fail(kind Kind, message string, err error) error {
	if err != nil {
		c.lastErr = err
	}
	c.stats.Failures++

	dbErr := &Error{
		Kind:    kind,
		Message: message,
		SQL:     c.lastSQL,
		Err:     err,
		label:   c.dialect.ErrorLabel(),
	}

	c.logger.Error("database failure",
		zap.String("kind", kind.String()),
		zap.String("message", message),
		zap.String("sql", c.lastSQL),
		zap.Error(err),
	)

	switch c.mode {
	case ErrorModeHalt:
		_, _ = io.WriteString(c.out, dbErr.HTML())
		c.exit(1)
		return dbErr
	case ErrorModeSilent:
		return nil
	default:
		return dbErr
	}
}

// Ping checks the session without touching the last-statement state.
// Failures are returned directly and never halt.
func (c *Client) Ping(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.PingContext(ctx)
}

// Close releases the last result, the session and the underlying handle.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.closeLast()

	var errs []error
	if c.conn != nil {
		errs = append(errs, c.conn.Close())
	}
	if c.db != nil {
		errs = append(errs, c.db.Close())
	}
	c.conn, c.db = nil, nil

	c.logger.Info("database session closed")
	return errors.Join(errs...)
}

func (c *Client) closeLast() {
	if c.lastResult != nil {
		_ = c.lastResult.Close()
	}
}

// LastSQL returns the most recently executed statement.
func (c *Client) LastSQL() string { return c.lastSQL }

// LastResult returns the handle of the most recent statement, nil if it failed.
func (c *Client) LastResult() *Result { return c.lastResult }

// Stats returns statement and failure counters.
func (c *Client) Stats() Stats { return c.stats }

// Dialect returns the driver rules in use.
func (c *Client) Dialect() Dialect { return c.dialect }

// Escape renders v as an SQL literal for this client's dialect.
func (c *Client) Escape(v any) string { return c.builder.Escape(v) }

var rowKeywords = map[string]bool{
	"SELECT":   true,
	"SHOW":     true,
	"DESCRIBE": true,
	"DESC":     true,
	"EXPLAIN":  true,
	"WITH":     true,
	"PRAGMA":   true,
	"VALUES":   true,
}

var (
	quotedLiteral    = regexp.MustCompile(`'(?:[^'\\]|\\.|'')*'`)
	returningKeyword = regexp.MustCompile(`(?i)\bRETURNING\b`)
)

// returnsRows classifies sqlText by its first keyword after leading comments,
// or by a RETURNING clause outside string literals.
func returnsRows(sqlText string) bool {
	s := skipLeadingComments(sqlText)
	if returningKeyword.MatchString(quotedLiteral.ReplaceAllString(s, "''")) {
		return true
	}

	s = strings.TrimLeft(s, "(")
	end := strings.IndexFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\r' || r == '\n' || r == '('
	})
	if end >= 0 {
		s = s[:end]
	}
	return rowKeywords[strings.ToUpper(s)]
}

// skipLeadingComments drops whitespace and "--", "#" and "/* */" comments
// preceding the statement.
func skipLeadingComments(s string) string {
	for {
		s = strings.TrimLeft(s, " \t\r\n")
		switch {
		case strings.HasPrefix(s, "--"), strings.HasPrefix(s, "#"):
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				return ""
			}
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s[2:], "*/")
			if i < 0 {
				return ""
			}
			s = s[i+4:]
		default:
			return s
		}
	}
}
