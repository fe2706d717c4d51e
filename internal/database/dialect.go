package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers "sqlite"
)

// Credentials are the plain constructor parameters.
type Credentials struct {
	Host     string
	User     string
	Password string
	Name     string
}

// Dialect holds the per-driver rules the client needs: how to open a session,
// how to select the database, how to quote string literals and how to read
// the session's last generated id.
type Dialect interface {
	Name() string
	DriverName() string
	DSN(c Credentials) (string, error)
	SelectDatabase(ctx context.Context, conn *sqlx.Conn, name string) error
	EscapeString(s string) string
	LastInsertID(ctx context.Context, conn *sqlx.Conn, res sql.Result) (int64, error)
	IsUnknownDatabase(err error) bool
	ErrorLabel() string
}

// DialectFor resolves a driver name from configuration.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", name)
	}
}

var (
	// MySQL is the reference dialect.
	MySQL Dialect = mysqlDialect{}
	// Postgres speaks to PostgreSQL through pgx.
	Postgres Dialect = postgresDialect{}
	// SQLite opens a local database file, or ":memory:".
	SQLite Dialect = sqliteDialect{}
)

// mysql_real_escape_string rules.
var mysqlEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"\x00", "\\0",
	"\n", "\\n",
	"\r", "\\r",
	"'", "\\'",
	"\"", "\\\"",
	"\x1a", "\\Z",
)

type mysqlDialect struct{}

func (mysqlDialect) Name() string       { return "mysql" }
func (mysqlDialect) DriverName() string { return "mysql" }
func (mysqlDialect) ErrorLabel() string { return "MySQL Error" }

func (mysqlDialect) DSN(c Credentials) (string, error) {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = c.Host
	if strings.HasPrefix(c.Host, "/") {
		cfg.Net = "unix"
	}
	return cfg.FormatDSN(), nil
}

func (mysqlDialect) SelectDatabase(ctx context.Context, conn *sqlx.Conn, name string) error {
	_, err := conn.ExecContext(ctx, "USE `"+strings.ReplaceAll(name, "`", "``")+"`")
	return err
}

func (mysqlDialect) EscapeString(s string) string {
	return mysqlEscaper.Replace(s)
}

func (mysqlDialect) LastInsertID(_ context.Context, _ *sqlx.Conn, res sql.Result) (int64, error) {
	return res.LastInsertId()
}

func (mysqlDialect) IsUnknownDatabase(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1049
}

type postgresDialect struct{}

func (postgresDialect) Name() string       { return "postgres" }
func (postgresDialect) DriverName() string { return "pgx" }
func (postgresDialect) ErrorLabel() string { return "PostgreSQL Error" }

func (postgresDialect) DSN(c Credentials) (string, error) {
	u := url.URL{
		Scheme: "postgres",
		Host:   c.Host,
		Path:   "/" + c.Name,
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	return u.String(), nil
}

// SelectDatabase is a no-op: the database is part of the DSN.
func (postgresDialect) SelectDatabase(context.Context, *sqlx.Conn, string) error {
	return nil
}

func (postgresDialect) EscapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// LastInsertID reads lastval() on the same session; 0 when no sequence was used yet.
func (postgresDialect) LastInsertID(ctx context.Context, conn *sqlx.Conn, _ sql.Result) (int64, error) {
	var id int64
	if err := conn.QueryRowxContext(ctx, "SELECT lastval()").Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "55000" {
			return 0, nil
		}
		return 0, fmt.Errorf("read lastval: %w", err)
	}
	return id, nil
}

func (postgresDialect) IsUnknownDatabase(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "3D000"
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string       { return "sqlite" }
func (sqliteDialect) DriverName() string { return "sqlite" }
func (sqliteDialect) ErrorLabel() string { return "SQLite Error" }

// DSN is the database path. Host, user and password do not apply.
func (sqliteDialect) DSN(c Credentials) (string, error) {
	if c.Name == ":memory:" || strings.HasPrefix(c.Name, "file:") {
		return c.Name, nil
	}
	if _, err := os.Stat(c.Name); err != nil {
		return "", fmt.Errorf("stat database file: %w", err)
	}
	return c.Name, nil
}

func (sqliteDialect) SelectDatabase(context.Context, *sqlx.Conn, string) error {
	return nil
}

func (sqliteDialect) EscapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func (sqliteDialect) LastInsertID(_ context.Context, _ *sqlx.Conn, res sql.Result) (int64, error) {
	return res.LastInsertId()
}

func (sqliteDialect) IsUnknownDatabase(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
