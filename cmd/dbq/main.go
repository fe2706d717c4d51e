package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dhima/dbhelper/internal/database"
	"github.com/dhima/dbhelper/internal/logging"
	"github.com/dhima/dbhelper/internal/render"
	"github.com/dhima/dbhelper/pkg/config"
)

type options struct {
	driver     string
	host       string
	user       string
	password   string
	name       string
	query      string
	shape      string
	format     string
	errorMode  string
	htmlErrors bool
	verbose    bool

	exit func(int)
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	opts := options{password: cfg.DBPassword, errorMode: cfg.DBErrorMode}
	flag.StringVar(&opts.driver, "driver", cfg.DBDriver, "database driver: mysql, postgres or sqlite")
	flag.StringVar(&opts.host, "host", cfg.DBHost, "database host, host:port or socket path")
	flag.StringVar(&opts.user, "user", cfg.DBUser, "database user")
	flag.StringVar(&opts.name, "db", cfg.DBName, "database name, or file path for sqlite")
	flag.StringVar(&opts.query, "q", "", "SQL statement to run; read from stdin when empty and stdin is not a terminal")
	flag.StringVar(&opts.shape, "shape", "object", "row shape for json output: object or array")
	flag.StringVar(&opts.format, "format", "table", "output format: table or json")
	flag.BoolVar(&opts.htmlErrors, "html-errors", false, "print failures as the HTML diagnostic and exit")
	flag.BoolVar(&opts.verbose, "v", false, "log statements to stderr")
	flag.Parse()

	stdinIsTTY := term.IsTerminal(int(os.Stdin.Fd()))
	if opts.query == "" {
		if stdinIsTTY {
			fmt.Fprintln(os.Stderr, "usage: dbq [-driver d] [-host h] [-user u] [-db name] -q statement")
			os.Exit(2)
		}
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		opts.query = strings.TrimSpace(string(b))
	}

	if opts.password == "" && opts.user != "" && stdinIsTTY {
		pw, err := promptPassword(int(os.Stdin.Fd()))
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		opts.password = pw
	}

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// closeSession closes c and reports its error through errp unless an
// earlier error is already set.
func closeSession(c io.Closer, errp *error) {
	if cerr := c.Close(); cerr != nil && *errp == nil {
		*errp = fmt.Errorf("close session: %w", cerr)
	}
}

func promptPassword(fd int) (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// run opens one session, executes opts.query and prints the outcome.
func run(ctx context.Context, opts options, stdout io.Writer) (err error) {
	if opts.query == "" {
		return errors.New("no statement given")
	}

	dialect, err := database.DialectFor(opts.driver)
	if err != nil {
		return err
	}

	mode, ok := database.ParseErrorMode(opts.errorMode)
	if !ok {
		return fmt.Errorf("unknown error mode %q", opts.errorMode)
	}
	if opts.htmlErrors {
		mode = database.ErrorModeHalt
	}
	if mode == database.ErrorModeHalt && !opts.htmlErrors {
		// halt is opt-in via -html-errors
		mode = database.ErrorModeReturn
	}

	level := "fatal"
	if opts.verbose {
		level = "debug"
	}
	logger, err := logging.NewLogger("development", level, "console")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	clientOpts := []database.Option{
		database.WithDialect(dialect),
		database.WithErrorMode(mode),
		database.WithLogger(logger),
		database.WithOutput(stdout),
	}
	if opts.exit != nil {
		clientOpts = append(clientOpts, database.WithExit(opts.exit))
	}

	client, err := database.New(ctx, opts.host, opts.user, opts.password, opts.name, clientOpts...)
	if err != nil {
		return err
	}
	defer closeSession(client, &err)

	res, err := client.Query(ctx, opts.query)
	if err != nil {
		return err
	}
	if res == nil {
		logger.Debug("statement failed silently", zap.String("sql", opts.query))
		return nil
	}

	if !res.HasRows() {
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		render.Affected(stdout, n)
		return nil
	}

	rows, err := client.Get(database.ParseShape(opts.shape))
	if err != nil {
		return err
	}

	switch opts.format {
	case "json":
		if rows == nil {
			rows = []database.Row{}
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	default:
		render.Table(stdout, res.Columns(), rows, render.Options{MaxWidth: 60})
		return nil
	}
}
