// Command stash-cli opens a session to a stash server, runs one query, and
// browses the result interactively.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stashdb/go-stash/client"
	"github.com/stashdb/go-stash/internal/repl"
)

var version = "dev"

func main() {
	fs := flag.NewFlagSet("stash-cli", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "stash-cli — browse a stash query result\n\nUsage:\n  stash-cli [flags] <connstr> <ns_id> <table_id>\n\nFlags:\n")
		fs.PrintDefaults()
	}

	showVersion := fs.Bool("version", false, "show version and exit")
	limit := fs.Int("limit", 0, "row limit (0 = no limit)")
	verbose := fs.Bool("v", false, "verbose (debug) logging")

	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("stash-cli %s\n", version)
		return
	}
	if fs.NArg() < 3 {
		fs.Usage()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	nsID, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		logger.Error("invalid namespace id", "arg", fs.Arg(1), "error", err)
		os.Exit(1)
	}
	tableID, err := strconv.Atoi(fs.Arg(2))
	if err != nil {
		logger.Error("invalid table id", "arg", fs.Arg(2), "error", err)
		os.Exit(1)
	}

	if err := run(logger, fs.Arg(0), int32(nsID), int32(tableID), int32(*limit)); err != nil {
		logger.Error("stash-cli failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, connstr string, nsID, tableID, limit int32) error {
	s := client.New()
	if err := s.Connstr(connstr); err != nil {
		return fmt.Errorf("stash-cli: %w", err)
	}

	logger.Debug("connecting", "session", s.ID())
	if err := s.Connect(); err != nil {
		return fmt.Errorf("stash-cli: %w", err)
	}
	logger.Info("connected", "session", s.ID(), "user_id", s.UserID())

	q := client.NewQuery(s, nsID, tableID).Limit(limit)
	r, err := q.Execute()
	if err != nil {
		return fmt.Errorf("stash-cli: query: %w", err)
	}
	logger.Debug("query complete", "rows", r.RowCount(), "result", r.ResultCode)

	model := repl.New(r, nil)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("stash-cli: repl: %w", err)
	}
	return nil
}
