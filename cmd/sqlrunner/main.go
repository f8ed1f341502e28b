// Command sqlrunner executes SQL script files against an in-memory
// engine. It is the standalone test harness: each file runs in its own
// session, output goes to stdout, and any failure exits non-zero so the
// runner can gate CI.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/orcasql/orcasql"
	"github.com/orcasql/orcasql/internal/sql/executor"
	"github.com/orcasql/orcasql/internal/sql/physical"
)

func main() {
	var (
		verbose = flag.Bool("v", false, "print a line per executed statement")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: sqlrunner [-v] <script.sql> [...]")
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	eng := orcasql.NewInMemory(logger)
	ctx := context.Background()

	failed := false
	for _, path := range flag.Args() {
		if err := runScript(ctx, eng, path, *verbose); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// runScript executes one file in a fresh session. A panic inside the
// engine is reported as a crash instead of taking down the whole run.
func runScript(ctx context.Context, eng *orcasql.Engine, path string, verbose bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("crashed: %v", r)
		}
	}()

	script, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	sess, err := eng.NewSession(ctx)
	if err != nil {
		return err
	}

	ex, err := executor.New(string(script), sess)
	if err != nil {
		return err
	}

	stmtIdx := 0
	for {
		res, err := ex.ExecuteNext(ctx)
		if err != nil {
			return fmt.Errorf("statement %d: %w", stmtIdx+1, err)
		}
		if res == nil {
			return nil
		}
		stmtIdx++

		if res.Kind == executor.ResultQuery {
			rows, err := physical.Collect(ctx, res.Stream)
			if err != nil {
				return fmt.Errorf("statement %d: %w", stmtIdx, err)
			}
			for _, row := range rows {
				fmt.Println(formatRow(row))
			}
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "%s [%d] %s\n", path, stmtIdx, res)
		}
	}
}

func formatRow(row []any) string {
	parts := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			parts[i] = "NULL"
			continue
		}
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, "\t")
}
