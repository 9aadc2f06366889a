// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// academy-migrate copies session records from one store backend to another.
//
// Usage:
//
//	academy-migrate --from file:/data/sessions --to sqlite:/data/sessions.db
//	academy-migrate --from file:/data/sessions --to badger:/data/badger --dry-run
//
// Locations are "backend:path" (redis takes "redis:host:port"). A bare path
// selects the file backend. Sqlite targets keep a migration_history row and
// are skipped when already migrated unless --force is set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ManuGH/academy/internal/domain/session/store"
	xglog "github.com/ManuGH/academy/internal/log"
	"github.com/ManuGH/academy/internal/migration"
	"github.com/ManuGH/academy/internal/persistence/sqlite"
)

func main() {
	xglog.Configure(xglog.Config{Level: "info", Service: "academy-migrate", Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	from, to   string
	dryRun     bool
	verifyOnly bool
	force      bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("academy-migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.from, "from", "", "source store location (backend:path)")
	fs.StringVar(&opts.to, "to", "", "target store location (backend:path)")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "report what would be copied without writing")
	fs.BoolVar(&opts.verifyOnly, "verify-only", false, "compare source and target without copying")
	fs.BoolVar(&opts.force, "force", false, "ignore migration_history and copy again")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if opts.from == "" || opts.to == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --from and --to are required")
		return 2
	}

	if err := migrate(ctx, opts, stdout); err != nil {
		_, _ = fmt.Fprintf(stderr, "Migration failed: %v\n", err)
		return 1
	}
	return 0
}

func migrate(ctx context.Context, opts options, out io.Writer) error {
	srcOpts, err := store.ParseLocation(opts.from)
	if err != nil {
		return fmt.Errorf("parse --from: %w", err)
	}
	dstOpts, err := store.ParseLocation(opts.to)
	if err != nil {
		return fmt.Errorf("parse --to: %w", err)
	}
	if srcOpts == dstOpts {
		return errors.New("source and target are the same store")
	}

	src, err := store.Open(srcOpts)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = src.Close() }()

	// The sqlite target is opened directly so its handle can carry the
	// migration history.
	var (
		dst   store.Store
		sqDst *store.SqliteStore
	)
	if dstOpts.Backend == store.BackendSqlite {
		sqDst, err = store.NewSqliteStore(dstOpts.Path)
		dst = sqDst
	} else {
		dst, err = store.Open(dstOpts)
	}
	if err != nil {
		return fmt.Errorf("open target: %w", err)
	}
	defer func() { _ = dst.Close() }()

	_, _ = fmt.Fprintf(out, "Migrating sessions %s -> %s (dry-run=%v, verify-only=%v)\n", opts.from, opts.to, opts.dryRun, opts.verifyOnly)

	if opts.verifyOnly {
		rep, err := migration.Verify(ctx, src, dst)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Verified %d sessions (checksum %s)\n", rep.Count, rep.Checksum)
		return nil
	}

	if sqDst != nil && !opts.force && !opts.dryRun {
		done, err := migration.IsMigrated(sqDst.DB, migration.ModuleSessions)
		if err != nil {
			return err
		}
		if done {
			_, _ = fmt.Fprintln(out, "Already migrated, skipping (use --force to copy again)")
			return nil
		}
	}

	rep, err := migration.CopySessions(ctx, src, dst, opts.dryRun)
	if err != nil {
		return err
	}
	if opts.dryRun {
		_, _ = fmt.Fprintf(out, "Would copy %d sessions (checksum %s)\n", rep.Count, rep.Checksum)
		return nil
	}

	if _, err := migration.Verify(ctx, src, dst); err != nil {
		return fmt.Errorf("verify after copy: %w", err)
	}

	if sqDst != nil {
		issues, err := sqlite.VerifyIntegrity(sqDst.Path(), "quick")
		if err != nil {
			return fmt.Errorf("integrity check: %w", err)
		}
		if len(issues) > 0 {
			return fmt.Errorf("integrity check reported %d issues: %v", len(issues), issues)
		}
		err = migration.RecordMigration(sqDst.DB, migration.HistoryRecord{
			Module:       migration.ModuleSessions,
			SourceType:   srcOpts.Backend,
			SourcePath:   opts.from,
			MigratedAtMs: time.Now().UnixMilli(),
			RecordCount:  rep.Count,
			Checksum:     rep.Checksum,
		})
		if err != nil {
			return fmt.Errorf("record migration history: %w", err)
		}
	}

	_, _ = fmt.Fprintf(out, "Migrated %d sessions (checksum %s)\n", rep.Count, rep.Checksum)
	return nil
}
