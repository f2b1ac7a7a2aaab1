package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/leengari/cohort-sql/internal/engine"
	"github.com/leengari/cohort-sql/internal/logging"
	"github.com/leengari/cohort-sql/internal/network"
	"github.com/leengari/cohort-sql/internal/pipeline"
	"github.com/leengari/cohort-sql/internal/repl"
	"github.com/leengari/cohort-sql/internal/session"
	"github.com/leengari/cohort-sql/internal/storage/writer"
)

func main() {
	pipelineName := flag.String("pipeline", pipeline.DiseasePipeline, "Pipeline to run: disease or drug")
	dataDir := flag.String("data", "data", "Directory of source table snapshots (.json, .csv)")
	stepFile := flag.String("steps", "", "YAML file overriding step names and SQL")
	serverMode := flag.Bool("server", false, "Run in server mode")
	port := flag.Int("port", 4444, "Port to listen on")
	runSpec := flag.String("run", "", "Run steps non-interactively: i or a:b")
	outDir := flag.String("out", "", "Export step outputs of -run as JSON into this directory")
	seqURL := flag.String("seq", "", "Seq ingestion URL for structured logs")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	auditPath := flag.String("audit", "", "Audit log file for step messages")
	sourceDriver := flag.String("source-driver", "", "Load source tables from a database instead: sqlite3 or mysql")
	sourceDSN := flag.String("source-dsn", "", "Data source name for -source-driver")
	flag.Parse()

	logger, closeFn := logging.SetupLogger(logging.Options{
		SeqURL: *seqURL,
		Level:  logging.ParseLevel(*logLevel),
	})
	defer closeFn()

	audit := logging.NewAuditLogger(*auditPath)
	defer audit.Sync()

	if err := run(logger, config{
		pipeline:     *pipelineName,
		dataDir:      *dataDir,
		stepFile:     *stepFile,
		server:       *serverMode,
		port:         *port,
		runSpec:      *runSpec,
		outDir:       *outDir,
		sourceDriver: *sourceDriver,
		sourceDSN:    *sourceDSN,
	}, engine.WithAudit(audit)); err != nil {
		slog.Error("cohortsql failed", "error", err)
		closeFn()
		os.Exit(1)
	}
}

type config struct {
	pipeline     string
	dataDir      string
	stepFile     string
	server       bool
	port         int
	runSpec      string
	outDir       string
	sourceDriver string
	sourceDSN    string
}

func run(logger *slog.Logger, cfg config, opts ...engine.Option) error {
	profile, err := pipeline.ProfileByName(cfg.pipeline)
	if err != nil {
		return err
	}
	if cfg.stepFile != "" {
		f, err := pipeline.LoadStepFile(cfg.stepFile)
		if err != nil {
			return err
		}
		if profile, err = profile.WithOverrides(f); err != nil {
			return err
		}
	}

	loader := session.DirectoryLoader(cfg.dataDir, logger)
	if cfg.sourceDriver != "" {
		db, err := sql.Open(cfg.sourceDriver, cfg.sourceDSN)
		if err != nil {
			return fmt.Errorf("failed to open source database: %w", err)
		}
		defer db.Close()
		loader = session.DatabaseLoader(db, cfg.sourceDriver, logger)
	}

	eng := engine.New(nil, append(opts, engine.WithLogger(logger))...)
	eng.AddObserver(engine.NewLoggingObserver(logger))
	registry := session.NewRegistry(loader, eng)

	slog.Info("Application ready!", "pipeline", profile.Name, "steps", len(profile.Steps))

	if cfg.server {
		slog.Info("Starting Server mode...")
		network.Start(cfg.port, registry, profile)
		return nil
	}

	sess, err := registry.Open(profile)
	if err != nil {
		return err
	}
	defer registry.Close(sess.ID)

	if cfg.runSpec == "" {
		slog.Info("Starting REPL mode...")
		repl.Start(sess, os.Stdin, os.Stdout)
		return nil
	}
	return runBatch(sess, cfg.runSpec, cfg.outDir)
}

func runBatch(sess *session.Session, spec, outDir string) error {
	from, to, err := parseRunSpec(spec)
	if err != nil {
		return err
	}

	_, runErr := sess.RunRange(context.Background(), from, to)
	printErr := sess.View(func(st *pipeline.State) error {
		for i := from; i < to && i < st.Len(); i++ {
			s := st.Steps[i]
			fmt.Printf("== %d. %s\n", s.Index, s.Name)
			for _, m := range s.Messages() {
				fmt.Println(m)
			}
			if s.Output == nil {
				continue
			}
			repl.PrintTable(os.Stdout, s.Output)
			if outDir != "" {
				path := filepath.Join(outDir, fmt.Sprintf("step_%02d.json", s.Index))
				if err := writer.SaveTable(s.Output, path); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if runErr != nil {
		return runErr
	}
	return printErr
}

func parseRunSpec(spec string) (int, int, error) {
	if a, b, ok := strings.Cut(spec, ":"); ok {
		from, err1 := strconv.Atoi(a)
		to, err2 := strconv.Atoi(b)
		if err1 != nil || err2 != nil {
			return 0, 0, fmt.Errorf("invalid -run %q: want i or a:b", spec)
		}
		return from, to, nil
	}
	i, err := strconv.Atoi(spec)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid -run %q: want i or a:b", spec)
	}
	return i, i + 1, nil
}
