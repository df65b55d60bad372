// Package main is the headless Voyager runner: it wires a browser session
// pool and the full tool surface together behind a JSON-RPC-over-stdio
// loop for an agent host to drive. Grounded on the teacher's
// cmd/forge-headless/main.go wiring shape (flag parsing, signal-driven
// context cancellation, config-then-collaborators-then-run ordering).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/voyager/internal/approval"
	"github.com/entrhq/voyager/internal/artifacts"
	"github.com/entrhq/voyager/internal/config"
	"github.com/entrhq/voyager/internal/driver/playwrightdriver"
	"github.com/entrhq/voyager/internal/obslog"
	"github.com/entrhq/voyager/internal/pool"
	"github.com/entrhq/voyager/internal/redact"
	"github.com/entrhq/voyager/internal/store/sqlite"
	"github.com/entrhq/voyager/internal/trace"
	"github.com/entrhq/voyager/pkg/tools"
)

const version = "0.1.0"

type cliConfig struct {
	baseDir     string
	headless    bool
	showVersion bool
}

func parseFlags() *cliConfig {
	c := &cliConfig{}
	flag.StringVar(&c.baseDir, "base-dir", ".voyager", "base directory for profiles/artifacts/store/logs/config defaults")
	flag.BoolVar(&c.headless, "headless", true, "launch the browser headless")
	flag.BoolVar(&c.showVersion, "version", false, "show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Voyager - headless browser automation runtime\n\n")
		fmt.Fprintf(os.Stderr, "Usage: voyager [options]\n\n")
		fmt.Fprintf(os.Stderr, "Reads newline-delimited JSON-RPC requests on stdin, one tool call per\nline, and writes one JSON-RPC response per line on stdout.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	return c
}

func main() {
	cli := parseFlags()
	if cli.showVersion {
		fmt.Printf("voyager v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := run(ctx, cli); err != nil {
		log.Printf("voyager: %v", err)
		cancel()
		os.Exit(1)
	}
	cancel()
}

func run(ctx context.Context, cli *cliConfig) error {
	paths := config.LoadPaths(cli.baseDir)

	logger, err := obslog.New("voyager")
	if err != nil {
		log.Printf("voyager: falling back to stderr logging: %v", err)
	}
	if logger != nil {
		defer logger.Close()
	}

	fileStore, err := config.NewFileStore(paths.ConfigPath)
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	cfgManager := config.NewManager(fileStore)

	runtimeSection := config.DefaultRuntimeSection()
	approvalSection := config.NewApprovalSection()
	redactionSection := config.NewRedactionSection()
	for _, s := range []config.Section{runtimeSection, approvalSection, redactionSection} {
		if rerr := cfgManager.RegisterSection(s); rerr != nil {
			return fmt.Errorf("register config section: %w", rerr)
		}
	}
	if lerr := cfgManager.LoadAll(); lerr != nil {
		return fmt.Errorf("load config: %w", lerr)
	}

	redactor, err := redact.Compile(redact.Policy{
		ExtraSensitiveKeys: redactionSection.ExtraSensitiveKeys,
		RedactTypedText:    redactionSection.RedactTypedText,
	})
	if err != nil {
		return fmt.Errorf("compile redaction policy: %w", err)
	}

	sqliteStore, err := sqlite.Open(paths.StorePath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer sqliteStore.Close()
	sqliteStore.SetRedactor(redactor)

	launcher, err := playwrightdriver.NewLauncher()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}
	defer launcher.Stop()

	p := pool.New(launcher, pool.Options{
		MaxContexts: runtimeSection.MaxContexts,
		ProfilesDir: paths.ProfilesDir,
	}, logger)
	p.StartHealthMonitor(ctx)
	defer func() {
		if serr := p.Shutdown(context.Background()); serr != nil && logger != nil {
			logger.Warnf("pool shutdown: %v", serr)
		}
	}()

	artifactWriter := artifacts.NewWriter(paths.ArtifactsDir, 0)
	if rerr := artifactWriter.EnforceRetention(); rerr != nil && logger != nil {
		logger.Warnf("artifact retention: %v", rerr)
	}
	defer func() {
		if rerr := artifactWriter.EnforceRetention(); rerr != nil && logger != nil {
			logger.Warnf("artifact retention: %v", rerr)
		}
	}()
	tracer := trace.NewStore()
	resolver := approval.Resolver{AutoApprove: approvalSection.AutoApprove}

	rt := tools.NewRuntime(p, sqliteStore, sqliteStore, artifactWriter, tracer, resolver, cfgManager, redactor, logger)
	rt.DefaultHeadless = cli.headless
	registry := tools.BuildRegistry(rt)

	return serveStdio(ctx, registry, logger)
}
