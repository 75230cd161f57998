// SPDX-License-Identifier: GPL-3.0-or-later

// Command keymasterd starts a Keymaster server from a YAML configuration
// document. It is a thin wrapper: all the logic lives in
// [github.com/nrao/matrix/keymaster]; this binary only parses flags, wires
// logging, and handles shutdown signals.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nrao/matrix"
	"github.com/nrao/matrix/keymaster"
	"github.com/nrao/matrix/keystore"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("keymasterd", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the Keymaster YAML configuration document")
	verbose := fs.Bool("v", false, "log at Debug level instead of Info")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "keymasterd: -config is required")
		return 2
	}

	logger := newLogger(*verbose)
	cfg := matrix.NewConfig()
	cfg.Logger = logger

	doc, err := keymaster.LoadDocument(*configPath)
	if err != nil {
		logger.Error("loading configuration", "path", *configPath, "error", err)
		return 1
	}

	controlURNs, pubURNs, err := urlsFromDocument(doc)
	if err != nil {
		logger.Error("reading Keymaster.URLS", "error", err)
		return 1
	}

	srv := keymaster.NewServer(cfg, doc)
	if err := srv.Bind(controlURNs, pubURNs); err != nil {
		logger.Error("binding", "error", err)
		return 1
	}
	logger.Info("keymasterd listening", "control", srv.ControlURNs(), "publish", srv.PublishURNs())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		srv.Serve()
		close(done)
	}()

	<-ctx.Done()
	logger.Info("keymasterd shutting down")
	srv.Terminate()
	<-done
	return 0
}

// urlsFromDocument reads Keymaster.URLS as the control-socket bind list.
// The publish socket's bind list is always the single partial inproc URN
// below; the document is not read for it. The server stores the bound
// publish URNs under KeymasterServer.PUBURLS itself once bound.
func urlsFromDocument(doc keystore.Node) (control, pub []string, err error) {
	res := keystore.Get(doc, "Keymaster.URLS")
	if !res.OK {
		return nil, nil, fmt.Errorf("document has no Keymaster.URLS")
	}
	items, ok := res.Node.Items()
	if !ok {
		return nil, nil, fmt.Errorf("Keymaster.URLS is not a sequence")
	}
	control = make([]string, len(items))
	for i, item := range items {
		v, ok := item.ScalarValue()
		if !ok {
			return nil, nil, fmt.Errorf("Keymaster.URLS[%d] is not a scalar", i)
		}
		control[i] = v
	}
	return control, []string{"inproc://matrix-XXXXX"}, nil
}

// newLogger writes structured logs to MATRIXLOGDIR/keymasterd.log when the
// environment variable is set, or to stderr otherwise.
func newLogger(verbose bool) matrix.SLogger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if dir := os.Getenv("MATRIXLOGDIR"); dir != "" {
		if f, err := os.OpenFile(filepath.Join(dir, "keymasterd.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			return slog.New(slog.NewJSONHandler(f, opts))
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
