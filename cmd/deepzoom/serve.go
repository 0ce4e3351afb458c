package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/example/deepzoom/internal/server"
	"github.com/example/deepzoom/internal/tilesource"
)

// listenAndServe is replaced in tests.
var listenAndServe = (*http.Server).ListenAndServe

type serveCmd struct {
	*root
	fs      *flag.FlagSet
	source  string
	addr    string
	logFile string
}

func (c *serveCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseServeCmd(args []string, r *root) (*serveCmd, error) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	c := &serveCmd{root: r.subcommand("serve"), fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.addr, "addr", r.config.Serve.Addr, "listen address")
	fs.StringVar(&c.logFile, "log-file", r.config.Serve.LogFile, "write access logs to this file instead of stderr")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	c.source = fs.Arg(0)
	if c.source == "" {
		c.source = r.config.Source
	}
	if c.source == "" {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

// accessLog returns where request logs go and a func to release it.
func (c *serveCmd) accessLog() (io.Writer, func()) {
	if c.logFile == "" {
		return os.Stderr, func() {}
	}
	lj := &lumberjack.Logger{
		Filename:   c.logFile,
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     28,
	}
	return lj, func() { lj.Close() }
}

func (c *serveCmd) Run() error {
	src, err := tilesource.Open(c.source)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := server.New(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.source, err)
	}
	logw, closeLog := c.accessLog()
	defer closeLog()

	srv := &http.Server{
		Addr:              c.addr,
		Handler:           s.Handler(logw),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	info := s.Info()
	log.Printf("serving %s as %s on %s", info.Title, info.ID, c.addr)
	if err := listenAndServe(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve on %s: %w", c.addr, err)
	}
	return nil
}
