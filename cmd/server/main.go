package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/Tyrowin/linechat/internal/server"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("linechat", pflag.ExitOnError)
	server.RegisterFlags(flags)
	_ = flags.Parse(args)

	configPath, _ := flags.GetString("config")
	config, err := server.LoadConfig(configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "linechat: %v\n", err)
		return 1
	}

	logger, err := server.NewLogger(config.LogLevel, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "linechat: %v\n", err)
		return 1
	}

	srv := server.New(config, logger)
	effective := srv.Config()
	color.New(color.FgCyan, color.Bold).Printf("Starting linechat server on %s\n", effective.TCPAddr())
	if effective.WebSocketAddr != "" {
		color.New(color.FgCyan).Printf("WebSocket endpoint on %s/ws\n", effective.WebSocketAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.WithError(err).Error("Server stopped with error")
		return 1
	}
	logger.Info("Server stopped")
	return 0
}
