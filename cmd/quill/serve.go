package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/quill-chat/quill/internal/config"
	"github.com/quill-chat/quill/internal/devserver"
	"github.com/quill-chat/quill/pkg/store"
)

func serveCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the development chat server",
		Long: `Start the development chat server.

The server implements the REST endpoints and the websocket chat
protocol the client runtime expects, backed by in-memory state.
Metrics are exposed on /metrics.

Examples:
  quill serve
  quill serve --port=8080
  quill serve --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port, host)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from quill.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from quill.json)")

	return cmd
}

func runServe(port int, host string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if host != "" {
		cfg.Server.Host = host
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	srv, err := devserver.New(cfg, devserver.Options{Logger: log})
	if err != nil {
		return err
	}

	// A known account so the demo client can sign in immediately.
	ownerID := srv.Seed(devserver.Account{
		User: store.User{
			FirstName:  "Quill",
			SecondName: "Demo",
			Login:      "demo",
			Email:      "demo@example.com",
		},
		Password: "demo",
	})
	chatID := srv.SeedChat("general", ownerID)
	srv.SeedMessage(chatID, ownerID, "Welcome to Quill!")

	return srv.ListenAndServe()
}
