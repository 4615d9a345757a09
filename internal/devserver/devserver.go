// Package devserver is a self-contained chat backend for local
// development. It implements the REST surface the api controllers talk to
// and the websocket protocol the chatsocket session speaks, backed by an
// in-memory database, so the client stack can be exercised end to end
// without external services.
package devserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quill-chat/quill/internal/config"
	"github.com/quill-chat/quill/pkg/store"
	"github.com/quill-chat/quill/pkg/upload"
)

// Server is the development chat backend.
type Server struct {
	cfg     *config.Config
	log     *slog.Logger
	db      *database
	hub     *hub
	avatars upload.Storage
	metrics *httpMetrics
}

// Options configures New beyond the config file.
type Options struct {
	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Avatars overrides the storage built from cfg.Upload.
	Avatars upload.Storage

	// Registry defaults to prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// New builds a Server from the config. Avatar storage comes from
// cfg.Upload unless overridden.
func New(cfg *config.Config, opts Options) (*Server, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	avatars := opts.Avatars
	if avatars == nil {
		var err error
		avatars, err = upload.NewDiskStorage(cfg.Upload.Dir, "/avatars/", cfg.Upload.MaxSize)
		if err != nil {
			return nil, err
		}
	}

	registry := opts.Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	db := newDatabase()
	return &Server{
		cfg:     cfg,
		log:     log,
		db:      db,
		hub:     newHub(db, log),
		avatars: avatars,
		metrics: newHTTPMetrics(registry),
	}, nil
}

// Seed registers a user directly, bypassing the signup endpoint. Tests and
// the demo app use it to start from a known state.
func (s *Server) Seed(acc Account) int {
	created := s.db.createUser(account{User: acc.User, Password: acc.Password})
	return created.ID
}

// Account is a seed user.
type Account struct {
	User     store.User
	Password string
}

// SeedChat creates a chat owned by the given user and returns its id.
func (s *Server) SeedChat(title string, ownerID int) int {
	return s.db.createChat(title, ownerID).ID
}

// SeedMessage appends a message to a chat's history.
func (s *Server) SeedMessage(chatID, userID int, content string) {
	s.db.appendMessage(chatID, userID, content)
}

// Handler assembles the full route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(s.log))
	r.Use(s.metrics.middleware)
	r.Use(tracing)

	r.Route("/api/v2", func(r chi.Router) {
		r.Post("/auth/signin", s.handleSignIn)
		r.Post("/auth/signup", s.handleSignUp)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/auth/user", s.requireAuth(s.handleUser))

		r.Get("/chats", s.requireAuth(s.handleChats))
		r.Post("/chats", s.requireAuth(s.handleCreateChat))
		r.Delete("/chats", s.requireAuth(s.handleDeleteChat))
		r.Put("/chats/users", s.requireAuth(s.handleChatMembers))
		r.Delete("/chats/users", s.requireAuth(s.handleChatMembers))
		r.Post("/chats/token/{chatID}", s.requireAuth(s.handleChatToken))

		r.Post("/user/search", s.requireAuth(s.handleUserSearch))
		r.Put("/user/profile", s.requireAuth(s.handleProfile))
		r.Put("/user/password", s.requireAuth(s.handlePassword))
		r.Put("/user/profile/avatar", s.requireAuth(s.handleAvatar))
	})

	r.Get("/ws/chats/{userID}/{chatID}/{token}", s.handleSocket)
	r.Get("/avatars/{file}", s.handleServeAvatar)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// ListenAndServe runs the server on the configured address.
func (s *Server) ListenAndServe() error {
	addr := s.cfg.Addr()
	s.log.Info("devserver: listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}
