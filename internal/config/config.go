// Package config loads quill.json, the project configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quill-chat/quill/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "quill.json"

	// DefaultPort is the default development server port.
	DefaultPort = 3000

	// DefaultHost is the default development server host.
	DefaultHost = "localhost"
)

// Config represents the complete quill.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty"`

	// Server contains development server settings.
	Server ServerConfig `json:"server,omitempty"`

	// API contains the endpoints the client talks to.
	API APIConfig `json:"api,omitempty"`

	// Store contains state persistence settings.
	Store StoreConfig `json:"store,omitempty"`

	// Upload contains avatar storage settings.
	Upload UploadConfig `json:"upload,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains development server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`
}

// APIConfig contains the base URLs for REST and websocket traffic.
type APIConfig struct {
	// BaseURL is the REST endpoint, e.g. "http://localhost:3000/api/v2".
	BaseURL string `json:"baseUrl,omitempty"`

	// SocketURL is the websocket endpoint, e.g. "ws://localhost:3000/ws/chats".
	SocketURL string `json:"socketUrl,omitempty"`
}

// StoreConfig contains state persistence settings.
type StoreConfig struct {
	// Path is the bolt database file. Empty keeps state in memory only.
	Path string `json:"path,omitempty"`
}

// UploadConfig contains avatar storage settings. When Bucket is set the
// S3 backend is used; otherwise avatars go to Dir on local disk.
type UploadConfig struct {
	// Dir is the local directory for avatars.
	Dir string `json:"dir,omitempty"`

	// Bucket is the S3 bucket name.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is the S3 key prefix for avatars.
	Prefix string `json:"prefix,omitempty"`

	// MaxSize is the per-file limit in bytes.
	MaxSize int64 `json:"maxSize,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Version: "0.1.0",
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Upload: UploadConfig{
			Dir: "uploads",
		},
	}
}

// Load reads configuration from the specified directory. It looks for
// quill.json in the directory; a missing file yields the defaults.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := New()
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, errors.Wrap(err, "C100", errors.CategoryConfig, "reading "+ConfigFileName)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "C101", errors.CategoryConfig, ConfigFileName+" is not valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("C102", errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "C103", errors.CategoryConfig, "encoding "+ConfigFileName)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "C103", errors.CategoryConfig, "writing "+ConfigFileName)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Addr returns the host:port the dev server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyDefaults fills in values derived from the server address when the
// file leaves the API endpoints unset.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = fmt.Sprintf("http://%s/api/v2", c.Addr())
	}
	if c.API.SocketURL == "" {
		c.API.SocketURL = fmt.Sprintf("ws://%s/ws/chats", c.Addr())
	}
	if c.Upload.Dir == "" && c.Upload.Bucket == "" {
		c.Upload.Dir = "uploads"
	}
}
