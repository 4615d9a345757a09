package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != DefaultHost || cfg.Server.Port != DefaultPort {
		t.Errorf("server = %+v, want defaults", cfg.Server)
	}
	if cfg.API.BaseURL != "http://localhost:3000/api/v2" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.API.SocketURL != "ws://localhost:3000/ws/chats" {
		t.Errorf("socket url = %q", cfg.API.SocketURL)
	}
}

func TestLoadFillsDerivedEndpoints(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`{"name": "quill", "server": {"host": "0.0.0.0", "port": 8080}}`)
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "quill" {
		t.Errorf("name = %q", cfg.Name)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("addr = %q", cfg.Addr())
	}
	if cfg.API.BaseURL != "http://0.0.0.0:8080/api/v2" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
}

func TestLoadExplicitEndpointsWin(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`{"api": {"baseUrl": "https://api.example.com/v2", "socketUrl": "wss://ws.example.com"}}`)
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "https://api.example.com/v2" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.API.SocketURL != "wss://ws.example.com" {
		t.Errorf("socket url = %q", cfg.API.SocketURL)
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := New()
	cfg.Name = "quill"
	cfg.Store.Path = "quill.db"
	cfg.applyDefaults()

	path := filepath.Join(dir, ConfigFileName)
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "quill" || loaded.Store.Path != "quill.db" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Path() != path {
		t.Errorf("path = %q, want %q", loaded.Path(), path)
	}
}
