package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("CLIPFORGE_DATABASE_URL", "")
	t.Setenv("CLIPFORGE_AUTH_ISSUER", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without database url")
	}

	t.Setenv("CLIPFORGE_DATABASE_URL", "postgres://localhost/clipforge")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without auth issuer")
	}

	t.Setenv("CLIPFORGE_AUTH_ISSUER", "https://issuer.example.com")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Address != ":8080" {
		t.Errorf("default address = %q", cfg.Address)
	}
	if cfg.AnalyzerTimeout != 2*time.Minute {
		t.Errorf("default analyzer timeout = %s", cfg.AnalyzerTimeout)
	}
}

func TestLoadParsesDurations(t *testing.T) {
	t.Setenv("CLIPFORGE_DATABASE_URL", "postgres://localhost/clipforge")
	t.Setenv("CLIPFORGE_AUTH_ISSUER", "https://issuer.example.com")
	t.Setenv("CLIPFORGE_ANALYZER_TIMEOUT", "30s")
	t.Setenv("CLIPFORGE_PROCESSING_TTL", "300")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AnalyzerTimeout != 30*time.Second {
		t.Errorf("analyzer timeout = %s, want 30s", cfg.AnalyzerTimeout)
	}
	if cfg.ProcessingTTL != 300*time.Second {
		t.Errorf("processing ttl = %s, want 5m (bare seconds)", cfg.ProcessingTTL)
	}
}

func TestLoadClient(t *testing.T) {
	cfg, err := LoadClient(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg.APIURL != "" || cfg.Token != "" {
		t.Fatalf("missing file should yield zero config: %+v", cfg)
	}

	path := filepath.Join(t.TempDir(), "clipforge.yaml")
	data := "api_url: https://api.example.com\ntoken: tok-123\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadClient(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIURL != "https://api.example.com" || cfg.Token != "tok-123" {
		t.Fatalf("decoded config = %+v", cfg)
	}
}
