package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: s3cret
mongo:
  uri: mongodb://localhost:27017
app:
  public_base_url: https://api.menu.test/
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.App.Port != 8080 || cfg.App.Env != "development" || cfg.App.IsProduction() {
		t.Fatalf("app = %+v", cfg.App)
	}
	if cfg.App.PublicBaseURL != "https://api.menu.test" || cfg.App.FrontendBaseURL != "https://api.menu.test" {
		t.Fatalf("urls = %q %q", cfg.App.PublicBaseURL, cfg.App.FrontendBaseURL)
	}
	if cfg.QR.FileTokenSecret != "s3cret" || cfg.QR.FileTokenTTLSeconds != 600 {
		t.Fatalf("qr = %+v", cfg.QR)
	}
	if cfg.Analytics.Driver != "mongo" || cfg.Files.Driver != "local" || cfg.Mongo.Database != "menuqr" {
		t.Fatalf("drivers = %s %s %s", cfg.Analytics.Driver, cfg.Files.Driver, cfg.Mongo.Database)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: from-file
mongo:
  uri: mongodb://file:27017
`)
	t.Setenv("MENUQR_ENV", "production")
	t.Setenv("MENUQR_PORT", "9090")
	t.Setenv("MENUQR_JWT_SECRET", "from-env")
	t.Setenv("MENUQR_TELEGRAM_CHAT_ID", "-100123")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.App.IsProduction() || cfg.App.Port != 9090 {
		t.Fatalf("app = %+v", cfg.App)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Fatalf("jwt secret = %q", cfg.JWT.Secret)
	}
	if cfg.Telegram.ChatID != -100123 {
		t.Fatalf("chat id = %d", cfg.Telegram.ChatID)
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	path := writeConfig(t, `
analytics:
  driver: postgres
files:
  driver: s3
sms:
  provider: carrier-pigeon
`)
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"jwt.secret", "mongo.uri", "postgres_dsn", "files.s3.bucket", "carrier-pigeon"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
