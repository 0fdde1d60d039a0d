package repo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/op/go-logging"
)

func unsetEnv(t *testing.T, keys ...string) {
	for _, key := range keys {
		old, had := os.LookupEnv(key)
		os.Unsetenv(key)
		key := key
		t.Cleanup(func() {
			if had {
				os.Setenv(key, old)
			} else {
				os.Unsetenv(key)
			}
		})
	}
}

var configEnv = []string{"BOT_TOKEN", "ADMIN_CHAT_ID", "DATABASE_URL", "FIREBASE_CREDENTIALS_JSON", "PORT", "RATE_API", "DESK_FILE"}

func TestLoadConfig_EnvFile(t *testing.T) {
	unsetEnv(t, configEnv...)
	dir := t.TempDir()

	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("BOT_TOKEN=123:abc\nADMIN_CHAT_ID=999\nPORT=9090\n"), os.ModePerm); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig([]string{
		"--envfile", envFile,
		"--configfile", filepath.Join(dir, "missing.conf"),
		"--datadir", dir,
		"--timeout", "10m",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BotToken != "123:abc" {
		t.Errorf("Expected token from .env, got %q", cfg.BotToken)
	}
	if cfg.AdminChatID != 999 {
		t.Errorf("Expected admin 999, got %d", cfg.AdminChatID)
	}
	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if cfg.Timeout != time.Minute*10 {
		t.Errorf("Expected 10m timeout, got %s", cfg.Timeout)
	}
	if cfg.KeepAlive != time.Minute*20 {
		t.Errorf("Expected default keep-alive, got %s", cfg.KeepAlive)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Valid config rejected: %s", err)
	}
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	unsetEnv(t, configEnv...)
	os.Setenv("BOT_TOKEN", "from-env")
	os.Setenv("ADMIN_CHAT_ID", "1")
	dir := t.TempDir()

	cfg, err := loadConfig([]string{
		"--envfile", filepath.Join(dir, "missing.env"),
		"--configfile", filepath.Join(dir, "missing.conf"),
		"--bottoken", "from-flag",
		"start",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BotToken != "from-flag" {
		t.Errorf("Expected flag to win, got %q", cfg.BotToken)
	}
	if cfg.AdminChatID != 1 {
		t.Errorf("Expected admin from env, got %d", cfg.AdminChatID)
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected default port, got %d", cfg.Port)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			BotToken:    "123:abc",
			AdminChatID: 999,
			Port:        8080,
			Timeout:     time.Minute * 15,
			KeepAlive:   time.Minute * 20,
		}
	}

	tests := []struct {
		name   string
		modify func(c *Config)
		valid  bool
	}{
		{"valid", func(c *Config) {}, true},
		{"missing token", func(c *Config) { c.BotToken = " " }, false},
		{"missing admin", func(c *Config) { c.AdminChatID = 0 }, false},
		{"bad credentials", func(c *Config) {
			c.FirebaseCredentials = "{not json"
			c.DatabaseURL = "https://desk.firebaseio.com"
		}, false},
		{"credentials without url", func(c *Config) { c.FirebaseCredentials = `{"type":"service_account"}` }, false},
		{"credentials with postgres url", func(c *Config) {
			c.FirebaseCredentials = `{"type":"service_account"}`
			c.DatabaseURL = "postgres://localhost/desk"
		}, false},
		{"credentials", func(c *Config) {
			c.FirebaseCredentials = `{"type":"service_account"}`
			c.DatabaseURL = "https://desk.firebaseio.com"
		}, true},
		{"bad port", func(c *Config) { c.Port = 0 }, false},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, false},
		{"zero keep-alive", func(c *Config) { c.KeepAlive = 0 }, false},
	}
	for _, test := range tests {
		cfg := valid()
		test.modify(&cfg)
		err := cfg.Validate()
		if test.valid && err != nil {
			t.Errorf("%s: unexpected error %s", test.name, err)
		}
		if !test.valid && err == nil {
			t.Errorf("%s: expected an error", test.name)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected logging.Level
	}{
		{"debug", logging.DEBUG},
		{"WARNING", logging.WARNING},
		{"critical", logging.CRITICAL},
		{"bogus", logging.INFO},
	}
	for _, test := range tests {
		if got := ParseLogLevel(test.level); got != test.expected {
			t.Errorf("ParseLogLevel(%s) = %s, expected %s", test.level, got, test.expected)
		}
	}
}
