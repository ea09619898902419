package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/atinyakov/AnimalFacts/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullConfig = `
logging_dir = "./logs"
logging_level = "warn"
facts_dir = "./facts"
animal_fact_types = ["Cat"]
flagging_enabled = true

[server]
ip = "0.0.0.0"
port = 9090

[audit]
database_dsn = "postgres://localhost/animals"
retention = "48h"
interval = "10m"
timeout = "500ms"

[[flaggers]]
location = "discord"
key = "flag_key"

[[admins]]
name = "Tester"
key = "all_perms"

[admins.permissions]
view_facts = true
add_fact = true
delete_fact = true
view_flags = true
add_flag = false
delete_flag = true
`

func TestParse_Full(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "")

	cfg, err := Parse([]byte(fullConfig))
	require.NoError(t, err)

	assert.Equal(t, "./logs", cfg.LoggingDir)
	assert.Equal(t, "warn", cfg.LoggingLevel)
	assert.Equal(t, "./facts", cfg.FactsDir)
	assert.Equal(t, []models.Animal{models.Cat}, cfg.AnimalFactTypes)
	assert.True(t, cfg.FlaggingEnabled)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr)
	assert.False(t, cfg.Server.TLSEnabled())
	assert.Equal(t, Duration(48*time.Hour), cfg.Audit.Retention)
	assert.Equal(t, Duration(10*time.Minute), cfg.Audit.Interval)
	assert.Equal(t, Duration(500*time.Millisecond), cfg.Audit.Timeout)

	require.Len(t, cfg.Flaggers, 1)
	assert.Equal(t, models.Flagger{Location: "discord", Key: "flag_key"}, cfg.Flaggers[0])

	require.Len(t, cfg.Admins, 1)
	assert.Equal(t, "Tester", cfg.Admins[0].Name)
	assert.Equal(t, models.Perms{
		ViewFacts: true, AddFact: true, DeleteFact: true,
		ViewFlags: true, AddFlag: false, DeleteFlag: true,
	}, cfg.Admins[0].Permissions)
}

func TestParse_Defaults(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "")

	cfg, err := Parse([]byte(`facts_dir = "facts"`))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LoggingLevel)
	assert.Equal(t, models.Animals, cfg.AnimalFactTypes)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.False(t, cfg.FlaggingEnabled)
	assert.Empty(t, cfg.Audit.DatabaseDSN)
}

func TestParse_ServerAddressOverride(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "localhost:1234")

	cfg, err := Parse([]byte(`facts_dir = "facts"`))
	require.NoError(t, err)
	assert.Equal(t, "localhost:1234", cfg.Server.Addr)
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name       string
		doc        string
		wantSubstr string
	}{
		{"malformed", `facts_dir = `, "error while parsing config file"},
		{"unknown key", "facts_dir = \"f\"\nbogus = 1", "error while parsing config file"},
		{"unknown animal", "facts_dir = \"f\"\nanimal_fact_types = [\"Bird\"]", "error while parsing config file"},
		{"missing facts dir", `logging_level = "info"`, "invalid config"},
		{"bad level", "facts_dir = \"f\"\nlogging_level = \"loud\"", "invalid config"},
		{"bad port", "facts_dir = \"f\"\n[server]\nip = \"127.0.0.1\"\nport = 70000", "invalid config"},
		{"bad ip", "facts_dir = \"f\"\n[server]\nip = \"nope\"\nport = 80", "invalid config"},
		{"cert without key", "facts_dir = \"f\"\n[server]\nip = \"127.0.0.1\"\nport = 80\ntls_cert = \"c.pem\"", "invalid config"},
		{"admin without key", "facts_dir = \"f\"\n[[admins]]\nname = \"a\"", "invalid config"},
		{"flagger without location", "facts_dir = \"f\"\n[[flaggers]]\nkey = \"k\"", "invalid config"},
		{"bad duration", "facts_dir = \"f\"\n[audit]\nretention = \"soon\"", "error while parsing config file"},
		{"zero retention", "facts_dir = \"f\"\n[audit]\ndatabase_dsn = \"x\"\nretention = \"0s\"", "audit retention"},
		{"zero timeout", "facts_dir = \"f\"\n[audit]\ndatabase_dsn = \"x\"\ntimeout = \"0s\"", "timeout must be positive"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantSubstr)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(fullConfig), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./facts", cfg.FactsDir)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error while reading config file")
}

func TestResolvePath(t *testing.T) {
	t.Setenv("CONFIG", "")
	assert.Equal(t, DefaultPath, ResolvePath(""))
	assert.Equal(t, "custom.toml", ResolvePath("custom.toml"))

	t.Setenv("CONFIG", "/etc/animals.toml")
	assert.Equal(t, "/etc/animals.toml", ResolvePath("custom.toml"))
}
