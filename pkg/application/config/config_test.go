package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "bootstrap.yml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestNewConfigDefaults(t *testing.T) {
	conf := NewConfig(writeConfig(t, "app:\n  name: test-sandbox\n"))

	assert.Equal(t, "test-sandbox", conf.GetString("app.name"))
	assert.Equal(t, "docker", conf.GetString("app.sandbox.mode"))
	assert.Equal(t, 5*time.Second, conf.GetDuration("app.sandbox.run_timeout"))
	assert.Equal(t, 1000, conf.GetInt("app.sandbox.queue_size"))
	assert.Equal(t, []string{"Files", "exec"}, conf.GetStringSlice("app.sandbox.denylist"))
	assert.Equal(t, "container-pool-thread-", conf.GetString("app.sandbox.docker.name_prefix"))
	assert.Positive(t, conf.GetInt("app.sandbox.workers"))
}

func TestNewConfigOverrides(t *testing.T) {
	conf := NewConfig(writeConfig(t, `
app:
  sandbox:
    mode: native
    workers: 3
    run_timeout: 2s
    denylist: [Runtime]
`))
	assert.Equal(t, "native", conf.GetString("app.sandbox.mode"))
	assert.Equal(t, 3, conf.GetInt("app.sandbox.workers"))
	assert.Equal(t, 2*time.Second, conf.GetDuration("app.sandbox.run_timeout"))
	assert.Equal(t, []string{"Runtime"}, conf.GetStringSlice("app.sandbox.denylist"))
}

func TestNewConfigMissingFilePanics(t *testing.T) {
	assert.Panics(t, func() { NewConfig(filepath.Join(t.TempDir(), "missing.yml")) })
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr bool
	}{
		{"ok", "app.name", "x", false},
		{"bad mode", "app.sandbox.mode", "vm", true},
		{"zero workers", "app.sandbox.workers", 0, true},
		{"negative queue", "app.sandbox.queue_size", -1, true},
		{"zero timeout", "app.sandbox.run_timeout", "0s", true},
		{"zero compile timeout", "app.sandbox.compile_timeout", "0s", true},
		{"empty root", "app.sandbox.workspace_root", "", true},
		{"empty secret", "app.auth.secret", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := viper.New()
			setDefaults(conf)
			conf.Set(tt.key, tt.value)
			err := Validate(conf)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
