package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("HELPLY_HTTP_PORT", "9001")
	t.Setenv("HELPLY_CORS_ORIGINS", "https://a.example,https://b.example")

	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "9001", env.HTTPPort)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, env.CORSOrigins)
	assert.Equal(t, "mock", env.CRMEnv.Type)
	assert.Equal(t, "gemini-2.0-flash-lite", env.GeminiModel)
	assert.Equal(t, 20*time.Second, env.AIEnv.Timeout)
	assert.True(t, env.Watch)
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]struct {
		level string
		exp   string
	}{
		"Debug.":   {level: "debug", exp: "DEBUG"},
		"Warn.":    {level: "WARN", exp: "WARN"},
		"Invalid.": {level: "loud", exp: "INFO"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			e := &BaseEnv{LogLevel: test.level}
			assert.Equal(t, test.exp, e.SlogLevel().String())
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nHELPLY_TEST_A=\"quoted\"\nexport HELPLY_TEST_B=plain\nHELPLY_TEST_C=from-file\nbroken-line\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("HELPLY_TEST_C", "from-env")
	t.Setenv("HELPLY_TEST_A", "")
	os.Unsetenv("HELPLY_TEST_A")
	t.Setenv("HELPLY_TEST_B", "")
	os.Unsetenv("HELPLY_TEST_B")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "quoted", os.Getenv("HELPLY_TEST_A"))
	assert.Equal(t, "plain", os.Getenv("HELPLY_TEST_B"))
	assert.Equal(t, "from-env", os.Getenv("HELPLY_TEST_C"))

	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing")))
}

type memSettings map[string]string

func (m memSettings) GetSetting(_ context.Context, key string) (string, error) { return m[key], nil }
func (m memSettings) SetSetting(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func TestSettingsPersist(t *testing.T) {
	ctx := context.Background()
	store := memSettings{AISettingKey: "true"}

	s := NewSettings(false)
	require.NoError(t, s.Persist(ctx, store))
	assert.True(t, s.AIEnabled())

	require.NoError(t, s.SetAIEnabled(ctx, false))
	assert.False(t, s.AIEnabled())
	assert.Equal(t, "false", store[AISettingKey])

	var nilSettings *Settings
	assert.False(t, nilSettings.AIEnabled())
}
