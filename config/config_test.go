package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("AUTOPARSER_ENV")
	os.Unsetenv("AUTOPARSER_LOG")
	cfg := Load()
	assert.Equal(t, "production", cfg.Mode)
	assert.Equal(t, "TEXT", cfg.LogMode)
	assert.Equal(t, 100, cfg.LogMaxSize)
	assert.Equal(t, 7, cfg.LogMaxAge)
	assert.Equal(t, 3, cfg.LogMaxBackups)
	assert.True(t, cfg.LogLocalTime)
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	os.Setenv("AUTOPARSER_ENV", "development")
	defer os.Unsetenv("AUTOPARSER_ENV")

	cfg := Load()
	assert.Equal(t, "development", cfg.Mode)
}

func TestIsDevelopment(t *testing.T) {
	Conf.Mode = "development"
	assert.True(t, IsDevelopment())
	Conf.Mode = "production"
	assert.False(t, IsDevelopment())
}

func TestOpenLogNoopWithoutPath(t *testing.T) {
	Conf = Config{}
	CloseLog()
	OpenLog()
	assert.Nil(t, LogOutput)
}
