package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	// Create a temp config file
	content := `
server:
  host: "127.0.0.1"
  port: 8080

redis:
  addr: "redis:6379"
  password: "secret"
  db: 1

game:
  discussion_time: 180
  speedrun_discussion_time: 90
  voting_time: 45
  room_timeout: 15
  initial_hand_size: 5
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	err := os.WriteFile(configPath, []byte(content), 0o600)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, 3*time.Minute, cfg.Game.DiscussionDuration(false))
	assert.Equal(t, 90*time.Second, cfg.Game.DiscussionDuration(true))
	assert.Equal(t, 45*time.Second, cfg.Game.VotingDuration())
	assert.Equal(t, 15*time.Minute, cfg.Game.RoomTimeoutDuration())
	assert.Equal(t, 5, cfg.Game.InitialHandSize)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	err := os.WriteFile(configPath, []byte("server:\n  port: 9000\n"), 0o600)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Game.DiscussionDuration(false))
	assert.Equal(t, 2*time.Minute, cfg.Game.DiscussionDuration(true))
	assert.Equal(t, time.Minute, cfg.Game.VotingDuration())
	assert.Equal(t, 7, cfg.Game.InitialHandSize)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, 1780, cfg.Server.Port)
	assert.Equal(t, 300, cfg.Game.DiscussionTime)
	assert.Equal(t, 60, cfg.Game.VotingTime)
	assert.Equal(t, 30, cfg.Game.RoomTimeout)
}
