package locksync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Satyasy/smart-home-recognition-iot/internal/models"
)

func TestNewRequiresEndpoints(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	var cfg Config
	cfg.Backend.Endpoint = "localhost:5000"
	_, err = New(cfg)
	assert.Error(t, err, "lock controller endpoint is mandatory")
}

func TestNewWiresDefaults(t *testing.T) {
	var cfg Config
	cfg.Backend.Endpoint = "localhost:5000"
	cfg.LockController.Endpoint = "192.168.1.50"

	s, err := New(cfg)
	require.NoError(t, err)

	snap := s.Store().Snapshot()
	assert.True(t, snap.Door.Locked)
	assert.Equal(t, models.ConnConnecting, snap.Connectivity[models.EndpointLock].Status)
	assert.Nil(t, s.camera, "camera is optional")
	assert.Nil(t, s.feed, "event feed off by default")
}

func TestNewWiresOptionalComponents(t *testing.T) {
	var cfg Config
	cfg.Backend.Endpoint = "localhost:5000"
	cfg.LockController.Endpoint = "192.168.1.50"
	cfg.Camera.Endpoint = "192.168.1.60"
	cfg.Events.Enabled = true

	s, err := New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, s.camera)
	assert.NotNil(t, s.feed)
}

func TestMsFallsBackToDefault(t *testing.T) {
	assert.Equal(t, 5*time.Second, ms(0, 5000))
	assert.Equal(t, 5*time.Second, ms(-1, 5000))
	assert.Equal(t, 250*time.Millisecond, ms(250, 5000))
}
