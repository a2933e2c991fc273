package locksync

import (
	"github.com/Satyasy/smart-home-recognition-iot/internal/dashapi"
)

// Config defines the configuration structure for the synchronizer daemon.
// Every cadence and delay is configuration, not a hardcoded constant.
type Config struct {
	Backend struct {
		Endpoint  string `mapstructure:"endpoint"`
		TimeoutMs int    `mapstructure:"timeout_ms"`
	} `mapstructure:"backend"`
	LockController struct {
		Endpoint  string `mapstructure:"endpoint"`
		TimeoutMs int    `mapstructure:"timeout_ms"`
		ApiPin    string `mapstructure:"api_pin"`
	} `mapstructure:"lock_controller"`
	Camera struct {
		Endpoint  string `mapstructure:"endpoint"`
		TimeoutMs int    `mapstructure:"timeout_ms"`
	} `mapstructure:"camera"`
	Poll struct {
		HealthIntervalMs int `mapstructure:"health_interval_ms"`
		LogsIntervalMs   int `mapstructure:"logs_interval_ms"`
		DeviceIntervalMs int `mapstructure:"device_interval_ms"`
		CameraIntervalMs int `mapstructure:"camera_interval_ms"`
		LogLimit         int `mapstructure:"log_limit"`
	} `mapstructure:"poll"`
	Door struct {
		RelockDelayMs   int `mapstructure:"relock_delay_ms"`
		AlertDurationMs int `mapstructure:"alert_duration_ms"`
		PinLength       int `mapstructure:"pin_length"`
	} `mapstructure:"door"`
	Sensors struct {
		ProximityThresholdCm float64 `mapstructure:"proximity_threshold_cm"`
	} `mapstructure:"sensors"`
	Events struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"events"`
	Http dashapi.Config `mapstructure:"http"`
}
