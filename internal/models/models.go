package models

import (
	"time"
)

// Endpoint identifiers used for connectivity tracking. Each one maps to an
// externally-owned HTTP service the synchronizer polls or commands.
const (
	EndpointBackend = "backend"
	EndpointLock    = "lock_controller"
	EndpointCamera  = "camera"
)

// Connectivity status values. An endpoint starts out connecting and moves to
// online/offline on its first observed result; it never goes back to connecting.
const (
	ConnConnecting = "connecting"
	ConnOnline     = "online"
	ConnOffline    = "offline"
)

// Connectivity tracks reachability of one endpoint
type Connectivity struct {
	Status        string    `json:"status"`
	LastSuccessAt time.Time `json:"last_success_at,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
}

// Door state sources. Optimistic state is written by the orchestrator between
// issuing a command and the next device poll; device state always wins.
const (
	DoorSourceDevice     = "device"
	DoorSourceOptimistic = "optimistic"
)

// Servo positions for the two-position actuator
const (
	AngleLocked   = 0
	AngleUnlocked = 180
)

// DoorState represents the two-position lock actuator
type DoorState struct {
	Locked bool   `json:"locked"`
	Angle  int    `json:"angle"`
	Source string `json:"source"`
}

// Door command phases owned by the orchestrator
const (
	PhaseLocked    = "locked"
	PhaseUnlocking = "unlocking"
	PhaseUnlocked  = "unlocked"
	PhaseLocking   = "locking"
)

// SensorReading is one last-known sensor value and when it was observed
type SensorReading struct {
	Value      float64   `json:"value"`
	ObservedAt time.Time `json:"observed_at,omitempty"`
}

// SensorSnapshot holds the last-known environment readings from the lock
// controller. Fields are independently stale-tolerant: a failed poll leaves
// them untouched.
type SensorSnapshot struct {
	Temperature    SensorReading `json:"temperature"`
	Humidity       SensorReading `json:"humidity"`
	Light          SensorReading `json:"light"`
	Distance       SensorReading `json:"distance"`
	ObjectDetected bool          `json:"object_detected"`
}

// Access log entry classification
const (
	LogStatusSuccess = "success"
	LogStatusFailed  = "failed"

	LogTypeEntry = "entry"
	LogTypeAlert = "alert"
	LogTypeLamp  = "lamp"
)

// AccessLogEntry is one row of the recent-access view. Entries come from the
// backend log feed or are synthesized locally for instant feedback on manual
// actions; synthesized entries are superseded by the next authoritative poll.
type AccessLogEntry struct {
	Time       string  `json:"time"`
	Date       string  `json:"date"`
	Method     string  `json:"method"`
	User       string  `json:"user"`
	Status     string  `json:"status"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence,omitempty"`

	Synthesized bool `json:"-"`
}

// FaceObservation is the last recognition outcome reported by the lock controller
type FaceObservation struct {
	Detected   bool    `json:"detected"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// LEDState mirrors the controller's red/green indicator pair
type LEDState struct {
	Red   bool `json:"red"`
	Green bool `json:"green"`
}

// AlertState is the orthogonal buzzer sub-state, independent of door state
type AlertState struct {
	Active bool      `json:"active"`
	Reason string    `json:"reason,omitempty"`
	Since  time.Time `json:"since,omitempty"`
}

// CameraStatus is the last-known state of the camera module
type CameraStatus struct {
	Device    string `json:"device,omitempty"`
	IP        string `json:"ip,omitempty"`
	RSSI      int    `json:"rssi,omitempty"`
	Uptime    int64  `json:"uptime,omitempty"`
	StreamURL string `json:"stream_url,omitempty"`
}

// BackendHealth is the backend liveness + model identity from /api/health
type BackendHealth struct {
	Online bool   `json:"online"`
	Model  string `json:"model,omitempty"`
}

// Snapshot is the merged, current view of all device/sensor/connectivity
// state. The state.Store is its only writer.
type Snapshot struct {
	Door         DoorState               `json:"door"`
	Phase        string                  `json:"phase"`
	Sensors      SensorSnapshot          `json:"sensors"`
	Face         FaceObservation         `json:"face"`
	LED          LEDState                `json:"led"`
	Alert        AlertState              `json:"alert"`
	LampOn       bool                    `json:"lamp_on"`
	Camera       CameraStatus            `json:"camera"`
	Backend      BackendHealth           `json:"backend"`
	Connectivity map[string]Connectivity `json:"connectivity"`
	Logs         []AccessLogEntry        `json:"logs"`
	UpdatedAt    time.Time               `json:"updated_at"`
}
