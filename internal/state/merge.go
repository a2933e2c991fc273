package state

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Satyasy/smart-home-recognition-iot/internal/devices"
	"github.com/Satyasy/smart-home-recognition-iot/internal/models"
)

// DefaultProximityCM is the distance below which an object counts as detected.
// The threshold is exclusive on the detected side: 29.9 detects, 30.0 does not.
const DefaultProximityCM = 30.0

// Pure merge functions over one raw payload. Firmware responses can be
// partial; unknown or missing fields default to 0/false/empty instead of
// propagating upstream nulls. No I/O happens here.

// MergeSensors folds a raw sensor payload into a new sensor snapshot
func MergeSensors(prev models.SensorSnapshot, raw map[string]any, at time.Time, proximityCM float64) models.SensorSnapshot {
	if raw == nil {
		return prev
	}
	if proximityCM <= 0 {
		proximityCM = DefaultProximityCM
	}

	next := models.SensorSnapshot{
		Temperature: models.SensorReading{Value: toF64(raw["temperature"]), ObservedAt: at},
		Humidity:    models.SensorReading{Value: toF64(raw["humidity"]), ObservedAt: at},
		Light:       models.SensorReading{Value: toF64(raw["light"]), ObservedAt: at},
		Distance:    models.SensorReading{Value: toF64(raw["distance"]), ObservedAt: at},
	}
	next.ObjectDetected = next.Distance.Value < proximityCM
	return next
}

// StatusDelta is the door/actuator portion of a raw status payload
type StatusDelta struct {
	Door      models.DoorState
	Face      models.FaceObservation
	LampKnown bool
	LampOn    bool
}

// MergeStatus folds a raw device status payload. The door_locked boolean is
// the single source of truth for the two-position actuator; the angle is
// derived from it, never read from the payload.
func MergeStatus(raw map[string]any) StatusDelta {
	locked := toBool(raw["door_locked"])
	angle := models.AngleUnlocked
	if locked {
		angle = models.AngleLocked
	}

	d := StatusDelta{
		Door: models.DoorState{
			Locked: locked,
			Angle:  angle,
			Source: models.DoorSourceDevice,
		},
		Face: models.FaceObservation{
			Name:       toStr(raw["last_user"]),
			Confidence: toF64(raw["last_confidence"]),
		},
	}
	d.Face.Detected = d.Face.Name != ""

	if _, ok := raw["lamp_on"]; ok {
		d.LampKnown = true
		d.LampOn = toBool(raw["lamp_on"])
	}
	return d
}

// MergeLogs converts the authoritative backend log feed into the bounded
// recent-log view, most-recent-first, at most max entries.
func MergeLogs(raw []devices.RawLogEntry, max int) []models.AccessLogEntry {
	sorted := make([]devices.RawLogEntry, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp > sorted[j].Timestamp
	})

	if max > 0 && len(sorted) > max {
		sorted = sorted[:max]
	}

	out := make([]models.AccessLogEntry, 0, len(sorted))
	for _, e := range sorted {
		entry := models.AccessLogEntry{
			Method:     "Face Recognition",
			User:       e.UserName,
			Confidence: e.Confidence,
		}
		if entry.User == "" {
			entry.User = "Unknown"
		}
		if e.Authorized {
			entry.Status = models.LogStatusSuccess
			entry.Type = models.LogTypeEntry
		} else {
			entry.Status = models.LogStatusFailed
			entry.Type = models.LogTypeAlert
		}
		if ts, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
			entry.Time = ts.Format("15:04:05")
			entry.Date = ts.Format("2006-01-02")
		} else {
			entry.Time = e.Timestamp
		}
		out = append(out, entry)
	}
	return out
}

// MergeCamera folds a raw camera status payload
func MergeCamera(raw map[string]any, streamURL string) models.CameraStatus {
	return models.CameraStatus{
		Device:    toStr(raw["device"]),
		IP:        toStr(raw["ip"]),
		RSSI:      int(toF64(raw["rssi"])),
		Uptime:    int64(toF64(raw["uptime"])),
		StreamURL: streamURL,
	}
}

// MergeHealth folds a backend health response
func MergeHealth(h *devices.HealthResponse) models.BackendHealth {
	if h == nil {
		return models.BackendHealth{}
	}
	return models.BackendHealth{
		Online: h.Status == "healthy",
		Model:  h.Model,
	}
}

// Numeric fields arrive as float, int or string depending on firmware build;
// coerce them all, defaulting to 0.
func toF64(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return 0
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	}
	return false
}

func toStr(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
