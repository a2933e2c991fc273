package dashapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Satyasy/smart-home-recognition-iot/internal/devices"
	"github.com/Satyasy/smart-home-recognition-iot/internal/models"
	"github.com/Satyasy/smart-home-recognition-iot/internal/orchestrator"
	"github.com/Satyasy/smart-home-recognition-iot/internal/state"
)

func fakeLockHandler(fail bool) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if fail {
			http.Error(w, `{"success":false}`, http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "state": "ok", "lamp_on": true})
	})
	return mux
}

func fakeBackendHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/verify-pin", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["pin"] == "0000" {
			json.NewEncoder(w).Encode(map[string]any{"authorized": true, "user": "Admin"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"authorized": false, "message": "Invalid PIN"})
	})
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"users": []map[string]any{
				{"user_id": "u1", "name": "Alice", "status": "active"},
			},
		})
	})
	mux.HandleFunc("/api/user/u1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})
	return mux
}

func newTestServer(t *testing.T, lockFails bool) (*httptest.Server, *state.Store) {
	t.Helper()

	lockSrv := httptest.NewServer(fakeLockHandler(lockFails))
	backSrv := httptest.NewServer(fakeBackendHandler())
	t.Cleanup(lockSrv.Close)
	t.Cleanup(backSrv.Close)

	st := state.NewStore(0, 0)
	lock := devices.NewLockController(lockSrv.URL, time.Second)
	backend := devices.NewBackend(backSrv.URL, time.Second)
	orch := orchestrator.New(orchestrator.Config{
		RelockDelay:   time.Hour,
		AlertDuration: time.Hour,
	}, st, lock, backend)
	t.Cleanup(orch.Close)

	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	s := New(Config{ServerName: "test"}, st, orch, backend, hub)
	api := httptest.NewServer(s.router())
	t.Cleanup(api.Close)
	return api, st
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body any, out any) int {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestStateEndpoint(t *testing.T) {
	api, st := newTestServer(t, false)
	st.ApplySensors(map[string]any{"temperature": 25.5, "distance": 15.5}, nil)

	var snap models.Snapshot
	code := getJSON(t, api.URL+"/api/state", &snap)

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, snap.Door.Locked)
	assert.Equal(t, models.PhaseLocked, snap.Phase)
	assert.Equal(t, 25.5, snap.Sensors.Temperature.Value)
	assert.True(t, snap.Sensors.ObjectDetected)
	assert.Equal(t, models.ConnOnline, snap.Connectivity[models.EndpointLock].Status)
}

func TestDoorUnlockAndLock(t *testing.T) {
	api, st := newTestServer(t, false)

	var res CommandResultView
	code := postJSON(t, api.URL+"/api/door/unlock", map[string]string{}, &res)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, res.Success)

	snap := st.Snapshot()
	assert.Equal(t, models.PhaseUnlocked, snap.Phase)
	require.NotEmpty(t, snap.Logs)
	// empty request body falls back to the manual defaults
	assert.Equal(t, "Manual", snap.Logs[0].Method)
	assert.Equal(t, "Dashboard User", snap.Logs[0].User)

	code = postJSON(t, api.URL+"/api/door/lock", map[string]string{}, &res)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.PhaseLocked, st.Snapshot().Phase)
}

func TestDoorUnlockDeviceDown(t *testing.T) {
	api, _ := newTestServer(t, true)

	var res HttpErrResponse
	code := postJSON(t, api.URL+"/api/door/unlock", map[string]string{}, &res)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "Device Unreachable", res.ErrorText)
}

func TestPinVerify(t *testing.T) {
	api, st := newTestServer(t, false)

	var res PinResultView
	code := postJSON(t, api.URL+"/api/pin/verify", map[string]string{"pin": "9999"}, &res)
	assert.Equal(t, http.StatusOK, code, "denial is a 200, not an error")
	assert.False(t, res.Authorized)
	assert.True(t, st.Snapshot().Alert.Active)

	code = postJSON(t, api.URL+"/api/pin/verify", map[string]string{"pin": "0000"}, &res)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, res.Authorized)
	assert.Equal(t, "Admin", res.User)

	code = postJSON(t, api.URL+"/api/pin/verify", map[string]string{"pin": "12"}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLampEndpoint(t *testing.T) {
	api, st := newTestServer(t, false)

	var res LampResultView
	code := postJSON(t, api.URL+"/api/lamp", map[string]string{"action": "toggle"}, &res)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, res.LampOn)
	assert.True(t, st.Snapshot().LampOn)

	code = postJSON(t, api.URL+"/api/lamp", map[string]string{"action": "blink"}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAlertEndpoint(t *testing.T) {
	api, st := newTestServer(t, false)

	var res CommandResultView
	code := postJSON(t, api.URL+"/api/alert", map[string]string{}, &res)
	assert.Equal(t, http.StatusOK, code)

	snap := st.Snapshot()
	assert.True(t, snap.Alert.Active)
	assert.Equal(t, "Manual Alert", snap.Alert.Reason)
}

func TestLogsEndpoint(t *testing.T) {
	api, st := newTestServer(t, false)
	st.ApplyLogs([]devices.RawLogEntry{
		{Timestamp: "2026-08-28T10:00:00Z", Authorized: true, UserName: "Alice", Confidence: 97.2},
	}, nil)

	var logs []LogExtView
	code := getJSON(t, api.URL+"/api/logs", &logs)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, logs, 1)
	assert.Equal(t, "Alice", logs[0].User)
	assert.Equal(t, models.LogStatusSuccess, logs[0].Status)
}

func TestHealthEndpoint(t *testing.T) {
	api, st := newTestServer(t, false)
	st.ApplyHealth(&devices.HealthResponse{Status: "healthy", Model: "Facenet512"}, nil)

	var res HealthExtView
	code := getJSON(t, api.URL+"/api/health", &res)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", res.Status)
	assert.True(t, res.Backend.Online)
	assert.Equal(t, models.ConnOnline, res.Connectivity[models.EndpointBackend].Status)
}

func TestUsersEndpoints(t *testing.T) {
	api, _ := newTestServer(t, false)

	var users []UserExtView
	code := getJSON(t, api.URL+"/api/users", &users)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, users, 1)
	assert.Equal(t, "Alice", users[0].Name)

	req, err := http.NewRequest(http.MethodDelete, api.URL+"/api/user/u1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBasicAuthGuard(t *testing.T) {
	lockSrv := httptest.NewServer(fakeLockHandler(false))
	backSrv := httptest.NewServer(fakeBackendHandler())
	t.Cleanup(lockSrv.Close)
	t.Cleanup(backSrv.Close)

	st := state.NewStore(0, 0)
	orch := orchestrator.New(orchestrator.Config{}, st,
		devices.NewLockController(lockSrv.URL, time.Second),
		devices.NewBackend(backSrv.URL, time.Second))
	t.Cleanup(orch.Close)

	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	s := New(Config{
		ServerName: "test",
		BasicAuth:  true,
		Users:      []ConfigUser{{User: "admin", Password: "secret"}},
	}, st, orch, devices.NewBackend(backSrv.URL, time.Second), hub)
	api := httptest.NewServer(s.router())
	t.Cleanup(api.Close)

	resp, err := http.Get(api.URL + "/api/state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, api.URL+"/api/state", nil)
	require.NoError(t, err)
	req.SetBasicAuth("admin", "secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
