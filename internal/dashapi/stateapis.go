package dashapi

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Satyasy/smart-home-recognition-iot/internal/models"
)

// StateExtView is the external view of the merged snapshot
type StateExtView struct {
	models.Snapshot
}

func (v *StateExtView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (s *Server) apiStateGet(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	render.Render(w, r, &StateExtView{snap})
}

// LogExtView is the external view of one access-log row
type LogExtView struct {
	Time       string  `json:"time"`
	Date       string  `json:"date"`
	Method     string  `json:"method"`
	User       string  `json:"user"`
	Status     string  `json:"status"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence,omitempty"`
}

func (v *LogExtView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (s *Server) apiLogsGet(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()

	outs := []render.Renderer{}
	for _, e := range snap.Logs {
		o := &LogExtView{
			Time:       e.Time,
			Date:       e.Date,
			Method:     e.Method,
			User:       e.User,
			Status:     e.Status,
			Type:       e.Type,
			Confidence: e.Confidence,
		}
		outs = append(outs, o)
	}

	render.RenderList(w, r, outs)
}

// HealthExtView reports daemon liveness plus per-endpoint connectivity
type HealthExtView struct {
	Status       string                         `json:"status"`
	Backend      models.BackendHealth           `json:"backend"`
	Connectivity map[string]models.Connectivity `json:"connectivity"`
}

func (v *HealthExtView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (s *Server) apiHealthGet(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	render.Render(w, r, &HealthExtView{
		Status:       "healthy",
		Backend:      snap.Backend,
		Connectivity: snap.Connectivity,
	})
}

// UserExtView is the external view of one enrolled user
type UserExtView struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	RegisteredAt string `json:"registered_at"`
	Status       string `json:"status"`
}

func (v *UserExtView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (s *Server) apiUsersGet(w http.ResponseWriter, r *http.Request) {
	users, err := s.backend.Users(r.Context())
	if err != nil {
		log.Printf("apiUsersGet: backend query failed (%v)", err)
		s.renderCommandErr(w, r, err)
		return
	}

	outs := []render.Renderer{}
	for _, u := range users {
		o := &UserExtView{
			UserID:       u.UserID,
			Name:         u.Name,
			Email:        u.Email,
			Phone:        u.Phone,
			RegisteredAt: u.RegisteredAt,
			Status:       u.Status,
		}
		outs = append(outs, o)
	}

	render.RenderList(w, r, outs)
}

func (s *Server) apiUserDelete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userid")
	if userID == "" {
		render.Render(w, r, s.httpErrInvalidRequest(errors.New("missing userid param")))
		return
	}

	if err := s.backend.DeleteUser(r.Context(), userID); err != nil {
		log.Printf("apiUserDelete: backend delete failed (%v)", err)
		s.renderCommandErr(w, r, err)
		return
	}

	render.Render(w, r, &CommandResultView{Success: true, Message: "user removed"})
}
