package dashapi

import (
	"net/http"

	"github.com/go-chi/render"
	log "github.com/sirupsen/logrus"
)

// CommandResultView is the generic command acknowledgement
type CommandResultView struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (v *CommandResultView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type doorCommandRequest struct {
	Method string `json:"method"`
	User   string `json:"user"`
}

func (s *Server) apiDoorUnlock(w http.ResponseWriter, r *http.Request) {
	req := doorCommandRequest{}
	render.DecodeJSON(r.Body, &req)
	if req.Method == "" {
		req.Method = "Manual"
	}
	if req.User == "" {
		req.User = "Dashboard User"
	}

	if err := s.orch.Unlock(r.Context(), req.Method, req.User); err != nil {
		log.Printf("apiDoorUnlock: %v", err)
		s.renderCommandErr(w, r, err)
		return
	}
	render.Render(w, r, &CommandResultView{Success: true, Message: "door unlocked"})
}

func (s *Server) apiDoorLock(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.Lock(r.Context()); err != nil {
		log.Printf("apiDoorLock: %v", err)
		s.renderCommandErr(w, r, err)
		return
	}
	render.Render(w, r, &CommandResultView{Success: true, Message: "door locked"})
}

// PinResultView reports the PIN authorization outcome. Denial is a normal
// 200 response, never a transport error.
type PinResultView struct {
	Authorized bool   `json:"authorized"`
	User       string `json:"user,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (v *PinResultView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (s *Server) apiPinVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pin string `json:"pin"`
	}
	render.DecodeJSON(r.Body, &req)

	res, err := s.orch.VerifyPIN(r.Context(), req.Pin)
	if err != nil {
		log.Printf("apiPinVerify: %v", err)
		s.renderCommandErr(w, r, err)
		return
	}
	render.Render(w, r, &PinResultView{
		Authorized: res.Authorized,
		User:       res.User,
		Message:    res.Message,
	})
}

// LampResultView reports the relay state after a lamp command
type LampResultView struct {
	Success bool `json:"success"`
	LampOn  bool `json:"lamp_on"`
}

func (v *LampResultView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (s *Server) apiLamp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	render.DecodeJSON(r.Body, &req)

	on, err := s.orch.ToggleLamp(r.Context(), req.Action)
	if err != nil {
		log.Printf("apiLamp: %v", err)
		s.renderCommandErr(w, r, err)
		return
	}
	render.Render(w, r, &LampResultView{Success: true, LampOn: on})
}

// RegisterResultView is the enrollment outcome with a user-facing message
type RegisterResultView struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

func (v *RegisterResultView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (s *Server) apiRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Image string `json:"image"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	render.DecodeJSON(r.Body, &req)

	res, err := s.orch.RegisterUser(r.Context(), req.Image, req.Name, req.Email, req.Phone)
	if err != nil {
		log.Printf("apiRegister: %v", err)
		s.renderCommandErr(w, r, err)
		return
	}
	render.Render(w, r, &RegisterResultView{
		Success: res.Success,
		Message: res.Message,
		UserID:  res.UserID,
	})
}

func (s *Server) apiAlert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	render.DecodeJSON(r.Body, &req)
	if req.Reason == "" {
		req.Reason = "Manual Alert"
	}

	s.orch.TriggerAlert(r.Context(), req.Reason)
	render.Render(w, r, &CommandResultView{Success: true, Message: "alert triggered"})
}
