package dashapi

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/Satyasy/smart-home-recognition-iot/internal/devices"
)

/* Common */
type HttpErrResponse struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	ErrorText      string `json:"error"`
}

func (e *HttpErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func (s *Server) httpErrUnexpected(err error) render.Renderer {
	return &HttpErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		ErrorText:      "Internal Server Error",
	}
}

func (s *Server) httpErrInvalidRequest(err error) render.Renderer {
	return &HttpErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		ErrorText:      err.Error(),
	}
}

func (s *Server) httpErrUpstream(err error) render.Renderer {
	return &HttpErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadGateway,
		ErrorText:      "Device Unreachable",
	}
}

// renderCommandErr maps the failure taxonomy onto HTTP responses: validation
// is the caller's fault, transport failures mean the device is unreachable.
func (s *Server) renderCommandErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case devices.IsTransport(err):
		render.Render(w, r, s.httpErrUpstream(err))
	case errors.Is(err, devices.ErrValidation):
		render.Render(w, r, s.httpErrInvalidRequest(err))
	default:
		render.Render(w, r, s.httpErrUnexpected(err))
	}
}
