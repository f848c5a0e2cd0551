package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"bloglist-server/internal/service"
	"bloglist-server/pkg/response"
)

const (
	msgInvalidBody = "Invalid request body"
	msgInternal    = "internal server error"
)

// writeServiceError renders err as the status its kind maps to. Errors that
// are not part of the service taxonomy are logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		response.BadRequest(w, verr.Message)
	case errors.Is(err, service.ErrUsernameTaken):
		response.BadRequest(w, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(w, err.Error())
	case errors.Is(err, service.ErrAccessDenied):
		response.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrBlogNotFound):
		response.NotFound(w, err.Error())
	default:
		log.Printf("[%s] %s: %v", r.Method, r.URL.Path, err)
		response.InternalError(w, msgInternal)
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
