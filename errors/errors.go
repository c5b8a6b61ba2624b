package mailgate_errors

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidEnvelope  = errors.New("invalid envelope")
	ErrInvalidQuery     = errors.New("invalid query")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrUnknownDomain    = errors.New("unknown receiving domain")
	ErrNotFound         = errors.New("not found")
	ErrStorageFailure   = errors.New("storage failure")
)

// HTTPStatus maps an error from the ingestion or query path to its response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidEnvelope), errors.Is(err, ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrUnknownDomain), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text returned to callers. Internal failures never expose their cause.
func PublicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}
