package http

import (
	"errors"
	"net/http"

	"github.com/utafrali/TiaaDeals/pkg/httputil"
	"github.com/utafrali/TiaaDeals/pkg/validator"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// decodeJSON decodes and validates the request body into dst. On failure it
// writes the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decode(w, r, dst, false)
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decode(w, r, dst, true)
}

func decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	err := validator.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), dst, allowEmpty)
	switch {
	case err == nil:
		return true
	case errors.Is(err, validator.ErrMalformedBody):
		httputil.WriteErrorCode(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
	default:
		httputil.WriteValidationError(w, err)
	}
	return false
}
