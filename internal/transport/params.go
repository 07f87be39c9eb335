package transport

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"merchant-desk/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// pathID parses the {id} URL parameter
func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// bodyID parses an id taken from a request body
func bodyID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(field, domain.MsgMalformedID)
	}
	return id, nil
}

// queryInt returns a positive integer query parameter or def
func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// queryTime parses an RFC3339 timestamp or a YYYY-MM-DD date in loc.
// An absent parameter yields the zero time. An unescaped "+" in the offset
// arrives as a space and is restored.
func queryTime(r *http.Request, key string, loc *time.Location) (time.Time, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, strings.Replace(raw, " ", "+", 1)); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}
