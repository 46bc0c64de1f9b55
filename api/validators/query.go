package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/doneduardo/storefront/pkg/errors"
)

func queryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// ParseQueryInt returns fallback when key is absent and rejects values
// outside [lo, hi].
func ParseQueryInt(r *http.Request, key string, fallback, lo, hi int) (int, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be a whole number", key).WithDetail("field", key)
	}
	if n < lo || n > hi {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be between %d and %d", key, lo, hi).
			WithDetail("field", key).
			WithDetail("min", lo).
			WithDetail("max", hi)
	}
	return n, nil
}

func ParseQueryBool(r *http.Request, key string) (bool, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be true or false", key).WithDetail("field", key)
	}
	return b, nil
}

// QueryString is the sanitized value of key, cut to maxLen runes.
func QueryString(r *http.Request, key string, maxLen int) string {
	return SanitizeString(queryValue(r, key), maxLen)
}
