package httputil

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ParseParamString reads a parameter from the query string or, for form
// posts, the request body. Surrounding whitespace is trimmed.
func ParseParamString(r *http.Request, key string, defaultVal string) string {
	val := strings.TrimSpace(r.FormValue(key))
	if val == "" {
		return defaultVal
	}
	return val
}

// ParseParamInt reads an integer parameter the same way as ParseParamString.
func ParseParamInt(r *http.Request, key string, defaultVal int) (int, error) {
	str := strings.TrimSpace(r.FormValue(key))
	if str == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %s", key, str)
	}
	return val, nil
}

// ParseParamBool reads a boolean parameter the same way as ParseParamString.
func ParseParamBool(r *http.Request, key string, defaultVal bool) (bool, error) {
	str := strings.TrimSpace(r.FormValue(key))
	if str == "" {
		return defaultVal, nil
	}
	val, err := strconv.ParseBool(str)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for %s: %s", key, str)
	}
	return val, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("invalid authorization header format")
	}
	return strings.TrimSpace(parts[1]), nil
}
