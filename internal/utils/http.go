package utils

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

var ErrBadID = errors.New("invalid id")

// ParseID reads a positive integer route parameter.
func ParseID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrBadID
	}
	return id, nil
}

// FormValue returns a trimmed form field.
func FormValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// NoCache keeps browsers from caching pages that show session state.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

// ClientIP returns the host part of RemoteAddr. Forwarding headers only count
// when chi's RealIP middleware is mounted, which happens behind a trusted proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
