package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"messagesearch/internal/auth"
	"messagesearch/internal/domain"
	"messagesearch/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var conflictErr *domain.ConflictError
	var httpErr domain.HTTPError

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), map[string]interface{}{
			"error": "version/state conflict",
		})
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUpstream):
		httputil.RespondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &httpErr):
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requireRole checks the caller's roles and writes a 401/403 when the
// required role is missing. Returns the user ID when authorized.
func requireRole(w http.ResponseWriter, r *http.Request, role string) (string, bool) {
	claims := httputil.GetClaims(r)
	if claims == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	if !auth.HasRole(claims.Roles, role) {
		httputil.RespondError(w, http.StatusForbidden,
			fmt.Sprintf("role %q required", role))
		return "", false
	}
	return claims.GetUserID(), true
}

// parseIfMatch extracts the expected document version from the If-Match
// header. Transition endpoints require it; a missing or garbled header is a
// 400, a stale version surfaces later as a 409.
func parseIfMatch(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" {
		return 0, errors.New("If-Match header with the expected version is required")
	}
	raw = strings.Trim(raw, `"`)
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version < 1 {
		return 0, fmt.Errorf("invalid If-Match version %q", raw)
	}
	return version, nil
}

// queryInt parses an integer query parameter, falling back to def when
// absent or malformed.
func queryInt(r *http.Request, key string, def int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return def
}
