package api

import (
	"net/http"
	"strings"
)

// requireUser extracts the acting user from the X-User-ID header and
// puts it on the request context. Authentication itself is an upstream
// concern; this engine only needs to know whose progression record a
// submission targets.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if userID == "" {
			respondError(w, http.StatusBadRequest, "missing_user", "X-User-ID header is required", nil)
			return
		}

		ctx := ContextWithUser(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
