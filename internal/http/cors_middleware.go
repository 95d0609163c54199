package httpx

import "net/http"

// CORSPolicy describes the cross-origin headers applied to every response.
// The dashboard that consumes this API is served from arbitrary origins,
// so the default policy allows all of them.
type CORSPolicy struct {
	AllowedOrigin string
}

const (
	corsAllowMethods = "POST, GET, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
)

// withCORS stamps the policy headers on every response and short-circuits
// OPTIONS preflight requests with 204 before method dispatch sees them.
func (r *Router) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		origin := r.cors.AllowedOrigin
		if origin == "" {
			origin = "*"
		}
		headers := w.Header()
		headers.Set("Access-Control-Allow-Origin", origin)
		headers.Set("Access-Control-Allow-Methods", corsAllowMethods)
		headers.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, req)
	}
}
