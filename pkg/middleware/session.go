package middleware

import (
	"net/http"

	"github.com/Sahilbhanushali/GharGrocerProd/pkg/httputil"
)

// SessionChecker reports whether a customer is currently signed in.
type SessionChecker interface {
	IsAuthenticated() bool
}

// RequireSession rejects requests with 401 while no customer is signed in.
func RequireSession(s SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !s.IsAuthenticated() {
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "sign in required"},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
