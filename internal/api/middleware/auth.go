package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"codequest/internal/common"
	"codequest/internal/common/security"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const UserIDCtxKey contextKey = "userID"

// TokenFromSessionCookie finds the signed session token in the HTTP-only
// cookie set at login. The Authorization header is accepted as a fallback by
// the verifier chain.
func TokenFromSessionCookie(r *http.Request) string {
	cookie, err := r.Cookie(security.SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Verifier parses and validates the session token from the cookie or the
// Authorization header, placing the result in the request context.
func Verifier(next http.Handler) http.Handler {
	return jwtauth.Verify(security.TokenAuth, TokenFromSessionCookie, jwtauth.TokenFromHeader)(next)
}

// Authenticator requires a valid session. API requests get a 401 JSON body;
// anything else is redirected to the login page. An invalid token also clears
// the stale cookie.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		isAPI := strings.HasPrefix(r.URL.Path, "/api/")

		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			reject(w, r, isAPI, err != nil && !errors.Is(err, jwtauth.ErrNoTokenFound))
			return
		}

		userID, err := security.GetUserIDFromClaims(claims)
		if err != nil {
			reject(w, r, isAPI, true)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDCtxKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func reject(w http.ResponseWriter, r *http.Request, isAPI, invalidToken bool) {
	if invalidToken {
		security.ClearSessionCookie(w)
	}
	if isAPI {
		message := "Not authenticated"
		if invalidToken {
			message = "Invalid or expired token"
		}
		common.RespondWithError(w, http.StatusUnauthorized, message)
		return
	}
	http.Redirect(w, r, "/auth", http.StatusFound)
}

// GetUserIDFromContext returns the authenticated user id.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok
}
