package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayamansour/souqsync/internal/session"
	"github.com/ayamansour/souqsync/pkg/auth"
	"github.com/ayamansour/souqsync/pkg/config"
	"github.com/ayamansour/souqsync/pkg/logger"
)

type contextKey string

const (
	ctxIdentity contextKey = "session_identity"
	ctxLang     contextKey = "lang"
)

// Session resolves who is calling: a bearer token when present and valid,
// always a guest session cookie underneath it. Guests are never rejected
// here; endpoints that need a signed-in user enforce that themselves.
func Session(jwtCfg config.JWTConfig, sessCfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sessionKey := sessionKeyFromCookie(r, sessCfg.CookieName)
			if sessionKey == "" {
				sessionKey = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     sessCfg.CookieName,
					Value:    sessionKey,
					Path:     "/",
					MaxAge:   int(sessCfg.IdleTTL.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			id := session.Identity{SessionKey: sessionKey}
			if token := bearerToken(r); token != "" {
				claims, err := auth.ParseAccessToken(jwtCfg, token)
				if err == nil {
					id.Token = token
					id.UserID = claims.UserID
					id.Authenticated = true
				} else if logg != nil {
					// A bad token degrades to a guest session.
					logg.Warn(ctx, "access token rejected, continuing as guest")
				}
			}

			if logg != nil {
				ctx = logg.WithSessionKey(ctx, sessionKey)
				if id.Authenticated {
					ctx = logg.WithUserID(ctx, id.UserID.String())
				}
			}

			ctx = context.WithValue(ctx, ctxIdentity, id)
			ctx = context.WithValue(ctx, ctxLang, langFromRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the resolved identity for the request.
func IdentityFromContext(ctx context.Context) (session.Identity, bool) {
	id, ok := ctx.Value(ctxIdentity).(session.Identity)
	return id, ok
}

// LangFromContext returns the storefront language, "en" or "ar".
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(ctxLang).(string); ok && lang != "" {
		return lang
	}
	return "en"
}

func sessionKeyFromCookie(r *http.Request, cookieName string) string {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func langFromRequest(r *http.Request) string {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = r.Header.Get("Accept-Language")
	}
	lang = strings.ToLower(strings.TrimSpace(lang))
	if strings.HasPrefix(lang, "ar") {
		return "ar"
	}
	return "en"
}
