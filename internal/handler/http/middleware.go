package http

import (
	"context"
	"mime"
	"net/http"
	"strings"

	"github.com/utafrali/PromptEnhancerPro/pkg/middleware"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// ContentTypes rejects request bodies whose media type is not one of allowed.
func ContentTypes(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	message := "Content-Type must be " + strings.Join(allowed, " or ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
				mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
				if _, ok := set[mediaType]; err != nil || !ok {
					w.Header().Set("Content-Type", contentTypeJSON)
					w.WriteHeader(http.StatusUnsupportedMediaType)
					_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"` + message + `"}}`))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return ContentTypes(contentTypeJSON)(next)
}

// tokenValidator bridges bearer authentication to the auth service. Token
// acceptance requires the subject to exist and be active; the loaded user
// travels with the claims.
func tokenValidator(svc AuthService) middleware.TokenValidator {
	return func(ctx context.Context, token string) (*middleware.Claims, error) {
		user, err := svc.Authenticate(ctx, token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{UserID: user.ID, Email: user.Email, Principal: user}, nil
	}
}
