package api

import (
	"context"
	"net/http"

	"langsync/internal/domain"
)

type contextKey int

const userContextKey contextKey = iota

// withActor resolves the requesting user from the X-Actor and
// X-Superuser headers. Anonymous requests carry an empty name and are
// never elevated.
func withActor(next http.Handler, superusers []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := domain.User{Name: r.Header.Get("X-Actor")}
		if user.Name != "" {
			user.Superuser = r.Header.Get("X-Superuser") == "1" || contains(superusers, user.Name)
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestUser(r *http.Request) domain.User {
	if user, ok := r.Context().Value(userContextKey).(domain.User); ok {
		return user
	}
	return domain.User{}
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
