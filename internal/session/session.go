// Package session derives the caller's identity from a signed cookie and
// issues or clears that cookie on login, registration and logout. The
// cookie value is a JWT signed with an HMAC secret; an absent, invalid or
// stale cookie simply leaves the request anonymous.
package session

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v4"

	"tinylinks/internal/models"
)

type userGetter interface {
	GetUserByID(ctx context.Context, userID string) (models.User, error)
}

// Claims is the JWT payload stored in the session cookie.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserIDKey is the context key under which the resolved user id is stored.
const UserIDKey ContextKey = "userID"

// Manager signs and verifies session cookies and resolves them to user ids.
type Manager struct {
	users      userGetter
	cookieName string
	signingKey []byte
}

// New returns a Manager verifying users against the given directory.
func New(users userGetter, cookieName string, signingKey []byte) *Manager {
	return &Manager{
		users:      users,
		cookieName: cookieName,
		signingKey: signingKey,
	}
}

// Issue sets a session cookie identifying the given user.
func (m *Manager) Issue(response http.ResponseWriter, userID string) error {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: userID})
	tokenString, err := token.SignedString(m.signingKey)
	if err != nil {
		return fmt.Errorf("signing session token: %w", err)
	}

	http.SetCookie(
		response,
		&http.Cookie{
			Name:     m.cookieName,
			Value:    tokenString,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	)

	return nil
}

// Clear removes the session cookie, returning the caller to anonymous.
func (m *Manager) Clear(response http.ResponseWriter) {
	http.SetCookie(
		response,
		&http.Cookie{
			Name:     m.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	)
}

// ResolveUser is an HTTP middleware that parses the session cookie and,
// when it names an existing user, stores that user's id in the request
// context. Requests without a usable cookie proceed anonymously.
func (m *Manager) ResolveUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		userID := m.userIDFromCookie(request)
		if userID == "" {
			h.ServeHTTP(response, request)
			return
		}

		usr, err := m.users.GetUserByID(request.Context(), userID)
		if err != nil {
			// A cookie referencing a vanished user is treated as no cookie.
			h.ServeHTTP(response, request)
			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, usr.ID)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

func (m *Manager) userIDFromCookie(request *http.Request) string {
	cookie, err := request.Cookie(m.cookieName)
	if err != nil {
		return ""
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		cookie.Value,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.signingKey, nil
		},
	)
	if err != nil || !token.Valid {
		return ""
	}

	return claims.UserID
}

// UserIDFromContext returns the id resolved by ResolveUser, or "" when the
// request is anonymous.
func UserIDFromContext(ctx context.Context) string {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}
