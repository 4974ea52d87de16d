package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinylinks/internal/models"
)

type stubUsers struct {
	known map[string]models.User
}

func (s *stubUsers) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	usr, found := s.known[userID]
	if !found {
		return models.User{}, models.ErrUserNotFound
	}
	return usr, nil
}

func newTestManager() *Manager {
	users := &stubUsers{
		known: map[string]models.User{
			"abc123": {ID: "abc123", Email: "user@example.com"},
		},
	}
	return New(users, "test_session", []byte("test signing key"))
}

func resolvedUserID(t *testing.T, m *Manager, cookies []*http.Cookie) string {
	t.Helper()

	var got string
	handler := m.ResolveUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserIDFromContext(r.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/urls", nil)
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	handler.ServeHTTP(httptest.NewRecorder(), request)

	return got
}

func TestIssueAndResolveRoundTrip(t *testing.T) {
	manager := newTestManager()

	recorder := httptest.NewRecorder()
	require.NoError(t, manager.Issue(recorder, "abc123"))

	cookies := recorder.Result().Cookies()
	require.NotEmpty(t, cookies)

	assert.Equal(t, "abc123", resolvedUserID(t, manager, cookies))
}

func TestResolveWithoutCookieIsAnonymous(t *testing.T) {
	manager := newTestManager()

	assert.Equal(t, "", resolvedUserID(t, manager, nil))
}

func TestResolveWithTamperedCookieIsAnonymous(t *testing.T) {
	manager := newTestManager()

	forged := []*http.Cookie{{Name: "test_session", Value: "not-a-signed-token"}}
	assert.Equal(t, "", resolvedUserID(t, manager, forged))
}

func TestResolveWithForeignSigningKeyIsAnonymous(t *testing.T) {
	manager := newTestManager()
	foreign := New(&stubUsers{known: map[string]models.User{
		"abc123": {ID: "abc123"},
	}}, "test_session", []byte("a different key"))

	recorder := httptest.NewRecorder()
	require.NoError(t, foreign.Issue(recorder, "abc123"))

	assert.Equal(t, "", resolvedUserID(t, manager, recorder.Result().Cookies()))
}

func TestResolveUnknownUserIsAnonymous(t *testing.T) {
	manager := newTestManager()

	recorder := httptest.NewRecorder()
	require.NoError(t, manager.Issue(recorder, "vanished"))

	assert.Equal(t, "", resolvedUserID(t, manager, recorder.Result().Cookies()))
}

func TestClearExpiresCookie(t *testing.T) {
	manager := newTestManager()

	recorder := httptest.NewRecorder()
	manager.Clear(recorder)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "test_session", cookies[0].Name)
	assert.Equal(t, "", cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
