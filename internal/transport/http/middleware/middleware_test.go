package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{name: "no header", header: "", ok: false},
		{name: "wrong scheme", header: "Basic abc", ok: false},
		{name: "empty token", header: "Bearer ", ok: false},
		{name: "spaces only", header: "Bearer    ", ok: false},
		{name: "ok", header: "Bearer tok-123", want: "tok-123", ok: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}

			got, ok := BearerToken(r)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

// fakeAuthenticator отвечает заранее заданной идентичностью либо ошибкой.
type fakeAuthenticator struct {
	identity *models.Identity
	err      error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, _ string) (*models.Identity, error) {
	return f.identity, f.err
}

func TestAuthn_ValidToken_SetsIdentity(t *testing.T) {
	t.Parallel()

	want := &models.Identity{AccountID: uuid.New(), Provider: "google", ExternalID: "ext-1"}

	var got *models.Identity
	var ok bool

	h := Authn(&fakeAuthenticator{identity: want})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestAuthn_FailOpen(t *testing.T) {
	t.Parallel()

	// Битый токен не отклоняет запрос: он проходит дальше неаутентифицированным.
	cases := []struct {
		name   string
		header string
		auth   Authenticator
	}{
		{name: "no header", header: "", auth: &fakeAuthenticator{identity: &models.Identity{}}},
		{name: "invalid token", header: "Bearer bad", auth: &fakeAuthenticator{err: errors.New("invalid token")}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var ok bool
			h := Authn(tc.auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, ok = IdentityFrom(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			require.Equal(t, http.StatusOK, rec.Code, "fail-open: запрос должен дойти до хендлера")
			require.False(t, ok)
		})
	}
}

func TestChain_OrderOuterToInner(t *testing.T) {
	t.Parallel()

	var order []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusOK)
	}), mk("first"), mk("second"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	t.Parallel()

	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get("X-Request-Id"))
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Len(t, rec.Header().Get("X-Request-Id"), 32)
}

func TestRequestID_PreservesIncoming(t *testing.T) {
	t.Parallel()

	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-Id", "rid-from-client")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	require.Equal(t, "rid-from-client", rec.Header().Get("X-Request-Id"))
}

func TestRecover_PanicBecomes500(t *testing.T) {
	t.Parallel()

	h := Recover()(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), `"internal"`)
	require.NotContains(t, rec.Body.String(), "boom")
}

func TestTimeout_SetsDeadline(t *testing.T) {
	t.Parallel()

	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Context().Deadline()
		require.True(t, ok)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
