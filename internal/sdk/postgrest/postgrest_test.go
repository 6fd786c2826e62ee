package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nourabuild/profile-service/internal/sdk/models"
	"github.com/nourabuild/profile-service/internal/sdk/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "anon-key"

// fakeService implements the subset of PostgREST the client uses: eq filters,
// return=representation and upsert on user_id.
type fakeService struct {
	mu     sync.Mutex
	users  []map[string]any
	resets []map[string]any
	calls  []string
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	if r.Header.Get("apikey") != testKey || r.Header.Get("Authorization") != "Bearer "+testKey {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid key"})
		return
	}

	var table *[]map[string]any
	switch strings.TrimPrefix(r.URL.Path, "/rest/v1/") {
	case usersTable:
		table = &f.users
	case resetsTable:
		table = &f.resets
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"code": "42P01", "message": "relation does not exist"})
		return
	}

	filters := map[string]string{}
	for key, values := range r.URL.Query() {
		if v := values[0]; strings.HasPrefix(v, "eq.") {
			filters[key] = strings.TrimPrefix(v, "eq.")
		}
	}
	matches := func(row map[string]any) bool {
		for k, v := range filters {
			if row[k] != v {
				return false
			}
		}
		return true
	}

	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	switch r.Method {
	case http.MethodGet:
		out := []map[string]any{}
		for _, row := range *table {
			if matches(row) {
				out = append(out, row)
			}
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		if r.URL.Query().Get("on_conflict") == "user_id" {
			for i, row := range *table {
				if row["user_id"] == body["user_id"] {
					(*table)[i] = body
					w.WriteHeader(http.StatusCreated)
					return
				}
			}
			*table = append(*table, body)
			w.WriteHeader(http.StatusCreated)
			return
		}
		for _, row := range *table {
			if row["email"] == body["email"] {
				writeJSON(w, http.StatusConflict, map[string]string{"code": uniqueViolation, "message": "duplicate key value"})
				return
			}
		}
		*table = append(*table, body)
		writeJSON(w, http.StatusCreated, []map[string]any{body})

	case http.MethodPatch:
		if email, ok := body["email"]; ok {
			for _, row := range *table {
				if row["email"] == email && !matches(row) {
					writeJSON(w, http.StatusConflict, map[string]string{"code": uniqueViolation, "message": "duplicate key value"})
					return
				}
			}
		}
		out := []map[string]any{}
		for _, row := range *table {
			if matches(row) {
				for k, v := range body {
					row[k] = v
				}
				out = append(out, row)
			}
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodDelete:
		out := []map[string]any{}
		kept := (*table)[:0]
		for _, row := range *table {
			if matches(row) {
				out = append(out, row)
				continue
			}
			kept = append(kept, row)
		}
		*table = kept
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeService) {
	t.Helper()
	fake := &fakeService{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return srv, fake
}

func newTestClient(t *testing.T) (*Client, *fakeService) {
	t.Helper()
	srv, fake := newTestServer(t)

	c := New(srv.URL+"/", testKey, 5*time.Second)
	t.Cleanup(func() { _ = c.Close() })
	return c, fake
}

func TestClientPing(t *testing.T) {
	srv, fake := newTestServer(t)

	require.NoError(t, New(srv.URL, testKey, time.Second).Ping(context.Background()))
	assert.Equal(t, []string{"GET /rest/v1/users"}, fake.calls)

	err := New(srv.URL, "wrong", time.Second).Ping(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Error(), "invalid key")
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		name   string
		in     error
		want   *APIError
		unique bool
	}{
		{
			name:   "service error with code",
			in:     errors.New("(23505) duplicate key value violates unique constraint"),
			want:   &APIError{Code: "23505", Message: "duplicate key value violates unique constraint"},
			unique: true,
		},
		{
			name: "service error without code",
			in:   errors.New("() invalid key"),
			want: &APIError{Message: "invalid key"},
		},
		{
			name: "bare status line",
			in:   errors.New("503 Service Unavailable"),
			want: &APIError{Status: http.StatusServiceUnavailable, Message: "Service Unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapError(tt.in)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.want, apiErr)
			assert.Equal(t, tt.unique, isUniqueViolation(err))
		})
	}

	t.Run("transport errors pass through", func(t *testing.T) {
		in := errors.New("dial tcp: connection refused")
		assert.Same(t, in, wrapError(in))
		assert.ErrorIs(t, wrapError(context.DeadlineExceeded), context.DeadlineExceeded)
		assert.NoError(t, wrapError(nil))
	})
}

func TestClientUsers(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	user, err := c.CreateUser(ctx, models.NewUser{Name: "A", Email: "a@x.com", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "hash", user.PasswordHash)

	_, err = c.CreateUser(ctx, models.NewUser{Name: "B", Email: "a@x.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)

	got, err := c.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = c.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	first := "Ada"
	firstPtr := &first
	updated, err := c.UpdateUser(ctx, user.ID, models.UserUpdate{FirstName: &firstPtr})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.Name)
	require.NotNil(t, updated.FirstName)
	assert.Equal(t, "Ada", *updated.FirstName)

	_, err = c.CreateUser(ctx, models.NewUser{Name: "B", Email: "b@x.com", PasswordHash: "hash"})
	require.NoError(t, err)
	taken := "b@x.com"
	_, err = c.UpdateUser(ctx, user.ID, models.UserUpdate{Email: &taken})
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)

	_, err = c.UpdateUser(ctx, "missing", models.UserUpdate{Email: &taken})
	assert.Error(t, err)

	require.NoError(t, c.UpdatePassword(ctx, user.ID, "new-hash"))
	got, err = c.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.ErrorIs(t, c.UpdatePassword(ctx, "missing", "x"), store.ErrNotFound)

	pic := "data:image/png;base64,AAAA"
	withPic, err := c.SetProfilePic(ctx, user.ID, &pic)
	require.NoError(t, err)
	require.NotNil(t, withPic.ProfilePic)
	cleared, err := c.SetProfilePic(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.ProfilePic)
}

func TestClientResetTokens(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, c.CreateResetToken(ctx, models.PasswordResetToken{UserID: "u1", Token: "first", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, c.CreateResetToken(ctx, models.PasswordResetToken{UserID: "u1", Token: "second", ExpiresAt: now.Add(time.Minute)}))
	assert.Len(t, fake.resets, 1)

	assert.ErrorIs(t, c.ConsumeResetToken(ctx, "u1", "first", now), store.ErrInvalidOrExpired)
	assert.Len(t, fake.resets, 1)

	require.NoError(t, c.ConsumeResetToken(ctx, "u1", "second", now))
	assert.ErrorIs(t, c.ConsumeResetToken(ctx, "u1", "second", now), store.ErrInvalidOrExpired)

	require.NoError(t, c.CreateResetToken(ctx, models.PasswordResetToken{UserID: "u2", Token: "old", ExpiresAt: now.Add(-time.Second)}))
	assert.ErrorIs(t, c.ConsumeResetToken(ctx, "u2", "old", now), store.ErrInvalidOrExpired)
	assert.Empty(t, fake.resets)
}
