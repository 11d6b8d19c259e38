package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/fieldsadmin/customfields"
)

const testTokenKey = "estudio-km-token"

type fakeLookup struct {
	mu       sync.Mutex
	accounts map[string]*customfields.Account
	err      error
	calls    int
}

func (f *fakeLookup) Me(_ context.Context, token string) (*customfields.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if a, ok := f.accounts[token]; ok {
		return a, nil
	}
	return nil, customfields.ErrUnauthorized
}

func (f *fakeLookup) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type failingStore struct {
	TokenStore
	err error
}

func (f failingStore) Set(context.Context, string, string) error { return f.err }

func testConfig() Config {
	return Config{TokenKey: testTokenKey, AdminEmail: "admin@estudiokm.com.ar", AdminPassword: "s3cret"}
}

func newTestService(store TokenStore, lookup AccountLookup) *Service {
	return NewService(store, lookup, testConfig(), nil)
}

func validLookup() *fakeLookup {
	return &fakeLookup{accounts: map[string]*customfields.Account{
		"1330256.abc": {ID: 1330256, Name: "Estudio KM", Email: "info@estudiokm.com.ar"},
		"99.xyz":      {ID: 99, Name: "Otra Empresa"},
	}}
}

func TestLogin(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		store := NewMemoryTokenStore()
		svc := newTestService(store, validLookup())
		ctx := context.Background()

		sess, err := svc.Login(ctx, "1330256.abc")
		require.NoError(t, err)
		assert.NotEmpty(t, sess.ID)
		assert.Equal(t, "1330256.abc", sess.Token)
		assert.Equal(t, int64(1330256), sess.Account.ID)
		assert.False(t, sess.Admin)

		assert.True(t, svc.IsLoggedIn(ctx, sess.ID))
		assert.False(t, svc.IsAdmin(ctx, sess.ID))

		raw, err := store.Get(ctx, testTokenKey+":"+sess.ID)
		require.NoError(t, err)
		assert.Contains(t, raw, `"token":"1330256.abc"`)
	})

	t.Run("rejected token", func(t *testing.T) {
		store := NewMemoryTokenStore()
		svc := newTestService(store, validLookup())

		sess, err := svc.Login(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, customfields.ErrUnauthorized)
		assert.Nil(t, sess)
		assert.Empty(t, store.values)
	})

	t.Run("lookup failure is not an invalid token", func(t *testing.T) {
		svc := newTestService(NewMemoryTokenStore(), &fakeLookup{err: errors.New("dial tcp: refused")})

		_, err := svc.Login(context.Background(), "1330256.abc")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("store failure", func(t *testing.T) {
		store := failingStore{TokenStore: NewMemoryTokenStore(), err: errors.New("redis down")}
		svc := newTestService(store, validLookup())

		_, err := svc.Login(context.Background(), "1330256.abc")
		assert.ErrorContains(t, err, "redis down")
	})
}

func TestSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMemoryTokenStore(), validLookup())

	first, err := svc.Login(ctx, "1330256.abc")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "99.xyz")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	u, err := svc.CurrentUser(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Otra Empresa", u.Name)

	require.NoError(t, svc.Logout(ctx, first.ID))
	assert.False(t, svc.IsLoggedIn(ctx, first.ID))
	assert.True(t, svc.IsLoggedIn(ctx, second.ID))
	assert.False(t, svc.IsLoggedIn(ctx, ""))
	assert.False(t, svc.IsLoggedIn(ctx, "made-up"))
}

func TestLoginAsAdmin(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid", email: "admin@estudiokm.com.ar", password: "s3cret"},
		{name: "wrong password", email: "admin@estudiokm.com.ar", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "wrong email", email: "other@estudiokm.com.ar", password: "s3cret", wantErr: ErrInvalidCredentials},
		{name: "empty", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc := newTestService(NewMemoryTokenStore(), validLookup())

			sess, err := svc.LoginAsAdmin(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, sess)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.email, sess.Account.Email)
			assert.Empty(t, sess.Token)
			assert.True(t, svc.IsAdmin(ctx, sess.ID))
		})
	}

	t.Run("no admin configured", func(t *testing.T) {
		svc := NewService(NewMemoryTokenStore(), validLookup(), Config{TokenKey: testTokenKey}, nil)
		_, err := svc.LoginAsAdmin(context.Background(), "", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestGetExpiresSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()
	cfg := testConfig()
	cfg.TTL = time.Hour
	svc := NewService(store, validLookup(), cfg, nil)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	sess, err := svc.Login(ctx, "1330256.abc")
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	_, err = svc.Get(ctx, sess.ID)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = svc.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Empty(t, store.values)
}

func TestGetDropsUnreadableSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()
	require.NoError(t, store.Set(ctx, testTokenKey+":abc", "{not json"))
	svc := newTestService(store, validLookup())

	_, err := svc.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Empty(t, store.values)
}

func TestRestore(t *testing.T) {
	t.Run("unknown session", func(t *testing.T) {
		svc := newTestService(NewMemoryTokenStore(), validLookup())
		_, err := svc.Restore(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotLoggedIn)
	})

	t.Run("refreshes the account", func(t *testing.T) {
		ctx := context.Background()
		lookup := validLookup()
		svc := newTestService(NewMemoryTokenStore(), lookup)
		sess, err := svc.Login(ctx, "1330256.abc")
		require.NoError(t, err)

		lookup.accounts["1330256.abc"] = &customfields.Account{ID: 1330256, Name: "Estudio KM SRL"}
		restored, err := svc.Restore(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "Estudio KM SRL", restored.Account.Name)
		assert.Equal(t, 2, lookup.calls)
	})

	t.Run("rejected token ends the session", func(t *testing.T) {
		ctx := context.Background()
		lookup := validLookup()
		svc := newTestService(NewMemoryTokenStore(), lookup)
		sess, err := svc.Login(ctx, "1330256.abc")
		require.NoError(t, err)

		delete(lookup.accounts, "1330256.abc")
		_, err = svc.Restore(ctx, sess.ID)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.False(t, svc.IsLoggedIn(ctx, sess.ID))
	})

	t.Run("session kept when API is unreachable", func(t *testing.T) {
		ctx := context.Background()
		lookup := validLookup()
		svc := newTestService(NewMemoryTokenStore(), lookup)
		sess, err := svc.Login(ctx, "1330256.abc")
		require.NoError(t, err)

		lookup.setErr(errors.New("timeout"))
		_, err = svc.Restore(ctx, sess.ID)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidToken)
		assert.True(t, svc.IsLoggedIn(ctx, sess.ID))
	})

	t.Run("admin session is not revalidated", func(t *testing.T) {
		ctx := context.Background()
		lookup := validLookup()
		svc := newTestService(NewMemoryTokenStore(), lookup)
		sess, err := svc.LoginAsAdmin(ctx, "admin@estudiokm.com.ar", "s3cret")
		require.NoError(t, err)

		restored, err := svc.Restore(ctx, sess.ID)
		require.NoError(t, err)
		assert.True(t, restored.Admin)
		assert.Zero(t, lookup.calls)
	})

	t.Run("redis backed across services", func(t *testing.T) {
		ctx := context.Background()
		client, _ := setupTestRedis(t)

		first := newTestService(NewRedisTokenStore(client, "fieldsadmin:", 0), validLookup())
		sess, err := first.Login(ctx, "1330256.abc")
		require.NoError(t, err)

		lookup := validLookup()
		second := newTestService(NewRedisTokenStore(client, "fieldsadmin:", 0), lookup)
		restored, err := second.Restore(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "Estudio KM", restored.Account.Name)
		assert.Equal(t, 1, lookup.calls)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMemoryTokenStore(), validLookup())

	sess, err := svc.Login(ctx, "1330256.abc")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sess.ID))
	assert.False(t, svc.IsLoggedIn(ctx, sess.ID))

	_, err = svc.CurrentUser(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, svc.Logout(ctx, sess.ID))
	require.NoError(t, svc.Logout(ctx, ""))
}
