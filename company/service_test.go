package company

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/fieldsadmin/logger"
)

func newTestService(store Store) *Service {
	svc := NewService(store, logger.Nop())
	base := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("company-%d", seq)
	}
	return svc
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMemoryStore())

	c, err := svc.Create(ctx, CreateInput{Name: "  Estudio KM ", Token: "1330256.abcdef", AccountID: 1330256})
	require.NoError(t, err)
	assert.Equal(t, "company-1", c.ID)
	assert.Equal(t, "Estudio KM", c.Name)
	assert.Equal(t, int64(1330256), c.AccountID)
	assert.Equal(t, c.CreatedAt, c.UpdatedAt)

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	_, err = svc.Create(ctx, CreateInput{Name: "Estudio KM", Token: "other-token"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestServiceCreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{name: "short name", in: CreateInput{Name: "KM", Token: "123456"}, field: "Name"},
		{name: "blank name", in: CreateInput{Name: "    ", Token: "123456"}, field: "Name"},
		{name: "short token", in: CreateInput{Name: "Estudio", Token: "12345"}, field: "Token"},
		{name: "negative account", in: CreateInput{Name: "Estudio", Token: "123456", AccountID: -1}, field: "AccountID"},
		{name: "long name", in: CreateInput{Name: strings.Repeat("a", 201), Token: "123456"}, field: "Name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService(NewMemoryStore()).Create(context.Background(), tt.in)
			require.ErrorIs(t, err, ErrInvalid)

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.field, verrs[0].Field())
		})
	}
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMemoryStore())

	a, err := svc.Create(ctx, CreateInput{Name: "Alfa SA", Token: "token-alfa"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Name: "Beta SRL", Token: "token-beta"})
	require.NoError(t, err)

	name := "Alfa Holding"
	updated, err := svc.Update(ctx, a.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alfa Holding", updated.Name)
	assert.Equal(t, "token-alfa", updated.Token)
	assert.True(t, updated.UpdatedAt.After(a.UpdatedAt))

	taken := "Beta SRL"
	_, err = svc.Update(ctx, a.ID, UpdateInput{Name: &taken})
	assert.ErrorIs(t, err, ErrDuplicate)

	short := "abc"
	_, err = svc.Update(ctx, a.ID, UpdateInput{Token: &short})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Update(ctx, "missing", UpdateInput{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMemoryStore())

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	for _, n := range []string{"Primera", "Segunda", "Tercera"} {
		_, err := svc.Create(ctx, CreateInput{Name: n, Token: "token-" + n})
		require.NoError(t, err)
	}

	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Tercera", list[0].Name)
	assert.Equal(t, "Primera", list[2].Name)

	require.NoError(t, svc.Delete(ctx, list[1].ID))
	assert.ErrorIs(t, svc.Delete(ctx, list[1].ID), ErrNotFound)

	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, &Company{ID: "x", Name: "Original", Token: "123456"}))

	got, err := store.Get(ctx, "x")
	require.NoError(t, err)
	got.Name = "Mutated"

	again, err := store.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Name)
}
