package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohamkundu27/AITelehealth/internal/domain"
	"github.com/sohamkundu27/AITelehealth/internal/store/memory"
)

func TestRecordStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("save_and_get", func(t *testing.T) {
		t.Parallel()

		store := memory.NewRecordStore()
		rec := &domain.VisitRecord{
			SessionID:     "visit-1",
			ClinicianNote: "note",
			CreatedAt:     time.Now(),
		}

		require.NoError(t, store.Save(ctx, rec))

		got, err := store.GetBySessionID(ctx, "visit-1")
		require.NoError(t, err)
		assert.Equal(t, "note", got.ClinicianNote)
	})

	t.Run("not_found", func(t *testing.T) {
		t.Parallel()

		store := memory.NewRecordStore()

		_, err := store.GetBySessionID(ctx, "visit-missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("records_are_immutable", func(t *testing.T) {
		t.Parallel()

		store := memory.NewRecordStore()
		require.NoError(t, store.Save(ctx, &domain.VisitRecord{SessionID: "visit-1"}))

		err := store.Save(ctx, &domain.VisitRecord{SessionID: "visit-1"})
		require.Error(t, err)
		assert.False(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("get_returns_copy", func(t *testing.T) {
		t.Parallel()

		store := memory.NewRecordStore()
		require.NoError(t, store.Save(ctx, &domain.VisitRecord{SessionID: "visit-1", ClinicianNote: "original"}))

		got, err := store.GetBySessionID(ctx, "visit-1")
		require.NoError(t, err)
		got.ClinicianNote = "mutated"

		fresh, err := store.GetBySessionID(ctx, "visit-1")
		require.NoError(t, err)
		assert.Equal(t, "original", fresh.ClinicianNote)
	})
}
