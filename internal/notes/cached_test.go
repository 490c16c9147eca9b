package notes

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCachedStoreServesGetFromCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	note := &Note{ID: "n1", Owner: "u", Title: "t", Content: json.RawMessage(`[{}]`)}

	store := NewMockStore(ctrl)
	store.EXPECT().Get(ctx, "n1").Return(note.Clone(), nil).Times(1)

	cached := NewCachedStore(store, 4, zaptest.NewLogger(t))
	for i := 0; i < 3; i++ {
		got, err := cached.Get(ctx, "n1")
		require.NoError(t, err)
		assert.Equal(t, note, got)
	}

	got, _ := cached.Get(ctx, "n1")
	got.Title = "mutated"
	again, _ := cached.Get(ctx, "n1")
	assert.Equal(t, "t", again.Title)
}

func TestCachedStoreRefreshesOnWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	updated := &Note{ID: "n1", Owner: "u", Title: "new", Content: json.RawMessage(`[{}]`)}

	store := NewMockStore(ctrl)
	gomock.InOrder(
		store.EXPECT().Get(ctx, "n1").Return(&Note{ID: "n1", Title: "old"}, nil),
		store.EXPECT().Update(ctx, gomock.Any()).Return(updated.Clone(), nil),
		store.EXPECT().Delete(ctx, "n1").Return(nil),
		store.EXPECT().Get(ctx, "n1").Return(nil, ErrNotFound),
	)

	cached := NewCachedStore(store, 4, nil)

	_, err := cached.Get(ctx, "n1")
	require.NoError(t, err)

	_, err = cached.Update(ctx, updated)
	require.NoError(t, err)
	got, err := cached.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)

	require.NoError(t, cached.Delete(ctx, "n1"))
	_, err = cached.Get(ctx, "n1")
	assert.ErrorIs(t, err, ErrNotFound)
}
