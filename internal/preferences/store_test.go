package preferences

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"story-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func valueOf(prefs []models.UserPreference, name string) string {
	for _, p := range prefs {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

func TestMemoryStore_DefaultsAndSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())

	prefs, err := store.List(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Len(t, prefs, 5)
	assert.Equal(t, "奇幻", valueOf(prefs, models.PreferenceStoryStyle))

	prefs, err = store.Set(ctx, "a@example.com", models.PreferenceStoryStyle, "科幻")
	require.NoError(t, err)
	assert.Equal(t, "科幻", valueOf(prefs, models.PreferenceStoryStyle))

	// Значения изолированы по пользователям
	other, err := store.List(ctx, "b@example.com")
	require.NoError(t, err)
	assert.Equal(t, "奇幻", valueOf(other, models.PreferenceStoryStyle))
}

func TestMemoryStore_UnknownNameIsAppended(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	prefs, err := store.Set(context.Background(), "a@example.com", "pacing", "快")
	require.NoError(t, err)
	require.Len(t, prefs, 6)
	assert.Equal(t, "pacing", prefs[5].Name)
	assert.Equal(t, "6", prefs[5].ID)
	assert.Empty(t, prefs[5].Description)
}

func TestMemoryStore_SetMany(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())

	prefs, err := store.SetMany(ctx, "a@example.com", map[string]string{
		models.PreferenceStoryStyle:    "科幻",
		models.PreferenceEmotionalTone: "紧张",
	})
	require.NoError(t, err)
	assert.Equal(t, "科幻", valueOf(prefs, models.PreferenceStoryStyle))
	assert.Equal(t, "紧张", valueOf(prefs, models.PreferenceEmotionalTone))

	prefs, err = store.SetMany(ctx, "a@example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, "科幻", valueOf(prefs, models.PreferenceStoryStyle))
}

func TestMemoryStore_DefaultsAreNotShared(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	prefs, _ := store.List(context.Background(), "a@example.com")
	prefs[0].Value = "mutated"

	again, _ := store.List(context.Background(), "a@example.com")
	assert.Equal(t, "奇幻", again[0].Value)
}

func TestMemoryStore_ConcurrentSet(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Set(context.Background(), fmt.Sprintf("u%d@example.com", i%3), models.PreferenceEmotionalTone, "轻松")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	prefs, _ := store.List(context.Background(), "u0@example.com")
	assert.Equal(t, "轻松", valueOf(prefs, models.PreferenceEmotionalTone))
}
