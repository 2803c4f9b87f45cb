package repository

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"story-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFileRepo(t *testing.T) (*FileRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "users.json")
	repo, err := NewFileRepository(path, zap.NewNop())
	require.NoError(t, err)
	return repo, path
}

func TestFileRepository_UserRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, path := newTestFileRepo(t)

	_, err := repo.GetUser(ctx, "a@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)

	wc := 800
	user := &models.User{
		Email:       "a@example.com",
		APISettings: &models.APISettings{Provider: "google"},
		Characters: []models.Character{{
			ID: "c1", Name: "林远", Attributes: []string{"勇敢"},
			Stories: []models.Story{{
				ID: "s1", Title: "t", Keywords: []string{"a", "b"},
				Content: []models.StoryContent{{ID: "e1", Type: models.ContentTypeAI, Text: "开端", Timestamp: time.Now().UTC(), WordCount: &wc}},
			}},
		}},
	}
	require.NoError(t, repo.SaveUser(ctx, user))
	assert.FileExists(t, path)

	got, err := repo.GetUser(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "google", got.APISettings.Provider)
	require.Len(t, got.Characters, 1)
	require.Len(t, got.Characters[0].Stories, 1)
	assert.Equal(t, "开端", got.Characters[0].Stories[0].Content[0].Text)
	assert.Equal(t, 800, *got.Characters[0].Stories[0].Content[0].WordCount)

	// Перезапись не дублирует пользователя
	got.Characters = nil
	require.NoError(t, repo.SaveUser(ctx, got))
	all, err := repo.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Empty(t, all[0].Characters)
}

func TestFileRepository_GetAllUsersSorted(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestFileRepo(t)
	for _, email := range []string{"c@example.com", "a@example.com", "b@example.com"} {
		require.NoError(t, repo.SaveUser(ctx, &models.User{Email: email}))
	}

	all, err := repo.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a@example.com", all[0].Email)
	assert.Equal(t, "c@example.com", all[2].Email)
}

func TestFileRepository_SharedStories(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestFileRepo(t)

	_, err := repo.GetSharedStory(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	shared := &models.SharedStory{ID: "sh1", AuthorName: "作者", Story: models.Story{ID: "s1", Title: "t"}, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.SaveSharedStory(ctx, shared))

	got, err := repo.GetSharedStory(ctx, "sh1")
	require.NoError(t, err)
	assert.Equal(t, "作者", got.AuthorName)
	assert.Equal(t, "s1", got.Story.ID)

	// Пользователи и снимки живут в одном документе и не затирают друг друга
	require.NoError(t, repo.SaveUser(ctx, &models.User{Email: "a@example.com"}))
	_, err = repo.GetSharedStory(ctx, "sh1")
	assert.NoError(t, err)
}

func TestFileRepository_CorruptFile(t *testing.T) {
	repo, path := newTestFileRepo(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := repo.GetUser(context.Background(), "a@example.com")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNotFound)
}

func TestFileRepository_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestFileRepo(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := string(rune('a'+i)) + "@example.com"
			assert.NoError(t, repo.SaveUser(ctx, &models.User{Email: email}))
		}(i)
	}
	wg.Wait()

	all, err := repo.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 10)
}
