package maintenance

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"story-server/internal/ai"
	"story-server/internal/mocks"
	"story-server/internal/models"
	"story-server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDecodeEscapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"cjk", `\u4f60\u597d`, "你好"},
		{"mixed", `hero \u6797\u8fdc!`, "hero 林远!"},
		{"uppercase hex", `\u4F60`, "你"},
		{"surrogate pair", `\ud83d\ude00`, "😀"},
		{"lone surrogate kept", `\ud83d tail`, `\ud83d tail`},
		{"invalid hex kept", `\u12zz`, `\u12zz`},
		{"truncated kept", `abc\u12`, `abc\u12`},
		{"already decoded", "林远", "林远"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeEscapes(tt.in))
		})
	}
}

func TestRepairUser(t *testing.T) {
	t.Run("missing settings", func(t *testing.T) {
		user := &models.User{Email: "a@example.com", Characters: []models.Character{}}
		changed, fixed := RepairUser(user, ai.ProviderDeepSeek)
		assert.True(t, changed)
		assert.True(t, fixed)
		require.NotNil(t, user.APISettings)
		assert.Equal(t, "deepseek", user.APISettings.Provider)
	})

	t.Run("invalid provider uses default", func(t *testing.T) {
		user := &models.User{Email: "a@example.com", Characters: []models.Character{},
			APISettings: &models.APISettings{Provider: "openai"}}
		changed, fixed := RepairUser(user, ai.ProviderGoogle)
		assert.True(t, changed)
		assert.True(t, fixed)
		assert.Equal(t, "google", user.APISettings.Provider)
	})

	t.Run("provider case normalized", func(t *testing.T) {
		user := &models.User{Email: "a@example.com", Characters: []models.Character{},
			APISettings: &models.APISettings{Provider: "Google"}}
		changed, fixed := RepairUser(user, ai.ProviderDeepSeek)
		assert.True(t, changed)
		assert.True(t, fixed)
		assert.Equal(t, "google", user.APISettings.Provider)
	})

	t.Run("escaped content decoded", func(t *testing.T) {
		user := &models.User{
			Email:       "a@example.com",
			APISettings: &models.APISettings{Provider: "deepseek"},
			Characters: []models.Character{{
				ID: "c1", Name: `\u6797\u8fdc`, Attributes: []string{`\u52c7\u6562`},
				Stories: []models.Story{{
					ID: "s1", Title: `\u68ee\u6797`, Keywords: []string{`\u68ee\u6797`, "dragon"},
					Content: []models.StoryContent{
						{ID: "e1", Type: models.ContentTypeAI, Text: `\u4f60\u597d`},
						{ID: "e2", Type: models.ContentTypePlayerChoice, Text: "go", SelectedChoice: `\u5de6`},
					},
				}},
			}},
		}
		changed, fixed := RepairUser(user, ai.ProviderDeepSeek)
		assert.True(t, changed)
		assert.False(t, fixed)

		ch := user.Characters[0]
		assert.Equal(t, "林远", ch.Name)
		assert.Equal(t, []string{"勇敢"}, ch.Attributes)
		assert.Equal(t, "森林", ch.Stories[0].Title)
		assert.Equal(t, []string{"森林", "dragon"}, ch.Stories[0].Keywords)
		assert.Equal(t, "你好", ch.Stories[0].Content[0].Text)
		assert.Equal(t, "左", ch.Stories[0].Content[1].SelectedChoice)
	})

	t.Run("clean user untouched", func(t *testing.T) {
		user := &models.User{Email: "a@example.com", Characters: []models.Character{},
			APISettings: &models.APISettings{Provider: "deepseek"}}
		changed, fixed := RepairUser(user, ai.ProviderDeepSeek)
		assert.False(t, changed)
		assert.False(t, fixed)
	})
}

func seedRepo(t *testing.T, users ...*models.User) *repository.FileRepository {
	t.Helper()
	repo, err := repository.NewFileRepository(filepath.Join(t.TempDir(), "users.json"), zap.NewNop())
	require.NoError(t, err)
	for _, u := range users {
		require.NoError(t, repo.SaveUser(context.Background(), u))
	}
	return repo
}

func TestRepairAll(t *testing.T) {
	ctx := context.Background()

	newUsers := func() []*models.User {
		return []*models.User{
			{Email: "clean@example.com", Characters: []models.Character{}, APISettings: &models.APISettings{Provider: "google"}},
			{Email: "broken@example.com", Characters: []models.Character{{ID: "c1", Name: `\u6797`}}},
			{Email: `\u6797@example.com`, Characters: []models.Character{}},
		}
	}

	t.Run("writes repaired users", func(t *testing.T) {
		repo := seedRepo(t, newUsers()...)

		report, err := RepairAll(ctx, repo, ai.ProviderDeepSeek, false)
		require.NoError(t, err)
		assert.Equal(t, 3, report.Scanned)
		assert.Equal(t, 1, report.Modified)
		assert.Equal(t, 1, report.ProvidersFixed)
		assert.Equal(t, []string{`\u6797@example.com`}, report.SkippedEmails)

		stored, err := repo.GetUser(ctx, "broken@example.com")
		require.NoError(t, err)
		assert.Equal(t, "林", stored.Characters[0].Name)
		require.NotNil(t, stored.APISettings)
		assert.Equal(t, "deepseek", stored.APISettings.Provider)

		again, err := RepairAll(ctx, repo, ai.ProviderDeepSeek, false)
		require.NoError(t, err)
		assert.Zero(t, again.Modified)
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		repo := seedRepo(t, newUsers()...)

		report, err := RepairAll(ctx, repo, ai.ProviderDeepSeek, true)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Modified)

		stored, err := repo.GetUser(ctx, "broken@example.com")
		require.NoError(t, err)
		assert.Equal(t, `\u6797`, stored.Characters[0].Name)
		assert.Nil(t, stored.APISettings)
	})

	t.Run("save error", func(t *testing.T) {
		repo := new(mocks.MockUserRepository)
		repo.On("GetAllUsers", mock.Anything).Return([]*models.User{{Email: "a@example.com"}}, nil)
		repo.On("SaveUser", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		_, err := RepairAll(ctx, repo, ai.ProviderDeepSeek, false)
		assert.ErrorContains(t, err, "disk full")
		repo.AssertExpectations(t)
	})

	t.Run("list error", func(t *testing.T) {
		repo := new(mocks.MockUserRepository)
		repo.On("GetAllUsers", mock.Anything).Return(nil, errors.New("boom"))

		_, err := RepairAll(ctx, repo, ai.ProviderDeepSeek, false)
		assert.ErrorContains(t, err, "failed to list users")
	})
}
