package handler

import (
	"story-server/internal/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// --- Auth ---

type loginRequest struct {
	Email string `json:"email"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("email is required"), is.EmailFormat.Error("invalid email format")),
	)
}

type apiSettingsDTO struct {
	Provider string `json:"provider"`
}

type updateSettingsRequest struct {
	Email       string          `json:"email"`
	APISettings *apiSettingsDTO `json:"apiSettings"`
}

func (r updateSettingsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("email is required")),
		validation.Field(&r.APISettings, validation.NotNil.Error("apiSettings is required")),
	)
}

type updateSettingsResponse struct {
	Provider string `json:"provider"`
	Coerced  bool   `json:"coerced"`
}

type createCharacterRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Attributes string `json:"attributes"`
}

func (r createCharacterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("email is required")),
		validation.Field(&r.Name, validation.Required.Error("character name is required"), validation.RuneLength(1, 50)),
		validation.Field(&r.Attributes, validation.RuneLength(0, 200)),
	)
}

type deleteCharacterRequest struct {
	Email       string `json:"email"`
	CharacterID string `json:"characterId"`
}

func (r deleteCharacterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("email is required")),
		validation.Field(&r.CharacterID, validation.Required.Error("characterId is required")),
	)
}

type idResponse struct {
	ID string `json:"id"`
}

// --- Story ---

// storyContentDTO - запись истории от клиента. Временная метка клиента не используется.
type storyContentDTO struct {
	ID             string             `json:"id"`
	Type           models.ContentType `json:"type"`
	Text           string             `json:"text"`
	SelectedChoice string             `json:"selectedChoice,omitempty"`
	WordCount      *int               `json:"wordCount,omitempty"`
}

func (d storyContentDTO) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Type, validation.In(models.ContentTypeAI, models.ContentTypePlayerChoice).Error("type must be ai or player-choice")),
	)
}

func toStoryContent(items []storyContentDTO) []models.StoryContent {
	out := make([]models.StoryContent, 0, len(items))
	for _, item := range items {
		out = append(out, models.StoryContent{
			ID:             item.ID,
			Type:           item.Type,
			Text:           item.Text,
			SelectedChoice: item.SelectedChoice,
			WordCount:      item.WordCount,
		})
	}
	return out
}

type createStoryRequest struct {
	Email         string   `json:"email"`
	CharacterID   string   `json:"characterId"`
	CharacterName string   `json:"characterName,omitempty"`
	Keywords      []string `json:"keywords"`
}

func (r createStoryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("email is required")),
		validation.Field(&r.CharacterID, validation.Required.Error("characterId is required")),
		// Пустые ключевые слова отбрасываются сервисом, границы проверяются после очистки
		validation.Field(&r.Keywords, validation.Required.Error("keywords are required")),
	)
}

type optionsRequest struct {
	Email        string            `json:"email"`
	CharacterID  string            `json:"characterId"`
	StoryID      string            `json:"storyId"`
	StoryContent []storyContentDTO `json:"storyContent"`
}

func (r optionsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("email is required")),
		validation.Field(&r.CharacterID, validation.Required.Error("characterId is required")),
		validation.Field(&r.StoryID, validation.Required.Error("storyId is required")),
		validation.Field(&r.StoryContent, validation.Required.Error("storyContent must not be empty")),
	)
}

type continueRequest struct {
	Email        string            `json:"email"`
	CharacterID  string            `json:"characterId"`
	StoryID      string            `json:"storyId"`
	StoryContent []storyContentDTO `json:"storyContent"`
	Choice       string            `json:"choice"`
	WordCount    int               `json:"wordCount"`
}

func (r continueRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("email is required")),
		validation.Field(&r.CharacterID, validation.Required.Error("characterId is required")),
		validation.Field(&r.StoryID, validation.Required.Error("storyId is required")),
		validation.Field(&r.StoryContent, validation.Required.Error("storyContent must not be empty")),
		validation.Field(&r.Choice, validation.Required.Error("choice is required")),
		validation.Field(&r.WordCount, validation.Required.Error("wordCount must be positive"), validation.Min(1).Error("wordCount must be positive"), validation.Max(5000)),
	)
}

type continueResponse struct {
	Story *models.Story `json:"story"`
}

type storyRefRequest struct {
	Email       string `json:"email"`
	CharacterID string `json:"characterId"`
	StoryID     string `json:"storyId"`
}

func (r storyRefRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("email is required")),
		validation.Field(&r.CharacterID, validation.Required.Error("characterId is required")),
		validation.Field(&r.StoryID, validation.Required.Error("storyId is required")),
	)
}

// --- Preferences ---

type setPreferenceRequest struct {
	Email           string `json:"email"`
	PreferenceName  string `json:"preferenceName"`
	PreferenceValue string `json:"preferenceValue"`
}

func (r setPreferenceRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("email is required")),
		validation.Field(&r.PreferenceName, validation.Required.Error("preferenceName is required")),
		validation.Field(&r.PreferenceValue, validation.Required.Error("preferenceValue is required")),
	)
}

type preferencesResponse struct {
	Message     string                  `json:"message,omitempty"`
	Preferences []models.UserPreference `json:"preferences"`
}

type feedbackRequest struct {
	Email    string `json:"email"`
	StoryID  string `json:"storyId"`
	Feedback string `json:"feedback"`
	Rating   int    `json:"rating,omitempty"`
}

func (r feedbackRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("email is required")),
		validation.Field(&r.StoryID, validation.Required.Error("storyId is required")),
		validation.Field(&r.Feedback, validation.Required.Error("feedback is required"), validation.RuneLength(1, 2000)),
		validation.Field(&r.Rating, validation.Min(0), validation.Max(5)),
	)
}

type preferenceChangeDTO struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type feedbackResponse struct {
	Message     string                  `json:"message"`
	Preferences []models.UserPreference `json:"preferences"`
	Applied     []preferenceChangeDTO   `json:"applied"`
	Rejected    []string                `json:"rejected"`
	NoChange    bool                    `json:"noChange"`
}

// --- Sharing ---

type shareRequest struct {
	storyRefRequest
	AuthorName string `json:"authorName"`
}

func (r shareRequest) Validate() error {
	if err := r.storyRefRequest.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.AuthorName, validation.RuneLength(0, 100)),
	)
}
