package models

// UserPreference - именованная настройка стиля повествования.
type UserPreference struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// Известные имена предпочтений.
const (
	PreferenceStoryStyle      = "storyStyle"
	PreferenceNarrativeStyle  = "narrativeStyle"
	PreferenceComplexityLevel = "complexityLevel"
	PreferenceEmotionalTone   = "emotionalTone"
	PreferenceThemePreference = "themePreference"
)

// DefaultPreferences возвращает набор предпочтений нового пользователя.
// Каждый вызов возвращает новый срез.
func DefaultPreferences() []UserPreference {
	return []UserPreference{
		{ID: "1", Name: PreferenceStoryStyle, Value: "奇幻", Description: "故事的整体风格"},
		{ID: "2", Name: PreferenceNarrativeStyle, Value: "第三人称", Description: "叙述视角"},
		{ID: "3", Name: PreferenceComplexityLevel, Value: "中等", Description: "情节复杂程度"},
		{ID: "4", Name: PreferenceEmotionalTone, Value: "中性", Description: "情感基调"},
		{ID: "5", Name: PreferenceThemePreference, Value: "冒险", Description: "主题偏好"},
	}
}

// IsKnownPreference сообщает, входит ли имя в стандартный набор.
func IsKnownPreference(name string) bool {
	for _, p := range DefaultPreferences() {
		if p.Name == name {
			return true
		}
	}
	return false
}
