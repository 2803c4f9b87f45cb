package models

import "time"

// APISettings хранит пользовательские настройки AI-провайдера.
type APISettings struct {
	Provider string `json:"provider"`
}

// User - агрегат пользователя. Персонажи и истории хранятся внутри него
// и сохраняются целиком.
type User struct {
	Email       string       `json:"email"`
	Characters  []Character  `json:"characters"`
	APISettings *APISettings `json:"apiSettings,omitempty"`
}

// Character - персонаж пользователя вместе с его историями.
type Character struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Attributes []string  `json:"attributes"`
	CreatedAt  time.Time `json:"createdAt"`
	Stories    []Story   `json:"stories"`
}

// FindCharacter возвращает указатель на персонажа внутри агрегата, чтобы изменения
// сохранялись вместе с пользователем.
func (u *User) FindCharacter(id string) *Character {
	for i := range u.Characters {
		if u.Characters[i].ID == id {
			return &u.Characters[i]
		}
	}
	return nil
}

// RemoveCharacter удаляет персонажа (и каскадно его истории). Возвращает false, если персонажа нет.
func (u *User) RemoveCharacter(id string) bool {
	for i := range u.Characters {
		if u.Characters[i].ID == id {
			u.Characters = append(u.Characters[:i], u.Characters[i+1:]...)
			return true
		}
	}
	return false
}

// FindStory ищет историю персонажа по id.
func (c *Character) FindStory(id string) *Story {
	for i := range c.Stories {
		if c.Stories[i].ID == id {
			return &c.Stories[i]
		}
	}
	return nil
}

// RemoveStory удаляет историю персонажа.
func (c *Character) RemoveStory(id string) bool {
	for i := range c.Stories {
		if c.Stories[i].ID == id {
			c.Stories = append(c.Stories[:i], c.Stories[i+1:]...)
			return true
		}
	}
	return false
}

// Clone возвращает глубокую копию пользователя. Сервисы мутируют копию и
// сохраняют ее только после успешной генерации.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := &User{Email: u.Email}
	if u.APISettings != nil {
		settings := *u.APISettings
		cp.APISettings = &settings
	}
	if u.Characters != nil {
		cp.Characters = make([]Character, len(u.Characters))
		for i, ch := range u.Characters {
			cp.Characters[i] = ch.clone()
		}
	}
	return cp
}

func (c Character) clone() Character {
	cp := c
	cp.Attributes = append([]string(nil), c.Attributes...)
	if c.Stories != nil {
		cp.Stories = make([]Story, len(c.Stories))
		for i, s := range c.Stories {
			cp.Stories[i] = s.Clone()
		}
	}
	return cp
}
