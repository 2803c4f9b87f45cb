package models

import (
	"fmt"
	"strings"
	"time"
)

// ContentType различает записи истории.
type ContentType string

const (
	ContentTypeAI           ContentType = "ai"
	ContentTypePlayerChoice ContentType = "player-choice"
)

// Story - история персонажа. Content только дополняется, порядок записей совпадает
// с порядком повествования.
type Story struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Keywords  []string       `json:"keywords"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Content   []StoryContent `json:"content"`
}

// StoryContent - одна неизменяемая запись истории: текст AI либо выбор игрока.
type StoryContent struct {
	ID             string      `json:"id"`
	Type           ContentType `json:"type"`
	Text           string      `json:"text"`
	Timestamp      time.Time   `json:"timestamp"`
	SelectedChoice string      `json:"selectedChoice,omitempty"`
	WordCount      *int        `json:"wordCount,omitempty"`
}

// StoryTitle строит заголовок истории из ключевых слов.
func StoryTitle(keywords []string) string {
	return fmt.Sprintf("基于 %s 的故事", strings.Join(keywords, ", "))
}

// Clone возвращает глубокую копию истории.
func (s Story) Clone() Story {
	cp := s
	cp.Keywords = append([]string(nil), s.Keywords...)
	if s.Content != nil {
		cp.Content = make([]StoryContent, len(s.Content))
		for i, c := range s.Content {
			cp.Content[i] = c
			if c.WordCount != nil {
				wc := *c.WordCount
				cp.Content[i].WordCount = &wc
			}
		}
	}
	return cp
}

// SharedStory - снимок истории для публичного доступа. Живет независимо от исходной истории.
type SharedStory struct {
	ID         string    `json:"id"`
	Story      Story     `json:"story"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
}
