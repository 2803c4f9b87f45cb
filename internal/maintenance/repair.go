// Package maintenance содержит операции обслуживания сохраненных данных.
package maintenance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"story-server/internal/ai"
	"story-server/internal/models"
	"story-server/internal/repository"
)

// Report - итог прохода по хранилищу.
type Report struct {
	Scanned        int
	Modified       int
	ProvidersFixed int
	// SkippedEmails - пользователи, у которых экранирован сам email.
	// Email является ключом хранилища, такие записи нужно переносить вручную.
	SkippedEmails []string
}

// DecodeEscapes заменяет литеральные последовательности \uXXXX на символы.
// Суррогатные пары собираются в один символ, некорректные последовательности остаются как есть.
func DecodeEscapes(s string) string {
	if !strings.Contains(s, `\u`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, ok := hexEscape(s, i)
		if !ok {
			b.WriteByte(s[i])
			i++
			continue
		}
		i += 6
		if utf16.IsSurrogate(r) {
			if low, ok := hexEscape(s, i); ok {
				if pair := utf16.DecodeRune(r, low); pair != unicode.ReplacementChar {
					b.WriteRune(pair)
					i += 6
					continue
				}
			}
			b.WriteString(s[i-6 : i])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// hexEscape читает \uXXXX в позиции i.
func hexEscape(s string, i int) (rune, bool) {
	if i+6 > len(s) || s[i] != '\\' || s[i+1] != 'u' {
		return 0, false
	}
	v, err := strconv.ParseUint(s[i+2:i+6], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

// RepairUser исправляет пользователя на месте. providerFixed означает, что
// apiSettings.provider отсутствовал или был недопустим.
func RepairUser(user *models.User, defaultProvider ai.Provider) (changed, providerFixed bool) {
	decode := func(s *string) {
		if d := DecodeEscapes(*s); d != *s {
			*s = d
			changed = true
		}
	}
	decodeAll := func(values []string) {
		for i := range values {
			decode(&values[i])
		}
	}

	if user.APISettings == nil {
		user.APISettings = &models.APISettings{Provider: string(defaultProvider)}
		changed, providerFixed = true, true
	} else if p, ok := ai.ParseProvider(user.APISettings.Provider); !ok || string(p) != user.APISettings.Provider {
		if !ok {
			p = defaultProvider
		}
		user.APISettings.Provider = string(p)
		changed, providerFixed = true, true
	}

	if user.Characters == nil {
		user.Characters = []models.Character{}
		changed = true
	}
	for ci := range user.Characters {
		ch := &user.Characters[ci]
		decode(&ch.Name)
		decodeAll(ch.Attributes)
		for si := range ch.Stories {
			st := &ch.Stories[si]
			decode(&st.Title)
			decodeAll(st.Keywords)
			for ei := range st.Content {
				decode(&st.Content[ei].Text)
				decode(&st.Content[ei].SelectedChoice)
			}
		}
	}
	return changed, providerFixed
}

// RepairAll проходит по всем пользователям и сохраняет измененных.
// При dryRun ничего не записывается.
func RepairAll(ctx context.Context, repo repository.UserRepository, defaultProvider ai.Provider, dryRun bool) (Report, error) {
	var report Report

	users, err := repo.GetAllUsers(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list users: %w", err)
	}

	for _, user := range users {
		report.Scanned++
		if DecodeEscapes(user.Email) != user.Email {
			report.SkippedEmails = append(report.SkippedEmails, user.Email)
			continue
		}

		changed, providerFixed := RepairUser(user, defaultProvider)
		if !changed {
			continue
		}
		report.Modified++
		if providerFixed {
			report.ProvidersFixed++
		}
		if dryRun {
			continue
		}
		if err := repo.SaveUser(ctx, user); err != nil {
			return report, fmt.Errorf("failed to save user %s: %w", user.Email, err)
		}
	}
	return report, nil
}
