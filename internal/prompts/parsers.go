package prompts

import (
	"regexp"
	"strings"

	"story-server/internal/ai"
)

// OptionsResult - разобранный список вариантов.
type OptionsResult struct {
	Options  []string
	Rejected []string
}

// Нумерация и маркеры списка, которые модель иногда добавляет вопреки инструкции.
var listDecoration = regexp.MustCompile(`^\s*(?:\d+\s*[.、)）:：]|[-*•·]|[（(]\d+[)）])\s*`)

// ParseOptions разбирает ответ модели на не более limit непустых вариантов.
// Строки, целиком взятые в квадратные скобки (маркеры, эхо "[选择: ...]"), отбрасываются.
// У остальных снимаются нумерация, кавычки и все скобки по краям.
func ParseOptions(raw string, limit int) OptionsResult {
	var res OptionsResult
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isBracketed(line) {
			res.Rejected = append(res.Rejected, line)
			continue
		}

		option := trimDecoration(listDecoration.ReplaceAllString(line, ""))
		if option == "" {
			res.Rejected = append(res.Rejected, line)
			continue
		}
		if len(res.Options) < limit {
			res.Options = append(res.Options, option)
		}
	}
	return res
}

// trimDecoration снимает пробелы, кавычки и квадратные скобки по краям, пока строка меняется.
func trimDecoration(s string) string {
	for {
		trimmed := strings.Trim(strings.TrimSpace(s), "\"“”[]")
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

func isBracketed(line string) bool {
	if line == strings.TrimSpace(ai.ProvenanceMarker(ai.ProviderDeepSeek)) ||
		line == strings.TrimSpace(ai.ProvenanceMarker(ai.ProviderGoogle)) {
		return true
	}
	return strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") &&
		(strings.Contains(line, "选择") || strings.Contains(line, "生成"))
}

// PreferenceDelta - одно изменение предпочтения.
type PreferenceDelta struct {
	Name  string
	Value string
}

// PreferenceDeltas - типизированный результат разбора анализа отзыва.
type PreferenceDeltas struct {
	Updates  []PreferenceDelta
	Rejected []string
	NoChange bool
}

// ParsePreferenceDeltas разбирает строки "имя: значение" (двоеточие ASCII или полноширинное).
// known решает, какие имена допустимы; nil допускает любые.
func ParsePreferenceDeltas(raw string, known func(name string) bool) PreferenceDeltas {
	var res PreferenceDeltas
	cleaned := ai.StripProvenance(raw)
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, NoChangeSentinel) {
			res.NoChange = true
			continue
		}

		line = listDecoration.ReplaceAllString(line, "")
		idx := strings.IndexAny(line, ":：")
		if idx <= 0 {
			res.Rejected = append(res.Rejected, line)
			continue
		}
		sep := ":"
		if strings.HasPrefix(line[idx:], "：") {
			sep = "："
		}
		name := strings.Trim(strings.TrimSpace(line[:idx]), "*`\"")
		value := strings.Trim(strings.TrimSpace(line[idx+len(sep):]), "*`\"")
		if name == "" || value == "" || (known != nil && !known(name)) {
			res.Rejected = append(res.Rejected, line)
			continue
		}
		res.Updates = append(res.Updates, PreferenceDelta{Name: name, Value: value})
	}
	if len(res.Updates) > 0 {
		res.NoChange = false
	}
	return res
}
