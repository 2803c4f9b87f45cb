// Package prompts строит промты для генерации истории и разбирает ответы модели.
// Все функции чистые: никакого ввода-вывода и глобального состояния.
package prompts

import (
	"fmt"
	"strings"

	"story-server/internal/ai"
	"story-server/internal/models"
)

const (
	// BeginningWordTarget - целевой объем начала истории.
	BeginningWordTarget = 1000
	// OptionsCount - сколько вариантов продолжения просим у модели.
	OptionsCount = 5
	// coreKeywordCount - первые ключевые слова считаются основными, остальные вспомогательными.
	coreKeywordCount = 2

	// NoChangeSentinel - ответ анализа отзыва, когда менять предпочтения не нужно.
	NoChangeSentinel = "无需调整"
)

// Prompt - пара системного и пользовательского промтов.
type Prompt struct {
	System string
	User   string
}

// Messages превращает промт в диалог для диспетчера.
func (p Prompt) Messages() []ai.Message {
	return []ai.Message{
		{Role: ai.RoleSystem, Content: p.System},
		{Role: ai.RoleUser, Content: p.User},
	}
}

// Protagonist - главный герой истории.
type Protagonist struct {
	Name       string
	Attributes []string
}

func (h Protagonist) attributesLine() string {
	if len(h.Attributes) == 0 {
		return ""
	}
	return fmt.Sprintf("角色属性：%s\n", strings.Join(h.Attributes, "，"))
}

func (h Protagonist) systemSuffix(focus string) string {
	if len(h.Attributes) == 0 {
		return ""
	}
	return fmt.Sprintf("主角具有以下属性：%s。请确保%s符合这些属性特征。", strings.Join(h.Attributes, "，"), focus)
}

// preferencesBlock отображает предпочтения читателя. Каждое значение попадает в текст дословно.
func preferencesBlock(prefs []models.UserPreference) string {
	if len(prefs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\n读者偏好：")
	for _, p := range prefs {
		if strings.TrimSpace(p.Value) == "" {
			continue
		}
		label := p.Description
		if label == "" {
			label = p.Name
		}
		fmt.Fprintf(&sb, "\n- %s(%s)：%s", label, p.Name, p.Value)
	}
	sb.WriteString("\n请在创作中遵循以上偏好。")
	return sb.String()
}

func splitKeywords(keywords []string) (core, auxiliary []string) {
	if len(keywords) <= coreKeywordCount {
		return keywords, nil
	}
	return keywords[:coreKeywordCount], keywords[coreKeywordCount:]
}

// BuildBeginning строит промт начала истории: основные ключевые слова ведут сюжет,
// вспомогательные добавляют детали и атмосферу.
func BuildBeginning(keywords []string, hero Protagonist, prefs []models.UserPreference) Prompt {
	core, auxiliary := splitKeywords(keywords)

	system := fmt.Sprintf("你是一位专业的小说创作AI，擅长根据关键词创作引人入胜的故事。请以\"%s\"为主角创作故事。", hero.Name) +
		hero.systemSuffix("故事中主角的性格和行为") +
		preferencesBlock(prefs)

	var user strings.Builder
	fmt.Fprintf(&user, "请根据以下关键词生成一个引人入胜的故事开端（约%d字），主角是\"%s\"：\n", BeginningWordTarget, hero.Name)
	fmt.Fprintf(&user, "核心关键词：%s\n", strings.Join(core, "，"))
	if len(auxiliary) > 0 {
		fmt.Fprintf(&user, "辅助关键词：%s\n", strings.Join(auxiliary, "，"))
	}
	user.WriteString(hero.attributesLine())
	user.WriteString("\n要求：\n")
	user.WriteString("1. 故事开端应该引人入胜，让读者想继续阅读\n")
	fmt.Fprintf(&user, "2. 字数控制在约%d字左右\n", BeginningWordTarget)
	fmt.Fprintf(&user, "3. 主角必须是\"%s\"，围绕这个角色展开故事\n", hero.Name)
	user.WriteString("4. 核心关键词驱动主要情节，辅助关键词用于丰富细节和氛围\n")
	user.WriteString("5. 为后续故事发展留下悬念和可能性\n")
	user.WriteString("6. 故事内容要详细生动，有丰富的描写和对话\n")
	user.WriteString("7. 主角的性格和行为应该符合其属性特征\n")

	return Prompt{System: system, User: user.String()}
}

// BuildOptions строит промт списка вариантов: ровно OptionsCount строк по 15-30 знаков без нумерации.
func BuildOptions(storyText string, hero Protagonist, prefs []models.UserPreference) Prompt {
	system := fmt.Sprintf("你是一位专业的小说创作AI，擅长为故事提供多样化的发展方向。请确保故事以\"%s\"为主角。", hero.Name) +
		hero.systemSuffix("故事发展方向") +
		preferencesBlock(prefs)

	var user strings.Builder
	fmt.Fprintf(&user, "基于以下故事内容，生成%d个可能的故事发展方向选项，主角是\"%s\"：\n\n", OptionsCount, hero.Name)
	user.WriteString(storyText)
	user.WriteString("\n\n")
	user.WriteString(hero.attributesLine())
	user.WriteString("要求：\n")
	user.WriteString("1. 每个选项应该简短明了（15-30字）\n")
	user.WriteString("2. 选项之间应该有明显的差异\n")
	user.WriteString("3. 选项应该合理地延续当前故事\n")
	fmt.Fprintf(&user, "4. 选项应该为主角\"%s\"提供有趣的发展可能性\n", hero.Name)
	user.WriteString("5. 选项应该符合主角的属性特征\n")
	fmt.Fprintf(&user, "6. 请直接列出%d个选项，每行一个，不要有编号或其他格式\n", OptionsCount)

	return Prompt{System: system, User: user.String()}
}

// BuildContinuation строит промт продолжения после выбора игрока.
func BuildContinuation(storyText, choice string, wordCount int, hero Protagonist, prefs []models.UserPreference) Prompt {
	system := fmt.Sprintf("你是一位专业的小说创作AI，擅长根据读者选择继续发展故事情节。请确保故事以\"%s\"为主角。", hero.Name) +
		hero.systemSuffix("故事中主角的性格和行为") +
		preferencesBlock(prefs)

	var user strings.Builder
	fmt.Fprintf(&user, "基于以下故事内容和玩家的选择，继续发展故事，主角是\"%s\"：\n\n", hero.Name)
	user.WriteString("故事内容：\n")
	user.WriteString(storyText)
	user.WriteString("\n\n玩家选择：\n")
	user.WriteString(choice)
	user.WriteString("\n\n")
	user.WriteString(hero.attributesLine())
	user.WriteString("要求：\n")
	user.WriteString("1. 根据玩家的选择自然地继续故事\n")
	fmt.Fprintf(&user, "2. 字数控制在%d字左右\n", wordCount)
	fmt.Fprintf(&user, "3. 主角必须是\"%s\"，围绕这个角色展开故事\n", hero.Name)
	user.WriteString("4. 故事应该有情节发展，不要简单重复已有内容\n")
	user.WriteString("5. 为后续发展留下可能性\n")
	user.WriteString("6. 故事内容要详细生动，有丰富的描写和对话\n")
	user.WriteString("7. 主角的性格和行为应该符合其属性特征\n")
	user.WriteString("8. 直接输出故事内容，不要加入其他说明\n")

	return Prompt{System: system, User: user.String()}
}

// BuildFeedbackAnalysis просит модель перевести отзыв читателя в изменения предпочтений
// в формате "имя: значение" либо вернуть NoChangeSentinel.
func BuildFeedbackAnalysis(feedback string, rating int, prefs []models.UserPreference) Prompt {
	system := "你是一位专业的阅读体验分析AI，擅长从读者反馈中提炼写作偏好的调整建议。"

	var user strings.Builder
	user.WriteString("当前读者偏好：\n")
	for _, p := range prefs {
		fmt.Fprintf(&user, "%s: %s（%s）\n", p.Name, p.Value, p.Description)
	}
	user.WriteString("\n读者反馈：\n")
	user.WriteString(feedback)
	if rating > 0 {
		fmt.Fprintf(&user, "\n\n读者评分：%d/5", rating)
	}
	user.WriteString("\n\n要求：\n")
	user.WriteString("1. 根据反馈判断需要调整哪些偏好\n")
	user.WriteString("2. 每行输出一项调整，格式为\"偏好名称: 新值\"，偏好名称必须使用上面列出的英文名称\n")
	user.WriteString("3. emotionalTone 可选值：积极、中性、消极、紧张、轻松、神秘\n")
	user.WriteString("4. themePreference 可选值：成长、冒险、爱情、友情、家庭、生存、复仇、救赎\n")
	fmt.Fprintf(&user, "5. 如果不需要调整，只输出\"%s\"\n", NoChangeSentinel)
	user.WriteString("6. 不要输出任何其他说明\n")

	return Prompt{System: system, User: user.String()}
}
