package prompts

import (
	"strings"
	"testing"

	"story-server/internal/ai"
	"story-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHero = Protagonist{Name: "林远", Attributes: []string{"勇敢", "聪明"}}

func TestBuildBeginning_CoreAndAuxiliaryKeywords(t *testing.T) {
	p := BuildBeginning([]string{"森林", "宝藏", "夜晚", "迷雾"}, testHero, nil)

	assert.Contains(t, p.User, "核心关键词：森林，宝藏")
	assert.Contains(t, p.User, "辅助关键词：夜晚，迷雾")
	assert.Contains(t, p.User, "约1000字")
	assert.Contains(t, p.User, "角色属性：勇敢，聪明")
	assert.Contains(t, p.System, "\"林远\"")
	assert.Contains(t, p.System, "勇敢，聪明")
}

func TestBuildBeginning_OnlyCoreKeywords(t *testing.T) {
	p := BuildBeginning([]string{"森林", "宝藏"}, Protagonist{Name: "A"}, nil)
	assert.Contains(t, p.User, "核心关键词：森林，宝藏")
	assert.NotContains(t, p.User, "辅助关键词")
	assert.NotContains(t, p.User, "角色属性")
	assert.NotContains(t, p.System, "主角具有以下属性")
}

func TestBuildOptions(t *testing.T) {
	p := BuildOptions("故事文本", testHero, nil)
	assert.Contains(t, p.User, "故事文本")
	assert.Contains(t, p.User, "生成5个可能的故事发展方向选项")
	assert.Contains(t, p.User, "15-30字")
	assert.Contains(t, p.User, "每行一个，不要有编号")
}

func TestBuildContinuation(t *testing.T) {
	p := BuildContinuation("之前的故事", "打开石门", 800, testHero, nil)
	assert.Contains(t, p.User, "之前的故事")
	assert.Contains(t, p.User, "打开石门")
	assert.Contains(t, p.User, "字数控制在800字左右")
	assert.Contains(t, p.User, "不要简单重复已有内容")
	assert.Contains(t, p.User, "直接输出故事内容")
}

func TestPreferencesAppearInEveryPrompt(t *testing.T) {
	prefs := models.DefaultPreferences()
	for i := range prefs {
		if prefs[i].Name == models.PreferenceStoryStyle {
			prefs[i].Value = "科幻"
		}
	}

	prompts := []Prompt{
		BuildBeginning([]string{"a", "b"}, testHero, prefs),
		BuildOptions("t", testHero, prefs),
		BuildContinuation("t", "c", 500, testHero, prefs),
	}
	for _, p := range prompts {
		assert.Contains(t, p.System, "科幻")
		assert.Contains(t, p.System, "storyStyle")
	}
}

func TestPromptMessages(t *testing.T) {
	msgs := Prompt{System: "S", User: "U"}.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, ai.RoleSystem, msgs[0].Role)
	assert.Equal(t, "S", msgs[0].Content)
	assert.Equal(t, ai.RoleUser, msgs[1].Role)
	assert.Equal(t, "U", msgs[1].Content)
}

func TestBuildFeedbackAnalysis(t *testing.T) {
	p := BuildFeedbackAnalysis("太压抑了", 2, models.DefaultPreferences())
	assert.Contains(t, p.User, "太压抑了")
	assert.Contains(t, p.User, "2/5")
	assert.Contains(t, p.User, NoChangeSentinel)
	assert.True(t, strings.Contains(p.User, "emotionalTone: 中性"))
}
