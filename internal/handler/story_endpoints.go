package handler

import (
	"net/http"
	"strings"

	"story-server/internal/models"
	"story-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) createStory(c *gin.Context) {
	var req createStoryRequest
	if !bindJSON(c, &req) {
		return
	}

	story, err := h.services.Stories.CreateStory(c.Request.Context(), service.CreateStoryInput{
		Email:       req.Email,
		CharacterID: req.CharacterID,
		Keywords:    req.Keywords,
	})
	if err != nil {
		h.handleServiceError(c, err, "failed to create story, please try again later")
		return
	}
	c.JSON(http.StatusOK, models.OK(story))
}

func (h *Handler) generateOptions(c *gin.Context) {
	var req optionsRequest
	if !bindJSON(c, &req) {
		return
	}

	options, err := h.services.Stories.GenerateOptions(c.Request.Context(), service.OptionsInput{
		Email:        req.Email,
		CharacterID:  req.CharacterID,
		StoryID:      req.StoryID,
		StoryContent: toStoryContent(req.StoryContent),
	})
	if err != nil {
		h.handleServiceError(c, err, "failed to generate options, please try again later")
		return
	}
	c.JSON(http.StatusOK, models.OK(options))
}

func (h *Handler) continueStory(c *gin.Context) {
	var req continueRequest
	if !bindJSON(c, &req) {
		return
	}

	story, err := h.services.Stories.ContinueStory(c.Request.Context(), service.ContinueInput{
		Email:        req.Email,
		CharacterID:  req.CharacterID,
		StoryID:      req.StoryID,
		StoryContent: toStoryContent(req.StoryContent),
		Choice:       req.Choice,
		WordCount:    req.WordCount,
	})
	if err != nil {
		h.handleServiceError(c, err, "failed to continue story, please try again later")
		return
	}
	c.JSON(http.StatusOK, models.OK(continueResponse{Story: story}))
}

func (h *Handler) deleteStory(c *gin.Context) {
	var req storyRefRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.services.Stories.DeleteStory(c.Request.Context(), req.Email, req.CharacterID, req.StoryID); err != nil {
		h.handleServiceError(c, err, "failed to delete story, please try again later")
		return
	}
	c.JSON(http.StatusOK, models.OK(idResponse{ID: req.StoryID}))
}

func (h *Handler) getPreferences(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.Fail("email is required"))
		return
	}

	prefs, err := h.services.Preferences.Get(c.Request.Context(), email)
	if err != nil {
		h.handleServiceError(c, err, "failed to load preferences, please try again later")
		return
	}
	c.JSON(http.StatusOK, models.OK(preferencesResponse{Preferences: prefs}))
}

func (h *Handler) setPreference(c *gin.Context) {
	var req setPreferenceRequest
	if !bindJSON(c, &req) {
		return
	}

	prefs, err := h.services.Preferences.Set(c.Request.Context(), req.Email, req.PreferenceName, req.PreferenceValue)
	if err != nil {
		h.handleServiceError(c, err, "failed to update preferences, please try again later")
		return
	}
	c.JSON(http.StatusOK, models.OK(preferencesResponse{Message: "preferences updated", Preferences: prefs}))
}

func (h *Handler) feedback(c *gin.Context) {
	var req feedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.services.Preferences.AnalyzeFeedback(c.Request.Context(), req.Email, req.StoryID, req.Feedback, req.Rating)
	if err != nil {
		h.handleServiceError(c, err, "failed to process feedback, please try again later")
		return
	}

	resp := feedbackResponse{
		Message:     "feedback processed",
		Preferences: res.Preferences,
		Applied:     make([]preferenceChangeDTO, 0, len(res.Applied)),
		Rejected:    res.Rejected,
		NoChange:    res.NoChange,
	}
	if resp.Rejected == nil {
		resp.Rejected = []string{}
	}
	for _, d := range res.Applied {
		resp.Applied = append(resp.Applied, preferenceChangeDTO{Name: d.Name, Value: d.Value})
	}
	c.JSON(http.StatusOK, models.OK(resp))
}

func (h *Handler) shareStory(c *gin.Context) {
	var req shareRequest
	if !bindJSON(c, &req) {
		return
	}

	shared, err := h.services.Sharing.Share(c.Request.Context(), req.Email, req.CharacterID, req.StoryID, req.AuthorName)
	if err != nil {
		h.handleServiceError(c, err, "failed to share story, please try again later")
		return
	}
	c.JSON(http.StatusOK, models.OK(shared))
}

func (h *Handler) getSharedStory(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.Fail("id is required"))
		return
	}

	found, err := h.services.Sharing.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, "failed to load story, please try again later")
		return
	}
	if found.Snapshot != nil {
		c.JSON(http.StatusOK, models.OK(found.Snapshot))
		return
	}
	h.logger.Debug("Serving live story for share id", zap.String("id", id))
	c.JSON(http.StatusOK, models.OK(found.Story))
}
