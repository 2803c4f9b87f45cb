package handler

import (
	"net/http"
	"strings"

	"story-server/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.services.Users.Login(c.Request.Context(), req.Email)
	if err != nil {
		h.handleServiceError(c, err, "failed to log in, please try again later")
		return
	}
	c.JSON(http.StatusOK, models.OK(user))
}

func (h *Handler) updateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if !bindJSON(c, &req) {
		return
	}

	provider, coerced, err := h.services.Users.UpdateSettings(c.Request.Context(), req.Email, req.APISettings.Provider)
	if err != nil {
		h.handleServiceError(c, err, "failed to update settings, please try again later")
		return
	}
	c.JSON(http.StatusOK, models.OK(updateSettingsResponse{Provider: string(provider), Coerced: coerced}))
}

func (h *Handler) createCharacter(c *gin.Context) {
	var req createCharacterRequest
	if !bindJSON(c, &req) {
		return
	}

	character, err := h.services.Characters.Create(c.Request.Context(), req.Email, req.Name, req.Attributes)
	if err != nil {
		h.handleServiceError(c, err, "failed to create character, please try again later")
		return
	}
	c.JSON(http.StatusOK, models.OK(character))
}

// deleteCharacterByQuery - DELETE /api/auth/character?id=&email=
func (h *Handler) deleteCharacterByQuery(c *gin.Context) {
	req := deleteCharacterRequest{
		Email:       strings.TrimSpace(c.Query("email")),
		CharacterID: strings.TrimSpace(c.Query("id")),
	}
	if err := req.Validate(); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.Fail(err.Error()))
		return
	}
	h.removeCharacter(c, req)
}

func (h *Handler) deleteCharacter(c *gin.Context) {
	var req deleteCharacterRequest
	if !bindJSON(c, &req) {
		return
	}
	h.removeCharacter(c, req)
}

func (h *Handler) removeCharacter(c *gin.Context, req deleteCharacterRequest) {
	if err := h.services.Characters.Delete(c.Request.Context(), req.Email, req.CharacterID); err != nil {
		h.handleServiceError(c, err, "failed to delete character, please try again later")
		return
	}
	c.JSON(http.StatusOK, models.OK(idResponse{ID: req.CharacterID}))
}
