package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	botDto "lintas.id/aidesk/internal/modules/bot/dto"
	bot "lintas.id/aidesk/internal/modules/bot/service"
	"lintas.id/aidesk/pkg/response"
	"lintas.id/aidesk/pkg/validator"
)

type BotConfigHandler struct {
	service bot.Service
}

func NewBotConfigHandler(service bot.Service) *BotConfigHandler {
	return &BotConfigHandler{service: service}
}

func (h *BotConfigHandler) GetConfig(c *gin.Context) {
	cfg, err := h.service.GetConfig(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

func (h *BotConfigHandler) UpdateConfig(c *gin.Context) {
	var req botDto.UpdateBotConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	cfg, err := h.service.UpdateConfig(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}
