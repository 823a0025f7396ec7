package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	knowledgeDto "lintas.id/aidesk/internal/modules/knowledge/dto"
	knowledge "lintas.id/aidesk/internal/modules/knowledge/service"
	commonDto "lintas.id/aidesk/pkg/dto"
	"lintas.id/aidesk/pkg/response"
	"lintas.id/aidesk/pkg/validator"
)

type KnowledgeHandler struct {
	service knowledge.Service
}

func NewKnowledgeHandler(service knowledge.Service) *KnowledgeHandler {
	return &KnowledgeHandler{service: service}
}

func (h *KnowledgeHandler) ListPublished(c *gin.Context) {
	var filter commonDto.ArticleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ResponseError(c, err)
		return
	}

	articles, err := h.service.ListPublished(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, articles)
}

func (h *KnowledgeHandler) GetBySlug(c *gin.Context) {
	article, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, article)
}

func (h *KnowledgeHandler) ListAll(c *gin.Context) {
	var filter commonDto.ArticleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ResponseError(c, err)
		return
	}

	articles, err := h.service.ListAll(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, articles)
}

func (h *KnowledgeHandler) Create(c *gin.Context) {
	var req knowledgeDto.CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	article, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, article)
}

func (h *KnowledgeHandler) Update(c *gin.Context) {
	articleID, err := parseArticleID(c)
	if err != nil {
		return
	}

	var req knowledgeDto.UpdateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	article, err := h.service.Update(c.Request.Context(), articleID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, article)
}

func (h *KnowledgeHandler) Delete(c *gin.Context) {
	articleID, err := parseArticleID(c)
	if err != nil {
		return
	}

	if err := h.service.Delete(c.Request.Context(), articleID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "article deleted successfully"})
}

func (h *KnowledgeHandler) Import(c *gin.Context) {
	var req knowledgeDto.ImportArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	article, err := h.service.ImportFromURL(c.Request.Context(), req.URL)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, article)
}

func parseArticleID(c *gin.Context) (uuid.UUID, error) {
	articleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return uuid.Nil, err
	}
	return articleID, nil
}
