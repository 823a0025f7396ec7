package dto

import (
	"lintas.id/aidesk/internal/entity"
	commonDto "lintas.id/aidesk/pkg/dto"
)

type CreateArticleRequest struct {
	Title     string `json:"title" binding:"required,max=255"`
	Content   string `json:"content" binding:"required"`
	Slug      string `json:"slug" binding:"omitempty,max=255"`
	Published bool   `json:"published"`
}

type UpdateArticleRequest struct {
	Title     *string `json:"title" binding:"omitempty,max=255"`
	Content   *string `json:"content" binding:"omitempty"`
	Slug      *string `json:"slug" binding:"omitempty,max=255"`
	Published *bool   `json:"published"`
}

type ImportArticleRequest struct {
	URL string `json:"url" binding:"required,url"`
}

type ArticleListResponse struct {
	Data []entity.KnowledgeArticle `json:"data"`
	Meta commonDto.PaginationMeta  `json:"meta"`
}
