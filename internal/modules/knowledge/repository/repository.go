package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"lintas.id/aidesk/internal/entity"
	commonDto "lintas.id/aidesk/pkg/dto"
)

type ArticleRepository interface {
	Create(ctx context.Context, article *entity.KnowledgeArticle) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.KnowledgeArticle, error)
	FindBySlug(ctx context.Context, slug string) (*entity.KnowledgeArticle, error)
	// FindPublished lists published articles only; the admin panel uses FindAll.
	FindPublished(ctx context.Context, filter commonDto.ArticleFilter) ([]entity.KnowledgeArticle, int64, error)
	FindAll(ctx context.Context, filter commonDto.ArticleFilter) ([]entity.KnowledgeArticle, int64, error)
	Update(ctx context.Context, article *entity.KnowledgeArticle) error
	Delete(ctx context.Context, id uuid.UUID) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type articleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(ctx context.Context, article *entity.KnowledgeArticle) error {
	return r.db.WithContext(ctx).Create(article).Error
}

func (r *articleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.KnowledgeArticle, error) {
	var article entity.KnowledgeArticle
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) FindBySlug(ctx context.Context, slug string) (*entity.KnowledgeArticle, error) {
	var article entity.KnowledgeArticle
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) FindPublished(ctx context.Context, filter commonDto.ArticleFilter) ([]entity.KnowledgeArticle, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.KnowledgeArticle{}).Where("published = ?", true)
	return r.list(query, filter)
}

func (r *articleRepository) FindAll(ctx context.Context, filter commonDto.ArticleFilter) ([]entity.KnowledgeArticle, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.KnowledgeArticle{})
	return r.list(query, filter)
}

func (r *articleRepository) list(query *gorm.DB, filter commonDto.ArticleFilter) ([]entity.KnowledgeArticle, int64, error) {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR content ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 50 {
		limit = 20
	}

	var articles []entity.KnowledgeArticle
	if err := query.
		Order("updated_at desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&articles).Error; err != nil {
		return nil, 0, err
	}

	return articles, total, nil
}

func (r *articleRepository) Update(ctx context.Context, article *entity.KnowledgeArticle) error {
	return r.db.WithContext(ctx).Save(article).Error
}

func (r *articleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.KnowledgeArticle{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *articleRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.KnowledgeArticle{}).
		Where("slug = ?", slug).
		Count(&count).Error
	return count > 0, err
}
