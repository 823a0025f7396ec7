package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"lintas.id/aidesk/internal/entity"
	"lintas.id/aidesk/internal/modules/knowledge/dto"
	"lintas.id/aidesk/internal/modules/knowledge/repository"
	search "lintas.id/aidesk/internal/modules/search/service"
	"lintas.id/aidesk/pkg/apperror"
	commonDto "lintas.id/aidesk/pkg/dto"
)

type Service interface {
	ListPublished(ctx context.Context, filter commonDto.ArticleFilter) (*dto.ArticleListResponse, error)
	GetBySlug(ctx context.Context, slug string) (*entity.KnowledgeArticle, error)
	ListAll(ctx context.Context, filter commonDto.ArticleFilter) (*dto.ArticleListResponse, error)
	Create(ctx context.Context, req dto.CreateArticleRequest) (*entity.KnowledgeArticle, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateArticleRequest) (*entity.KnowledgeArticle, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ImportFromURL scrapes the page and stores the result as an unpublished
	// draft for the admin to review.
	ImportFromURL(ctx context.Context, url string) (*entity.KnowledgeArticle, error)
}

type knowledgeService struct {
	repo   repository.ArticleRepository
	search search.SearchService
}

func NewKnowledgeService(repo repository.ArticleRepository, searchSvc search.SearchService) Service {
	return &knowledgeService{repo: repo, search: searchSvc}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 200 {
		slug = slug[:200]
	}
	if slug == "" {
		slug = "article"
	}
	return slug
}

// uniqueSlug appends a numeric suffix until the slug is free.
func (s *knowledgeService) uniqueSlug(ctx context.Context, base string) (string, error) {
	slug := base
	for i := 2; ; i++ {
		exists, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *knowledgeService) ListPublished(ctx context.Context, filter commonDto.ArticleFilter) (*dto.ArticleListResponse, error) {
	articles, total, err := s.repo.FindPublished(ctx, filter)
	if err != nil {
		return nil, err
	}
	return buildListResponse(articles, total, filter), nil
}

func (s *knowledgeService) GetBySlug(ctx context.Context, slug string) (*entity.KnowledgeArticle, error) {
	article, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	if !article.Published {
		return nil, apperror.ErrNotFound
	}
	return article, nil
}

func (s *knowledgeService) ListAll(ctx context.Context, filter commonDto.ArticleFilter) (*dto.ArticleListResponse, error) {
	articles, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return buildListResponse(articles, total, filter), nil
}

func buildListResponse(articles []entity.KnowledgeArticle, total int64, filter commonDto.ArticleFilter) *dto.ArticleListResponse {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 50 {
		limit = 20
	}

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	return &dto.ArticleListResponse{
		Data: articles,
		Meta: commonDto.PaginationMeta{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalItems:  total,
			Limit:       limit,
		},
	}
}

func (s *knowledgeService) Create(ctx context.Context, req dto.CreateArticleRequest) (*entity.KnowledgeArticle, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return nil, apperror.New(400, "title and content are required", apperror.ErrInvalidInput)
	}

	base := req.Slug
	if base == "" {
		base = title
	}
	slug, err := s.uniqueSlug(ctx, slugify(base))
	if err != nil {
		return nil, err
	}

	article := &entity.KnowledgeArticle{
		Slug:      slug,
		Title:     title,
		Content:   content,
		Published: req.Published,
	}

	if err := s.repo.Create(ctx, article); err != nil {
		return nil, err
	}

	s.indexArticle(article)
	return article, nil
}

func (s *knowledgeService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateArticleRequest) (*entity.KnowledgeArticle, error) {
	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperror.New(400, "title cannot be empty", apperror.ErrInvalidInput)
		}
		article.Title = title
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return nil, apperror.New(400, "content cannot be empty", apperror.ErrInvalidInput)
		}
		article.Content = content
	}
	if req.Slug != nil && slugify(*req.Slug) != article.Slug {
		slug, err := s.uniqueSlug(ctx, slugify(*req.Slug))
		if err != nil {
			return nil, err
		}
		article.Slug = slug
	}
	if req.Published != nil {
		article.Published = *req.Published
	}

	if err := s.repo.Update(ctx, article); err != nil {
		return nil, err
	}

	s.indexArticle(article)
	return article, nil
}

func (s *knowledgeService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if s.search != nil {
		go s.search.DeleteArticle(id)
	}
	return nil
}

func (s *knowledgeService) ImportFromURL(ctx context.Context, url string) (*entity.KnowledgeArticle, error) {
	page, err := scrapePage(url)
	if err != nil {
		return nil, apperror.New(502, "could not fetch the page", apperror.ErrUpstream)
	}
	if page.Content == "" {
		return nil, apperror.New(422, "no article content found at that URL", apperror.ErrInvalidInput)
	}

	title := page.Title
	if title == "" {
		title = url
	}

	slug, err := s.uniqueSlug(ctx, slugify(title))
	if err != nil {
		return nil, err
	}

	article := &entity.KnowledgeArticle{
		Slug:      slug,
		Title:     title,
		Content:   page.Content,
		SourceURL: &url,
		Published: false,
	}

	if err := s.repo.Create(ctx, article); err != nil {
		return nil, err
	}

	s.indexArticle(article)
	return article, nil
}

func (s *knowledgeService) indexArticle(article *entity.KnowledgeArticle) {
	if s.search != nil {
		go s.search.IndexArticle(article)
	}
}
