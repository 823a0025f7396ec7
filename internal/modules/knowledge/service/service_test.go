package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"lintas.id/aidesk/internal/entity"
	"lintas.id/aidesk/internal/modules/knowledge/dto"
	"lintas.id/aidesk/pkg/apperror"
	commonDto "lintas.id/aidesk/pkg/dto"
)

type fakeArticleRepo struct {
	articles map[uuid.UUID]*entity.KnowledgeArticle
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{articles: map[uuid.UUID]*entity.KnowledgeArticle{}}
}

func (r *fakeArticleRepo) Create(ctx context.Context, article *entity.KnowledgeArticle) error {
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	r.articles[article.ID] = article
	return nil
}

func (r *fakeArticleRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.KnowledgeArticle, error) {
	article, ok := r.articles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return article, nil
}

func (r *fakeArticleRepo) FindBySlug(ctx context.Context, slug string) (*entity.KnowledgeArticle, error) {
	for _, a := range r.articles {
		if a.Slug == slug {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeArticleRepo) FindPublished(ctx context.Context, filter commonDto.ArticleFilter) ([]entity.KnowledgeArticle, int64, error) {
	var out []entity.KnowledgeArticle
	for _, a := range r.articles {
		if a.Published {
			out = append(out, *a)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeArticleRepo) FindAll(ctx context.Context, filter commonDto.ArticleFilter) ([]entity.KnowledgeArticle, int64, error) {
	var out []entity.KnowledgeArticle
	for _, a := range r.articles {
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

func (r *fakeArticleRepo) Update(ctx context.Context, article *entity.KnowledgeArticle) error {
	r.articles[article.ID] = article
	return nil
}

func (r *fakeArticleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.articles[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.articles, id)
	return nil
}

func (r *fakeArticleRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	for _, a := range r.articles {
		if a.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"How To Reset Your Password":  "how-to-reset-your-password",
		"  FAQ: Billing & Invoices  ": "faq-billing-invoices",
		"___":                         "article",
	}

	for input, want := range cases {
		assert.Equal(t, want, slugify(input), "input %q", input)
	}
}

func TestCreateGeneratesUniqueSlug(t *testing.T) {
	repo := newFakeArticleRepo()
	svc := NewKnowledgeService(repo, nil)

	first, err := svc.Create(context.Background(), dto.CreateArticleRequest{
		Title:   "Reset Password",
		Content: "Step by step guide.",
	})
	require.NoError(t, err)
	assert.Equal(t, "reset-password", first.Slug)

	second, err := svc.Create(context.Background(), dto.CreateArticleRequest{
		Title:   "Reset Password",
		Content: "A newer guide.",
	})
	require.NoError(t, err)
	assert.Equal(t, "reset-password-2", second.Slug)
}

func TestCreateValidation(t *testing.T) {
	repo := newFakeArticleRepo()
	svc := NewKnowledgeService(repo, nil)

	_, err := svc.Create(context.Background(), dto.CreateArticleRequest{
		Title:   "   ",
		Content: "Body",
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperror.MapErrorToStatus(err))
	assert.Empty(t, repo.articles)
}

func TestGetBySlugHidesUnpublished(t *testing.T) {
	repo := newFakeArticleRepo()
	svc := NewKnowledgeService(repo, nil)

	draft, err := svc.Create(context.Background(), dto.CreateArticleRequest{
		Title:     "Draft Article",
		Content:   "Not ready yet.",
		Published: false,
	})
	require.NoError(t, err)

	_, err = svc.GetBySlug(context.Background(), draft.Slug)
	require.Error(t, err)
	assert.Equal(t, 404, apperror.MapErrorToStatus(err))

	published := true
	_, err = svc.Update(context.Background(), draft.ID, dto.UpdateArticleRequest{Published: &published})
	require.NoError(t, err)

	found, err := svc.GetBySlug(context.Background(), draft.Slug)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, found.ID)
}

func TestUpdateChangesSlugWhenRequested(t *testing.T) {
	repo := newFakeArticleRepo()
	svc := NewKnowledgeService(repo, nil)

	article, err := svc.Create(context.Background(), dto.CreateArticleRequest{
		Title:   "Original Title",
		Content: "Body text.",
	})
	require.NoError(t, err)

	newSlug := "Better Slug"
	updated, err := svc.Update(context.Background(), article.ID, dto.UpdateArticleRequest{Slug: &newSlug})
	require.NoError(t, err)
	assert.Equal(t, "better-slug", updated.Slug)
}

func TestDeleteMissingArticle(t *testing.T) {
	svc := NewKnowledgeService(newFakeArticleRepo(), nil)

	err := svc.Delete(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, 404, apperror.MapErrorToStatus(err))
}
