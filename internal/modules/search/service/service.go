package service

import (
	"fmt"
	"html"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"lintas.id/aidesk/internal/entity"
)

// SearchService keeps the Meilisearch indexes in sync with the store and
// signs tenant tokens for frontend search. Indexing failures are logged,
// never propagated; the database stays the source of truth.
type SearchService interface {
	IndexArticle(article *entity.KnowledgeArticle) error
	DeleteArticle(id uuid.UUID) error
	IndexTicket(ticket *entity.Ticket) error
	DeleteTicket(id uuid.UUID) error
	GenerateSearchToken(userID uuid.UUID, isAdmin bool) (string, error)
}

type searchService struct {
	client        meilisearch.ServiceManager
	masterKey     string
	signingKeyUID string
	signingKey    string
	sanitizer     *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	masterKey := os.Getenv("MEILI_MASTER_KEY")
	if masterKey == "" {
		log.Println("WARNING: MEILI_MASTER_KEY is not set.")
	}

	s := &searchService{
		client:    client,
		masterKey: masterKey,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	s.initSigningKey()
	return s
}

func (s *searchService) initIndexes() {
	if s.client == nil {
		return
	}

	// Tickets are filterable by status and owner so the admin inbox and
	// the user's own list can scope their queries.
	ticketFilterable := []string{"status", "user_id"}
	ticketFilterableInterface := make([]any, len(ticketFilterable))
	for i, v := range ticketFilterable {
		ticketFilterableInterface[i] = v
	}
	if _, err := s.client.Index("tickets").UpdateFilterableAttributes(&ticketFilterableInterface); err != nil {
		log.Printf("Failed to update tickets filterable attributes: %v", err)
	}

	ticketSortable := []string{"updated_at"}
	if _, err := s.client.Index("tickets").UpdateSortableAttributes(&ticketSortable); err != nil {
		log.Printf("Failed to update tickets sortable attributes: %v", err)
	}

	articleFilterable := []string{"published"}
	articleFilterableInterface := make([]any, len(articleFilterable))
	for i, v := range articleFilterable {
		articleFilterableInterface[i] = v
	}
	if _, err := s.client.Index("knowledge_articles").UpdateFilterableAttributes(&articleFilterableInterface); err != nil {
		log.Printf("Failed to update knowledge_articles filterable attributes: %v", err)
	}

	log.Println("Meilisearch indexes initialized")
}

func (s *searchService) initSigningKey() {
	if s.client == nil {
		return
	}

	resp, err := s.client.GetKeys(&meilisearch.KeysQuery{
		Limit: 20,
	})
	if err != nil {
		log.Printf("Failed to get meilisearch keys: %v", err)
		return
	}

	for _, key := range resp.Results {
		if key.Name == "TenantTokenSigner" {
			s.signingKeyUID = key.UID
			s.signingKey = key.Key
			log.Println("Found existing Meilisearch signing key")
			return
		}
	}

	expiry := time.Now().AddDate(100, 0, 0)

	key, err := s.client.CreateKey(&meilisearch.Key{
		Description: "Key to sign tenant tokens",
		Name:        "TenantTokenSigner",
		Actions:     []string{"search"},
		Indexes:     []string{"tickets", "knowledge_articles"},
		ExpiresAt:   expiry,
	})
	if err != nil {
		log.Printf("Failed to create signing key: %v", err)
		return
	}

	s.signingKeyUID = key.UID
	s.signingKey = key.Key
	log.Println("Created Meilisearch signing key")
}

type meiliTicketDoc struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	UserID    string `json:"user_id"`
	UpdatedAt int64  `json:"updated_at"`
}

type meiliArticleDoc struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
}

func (s *searchService) cleanContentForIndex(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)
	cleanText = strings.Join(strings.Fields(cleanText), " ")

	return cleanText
}

func (s *searchService) IndexTicket(ticket *entity.Ticket) error {
	if s.client == nil {
		return nil
	}

	doc := meiliTicketDoc{
		ID:        ticket.ID.String(),
		Subject:   ticket.Subject,
		Message:   s.cleanContentForIndex(ticket.Message),
		Email:     ticket.Email,
		Status:    ticket.Status,
		UserID:    ticket.UserID.String(),
		UpdatedAt: ticket.UpdatedAt.Unix(),
	}

	_, err := s.client.Index("tickets").AddDocuments([]meiliTicketDoc{doc}, strPtr("id"))
	if err != nil {
		log.Printf("Failed to index ticket %s: %v", ticket.ID, err)
		return err
	}

	return nil
}

func (s *searchService) DeleteTicket(id uuid.UUID) error {
	if s.client == nil {
		return nil
	}

	_, err := s.client.Index("tickets").DeleteDocument(id.String())
	return err
}

func (s *searchService) IndexArticle(article *entity.KnowledgeArticle) error {
	if s.client == nil {
		return nil
	}

	doc := meiliArticleDoc{
		ID:        article.ID.String(),
		Slug:      article.Slug,
		Title:     article.Title,
		Content:   s.cleanContentForIndex(article.Content),
		Published: article.Published,
	}

	_, err := s.client.Index("knowledge_articles").AddDocuments([]meiliArticleDoc{doc}, strPtr("id"))
	if err != nil {
		log.Printf("Failed to index article %s: %v", article.ID, err)
		return err
	}

	return nil
}

func (s *searchService) DeleteArticle(id uuid.UUID) error {
	if s.client == nil {
		return nil
	}

	_, err := s.client.Index("knowledge_articles").DeleteDocument(id.String())
	return err
}

// GenerateSearchToken signs a tenant token scoping what the caller may
// search: admins see every ticket, users only their own; unpublished
// articles are admin-only.
func (s *searchService) GenerateSearchToken(userID uuid.UUID, isAdmin bool) (string, error) {
	if s.signingKeyUID == "" || s.signingKey == "" {
		return "", fmt.Errorf("signing key not initialized")
	}

	searchRules := map[string]any{}
	if isAdmin {
		searchRules["tickets"] = map[string]any{"filter": nil}
		searchRules["knowledge_articles"] = map[string]any{"filter": nil}
	} else {
		searchRules["tickets"] = map[string]any{
			"filter": fmt.Sprintf("user_id = '%s'", userID),
		}
		searchRules["knowledge_articles"] = map[string]any{
			"filter": "published = true",
		}
	}

	token, err := s.client.GenerateTenantToken(s.signingKeyUID, searchRules, &meilisearch.TenantTokenOptions{
		APIKey:    s.signingKey,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

func strPtr(s string) *string {
	return &s
}
