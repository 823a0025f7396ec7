package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lintas.id/aidesk/internal/entity"
	"lintas.id/aidesk/internal/modules/ticket/dto"
	"lintas.id/aidesk/pkg/apperror"
	commonDto "lintas.id/aidesk/pkg/dto"
	"lintas.id/aidesk/pkg/ratelimiter"
)

type stubService struct {
	createErr error
	getErr    error
	ticket    *entity.Ticket
}

func (s *stubService) CreateTicket(ctx context.Context, userID uuid.UUID, req dto.CreateTicketRequest) (*entity.Ticket, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.ticket, nil
}

func (s *stubService) GetTicket(ctx context.Context, actorID, ticketID uuid.UUID) (*entity.Ticket, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.ticket, nil
}

func (s *stubService) ListMyTickets(ctx context.Context, userID uuid.UUID, filter commonDto.TicketFilter) (*dto.TicketListResponse, error) {
	return &dto.TicketListResponse{}, nil
}

func (s *stubService) ListInbox(ctx context.Context, filter commonDto.TicketFilter) (*dto.TicketListResponse, error) {
	return &dto.TicketListResponse{}, nil
}

func (s *stubService) AddReply(ctx context.Context, actorID, ticketID uuid.UUID, req dto.AddReplyRequest) (*entity.TicketReply, error) {
	return &entity.TicketReply{TicketID: ticketID, Message: req.Message}, nil
}

func (s *stubService) UpdateStatus(ctx context.Context, actorID, ticketID uuid.UUID, req dto.UpdateStatusRequest) (*entity.Ticket, error) {
	return s.ticket, nil
}

func (s *stubService) SetRating(ctx context.Context, actorID, ticketID uuid.UUID, rating int) (*entity.Ticket, error) {
	return s.ticket, nil
}

func (s *stubService) ResendNotification(ctx context.Context, actorID, ticketID uuid.UUID) error {
	return nil
}

func (s *stubService) DeleteTicket(ctx context.Context, actorID, ticketID uuid.UUID) error {
	return nil
}

func setupRouter(svc *stubService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})

	h := NewTicketHandler(svc)
	router.POST("/api/support", h.CreateTicket)
	router.GET("/api/support/:id", h.GetTicket)
	router.POST("/api/support/:id", h.AddReply)
	router.PATCH("/api/support/:id/status", h.UpdateStatus)

	return router
}

func TestCreateTicketResponseShape(t *testing.T) {
	ticketID := uuid.New()
	svc := &stubService{ticket: &entity.Ticket{ID: ticketID, Status: entity.TicketStatusOpen}}
	router := setupRouter(svc, uuid.NewString())

	body := `{"subject":"Billing","message":"I was charged twice this month."}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/support", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.CreateTicketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, ticketID, resp.TicketID)
}

func TestCreateTicketMissingFields(t *testing.T) {
	svc := &stubService{}
	router := setupRouter(svc, uuid.NewString())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/support", strings.NewReader(`{"subject":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestCreateTicketUnauthenticated(t *testing.T) {
	svc := &stubService{}
	router := setupRouter(svc, "")

	body := `{"subject":"Billing","message":"I was charged twice this month."}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/support", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateTicketRateLimited(t *testing.T) {
	svc := &stubService{createErr: &ratelimiter.RateLimitError{
		Message:    "too many tickets, slow down",
		RetryAfter: 42 * time.Second,
	}}
	router := setupRouter(svc, uuid.NewString())

	body := `{"subject":"Billing","message":"I was charged twice this month."}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/support", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "42", w.Header().Get("Retry-After"))
}

func TestGetTicketInvalidID(t *testing.T) {
	svc := &stubService{}
	router := setupRouter(svc, uuid.NewString())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/support/not-a-uuid", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTicketNotFound(t *testing.T) {
	svc := &stubService{getErr: apperror.ErrNotFound}
	router := setupRouter(svc, uuid.NewString())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/support/"+uuid.NewString(), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc := &stubService{ticket: &entity.Ticket{}}
	router := setupRouter(svc, uuid.NewString())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/support/"+uuid.NewString()+"/status",
		strings.NewReader(`{"status":"ARCHIVED"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
