package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"lintas.id/aidesk/internal/entity"
	"lintas.id/aidesk/internal/modules/notification/service"
	search "lintas.id/aidesk/internal/modules/search/service"
	"lintas.id/aidesk/internal/modules/ticket/dto"
	"lintas.id/aidesk/internal/modules/ticket/repository"
	userRepo "lintas.id/aidesk/internal/modules/user/repository"
	"lintas.id/aidesk/internal/realtime"
	"lintas.id/aidesk/pkg/apperror"
	commonDto "lintas.id/aidesk/pkg/dto"
	"lintas.id/aidesk/pkg/ratelimiter"
)

// MinMessageLength is the shortest accepted ticket message.
const MinMessageLength = 10

type Service interface {
	CreateTicket(ctx context.Context, userID uuid.UUID, req dto.CreateTicketRequest) (*entity.Ticket, error)
	GetTicket(ctx context.Context, actorID, ticketID uuid.UUID) (*entity.Ticket, error)
	ListMyTickets(ctx context.Context, userID uuid.UUID, filter commonDto.TicketFilter) (*dto.TicketListResponse, error)
	ListInbox(ctx context.Context, filter commonDto.TicketFilter) (*dto.TicketListResponse, error)
	AddReply(ctx context.Context, actorID, ticketID uuid.UUID, req dto.AddReplyRequest) (*entity.TicketReply, error)
	UpdateStatus(ctx context.Context, actorID, ticketID uuid.UUID, req dto.UpdateStatusRequest) (*entity.Ticket, error)
	SetRating(ctx context.Context, actorID, ticketID uuid.UUID, rating int) (*entity.Ticket, error)
	ResendNotification(ctx context.Context, actorID, ticketID uuid.UUID) error
	DeleteTicket(ctx context.Context, actorID, ticketID uuid.UUID) error
}

type ticketService struct {
	repo     repository.TicketRepository
	users    userRepo.UserRepository
	notifier service.Notifier
	events   realtime.Publisher
	limiter  *ratelimiter.RateLimiter
	search   search.SearchService
}

func NewTicketService(
	repo repository.TicketRepository,
	users userRepo.UserRepository,
	notifier service.Notifier,
	events realtime.Publisher,
	limiter *ratelimiter.RateLimiter,
	searchSvc search.SearchService,
) Service {
	return &ticketService{
		repo:     repo,
		users:    users,
		notifier: notifier,
		events:   events,
		limiter:  limiter,
		search:   searchSvc,
	}
}

// replyTransition returns the ticket field updates a reply causes.
//
// An admin reply moves the ticket to IN_PROGRESS and marks it unread for
// the user. A user reply forces the ticket back to OPEN regardless of its
// previous status (a reply to a CLOSED ticket reopens it) and marks it
// unread for the admin side.
func replyTransition(sender string) map[string]interface{} {
	if sender == entity.SenderAdmin {
		return map[string]interface{}{
			"status":           entity.TicketStatusInProgress,
			"is_read_by_user":  false,
			"is_read_by_admin": true,
		}
	}
	return map[string]interface{}{
		"status":           entity.TicketStatusOpen,
		"is_read_by_user":  true,
		"is_read_by_admin": false,
	}
}

func (s *ticketService) resolveActor(ctx context.Context, actorID uuid.UUID) (*entity.User, error) {
	actor, err := s.users.FindByID(ctx, actorID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}
	return actor, nil
}

func (s *ticketService) loadTicket(ctx context.Context, ticketID uuid.UUID) (*entity.Ticket, error) {
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (s *ticketService) CreateTicket(ctx context.Context, userID uuid.UUID, req dto.CreateTicketRequest) (*entity.Ticket, error) {
	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, "ticket:"+userID.String()); err != nil {
			return nil, err
		}
	}

	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)
	if subject == "" || message == "" {
		return nil, apperror.New(400, "subject and message are required", apperror.ErrInvalidInput)
	}
	if utf8.RuneCountInString(message) < MinMessageLength {
		return nil, apperror.New(400, "message must be at least 10 characters", apperror.ErrInvalidInput)
	}

	user, err := s.resolveActor(ctx, userID)
	if err != nil {
		return nil, err
	}

	ticket := &entity.Ticket{
		UserID:        user.ID,
		Email:         user.Email,
		Subject:       subject,
		Message:       message,
		Status:        entity.TicketStatusOpen,
		IsReadByUser:  true,
		IsReadByAdmin: false,
	}

	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		go s.notifier.NotifyNewTicket(context.Background(), ticket)
	}
	s.indexTicket(ticket)

	s.publish(ctx, realtime.Event{
		Type:     realtime.EventTicketCreated,
		TicketID: ticket.ID,
		OwnerID:  ticket.UserID,
		Status:   ticket.Status,
	})

	return ticket, nil
}

func (s *ticketService) GetTicket(ctx context.Context, actorID, ticketID uuid.UUID) (*entity.Ticket, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	isOwner := ticket.UserID == actor.ID
	if !isOwner && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}

	// Viewing a ticket marks the viewer's side as read. No write when the
	// flag is already set, so repeated views don't touch the row.
	if isOwner && !ticket.IsReadByUser {
		if err := s.repo.UpdateFieldsQuiet(ctx, ticket.ID, map[string]interface{}{"is_read_by_user": true}); err != nil {
			return nil, err
		}
		ticket.IsReadByUser = true
	} else if !isOwner && !ticket.IsReadByAdmin {
		if err := s.repo.UpdateFieldsQuiet(ctx, ticket.ID, map[string]interface{}{"is_read_by_admin": true}); err != nil {
			return nil, err
		}
		ticket.IsReadByAdmin = true
	}

	return ticket, nil
}

func (s *ticketService) ListMyTickets(ctx context.Context, userID uuid.UUID, filter commonDto.TicketFilter) (*dto.TicketListResponse, error) {
	tickets, total, err := s.repo.FindByOwner(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return buildListResponse(tickets, total, filter), nil
}

func (s *ticketService) ListInbox(ctx context.Context, filter commonDto.TicketFilter) (*dto.TicketListResponse, error) {
	if filter.Status != "" && !entity.ValidTicketStatus(filter.Status) {
		return nil, apperror.New(400, "unknown ticket status", apperror.ErrInvalidInput)
	}

	tickets, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return buildListResponse(tickets, total, filter), nil
}

func buildListResponse(tickets []entity.Ticket, total int64, filter commonDto.TicketFilter) *dto.TicketListResponse {
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

	return &dto.TicketListResponse{
		Data: tickets,
		Meta: commonDto.PaginationMeta{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalItems:  total,
			Limit:       limit,
		},
	}
}

func (s *ticketService) AddReply(ctx context.Context, actorID, ticketID uuid.UUID, req dto.AddReplyRequest) (*entity.TicketReply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apperror.New(400, "message is required", apperror.ErrInvalidInput)
	}

	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	isOwner := ticket.UserID == actor.ID
	if !isOwner && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}

	// An admin replying to someone else's ticket speaks as ADMIN; the
	// ticket owner always speaks as USER, admin role or not.
	sender := entity.SenderUser
	if !isOwner {
		sender = entity.SenderAdmin
	}
	if req.SenderRole != "" && req.SenderRole != sender {
		return nil, apperror.New(403, "senderRole does not match caller", apperror.ErrForbidden)
	}

	reply := &entity.TicketReply{
		TicketID:     ticket.ID,
		Sender:       sender,
		SenderName:   actor.FullName,
		SenderAvatar: actor.AvatarURL,
		Message:      message,
	}

	if err := s.repo.AppendReply(ctx, reply, replyTransition(sender)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if s.notifier != nil {
		go s.notifier.NotifyReply(context.Background(), ticket, reply)
	}

	fields := replyTransition(sender)
	readByUser := fields["is_read_by_user"].(bool)
	readByAdmin := fields["is_read_by_admin"].(bool)
	ticket.Status = fields["status"].(string)
	s.indexTicket(ticket)

	s.publish(ctx, realtime.Event{
		Type:          realtime.EventTicketReply,
		TicketID:      ticket.ID,
		OwnerID:       ticket.UserID,
		Status:        fields["status"].(string),
		IsReadByUser:  &readByUser,
		IsReadByAdmin: &readByAdmin,
		Sender:        sender,
		Message:       message,
	})

	return reply, nil
}

func (s *ticketService) UpdateStatus(ctx context.Context, actorID, ticketID uuid.UUID, req dto.UpdateStatusRequest) (*entity.Ticket, error) {
	if req.Status == nil && req.IsReadByUser == nil && req.IsReadByAdmin == nil {
		return nil, apperror.New(400, "no fields to update", apperror.ErrBadRequest)
	}

	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	isOwner := ticket.UserID == actor.ID
	isAdmin := actor.IsAdmin() && !isOwner

	// Each field has its own authorization rule: the read flags belong to
	// one side each, status may be changed by either party on their own
	// ticket or by an admin.
	if req.Status != nil && !isOwner && !isAdmin {
		return nil, apperror.ErrForbidden
	}
	if req.IsReadByUser != nil && !isOwner {
		return nil, apperror.New(403, "only the ticket owner may toggle isReadByUser", apperror.ErrForbidden)
	}
	if req.IsReadByAdmin != nil && !isAdmin {
		return nil, apperror.New(403, "only an admin may toggle isReadByAdmin", apperror.ErrForbidden)
	}

	statusFields := map[string]interface{}{}
	readFields := map[string]interface{}{}

	if req.Status != nil && *req.Status != ticket.Status {
		statusFields["status"] = *req.Status
		ticket.Status = *req.Status
	}
	if req.IsReadByUser != nil && *req.IsReadByUser != ticket.IsReadByUser {
		readFields["is_read_by_user"] = *req.IsReadByUser
		ticket.IsReadByUser = *req.IsReadByUser
	}
	if req.IsReadByAdmin != nil && *req.IsReadByAdmin != ticket.IsReadByAdmin {
		readFields["is_read_by_admin"] = *req.IsReadByAdmin
		ticket.IsReadByAdmin = *req.IsReadByAdmin
	}

	// Status changes bump updated_at; bare read-flag toggles don't, so
	// marking a ticket read never reorders the inbox.
	if len(statusFields) > 0 {
		for k, v := range readFields {
			statusFields[k] = v
		}
		if err := s.repo.UpdateFields(ctx, ticket.ID, statusFields); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.ErrNotFound
			}
			return nil, err
		}
	} else if len(readFields) > 0 {
		if err := s.repo.UpdateFieldsQuiet(ctx, ticket.ID, readFields); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.ErrNotFound
			}
			return nil, err
		}
	}

	s.indexTicket(ticket)

	s.publish(ctx, realtime.Event{
		Type:          realtime.EventTicketStatus,
		TicketID:      ticket.ID,
		OwnerID:       ticket.UserID,
		Status:        ticket.Status,
		IsReadByUser:  &ticket.IsReadByUser,
		IsReadByAdmin: &ticket.IsReadByAdmin,
	})

	return ticket, nil
}

func (s *ticketService) SetRating(ctx context.Context, actorID, ticketID uuid.UUID, rating int) (*entity.Ticket, error) {
	if rating < 1 || rating > 5 {
		return nil, apperror.New(400, "rating must be between 1 and 5", apperror.ErrInvalidInput)
	}

	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if ticket.UserID != actor.ID {
		return nil, apperror.New(403, "only the ticket owner may rate it", apperror.ErrForbidden)
	}

	// Last write wins; re-rating overwrites the previous value.
	if err := s.repo.UpdateFieldsQuiet(ctx, ticket.ID, map[string]interface{}{"rating": rating}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	ticket.Rating = &rating
	return ticket, nil
}

func (s *ticketService) ResendNotification(ctx context.Context, actorID, ticketID uuid.UUID) error {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return err
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	if ticket.UserID != actor.ID && !actor.IsAdmin() {
		return apperror.ErrForbidden
	}

	reply, err := s.repo.LatestReply(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(404, "ticket has no replies yet", apperror.ErrNotFound)
		}
		return err
	}

	if s.notifier != nil {
		go s.notifier.NotifyReply(context.Background(), ticket, reply)
	}

	return nil
}

func (s *ticketService) DeleteTicket(ctx context.Context, actorID, ticketID uuid.UUID) error {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return err
	}

	if !actor.IsAdmin() {
		return apperror.ErrForbidden
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, ticketID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if s.search != nil {
		go s.search.DeleteTicket(ticketID)
	}

	s.publish(ctx, realtime.Event{
		Type:     realtime.EventTicketDeleted,
		TicketID: ticket.ID,
		OwnerID:  ticket.UserID,
	})

	return nil
}

func (s *ticketService) indexTicket(ticket *entity.Ticket) {
	if s.search != nil {
		go s.search.IndexTicket(ticket)
	}
}

func (s *ticketService) publish(ctx context.Context, event realtime.Event) {
	if s.events != nil {
		s.events.Publish(ctx, event)
	}
}
