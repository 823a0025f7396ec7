package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"lintas.id/aidesk/internal/entity"
	commonDto "lintas.id/aidesk/pkg/dto"
)

type TicketRepository interface {
	Create(ctx context.Context, ticket *entity.Ticket) error
	// FindByID loads the ticket with its replies in ascending creation order.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Ticket, error)
	FindByOwner(ctx context.Context, userID uuid.UUID, filter commonDto.TicketFilter) ([]entity.Ticket, int64, error)
	FindAll(ctx context.Context, filter commonDto.TicketFilter) ([]entity.Ticket, int64, error)
	// AppendReply inserts the reply and applies the lifecycle field updates
	// in a single transaction.
	AppendReply(ctx context.Context, reply *entity.TicketReply, fields map[string]interface{}) error
	// UpdateFields applies a partial update and bumps updated_at.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	// UpdateFieldsQuiet applies a partial update without touching updated_at.
	// Used for read-flag toggles.
	UpdateFieldsQuiet(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	LatestReply(ctx context.Context, ticketID uuid.UUID) (*entity.TicketReply, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	CountUnreadByAdmin(ctx context.Context) (int64, error)
	// FindAwaitingAdmin lists tickets that are OPEN and unread by admin,
	// oldest first. Feeds the daily digest.
	FindAwaitingAdmin(ctx context.Context) ([]entity.Ticket, error)
}

type ticketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *entity.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *ticketRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Ticket, error) {
	var ticket entity.Ticket
	if err := r.db.WithContext(ctx).
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		Where("id = ?", id).
		First(&ticket).Error; err != nil {
		return nil, err
	}

	return &ticket, nil
}

func (r *ticketRepository) FindByOwner(ctx context.Context, userID uuid.UUID, filter commonDto.TicketFilter) ([]entity.Ticket, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Ticket{}).Where("user_id = ?", userID)
	return r.list(query, filter)
}

func (r *ticketRepository) FindAll(ctx context.Context, filter commonDto.TicketFilter) ([]entity.Ticket, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Ticket{})
	return r.list(query, filter)
}

func (r *ticketRepository) list(query *gorm.DB, filter commonDto.TicketFilter) ([]entity.Ticket, int64, error) {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("subject ILIKE ? OR message ILIKE ? OR email ILIKE ?", pattern, pattern, pattern)
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

	var tickets []entity.Ticket
	if err := query.
		Order("updated_at desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&tickets).Error; err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

func (r *ticketRepository) AppendReply(ctx context.Context, reply *entity.TicketReply, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reply).Error; err != nil {
			return err
		}

		result := tx.Model(&entity.Ticket{}).Where("id = ?", reply.TicketID).Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}

func (r *ticketRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&entity.Ticket{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ticketRepository) UpdateFieldsQuiet(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&entity.Ticket{}).Where("id = ?", id).UpdateColumns(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ticket_id = ?", id).Delete(&entity.TicketReply{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&entity.Ticket{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}

func (r *ticketRepository) LatestReply(ctx context.Context, ticketID uuid.UUID) (*entity.TicketReply, error) {
	var reply entity.TicketReply
	if err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at desc").
		First(&reply).Error; err != nil {
		return nil, err
	}

	return &reply, nil
}

func (r *ticketRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}

	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&entity.Ticket{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := map[string]int64{
		entity.TicketStatusOpen:       0,
		entity.TicketStatusInProgress: 0,
		entity.TicketStatusClosed:     0,
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}

	return counts, nil
}

func (r *ticketRepository) CountUnreadByAdmin(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Ticket{}).
		Where("is_read_by_admin = ?", false).
		Count(&count).Error
	return count, err
}

func (r *ticketRepository) FindAwaitingAdmin(ctx context.Context) ([]entity.Ticket, error) {
	var tickets []entity.Ticket
	err := r.db.WithContext(ctx).
		Where("status = ? AND is_read_by_admin = ?", entity.TicketStatusOpen, false).
		Order("updated_at asc").
		Find(&tickets).Error
	return tickets, err
}
