package dto

import (
	"github.com/google/uuid"
	"lintas.id/aidesk/internal/entity"
	commonDto "lintas.id/aidesk/pkg/dto"
)

type CreateTicketRequest struct {
	Subject string `json:"subject" binding:"required,max=255"`
	Message string `json:"message" binding:"required"`
}

type CreateTicketResponse struct {
	Success  bool      `json:"success"`
	TicketID uuid.UUID `json:"ticketId"`
	Message  string    `json:"message"`
}

type AddReplyRequest struct {
	Message string `json:"message" binding:"required"`
	// SenderRole is optional; when present it must match the role the
	// server derives from the caller.
	SenderRole string `json:"senderRole" binding:"omitempty,oneof=USER ADMIN"`
}

// UpdateStatusRequest carries a partial update; nil fields are untouched.
type UpdateStatusRequest struct {
	Status        *string `json:"status" binding:"omitempty,oneof=OPEN IN_PROGRESS CLOSED"`
	IsReadByUser  *bool   `json:"isReadByUser"`
	IsReadByAdmin *bool   `json:"isReadByAdmin"`
}

type RateTicketRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

type TicketListResponse struct {
	Data []entity.Ticket          `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
