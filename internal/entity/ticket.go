package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TicketStatusOpen       = "OPEN"
	TicketStatusInProgress = "IN_PROGRESS"
	TicketStatusClosed     = "CLOSED"
)

const (
	SenderUser  = "USER"
	SenderAdmin = "ADMIN"
)

// ValidTicketStatus reports whether s is one of the three ticket statuses.
func ValidTicketStatus(s string) bool {
	return s == TicketStatusOpen || s == TicketStatusInProgress || s == TicketStatusClosed
}

type Ticket struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	// Contact address captured at creation; not recomputed when the
	// user later changes their account email.
	Email   string `gorm:"size:100;not null" json:"email"`
	Subject string `gorm:"size:255;not null" json:"subject"`
	Message string `gorm:"type:text;not null" json:"message"`

	Status        string `gorm:"size:20;not null;default:OPEN;index" json:"status"`
	IsReadByUser  bool   `gorm:"not null;default:true" json:"is_read_by_user"`
	IsReadByAdmin bool   `gorm:"not null;default:false" json:"is_read_by_admin"`

	Rating *int `json:"rating,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User    *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Replies []TicketReply `gorm:"constraint:OnDelete:CASCADE" json:"replies,omitempty"`
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type TicketReply struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;index" json:"ticket_id"`
	Sender   string    `gorm:"size:10;not null" json:"sender"`

	// Display snapshot at the time of the reply
	SenderName   string  `gorm:"size:100;not null" json:"sender_name"`
	SenderAvatar *string `gorm:"type:text" json:"sender_avatar,omitempty"`

	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *TicketReply) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
