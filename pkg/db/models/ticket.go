package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// Ticket is a support thread opened by a user. Replies are appended in order
// and the ticket can be reopened after closing.
type Ticket struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	Subject   string             `gorm:"column:subject;not null"`
	Message   string             `gorm:"column:message;not null"`
	Status    enums.TicketStatus `gorm:"column:status;type:text;not null;default:'open';index"`
	Replies   []TicketReply      `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// TicketReply is one message in a ticket thread, tagged by sender side.
type TicketReply struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TicketID  uuid.UUID          `gorm:"column:ticket_id;type:uuid;not null;index"`
	Sender    enums.TicketSender `gorm:"column:sender;type:text;not null"`
	Body      string             `gorm:"column:body;not null"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}
