package enums

import "fmt"

// TicketStatus tracks whether a support ticket is awaiting attention.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "closed"
)

// String implements fmt.Stringer.
func (t TicketStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TicketStatus.
func (t TicketStatus) IsValid() bool {
	return t == TicketStatusOpen || t == TicketStatusClosed
}

// TicketSender tags which side of the conversation wrote a reply.
type TicketSender string

const (
	TicketSenderUser  TicketSender = "user"
	TicketSenderAdmin TicketSender = "admin"
)

// IsValid reports whether the value is a known TicketSender.
func (t TicketSender) IsValid() bool {
	return t == TicketSenderUser || t == TicketSenderAdmin
}

// ParseTicketSender converts raw input into a TicketSender.
func ParseTicketSender(value string) (TicketSender, error) {
	switch TicketSender(value) {
	case TicketSenderUser, TicketSenderAdmin:
		return TicketSender(value), nil
	}
	return "", fmt.Errorf("invalid ticket sender %q", value)
}
