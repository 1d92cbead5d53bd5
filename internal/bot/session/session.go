package session

import "github.com/google/uuid"

// StepKind tags the dialogue step a user is parked on. The next free-text or
// photo update from that user is consumed by the step handler instead of the
// top-level router.
type StepKind string

const (
	StepNone                  StepKind = ""
	StepAwaitingCouponCode    StepKind = "awaiting_coupon_code"
	StepAwaitingPaymentProof  StepKind = "awaiting_payment_proof"
	StepAwaitingTopUpAmount   StepKind = "awaiting_topup_amount"
	StepAwaitingTopUpProof    StepKind = "awaiting_topup_proof"
	StepAwaitingTicketSubject StepKind = "awaiting_ticket_subject"
	StepAwaitingTicketMessage StepKind = "awaiting_ticket_message"
	StepAwaitingTicketReply   StepKind = "awaiting_ticket_reply"
	StepAwaitingRejectReason  StepKind = "awaiting_reject_reason"
)

// RejectKind names what a pending rejection decision applies to.
type RejectKind string

const (
	RejectProof RejectKind = "proof"
	RejectTopUp RejectKind = "topup"
)

// StepData is the typed payload of the active step. Only the fields the step
// needs are set; everything else stays zero and a zero id means the step
// context is gone.
type StepData struct {
	OrderID       uuid.UUID  `json:"order_id,omitempty"`
	MethodID      uuid.UUID  `json:"method_id,omitempty"`
	TopUpID       uuid.UUID  `json:"topup_id,omitempty"`
	TicketID      uuid.UUID  `json:"ticket_id,omitempty"`
	TicketSubject string     `json:"ticket_subject,omitempty"`
	RejectKind    RejectKind `json:"reject_kind,omitempty"`
	RejectID      uuid.UUID  `json:"reject_id,omitempty"`
}

// Session is the per-user ephemeral dialogue state. It lives in redis under
// the session TTL and is lost on expiry by design; the Admin flag survives
// step changes so elevation holds for the whole session.
type Session struct {
	Step  StepKind `json:"step,omitempty"`
	Data  StepData `json:"data,omitempty"`
	Admin bool     `json:"admin,omitempty"`
}

// EnterStep replaces the current step and its payload, keeping the Admin flag.
func (s *Session) EnterStep(step StepKind, data StepData) {
	s.Step = step
	s.Data = data
}

// LeaveStep drops the step and its payload, keeping the Admin flag.
func (s *Session) LeaveStep() {
	s.Step = StepNone
	s.Data = StepData{}
}
