package enums

// OutboxEventType names a domain event written to the outbox table.
type OutboxEventType string

const (
	EventOrderConfirmed     OutboxEventType = "order.confirmed"
	EventOrderCancelled     OutboxEventType = "order.cancelled"
	EventOrderStatusChanged OutboxEventType = "order.status_changed"
	EventProofSubmitted     OutboxEventType = "proof.submitted"
	EventProofApproved      OutboxEventType = "proof.approved"
	EventProofRejected      OutboxEventType = "proof.rejected"
	EventTopUpApproved      OutboxEventType = "topup.approved"
	EventTopUpRejected      OutboxEventType = "topup.rejected"
	EventTicketOpened       OutboxEventType = "ticket.opened"
	EventManualDelivery     OutboxEventType = "delivery.manual_required"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder  OutboxAggregateType = "order"
	AggregateProof  OutboxAggregateType = "payment_proof"
	AggregateTopUp  OutboxAggregateType = "topup"
	AggregateTicket OutboxAggregateType = "ticket"
)
