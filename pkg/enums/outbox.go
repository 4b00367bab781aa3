package enums

// OutboxEventType names a domain event stored in outbox_events.
type OutboxEventType string

const (
	EventBidSubmitted           OutboxEventType = "bid.submitted"
	EventBidUpdated             OutboxEventType = "bid.updated"
	EventJobUpdated             OutboxEventType = "job.updated"
	EventTransferAdvanced       OutboxEventType = "job.transfer_advanced"
	EventCheckoutSessionUpdated OutboxEventType = "checkout.session_updated"
	EventCheckoutSucceeded      OutboxEventType = "checkout.succeeded"
	EventNotificationCreated    OutboxEventType = "notification.created"
	EventReminderDue            OutboxEventType = "reminder.due"
)

// OutboxAggregateType names the aggregate an event belongs to.
type OutboxAggregateType string

const (
	AggregateBid             OutboxAggregateType = "bid"
	AggregateJob             OutboxAggregateType = "job"
	AggregateCheckoutSession OutboxAggregateType = "checkout_session"
	AggregateNotification    OutboxAggregateType = "notification"
	AggregateReminder        OutboxAggregateType = "reminder"
)
