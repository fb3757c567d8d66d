package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending           = "Pending"
	OrderStatusWaitingForPayment = "WaitingForPayment"
	OrderStatusPaid              = "Paid"
	OrderStatusCompleted         = "Completed"
	OrderStatusCancelled         = "Cancelled"
)

// Legacy order/item statuses still accepted at the API edge.
// Cooking and Served are deprecated kitchen stages that collapse to Pending.
const (
	LegacyStatusCooking = "Cooking"
	LegacyStatusServed  = "Served"
)

const (
	ItemStatusPending   = "Pending"
	ItemStatusCompleted = "Completed"
	ItemStatusCancelled = "Cancelled"
	ItemStatusPaid      = "Paid"
)

const (
	PaymentStatusPending = "Pending"
	PaymentStatusSuccess = "Success"
	PaymentStatusFailed  = "Failed"
)

const (
	ShiftStatusOpen   = "OPEN"
	ShiftStatusClosed = "CLOSED"
)

const (
	QueueStatusPending    = "Pending"
	QueueStatusProcessing = "Processing"
	QueueStatusCompleted  = "Completed"
	QueueStatusCancelled  = "Cancelled"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	OrderTypeDineIn   = "DineIn"
	OrderTypeTakeAway = "TakeAway"
	OrderTypeDelivery = "Delivery"
)

const (
	UserRoleOwner   = "OWNER"
	UserRoleManager = "MANAGER"
	UserRoleCashier = "CASHIER"
	UserRoleKitchen = "KITCHEN"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	TableStatusAvailable   = "Available"
	TableStatusUnavailable = "Unavailable"
)

const (
	DiscountTypePercentage = "Percentage"
	DiscountTypeFixed      = "Fixed"
)

const (
	QueuePriorityLow    = "Low"
	QueuePriorityNormal = "Normal"
	QueuePriorityHigh   = "High"
	QueuePriorityUrgent = "Urgent"
)

// QueuePriorityRank maps a priority label to its sort weight.
// Higher ranks are served first when the queue is reordered.
var QueuePriorityRank = map[string]int{
	QueuePriorityLow:    1,
	QueuePriorityNormal: 2,
	QueuePriorityHigh:   3,
	QueuePriorityUrgent: 4,
}
