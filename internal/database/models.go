package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Order struct {
	ID             uuid.UUID
	BranchID       uuid.UUID
	OrderNo        string
	OrderType      string
	TableID        pgtype.UUID
	DeliveryID     pgtype.UUID
	DiscountID     pgtype.UUID
	SubTotal       pgtype.Numeric
	DiscountAmount pgtype.Numeric
	Vat            pgtype.Numeric
	TotalAmount    pgtype.Numeric
	ReceivedAmount pgtype.Numeric
	ChangeAmount   pgtype.Numeric
	Status         string
	Notes          pgtype.Text
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderItem struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	ProductID      uuid.UUID
	Quantity       int32
	UnitPrice      pgtype.Numeric
	DiscountAmount pgtype.Numeric
	TotalPrice     pgtype.Numeric
	Notes          pgtype.Text
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderItemDetail struct {
	ID          uuid.UUID
	OrderItemID uuid.UUID
	Name        string
	ExtraPrice  pgtype.Numeric
}

type Discount struct {
	ID       uuid.UUID
	BranchID uuid.UUID
	Name     string
	Type     string
	Amount   pgtype.Numeric
	Active   bool
}

type Payment struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	MethodID       uuid.UUID
	ShiftID        uuid.UUID
	BranchID       uuid.UUID
	Amount         pgtype.Numeric
	AmountReceived pgtype.Numeric
	ChangeAmount   pgtype.Numeric
	Status         string
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type PaymentMethod struct {
	ID       uuid.UUID
	BranchID uuid.UUID
	Name     string
	Active   bool
}

type Shift struct {
	ID             uuid.UUID
	BranchID       uuid.UUID
	OpenedBy       uuid.UUID
	StartAmount    pgtype.Numeric
	EndAmount      pgtype.Numeric
	ExpectedAmount pgtype.Numeric
	DiffAmount     pgtype.Numeric
	Status         string
	OpenTime       time.Time
	CloseTime      pgtype.Timestamptz
}

type QueueEntry struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	BranchID      uuid.UUID
	Status        string
	Priority      string
	QueuePosition int32
	StartedAt     pgtype.Timestamptz
	CompletedAt   pgtype.Timestamptz
	CreatedAt     time.Time
}

type Table struct {
	ID       uuid.UUID
	BranchID uuid.UUID
	Name     string
	Status   string
}

type DeliveryProvider struct {
	ID       uuid.UUID
	BranchID uuid.UUID
	Name     string
	Active   bool
}

type Product struct {
	ID            uuid.UUID
	BranchID      uuid.UUID
	CategoryID    pgtype.UUID
	Name          string
	Price         pgtype.Numeric
	DeliveryPrice pgtype.Numeric
	Cost          pgtype.Numeric
	Unit          string
	Active        bool
}

type User struct {
	ID             uuid.UUID
	BranchID       uuid.UUID
	Name           string
	Email          string
	HashedPassword string
	Role           string
	Active         bool
}

type AuditLog struct {
	ID          uuid.UUID
	ActionType  string
	UserID      pgtype.UUID
	EntityType  string
	EntityID    pgtype.UUID
	BranchID    uuid.UUID
	OldValues   []byte
	NewValues   []byte
	Description pgtype.Text
	CreatedAt   time.Time
}
