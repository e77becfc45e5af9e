package store

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Restaurant struct {
	ID              uuid.UUID
	Name            string
	Address         pgtype.Text
	Phone           pgtype.Text
	CurrencyCode    string
	TaxRate         pgtype.Numeric
	DefaultLanguage string
	IsActive        bool
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

type User struct {
	ID             uuid.UUID
	RestaurantID   uuid.UUID
	Email          string
	HashedPassword string
	FullName       string
	Role           string
	IsActive       bool
	CreatedAt      pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
}

type MenuCategory struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	NameFr       string
	NameEn       pgtype.Text
	NameTr       pgtype.Text
	DisplayOrder int32
	IsActive     bool
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type MenuItem struct {
	ID             uuid.UUID
	RestaurantID   uuid.UUID
	CategoryID     uuid.UUID
	NameFr         string
	NameEn         pgtype.Text
	NameTr         pgtype.Text
	DescriptionFr  pgtype.Text
	DescriptionEn  pgtype.Text
	DescriptionTr  pgtype.Text
	Price          pgtype.Numeric
	PromotionPrice pgtype.Numeric
	TaxPercentage  pgtype.Numeric
	ImageUrl       pgtype.Text
	AvailableFrom  pgtype.Text
	AvailableUntil pgtype.Text
	InStock        bool
	DisplayOrder   int32
	IsActive       bool
	CreatedAt      pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
}

type MenuItemOption struct {
	ID           uuid.UUID
	MenuItemID   uuid.UUID
	NameFr       string
	NameEn       pgtype.Text
	NameTr       pgtype.Text
	Required     bool
	Multiple     bool
	DisplayOrder int32
	IsActive     bool
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type OptionChoice struct {
	ID           uuid.UUID
	OptionID     uuid.UUID
	NameFr       string
	NameEn       pgtype.Text
	NameTr       pgtype.Text
	PriceDelta   pgtype.Numeric
	DisplayOrder int32
	IsActive     bool
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type ToppingCategory struct {
	ID                       uuid.UUID
	RestaurantID             uuid.UUID
	NameFr                   string
	NameEn                   pgtype.Text
	NameTr                   pgtype.Text
	MinSelections            int32
	MaxSelections            int32
	AllowMultipleSameTopping bool
	ShowIfSelectionType      pgtype.Text
	ShowIfSelectionID        pgtype.UUID
	DisplayOrder             int32
	IsActive                 bool
	CreatedAt                pgtype.Timestamptz
	UpdatedAt                pgtype.Timestamptz
}

type Topping struct {
	ID                uuid.UUID
	ToppingCategoryID uuid.UUID
	NameFr            string
	NameEn            pgtype.Text
	NameTr            pgtype.Text
	Price             pgtype.Numeric
	TaxPercentage     pgtype.Numeric
	InStock           bool
	DisplayOrder      int32
	IsActive          bool
	CreatedAt         pgtype.Timestamptz
	UpdatedAt         pgtype.Timestamptz
}

type Order struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	OrderNumber  string
	OrderType    string
	TableNumber  pgtype.Text
	Status       string
	Language     string
	Subtotal     pgtype.Numeric
	TaxAmount    pgtype.Numeric
	TotalAmount  pgtype.Numeric
	PlacedAt     pgtype.Timestamptz
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type OrderItem struct {
	ID                  uuid.UUID
	OrderID             uuid.UUID
	MenuItemID          uuid.UUID
	Name                string
	Quantity            int32
	UnitPrice           pgtype.Numeric
	Subtotal            pgtype.Numeric
	SpecialInstructions pgtype.Text
	SelectedOptions     []byte
	CreatedAt           pgtype.Timestamptz
}

type OrderItemTopping struct {
	ID          uuid.UUID
	OrderItemID uuid.UUID
	ToppingID   uuid.UUID
	Name        string
	Quantity    int32
	UnitPrice   pgtype.Numeric
	CreatedAt   pgtype.Timestamptz
}

type Payment struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Method    string
	Status    string
	Amount    pgtype.Numeric
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type PrintConfig struct {
	ID              uuid.UUID
	RestaurantID    uuid.UUID
	Name            string
	Transport       string
	PrinterID       pgtype.Text
	EndpointUrl     pgtype.Text
	ApiKeyEncrypted pgtype.Text
	PaperWidth      int32
	IsActive        bool
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

type SecurityAuditLog struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	ActorID      pgtype.UUID
	Action       string
	Detail       string
	CreatedAt    pgtype.Timestamptz
}

type CartSession struct {
	RestaurantID uuid.UUID
	SessionID    string
	Payload      []byte
	UpdatedAt    pgtype.Timestamptz
}
