package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusNew       = "NEW"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	UserRoleOwner = "OWNER"
	UserRoleAdmin = "ADMIN"
	UserRoleStaff = "STAFF"
)

const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeTakeaway = "TAKEAWAY"
)

// Conditional visibility rules on topping categories reference either
// an option choice or another topping.
const (
	ShowIfOptionChoice = "option_choice"
	ShowIfTopping      = "topping"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	PrintTransportPrintNode = "PRINTNODE"
	PrintTransportQZTray    = "QZ_TRAY"
	PrintTransportBrowser   = "BROWSER"
)

const (
	ReceiptFormatText   = "TEXT"
	ReceiptFormatHTML   = "HTML"
	ReceiptFormatESCPOS = "ESCPOS"
)

const (
	PaymentMethodCash = "CASH"
	PaymentMethodCard = "CARD"
)
