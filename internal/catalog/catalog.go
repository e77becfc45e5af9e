package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Localized holds one string per supported UI language. French is the
// canonical field; the others are optional and fall back to it.
type Localized struct {
	FR string `json:"fr"`
	EN string `json:"en,omitempty"`
	TR string `json:"tr,omitempty"`
}

// Get returns the string for the given language, falling back to French.
func (l Localized) Get(lang string) string {
	switch lang {
	case "en":
		if l.EN != "" {
			return l.EN
		}
	case "tr":
		if l.TR != "" {
			return l.TR
		}
	}
	return l.FR
}

// Window is a daily availability window in HH:MM. A window whose From is
// later than its Until wraps past midnight (e.g. 22:00–02:00).
type Window struct {
	From  string `json:"from"`
	Until string `json:"until"`
}

// Contains reports whether the wall-clock time of t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	from, okF := parseHHMM(w.From)
	until, okU := parseHHMM(w.Until)
	if !okF || !okU {
		return true // malformed windows never hide an item
	}
	now := t.Hour()*60 + t.Minute()
	if from <= until {
		return now >= from && now <= until
	}
	// wraps midnight
	return now >= from || now <= until
}

func parseHHMM(s string) (int, bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' ||
		s[3] < '0' || s[3] > '9' || s[4] < '0' || s[4] > '9' ||
		h > 23 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// OptionChoice is one selectable value of an Option. A nil PriceDelta
// means no surcharge.
type OptionChoice struct {
	ID         uuid.UUID        `json:"id"`
	Name       Localized        `json:"name"`
	PriceDelta *decimal.Decimal `json:"price_delta,omitempty"`
	SortOrder  int32            `json:"sort_order"`
}

// Delta returns the choice's price delta, zero when unset.
func (c OptionChoice) Delta() decimal.Decimal {
	if c.PriceDelta == nil {
		return decimal.Zero
	}
	return *c.PriceDelta
}

// Option is a menu-item-specific configurable attribute (e.g. size).
type Option struct {
	ID       uuid.UUID      `json:"id"`
	Name     Localized      `json:"name"`
	Required bool           `json:"required"`
	Multiple bool           `json:"multiple"`
	Choices  []OptionChoice `json:"choices"`
}

// Choice finds a choice by id; ok is false when absent.
func (o Option) Choice(id uuid.UUID) (OptionChoice, bool) {
	for _, c := range o.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return OptionChoice{}, false
}

// Topping is one add-on inside a ToppingCategory.
type Topping struct {
	ID            uuid.UUID       `json:"id"`
	Name          Localized       `json:"name"`
	Price         decimal.Decimal `json:"price"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
	InStock       bool            `json:"in_stock"`
	SortOrder     int32           `json:"sort_order"`
}

// ToppingCategory is a reusable group of toppings with selection-count
// rules. MaxSelections == 0 means unlimited. A category with a ShowIf
// rule is visible only while the referenced option choice or topping is
// selected elsewhere on the same item.
type ToppingCategory struct {
	ID                       uuid.UUID `json:"id"`
	RestaurantID             uuid.UUID `json:"restaurant_id"`
	Name                     Localized `json:"name"`
	MinSelections            int32     `json:"min_selections"`
	MaxSelections            int32     `json:"max_selections"`
	AllowMultipleSameTopping bool      `json:"allow_multiple_same_topping"`
	ShowIfSelectionType      string    `json:"show_if_selection_type,omitempty"`
	ShowIfSelectionID        uuid.UUID `json:"show_if_selection_id,omitempty"`
	DisplayOrder             int32     `json:"display_order"`
	Toppings                 []Topping `json:"toppings"`
}

// Topping finds a topping by id; ok is false when absent.
func (tc ToppingCategory) Topping(id uuid.UUID) (Topping, bool) {
	for _, t := range tc.Toppings {
		if t.ID == id {
			return t, true
		}
	}
	return Topping{}, false
}

// Conditional reports whether the category carries a visibility rule.
func (tc ToppingCategory) Conditional() bool {
	return tc.ShowIfSelectionType != ""
}

// MenuItem is the kiosk-facing snapshot of one orderable item, with its
// options and attached topping categories resolved and ordered.
type MenuItem struct {
	ID                uuid.UUID         `json:"id"`
	RestaurantID      uuid.UUID         `json:"restaurant_id"`
	CategoryID        uuid.UUID         `json:"category_id"`
	Name              Localized         `json:"name"`
	Description       Localized         `json:"description"`
	Price             decimal.Decimal   `json:"price"`
	PromotionPrice    *decimal.Decimal  `json:"promotion_price,omitempty"`
	Availability      *Window           `json:"availability,omitempty"`
	InStock           bool              `json:"in_stock"`
	ImageURL          string            `json:"image_url,omitempty"`
	Options           []Option          `json:"options"`
	ToppingCategories []ToppingCategory `json:"topping_categories"`
}

// Option finds an option by id; ok is false when absent.
func (m MenuItem) Option(id uuid.UUID) (Option, bool) {
	for _, o := range m.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// ToppingCategory finds an attached category by id; ok is false when absent.
func (m MenuItem) ToppingCategory(id uuid.UUID) (ToppingCategory, bool) {
	for _, tc := range m.ToppingCategories {
		if tc.ID == id {
			return tc, true
		}
	}
	return ToppingCategory{}, false
}

// AvailableAt reports whether the item can be ordered at t. Out-of-stock
// items are never available; items without a window always are.
func (m MenuItem) AvailableAt(t time.Time) bool {
	if !m.InStock {
		return false
	}
	if m.Availability == nil {
		return true
	}
	return m.Availability.Contains(t)
}

// PromotionActive reports whether the promotion price takes effect: it
// must be set and strictly below the regular price.
func (m MenuItem) PromotionActive() bool {
	return m.PromotionPrice != nil && m.PromotionPrice.LessThan(m.Price)
}

// EffectiveBasePrice is the unit base used at the moment an item enters
// the cart: the promotion price while a promotion is active, the regular
// price otherwise. The result is frozen into the cart item, so a
// promotion ending later never reprices an existing cart line.
func (m MenuItem) EffectiveBasePrice() decimal.Decimal {
	if m.PromotionActive() {
		return *m.PromotionPrice
	}
	return m.Price
}
