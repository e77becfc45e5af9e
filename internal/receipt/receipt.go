// Package receipt turns a cart plus order metadata into one structured
// document, then renders that document into plain text, HTML, or an
// ESC/POS control-code stream. Totals are computed exactly once, in
// Compose; the renderers only format what the document already holds.
package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/komanda-kiosk/api/internal/cart"
	"github.com/komanda-kiosk/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Restaurant is the identity block printed at the top of a receipt.
type Restaurant struct {
	Name         string
	Address      string
	Phone        string
	CurrencyCode string
	// TaxRate is a percentage, e.g. 10 for 10% VAT.
	TaxRate decimal.Decimal
}

// Meta carries per-order fields that are not derivable from the cart.
type Meta struct {
	OrderNumber string
	TableNumber string
	OrderType   string
	Language    string
	PlacedAt    time.Time
}

// ExtraLine is one indented detail under a cart line: a chosen option
// choice or topping. Amount is the extended contribution (unit × qty);
// a zero amount is shown without a price.
type ExtraLine struct {
	Label    string
	Quantity int32
	Amount   decimal.Decimal
}

// Line is one cart item on the receipt.
type Line struct {
	Quantity     int32
	Name         string
	UnitPrice    decimal.Decimal
	Total        decimal.Decimal
	Extras       []ExtraLine
	Instructions string
}

// Labels are the localized strings the renderers share.
type Labels struct {
	Order    string
	Table    string
	DineIn   string
	Takeaway string
	Subtotal string
	VAT      string
	Total    string
	ThankYou string
}

// Document is the single source of truth every renderer consumes. It is
// a pure function of its inputs: composing the same cart and metadata
// twice yields identical documents.
type Document struct {
	Restaurant Restaurant
	Meta       Meta
	Labels     Labels
	Currency   string
	Lines      []Line
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
}

// translations is a closed table; a missing language falls back to French.
var translations = map[string]Labels{
	"fr": {
		Order:    "Commande",
		Table:    "Table",
		DineIn:   "Sur place",
		Takeaway: "À emporter",
		Subtotal: "Sous-total",
		VAT:      "TVA",
		Total:    "Total",
		ThankYou: "Merci de votre visite !",
	},
	"en": {
		Order:    "Order",
		Table:    "Table",
		DineIn:   "Dine in",
		Takeaway: "Takeaway",
		Subtotal: "Subtotal",
		VAT:      "VAT",
		Total:    "Total",
		ThankYou: "Thank you for your visit!",
	},
	"tr": {
		Order:    "Sipariş",
		Table:    "Masa",
		DineIn:   "Restoranda",
		Takeaway: "Paket",
		Subtotal: "Ara toplam",
		VAT:      "KDV",
		Total:    "Toplam",
		ThankYou: "Ziyaretiniz için teşekkürler!",
	},
}

// LabelsFor returns the label set for a UI language, French when unknown.
func LabelsFor(lang string) Labels {
	if l, ok := translations[lang]; ok {
		return l
	}
	return translations["fr"]
}

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"TRY": "₺",
	"JPY": "¥",
	"CAD": "$",
	"AUD": "$",
	"CHF": "Fr.",
	"CNY": "¥",
	"RUB": "₽",
}

// CurrencySymbol maps an ISO currency code to its printed symbol;
// unknown codes fall back to the raw code string.
func CurrencySymbol(code string) string {
	if s, ok := currencySymbols[strings.ToUpper(code)]; ok {
		return s
	}
	return code
}

// Compose builds the receipt document from a cart and order metadata.
// Subtotal = Σ(unit price × quantity); tax = subtotal × rate; total =
// subtotal + tax. Each cart line expands into its chosen option choices
// and toppings, in the order they appear on the item definition, so all
// renderers list them identically.
func Compose(rest Restaurant, items []cart.Item, meta Meta) Document {
	labels := LabelsFor(meta.Language)

	doc := Document{
		Restaurant: rest,
		Meta:       meta,
		Labels:     labels,
		Currency:   CurrencySymbol(rest.CurrencyCode),
	}

	subtotal := decimal.Zero
	for _, it := range items {
		line := Line{
			Quantity:     it.Quantity,
			Name:         it.MenuItem.Name.Get(meta.Language),
			UnitPrice:    it.UnitPrice,
			Total:        it.LineTotal(),
			Instructions: it.SpecialInstructions,
		}

		if sel := it.Selection; sel != nil {
			for _, opt := range it.MenuItem.Options {
				entry := sel.OptionEntry(opt.ID)
				if entry == nil {
					continue
				}
				for _, choice := range opt.Choices {
					for _, chosen := range entry.ChoiceIDs {
						if chosen != choice.ID {
							continue
						}
						line.Extras = append(line.Extras, ExtraLine{
							Label:    choice.Name.Get(meta.Language),
							Quantity: 1,
							Amount:   choice.Delta(),
						})
					}
				}
			}
			for _, tc := range it.MenuItem.ToppingCategories {
				entry := sel.CategoryEntry(tc.ID)
				if entry == nil {
					continue
				}
				for _, topping := range tc.Toppings {
					for _, chosen := range entry.ToppingIDs {
						if chosen != topping.ID {
							continue
						}
						qty := entry.Quantity(topping.ID)
						if qty < 1 {
							qty = 1
						}
						line.Extras = append(line.Extras, ExtraLine{
							Label:    topping.Name.Get(meta.Language),
							Quantity: qty,
							Amount:   topping.Price.Mul(decimal.NewFromInt32(qty)),
						})
					}
				}
			}
		}

		doc.Lines = append(doc.Lines, line)
		subtotal = subtotal.Add(line.Total)
	}

	doc.Subtotal = subtotal
	doc.Tax = subtotal.Mul(rest.TaxRate).Div(decimal.NewFromInt(100)).Round(2)
	doc.Total = subtotal.Add(doc.Tax)
	return doc
}

// OrderTypeLabel resolves the table or order-type line under the header:
// the table number when present, otherwise the localized order type.
func (d Document) OrderTypeLabel() string {
	if d.Meta.TableNumber != "" {
		return fmt.Sprintf("%s %s", d.Labels.Table, d.Meta.TableNumber)
	}
	if d.Meta.OrderType == enum.OrderTypeTakeaway {
		return d.Labels.Takeaway
	}
	return d.Labels.DineIn
}

// extraLabel formats one detail line body: "+ 2x Fromage" when the
// quantity is above one, "+ Fromage" otherwise.
func extraLabel(e ExtraLine) string {
	if e.Quantity > 1 {
		return fmt.Sprintf("+ %dx %s", e.Quantity, e.Label)
	}
	return "+ " + e.Label
}

// money formats an amount with the document's currency symbol.
func (d Document) money(v decimal.Decimal) string {
	return v.StringFixed(2) + " " + d.Currency
}
