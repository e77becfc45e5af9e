// Package pricing computes unit and line prices for a customized menu
// item. All arithmetic is decimal; rounding to two places happens only
// at serialization boundaries, never while accumulating.
package pricing

import (
	"log"

	"github.com/komanda-kiosk/api/internal/catalog"
	"github.com/komanda-kiosk/api/internal/selection"
	"github.com/shopspring/decimal"
)

// UnitPrice computes the price of one unit of the item under the given
// selection: the promotion-resolved base price plus every selected
// choice's delta plus every selected topping's price times its quantity.
//
// A selection entry referencing an option or topping no longer present
// on the item is a data-consistency problem, not a pricing failure: the
// entry is skipped with a warning and the rest of the computation
// proceeds, so a stale selection never blocks a purchase.
func UnitPrice(item catalog.MenuItem, sel *selection.Selection) decimal.Decimal {
	price := item.EffectiveBasePrice()
	if sel == nil {
		return price
	}

	for _, so := range sel.Options {
		opt, ok := item.Option(so.OptionID)
		if !ok {
			log.Printf("WARN: pricing: option %s not on item %s, skipping", so.OptionID, item.ID)
			continue
		}
		for _, choiceID := range so.ChoiceIDs {
			choice, ok := opt.Choice(choiceID)
			if !ok {
				log.Printf("WARN: pricing: choice %s not on option %s, skipping", choiceID, opt.ID)
				continue
			}
			price = price.Add(choice.Delta())
		}
	}

	for _, sc := range sel.Toppings {
		cat, ok := item.ToppingCategory(sc.CategoryID)
		if !ok {
			log.Printf("WARN: pricing: topping category %s not on item %s, skipping", sc.CategoryID, item.ID)
			continue
		}
		for _, toppingID := range sc.ToppingIDs {
			topping, ok := cat.Topping(toppingID)
			if !ok {
				log.Printf("WARN: pricing: topping %s not in category %s, skipping", toppingID, cat.ID)
				continue
			}
			qty := sc.Quantity(toppingID)
			if qty < 1 {
				qty = 1
			}
			price = price.Add(topping.Price.Mul(decimal.NewFromInt32(qty)))
		}
	}

	return price
}

// LineTotal is the extended price of a cart line: unit price times
// quantity, exactly. Quantity never feeds back into the unit price.
func LineTotal(unit decimal.Decimal, quantity int32) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt32(quantity))
}
