package selection

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/komanda-kiosk/api/internal/catalog"
	"github.com/komanda-kiosk/api/internal/enum"
)

// Errors returned by selection mutations.
var (
	ErrOptionNotFound   = errors.New("option not found on item")
	ErrChoiceNotFound   = errors.New("choice not found on option")
	ErrCategoryNotFound = errors.New("topping category not found on item")
	ErrToppingNotFound  = errors.New("topping not found in category")
	ErrMaxSelections    = errors.New("category max selections reached")
	ErrQuantityDisabled = errors.New("category does not allow per-topping quantities")
)

// SelectedOption records the chosen choices for one option. A
// single-select option never holds more than one choice id.
type SelectedOption struct {
	OptionID  uuid.UUID   `json:"option_id"`
	ChoiceIDs []uuid.UUID `json:"choice_ids"`
}

// SelectedToppingCategory records the chosen toppings for one category.
// ToppingIDs is always exactly the set of keys in Quantities with a
// positive quantity; when the category does not allow repeated toppings
// every quantity is 1.
type SelectedToppingCategory struct {
	CategoryID uuid.UUID        `json:"category_id"`
	ToppingIDs []uuid.UUID      `json:"topping_ids"`
	Quantities map[string]int32 `json:"quantities"`
}

// Quantity returns the selected quantity for a topping, 0 when absent.
func (sc SelectedToppingCategory) Quantity(id uuid.UUID) int32 {
	return sc.Quantities[id.String()]
}

// Selection is the in-progress customization state for one menu item.
type Selection struct {
	Options  []SelectedOption          `json:"options"`
	Toppings []SelectedToppingCategory `json:"toppings"`
}

// OptionEntry returns the selection entry for an option id, if any.
func (s *Selection) OptionEntry(id uuid.UUID) *SelectedOption {
	for i := range s.Options {
		if s.Options[i].OptionID == id {
			return &s.Options[i]
		}
	}
	return nil
}

// CategoryEntry returns the selection entry for a category id, if any.
func (s *Selection) CategoryEntry(id uuid.UUID) *SelectedToppingCategory {
	for i := range s.Toppings {
		if s.Toppings[i].CategoryID == id {
			return &s.Toppings[i]
		}
	}
	return nil
}

// HasChoice reports whether the given option choice is selected anywhere.
func (s *Selection) HasChoice(choiceID uuid.UUID) bool {
	for _, so := range s.Options {
		for _, id := range so.ChoiceIDs {
			if id == choiceID {
				return true
			}
		}
	}
	return false
}

// HasTopping reports whether the given topping is selected anywhere.
func (s *Selection) HasTopping(toppingID uuid.UUID) bool {
	for _, sc := range s.Toppings {
		for _, id := range sc.ToppingIDs {
			if id == toppingID {
				return true
			}
		}
	}
	return false
}

// ToggleChoice selects or deselects a choice on an option. On a
// single-select option, selecting a new choice replaces the previous one
// so the entry never holds two choices at once.
func (s *Selection) ToggleChoice(item catalog.MenuItem, optionID, choiceID uuid.UUID) error {
	opt, ok := item.Option(optionID)
	if !ok {
		return ErrOptionNotFound
	}
	if _, ok := opt.Choice(choiceID); !ok {
		return ErrChoiceNotFound
	}

	entry := s.OptionEntry(optionID)
	if entry == nil {
		s.Options = append(s.Options, SelectedOption{
			OptionID:  optionID,
			ChoiceIDs: []uuid.UUID{choiceID},
		})
		s.pruneHidden(item)
		return nil
	}

	for i, id := range entry.ChoiceIDs {
		if id == choiceID {
			entry.ChoiceIDs = append(entry.ChoiceIDs[:i], entry.ChoiceIDs[i+1:]...)
			s.pruneHidden(item)
			return nil
		}
	}

	if opt.Multiple {
		entry.ChoiceIDs = append(entry.ChoiceIDs, choiceID)
	} else {
		entry.ChoiceIDs = []uuid.UUID{choiceID}
	}
	s.pruneHidden(item)
	return nil
}

// SetToppingQuantity sets the quantity of a topping inside a category.
// A quantity <= 0 removes the topping from the selection entirely.
// Adding a topping beyond the category's max selections is rejected at
// mutation time rather than flagged later.
func (s *Selection) SetToppingQuantity(item catalog.MenuItem, categoryID, toppingID uuid.UUID, qty int32) error {
	cat, ok := item.ToppingCategory(categoryID)
	if !ok {
		return ErrCategoryNotFound
	}
	if _, ok := cat.Topping(toppingID); !ok {
		return ErrToppingNotFound
	}
	if qty > 1 && !cat.AllowMultipleSameTopping {
		return ErrQuantityDisabled
	}

	entry := s.CategoryEntry(categoryID)
	if qty <= 0 {
		if entry != nil {
			entry.remove(toppingID)
			if len(entry.ToppingIDs) == 0 {
				s.dropCategory(categoryID)
			}
		}
		s.pruneHidden(item)
		return nil
	}

	if entry == nil {
		s.Toppings = append(s.Toppings, SelectedToppingCategory{
			CategoryID: categoryID,
			ToppingIDs: []uuid.UUID{toppingID},
			Quantities: map[string]int32{toppingID.String(): qty},
		})
		s.pruneHidden(item)
		return nil
	}

	if !entry.contains(toppingID) {
		// Max selections counts distinct toppings, not summed quantities.
		if cat.MaxSelections > 0 && int32(len(entry.ToppingIDs)) >= cat.MaxSelections {
			return ErrMaxSelections
		}
		entry.ToppingIDs = append(entry.ToppingIDs, toppingID)
	}
	if entry.Quantities == nil {
		entry.Quantities = make(map[string]int32)
	}
	entry.Quantities[toppingID.String()] = qty
	s.pruneHidden(item)
	return nil
}

// ToggleTopping flips a topping in or out of a category with quantity 1.
func (s *Selection) ToggleTopping(item catalog.MenuItem, categoryID, toppingID uuid.UUID) error {
	if entry := s.CategoryEntry(categoryID); entry != nil && entry.contains(toppingID) {
		return s.SetToppingQuantity(item, categoryID, toppingID, 0)
	}
	return s.SetToppingQuantity(item, categoryID, toppingID, 1)
}

// RemoveTopping removes a topping from a category's selection.
func (s *Selection) RemoveTopping(item catalog.MenuItem, categoryID, toppingID uuid.UUID) error {
	return s.SetToppingQuantity(item, categoryID, toppingID, 0)
}

func (sc *SelectedToppingCategory) contains(id uuid.UUID) bool {
	for _, t := range sc.ToppingIDs {
		if t == id {
			return true
		}
	}
	return false
}

func (sc *SelectedToppingCategory) remove(id uuid.UUID) {
	for i, t := range sc.ToppingIDs {
		if t == id {
			sc.ToppingIDs = append(sc.ToppingIDs[:i], sc.ToppingIDs[i+1:]...)
			break
		}
	}
	delete(sc.Quantities, id.String())
}

func (s *Selection) dropCategory(categoryID uuid.UUID) {
	for i := range s.Toppings {
		if s.Toppings[i].CategoryID == categoryID {
			s.Toppings = append(s.Toppings[:i], s.Toppings[i+1:]...)
			return
		}
	}
}

// CategoryVisible reports whether a topping category is currently shown
// for this selection. Unconditional categories are always visible; a
// conditional category is visible only while its referenced option
// choice or topping is selected elsewhere on the item.
func (s *Selection) CategoryVisible(cat catalog.ToppingCategory) bool {
	if !cat.Conditional() {
		return true
	}
	switch cat.ShowIfSelectionType {
	case enum.ShowIfOptionChoice:
		return s.HasChoice(cat.ShowIfSelectionID)
	case enum.ShowIfTopping:
		return s.HasTopping(cat.ShowIfSelectionID)
	}
	return false
}

// VisibleCategories returns the item's topping categories that are shown
// for the current selection, in display order.
func (s *Selection) VisibleCategories(item catalog.MenuItem) []catalog.ToppingCategory {
	var out []catalog.ToppingCategory
	for _, cat := range item.ToppingCategories {
		if s.CategoryVisible(cat) {
			out = append(out, cat)
		}
	}
	return out
}

// pruneHidden clears selections made in categories that are no longer
// visible after a mutation, so a switched-away trigger never leaves
// phantom priced selections behind. Pruning one category can hide
// another (topping-triggered chains), so it loops to a fixed point.
func (s *Selection) pruneHidden(item catalog.MenuItem) {
	for {
		changed := false
		for _, cat := range item.ToppingCategories {
			if !cat.Conditional() {
				continue
			}
			if entry := s.CategoryEntry(cat.ID); entry != nil && !s.CategoryVisible(cat) {
				s.dropCategory(cat.ID)
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// --- Validation ---

// Violation codes.
const (
	ViolationRequiredOption = "OPTION_REQUIRED"
	ViolationSingleSelect   = "OPTION_SINGLE_SELECT"
	ViolationMinSelections  = "CATEGORY_MIN_SELECTIONS"
	ViolationMaxSelections  = "CATEGORY_MAX_SELECTIONS"
)

// Violation is one constraint failure, addressable to an option or
// topping category so the caller can render a per-field message.
type Violation struct {
	Code       string    `json:"code"`
	OptionID   uuid.UUID `json:"option_id,omitempty"`
	CategoryID uuid.UUID `json:"category_id,omitempty"`
	Message    string    `json:"message"`
}

// Result is the outcome of validating a selection against an item.
type Result struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
}

// Validate checks the selection against the item's constraints: required
// options, single-select arity, and min/max counts per visible topping
// category. Hidden conditional categories are excluded entirely.
func Validate(item catalog.MenuItem, sel *Selection) Result {
	var violations []Violation

	for _, opt := range item.Options {
		entry := sel.OptionEntry(opt.ID)
		count := 0
		if entry != nil {
			count = len(entry.ChoiceIDs)
		}
		if opt.Required && count == 0 {
			violations = append(violations, Violation{
				Code:     ViolationRequiredOption,
				OptionID: opt.ID,
				Message:  fmt.Sprintf("option %q requires a choice", opt.Name.FR),
			})
		}
		if !opt.Multiple && count > 1 {
			violations = append(violations, Violation{
				Code:     ViolationSingleSelect,
				OptionID: opt.ID,
				Message:  fmt.Sprintf("option %q allows a single choice", opt.Name.FR),
			})
		}
	}

	for _, cat := range item.ToppingCategories {
		if !sel.CategoryVisible(cat) {
			continue
		}
		count := int32(0)
		if entry := sel.CategoryEntry(cat.ID); entry != nil {
			count = int32(len(entry.ToppingIDs))
		}
		if cat.MinSelections > 0 && count < cat.MinSelections {
			violations = append(violations, Violation{
				Code:       ViolationMinSelections,
				CategoryID: cat.ID,
				Message:    fmt.Sprintf("category %q requires at least %d selections", cat.Name.FR, cat.MinSelections),
			})
		}
		if cat.MaxSelections > 0 && count > cat.MaxSelections {
			violations = append(violations, Violation{
				Code:       ViolationMaxSelections,
				CategoryID: cat.ID,
				Message:    fmt.Sprintf("category %q allows at most %d selections", cat.Name.FR, cat.MaxSelections),
			})
		}
	}

	return Result{Valid: len(violations) == 0, Violations: violations}
}
