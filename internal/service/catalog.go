package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/komanda-kiosk/api/internal/catalog"
	"github.com/komanda-kiosk/api/internal/store"
)

// ErrItemNotFound is returned when a menu item does not exist in the
// restaurant or has been deactivated.
var ErrItemNotFound = errors.New("menu item not found")

// CatalogStore defines the DB methods needed to assemble the kiosk menu.
// Satisfied by *store.Queries.
type CatalogStore interface {
	ListMenuCategories(ctx context.Context, restaurantID uuid.UUID) ([]store.MenuCategory, error)
	ListMenuItemsByCategory(ctx context.Context, arg store.ListMenuItemsByCategoryParams) ([]store.MenuItem, error)
	ListMenuItemsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]store.MenuItem, error)
	GetMenuItem(ctx context.Context, arg store.GetMenuItemParams) (store.MenuItem, error)
	ListOptionsByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]store.MenuItemOption, error)
	ListChoicesByOption(ctx context.Context, optionID uuid.UUID) ([]store.OptionChoice, error)
	ListToppingCategoriesByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]store.ToppingCategory, error)
	ListToppingsByCategory(ctx context.Context, toppingCategoryID uuid.UUID) ([]store.Topping, error)
}

// Category is a menu category as the kiosk sees it.
type Category struct {
	ID           uuid.UUID         `json:"id"`
	Name         catalog.Localized `json:"name"`
	DisplayOrder int32             `json:"display_order"`
}

// CatalogService assembles kiosk-facing menu structures from store rows.
// It implements cache.Source so the cache layer can use it as the
// fallback fetch path.
type CatalogService struct {
	store CatalogStore
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(st CatalogStore) *CatalogService {
	return &CatalogService{store: st}
}

// Categories lists the restaurant's active categories in display order.
func (s *CatalogService) Categories(ctx context.Context, restaurantID uuid.UUID) ([]Category, error) {
	rows, err := s.store.ListMenuCategories(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, Category{
			ID:           r.ID,
			Name:         localized(r.NameFr, r.NameEn, r.NameTr),
			DisplayOrder: r.DisplayOrder,
		})
	}
	return out, nil
}

// Items lists the items of one category without their options or topping
// categories; the kiosk loads those per item through the cache layer.
func (s *CatalogService) Items(ctx context.Context, restaurantID, categoryID uuid.UUID) ([]catalog.MenuItem, error) {
	rows, err := s.store.ListMenuItemsByCategory(ctx, store.ListMenuItemsByCategoryParams{
		CategoryID:   categoryID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	out := make([]catalog.MenuItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, mapMenuItem(r))
	}
	return out, nil
}

// FetchItemDetail loads one menu item with options, choices and topping
// categories fully resolved. This is the cache.Source fetch path.
func (s *CatalogService) FetchItemDetail(ctx context.Context, restaurantID, itemID uuid.UUID) (catalog.MenuItem, error) {
	row, err := s.store.GetMenuItem(ctx, store.GetMenuItemParams{ID: itemID, RestaurantID: restaurantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.MenuItem{}, ErrItemNotFound
		}
		return catalog.MenuItem{}, fmt.Errorf("get menu item: %w", err)
	}
	item := mapMenuItem(row)

	optRows, err := s.store.ListOptionsByMenuItem(ctx, itemID)
	if err != nil {
		return catalog.MenuItem{}, fmt.Errorf("list options: %w", err)
	}
	for _, o := range optRows {
		choiceRows, err := s.store.ListChoicesByOption(ctx, o.ID)
		if err != nil {
			return catalog.MenuItem{}, fmt.Errorf("list choices: %w", err)
		}
		opt := catalog.Option{
			ID:       o.ID,
			Name:     localized(o.NameFr, o.NameEn, o.NameTr),
			Required: o.Required,
			Multiple: o.Multiple,
		}
		for _, c := range choiceRows {
			opt.Choices = append(opt.Choices, catalog.OptionChoice{
				ID:         c.ID,
				Name:       localized(c.NameFr, c.NameEn, c.NameTr),
				PriceDelta: numericToDecimalPtr(c.PriceDelta),
				SortOrder:  c.DisplayOrder,
			})
		}
		item.Options = append(item.Options, opt)
	}

	catRows, err := s.store.ListToppingCategoriesByMenuItem(ctx, itemID)
	if err != nil {
		return catalog.MenuItem{}, fmt.Errorf("list topping categories: %w", err)
	}
	for _, tc := range catRows {
		cat := catalog.ToppingCategory{
			ID:                       tc.ID,
			RestaurantID:             tc.RestaurantID,
			Name:                     localized(tc.NameFr, tc.NameEn, tc.NameTr),
			MinSelections:            tc.MinSelections,
			MaxSelections:            tc.MaxSelections,
			AllowMultipleSameTopping: tc.AllowMultipleSameTopping,
			ShowIfSelectionType:      textToString(tc.ShowIfSelectionType),
			DisplayOrder:             tc.DisplayOrder,
		}
		if tc.ShowIfSelectionID.Valid {
			cat.ShowIfSelectionID = uuid.UUID(tc.ShowIfSelectionID.Bytes)
		}
		topRows, err := s.store.ListToppingsByCategory(ctx, tc.ID)
		if err != nil {
			return catalog.MenuItem{}, fmt.Errorf("list toppings: %w", err)
		}
		for _, t := range topRows {
			cat.Toppings = append(cat.Toppings, catalog.Topping{
				ID:            t.ID,
				Name:          localized(t.NameFr, t.NameEn, t.NameTr),
				Price:         numericToDecimal(t.Price),
				TaxPercentage: numericToDecimal(t.TaxPercentage),
				InStock:       t.InStock,
				SortOrder:     t.DisplayOrder,
			})
		}
		item.ToppingCategories = append(item.ToppingCategories, cat)
	}

	return item, nil
}

func mapMenuItem(r store.MenuItem) catalog.MenuItem {
	item := catalog.MenuItem{
		ID:             r.ID,
		RestaurantID:   r.RestaurantID,
		CategoryID:     r.CategoryID,
		Name:           localized(r.NameFr, r.NameEn, r.NameTr),
		Description:    localized(textToString(r.DescriptionFr), r.DescriptionEn, r.DescriptionTr),
		Price:          numericToDecimal(r.Price),
		PromotionPrice: numericToDecimalPtr(r.PromotionPrice),
		InStock:        r.InStock,
		ImageURL:       textToString(r.ImageUrl),
	}
	if r.AvailableFrom.Valid && r.AvailableUntil.Valid {
		item.Availability = &catalog.Window{
			From:  r.AvailableFrom.String,
			Until: r.AvailableUntil.String,
		}
	}
	return item
}
