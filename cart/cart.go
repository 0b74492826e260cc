// Package cart implements the pricing engine for the in-conversation cart.
// Every operation re-establishes the invariant:
//
//	TotalPrice == SizeOption.Price*Quantity + sum of AddOns prices
//
// Prices on a line are snapshots taken from the catalog when the line (or the
// unit's add-on) was created; later catalog edits never reprice a cart.
package cart

import (
	"errors"

	"coffee-order-bot/models"
)

const (
	// MaxLines caps how many distinct product lines a cart can hold
	MaxLines = 5
	// MaxQuantity caps units per line
	MaxQuantity = 4
)

var (
	ErrCartFull      = errors.New("cart already holds the maximum number of products")
	ErrQuantityLimit = errors.New("cannot add more than 4 items of the same product")
	ErrNoSizes       = errors.New("product has no size options")
	ErrBadLineIndex  = errors.New("cart line index out of range")
	ErrBadUnitIndex  = errors.New("unit index out of range for line quantity")
	ErrUnknownAddOn  = errors.New("add-on is not offered for this product")
)

// DefaultSize is the size a product lands in the cart with: the last entry of
// the catalog's size list (largest by convention).
func DefaultSize(p *models.Product) (models.SizeOption, error) {
	if len(p.SizeOptions) == 0 {
		return models.SizeOption{}, ErrNoSizes
	}
	return p.SizeOptions[len(p.SizeOptions)-1], nil
}

// ValidIndex reports whether idx addresses an existing cart line
func ValidIndex(lines []models.CartLine, idx int) bool {
	return idx >= 0 && idx < len(lines)
}

// Recompute re-derives a line's total from its snapshot prices
func Recompute(l *models.CartLine) {
	total := l.SizeOption.Price * float64(l.Quantity)
	for _, a := range l.AddOns {
		total += a.Price
	}
	l.TotalPrice = total
}

// Total sums all line totals
func Total(lines []models.CartLine) float64 {
	var sum float64
	for i := range lines {
		sum += lines[i].TotalPrice
	}
	return sum
}

func defaultAddOnsFor(p *models.Product, forItem int) []models.AddOn {
	addOns := make([]models.AddOn, 0, len(p.DefaultAddOns))
	for _, d := range p.DefaultAddOns {
		addOns = append(addOns, models.AddOn{
			ForItem: forItem,
			Kind:    d.Kind,
			Option:  d.Option,
			Price:   d.Price,
		})
	}
	return addOns
}

// AddProduct puts one unit of p into the cart at its default size. A line with
// the same product and size absorbs the unit (quantity capped at MaxQuantity);
// otherwise a new line is opened unless the cart is full. Returns the updated
// cart and the index of the affected line.
func AddProduct(lines []models.CartLine, p *models.Product) ([]models.CartLine, int, error) {
	size, err := DefaultSize(p)
	if err != nil {
		return lines, 0, err
	}

	for i := range lines {
		if lines[i].ProductID == p.ID && lines[i].SizeOption.Size == size.Size {
			if lines[i].Quantity >= MaxQuantity {
				return lines, i, ErrQuantityLimit
			}
			lines[i].Quantity++
			lines[i].AddOns = append(lines[i].AddOns, defaultAddOnsFor(p, lines[i].Quantity-1)...)
			Recompute(&lines[i])
			return lines, i, nil
		}
	}

	if len(lines) >= MaxLines {
		return lines, 0, ErrCartFull
	}

	line := models.CartLine{
		ProductID:   p.ID,
		SizeOption:  size,
		Quantity:    1,
		AddOns:      defaultAddOnsFor(p, 0),
		CurrentItem: 0,
	}
	Recompute(&line)
	lines = append(lines, line)
	return lines, len(lines) - 1, nil
}

// Increment adds one unit to a line, seeding it with the product's default
// add-ons.
func Increment(lines []models.CartLine, idx int, p *models.Product) error {
	if !ValidIndex(lines, idx) {
		return ErrBadLineIndex
	}
	l := &lines[idx]
	if l.Quantity >= MaxQuantity {
		return ErrQuantityLimit
	}
	l.Quantity++
	l.AddOns = append(l.AddOns, defaultAddOnsFor(p, l.Quantity-1)...)
	Recompute(l)
	return nil
}

// Decrement removes one unit from a line, dropping the removed unit's add-ons.
// At quantity one the whole line is removed; the second return value reports
// that.
func Decrement(lines []models.CartLine, idx int) ([]models.CartLine, bool, error) {
	if !ValidIndex(lines, idx) {
		return lines, false, ErrBadLineIndex
	}
	l := &lines[idx]
	if l.Quantity <= 1 {
		lines = append(lines[:idx], lines[idx+1:]...)
		return lines, true, nil
	}
	l.Quantity--
	kept := l.AddOns[:0]
	for _, a := range l.AddOns {
		if a.ForItem != l.Quantity {
			kept = append(kept, a)
		}
	}
	l.AddOns = kept
	if l.CurrentItem >= l.Quantity {
		l.CurrentItem = l.Quantity - 1
	}
	Recompute(l)
	return lines, false, nil
}

// RemoveLine deletes a line outright (cart review screen)
func RemoveLine(lines []models.CartLine, idx int) ([]models.CartLine, error) {
	if !ValidIndex(lines, idx) {
		return lines, ErrBadLineIndex
	}
	return append(lines[:idx], lines[idx+1:]...), nil
}

// SetSize replaces a line's size snapshot, keeping quantity and add-ons
func SetSize(lines []models.CartLine, idx int, opt models.SizeOption) error {
	if !ValidIndex(lines, idx) {
		return ErrBadLineIndex
	}
	lines[idx].SizeOption = opt
	Recompute(&lines[idx])
	return nil
}

// SelectUnit marks which unit of a line the add-ons screen is editing
func SelectUnit(lines []models.CartLine, idx, forItem int) error {
	if !ValidIndex(lines, idx) {
		return ErrBadLineIndex
	}
	if forItem < 0 || forItem >= lines[idx].Quantity {
		return ErrBadUnitIndex
	}
	lines[idx].CurrentItem = forItem
	return nil
}

// ToggleAddOn applies the three-way toggle for the unit currently selected on
// the line: tapping the selected option removes it, tapping another option of
// the same kind replaces it, anything else adds it. A unit never carries two
// add-ons of the same kind.
func ToggleAddOn(lines []models.CartLine, idx int, p *models.Product, kind, option string) error {
	if !ValidIndex(lines, idx) {
		return ErrBadLineIndex
	}
	l := &lines[idx]
	forItem := l.CurrentItem
	if forItem < 0 || forItem >= l.Quantity {
		return ErrBadUnitIndex
	}

	for i, a := range l.AddOns {
		if a.ForItem == forItem && a.Kind == kind && a.Option == option {
			// Toggle off
			l.AddOns = append(l.AddOns[:i], l.AddOns[i+1:]...)
			Recompute(l)
			return nil
		}
	}

	choice, ok := p.PossibleAddOn(kind, option)
	if !ok {
		return ErrUnknownAddOn
	}

	// Replace any previous add-on of the same kind for this unit
	kept := l.AddOns[:0]
	for _, a := range l.AddOns {
		if !(a.ForItem == forItem && a.Kind == kind) {
			kept = append(kept, a)
		}
	}
	l.AddOns = append(kept, models.AddOn{
		ForItem: forItem,
		Kind:    kind,
		Option:  option,
		Price:   choice.Price,
	})
	Recompute(l)
	return nil
}
