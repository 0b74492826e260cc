package models

import "time"

// ProductStatus controls catalog visibility
type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
)

// AddOnChoice is a catalog-side add-on definition (what CAN be added, or what
// every new unit starts with).
type AddOnChoice struct {
	Kind   string  `json:"kind"`
	Option string  `json:"option"`
	Price  float64 `json:"price"`
}

type Product struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	TitleKey       string        `json:"title_key" gorm:"not null"` // localization key
	DescriptionKey string        `json:"description_key"`
	Photo          string        `json:"photo"`
	SizeOptions    []SizeOption  `json:"size_options" gorm:"serializer:json"`
	DefaultAddOns  []AddOnChoice `json:"default_add_ons" gorm:"serializer:json"`
	PossibleAddOns []AddOnChoice `json:"possible_add_ons" gorm:"serializer:json"`
	Status         ProductStatus `json:"status" gorm:"not null;default:'active'"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// PossibleAddOn looks up the catalog definition for a (kind, option) pair.
func (p *Product) PossibleAddOn(kind, option string) (AddOnChoice, bool) {
	for _, a := range p.PossibleAddOns {
		if a.Kind == kind && a.Option == option {
			return a, true
		}
	}
	return AddOnChoice{}, false
}

// Translation holds the per-language strings for one localization key
type Translation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Key       string    `json:"key" gorm:"uniqueIndex;not null"`
	En        string    `json:"en"`
	Ru        string    `json:"ru"`
	Uz        string    `json:"uz"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
