package models

import "time"

// JourneyState represents where a customer currently is in the ordering conversation
type JourneyState string

const (
	StateFreshStart       JourneyState = "fresh-start"
	StateAcceptingTerms   JourneyState = "accepting-terms"
	StateChoosingLanguage JourneyState = "choosing-language"
	StateGivingPhone      JourneyState = "giving-phone-number"
	StateGivingFullName   JourneyState = "giving-full-name"
	StateHub              JourneyState = "none"
	StateSupport          JourneyState = "support"
	StateSettings         JourneyState = "settings"
	StateChangingLanguage JourneyState = "changing-language"
	StateExploreProducts  JourneyState = "explore-products"
	StateProductDetails   JourneyState = "product-details"
	StateProductAddOns    JourneyState = "product-details-addons"
	StateReviewCart       JourneyState = "review-cart"
	StateSelectPickupTime JourneyState = "select-pickup-time"
	StatePayingForOrder   JourneyState = "paying-for-order"
	StateWaitingForOrder  JourneyState = "waiting-for-order"
	StateBanned           JourneyState = "banned"
)

// StateDetailsNone is the placeholder value when no extra state context is stored
const StateDetailsNone = "none"

// SizeOption is one purchasable size of a product
type SizeOption struct {
	Size  string  `json:"size"`
	Price float64 `json:"price"`
}

// AddOn is a per-unit extra on a cart line. ForItem indexes the unit
// (0..Quantity-1) the add-on belongs to.
type AddOn struct {
	ForItem int     `json:"for_item"`
	Kind    string  `json:"kind"`
	Option  string  `json:"option"`
	Price   float64 `json:"price"`
}

// CartLine is one product entry in the customer's cart. Size and add-on
// prices are snapshots taken when the line was created.
type CartLine struct {
	ProductID   uint       `json:"product_id"`
	SizeOption  SizeOption `json:"size_option"`
	Quantity    int        `json:"quantity"`
	AddOns      []AddOn    `json:"add_ons"`
	CurrentItem int        `json:"current_item"` // unit being edited in the add-ons screen
	TotalPrice  float64    `json:"total_price"`
}

type Customer struct {
	ID                uint         `json:"id" gorm:"primaryKey"`
	ChatID            int64        `json:"chat_id" gorm:"uniqueIndex;not null"`
	FullName          string       `json:"full_name"`
	PhoneNumber       string       `json:"phone_number"`
	PreferredLanguage string       `json:"preferred_language"`
	AgreedToTerms     bool         `json:"agreed_to_terms" gorm:"default:false"`
	State             JourneyState `json:"state" gorm:"not null;default:'fresh-start'"`
	StateDetails      string       `json:"state_details" gorm:"not null;default:'none'"`
	Cart              []CartLine   `json:"cart" gorm:"serializer:json"`
	Version           int64        `json:"-" gorm:"not null;default:0"` // optimistic lock token
	LastActionAt      time.Time    `json:"last_action_at"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}
