package statemachine

import (
	"errors"

	"coffee-order-bot/models"
)

// Transition defines a valid journey state change and who drives it
type Transition struct {
	From  models.JourneyState
	To    models.JourneyState
	Actor string // "customer" or "system"
}

// validTransitions is the authoritative journey definition
var validTransitions = []Transition{
	// Onboarding runs strictly forward
	{From: models.StateFreshStart, To: models.StateAcceptingTerms, Actor: "customer"},
	{From: models.StateAcceptingTerms, To: models.StateChoosingLanguage, Actor: "customer"},
	{From: models.StateChoosingLanguage, To: models.StateGivingPhone, Actor: "customer"},
	{From: models.StateGivingPhone, To: models.StateGivingFullName, Actor: "customer"},
	{From: models.StateGivingFullName, To: models.StateHub, Actor: "customer"},
	// Hub fan-out
	{From: models.StateHub, To: models.StateExploreProducts, Actor: "customer"},
	{From: models.StateHub, To: models.StateSupport, Actor: "customer"},
	{From: models.StateHub, To: models.StateSettings, Actor: "customer"},
	{From: models.StateSupport, To: models.StateHub, Actor: "customer"},
	{From: models.StateSettings, To: models.StateChangingLanguage, Actor: "customer"},
	{From: models.StateSettings, To: models.StateHub, Actor: "customer"},
	{From: models.StateChangingLanguage, To: models.StateSettings, Actor: "customer"},
	// Shopping loop
	{From: models.StateExploreProducts, To: models.StateProductDetails, Actor: "customer"},
	{From: models.StateExploreProducts, To: models.StateReviewCart, Actor: "customer"},
	{From: models.StateExploreProducts, To: models.StateHub, Actor: "customer"},
	{From: models.StateProductDetails, To: models.StateProductAddOns, Actor: "customer"},
	{From: models.StateProductDetails, To: models.StateExploreProducts, Actor: "customer"},
	{From: models.StateProductDetails, To: models.StateReviewCart, Actor: "customer"},
	{From: models.StateProductAddOns, To: models.StateProductDetails, Actor: "customer"},
	{From: models.StateProductAddOns, To: models.StateExploreProducts, Actor: "customer"},
	// Checkout
	{From: models.StateReviewCart, To: models.StateSelectPickupTime, Actor: "customer"},
	{From: models.StateReviewCart, To: models.StateExploreProducts, Actor: "customer"},
	{From: models.StateReviewCart, To: models.StateHub, Actor: "customer"},
	{From: models.StateSelectPickupTime, To: models.StatePayingForOrder, Actor: "customer"},
	{From: models.StateSelectPickupTime, To: models.StateReviewCart, Actor: "customer"},
	{From: models.StatePayingForOrder, To: models.StateWaitingForOrder, Actor: "customer"},
	{From: models.StatePayingForOrder, To: models.StateSelectPickupTime, Actor: "customer"},
	{From: models.StateWaitingForOrder, To: models.StateHub, Actor: "customer"},
	// System marks a customer banned; banned is terminal
	{From: models.StateHub, To: models.StateBanned, Actor: "system"},
}

// transitionKey is used to look up valid transitions quickly
type transitionKey struct {
	From  models.JourneyState
	To    models.JourneyState
	Actor string
}

// Build a lookup map for O(1) validation
var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

var allStates = []models.JourneyState{
	models.StateFreshStart,
	models.StateAcceptingTerms,
	models.StateChoosingLanguage,
	models.StateGivingPhone,
	models.StateGivingFullName,
	models.StateHub,
	models.StateSupport,
	models.StateSettings,
	models.StateChangingLanguage,
	models.StateExploreProducts,
	models.StateProductDetails,
	models.StateProductAddOns,
	models.StateReviewCart,
	models.StateSelectPickupTime,
	models.StatePayingForOrder,
	models.StateWaitingForOrder,
	models.StateBanned,
}

var stateSet = func() map[models.JourneyState]bool {
	m := make(map[models.JourneyState]bool, len(allStates))
	for _, s := range allStates {
		m[s] = true
	}
	return m
}()

// IsValid reports whether a stored state belongs to the closed state set.
// Anything else is corrupt data and gets the customer reset to the hub.
func IsValid(state models.JourneyState) bool {
	return stateSet[state]
}

// AllStates returns the closed set of journey states
func AllStates() []models.JourneyState {
	return allStates
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(state models.JourneyState) []models.JourneyState {
	var nexts []models.JourneyState
	seen := map[models.JourneyState]bool{}
	for _, t := range validTransitions {
		if t.From == state && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another.
// System-driven recovery resets bypass this table on purpose: a reset to the
// hub or to fresh-start is allowed from any state.
func CanTransition(from, to models.JourneyState, actor string) error {
	if actor == "system" && (to == models.StateHub || to == models.StateFreshStart) {
		return nil
	}
	key := transitionKey{From: from, To: to, Actor: actor}
	if transitionMap[key] {
		return nil
	}
	return errors.New(
		"invalid transition: " + string(from) + " → " + string(to) +
			" is not allowed for actor '" + actor + "'. " +
			"Valid transitions from " + string(from) + " are: " + describeValidFrom(from),
	)
}

func describeValidFrom(state models.JourneyState) string {
	nexts := ValidTransitionsFrom(state)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
