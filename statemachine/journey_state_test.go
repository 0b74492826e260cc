package statemachine

import (
	"testing"

	"coffee-order-bot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name  string
		from  models.JourneyState
		to    models.JourneyState
		actor string
		ok    bool
	}{
		{"onboarding forward", models.StateFreshStart, models.StateAcceptingTerms, "customer", true},
		{"terms to language", models.StateAcceptingTerms, models.StateChoosingLanguage, "customer", true},
		{"hub to products", models.StateHub, models.StateExploreProducts, "customer", true},
		{"products back to hub", models.StateExploreProducts, models.StateHub, "customer", true},
		{"details to addons", models.StateProductDetails, models.StateProductAddOns, "customer", true},
		{"checkout forward", models.StateSelectPickupTime, models.StatePayingForOrder, "customer", true},
		{"waiting back to hub", models.StateWaitingForOrder, models.StateHub, "customer", true},

		{"skipping onboarding", models.StateFreshStart, models.StateHub, "customer", false},
		{"backwards onboarding", models.StateGivingPhone, models.StateAcceptingTerms, "customer", false},
		{"addons cannot jump to checkout", models.StateProductAddOns, models.StatePayingForOrder, "customer", false},
		{"banned is terminal", models.StateBanned, models.StateHub, "customer", false},
		{"customer cannot ban", models.StateHub, models.StateBanned, "customer", false},
		{"system can ban", models.StateHub, models.StateBanned, "system", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransition(tt.from, tt.to, tt.actor)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSystemResetBypassesTable(t *testing.T) {
	// Recovery resets are allowed from anywhere
	for _, from := range AllStates() {
		require.NoError(t, CanTransition(from, models.StateHub, "system"), "reset to hub from %s", from)
		require.NoError(t, CanTransition(from, models.StateFreshStart, "system"), "emergency reset from %s", from)
	}
}

func TestIsValid(t *testing.T) {
	for _, s := range AllStates() {
		assert.True(t, IsValid(s))
	}
	assert.False(t, IsValid(models.JourneyState("checking-out")))
	assert.False(t, IsValid(models.JourneyState("")))
}

func TestValidTransitionsFrom(t *testing.T) {
	nexts := ValidTransitionsFrom(models.StateHub)
	assert.Contains(t, nexts, models.StateExploreProducts)
	assert.Contains(t, nexts, models.StateSupport)
	assert.Contains(t, nexts, models.StateSettings)

	assert.Empty(t, ValidTransitionsFrom(models.StateBanned))
}
