package journey

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coffee-order-bot/localization"
	"coffee-order-bot/models"
	"coffee-order-bot/orders"
	"coffee-order-bot/reminders"
	"coffee-order-bot/store"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeConv struct {
	replies []string
	edits   []string
	answers []string
	deletes int

	lastKeyboard [][]Button
}

func (f *fakeConv) Reply(text string, keyboard [][]Button) error {
	f.replies = append(f.replies, text)
	f.lastKeyboard = keyboard
	return nil
}

func (f *fakeConv) Edit(text string, keyboard [][]Button) error {
	f.edits = append(f.edits, text)
	f.lastKeyboard = keyboard
	return nil
}

func (f *fakeConv) Delete() error {
	f.deletes++
	return nil
}

func (f *fakeConv) Answer(text string, alert bool) error {
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeConv) total() int {
	return len(f.replies) + len(f.edits) + len(f.answers) + f.deletes
}

type fixture struct {
	svc       *Service
	db        *gorm.DB
	customers *store.CustomerStore
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Customer{}, &models.Product{}, &models.Translation{},
		&models.Order{}, &models.OrderLine{},
	))

	kitchen := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(kitchen.Close)

	customers := store.NewCustomerStore(db)
	loc := localization.New(db)
	ord := orders.NewService(db, "DR", kitchen.URL)
	sched := reminders.New(db, NewPickupNotifier(nil, loc))
	svc := NewService(db, customers, loc, ord, sched)
	return &fixture{svc: svc, db: db, customers: customers}
}

func (f *fixture) seedProduct(t *testing.T) *models.Product {
	t.Helper()
	p := models.Product{
		TitleKey: "product_latte",
		SizeOptions: []models.SizeOption{
			{Size: "S", Price: 20000},
			{Size: "L", Price: 30000},
		},
		DefaultAddOns:  []models.AddOnChoice{{Kind: "milk", Option: "regular", Price: 0}},
		PossibleAddOns: []models.AddOnChoice{{Kind: "milk", Option: "oat", Price: 5000}, {Kind: "milk", Option: "regular", Price: 0}},
		Status:         models.ProductActive,
	}
	require.NoError(t, f.db.Create(&p).Error)
	return &p
}

func (f *fixture) customer(t *testing.T, chatID int64) *models.Customer {
	t.Helper()
	c, err := f.customers.ByChatID(chatID)
	require.NoError(t, err)
	return c
}

func (f *fixture) seedCustomer(t *testing.T, chatID int64, state models.JourneyState, details string, lines []models.CartLine) {
	t.Helper()
	c := models.Customer{
		ChatID:            chatID,
		FullName:          "Test Customer",
		PhoneNumber:       "+998901234567",
		PreferredLanguage: "en",
		AgreedToTerms:     true,
		State:             state,
		StateDetails:      details,
		Cart:              lines,
	}
	require.NoError(t, f.db.Create(&c).Error)
}

func message(chatID int64, text string) Update {
	return Update{Kind: EventMessage, ChatID: chatID, Text: text}
}

func callback(chatID int64, data string) Update {
	return Update{Kind: EventCallback, ChatID: chatID, Data: data}
}

func TestOnboardingFlow(t *testing.T) {
	f := setup(t)
	conv := &fakeConv{}

	// First contact: welcome plus terms prompt
	require.NoError(t, f.svc.HandleUpdate(message(10, "hi"), conv))
	c := f.customer(t, 10)
	assert.Equal(t, models.StateAcceptingTerms, c.State)
	assert.Len(t, conv.replies, 2)

	// Typing instead of tapping re-prompts the terms
	conv = &fakeConv{}
	require.NoError(t, f.svc.HandleUpdate(message(10, "ok fine"), conv))
	assert.Equal(t, models.StateAcceptingTerms, f.customer(t, 10).State)
	assert.NotEmpty(t, conv.replies)

	// Accepting moves to language choice
	require.NoError(t, f.svc.HandleUpdate(callback(10, "accept_terms"), &fakeConv{}))
	c = f.customer(t, 10)
	assert.True(t, c.AgreedToTerms)
	assert.Equal(t, models.StateChoosingLanguage, c.State)

	require.NoError(t, f.svc.HandleUpdate(callback(10, "lang_en"), &fakeConv{}))
	c = f.customer(t, 10)
	assert.Equal(t, "en", c.PreferredLanguage)
	assert.Equal(t, models.StateGivingPhone, c.State)

	// A bare text that is not a phone number re-prompts
	require.NoError(t, f.svc.HandleUpdate(message(10, "call me maybe"), &fakeConv{}))
	assert.Equal(t, models.StateGivingPhone, f.customer(t, 10).State)

	require.NoError(t, f.svc.HandleUpdate(message(10, "+998901112233"), &fakeConv{}))
	c = f.customer(t, 10)
	assert.Equal(t, "+998901112233", c.PhoneNumber)
	assert.Equal(t, models.StateGivingFullName, c.State)

	require.NoError(t, f.svc.HandleUpdate(message(10, "Ada Lovelace"), &fakeConv{}))
	c = f.customer(t, 10)
	assert.Equal(t, "Ada Lovelace", c.FullName)
	assert.Equal(t, models.StateHub, c.State)
}

func TestRestartResetsToHubKeepingCart(t *testing.T) {
	f := setup(t)
	lines := []models.CartLine{{ProductID: 1, SizeOption: models.SizeOption{Size: "L", Price: 30000}, Quantity: 1, TotalPrice: 30000}}
	f.seedCustomer(t, 20, models.StateExploreProducts, "none", lines)

	require.NoError(t, f.svc.HandleUpdate(message(20, "/start"), &fakeConv{}))
	c := f.customer(t, 20)
	assert.Equal(t, models.StateHub, c.State)
	assert.Equal(t, models.StateDetailsNone, c.StateDetails)
	assert.Len(t, c.Cart, 1, "restart does not clear the cart")
}

func TestBannedCustomerGetsNothing(t *testing.T) {
	f := setup(t)
	f.seedCustomer(t, 30, models.StateBanned, "none", nil)

	conv := &fakeConv{}
	require.NoError(t, f.svc.HandleUpdate(message(30, "/start"), conv))
	require.NoError(t, f.svc.HandleUpdate(callback(30, "explore_products"), conv))
	assert.Zero(t, conv.total())
	assert.Equal(t, models.StateBanned, f.customer(t, 30).State)
}

func TestCallbackFromUnknownCustomerIgnored(t *testing.T) {
	f := setup(t)
	conv := &fakeConv{}
	require.NoError(t, f.svc.HandleUpdate(callback(404, "explore_products"), conv))
	assert.Zero(t, conv.total())
}

func TestUnknownStoredStateResetsToHub(t *testing.T) {
	f := setup(t)
	f.seedCustomer(t, 40, models.JourneyState("limbo"), "garbage", []models.CartLine{{ProductID: 1, Quantity: 1}})

	require.NoError(t, f.svc.HandleUpdate(callback(40, "anything"), &fakeConv{}))
	c := f.customer(t, 40)
	assert.Equal(t, models.StateHub, c.State)
	assert.Equal(t, models.StateDetailsNone, c.StateDetails)
	assert.Empty(t, c.Cart, "integrity reset clears the cart")
}

func TestShoppingFlow(t *testing.T) {
	f := setup(t)
	p := f.seedProduct(t)
	f.seedCustomer(t, 50, models.StateHub, "none", nil)

	// Hub → products menu
	require.NoError(t, f.svc.HandleUpdate(callback(50, "explore_products"), &fakeConv{}))
	assert.Equal(t, models.StateExploreProducts, f.customer(t, 50).State)

	// Pick the product: a line appears at the default (largest) size
	require.NoError(t, f.svc.HandleUpdate(callback(50, fmt.Sprintf("product_%d", p.ID)), &fakeConv{}))
	c := f.customer(t, 50)
	assert.Equal(t, models.StateProductDetails, c.State)
	assert.Equal(t, "0", c.StateDetails)
	require.Len(t, c.Cart, 1)
	assert.Equal(t, "L", c.Cart[0].SizeOption.Size)

	// Bump quantity to the cap, then expect the alert
	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.HandleUpdate(callback(50, "add"), &fakeConv{}))
	}
	conv := &fakeConv{}
	require.NoError(t, f.svc.HandleUpdate(callback(50, "add"), conv))
	c = f.customer(t, 50)
	assert.Equal(t, 4, c.Cart[0].Quantity)
	assert.NotEmpty(t, conv.answers, "cap violation answers with an alert")

	// Switching size reprices the whole line
	require.NoError(t, f.svc.HandleUpdate(callback(50, "size_S_20000"), &fakeConv{}))
	c = f.customer(t, 50)
	assert.Equal(t, "S", c.Cart[0].SizeOption.Size)
	assert.Equal(t, 20000.0*4, c.Cart[0].TotalPrice)

	// Add-ons: toggle oat milk for unit 0 (replaces the default regular)
	require.NoError(t, f.svc.HandleUpdate(callback(50, "edit_details"), &fakeConv{}))
	assert.Equal(t, models.StateProductAddOns, f.customer(t, 50).State)
	require.NoError(t, f.svc.HandleUpdate(callback(50, "addon_milk_oat"), &fakeConv{}))
	c = f.customer(t, 50)
	var unitZeroMilk []models.AddOn
	for _, a := range c.Cart[0].AddOns {
		if a.ForItem == 0 && a.Kind == "milk" {
			unitZeroMilk = append(unitZeroMilk, a)
		}
	}
	require.Len(t, unitZeroMilk, 1)
	assert.Equal(t, "oat", unitZeroMilk[0].Option)
	assert.Equal(t, 20000.0*4+5000, c.Cart[0].TotalPrice)
}

func TestStaleCartIndexResetsToProducts(t *testing.T) {
	f := setup(t)
	f.seedProduct(t)
	// Details point at line 3 of an empty cart
	f.seedCustomer(t, 60, models.StateProductDetails, "3", nil)

	require.NoError(t, f.svc.HandleUpdate(callback(60, "add"), &fakeConv{}))
	c := f.customer(t, 60)
	assert.Equal(t, models.StateExploreProducts, c.State)
	assert.Equal(t, models.StateDetailsNone, c.StateDetails)
}

func TestCheckoutPlacesOrder(t *testing.T) {
	f := setup(t)
	p := f.seedProduct(t)
	lines := []models.CartLine{{
		ProductID:  p.ID,
		SizeOption: models.SizeOption{Size: "L", Price: 30000},
		Quantity:   1,
		TotalPrice: 30000,
	}}
	f.seedCustomer(t, 70, models.StatePayingForOrder, "14:30", lines)

	require.NoError(t, f.svc.HandleUpdate(callback(70, "pay"), &fakeConv{}))
	c := f.customer(t, 70)
	assert.Equal(t, models.StateWaitingForOrder, c.State)
	assert.True(t, strings.HasPrefix(c.StateDetails, "DR-"), "state details hold the order number")
	assert.Len(t, c.Cart, 1, "cart is cleared on confirmation, not on payment")

	var order models.Order
	require.NoError(t, f.db.Where("order_number = ?", c.StateDetails).First(&order).Error)
	assert.Equal(t, models.StatusWaitingForReceipt, order.Status)
	assert.Equal(t, "14:30", order.PickupTime)
}

func TestPickupConfirmationFromAnyState(t *testing.T) {
	f := setup(t)
	p := f.seedProduct(t)
	lines := []models.CartLine{{
		ProductID:  p.ID,
		SizeOption: models.SizeOption{Size: "L", Price: 30000},
		Quantity:   1,
		TotalPrice: 30000,
	}}
	f.seedCustomer(t, 80, models.StatePayingForOrder, "14:30", lines)
	require.NoError(t, f.svc.HandleUpdate(callback(80, "pay"), &fakeConv{}))

	var order models.Order
	require.NoError(t, f.db.First(&order).Error)

	// The tap lands while the customer browses products again
	require.NoError(t, f.db.Model(&models.Customer{}).Where("chat_id = ?", int64(80)).
		Update("state", models.StateExploreProducts).Error)

	conv := &fakeConv{}
	require.NoError(t, f.svc.HandleUpdate(callback(80, pickupConfirmedPrefix+order.ID), conv))

	require.NoError(t, f.db.First(&order, "id = ?", order.ID).Error)
	assert.Equal(t, models.StatusCompleted, order.Status)

	c := f.customer(t, 80)
	assert.Equal(t, models.StateHub, c.State)
	assert.Empty(t, c.Cart)
	assert.Equal(t, 1, conv.deletes, "reminder message removed")
	assert.NotEmpty(t, conv.replies, "hub shown as a fresh message")
}

func TestPickupConfirmationForUnknownOrderStillResets(t *testing.T) {
	f := setup(t)
	f.seedCustomer(t, 90, models.StateWaitingForOrder, "DR-20260315-001",
		[]models.CartLine{{ProductID: 1, Quantity: 1}})

	require.NoError(t, f.svc.HandleUpdate(callback(90, pickupConfirmedPrefix+"no-such-order"), &fakeConv{}))
	c := f.customer(t, 90)
	assert.Equal(t, models.StateHub, c.State)
	assert.Empty(t, c.Cart)
}

func TestWaitingForOrderDone(t *testing.T) {
	f := setup(t)
	f.seedCustomer(t, 100, models.StateWaitingForOrder, "DR-20260315-001",
		[]models.CartLine{{ProductID: 1, Quantity: 1}})

	require.NoError(t, f.svc.HandleUpdate(callback(100, "done"), &fakeConv{}))
	c := f.customer(t, 100)
	assert.Equal(t, models.StateHub, c.State)
	assert.Empty(t, c.Cart)
}

func TestReviewCartRemoveAll(t *testing.T) {
	f := setup(t)
	f.seedCustomer(t, 110, models.StateReviewCart, "none",
		[]models.CartLine{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 2}})

	require.NoError(t, f.svc.HandleUpdate(callback(110, "remove_all"), &fakeConv{}))
	c := f.customer(t, 110)
	assert.Empty(t, c.Cart)
	assert.Equal(t, models.StateHub, c.State)
}

func TestEmptyCartCannotCheckout(t *testing.T) {
	f := setup(t)
	f.seedCustomer(t, 120, models.StateReviewCart, "none", nil)

	conv := &fakeConv{}
	require.NoError(t, f.svc.HandleUpdate(callback(120, "select_pickup_time"), conv))
	assert.Equal(t, models.StateReviewCart, f.customer(t, 120).State)
	assert.NotEmpty(t, conv.answers)
}

func TestStepPanicTriggersEmergencyReset(t *testing.T) {
	f := setup(t)
	f.seedCustomer(t, 130, models.StateHub, "none", []models.CartLine{{ProductID: 1, Quantity: 1}})
	f.svc.steps[models.StateHub] = step{
		validate: validateCallbackOnly,
		run: func(s *Service, ctx *Context) error {
			panic("nil map write")
		},
	}

	conv := &fakeConv{}
	require.NoError(t, f.svc.HandleUpdate(callback(130, "support"), conv))

	// The whole profile is wiped and onboarding starts over
	c := f.customer(t, 130)
	assert.Equal(t, models.StateAcceptingTerms, c.State)
	assert.False(t, c.AgreedToTerms)
	assert.Empty(t, c.FullName)
	assert.Empty(t, c.Cart)
	assert.NotEmpty(t, conv.replies, "onboarding restarts with a fresh message")
}

func TestStepFailureResetsToHub(t *testing.T) {
	f := setup(t)
	f.seedCustomer(t, 140, models.StateExploreProducts, "none", []models.CartLine{{ProductID: 1, Quantity: 1}})
	f.svc.steps[models.StateExploreProducts] = step{
		validate: validateCallbackOnly,
		run: func(s *Service, ctx *Context) error {
			return errors.New("storage backend unavailable")
		},
	}

	require.NoError(t, f.svc.HandleUpdate(callback(140, "back"), &fakeConv{}))
	c := f.customer(t, 140)
	assert.Equal(t, models.StateHub, c.State)
	assert.Equal(t, models.StateDetailsNone, c.StateDetails)
	assert.Empty(t, c.Cart)
}

func TestUnsupportedLanguageRejected(t *testing.T) {
	f := setup(t)
	c := models.Customer{ChatID: 150, AgreedToTerms: true, State: models.StateChoosingLanguage, StateDetails: "none"}
	require.NoError(t, f.db.Create(&c).Error)

	conv := &fakeConv{}
	require.NoError(t, f.svc.HandleUpdate(callback(150, "lang_fr"), conv))
	reloaded := f.customer(t, 150)
	assert.Equal(t, models.StateChoosingLanguage, reloaded.State)
	assert.Empty(t, reloaded.PreferredLanguage)
	assert.NotEmpty(t, conv.answers)
}

func TestPickupTimeSlots(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	slots := pickupTimeSlots(now)
	require.Len(t, slots, 10)
	assert.Equal(t, "09:15", slots[0])
	assert.Equal(t, "10:00", slots[9])
}
