// Package journey drives the ordering conversation. Each state owns a step:
// a validation that checks the update fits the state (re-prompting when it
// does not) and an action that handles the event, moves state through the
// optimistic save loop and renders the next screen.
//
// The chat transport lives outside this module. It hands updates to
// HandleUpdate together with a Conversation for responding.
package journey

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"coffee-order-bot/localization"
	"coffee-order-bot/models"
	"coffee-order-bot/orders"
	"coffee-order-bot/reminders"
	"coffee-order-bot/statemachine"
	"coffee-order-bot/store"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EventKind distinguishes typed messages from button taps
type EventKind int

const (
	EventMessage EventKind = iota
	EventCallback
)

// Update is one incoming chat event, already stripped of transport detail
type Update struct {
	Kind    EventKind
	ChatID  int64
	Text    string // message text
	Data    string // callback button payload
	Contact string // shared phone number, when the transport provides one
}

// Button is one inline keyboard entry
type Button struct {
	Text           string
	Data           string
	URL            string
	RequestContact bool
}

// Conversation is what the transport lets a step do in response to an update
type Conversation interface {
	Reply(text string, keyboard [][]Button) error
	Edit(text string, keyboard [][]Button) error
	Delete() error
	Answer(text string, alert bool) error
}

// Sender pushes a message outside the request/response cycle (reminders)
type Sender interface {
	Send(chatID int64, text string, keyboard [][]Button) error
}

// Context carries one update through validation and action
type Context struct {
	Update   Update
	Conv     Conversation
	Customer *models.Customer
}

type step struct {
	validate func(*Service, *Context) (bool, error)
	run      func(*Service, *Context) error
}

type Service struct {
	db        *gorm.DB
	customers *store.CustomerStore
	loc       *localization.Localizer
	orders    *orders.Service
	reminders *reminders.Scheduler
	steps     map[models.JourneyState]step
}

func NewService(db *gorm.DB, customers *store.CustomerStore, loc *localization.Localizer, ord *orders.Service, rem *reminders.Scheduler) *Service {
	s := &Service{
		db:        db,
		customers: customers,
		loc:       loc,
		orders:    ord,
		reminders: rem,
	}
	s.steps = map[models.JourneyState]step{
		models.StateFreshStart:       {validate: validateFreshStart, run: runFreshStart},
		models.StateAcceptingTerms:   {validate: validateAcceptTerms, run: runAcceptTerms},
		models.StateChoosingLanguage: {validate: validateChooseLanguage, run: runChooseLanguage},
		models.StateGivingPhone:      {validate: validateGivePhone, run: runGivePhone},
		models.StateGivingFullName:   {validate: validateGiveFullName, run: runGiveFullName},
		models.StateHub:              {validate: validateHub, run: runHub},
		models.StateSupport:          {validate: validateCallbackOnly, run: runSupport},
		models.StateSettings:         {validate: validateCallbackOnly, run: runSettings},
		models.StateChangingLanguage: {validate: validateCallbackOnly, run: runChangingLanguage},
		models.StateExploreProducts:  {validate: validateCallbackOnly, run: runExploreProducts},
		models.StateProductDetails:   {validate: validateCallbackOnly, run: runProductDetails},
		models.StateProductAddOns:    {validate: validateCallbackOnly, run: runProductAddOns},
		models.StateReviewCart:       {validate: validateCallbackOnly, run: runReviewCart},
		models.StateSelectPickupTime: {validate: validateCallbackOnly, run: runSelectPickupTime},
		models.StatePayingForOrder:   {validate: validateCallbackOnly, run: runPayingForOrder},
		models.StateWaitingForOrder:  {validate: validateCallbackOnly, run: runWaitingForOrder},
	}
	return s
}

const pickupConfirmedPrefix = "pickup_confirmed_"

// HandleUpdate is the resolver: it loads the customer and dispatches the
// update to the step for their stored state. Two events bypass the stored
// state entirely: pickup confirmation taps (valid from anywhere, the reminder
// may arrive mid-journey) and /start (the customer's escape hatch).
func (s *Service) HandleUpdate(upd Update, conv Conversation) (err error) {
	var customer *models.Customer

	switch upd.Kind {
	case EventMessage:
		customer, err = s.customers.LoadOrCreate(upd.ChatID)
		if err != nil {
			return fmt.Errorf("loading customer: %w", err)
		}
	case EventCallback:
		customer, err = s.customers.ByChatID(upd.ChatID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.WithField("chat_id", upd.ChatID).Error("callback from unknown customer ignored")
				return nil
			}
			return fmt.Errorf("loading customer: %w", err)
		}
	default:
		return fmt.Errorf("unknown event kind %d", upd.Kind)
	}

	ctx := &Context{Update: upd, Conv: conv, Customer: customer}

	// Outermost error boundary: a panicking step must never leave the customer
	// mid-mutation or the transport without an answer.
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"chat_id": ctx.Customer.ChatID,
				"state":   ctx.Customer.State,
				"panic":   r,
			}).Error("journey step panicked, wiping the session")
			err = s.EmergencyReset(ctx)
		}
	}()

	if upd.Kind == EventCallback && strings.HasPrefix(upd.Data, pickupConfirmedPrefix) {
		return runPickupConfirmed(s, ctx)
	}

	if customer.State == models.StateBanned {
		return nil
	}

	if upd.Kind == EventMessage && upd.Text == "/start" && customer.AgreedToTerms && customer.FullName != "" {
		return s.restart(ctx)
	}

	if !statemachine.IsValid(customer.State) {
		return s.integrityReset(ctx, "stored state is not part of the journey")
	}

	st, ok := s.steps[customer.State]
	if !ok {
		// Valid but non-dispatchable (banned is handled above)
		return s.resetToHub(ctx)
	}

	valid, err := st.validate(s, ctx)
	if err != nil {
		return err
	}
	if !valid {
		return nil
	}
	if err := st.run(s, ctx); err != nil {
		if errors.Is(err, store.ErrConflict) {
			log.WithField("chat_id", customer.ChatID).Warn("save conflict exhausted retries, resetting to hub")
			return s.resetToHub(ctx)
		}
		// Anything a step did not classify itself lands the customer somewhere
		// safe instead of leaking a raw error to the transport
		log.WithFields(log.Fields{
			"chat_id": customer.ChatID,
			"state":   customer.State,
		}).Errorf("journey step failed: %v", err)
		return s.resetToHub(ctx)
	}
	return nil
}

// transition applies mutate under the optimistic save loop and refreshes the
// context's customer with what actually landed.
func (s *Service) transition(ctx *Context, mutate func(*models.Customer) error) error {
	updated, err := s.customers.UpdateWithRetry(ctx.Customer.ChatID, func(c *models.Customer) error {
		c.LastActionAt = time.Now()
		return mutate(c)
	})
	if err != nil {
		return err
	}
	ctx.Customer = updated
	return nil
}

// restart handles /start from an onboarded customer: back to the hub, state
// details dropped, cart kept.
func (s *Service) restart(ctx *Context) error {
	err := s.transition(ctx, func(c *models.Customer) error {
		c.State = models.StateHub
		c.StateDetails = models.StateDetailsNone
		return nil
	})
	if err != nil {
		return err
	}
	return s.showHub(ctx, false)
}

// resetToHub sanitizes a customer whose session went sideways: hub state,
// details cleared, cart emptied.
func (s *Service) resetToHub(ctx *Context) error {
	err := s.transition(ctx, func(c *models.Customer) error {
		c.State = models.StateHub
		c.StateDetails = models.StateDetailsNone
		c.Cart = []models.CartLine{}
		return nil
	})
	if err != nil {
		// The reset itself failed; all that is left is telling the customer
		log.WithField("chat_id", ctx.Customer.ChatID).Errorf("reset to hub failed: %v", err)
		return ctx.Conv.Reply(s.text(ctx, "session_error_restart"), nil)
	}
	return s.showHub(ctx, false)
}

// EmergencyReset wipes the whole profile back to fresh-start. Last resort for
// corrupt customer data.
func (s *Service) EmergencyReset(ctx *Context) error {
	err := s.transition(ctx, func(c *models.Customer) error {
		c.State = models.StateFreshStart
		c.StateDetails = models.StateDetailsNone
		c.Cart = []models.CartLine{}
		c.AgreedToTerms = false
		c.PreferredLanguage = ""
		c.PhoneNumber = ""
		c.FullName = ""
		return nil
	})
	if err != nil {
		return err
	}
	log.WithField("chat_id", ctx.Customer.ChatID).Warn("emergency profile reset completed")
	return runFreshStart(s, ctx)
}

func (s *Service) text(ctx *Context, key string) string {
	return s.loc.ForCustomer(ctx.Customer, key)
}

// integrityReset handles corrupt stored journey data: record why, then
// sanitize and land the customer somewhere safe.
func (s *Service) integrityReset(ctx *Context, reason string) error {
	log.WithFields(log.Fields{
		"chat_id": ctx.Customer.ChatID,
		"state":   ctx.Customer.State,
		"details": ctx.Customer.StateDetails,
	}).Errorf("state integrity fault: %s", reason)
	return s.resetToHub(ctx)
}

// cartLineIndex parses the cart line index carried in state details
func cartLineIndex(c *models.Customer) (int, error) {
	var idx int
	if _, err := fmt.Sscanf(c.StateDetails, "%d", &idx); err != nil {
		return 0, fmt.Errorf("state details %q is not a cart index", c.StateDetails)
	}
	if idx < 0 || idx >= len(c.Cart) {
		return 0, fmt.Errorf("cart index %d out of range for %d lines", idx, len(c.Cart))
	}
	return idx, nil
}
