package journey

import (
	"errors"
	"strconv"
	"strings"

	"coffee-order-bot/cart"
	"coffee-order-bot/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// cartFault records the integrity fault behind a stale cart reference before
// landing the customer back on the product menu.
func (s *Service) cartFault(ctx *Context, fault error) error {
	log.WithFields(log.Fields{
		"chat_id": ctx.Customer.ChatID,
		"state":   ctx.Customer.State,
		"details": ctx.Customer.StateDetails,
	}).Errorf("cart reference integrity fault: %v", fault)
	return s.resetToProducts(ctx)
}

// resetToProducts is the soft landing for stale cart references: back to the
// product menu without touching the cart itself.
func (s *Service) resetToProducts(ctx *Context) error {
	err := s.transition(ctx, func(c *models.Customer) error {
		c.State = models.StateExploreProducts
		c.StateDetails = models.StateDetailsNone
		return nil
	})
	if err != nil {
		return err
	}
	return s.showProductsMenu(ctx)
}

func runExploreProducts(s *Service, ctx *Context) error {
	data := ctx.Update.Data
	switch {
	case data == "back":
		err := s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateHub
			c.StateDetails = models.StateDetailsNone
			return nil
		})
		if err != nil {
			return err
		}
		return s.showHub(ctx, true)

	case data == "cart":
		err := s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateReviewCart
			return nil
		})
		if err != nil {
			return err
		}
		return s.showCart(ctx)

	case strings.HasPrefix(data, "product_"):
		id, err := strconv.ParseUint(strings.TrimPrefix(data, "product_"), 10, 32)
		if err != nil {
			return ctx.Conv.Answer(s.text(ctx, "invalid_product"), true)
		}
		p, err := s.productByID(uint(id))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Conv.Answer(s.text(ctx, "product_not_found"), true)
		}
		if err != nil {
			return err
		}
		if p.Status != models.ProductActive {
			return ctx.Conv.Answer(s.text(ctx, "product_unavailable"), true)
		}
		if len(p.SizeOptions) == 0 {
			return ctx.Conv.Answer(s.text(ctx, "product_data_error"), true)
		}

		var idx int
		err = s.transition(ctx, func(c *models.Customer) error {
			lines, i, err := cart.AddProduct(c.Cart, p)
			if err != nil {
				return err
			}
			c.Cart = lines
			idx = i
			c.State = models.StateProductDetails
			c.StateDetails = strconv.Itoa(i)
			return nil
		})
		if errors.Is(err, cart.ErrCartFull) {
			return ctx.Conv.Answer(s.text(ctx, "cart_full"), true)
		}
		if errors.Is(err, cart.ErrQuantityLimit) {
			return ctx.Conv.Answer(s.text(ctx, "quantity_limit"), true)
		}
		if err != nil {
			return err
		}
		return s.showProductDetails(ctx, idx)
	}
	return ctx.Conv.Answer("", false)
}

func runProductDetails(s *Service, ctx *Context) error {
	data := ctx.Update.Data
	switch {
	case data == "back":
		return s.resetToProducts(ctx)

	case data == "cart":
		err := s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateReviewCart
			return nil
		})
		if err != nil {
			return err
		}
		return s.showCart(ctx)

	case data == "do_not_reply":
		return ctx.Conv.Answer("", false)

	case data == "reduce":
		idx, err := cartLineIndex(ctx.Customer)
		if err != nil {
			return s.cartFault(ctx, err)
		}
		removed := false
		err = s.transition(ctx, func(c *models.Customer) error {
			lines, rm, err := cart.Decrement(c.Cart, idx)
			if err != nil {
				return err
			}
			c.Cart = lines
			removed = rm
			if rm {
				c.State = models.StateExploreProducts
				c.StateDetails = models.StateDetailsNone
			}
			return nil
		})
		if errors.Is(err, cart.ErrBadLineIndex) {
			return s.cartFault(ctx, err)
		}
		if err != nil {
			return err
		}
		if removed {
			return s.showProductsMenu(ctx)
		}
		return s.showProductDetails(ctx, idx)

	case data == "add":
		idx, err := cartLineIndex(ctx.Customer)
		if err != nil {
			return s.cartFault(ctx, err)
		}
		p, err := s.productByID(ctx.Customer.Cart[idx].ProductID)
		if err != nil {
			return s.cartFault(ctx, err)
		}
		err = s.transition(ctx, func(c *models.Customer) error {
			return cart.Increment(c.Cart, idx, p)
		})
		if errors.Is(err, cart.ErrQuantityLimit) {
			if err := ctx.Conv.Answer(s.text(ctx, "quantity_limit"), true); err != nil {
				return err
			}
			return s.showProductDetails(ctx, idx)
		}
		if errors.Is(err, cart.ErrBadLineIndex) {
			return s.cartFault(ctx, err)
		}
		if err != nil {
			return err
		}
		return s.showProductDetails(ctx, idx)

	case data == "edit_details":
		idx, err := cartLineIndex(ctx.Customer)
		if err != nil {
			return s.cartFault(ctx, err)
		}
		err = s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateProductAddOns
			return nil
		})
		if err != nil {
			return err
		}
		return s.showAddOns(ctx, idx)

	case strings.HasPrefix(data, "size_"):
		size, price, ok := parseSizeData(data)
		if !ok {
			return ctx.Conv.Answer("", false)
		}
		idx, err := cartLineIndex(ctx.Customer)
		if err != nil {
			return s.cartFault(ctx, err)
		}
		err = s.transition(ctx, func(c *models.Customer) error {
			return cart.SetSize(c.Cart, idx, models.SizeOption{Size: size, Price: price})
		})
		if errors.Is(err, cart.ErrBadLineIndex) {
			return s.cartFault(ctx, err)
		}
		if err != nil {
			return err
		}
		return s.showProductDetails(ctx, idx)
	}
	return ctx.Conv.Answer("", false)
}

func runProductAddOns(s *Service, ctx *Context) error {
	data := ctx.Update.Data
	switch {
	case data == "back":
		idx, err := cartLineIndex(ctx.Customer)
		if err != nil {
			return s.cartFault(ctx, err)
		}
		err = s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateProductDetails
			return nil
		})
		if err != nil {
			return err
		}
		return s.showProductDetails(ctx, idx)

	case data == "next":
		err := s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateExploreProducts
			c.StateDetails = models.StateDetailsNone
			return nil
		})
		if err != nil {
			return err
		}
		return s.showProductsMenu(ctx)

	case data == "do_not_reply":
		return ctx.Conv.Answer("", false)

	case strings.HasPrefix(data, "forItem_"):
		unit, err := strconv.Atoi(strings.TrimPrefix(data, "forItem_"))
		if err != nil {
			return ctx.Conv.Answer("", false)
		}
		idx, err := cartLineIndex(ctx.Customer)
		if err != nil {
			return s.cartFault(ctx, err)
		}
		err = s.transition(ctx, func(c *models.Customer) error {
			return cart.SelectUnit(c.Cart, idx, unit)
		})
		if errors.Is(err, cart.ErrBadLineIndex) || errors.Is(err, cart.ErrBadUnitIndex) {
			return s.cartFault(ctx, err)
		}
		if err != nil {
			return err
		}
		return s.showAddOns(ctx, idx)

	case strings.HasPrefix(data, "addon_"):
		parts := strings.SplitN(strings.TrimPrefix(data, "addon_"), "_", 2)
		if len(parts) != 2 {
			return ctx.Conv.Answer("", false)
		}
		kind, option := parts[0], parts[1]
		idx, err := cartLineIndex(ctx.Customer)
		if err != nil {
			return s.cartFault(ctx, err)
		}
		p, err := s.productByID(ctx.Customer.Cart[idx].ProductID)
		if err != nil {
			return s.cartFault(ctx, err)
		}
		err = s.transition(ctx, func(c *models.Customer) error {
			return cart.ToggleAddOn(c.Cart, idx, p, kind, option)
		})
		if errors.Is(err, cart.ErrUnknownAddOn) {
			return ctx.Conv.Answer(s.text(ctx, "addon_unavailable"), true)
		}
		if errors.Is(err, cart.ErrBadLineIndex) || errors.Is(err, cart.ErrBadUnitIndex) {
			return s.cartFault(ctx, err)
		}
		if err != nil {
			return err
		}
		return s.showAddOns(ctx, idx)
	}
	return ctx.Conv.Answer("", false)
}

// parseSizeData splits "size_<name>_<price>"
func parseSizeData(data string) (string, float64, bool) {
	rest := strings.TrimPrefix(data, "size_")
	i := strings.LastIndex(rest, "_")
	if i <= 0 {
		return "", 0, false
	}
	price, err := strconv.ParseFloat(rest[i+1:], 64)
	if err != nil {
		return "", 0, false
	}
	return rest[:i], price, true
}
