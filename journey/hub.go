package journey

import "coffee-order-bot/models"

func validateHub(s *Service, ctx *Context) (bool, error) {
	if ctx.Update.Kind != EventCallback {
		if err := ctx.Conv.Reply(s.text(ctx, "select_one_option"), nil); err != nil {
			return false, err
		}
		return false, s.showHub(ctx, false)
	}
	return true, nil
}

// validateCallbackOnly covers every screen a customer can only leave by
// tapping a button. Typed messages get a nudge and the screen stays.
func validateCallbackOnly(s *Service, ctx *Context) (bool, error) {
	if ctx.Update.Kind != EventCallback {
		return false, ctx.Conv.Reply(s.text(ctx, "select_one_option"), nil)
	}
	return true, nil
}

func runHub(s *Service, ctx *Context) error {
	switch ctx.Update.Data {
	case "explore_products":
		err := s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateExploreProducts
			return nil
		})
		if err != nil {
			return err
		}
		return s.showProductsMenu(ctx)
	case "support":
		err := s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateSupport
			return nil
		})
		if err != nil {
			return err
		}
		return s.showSupport(ctx)
	case "settings":
		err := s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateSettings
			return nil
		})
		if err != nil {
			return err
		}
		return s.showSettings(ctx)
	}
	return ctx.Conv.Answer("", false)
}

func runSupport(s *Service, ctx *Context) error {
	if ctx.Update.Data == "back" {
		err := s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateHub
			return nil
		})
		if err != nil {
			return err
		}
		return s.showHub(ctx, true)
	}
	return ctx.Conv.Answer("", false)
}

func runSettings(s *Service, ctx *Context) error {
	switch ctx.Update.Data {
	case "change_language":
		err := s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateChangingLanguage
			return nil
		})
		if err != nil {
			return err
		}
		return s.showLanguagePrompt(ctx, true)
	case "back":
		err := s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateHub
			return nil
		})
		if err != nil {
			return err
		}
		return s.showHub(ctx, true)
	}
	return ctx.Conv.Answer("", false)
}

func runChangingLanguage(s *Service, ctx *Context) error {
	if ctx.Update.Data == "back" {
		err := s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateSettings
			return nil
		})
		if err != nil {
			return err
		}
		return s.showSettings(ctx)
	}
	lang, ok := languageFromData(ctx.Update.Data)
	if !ok {
		return ctx.Conv.Answer("", false)
	}
	err := s.transition(ctx, func(c *models.Customer) error {
		c.PreferredLanguage = lang
		c.State = models.StateSettings
		return nil
	})
	if err != nil {
		return err
	}
	return s.showSettings(ctx)
}
