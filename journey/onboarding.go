package journey

import (
	"strings"

	"coffee-order-bot/localization"
	"coffee-order-bot/models"
)

// Onboarding runs strictly forward: terms, language, phone, name, hub.

func validateFreshStart(s *Service, ctx *Context) (bool, error) {
	// Any first contact starts the journey
	return true, nil
}

func runFreshStart(s *Service, ctx *Context) error {
	err := s.transition(ctx, func(c *models.Customer) error {
		c.State = models.StateAcceptingTerms
		return nil
	})
	if err != nil {
		return err
	}
	if err := ctx.Conv.Reply(s.text(ctx, "welcome"), nil); err != nil {
		return err
	}
	return s.showTermsPrompt(ctx)
}

func validateAcceptTerms(s *Service, ctx *Context) (bool, error) {
	if ctx.Update.Kind != EventCallback {
		if err := ctx.Conv.Reply(s.text(ctx, "must_accept_terms"), nil); err != nil {
			return false, err
		}
		return false, s.showTermsPrompt(ctx)
	}
	return true, nil
}

func runAcceptTerms(s *Service, ctx *Context) error {
	if ctx.Update.Data != "accept_terms" {
		return ctx.Conv.Answer("", false)
	}
	err := s.transition(ctx, func(c *models.Customer) error {
		c.AgreedToTerms = true
		c.State = models.StateChoosingLanguage
		return nil
	})
	if err != nil {
		return err
	}
	return s.showLanguagePrompt(ctx, true)
}

func validateChooseLanguage(s *Service, ctx *Context) (bool, error) {
	if ctx.Update.Kind != EventCallback {
		return false, s.showLanguagePrompt(ctx, false)
	}
	return true, nil
}

func runChooseLanguage(s *Service, ctx *Context) error {
	lang, ok := languageFromData(ctx.Update.Data)
	if !ok {
		return ctx.Conv.Answer(s.text(ctx, "select_one_option"), false)
	}
	err := s.transition(ctx, func(c *models.Customer) error {
		c.PreferredLanguage = lang
		c.State = models.StateGivingPhone
		return nil
	})
	if err != nil {
		return err
	}
	return s.showPhonePrompt(ctx)
}

func validateGivePhone(s *Service, ctx *Context) (bool, error) {
	upd := ctx.Update
	if upd.Kind != EventMessage || (upd.Contact == "" && !strings.HasPrefix(upd.Text, "+998")) {
		return false, s.showPhonePrompt(ctx)
	}
	return true, nil
}

func runGivePhone(s *Service, ctx *Context) error {
	phone := ctx.Update.Contact
	if phone == "" {
		phone = ctx.Update.Text
	}
	err := s.transition(ctx, func(c *models.Customer) error {
		c.PhoneNumber = phone
		c.State = models.StateGivingFullName
		return nil
	})
	if err != nil {
		return err
	}
	return ctx.Conv.Reply(s.text(ctx, "full_name_prompt"), nil)
}

func validateGiveFullName(s *Service, ctx *Context) (bool, error) {
	name := strings.TrimSpace(ctx.Update.Text)
	if ctx.Update.Kind != EventMessage || len(name) < 2 || len(name) > 100 {
		return false, ctx.Conv.Reply(s.text(ctx, "full_name_prompt"), nil)
	}
	return true, nil
}

func runGiveFullName(s *Service, ctx *Context) error {
	name := strings.TrimSpace(ctx.Update.Text)
	err := s.transition(ctx, func(c *models.Customer) error {
		c.FullName = name
		c.State = models.StateHub
		c.StateDetails = models.StateDetailsNone
		return nil
	})
	if err != nil {
		return err
	}
	return s.showHub(ctx, false)
}

func languageFromData(data string) (string, bool) {
	lang, found := strings.CutPrefix(data, "lang_")
	if !found || !localization.IsSupported(lang) {
		return "", false
	}
	return lang, true
}
