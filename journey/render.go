package journey

import (
	"fmt"
	"time"

	"coffee-order-bot/models"
)

// Screens are rendered from localization keys only; the transport owns markup.

func (s *Service) showHub(ctx *Context, edit bool) error {
	text := s.text(ctx, "hub_welcome")
	keyboard := [][]Button{
		{{Text: s.text(ctx, "btn_explore_products"), Data: "explore_products"}},
		{
			{Text: s.text(ctx, "btn_support"), Data: "support"},
			{Text: s.text(ctx, "btn_settings"), Data: "settings"},
		},
	}
	if edit {
		return ctx.Conv.Edit(text, keyboard)
	}
	return ctx.Conv.Reply(text, keyboard)
}

func (s *Service) showTermsPrompt(ctx *Context) error {
	keyboard := [][]Button{
		{{Text: s.text(ctx, "btn_terms"), URL: "https://example.com/terms"}},
		{{Text: s.text(ctx, "btn_agree"), Data: "accept_terms"}},
	}
	return ctx.Conv.Reply(s.text(ctx, "terms_prompt"), keyboard)
}

func languageKeyboard() [][]Button {
	return [][]Button{
		{{Text: "🇬🇧 English", Data: "lang_en"}},
		{{Text: "🇷🇺 Русский", Data: "lang_ru"}},
		{{Text: "🇺🇿 O'zbekcha", Data: "lang_uz"}},
	}
}

func (s *Service) showLanguagePrompt(ctx *Context, edit bool) error {
	text := s.text(ctx, "choose_language_prompt")
	if edit {
		return ctx.Conv.Edit(text, languageKeyboard())
	}
	return ctx.Conv.Reply(text, languageKeyboard())
}

func (s *Service) showPhonePrompt(ctx *Context) error {
	keyboard := [][]Button{
		{{Text: s.text(ctx, "btn_share_contact"), RequestContact: true}},
	}
	return ctx.Conv.Reply(s.text(ctx, "phone_prompt"), keyboard)
}

func (s *Service) showProductsMenu(ctx *Context) error {
	products, err := s.activeProducts()
	if err != nil {
		return err
	}
	var keyboard [][]Button
	for _, p := range products {
		keyboard = append(keyboard, []Button{{
			Text: s.text(ctx, p.TitleKey),
			Data: fmt.Sprintf("product_%d", p.ID),
		}})
	}
	bottom := []Button{{Text: s.text(ctx, "btn_back"), Data: "back"}}
	if len(ctx.Customer.Cart) > 0 {
		bottom = append(bottom, Button{Text: s.text(ctx, "btn_cart"), Data: "cart"})
	}
	keyboard = append(keyboard, bottom)
	return ctx.Conv.Edit(s.text(ctx, "products_menu"), keyboard)
}

func (s *Service) activeProducts() ([]models.Product, error) {
	var products []models.Product
	err := s.db.Where("status = ?", models.ProductActive).Order("id ASC").Find(&products).Error
	return products, err
}

func (s *Service) showProductDetails(ctx *Context, idx int) error {
	line := ctx.Customer.Cart[idx]
	p, err := s.productByID(line.ProductID)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("%s\n\n%s: %.0f", s.text(ctx, p.TitleKey), s.text(ctx, "label_total"), line.TotalPrice)

	var sizes []Button
	for _, opt := range p.SizeOptions {
		label := opt.Size
		if opt.Size == line.SizeOption.Size {
			label = "• " + label + " •"
		}
		sizes = append(sizes, Button{
			Text: label,
			Data: fmt.Sprintf("size_%s_%v", opt.Size, opt.Price),
		})
	}
	keyboard := [][]Button{
		sizes,
		{
			{Text: "−", Data: "reduce"},
			{Text: fmt.Sprintf("%d", line.Quantity), Data: "do_not_reply"},
			{Text: "+", Data: "add"},
		},
		{{Text: s.text(ctx, "btn_edit_details"), Data: "edit_details"}},
		{
			{Text: s.text(ctx, "btn_back"), Data: "back"},
			{Text: s.text(ctx, "btn_cart"), Data: "cart"},
		},
	}
	return ctx.Conv.Edit(text, keyboard)
}

func (s *Service) showAddOns(ctx *Context, idx int) error {
	line := ctx.Customer.Cart[idx]
	p, err := s.productByID(line.ProductID)
	if err != nil {
		return err
	}

	// One row to pick the unit being edited, then one button per possible
	// add-on with the selected ones marked.
	var units []Button
	for i := 0; i < line.Quantity; i++ {
		label := fmt.Sprintf("%d", i+1)
		if i == line.CurrentItem {
			label = "• " + label + " •"
		}
		units = append(units, Button{Text: label, Data: fmt.Sprintf("forItem_%d", i)})
	}
	keyboard := [][]Button{units}

	selected := map[string]bool{}
	for _, a := range line.AddOns {
		if a.ForItem == line.CurrentItem {
			selected[a.Kind+"_"+a.Option] = true
		}
	}
	for _, choice := range p.PossibleAddOns {
		label := s.text(ctx, "addon_"+choice.Kind+"_"+choice.Option)
		if selected[choice.Kind+"_"+choice.Option] {
			label = "✅ " + label
		}
		keyboard = append(keyboard, []Button{{
			Text: label,
			Data: fmt.Sprintf("addon_%s_%s", choice.Kind, choice.Option),
		}})
	}
	keyboard = append(keyboard, []Button{
		{Text: s.text(ctx, "btn_back"), Data: "back"},
		{Text: s.text(ctx, "btn_next"), Data: "next"},
	})
	return ctx.Conv.Edit(s.text(ctx, "addons_prompt"), keyboard)
}

func (s *Service) productByID(id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) showCart(ctx *Context) error {
	text := s.text(ctx, "cart_header") + "\n"
	var keyboard [][]Button
	for i, line := range ctx.Customer.Cart {
		p, err := s.productByID(line.ProductID)
		title := fmt.Sprintf("#%d", line.ProductID)
		if err == nil {
			title = s.text(ctx, p.TitleKey)
		}
		text += fmt.Sprintf("\n• %s (%s) x%d — %.0f", title, line.SizeOption.Size, line.Quantity, line.TotalPrice)
		keyboard = append(keyboard, []Button{{
			Text: fmt.Sprintf("🗑 %s", title),
			Data: fmt.Sprintf("remove_%d", i),
		}})
	}
	text += fmt.Sprintf("\n\n%s: %.0f", s.text(ctx, "label_total"), cartTotal(ctx.Customer.Cart))
	keyboard = append(keyboard,
		[]Button{{Text: s.text(ctx, "btn_remove_all"), Data: "remove_all"}},
		[]Button{
			{Text: s.text(ctx, "btn_back"), Data: "back"},
			{Text: s.text(ctx, "btn_select_pickup_time"), Data: "select_pickup_time"},
		},
	)
	return ctx.Conv.Edit(text, keyboard)
}

func cartTotal(lines []models.CartLine) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.TotalPrice
	}
	return sum
}

// pickupTimeSlots offers ten slots at five-minute steps, the first fifteen
// minutes from now.
func pickupTimeSlots(now time.Time) []string {
	first := now.Add(15 * time.Minute).Round(time.Minute)
	slots := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		slots = append(slots, first.Add(time.Duration(i)*5*time.Minute).Format("15:04"))
	}
	return slots
}

func (s *Service) showPickupTimes(ctx *Context) error {
	slots := pickupTimeSlots(time.Now())
	var keyboard [][]Button
	for i := 0; i < len(slots); i += 2 {
		row := []Button{{Text: slots[i], Data: "pickup_" + slots[i]}}
		if i+1 < len(slots) {
			row = append(row, Button{Text: slots[i+1], Data: "pickup_" + slots[i+1]})
		}
		keyboard = append(keyboard, row)
	}
	keyboard = append(keyboard,
		[]Button{{Text: s.text(ctx, "btn_refresh_times"), Data: "refresh_times"}},
		[]Button{{Text: s.text(ctx, "btn_back"), Data: "back"}},
	)
	return ctx.Conv.Edit(s.text(ctx, "pickup_time_prompt"), keyboard)
}

func (s *Service) showPayment(ctx *Context) error {
	text := fmt.Sprintf("%s\n\n%s: %.0f\n%s: %s",
		s.text(ctx, "payment_instructions"),
		s.text(ctx, "label_total"), cartTotal(ctx.Customer.Cart),
		s.text(ctx, "label_pickup_time"), ctx.Customer.StateDetails)
	keyboard := [][]Button{
		{{Text: s.text(ctx, "btn_paid"), Data: "pay"}},
		{{Text: s.text(ctx, "btn_back"), Data: "back"}},
	}
	return ctx.Conv.Edit(text, keyboard)
}

func (s *Service) showWaitScreen(ctx *Context, orderNumber string) error {
	text := fmt.Sprintf("%s\n\n%s: %s",
		s.text(ctx, "order_accepted"),
		s.text(ctx, "label_order_number"), orderNumber)
	keyboard := [][]Button{
		{{Text: s.text(ctx, "btn_done"), Data: "done"}},
	}
	return ctx.Conv.Edit(text, keyboard)
}

func (s *Service) showSupport(ctx *Context) error {
	keyboard := [][]Button{{{Text: s.text(ctx, "btn_back"), Data: "back"}}}
	return ctx.Conv.Edit(s.text(ctx, "support_info"), keyboard)
}

func (s *Service) showSettings(ctx *Context) error {
	keyboard := [][]Button{
		{{Text: s.text(ctx, "btn_change_language"), Data: "change_language"}},
		{{Text: s.text(ctx, "btn_back"), Data: "back"}},
	}
	return ctx.Conv.Edit(s.text(ctx, "settings_menu"), keyboard)
}
