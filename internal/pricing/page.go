package pricing

// Page is the render model of the pricing view.
type Page struct {
	Loading  bool
	SignedIn bool
	Products []ProductCard
}

// ProductCard is one product with its checkout form.
type ProductCard struct {
	ID             string
	Name           string
	Description    string
	Image          string
	Options        []PriceOption
	SubmitDisabled bool
}

// PriceOption is a selectable price in a product form.
type PriceOption struct {
	ID    string
	Label string
}

// Page derives the render model. While loading only the placeholder is set.
// The submit control is disabled without a user or while loading.
func (v *View) Page(auth Auth, locale string) Page {
	v.mu.Lock()
	defer v.mu.Unlock()

	page := Page{Loading: v.loading, SignedIn: auth.User != nil}
	if v.loading {
		return page
	}

	disabled := auth.User == nil || v.loading
	page.Products = make([]ProductCard, 0, len(v.products))
	for _, p := range v.products {
		card := ProductCard{
			ID:             p.ID,
			Name:           p.Name,
			Description:    p.Description,
			Image:          p.Image,
			Options:        make([]PriceOption, 0, len(p.Prices)),
			SubmitDisabled: disabled,
		}
		for _, price := range p.Prices {
			card.Options = append(card.Options, PriceOption{
				ID:    price.ID,
				Label: FormatPrice(price.UnitAmount, price.Currency, price.Interval, price.IntervalCount, locale),
			})
		}
		page.Products = append(page.Products, card)
	}
	return page
}
