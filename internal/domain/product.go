package domain

import (
	"sort"
	"strconv"
	"strings"
)

// Product is a purchasable offering with one or more price variants.
type Product struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Image       string            `json:"image,omitempty"`
	Active      bool              `json:"active"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Prices      []Price           `json:"prices"`
}

// Price is a specific amount/currency/interval combination under a product.
type Price struct {
	ID              string `json:"id"`
	ProductID       string `json:"productId"`
	Currency        string `json:"currency"`
	UnitAmount      int64  `json:"unitAmount"`
	Interval        string `json:"interval,omitempty"`
	IntervalCount   int    `json:"intervalCount,omitempty"`
	TrialPeriodDays int    `json:"trialPeriodDays,omitempty"`
	Active          bool   `json:"active"`
}

// Recurring reports whether the price bills on an interval.
func (p Price) Recurring() bool {
	return strings.TrimSpace(p.Interval) != ""
}

// SortIndex returns the numeric ordering key stored under metadata "index".
func (p Product) SortIndex() (int, bool) {
	raw, ok := p.Metadata["index"]
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return idx, true
}

// Displayable keeps active products that still have at least one active price.
// Inactive prices are dropped and the remaining ones ordered by amount ascending.
// Product order is preserved.
func Displayable(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if !p.Active {
			continue
		}
		prices := make([]Price, 0, len(p.Prices))
		for _, price := range p.Prices {
			if price.Active {
				prices = append(prices, price)
			}
		}
		if len(prices) == 0 {
			continue
		}
		sortPrices(prices)
		p.Prices = prices
		out = append(out, p)
	}
	return out
}

// SortCatalog orders products by their metadata index (missing last, then name)
// and the prices of every product by amount ascending.
func SortCatalog(products []Product) {
	sort.SliceStable(products, func(i, j int) bool {
		a, aok := products[i].SortIndex()
		b, bok := products[j].SortIndex()
		switch {
		case aok && bok && a != b:
			return a < b
		case aok != bok:
			return aok
		}
		return products[i].Name < products[j].Name
	})
	for i := range products {
		sortPrices(products[i].Prices)
	}
}

func sortPrices(prices []Price) {
	sort.SliceStable(prices, func(i, j int) bool {
		return prices[i].UnitAmount < prices[j].UnitAmount
	})
}
