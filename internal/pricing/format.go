package pricing

import (
	"fmt"
	"strings"

	"github.com/bojanz/currency"
	"golang.org/x/text/language"
)

// DefaultLocale is used when the client states no usable preference.
const DefaultLocale = "en-US"

var (
	supportedLocales = []language.Tag{
		language.AmericanEnglish,
		language.BritishEnglish,
		language.German,
		language.French,
		language.Spanish,
		language.Japanese,
	}
	localeMatcher = language.NewMatcher(supportedLocales)
)

// FormatPrice renders a minor-unit amount as currency text followed by its
// billing interval, e.g. "$19.99 per month" or "$50.00 per 3 months".
func FormatPrice(amount int64, currencyCode, interval string, intervalCount int, locale string) string {
	text := FormatAmount(amount, currencyCode, locale)
	interval = strings.TrimSpace(interval)
	switch {
	case interval == "":
		return text
	case intervalCount > 1:
		return fmt.Sprintf("%s per %d %ss", text, intervalCount, interval)
	default:
		return text + " per " + interval
	}
}

// FormatAmount renders a minor-unit amount with the locale's currency pattern.
func FormatAmount(amount int64, currencyCode, locale string) string {
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	amt, err := currency.NewAmountFromInt64(amount, code)
	if err != nil {
		return fmt.Sprintf("%s %d.%02d", code, amount/100, abs(amount%100))
	}
	if locale == "" {
		locale = DefaultLocale
	}
	return currency.NewFormatter(currency.NewLocale(locale)).Format(amt)
}

// NegotiateLocale picks the best supported locale for an Accept-Language header.
func NegotiateLocale(acceptLanguage, fallback string) string {
	if fallback == "" {
		fallback = DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	return supportedLocales[idx].String()
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
