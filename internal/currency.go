package internal

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultCurrency is used when neither the config nor a flag names one
const DefaultCurrency = "INR"

// Currency represents a currency with its formatting rules
type Currency struct {
	Code    string // "INR", "USD", "EUR"
	symbol  string
	printer *message.Printer
}

// symbolOverrides provides custom symbols where x/text defaults aren't ideal
var symbolOverrides = map[string]string{
	"SEK": "kr",
	"NOK": "kr",
	"DKK": "kr",
}

// localeForCurrency picks a "home" locale per currency for digit grouping
var localeForCurrency = map[string]language.Tag{
	"INR": language.MustParse("en-IN"),
	"USD": language.AmericanEnglish,
	"EUR": language.German,
	"GBP": language.BritishEnglish,
	"SEK": language.Swedish,
	"NOK": language.Norwegian,
	"DKK": language.Danish,
	"CHF": language.German,
	"JPY": language.Japanese,
	"CAD": language.CanadianFrench,
	"AUD": language.MustParse("en-AU"),
	"SGD": language.MustParse("en-SG"),
	"AED": language.MustParse("en-AE"),
	"ZAR": language.MustParse("en-ZA"),
}

// prefixCurrencies place the symbol before the amount.
// x/text does not expose CLDR symbol placement, so this is kept by hand.
var prefixCurrencies = map[string]bool{
	"INR": true,
	"USD": true,
	"GBP": true,
	"JPY": true,
	"AUD": true,
	"SGD": true,
	"ZAR": true,
}

// GetCurrency returns the Currency for a given code. Unknown codes format
// with English grouping and use the code itself as the symbol.
func GetCurrency(code string) Currency {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCurrency
	}

	tag, ok := localeForCurrency[code]
	if !ok {
		tag = language.English
	}
	c := Currency{
		Code:    code,
		printer: message.NewPrinter(tag),
	}

	unit, err := currency.ParseISO(code)
	switch {
	case err != nil:
		c.symbol = code
	case symbolOverrides[code] != "":
		c.symbol = symbolOverrides[code]
	default:
		c.symbol = c.printer.Sprint(currency.NarrowSymbol(unit))
	}
	return c
}

// Symbol returns the symbol printed next to amounts
func (c Currency) Symbol() string {
	return c.symbol
}

func (c Currency) withSymbol(formatted string) string {
	if prefixCurrencies[c.Code] {
		return c.symbol + formatted
	}
	return formatted + " " + c.symbol
}

// Format formats a whole amount with the currency symbol
func (c Currency) Format(amount float64) string {
	return c.FormatFraction(amount, 0)
}

// FormatFraction formats an amount with up to maxDigits fraction digits
func (c Currency) FormatFraction(amount float64, maxDigits int) string {
	formatted := c.printer.Sprint(number.Decimal(amount, number.MaxFractionDigits(maxDigits)))
	return c.withSymbol(formatted)
}

// FormatDecimal formats a decimal amount with up to two fraction digits
func (c Currency) FormatDecimal(amount decimal.Decimal) string {
	return c.FormatFraction(amount.InexactFloat64(), 2)
}
