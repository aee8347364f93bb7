// Package currency maps ISO currency codes to display symbols.
package currency

import "strings"

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "¥",
	"INR": "₹",
	"AUD": "A$",
	"CAD": "C$",
	"CHF": "Fr",
	"SEK": "kr",
	"NZD": "NZ$",
}

// Symbol returns the display symbol for a currency code. Unknown codes
// return the code itself so rendered documents stay legible.
func Symbol(code string) string {
	if s, ok := symbols[strings.ToUpper(code)]; ok {
		return s
	}
	return code
}
