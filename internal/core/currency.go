package core

import "strings"

// BaseCurrency is the currency every rate table is expressed against.
const BaseCurrency = "USD"

// DefaultDisplayCurrency is used when the caller does not pick one.
const DefaultDisplayCurrency = "INR"

// CurrencyInfo describes a supported currency for display.
type CurrencyInfo struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

var supportedCurrencies = []CurrencyInfo{
	{Code: "INR", Name: "Indian Rupee", Symbol: "₹"},
	{Code: "USD", Name: "US Dollar", Symbol: "$"},
	{Code: "EUR", Name: "Euro", Symbol: "€"},
	{Code: "GBP", Name: "British Pound", Symbol: "£"},
	{Code: "JPY", Name: "Japanese Yen", Symbol: "¥"},
	{Code: "CAD", Name: "Canadian Dollar", Symbol: "C$"},
	{Code: "AUD", Name: "Australian Dollar", Symbol: "A$"},
	{Code: "CHF", Name: "Swiss Franc", Symbol: "CHF"},
	{Code: "CNY", Name: "Chinese Yuan", Symbol: "¥"},
	{Code: "SGD", Name: "Singapore Dollar", Symbol: "S$"},
}

// SupportedCurrencies returns the canonical currency allow-list.
func SupportedCurrencies() []CurrencyInfo {
	return append([]CurrencyInfo(nil), supportedCurrencies...)
}

// IsSupportedCurrency reports whether code is in the allow-list.
func IsSupportedCurrency(code string) bool {
	_, ok := LookupCurrency(code)
	return ok
}

// LookupCurrency finds the display info for code.
func LookupCurrency(code string) (CurrencyInfo, bool) {
	for _, c := range supportedCurrencies {
		if c.Code == code {
			return c, true
		}
	}
	return CurrencyInfo{}, false
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
