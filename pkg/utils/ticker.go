// Package utils provides shared helpers for symbol normalization and
// Indian-market time handling.
package utils

import (
	"strings"
)

// Common aliases for NSE symbols as users type them. Values are the canonical
// symbols the source site expects in its company URLs.
var symbolAliases = map[string]string{
	"RIL":           "RELIANCE",
	"INFOSYS":       "INFY",
	"HDFC BANK":     "HDFCBANK",
	"ICICI BANK":    "ICICIBANK",
	"SBI":           "SBIN",
	"STATE BANK":    "SBIN",
	"AIRTEL":        "BHARTIARTL",
	"L&T":           "LT",
	"TATA MOTORS":   "TATAMOTORS",
	"TATA STEEL":    "TATASTEEL",
	"HCL TECH":      "HCLTECH",
	"KOTAK":         "KOTAKBANK",
	"AXIS BANK":     "AXISBANK",
	"SUN PHARMA":    "SUNPHARMA",
	"ASIAN PAINTS":  "ASIANPAINT",
	"NESTLE":        "NESTLEIND",
	"ULTRATECH":     "ULTRACEMCO",
	"TECH MAHINDRA": "TECHM",
	"MAHINDRA":      "M&M",
	"HUL":           "HINDUNILVR",
	"COAL INDIA":    "COALINDIA",
	"BAJAJ FINANCE": "BAJFINANCE",
}

// NormalizeSymbol normalizes a user-input symbol to the canonical NSE form:
// trimmed, uppercased, "$" prefix and Yahoo-style ".NS"/".BO" suffixes
// removed, known aliases mapped.
func NormalizeSymbol(symbol string) string {
	s := strings.TrimSpace(strings.ToUpper(symbol))
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, ".NS")
	s = strings.TrimSuffix(s, ".BO")

	if canonical, ok := symbolAliases[s]; ok {
		return canonical
	}
	return s
}
