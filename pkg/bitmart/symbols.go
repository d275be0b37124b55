package bitmart

import "strings"

// PairToSymbol converts a display trading pair ("BTC/USDT") to the
// exchange-native symbol ("BTC_USDT"). Inputs without a slash are returned
// unchanged.
func PairToSymbol(pair string) string {
	return strings.ReplaceAll(pair, "/", "_")
}

// SymbolToPair converts an exchange-native symbol ("BTC_USDT") back to the
// display form ("BTC/USDT"). Only the first underscore is replaced, matching
// how user-order payloads are normalized.
func SymbolToPair(symbol string) string {
	return strings.Replace(symbol, "_", "/", 1)
}
