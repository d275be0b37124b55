package bitmart

import "fmt"

// Channel identifiers as they appear in the wire protocol's subscribe field.
const (
	ChannelPrice     = "price"
	ChannelTrade     = "trade"
	ChannelOrderBook = "depth"
	ChannelNotify    = "notify"
	channelPing      = "ping"
)

// localeEnUS is the fixed locale sent with every market subscription.
const localeEnUS = "en_US"

// StatusCode is the numeric status carried in inbound message envelopes.
type StatusCode int

// Known status codes returned by the exchange.
const (
	StatusSuccess          StatusCode = 0
	StatusError            StatusCode = -1
	StatusParameterMissing StatusCode = -8101
	StatusParameterError   StatusCode = -8102
	StatusTopicError       StatusCode = -8103
)

var statusText = map[StatusCode]string{
	StatusSuccess:          "Success",
	StatusError:            "Error",
	StatusParameterMissing: "Parameter missing",
	StatusParameterError:   "Parameter error",
	StatusTopicError:       "Topic error",
}

// String returns the exchange's human-readable description for the code.
// Unknown codes are reported explicitly rather than treated as success.
func (c StatusCode) String() string {
	if text, ok := statusText[c]; ok {
		return text
	}
	return fmt.Sprintf("unknown status code %d", int(c))
}

// commonCurrencies maps legacy or exchange-specific currency codes to their
// canonical names.
var commonCurrencies = map[string]string{
	"XBT":    "BTC",
	"BCC":    "BCH",
	"DRK":    "DASH",
	"BCHABC": "BCH",
	"BCHSV":  "BSV",
}

// NormalizeCurrency maps a currency code to its canonical name, returning the
// input unchanged when no alias exists.
func NormalizeCurrency(code string) string {
	if canonical, ok := commonCurrencies[code]; ok {
		return canonical
	}
	return code
}
