package bitmart

import (
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// SubscribeRequest is a single outbound subscription frame. One frame is sent
// per subscription; there is no batching. The same struct covers both frame
// shapes the exchange accepts: the per-channel form (subscribe/symbol/...)
// and the combined-op form used for user orders (op/args/token).
type SubscribeRequest struct {
	Subscribe string `json:"subscribe,omitempty"`
	Symbol    string `json:"symbol,omitempty"`

	// Precision is nil when the symbol is absent from the precision map, in
	// which case the field is omitted from the frame entirely.
	Precision *int   `json:"precision,omitempty"`
	Locale    string `json:"local,omitempty"`
	Token     string `json:"token,omitempty"`

	Op   string   `json:"op,omitempty"`
	Args []string `json:"args,omitempty"`
}

// Envelope is the outer object wrapping every inbound message.
type Envelope struct {
	Subscribe string          `json:"subscribe"`
	Symbol    string          `json:"symbol"`
	Data      json.RawMessage `json:"data"`

	// Code is nil when the field is absent from the message. The price
	// channel treats an absent code as success; trade and depth require an
	// explicit zero.
	Code           *StatusCode `json:"code"`
	FirstSubscribe bool        `json:"firstSubscribe"`
}

// ok reports whether the envelope's code equals success. When the code is
// absent, absentOK decides the outcome (true for the price channel only).
func (e *Envelope) ok(absentOK bool) bool {
	if e.Code == nil {
		return absentOK
	}
	return *e.Code == StatusSuccess
}

// Event is a shaped channel message handed to subscriber callbacks. Pair is
// the display name resolved from the symbol map, falling back to the raw
// exchange symbol for unmapped entries.
type Event struct {
	Pair           string
	FirstSubscribe bool
	Data           json.RawMessage
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// EventHandler receives shaped channel messages in transport arrival order.
type EventHandler func(Event)

// EnvelopeHandler receives raw message envelopes. Used by the notify channel,
// which passes every inbound message through unfiltered.
type EnvelopeHandler func(Envelope)

// Typed payload views. The exchange sends numeric fields as JSON strings;
// decimal keeps them exact. Callers decode Event.Data into these as needed.

// PriceTick is the payload of a price channel message.
type PriceTick struct {
	OpenPrice    decimal.Decimal `json:"open_price"`
	HighestPrice decimal.Decimal `json:"highest_price"`
	LowestPrice  decimal.Decimal `json:"lowest_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Volume       decimal.Decimal `json:"volume"`
	Fluctuation  decimal.Decimal `json:"fluctuation"`
}

// Trade is a single executed trade within a trade channel message.
type Trade struct {
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Side      string          `json:"side"`
	OrderTime int64           `json:"order_time"`
}

// TradeFeed is the payload of a trade channel message.
type TradeFeed struct {
	Trades []Trade `json:"trades"`
}

// DepthLevel is one price level of an order book.
type DepthLevel struct {
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// Depth is the payload of a depth channel message.
type Depth struct {
	Buys  []DepthLevel `json:"buys"`
	Sells []DepthLevel `json:"sells"`
}

// UserOrder is the payload of a user-order update. TradeMappingName is
// normalized from underscore to slash form before delivery.
type UserOrder struct {
	TradeMappingName string          `json:"trademapping_name"`
	EntrustID        int64           `json:"entrust_id"`
	Side             string          `json:"side"`
	Price            decimal.Decimal `json:"price"`
	Amount           decimal.Decimal `json:"amount"`
	Status           int             `json:"status"`
}
