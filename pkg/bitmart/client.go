// Package bitmart implements a client for BitMart's realtime market-data and
// order-update feed. It manages one compressed WebSocket connection per
// client, translates caller-facing trading pairs ("BTC/USDT") to the
// exchange's wire symbols ("BTC_USDT"), and hands decoded channel messages to
// caller-supplied callbacks.
package bitmart

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/veiloq/bitmart-connector/pkg/logging"
	"github.com/veiloq/bitmart-connector/pkg/ratelimit"
	"github.com/veiloq/bitmart-connector/pkg/rest"
)

const (
	defaultWSURL            = "wss://ws-manager-compress.bitmart.com/"
	defaultMappingsEndpoint = "https://www.bitmart.com/api/market_trade_mappings_front"
	defaultBaseURL          = "https://openapi.bitmart.com/v2"
)

// Options configures a Client. Endpoint overrides exist primarily for tests.
type Options struct {
	// Credentials for authenticated channels (notify, user orders).
	// Optional for public market-data channels.
	APIKey    string
	APISecret string
	APIName   string

	// CorrelationID tags every log line emitted by this client instance.
	// A random UUID is generated when empty.
	CorrelationID string

	WSURL              string
	MappingsEndpoint   string
	PrecisionsEndpoint string
	AuthEndpoint       string

	HTTPTimeout          time.Duration
	MaxRequestsPerSecond int

	// HeartbeatInterval is the outbound ping cadence. The exchange expects
	// a ping every 5 seconds; override only in tests.
	HeartbeatInterval time.Duration

	// ReconnectPolicy governs reconnection after transport errors. The
	// default retries immediately with no backoff and no limit.
	ReconnectPolicy ReconnectPolicy

	Logger logging.Logger
}

// NewOptions returns options with production defaults.
func NewOptions() *Options {
	return &Options{
		WSURL:                defaultWSURL,
		MappingsEndpoint:     defaultMappingsEndpoint,
		PrecisionsEndpoint:   defaultBaseURL + "/symbols_details",
		AuthEndpoint:         defaultBaseURL + "/authentication",
		HTTPTimeout:          15 * time.Second,
		MaxRequestsPerSecond: 10,
		HeartbeatInterval:    5 * time.Second,
	}
}

// Client is a feed client for one exchange connection. Each instance owns its
// own connection, metadata caches, and access token; instances are
// independent and may coexist in one process.
type Client struct {
	logger  logging.Logger
	session *session
	meta    *metadata
	auth    *authenticator
}

// NewClient creates a feed client from the given options. Nil options get
// production defaults.
func NewClient(opts *Options) *Client {
	if opts == nil {
		opts = NewOptions()
	}

	correlationID := opts.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger()
	}
	logger = logger.WithFields(
		logging.String("exchange", "BITMART"),
		logging.String("correlation_id", correlationID),
	)

	wsURL := opts.WSURL
	if wsURL == "" {
		wsURL = defaultWSURL
	}
	mappings := opts.MappingsEndpoint
	if mappings == "" {
		mappings = defaultMappingsEndpoint
	}
	precisions := opts.PrecisionsEndpoint
	if precisions == "" {
		precisions = defaultBaseURL + "/symbols_details"
	}
	authEndpoint := opts.AuthEndpoint
	if authEndpoint == "" {
		authEndpoint = defaultBaseURL + "/authentication"
	}

	restConfig := rest.DefaultConfig()
	restConfig.Logger = logger
	if opts.HTTPTimeout > 0 {
		restConfig.Timeout = opts.HTTPTimeout
	}
	if opts.MaxRequestsPerSecond > 0 {
		restConfig.RateLimit = ratelimit.Rate{
			Limit:    opts.MaxRequestsPerSecond,
			Interval: time.Second,
		}
	}
	httpClient := rest.NewClient(restConfig)

	meta := newMetadata(httpClient, mappings, precisions)

	return &Client{
		logger:  logger,
		session: newSession(wsURL, meta, opts.ReconnectPolicy, opts.HeartbeatInterval, logger),
		meta:    meta,
		auth:    newAuthenticator(httpClient, authEndpoint, opts.APIKey, opts.APISecret, opts.APIName),
	}
}

// SubscribePrices opens a price-ticker subscription for the given display
// pairs. The handler receives one event per tick with the display pair name
// attached. A message without a status code counts as success on this
// channel.
func (c *Client) SubscribePrices(ctx context.Context, pairs []string, handler EventHandler) error {
	subs, err := c.marketSubscriptions(ctx, ChannelPrice, pairs, false)
	if err != nil {
		return err
	}
	return c.session.open(ctx, subs, c.channelHandler(ChannelPrice, true, handler))
}

// SubscribeTrades opens a trade-feed subscription for the given display
// pairs. Price precision is resolved before the subscription frames are
// built. Unlike the price channel, a message must carry an explicit zero
// status code to reach the handler. FirstSubscribe is passed through so
// callers can distinguish the initial snapshot from live updates.
func (c *Client) SubscribeTrades(ctx context.Context, pairs []string, handler EventHandler) error {
	subs, err := c.marketSubscriptions(ctx, ChannelTrade, pairs, true)
	if err != nil {
		return err
	}
	return c.session.open(ctx, subs, c.channelHandler(ChannelTrade, false, handler))
}

// SubscribeOrderBook opens an order-book depth subscription for the given
// display pairs. Same precision and status-code contract as SubscribeTrades.
func (c *Client) SubscribeOrderBook(ctx context.Context, pairs []string, handler EventHandler) error {
	subs, err := c.marketSubscriptions(ctx, ChannelOrderBook, pairs, true)
	if err != nil {
		return err
	}
	return c.session.open(ctx, subs, c.channelHandler(ChannelOrderBook, false, handler))
}

// AddTradePairs adds trade subscriptions for more pairs on the already-open
// connection. When no connection is open the request is logged and dropped;
// no error is returned and nothing is queued.
func (c *Client) AddTradePairs(ctx context.Context, pairs []string) error {
	subs, err := c.marketSubscriptions(ctx, ChannelTrade, pairs, true)
	if err != nil {
		return err
	}
	c.session.add(subs)
	return nil
}

// AddOrderBookPairs adds depth subscriptions for more pairs on the
// already-open connection. Same drop-when-closed contract as AddTradePairs.
func (c *Client) AddOrderBookPairs(ctx context.Context, pairs []string) error {
	subs, err := c.marketSubscriptions(ctx, ChannelOrderBook, pairs, true)
	if err != nil {
		return err
	}
	c.session.add(subs)
	return nil
}

// SubscribeNotify opens the authenticated notify channel. Every inbound
// envelope is passed through to the handler unfiltered.
func (c *Client) SubscribeNotify(ctx context.Context, handler EnvelopeHandler) error {
	token, err := c.auth.token(ctx)
	if err != nil {
		return err
	}
	sub := SubscribeRequest{Subscribe: ChannelNotify, Token: token}
	return c.session.open(ctx, []SubscribeRequest{sub}, handler)
}

// SubscribeUserOrders opens the authenticated user-order channel for the
// given display pairs, sent as one combined subscribe operation. The
// exchange's underscore pair-name field is normalized to slash form before
// the handler is invoked.
func (c *Client) SubscribeUserOrders(ctx context.Context, pairs []string, handler EnvelopeHandler) error {
	if len(pairs) == 0 {
		return ErrNoPairs
	}
	token, err := c.auth.token(ctx)
	if err != nil {
		return err
	}

	args := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		args = append(args, "spot/order:"+PairToSymbol(pair))
	}
	sub := SubscribeRequest{Op: "subscribe", Token: token, Args: args}

	return c.session.open(ctx, []SubscribeRequest{sub}, func(env Envelope) {
		handler(normalizeUserOrder(env))
	})
}

// Unsubscribe closes the connection. Safe to call repeatedly, including when
// nothing is open.
func (c *Client) Unsubscribe() {
	c.session.close()
}

// Close terminates the connection and releases the client's resources.
func (c *Client) Close() error {
	c.session.close()
	return nil
}

// marketSubscriptions validates the pair list and builds one subscription
// request per pair. For precision-carrying channels the precision map is
// populated first; a pair missing from the map gets no precision field.
func (c *Client) marketSubscriptions(ctx context.Context, channel string, pairs []string, withPrecision bool) ([]SubscribeRequest, error) {
	if len(pairs) == 0 {
		return nil, ErrNoPairs
	}
	if withPrecision {
		if _, err := c.meta.precisionMap(ctx); err != nil {
			return nil, err
		}
	}

	subs := make([]SubscribeRequest, 0, len(pairs))
	for _, pair := range pairs {
		symbol := PairToSymbol(pair)
		sub := SubscribeRequest{
			Subscribe: channel,
			Symbol:    symbol,
			Locale:    localeEnUS,
		}
		if withPrecision {
			sub.Precision = c.meta.precisionFor(symbol)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// channelHandler filters the session's envelope stream for one channel.
// Envelopes for other channels are ignored; envelopes for this channel with a
// non-success status are logged with the mapped reason and dropped without
// invoking the callback.
func (c *Client) channelHandler(channel string, absentCodeOK bool, handler EventHandler) EnvelopeHandler {
	return func(env Envelope) {
		if env.Subscribe != channel {
			return
		}
		if !env.ok(absentCodeOK) {
			status := "status code missing"
			if env.Code != nil {
				status = env.Code.String()
			}
			c.logger.Warn("subscription error", logging.String("status", status))
			return
		}
		handler(Event{
			Pair:           c.meta.displayName(env.Symbol),
			FirstSubscribe: env.FirstSubscribe,
			Data:           env.Data,
		})
	}
}

// normalizeUserOrder rewrites the trademapping_name field of a user-order
// payload from "BASE_QUOTE" to "BASE/QUOTE". Payloads without the field pass
// through untouched.
func normalizeUserOrder(env Envelope) Envelope {
	var data map[string]interface{}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return env
	}
	name, ok := data["trademapping_name"].(string)
	if !ok {
		return env
	}
	data["trademapping_name"] = SymbolToPair(name)
	raw, err := json.Marshal(data)
	if err != nil {
		return env
	}
	env.Data = raw
	return env
}
