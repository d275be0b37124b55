// Package bitmartconnector is a client library for BitMart's realtime
// market-data and order-update feed.
//
// The library opens one compressed WebSocket connection per client instance,
// sends the exchange's subscription messages for the price, trade, and
// order-book channels, inflates and decodes inbound frames, maps exchange
// symbol codes to display pair names, and delivers shaped events to
// caller-supplied callbacks.
//
// Core features:
//
//   - Price ticker, trade feed, and order-book depth subscriptions
//   - Authenticated notify and user-order channels via HMAC-signed tokens
//   - Lazily fetched, per-instance symbol-name and price-precision tables
//   - Outbound keepalive and automatic reconnection with the subscription
//     list that was active before the failure
//
// The entry point is pkg/bitmart.NewClient:
//
//	client := bitmart.NewClient(bitmart.NewOptions())
//	err := client.SubscribePrices(ctx, []string{"BTC/USDT"}, func(ev bitmart.Event) {
//		var tick bitmart.PriceTick
//		if err := ev.Decode(&tick); err == nil {
//			fmt.Println(ev.Pair, tick.CurrentPrice)
//		}
//	})
//
// Reconnection after a transport error is unconditional by default: every
// error is treated as transient, retried immediately, forever. Pass a policy
// from NewBackoffReconnect through Options.ReconnectPolicy to harden this.
package bitmartconnector
