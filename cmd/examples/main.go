package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/veiloq/bitmart-connector/pkg/bitmart"
	"github.com/veiloq/bitmart-connector/pkg/logging"
)

func main() {
	logger := logging.NewLogger(logging.WithLevel(logging.DEBUG))

	options := bitmart.NewOptions()
	options.Logger = logger

	// Credentials are only needed for the notify and user-order channels.
	options.APIKey = os.Getenv("BITMART_API_KEY")
	options.APISecret = os.Getenv("BITMART_API_SECRET")
	options.APIName = os.Getenv("BITMART_API_NAME")

	client := bitmart.NewClient(options)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("subscribing to price ticker")
	err := client.SubscribePrices(ctx, []string{"BTC/USDT", "ETH/USDT"}, func(ev bitmart.Event) {
		var tick bitmart.PriceTick
		if err := ev.Decode(&tick); err != nil {
			logger.Warn("undecodable price tick", logging.Error(err))
			return
		}
		logger.Info("price update",
			logging.String("pair", ev.Pair),
			logging.String("price", tick.CurrentPrice.String()),
			logging.String("volume", tick.Volume.String()),
		)
	})
	if err != nil {
		logger.Error("price subscription failed", logging.Error(err))
		os.Exit(1)
	}

	if err := client.AddTradePairs(ctx, []string{"BTC/USDT"}); err != nil {
		logger.Warn("trade subscription failed", logging.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	client.Unsubscribe()
}
