package main

import (
	"context"
	"fmt"
	"time"

	"quantfolio/internal/alert"
	"quantfolio/internal/config"
	"quantfolio/internal/data"
	"quantfolio/internal/handlers"
	"quantfolio/internal/marketdata"
	"quantfolio/internal/portfolio"
	"quantfolio/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var rdb *data.Redis
	if cfg.Redis.Enabled() {
		rdb, err = data.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Warnf("%v; proceeding without quote cache", err)
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	provider, err := buildProvider(cfg, rdb, logger)
	if err != nil {
		logger.Fatalf("market data: %v", err)
	}

	sinks := alert.MultiSink{alert.NewLogSink(logger)}
	if rdb != nil {
		sinks = append(sinks, service.NewRedisSink(rdb.Client, cfg.AlertChannel))
	}

	p := portfolio.New()
	book := alert.NewBook()
	quotes := service.NewQuoteService(p, provider, book, cfg.QuoteTimeout, logger)
	quotes.Start(ctx, cfg.PriceInterval)

	rg := gin.Default()
	if len(cfg.CORSOrigins) > 0 {
		rg.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}
	handlers.NewHandler(p, quotes, book, sinks, logger).Register(rg)

	logger.Infof("server starting on :%s", cfg.Port)
	if err := rg.Run(fmt.Sprintf(":%s", cfg.Port)); err != nil {
		logger.Fatalf("server: %v", err)
	}
}

// buildProvider routes the configured crypto pair to Binance, YAHOO_SYMBOLS
// to Yahoo Finance, and everything else to Alpha Vantage.
func buildProvider(cfg config.Config, rdb *data.Redis, logger *logrus.Logger) (marketdata.Provider, error) {
	var equities marketdata.Provider
	if cfg.AlphaVantageKey != "" {
		av, err := marketdata.NewAlphaVantageClient(cfg.AlphaVantageKey, cfg.AlphaVantageURL, nil, logger)
		if err != nil {
			return nil, err
		}
		equities = marketdata.NewRetrying(av, cfg.QuoteRetries+1, 500*time.Millisecond, logger)
	} else {
		logger.Warn("ALPHAVANTAGE_API_KEY not set, using simulated equity quotes")
		av, err := marketdata.NewAlphaVantage("demo", logger)
		if err != nil {
			return nil, err
		}
		equities = av
	}

	bn, err := marketdata.NewBinance(cfg.BinancePair, logger)
	if err != nil {
		return nil, err
	}

	router := marketdata.NewRouter(equities)
	router.Route(cfg.BinancePair, bn)
	yahoo := marketdata.NewYahooFinance(logger)
	for _, sym := range cfg.YahooSymbols {
		router.Route(sym, yahoo)
	}

	if rdb == nil {
		return router, nil
	}
	logger.Infof("quote cache enabled, ttl %s", cfg.QuoteCacheTTL)
	return service.NewCachedProvider(router, rdb.Client, cfg.QuoteCacheTTL, logger), nil
}
