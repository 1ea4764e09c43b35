package main

import (
	"context"
	"fmt"

	"quantfolio/internal/alert"
	"quantfolio/internal/marketdata"
	"quantfolio/internal/models"
	"quantfolio/internal/portfolio"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	ctx := context.Background()

	fmt.Println("Welcome to Quantfolio!")

	p := portfolio.New()
	id, err := p.Record(models.Acquisition{
		Symbol:    "AAPL",
		Quantity:  decimal.NewFromInt(10),
		CostBasis: decimal.NewFromInt(150),
		Platform:  "Robinhood",
	})
	if err != nil {
		logger.Fatalf("record acquisition: %v", err)
	}

	fmt.Println("Initial portfolio summary:")
	printSummary(p.Summary())

	av, err := marketdata.NewAlphaVantage("demo", logger)
	if err != nil {
		logger.Fatalf("market data: %v", err)
	}
	q, err := av.FetchQuote(ctx, "AAPL")
	if err != nil {
		logger.Fatalf("fetch AAPL: %v", err)
	}
	fmt.Printf("Fetched AAPL at %s from %s\n", q.Price.StringFixed(2), q.Source)
	if err := p.ApplyQuote(id, q.Price); err != nil {
		logger.Fatalf("apply quote: %v", err)
	}

	ev, err := alert.NewEvaluator(p, id, decimal.NewFromInt(180), alert.NewLogSink(logger))
	if err != nil {
		logger.Fatalf("create alert: %v", err)
	}
	fired, err := ev.Evaluate(ctx)
	if err != nil {
		logger.Warnf("alert: %v", err)
	}
	fmt.Printf("Alert at 180: %s (fired=%t)\n", ev.State(), fired)

	fmt.Println("Updated portfolio summary:")
	printSummary(p.Summary())

	fmt.Println("Quantfolio execution completed.")
}

func printSummary(s models.Summary) {
	fmt.Printf("  total invested: %s\n", s.TotalInvested.StringFixed(2))
	fmt.Printf("  current value:  %s\n", s.CurrentValue.StringFixed(2))
	fmt.Printf("  overall return: %s\n", s.ReturnString())
}
