package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/leonid6372/paper-trading/internal/trading"
	"github.com/leonid6372/paper-trading/pkg/format"
	"github.com/leonid6372/paper-trading/pkg/log"
	"go.uber.org/zap"
)

type quoteCmd struct {
	configPath string
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "Print the latest quote of one or more tickers." }
func (*quoteCmd) Usage() string {
	return `quote [-config path] TICKER...:
  Fetch the latest daily bar of each ticker from the quote provider.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	setConfigFlag(f, &c.configPath)
}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	cfg, err := loadConfig(c.configPath)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return subcommands.ExitFailure
	}

	quotes, err := newQuoteClient(cfg)
	if err != nil {
		log.Error("quote client init failed", zap.Error(err))
		return subcommands.ExitFailure
	}

	service := trading.New(trading.Dependencies{Quotes: quotes}, cfg.Quotes.MaxConcurrency)
	results := service.Quotes(ctx, f.Args())

	status := subcommands.ExitSuccess
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tLAST\tOPEN\tHIGH\tLOW\tVOLUME")
	for _, ticker := range f.Args() {
		result, ok := results[ticker]
		if !ok {
			continue
		}
		delete(results, ticker)

		if result.Err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", ticker, result.Err)
			status = subcommands.ExitFailure
			continue
		}

		q := result.Quote
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			q.Ticker, format.Money(q.Last), format.Money(q.Open), format.Money(q.High), format.Money(q.Low), format.Quantity(q.Volume))
	}

	if err := w.Flush(); err != nil {
		log.Error("failed to write output", zap.Error(err))
		return subcommands.ExitFailure
	}

	return status
}
