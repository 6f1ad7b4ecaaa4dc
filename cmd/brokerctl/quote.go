package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/yourorg/paper-broker/internal/domain"
	"github.com/yourorg/paper-broker/internal/quote"
)

type quoteCmd struct{}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "look up live quotes, bypassing the cache" }
func (*quoteCmd) Usage() string {
	return `quote <symbol>...

  Prints the company name and price for each symbol. Exits non-zero if any
  symbol could not be quoted.
`
}

func (*quoteCmd) SetFlags(f *flag.FlagSet) {}

func (*quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one symbol is required")
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return subcommands.ExitFailure
	}
	provider := quote.NewHTTPProvider(cfg.Quote.BaseURL, cfg.Quote.APIToken, cfg.Quote.Timeout)
	if err := printQuotes(ctx, os.Stdout, provider, f.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printQuotes(ctx context.Context, w io.Writer, provider quote.Provider, symbols []string) error {
	var missing []string
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		q, err := provider.Lookup(ctx, sym)
		if err != nil {
			if !errors.Is(err, quote.ErrNotFound) {
				return err
			}
			missing = append(missing, sym)
			continue
		}
		fmt.Fprintf(w, "%-6s %-32s %12s\n", q.Symbol, q.Name, domain.USD(q.Price))
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid symbol: %s", strings.Join(missing, ", "))
	}
	return nil
}
