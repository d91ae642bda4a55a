package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/cachekit/pkg/cache"
	"github.com/dmitrymomot/cachekit/pkg/cacheconf"
)

var errUnknownProduct = errors.New("unknown product")

// Default methods, overridable from the cache config file.
var (
	priceMethod = cache.Method{
		Name: "Price",
		Settings: cache.MustSettings(
			cache.WithTTL(30*time.Second),
			cache.WithMaxEntries(1000),
		),
	}
	ratesMethod = cache.Method{
		Name: "Rates",
		Settings: cache.MustSettings(
			cache.WithScope(cache.Singleton),
			cache.WithTTL(5*time.Minute),
		),
	}
	searchMethod = cache.Method{
		Name: "Search",
		Settings: cache.MustSettings(
			cache.WithTTL(time.Minute),
			cache.WithMaxEntries(200),
			cache.WithEviction(cache.LFU),
			cache.WithSoftValues(true),
		),
	}
)

type product struct {
	SKU   string  `json:"sku"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type priceQuote struct {
	SKU      string  `json:"sku"`
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

// catalog is a slow product backend fronted by cached methods.
// Each catalog owns its per-instance stores.
type catalog struct {
	cache.Data

	reg      *cache.Registry
	logger   *slog.Logger
	products map[string]product
	methods  map[string]cache.Method
	latency  time.Duration
}

func newCatalog(reg *cache.Registry, logger *slog.Logger, file *cacheconf.File) (*catalog, error) {
	c := &catalog{
		reg:     reg,
		logger:  logger,
		latency: 50 * time.Millisecond,
		products: map[string]product{
			"tea-001":    {SKU: "tea-001", Name: "Sencha", Price: 12.5},
			"tea-002":    {SKU: "tea-002", Name: "Genmaicha", Price: 9.9},
			"coffee-001": {SKU: "coffee-001", Name: "Ethiopia Guji", Price: 18},
		},
		methods: map[string]cache.Method{},
	}

	if file != nil {
		methods, err := file.Methods()
		if err != nil {
			return nil, err
		}
		c.methods = methods
	}
	return c, nil
}

// method returns the configured override of m, if any.
func (c *catalog) method(m cache.Method) cache.Method {
	if o, ok := c.methods[cache.MethodID(c, m)]; ok {
		return o
	}
	return m
}

func (c *catalog) Price(ctx context.Context, sku, currency string) (priceQuote, error) {
	return cache.Invoke(ctx, c.reg, c, c.method(priceMethod), []any{sku, currency}, func(ctx context.Context) (priceQuote, error) {
		c.logger.DebugContext(ctx, "computing price")

		p, ok := c.products[sku]
		if !ok {
			return priceQuote{}, fmt.Errorf("%w: %s", errUnknownProduct, sku)
		}
		rates, err := c.Rates(ctx)
		if err != nil {
			return priceQuote{}, err
		}
		rate, ok := rates[currency]
		if !ok {
			return priceQuote{}, fmt.Errorf("unsupported currency %q", currency)
		}
		c.sleep(ctx)
		return priceQuote{SKU: sku, Currency: currency, Amount: p.Price * rate}, nil
	})
}

func (c *catalog) Rates(ctx context.Context) (map[string]float64, error) {
	return cache.Invoke(ctx, c.reg, c, c.method(ratesMethod), nil, func(ctx context.Context) (map[string]float64, error) {
		c.logger.DebugContext(ctx, "fetching exchange rates")
		c.sleep(ctx)
		return map[string]float64{"EUR": 1, "USD": 1.08, "GBP": 0.86}, nil
	})
}

func (c *catalog) Search(ctx context.Context, query string) ([]product, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	return cache.Invoke(ctx, c.reg, c, c.method(searchMethod), []any{query}, func(ctx context.Context) ([]product, error) {
		c.logger.DebugContext(ctx, "searching products")
		c.sleep(ctx)

		var out []product
		for _, p := range c.products {
			if strings.Contains(strings.ToLower(p.Name), query) || strings.HasPrefix(p.SKU, query) {
				out = append(out, p)
			}
		}
		slices.SortFunc(out, func(a, b product) int { return strings.Compare(a.SKU, b.SKU) })
		return out, nil
	})
}

func (c *catalog) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(c.latency):
	}
}
