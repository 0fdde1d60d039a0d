package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cpacia/proxyclient"
	"github.com/cryptonaira/nairadesk/models"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var log = logging.MustGetLogger("RATE")

const (
	// DefaultRateAPI returns the tether price in Naira in the shape
	// {"tether": {"ngn": 1530.12}}.
	DefaultRateAPI = "https://api.coingecko.com/api/v3/simple/price?ids=tether&vs_currencies=ngn"

	// DefaultAsset and DefaultCurrency select the quote out of the response.
	DefaultAsset    = "tether"
	DefaultCurrency = "ngn"

	// QuoteTimeout bounds a single request to the price oracle.
	QuoteTimeout = time.Second * 30
)

// RateConfig configures an ExchangeRateProvider.
type RateConfig struct {
	URL      string
	Asset    string
	Currency string

	BuyMarkup    decimal.Decimal
	SellMarkup   decimal.Decimal
	FallbackRate decimal.Decimal
}

// ExchangeRateProvider quotes the Naira price of USDT for a trade
// direction. The buy quote is the spot rate plus a markup and the sell
// quote is the spot rate minus a markup. Every quote is a fresh fetch.
type ExchangeRateProvider struct {
	url      string
	asset    string
	currency string
	client   *http.Client

	buyMarkup  decimal.Decimal
	sellMarkup decimal.Decimal
	fallback   decimal.Decimal
}

// NewExchangeRateProvider returns a new ExchangeRateProvider. Empty
// fields of cfg fall back to the CoinGecko tether/ngn defaults.
func NewExchangeRateProvider(cfg RateConfig) *ExchangeRateProvider {
	if cfg.URL == "" {
		cfg.URL = DefaultRateAPI
	}
	if cfg.Asset == "" {
		cfg.Asset = DefaultAsset
	}
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}

	client := proxyclient.NewHttpClient()
	client.Timeout = QuoteTimeout

	return &ExchangeRateProvider{
		url:        cfg.URL,
		asset:      cfg.Asset,
		currency:   cfg.Currency,
		client:     client,
		buyMarkup:  cfg.BuyMarkup,
		sellMarkup: cfg.SellMarkup,
		fallback:   cfg.FallbackRate,
	}
}

// Quote returns the rate for the direction. It never fails: any problem
// reaching the oracle or reading its response yields the fallback rate.
func (e *ExchangeRateProvider) Quote(ctx context.Context, direction models.Direction) decimal.Decimal {
	spot, err := e.fetchSpotRate(ctx)
	if err != nil {
		log.Warningf("Price oracle failed, using fallback rate %s: %s", e.fallback, err)
		return e.fallback
	}

	var rate decimal.Decimal
	switch direction {
	case models.DirectionBuy:
		rate = spot.Add(e.buyMarkup)
	case models.DirectionSell:
		rate = spot.Sub(e.sellMarkup)
	default:
		log.Warningf("Quote requested for unknown direction %q, using fallback rate", direction)
		return e.fallback
	}
	if !rate.IsPositive() {
		log.Warningf("Quote %s for %s is not positive, using fallback rate", rate, direction)
		return e.fallback
	}
	return rate
}

// fetchSpotRate queries the oracle for the un-marked-up spot rate.
func (e *ExchangeRateProvider) fetchSpotRate(ctx context.Context) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, QuoteTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	rates := make(map[string]map[string]decimal.Decimal)
	if err := json.NewDecoder(resp.Body).Decode(&rates); err != nil {
		return decimal.Zero, errors.Wrap(err, "decode oracle response")
	}

	rate, ok := rates[e.asset][e.currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("%s/%s rate missing from response", e.asset, e.currency)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("oracle returned non-positive rate %s", rate)
	}
	return rate, nil
}
