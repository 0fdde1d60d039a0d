package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cryptonaira/nairadesk/models"
	"github.com/shopspring/decimal"
)

// aliveMessage is the liveness response used by uptime monitors.
const aliveMessage = "Bot is alive!"

type ratesResponse struct {
	Asset              string          `json:"asset"`
	Currency           string          `json:"currency"`
	Buy                decimal.Decimal `json:"buy"`
	Sell               decimal.Decimal `json:"sell"`
	ActiveTransactions int             `json:"activeTransactions"`
	Timestamp          time.Time       `json:"timestamp"`
}

func (g *Gateway) handleGETAlive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, aliveMessage)
}

func (g *Gateway) handleGETRates(w http.ResponseWriter, r *http.Request) {
	sanitizedJSONResponse(w, ratesResponse{
		Asset:              "USDT",
		Currency:           "NGN",
		Buy:                g.node.Quote(r.Context(), models.DirectionBuy),
		Sell:               g.node.Quote(r.Context(), models.DirectionSell),
		ActiveTransactions: g.node.ActiveTransactions(),
		Timestamp:          time.Now().UTC().Truncate(time.Second),
	})
}
