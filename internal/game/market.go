/*
Package game
File: market.go
Description:
    Simulates the tradable asset market.
    This includes:
    1. The bounded random walk that moves every price each market tick.
    2. Buying and selling shares at the quoted price.
    3. Resetting prices to base at the start of a new run.

    Prices are quoted to the cent with shopspring/decimal so trade totals
    do not drift with float rounding.
*/

package game

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/everforgeworks/chaos-engine/internal/events"
)

// PricePayload is attached to MarketUpdated events.
type PricePayload struct {
	ID         string  `json:"id"`
	Price      float64 `json:"price"`
	LastChange float64 `json:"last_change"`
}

// TradePayload is attached to SharesTraded events.
type TradePayload struct {
	ID     string  `json:"id"`
	Shares int64   `json:"shares"` // Positive on buy, negative on sell
	Price  float64 `json:"price"`
	Total  float64 `json:"total"`
	Owned  int64   `json:"owned"`
}

// quote rounds a price to the cent.
func quote(price float64) float64 {
	q, _ := decimal.NewFromFloat(price).Round(2).Float64()
	return q
}

// tradeTotal prices a block of shares with exact decimal arithmetic.
func tradeTotal(price float64, shares int64) float64 {
	total, _ := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(shares)).Round(2).Float64()
	return total
}

// walkPrices moves every asset one step of its bounded random walk.
func (c *Catalog) walkPrices(s *State, rng Random) []PricePayload {
	out := make([]PricePayload, 0, len(c.Assets))
	for _, a := range c.Assets {
		st := s.Assets[a.ID]
		old := st.Price
		if old <= 0 {
			old = a.BasePrice
		}

		swing := (rng.Float64()*2 - 1) * a.Volatility
		next := old * (1 + swing)
		next = math.Max(a.BasePrice*c.Balance.PriceFloor, math.Min(a.BasePrice*c.Balance.PriceCeiling, next))
		next = quote(next)

		st.Price = next
		st.LastChange = (next - old) / old * 100
		st.History = append(st.History, next)
		if over := len(st.History) - c.Balance.PriceHistory; over > 0 {
			st.History = append([]float64(nil), st.History[over:]...)
		}
		s.Assets[a.ID] = st
		out = append(out, PricePayload{ID: a.ID, Price: next, LastChange: st.LastChange})
	}
	return out
}

// resetPrices returns every asset to base price. Share counts are kept.
func (c *Catalog) resetPrices(s *State) {
	for _, a := range c.Assets {
		st := s.Assets[a.ID]
		st.Price = a.BasePrice
		st.History = []float64{a.BasePrice}
		st.LastChange = 0
		s.Assets[a.ID] = st
	}
}

// MarketTick advances every asset price. Runs on its own, slower cadence.
func (e *Engine) MarketTick() []PricePayload {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	prices := e.cat.walkPrices(e.st, e.rng)
	e.emit(events.MarketUpdated, now, prices)
	return prices
}

// BuyShares buys shares of an asset at the current quote.
func (e *Engine) BuyShares(id string, shares int64) (TradePayload, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a := e.cat.Asset(id)
	if a == nil {
		return TradePayload{}, ErrUnknownID
	}
	if shares < 1 {
		return TradePayload{}, ErrInvalidAmount
	}
	st := e.st.Assets[id]
	total := tradeTotal(st.Price, shares)
	if total > e.st.Chaos {
		return TradePayload{}, ErrInsufficientChaos
	}

	now := e.clk.Now()
	e.st.Chaos -= total
	st.Shares += shares
	e.st.Assets[id] = st
	e.st.Milestones[MilestoneFirstTrade] = true

	res := TradePayload{ID: id, Shares: shares, Price: st.Price, Total: total, Owned: st.Shares}
	e.emit(events.SharesTraded, now, res)
	e.cat.CheckAll(e.st, now, e.notifier)
	return res, nil
}

// SellShares sells shares of an asset at the current quote.
func (e *Engine) SellShares(id string, shares int64) (TradePayload, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a := e.cat.Asset(id)
	if a == nil {
		return TradePayload{}, ErrUnknownID
	}
	if shares < 1 {
		return TradePayload{}, ErrInvalidAmount
	}
	st := e.st.Assets[id]
	if shares > st.Shares {
		return TradePayload{}, ErrInsufficientShares
	}

	now := e.clk.Now()
	total := tradeTotal(st.Price, shares)
	e.st.Chaos += total
	st.Shares -= shares
	e.st.Assets[id] = st

	res := TradePayload{ID: id, Shares: -shares, Price: st.Price, Total: total, Owned: st.Shares}
	e.emit(events.SharesTraded, now, res)
	return res, nil
}
