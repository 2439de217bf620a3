package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/chaos-engine/internal/events"
)

func TestPriceWalkStaysInBounds(t *testing.T) {
	c := testCatalog(t)

	tests := []struct {
		name string
		draw float64
		want float64
	}{
		{"always up", 0.999, 300},
		{"always down", 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(c, testStart)
			rng := &seqRandom{vals: []float64{tt.draw}}
			for i := 0; i < 500; i++ {
				c.walkPrices(s, rng)
				price := s.Assets["stock"].Price
				require.GreaterOrEqual(t, price, 10.0)
				require.LessOrEqual(t, price, 300.0)
			}
			assert.Equal(t, tt.want, s.Assets["stock"].Price)
			assert.Len(t, s.Assets["stock"].History, c.Balance.PriceHistory)
		})
	}
}

func TestPriceWalkQuotesToTheCent(t *testing.T) {
	c := testCatalog(t)
	s := NewState(c, testStart)

	prices := c.walkPrices(s, &seqRandom{vals: []float64{0.75}})
	require.Len(t, prices, 1)
	assert.Equal(t, 105.0, prices[0].Price)
	assert.InDelta(t, 5.0, prices[0].LastChange, 1e-9)
	assert.Equal(t, []float64{100, 105}, s.Assets["stock"].History)
}

func TestMarketTickEmitsUpdate(t *testing.T) {
	e, _, rec := newTestEngine(t, 0.75)

	prices := e.MarketTick()
	require.Len(t, prices, 1)
	assert.Equal(t, 105.0, e.st.Assets["stock"].Price)
	assert.Len(t, rec.OfType(events.MarketUpdated), 1)
}

func TestTradingShares(t *testing.T) {
	e, _, rec := newTestEngine(t)
	e.st.Chaos = 1000

	_, err := e.BuyShares("stock", 100)
	assert.ErrorIs(t, err, ErrInsufficientChaos)
	_, err = e.BuyShares("stock", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = e.BuyShares("nope", 1)
	assert.ErrorIs(t, err, ErrUnknownID)
	assert.Equal(t, 1000.0, e.st.Chaos)

	trade, err := e.BuyShares("stock", 3)
	require.NoError(t, err)
	assert.Equal(t, 300.0, trade.Total)
	assert.Equal(t, int64(3), trade.Owned)
	assert.Equal(t, 700.0, e.st.Chaos)
	assert.True(t, e.st.Milestones[MilestoneFirstTrade])

	_, err = e.SellShares("stock", 5)
	assert.ErrorIs(t, err, ErrInsufficientShares)

	trade, err = e.SellShares("stock", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), trade.Shares)
	assert.Equal(t, int64(1), trade.Owned)
	assert.Equal(t, 900.0, e.st.Chaos)
	assert.Len(t, rec.OfType(events.SharesTraded), 2)
}

func TestTradeTotalIsExactToTheCent(t *testing.T) {
	assert.Equal(t, 30.3, tradeTotal(10.1, 3))
	assert.Equal(t, 0.3, tradeTotal(0.1, 3))
}
