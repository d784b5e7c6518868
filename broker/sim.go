package broker

import (
	"fmt"
	"sort"
	"time"

	"github.com/Heilo-qaq/ai-stock-advisor/config"
	"github.com/Heilo-qaq/ai-stock-advisor/market"
)

// inventory holds one instrument's lots in acquisition order plus the highest
// price seen while the position has been open.
type inventory struct {
	lots    []Lot
	highest float64
}

func (inv *inventory) shares() int {
	n := 0
	for _, l := range inv.lots {
		n += l.Shares
	}
	return n
}

// SimBroker is the exchange-accurate matching engine. It owns cash and the
// per-instrument lot inventories; they mutate only through successful fills.
type SimBroker struct {
	initialCapital float64
	cash           float64
	positions      map[string]*inventory
	trades         []TradeRecord
	orders         []Order

	commissionRate float64
	commissionMin  float64
	stampTaxRate   float64
	slippageRate   float64
	limitTolerance float64
}

// NewSimBroker creates a broker with full cash and an empty inventory.
func NewSimBroker(cfg *config.Config) *SimBroker {
	return &SimBroker{
		initialCapital: cfg.Backtest.InitialCapital,
		cash:           cfg.Backtest.InitialCapital,
		positions:      make(map[string]*inventory),
		commissionRate: cfg.Costs.CommissionRate,
		commissionMin:  cfg.Costs.CommissionMin,
		stampTaxRate:   cfg.Costs.StampTaxRate,
		slippageRate:   cfg.Costs.SlippageRate,
		limitTolerance: cfg.Costs.LimitTolerance,
	}
}

// Submit validates and matches one order intent. Rejection is a normal
// outcome reported on the returned order; no state changes on rejection.
// bar may be nil when no intraday data is available, in which case the fill
// anchors to the requested price. stopReason tags risk-forced sells.
func (b *SimBroker) Submit(code string, side Side, shares int, price float64, date time.Time, bar *market.Bar, stopReason string) Order {
	order := Order{Code: code, Side: side, Price: price, Shares: shares, Date: date}

	if shares <= 0 || shares%LotSize != 0 {
		return b.reject(order, fmt.Sprintf("shares must be a positive multiple of %d, got %d", LotSize, shares))
	}

	if side == Sell {
		sellable := b.SellableShares(code, date)
		if sellable <= 0 {
			return b.reject(order, "no sellable shares (T+1 or no position)")
		}
		if shares > sellable {
			shares = (sellable / LotSize) * LotSize
			if shares <= 0 {
				return b.reject(order, fmt.Sprintf("sellable %d shares is below one lot", sellable))
			}
			order.Shares = shares
		}
	}

	if reason := b.checkLimit(code, side, bar); reason != "" {
		return b.reject(order, reason)
	}

	filledPrice := b.fillPrice(price, side, bar)
	amount := filledPrice * float64(shares)
	commission := amount * b.commissionRate
	if commission < b.commissionMin {
		commission = b.commissionMin
	}
	stampTax := 0.0
	if side == Sell {
		stampTax = amount * b.stampTaxRate
	}
	slippageCost := amount * b.slippageRate
	totalCost := commission + stampTax + slippageCost

	if side == Buy && amount+totalCost > b.cash {
		return b.reject(order, fmt.Sprintf("insufficient funds: need %.2f, available %.2f", amount+totalCost, b.cash))
	}

	order.Status = Filled
	order.FilledPrice = filledPrice
	order.Commission = commission
	order.StampTax = stampTax
	order.SlippageCost = slippageCost
	order.TotalCost = totalCost

	if side == Buy {
		b.execBuy(code, shares, filledPrice, date, totalCost)
		b.trades = append(b.trades, TradeRecord{
			Code: code, Side: Buy, Price: filledPrice, Shares: shares, Date: date,
			Commission: commission, TotalCost: totalCost,
		})
	} else {
		pnl, pnlPct, holdDays := b.execSell(code, shares, filledPrice, date, totalCost)
		b.trades = append(b.trades, TradeRecord{
			Code: code, Side: Sell, Price: filledPrice, Shares: shares, Date: date,
			Commission: commission, StampTax: stampTax, TotalCost: totalCost,
			PnL: pnl, PnLPct: pnlPct, HoldDays: holdDays, StopReason: stopReason,
		})
	}

	b.orders = append(b.orders, order)
	return order
}

func (b *SimBroker) reject(order Order, reason string) Order {
	order.Status = Rejected
	order.RejectReason = reason
	b.orders = append(b.orders, order)
	return order
}

func (b *SimBroker) execBuy(code string, shares int, price float64, date time.Time, cost float64) {
	b.cash -= price*float64(shares) + cost
	inv, ok := b.positions[code]
	if !ok {
		inv = &inventory{highest: price}
		b.positions[code] = inv
	}
	inv.lots = append(inv.lots, Lot{Shares: shares, BuyPrice: price, BuyDate: date})
	if price > inv.highest {
		inv.highest = price
	}
}

// execSell consumes sellable lots first-in-first-out, tracking the weighted
// cost basis and the earliest consumed lot's acquisition date for the
// holding-period calculation. Callers guarantee shares <= sellable.
func (b *SimBroker) execSell(code string, shares int, price float64, date time.Time, cost float64) (pnl, pnlPct float64, holdDays int) {
	inv := b.positions[code]
	remaining := shares
	costBasis := 0.0
	earliestBuy := date

	kept := inv.lots[:0]
	for _, lot := range inv.lots {
		if remaining <= 0 {
			kept = append(kept, lot)
			continue
		}
		sellQty := lot.SellableOn(date)
		if sellQty > remaining {
			sellQty = remaining
		}
		if sellQty > 0 {
			costBasis += float64(sellQty) * lot.BuyPrice
			if lot.BuyDate.Before(earliestBuy) {
				earliestBuy = lot.BuyDate
			}
			remaining -= sellQty
			lot.Shares -= sellQty
		}
		if lot.Shares > 0 {
			kept = append(kept, lot)
		}
	}
	inv.lots = kept

	proceeds := price * float64(shares)
	b.cash += proceeds - cost

	if inv.shares() == 0 {
		delete(b.positions, code)
	}

	pnl = proceeds - costBasis - cost
	if costBasis > 0 {
		pnlPct = pnl / costBasis
	}
	holdDays = market.DayCount(earliestBuy, date)
	return pnl, pnlPct, holdDays
}

// SellableShares sums the shares across lots not acquired on the given date.
func (b *SimBroker) SellableShares(code string, date time.Time) int {
	inv, ok := b.positions[code]
	if !ok {
		return 0
	}
	n := 0
	for _, lot := range inv.lots {
		n += lot.SellableOn(date)
	}
	return n
}

// checkLimit detects locked limit-up/limit-down bars. The close must sit
// within the tolerance band of the theoretical limit price and the bar's
// high (buys) or low (sells) must not have escaped the band either.
func (b *SimBroker) checkLimit(code string, side Side, bar *market.Bar) string {
	if bar == nil || bar.PrevClose <= 0 {
		return ""
	}
	up, down := market.LimitPrices(code, bar.ST, bar.PrevClose)
	tol := b.limitTolerance

	switch side {
	case Buy:
		if bar.Close >= up*(1-tol) && bar.High <= up*(1+tol) {
			return fmt.Sprintf("locked limit-up (%.2f at limit %.2f)", bar.Close, up)
		}
	case Sell:
		if bar.Close <= down*(1+tol) && bar.Low >= down*(1-tol) {
			return fmt.Sprintf("locked limit-down (%.2f at limit %.2f)", bar.Close, down)
		}
	}
	return ""
}

// fillPrice anchors to the bar's open adjusted by slippage in the adverse
// direction and clamped into the bar's range; without a bar the requested
// price is slipped directly.
func (b *SimBroker) fillPrice(orderPrice float64, side Side, bar *market.Bar) float64 {
	if bar != nil {
		base := bar.Open
		if base == 0 {
			base = orderPrice
		}
		var fill float64
		if side == Buy {
			fill = base * (1 + b.slippageRate)
			if bar.High > 0 && fill > bar.High {
				fill = bar.High
			}
		} else {
			fill = base * (1 - b.slippageRate)
			if fill < bar.Low {
				fill = bar.Low
			}
		}
		return market.Round2(fill)
	}
	if side == Buy {
		return market.Round2(orderPrice * (1 + b.slippageRate))
	}
	return market.Round2(orderPrice * (1 - b.slippageRate))
}

// Position returns the flattened average-price view of one instrument.
func (b *SimBroker) Position(code string) (PositionView, bool) {
	inv, ok := b.positions[code]
	if !ok {
		return PositionView{}, false
	}
	total := inv.shares()
	if total == 0 {
		return PositionView{}, false
	}

	weighted := 0.0
	entry := inv.lots[0].BuyDate
	for _, lot := range inv.lots {
		weighted += float64(lot.Shares) * lot.BuyPrice
		if lot.BuyDate.Before(entry) {
			entry = lot.BuyDate
		}
	}
	avg := weighted / float64(total)

	highest := inv.highest
	if highest == 0 {
		highest = avg
	}
	return PositionView{Code: code, Shares: total, AvgPrice: avg, EntryDate: entry, Highest: highest}, true
}

// Positions returns the open positions sorted by code.
func (b *SimBroker) Positions() []PositionView {
	codes := make([]string, 0, len(b.positions))
	for code := range b.positions {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]PositionView, 0, len(codes))
	for _, code := range codes {
		if v, ok := b.Position(code); ok {
			out = append(out, v)
		}
	}
	return out
}

// Lots exposes the raw lot inventory of one instrument, oldest first.
func (b *SimBroker) Lots(code string) []Lot {
	inv, ok := b.positions[code]
	if !ok {
		return nil
	}
	out := make([]Lot, len(inv.lots))
	copy(out, inv.lots)
	return out
}

// Equity marks the inventory to market and adds cash. Instruments with no
// price for the day fall back to their first lot's acquisition price.
func (b *SimBroker) Equity(prices map[string]float64) float64 {
	value := 0.0
	for code, inv := range b.positions {
		p, ok := prices[code]
		if !ok && len(inv.lots) > 0 {
			p = inv.lots[0].BuyPrice
		}
		value += float64(inv.shares()) * p
	}
	return b.cash + value
}

// UpdateHighs raises each open position's highest observed price.
func (b *SimBroker) UpdateHighs(prices map[string]float64) {
	for code, inv := range b.positions {
		if p, ok := prices[code]; ok && p > inv.highest {
			inv.highest = p
		}
	}
}

func (b *SimBroker) Cash() float64           { return b.cash }
func (b *SimBroker) InitialCapital() float64 { return b.initialCapital }
func (b *SimBroker) OpenPositions() int      { return len(b.positions) }

// Trades returns the append-only trade record log.
func (b *SimBroker) Trades() []TradeRecord { return b.trades }

// Orders returns the full order log, fills and rejections alike.
func (b *SimBroker) Orders() []Order { return b.orders }

// ClosedTrades returns the sell records, the basis for trade statistics.
func (b *SimBroker) ClosedTrades() []TradeRecord {
	var out []TradeRecord
	for _, t := range b.trades {
		if t.Side == Sell {
			out = append(out, t)
		}
	}
	return out
}

// Summary aggregates run-level broker totals.
type Summary struct {
	InitialCapital   float64
	Cash             float64
	OpenPositions    int
	TotalTrades      int
	TotalCommissions float64
	TotalStampTax    float64
}

func (b *SimBroker) Summary() Summary {
	s := Summary{
		InitialCapital: b.initialCapital,
		Cash:           b.cash,
		OpenPositions:  len(b.positions),
		TotalTrades:    len(b.trades),
	}
	for _, t := range b.trades {
		s.TotalCommissions += t.Commission
		s.TotalStampTax += t.StampTax
	}
	return s
}
