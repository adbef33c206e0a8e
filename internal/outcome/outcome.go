package outcome

import (
	"github.com/ksred/strike-api/internal/types"
	"github.com/rs/zerolog/log"
)

// Rates holds the payout percentage of the stake for each fixed-payout
// instrument family. TURBO pays by point distance and does not use a rate.
type Rates struct {
	RiseFall     float64
	HigherLower  float64
	TouchNoTouch float64
	CallPut      float64
}

// Result is the terminal verdict for an order. Profit is non-zero only for
// WIN.
type Result struct {
	Status string
	Profit float64
}

// Evaluate maps an order snapshot and its closing conditions to a terminal
// verdict. For TOUCH_NO_TOUCH flagged means the barrier was touched inside
// the contract window; for TURBO it means the barrier was breached. Orders
// missing required instrument fields settle as LOSS so settlement always
// reaches a terminal state.
func Evaluate(order *types.Order, closePrice float64, flagged bool, rates Rates) Result {
	switch order.Type {
	case types.TypeRiseFall:
		return directional(order, types.SideRise, closePrice, order.Price, rates.RiseFall)

	case types.TypeHigherLower:
		if order.Barrier == 0 {
			return anomaly(order, "barrier")
		}
		return directional(order, types.SideHigher, closePrice, order.Barrier, rates.HigherLower)

	case types.TypeTouchNoTouch:
		if order.Barrier == 0 {
			return anomaly(order, "barrier")
		}
		// Binary: no DRAW state for this instrument.
		if (order.Side == types.SideTouch) == flagged {
			return Result{Status: types.StatusWin, Profit: order.Amount * rates.TouchNoTouch / 100}
		}
		return Result{Status: types.StatusLoss}

	case types.TypeCallPut:
		if order.StrikePrice == 0 {
			return anomaly(order, "strike_price")
		}
		return directional(order, types.SideCall, closePrice, order.StrikePrice, rates.CallPut)

	case types.TypeTurbo:
		return turbo(order, closePrice, flagged)

	default:
		log.Warn().
			Str("order_id", order.OrderID).
			Str("type", order.Type).
			Msg("unknown instrument type, settling as loss")
		return Result{Status: types.StatusLoss}
	}
}

// directional settles the three same-shaped instruments: the up-side wins
// when close is above the reference, the down-side wins below, equality is
// a DRAW.
func directional(order *types.Order, upSide string, closePrice, reference, rate float64) Result {
	if closePrice == reference {
		return Result{Status: types.StatusDraw}
	}

	wentUp := closePrice > reference
	if (order.Side == upSide) == wentUp {
		return Result{Status: types.StatusWin, Profit: order.Amount * rate / 100}
	}
	return Result{Status: types.StatusLoss}
}

// turbo settles a barrier contract paying by point distance. A breach voids
// the contract regardless of the final price.
func turbo(order *types.Order, closePrice float64, breached bool) Result {
	if breached {
		return Result{Status: types.StatusLoss}
	}
	if order.Barrier == 0 || order.PayoutPerPoint == 0 {
		return anomaly(order, "barrier/payout_per_point")
	}

	distance := closePrice - order.Barrier
	if order.Side == types.SideDown {
		distance = order.Barrier - closePrice
	}

	payout := distance * order.PayoutPerPoint
	switch {
	case payout > order.Amount:
		return Result{Status: types.StatusWin, Profit: payout - order.Amount}
	case payout == order.Amount:
		return Result{Status: types.StatusDraw}
	default:
		return Result{Status: types.StatusLoss}
	}
}

func anomaly(order *types.Order, field string) Result {
	log.Warn().
		Str("order_id", order.OrderID).
		Str("type", order.Type).
		Str("missing_field", field).
		Msg("order missing required instrument field, settling as loss")
	return Result{Status: types.StatusLoss}
}
