// Package gas implements the deterministic gas accounting engine. The
// counter is exclusively owned by one contract call; its final state is
// read once to build the outcome.
package gas

import (
	"math/bits"

	"github.com/meterwasm/vmhost/types"
)

// Counter tracks burnt gas (irrecoverable cost) and used gas (burnt plus
// gas reserved for receipts created during the call) against two
// ceilings: the per-call burnt ceiling and the prepaid gas.
//
// Invariant: burnt <= min(maxGasBurnt, prepaid) after every successful
// charge. A charge that would cross the ceiling fails atomically and
// clamps burnt to the ceiling so callers observe "exhausted"
// deterministically.
type Counter struct {
	costs       *types.ExtCostsConfig
	burnt       types.Gas
	gasLimit    types.Gas // min(maxGasBurnt, prepaid)
	maxGasBurnt types.Gas
	prepaid     types.Gas
	promisesGas types.Gas
	isView      bool
	profile     types.ProfileData
}

// NewCounter builds a counter for one call. For view calls maxGasBurnt
// should come from the view configuration.
func NewCounter(costs *types.ExtCostsConfig, maxGasBurnt, prepaid types.Gas, isView bool) *Counter {
	limit := maxGasBurnt
	if prepaid < limit {
		limit = prepaid
	}
	return &Counter{
		costs:       costs,
		gasLimit:    limit,
		maxGasBurnt: maxGasBurnt,
		prepaid:     prepaid,
		isView:      isView,
	}
}

// BurntGas returns the gas burnt so far.
func (c *Counter) BurntGas() types.Gas { return c.burnt }

// UsedGas returns burnt gas plus gas reserved for pending receipts.
func (c *Counter) UsedGas() types.Gas {
	// Reservation paths keep burnt+promisesGas <= prepaid, so the sum
	// cannot wrap.
	return c.burnt + c.promisesGas
}

// RemainingGas returns the prepaid gas not yet burnt or reserved.
func (c *Counter) RemainingGas() types.Gas {
	used := c.UsedGas()
	if used >= c.prepaid {
		return 0
	}
	return c.prepaid - used
}

// IsView reports whether the call is read-only.
func (c *Counter) IsView() bool { return c.isView }

// Profile exposes the accumulated per-category breakdown.
func (c *Counter) Profile() *types.ProfileData { return &c.profile }

// exceededError picks the error for a crossed ceiling: the burnt ceiling
// yields GasLimitExceeded, the prepaid ceiling yields GasExceeded.
func (c *Counter) exceededError() *types.VMLogicError {
	if c.maxGasBurnt <= c.prepaid {
		return types.NewHostError(types.GasLimitExceeded)
	}
	return types.NewHostError(types.GasExceeded)
}

// deduct charges amount against burnt gas. On a crossed ceiling it clamps
// burnt to the ceiling and fails without applying the excess.
func (c *Counter) deduct(amount types.Gas) *types.VMLogicError {
	newBurnt := c.burnt + amount
	if newBurnt < c.burnt { // overflow: way past any ceiling
		c.burnt = c.gasLimit
		return c.exceededError()
	}
	if newBurnt > c.gasLimit {
		c.burnt = c.gasLimit
		return c.exceededError()
	}
	c.burnt = newBurnt
	return nil
}

// Burn charges a raw gas amount with no profile category. The injected
// wasm instrumentation reports instruction gas through this path; the
// profile recovers it later as the residue.
func (c *Counter) Burn(amount types.Gas) error {
	if err := c.deduct(amount); err != nil {
		return err
	}
	return nil
}

// BurnOpcodes charges for a number of executed opcodes at the flat
// per-instruction price.
func (c *Counter) BurnOpcodes(opcodes uint64, regularOpCost types.Gas) error {
	amount, err := checkedMul(regularOpCost, opcodes)
	if err != nil {
		return err
	}
	return c.Burn(amount)
}

// PayBase charges the base price of a cost kind.
func (c *Counter) PayBase(cost types.ExtCost) error {
	amount := c.costs.Gas(cost)
	if err := c.deduct(amount); err != nil {
		return err
	}
	c.profile.AddExtCost(cost, amount)
	return nil
}

// PayPer charges the per-unit price of a cost kind times count.
func (c *Counter) PayPer(cost types.ExtCost, count uint64) error {
	amount, err := checkedMul(c.costs.Gas(cost), count)
	if err != nil {
		return err
	}
	if derr := c.deduct(amount); derr != nil {
		return derr
	}
	c.profile.AddExtCost(cost, amount)
	return nil
}

// PayActionBase charges an action fee: the send part is burnt now, the
// exec part is reserved against prepaid gas until the receipt runs.
func (c *Counter) PayActionBase(cost types.ActionCost) error {
	fee := c.costs.Fee(cost)
	return c.payAction(cost, fee.Send, fee.Exec)
}

// PayActionPer charges an action fee scaled by count.
func (c *Counter) PayActionPer(cost types.ActionCost, count uint64) error {
	fee := c.costs.Fee(cost)
	send, err := checkedMul(fee.Send, count)
	if err != nil {
		return err
	}
	exec, err := checkedMul(fee.Exec, count)
	if err != nil {
		return err
	}
	return c.payAction(cost, send, exec)
}

func (c *Counter) payAction(cost types.ActionCost, send, exec types.Gas) error {
	if err := c.deduct(send); err != nil {
		return err
	}
	c.profile.AddActionCost(cost, send)
	return c.reserve(exec)
}

// ReserveGas reserves prepaid gas for later execution without burning it.
// Used for the explicit gas attached to created function calls.
func (c *Counter) ReserveGas(amount types.Gas) error {
	return c.reserve(amount)
}

func (c *Counter) reserve(amount types.Gas) error {
	newPromises := c.promisesGas + amount
	if newPromises < c.promisesGas {
		return types.ErrIntegerOverflow
	}
	used := c.burnt + newPromises
	if used < c.burnt {
		return types.ErrIntegerOverflow
	}
	if used > c.prepaid {
		return types.NewHostError(types.GasExceeded)
	}
	c.promisesGas = newPromises
	return nil
}

// BeforeLoadingExecutable charges the fixed part of loading the contract
// executable.
func (c *Counter) BeforeLoadingExecutable() error {
	return c.PayBase(types.ExtCostContractLoadingBase)
}

// AfterLoadingExecutable charges the size-dependent part once the code
// length is known.
func (c *Counter) AfterLoadingExecutable(codeLen uint64) error {
	return c.PayPer(types.ExtCostContractLoadingBytes, codeLen)
}

// checkedMul multiplies a price by a count with 128-bit intermediate
// precision. Overflow past 64 bits is a host bug (the cost table is
// host-controlled), so it surfaces as the fatal inconsistent-state error,
// never as a guest-visible one.
func checkedMul(price types.Gas, count uint64) (types.Gas, error) {
	hi, lo := bits.Mul64(price, count)
	if hi != 0 {
		return 0, types.ErrIntegerOverflow
	}
	return lo, nil
}
