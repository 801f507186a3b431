package types

import (
	"fmt"
	"strings"

	"github.com/shamaton/msgpack/v2"
)

// ProfileData is the per-category gas breakdown of one call.
type ProfileData struct {
	// ActionsProfile is gas spent on sending or executing actions.
	ActionsProfile [NumActionCosts]Gas `msgpack:"actions_profile" json:"actions_profile"`
	// ExtProfile is non-action gas spent in host calls.
	ExtProfile [NumExtCosts]Gas `msgpack:"ext_profile" json:"ext_profile"`
	// WasmGas is gas spent executing wasm instructions.
	WasmGas Gas `msgpack:"wasm_gas" json:"wasm_gas"`
}

// AddActionCost accumulates gas into an action category, saturating.
func (p *ProfileData) AddActionCost(cost ActionCost, value Gas) {
	p.ActionsProfile[cost] = saturatingAdd(p.ActionsProfile[cost], value)
}

// AddExtCost accumulates gas into a host-call category, saturating.
func (p *ProfileData) AddExtCost(cost ExtCost, value Gas) {
	p.ExtProfile[cost] = saturatingAdd(p.ExtProfile[cost], value)
}

// HostGas is the total gas attributed to host calls.
func (p *ProfileData) HostGas() Gas {
	var sum Gas
	for _, g := range p.ExtProfile {
		sum = saturatingAdd(sum, g)
	}
	return sum
}

// ActionGas is the total gas attributed to actions.
func (p *ProfileData) ActionGas() Gas {
	var sum Gas
	for _, g := range p.ActionsProfile {
		sum = saturatingAdd(sum, g)
	}
	return sum
}

// ComputeWasmInstructionCost derives the wasm instruction gas as the
// residue of the total burnt gas. Wasm instructions are the hottest cost
// and are charged through the injected instrumentation rather than
// profiled individually, so the profile recovers them by subtraction at
// the end of the call.
func (p *ProfileData) ComputeWasmInstructionCost(totalGasBurnt Gas) {
	p.WasmGas = saturatingSub(saturatingSub(totalGasBurnt, p.ActionGas()), p.HostGas())
}

// Merge accumulates another profile into this one, saturating.
func (p *ProfileData) Merge(other *ProfileData) {
	for i := range p.ActionsProfile {
		p.ActionsProfile[i] = saturatingAdd(p.ActionsProfile[i], other.ActionsProfile[i])
	}
	for i := range p.ExtProfile {
		p.ExtProfile[i] = saturatingAdd(p.ExtProfile[i], other.ExtProfile[i])
	}
	p.WasmGas = saturatingAdd(p.WasmGas, other.WasmGas)
}

// MarshalBinary encodes the profile as a msgpack array triple. The wire
// layout is positional; new cost kinds may only be appended.
func (p *ProfileData) MarshalBinary() ([]byte, error) {
	return msgpack.MarshalAsArray(p)
}

// UnmarshalBinary decodes the msgpack array triple.
func (p *ProfileData) UnmarshalBinary(data []byte) error {
	return msgpack.UnmarshalAsArray(data, p)
}

func (p *ProfileData) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "------------------------------\n")
	fmt.Fprintf(&b, "Action gas: %d\n", p.ActionGas())
	fmt.Fprintf(&b, "------ Host functions --------\n")
	for c := ExtCost(0); c < NumExtCosts; c++ {
		if g := p.ExtProfile[c]; g != 0 {
			fmt.Fprintf(&b, "%s -> %d\n", c, g)
		}
	}
	fmt.Fprintf(&b, "------ Actions ---------------\n")
	for c := ActionCost(0); c < NumActionCosts; c++ {
		if g := p.ActionsProfile[c]; g != 0 {
			fmt.Fprintf(&b, "%s -> %d\n", c, g)
		}
	}
	fmt.Fprintf(&b, "------------------------------")
	return b.String()
}

func saturatingAdd(a, b Gas) Gas {
	if s := a + b; s >= a {
		return s
	}
	return ^Gas(0)
}

func saturatingSub(a, b Gas) Gas {
	if a < b {
		return 0
	}
	return a - b
}

// ReturnData is what a call hands back: a value, a promise to be
// awaited, or nothing.
type ReturnData struct {
	// Value is set when the call returned bytes.
	Value []byte `json:"value,omitempty"`
	// ReceiptIndex is set when the call returned a promise.
	ReceiptIndex *ReceiptIndex `json:"receipt_index,omitempty"`
}

// VMOutcome is the final result of one contract call, derived once from
// the gas counter and the logic side effects.
type VMOutcome struct {
	// Balance and StorageUsage are the account state after the call.
	Balance      Balance      `json:"balance"`
	StorageUsage StorageUsage `json:"storage_usage"`
	// ReturnData is the call result.
	ReturnData ReturnData `json:"return_data"`
	// BurntGas is irrecoverable; UsedGas additionally includes gas
	// reserved for receipts created by this call.
	BurntGas Gas `json:"burnt_gas"`
	UsedGas  Gas `json:"used_gas"`
	// ComputeUsage tracks compute cost, which may diverge from gas for
	// undercharged operations.
	ComputeUsage Compute `json:"compute_usage"`
	// Logs collected during execution.
	Logs []string `json:"logs"`
	// Profile is the per-category breakdown.
	Profile ProfileData `json:"profile"`
	// Aborted is set when the call failed with a guest-visible error.
	Aborted *FunctionCallError `json:"aborted,omitempty"`
}
