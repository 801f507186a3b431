package vmstate

import (
	"github.com/meterwasm/vmhost/internal/runtime/gas"
	"github.com/meterwasm/vmhost/types"
)

// registerUsageOverhead is the accounting overhead per register: the size
// of the 64-bit id.
const registerUsageOverhead = 8

// Registers are the call-local, host-owned byte buffers addressed by a
// 64-bit id. Usage of each register is counted as its value's length plus
// eight; the total over all registers is capped by the limit config.
type Registers struct {
	registers        map[uint64][]byte
	totalMemoryUsage uint64
}

// NewRegisters returns an empty register file.
func NewRegisters() *Registers {
	return &Registers{registers: make(map[uint64][]byte)}
}

// Get returns the value of a register, charging read costs. The returned
// slice is borrowed; callers must not retain it across a Set.
func (r *Registers) Get(counter *gas.Counter, registerID uint64) ([]byte, error) {
	data, ok := r.registers[registerID]
	if !ok {
		return nil, types.NewIndexHostError(types.InvalidRegisterID, registerID)
	}
	if err := counter.PayBase(types.ExtCostReadRegisterBase); err != nil {
		return nil, err
	}
	if err := counter.PayPer(types.ExtCostReadRegisterByte, uint64(len(data))); err != nil {
		return nil, err
	}
	return data, nil
}

// GetLen returns the length of a register, or false if it is not set.
func (r *Registers) GetLen(registerID uint64) (uint64, bool) {
	data, ok := r.registers[registerID]
	if !ok {
		return 0, false
	}
	return uint64(len(data)), true
}

// GetForFree returns a register value without charging gas. Diagnostic
// use only.
func (r *Registers) GetForFree(registerID uint64) ([]byte, bool) {
	data, ok := r.registers[registerID]
	return data, ok
}

// Count returns the number of live registers.
func (r *Registers) Count() uint64 { return uint64(len(r.registers)) }

// MemoryUsage returns the accounted total usage.
func (r *Registers) MemoryUsage() uint64 { return r.totalMemoryUsage }

// Set writes a register, charging write costs and enforcing, in order:
// the per-register size ceiling, the register-count ceiling, and the
// aggregate usage ceiling. On any failure the register file is left
// unchanged. The value is copied; callers keep ownership of data.
func (r *Registers) Set(counter *gas.Counter, limits *types.LimitConfig, registerID uint64, data []byte) error {
	dataLen := uint64(len(data))
	if err := counter.PayBase(types.ExtCostWriteRegisterBase); err != nil {
		return err
	}
	if err := counter.PayPer(types.ExtCostWriteRegisterByte, dataLen); err != nil {
		return err
	}
	if err := r.checkSet(limits, registerID, dataLen); err != nil {
		return err
	}
	r.registers[registerID] = append([]byte(nil), data...)
	return nil
}

// checkSet validates the limits and commits the usage bookkeeping.
func (r *Registers) checkSet(limits *types.LimitConfig, registerID uint64, dataLen uint64) error {
	if dataLen > limits.MaxRegisterSize {
		return types.NewHostError(types.MemoryAccessViolation)
	}
	// Fun fact: if we are at the limit and we replace a register, we'll
	// fail even though we should be succeeding. This bug is now part of
	// the protocol so we can't change it.
	if uint64(len(r.registers)) >= limits.MaxNumberRegisters {
		return types.NewHostError(types.MemoryAccessViolation)
	}
	var oldUsage uint64
	if old, ok := r.registers[registerID]; ok {
		oldUsage = uint64(len(old)) + registerUsageOverhead
	}
	newUsage := dataLen + registerUsageOverhead
	if newUsage < dataLen {
		return types.NewHostError(types.MemoryAccessViolation)
	}
	usage := r.totalMemoryUsage - oldUsage + newUsage
	if usage > limits.RegistersMemoryLimit {
		return types.NewHostError(types.MemoryAccessViolation)
	}
	r.totalMemoryUsage = usage
	return nil
}
