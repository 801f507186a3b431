// Package vmstate implements the gas-metered views over guest memory and
// the host-owned registers one contract call works with.
package vmstate

import (
	"math"

	"github.com/meterwasm/vmhost/internal/runtime/gas"
	"github.com/meterwasm/vmhost/types"
)

// Memory charges gas for every guest-memory access before delegating to
// the engine-owned capability. Out-of-bounds accesses reported by the
// capability surface as memory-access-violation host errors, never as
// panics.
type Memory struct {
	mem types.MemoryLike
}

// NewMemory wraps an engine-supplied memory capability.
func NewMemory(mem types.MemoryLike) *Memory {
	return &Memory{mem: mem}
}

// View returns the bytes of a guest-memory slice, charging read costs.
func (m *Memory) View(counter *gas.Counter, slice types.MemSlice) ([]byte, error) {
	if err := counter.PayBase(types.ExtCostReadMemoryBase); err != nil {
		return nil, err
	}
	if err := counter.PayPer(types.ExtCostReadMemoryByte, slice.Len); err != nil {
		return nil, err
	}
	data, err := m.mem.ViewMemory(slice)
	if err != nil {
		return nil, types.NewHostError(types.MemoryAccessViolation)
	}
	return data, nil
}

// ViewForFree returns the bytes of a slice without charging gas. For
// diagnostic use only; metered host calls must never reach this.
func (m *Memory) ViewForFree(slice types.MemSlice) ([]byte, error) {
	data, err := m.mem.ViewMemory(slice)
	if err != nil {
		return nil, types.NewHostError(types.MemoryAccessViolation)
	}
	return data, nil
}

// GetInto copies guest memory into buf, charging read costs.
func (m *Memory) GetInto(counter *gas.Counter, offset uint64, buf []byte) error {
	if err := counter.PayBase(types.ExtCostReadMemoryBase); err != nil {
		return err
	}
	if err := counter.PayPer(types.ExtCostReadMemoryByte, uint64(len(buf))); err != nil {
		return err
	}
	if err := m.mem.ReadMemory(offset, buf); err != nil {
		return types.NewHostError(types.MemoryAccessViolation)
	}
	return nil
}

// Set copies buf into guest memory, charging write costs.
func (m *Memory) Set(counter *gas.Counter, offset uint64, buf []byte) error {
	if err := counter.PayBase(types.ExtCostWriteMemoryBase); err != nil {
		return err
	}
	if err := counter.PayPer(types.ExtCostWriteMemoryByte, uint64(len(buf))); err != nil {
		return err
	}
	if err := m.mem.WriteMemory(offset, buf); err != nil {
		return types.NewHostError(types.MemoryAccessViolation)
	}
	return nil
}

// leInt covers the fixed-width integers the typed accessors support.
type leInt interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// memGet reads one little-endian integer from guest memory.
func memGet[T leInt](m *Memory, counter *gas.Counter, offset uint64) (T, error) {
	var v T
	buf := make([]byte, sizeOf(v))
	if err := m.GetInto(counter, offset, buf); err != nil {
		return 0, err
	}
	var acc uint64
	for i := len(buf) - 1; i >= 0; i-- {
		acc = acc<<8 | uint64(buf[i])
	}
	return T(acc), nil
}

// memSet writes one little-endian integer into guest memory.
func memSet[T leInt](m *Memory, counter *gas.Counter, offset uint64, v T) error {
	buf := make([]byte, sizeOf(v))
	for i := range buf {
		buf[i] = byte(v >> (8 * i))
	}
	return m.Set(counter, offset, buf)
}

func sizeOf[T leInt](v T) int {
	switch any(v).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

// GetU8 reads a byte from guest memory.
func (m *Memory) GetU8(counter *gas.Counter, offset uint64) (uint8, error) {
	return memGet[uint8](m, counter, offset)
}

// GetU16 reads a little-endian u16 from guest memory.
func (m *Memory) GetU16(counter *gas.Counter, offset uint64) (uint16, error) {
	return memGet[uint16](m, counter, offset)
}

// GetU32 reads a little-endian u32 from guest memory.
func (m *Memory) GetU32(counter *gas.Counter, offset uint64) (uint32, error) {
	return memGet[uint32](m, counter, offset)
}

// GetU64 reads a little-endian u64 from guest memory.
func (m *Memory) GetU64(counter *gas.Counter, offset uint64) (uint64, error) {
	return memGet[uint64](m, counter, offset)
}

// SetU64 writes a little-endian u64 into guest memory.
func (m *Memory) SetU64(counter *gas.Counter, offset uint64, v uint64) error {
	return memSet(m, counter, offset, v)
}

// GetBalance reads a 16-byte little-endian balance from guest memory.
func (m *Memory) GetBalance(counter *gas.Counter, offset uint64) (types.Balance, error) {
	var buf [16]byte
	if err := m.GetInto(counter, offset, buf[:]); err != nil {
		return types.Balance{}, err
	}
	return types.BalanceFromLittleEndian(buf), nil
}

// SetBalance writes a 16-byte little-endian balance into guest memory.
func (m *Memory) SetBalance(counter *gas.Counter, offset uint64, b types.Balance) error {
	le := b.LittleEndian()
	return m.Set(counter, offset, le[:])
}

// GetMemoryOrRegister resolves the dual addressing convention used by
// nearly every host call taking a buffer: len == MaxUint64 reads register
// ptr, any other len reads the guest-memory slice [ptr, ptr+len).
func GetMemoryOrRegister(counter *gas.Counter, memory *Memory, registers *Registers, ptr, length uint64) ([]byte, error) {
	if length == math.MaxUint64 {
		return registers.Get(counter, ptr)
	}
	return memory.View(counter, types.MemSlice{Ptr: ptr, Len: length})
}
