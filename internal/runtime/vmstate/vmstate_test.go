package vmstate

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterwasm/vmhost/internal/runtime/gas"
	"github.com/meterwasm/vmhost/types"
)

// sliceMemory is a plain byte-slice MemoryLike for tests.
type sliceMemory struct {
	data []byte
}

func newSliceMemory(size int) *sliceMemory {
	return &sliceMemory{data: make([]byte, size)}
}

func (m *sliceMemory) FitsMemory(slice types.MemSlice) error {
	end := slice.Ptr + slice.Len
	if end < slice.Ptr || end > uint64(len(m.data)) {
		return fmt.Errorf("slice [%d, %d) out of bounds", slice.Ptr, end)
	}
	return nil
}

func (m *sliceMemory) ViewMemory(slice types.MemSlice) ([]byte, error) {
	if err := m.FitsMemory(slice); err != nil {
		return nil, err
	}
	out := make([]byte, slice.Len)
	copy(out, m.data[slice.Ptr:slice.Ptr+slice.Len])
	return out, nil
}

func (m *sliceMemory) ReadMemory(offset uint64, buf []byte) error {
	view, err := m.ViewMemory(types.MemSlice{Ptr: offset, Len: uint64(len(buf))})
	if err != nil {
		return err
	}
	copy(buf, view)
	return nil
}

func (m *sliceMemory) WriteMemory(offset uint64, buf []byte) error {
	if err := m.FitsMemory(types.MemSlice{Ptr: offset, Len: uint64(len(buf))}); err != nil {
		return err
	}
	copy(m.data[offset:], buf)
	return nil
}

func freeCounter() *gas.Counter {
	costs := types.FreeExtCostsConfig()
	return gas.NewCounter(&costs, math.MaxUint64, math.MaxUint64, false)
}

func testLimits() *types.LimitConfig {
	cfg := types.DefaultConfig()
	return &cfg.LimitConfig
}

func requireHostKind(t *testing.T, err error, kind types.HostErrorKind) *types.HostError {
	t.Helper()
	le, ok := err.(*types.VMLogicError)
	require.True(t, ok, "expected *VMLogicError, got %T (%v)", err, err)
	require.NotNil(t, le.Host)
	require.Equal(t, kind, le.Host.Kind)
	return le.Host
}

func TestMemoryRoundTrip(t *testing.T) {
	mem := NewMemory(newSliceMemory(1024))
	counter := freeCounter()

	require.NoError(t, mem.Set(counter, 16, []byte("hello")))
	data, err := mem.View(counter, types.MemSlice{Ptr: 16, Len: 5})
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	buf := make([]byte, 5)
	require.NoError(t, mem.GetInto(counter, 16, buf))
	assert.Equal(t, []byte("hello"), buf)
}

func TestMemoryOutOfBounds(t *testing.T) {
	mem := NewMemory(newSliceMemory(64))
	counter := freeCounter()

	_, err := mem.View(counter, types.MemSlice{Ptr: 60, Len: 8})
	requireHostKind(t, err, types.MemoryAccessViolation)

	err = mem.Set(counter, 63, []byte{1, 2})
	requireHostKind(t, err, types.MemoryAccessViolation)

	// Wrapping ptr+len must not pass the bounds check.
	_, err = mem.View(counter, types.MemSlice{Ptr: math.MaxUint64, Len: 2})
	requireHostKind(t, err, types.MemoryAccessViolation)
}

func TestMemoryChargesReadAndWrite(t *testing.T) {
	costs := types.FreeExtCostsConfig()
	costs.Costs[types.ExtCostReadMemoryBase] = 100
	costs.Costs[types.ExtCostReadMemoryByte] = 1
	costs.Costs[types.ExtCostWriteMemoryBase] = 200
	costs.Costs[types.ExtCostWriteMemoryByte] = 2
	counter := gas.NewCounter(&costs, math.MaxUint64, math.MaxUint64, false)
	mem := NewMemory(newSliceMemory(64))

	require.NoError(t, mem.Set(counter, 0, []byte("abcd")))
	assert.Equal(t, types.Gas(208), counter.BurntGas())

	_, err := mem.View(counter, types.MemSlice{Ptr: 0, Len: 4})
	require.NoError(t, err)
	assert.Equal(t, types.Gas(208+104), counter.BurntGas())
}

func TestMemoryTypedAccessors(t *testing.T) {
	mem := NewMemory(newSliceMemory(64))
	counter := freeCounter()

	require.NoError(t, mem.SetU64(counter, 8, 0x1122334455667788))
	v64, err := mem.GetU64(counter, 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1122334455667788), v64)

	// The wire order is little-endian.
	b, err := mem.GetU8(counter, 8)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x88), b)
	v16, err := mem.GetU16(counter, 8)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x7788), v16)
	v32, err := mem.GetU32(counter, 8)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x55667788), v32)
}

func TestMemoryBalanceAccessors(t *testing.T) {
	mem := NewMemory(newSliceMemory(64))
	counter := freeCounter()
	want := types.Balance{Lo: 42, Hi: 7}

	require.NoError(t, mem.SetBalance(counter, 0, want))
	got, err := mem.GetBalance(counter, 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRegistersUsageAccounting(t *testing.T) {
	r := NewRegisters()
	counter := freeCounter()
	limits := testLimits()

	require.NoError(t, r.Set(counter, limits, 0, []byte("hello")))
	assert.Equal(t, uint64(5+8), r.MemoryUsage())
	assert.Equal(t, uint64(1), r.Count())

	// Replacing swaps the old usage for the new one.
	require.NoError(t, r.Set(counter, limits, 0, []byte("hi")))
	assert.Equal(t, uint64(2+8), r.MemoryUsage())
	assert.Equal(t, uint64(1), r.Count())

	require.NoError(t, r.Set(counter, limits, 1, []byte("x")))
	assert.Equal(t, uint64(2+8+1+8), r.MemoryUsage())
}

func TestRegistersGet(t *testing.T) {
	r := NewRegisters()
	counter := freeCounter()
	limits := testLimits()

	require.NoError(t, r.Set(counter, limits, 3, []byte("abc")))
	data, err := r.Get(counter, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	length, ok := r.GetLen(3)
	require.True(t, ok)
	assert.Equal(t, uint64(3), length)
	_, ok = r.GetLen(4)
	assert.False(t, ok)

	_, err = r.Get(counter, 4)
	host := requireHostKind(t, err, types.InvalidRegisterID)
	assert.Equal(t, uint64(4), host.Index)
}

func TestRegistersSizeCeiling(t *testing.T) {
	r := NewRegisters()
	counter := freeCounter()
	limits := testLimits()
	limits.MaxRegisterSize = 4

	require.NoError(t, r.Set(counter, limits, 0, []byte("abcd")))
	err := r.Set(counter, limits, 0, []byte("abcde"))
	requireHostKind(t, err, types.MemoryAccessViolation)
	// Failed sets leave the file untouched.
	data, _ := r.GetForFree(0)
	assert.Equal(t, []byte("abcd"), data)
}

func TestRegistersCountCeilingReplaceQuirk(t *testing.T) {
	r := NewRegisters()
	counter := freeCounter()
	limits := testLimits()
	limits.MaxNumberRegisters = 1

	require.NoError(t, r.Set(counter, limits, 0, []byte("a")))
	err := r.Set(counter, limits, 1, []byte("b"))
	requireHostKind(t, err, types.MemoryAccessViolation)

	// At the count ceiling even replacing an existing register fails.
	err = r.Set(counter, limits, 0, []byte("c"))
	requireHostKind(t, err, types.MemoryAccessViolation)
	data, _ := r.GetForFree(0)
	assert.Equal(t, []byte("a"), data)
}

func TestRegistersAggregateUsageCeiling(t *testing.T) {
	r := NewRegisters()
	counter := freeCounter()
	limits := testLimits()
	limits.RegistersMemoryLimit = 20

	require.NoError(t, r.Set(counter, limits, 0, []byte("ab"))) // usage 10
	err := r.Set(counter, limits, 1, []byte("abcd"))            // would be 22
	requireHostKind(t, err, types.MemoryAccessViolation)
	assert.Equal(t, uint64(10), r.MemoryUsage())

	// Replacing within budget still works.
	require.NoError(t, r.Set(counter, limits, 0, []byte("abcdefghij"))) // usage 18
	assert.Equal(t, uint64(18), r.MemoryUsage())
}

func TestGetMemoryOrRegister(t *testing.T) {
	counter := freeCounter()
	raw := newSliceMemory(64)
	copy(raw.data[4:], "mem-data")
	mem := NewMemory(raw)
	regs := NewRegisters()
	require.NoError(t, regs.Set(counter, testLimits(), 7, []byte("reg-data")))

	data, err := GetMemoryOrRegister(counter, mem, regs, 4, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte("mem-data"), data)

	// A length of MaxUint64 routes ptr to the register file.
	data, err = GetMemoryOrRegister(counter, mem, regs, 7, math.MaxUint64)
	require.NoError(t, err)
	assert.Equal(t, []byte("reg-data"), data)

	_, err = GetMemoryOrRegister(counter, mem, regs, 8, math.MaxUint64)
	requireHostKind(t, err, types.InvalidRegisterID)
}
