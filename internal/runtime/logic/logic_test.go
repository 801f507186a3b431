package logic

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterwasm/vmhost/internal/runtime/extmock"
	"github.com/meterwasm/vmhost/types"
)

// testMemory is a plain byte-slice MemoryLike for logic tests.
type testMemory struct {
	data []byte
}

func (m *testMemory) FitsMemory(slice types.MemSlice) error {
	end := slice.Ptr + slice.Len
	if end < slice.Ptr || end > uint64(len(m.data)) {
		return fmt.Errorf("slice [%d, %d) out of bounds", slice.Ptr, end)
	}
	return nil
}

func (m *testMemory) ViewMemory(slice types.MemSlice) ([]byte, error) {
	if err := m.FitsMemory(slice); err != nil {
		return nil, err
	}
	out := make([]byte, slice.Len)
	copy(out, m.data[slice.Ptr:slice.Ptr+slice.Len])
	return out, nil
}

func (m *testMemory) ReadMemory(offset uint64, buf []byte) error {
	view, err := m.ViewMemory(types.MemSlice{Ptr: offset, Len: uint64(len(buf))})
	if err != nil {
		return err
	}
	copy(buf, view)
	return nil
}

func (m *testMemory) WriteMemory(offset uint64, buf []byte) error {
	if err := m.FitsMemory(types.MemSlice{Ptr: offset, Len: uint64(len(buf))}); err != nil {
		return err
	}
	copy(m.data[offset:], buf)
	return nil
}

type testEnv struct {
	logic  *VMLogic
	ext    *extmock.External
	mem    *testMemory
	config *types.Config
}

func testContext() *types.VMContext {
	return &types.VMContext{
		CurrentAccountID:     "alice.test",
		SignerAccountID:      "bob.test",
		SignerAccountPK:      append([]byte{0}, make([]byte, 32)...),
		PredecessorAccountID: "carol.test",
		Input:                []byte(`{"a":1}`),
		BlockHeight:          10,
		BlockTimestamp:       42_000_000_000,
		EpochHeight:          1,
		AccountBalance:       types.Balance{Lo: 100},
		AccountLockedBalance: types.Balance{Lo: 50},
		StorageUsage:         11,
		AttachedDeposit:      types.Balance{Lo: 10},
		PrepaidGas:           300_000_000_000_000,
		RandomSeed:           make([]byte, 32),
	}
}

// newTestEnv builds a logic instance over an in-memory external and a
// 64 KiB guest memory. mutate may adjust the context or config first.
func newTestEnv(t *testing.T, mutate func(*types.VMContext, *types.Config)) *testEnv {
	t.Helper()
	context := testContext()
	config := types.DefaultConfig()
	if mutate != nil {
		mutate(context, &config)
	}
	ext := extmock.NewExternal()
	mem := &testMemory{data: make([]byte, 64*1024)}
	l, err := New(ext, mem, context, &config)
	require.NoError(t, err)
	return &testEnv{logic: l, ext: ext, mem: mem, config: &config}
}

// write places data into guest memory and returns its offset.
func (e *testEnv) write(offset uint64, data []byte) uint64 {
	copy(e.mem.data[offset:], data)
	return offset
}

// register returns the raw value of a register.
func (e *testEnv) register(t *testing.T, id uint64) []byte {
	t.Helper()
	data, ok := e.logic.Registers().GetForFree(id)
	require.True(t, ok, "register %d not set", id)
	return data
}

func requireHostErr(t *testing.T, err error, kind types.HostErrorKind) *types.HostError {
	t.Helper()
	le, ok := err.(*types.VMLogicError)
	require.True(t, ok, "expected *VMLogicError, got %T (%v)", err, err)
	require.NotNil(t, le.Host, "expected host error, got %v", le)
	require.Equal(t, kind, le.Host.Kind, "unexpected host error: %v", le.Host)
	return le.Host
}

func TestWriteAndReadRegister(t *testing.T) {
	env := newTestEnv(t, nil)
	ptr := env.write(0, []byte("payload"))

	require.NoError(t, env.logic.WriteRegister(1, 7, ptr))
	assert.Equal(t, []byte("payload"), env.register(t, 1))

	require.NoError(t, env.logic.ReadRegister(1, 100))
	assert.Equal(t, []byte("payload"), env.mem.data[100:107])

	length, err := env.logic.RegisterLen(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), length)
}

func TestRegisterLenMissingIsSentinel(t *testing.T) {
	env := newTestEnv(t, nil)
	length, err := env.logic.RegisterLen(99)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), length)
}

func TestReadMissingRegisterFails(t *testing.T) {
	env := newTestEnv(t, nil)
	err := env.logic.ReadRegister(99, 0)
	host := requireHostErr(t, err, types.InvalidRegisterID)
	assert.Equal(t, uint64(99), host.Index)
}

func TestContextAccessors(t *testing.T) {
	env := newTestEnv(t, nil)

	require.NoError(t, env.logic.CurrentAccountID(0))
	assert.Equal(t, []byte("alice.test"), env.register(t, 0))

	require.NoError(t, env.logic.SignerAccountID(1))
	assert.Equal(t, []byte("bob.test"), env.register(t, 1))

	require.NoError(t, env.logic.PredecessorAccountID(2))
	assert.Equal(t, []byte("carol.test"), env.register(t, 2))

	require.NoError(t, env.logic.SignerAccountPK(3))
	assert.Len(t, env.register(t, 3), 33)

	require.NoError(t, env.logic.Input(4))
	assert.Equal(t, []byte(`{"a":1}`), env.register(t, 4))

	require.NoError(t, env.logic.RandomSeed(5))
	assert.Len(t, env.register(t, 5), 32)

	height, err := env.logic.BlockIndex()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), height)

	ts, err := env.logic.BlockTimestamp()
	require.NoError(t, err)
	assert.Equal(t, uint64(42_000_000_000), ts)

	epoch, err := env.logic.EpochHeight()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), epoch)

	usage, err := env.logic.StorageUsage()
	require.NoError(t, err)
	assert.Equal(t, uint64(11), usage)
}

func TestAccountBalanceIncludesDeposit(t *testing.T) {
	env := newTestEnv(t, nil)

	require.NoError(t, env.logic.AccountBalance(0))
	var buf [16]byte
	copy(buf[:], env.mem.data[:16])
	assert.Equal(t, types.Balance{Lo: 110}, types.BalanceFromLittleEndian(buf))

	require.NoError(t, env.logic.AccountLockedBalance(16))
	copy(buf[:], env.mem.data[16:32])
	assert.Equal(t, types.Balance{Lo: 50}, types.BalanceFromLittleEndian(buf))

	require.NoError(t, env.logic.AttachedDeposit(32))
	copy(buf[:], env.mem.data[32:48])
	assert.Equal(t, types.Balance{Lo: 10}, types.BalanceFromLittleEndian(buf))
}

func TestGasIntrospection(t *testing.T) {
	env := newTestEnv(t, nil)

	prepaid, err := env.logic.PrepaidGas()
	require.NoError(t, err)
	assert.Equal(t, types.Gas(300_000_000_000_000), prepaid)

	used, err := env.logic.UsedGas()
	require.NoError(t, err)
	// The call charges its own base cost before reading the counter.
	assert.GreaterOrEqual(t, used, env.config.ExtCosts.Gas(types.ExtCostBase))
	assert.Equal(t, env.logic.GasCounter().UsedGas(), used)
}

func TestValidatorStake(t *testing.T) {
	env := newTestEnv(t, nil)
	env.ext.SetValidator("val.test", types.Balance{Lo: 7_000})
	ptr := env.write(0, []byte("val.test"))

	require.NoError(t, env.logic.ValidatorStake(8, ptr, 64))
	var buf [16]byte
	copy(buf[:], env.mem.data[64:80])
	assert.Equal(t, types.Balance{Lo: 7_000}, types.BalanceFromLittleEndian(buf))

	// Unknown validators read as zero stake, not as an error.
	ptr = env.write(100, []byte("nobody.test"))
	require.NoError(t, env.logic.ValidatorStake(11, ptr, 64))
	copy(buf[:], env.mem.data[64:80])
	assert.Equal(t, types.Balance{}, types.BalanceFromLittleEndian(buf))

	require.NoError(t, env.logic.ValidatorTotalStake(64))
	copy(buf[:], env.mem.data[64:80])
	assert.Equal(t, types.Balance{Lo: 7_000}, types.BalanceFromLittleEndian(buf))
}

func TestInvalidAccountID(t *testing.T) {
	env := newTestEnv(t, nil)
	ptr := env.write(0, []byte("Not..Valid"))
	err := env.logic.ValidatorStake(10, ptr, 64)
	requireHostErr(t, err, types.InvalidAccountID)
}

func viewEnv(t *testing.T) *testEnv {
	return newTestEnv(t, func(ctx *types.VMContext, _ *types.Config) {
		viewCfg := types.DefaultViewConfig()
		ctx.ViewConfig = &viewCfg
	})
}

func TestViewCallProhibitions(t *testing.T) {
	env := viewEnv(t)
	l := env.logic

	cases := []struct {
		method string
		call   func() error
	}{
		{"signer_account_id", func() error { return l.SignerAccountID(0) }},
		{"signer_account_pk", func() error { return l.SignerAccountPK(0) }},
		{"predecessor_account_id", func() error { return l.PredecessorAccountID(0) }},
		{"attached_deposit", func() error { return l.AttachedDeposit(0) }},
		{"prepaid_gas", func() error { _, err := l.PrepaidGas(); return err }},
		{"used_gas", func() error { _, err := l.UsedGas(); return err }},
		{"storage_write", func() error { _, err := l.StorageWrite(1, 0, 1, 0, 0); return err }},
		{"storage_remove", func() error { _, err := l.StorageRemove(1, 0, 0); return err }},
		{"promise_create", func() error { _, err := l.PromiseCreate(2, 0, 1, 0, 0, 0, 0, 0); return err }},
		{"promise_batch_create", func() error { _, err := l.PromiseBatchCreate(2, 0); return err }},
		{"promise_results_count", func() error { _, err := l.PromiseResultsCount(); return err }},
		{"promise_return", func() error { return l.PromiseReturn(0) }},
		{"promise_yield_create", func() error { _, err := l.PromiseYieldCreate(1, 0, 0, 0, 0, 0, 0); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			err := tc.call()
			host := requireHostErr(t, err, types.ProhibitedInView)
			assert.Equal(t, tc.method+" is not allowed in view calls", host.Error())
		})
	}
}

func TestViewCallStillReadsContext(t *testing.T) {
	env := viewEnv(t)

	require.NoError(t, env.logic.CurrentAccountID(0))
	assert.Equal(t, []byte("alice.test"), env.register(t, 0))

	_, err := env.logic.StorageRead(1, env.write(0, []byte("k")), 1)
	require.NoError(t, err)
}
