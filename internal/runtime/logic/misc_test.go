package logic

import (
	"math"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterwasm/vmhost/types"
)

func utf16le(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 2*len(units))
	for i, u := range units {
		out[2*i] = byte(u)
		out[2*i+1] = byte(u >> 8)
	}
	return out
}

func TestLogUTF8(t *testing.T) {
	env := newTestEnv(t, nil)
	ptr := env.write(0, []byte("hello world"))

	require.NoError(t, env.logic.LogUTF8(11, ptr))
	assert.Equal(t, []string{"hello world"}, env.logic.Logs())
}

func TestLogUTF8NulTerminated(t *testing.T) {
	env := newTestEnv(t, nil)
	ptr := env.write(0, append([]byte("terminated"), 0, 'x'))

	require.NoError(t, env.logic.LogUTF8(math.MaxUint64, ptr))
	assert.Equal(t, []string{"terminated"}, env.logic.Logs())
}

func TestLogBadUTF8(t *testing.T) {
	env := newTestEnv(t, nil)
	ptr := env.write(0, []byte{0xff, 0xfe, 0xfd})

	err := env.logic.LogUTF8(3, ptr)
	host := requireHostErr(t, err, types.BadUTF8)
	assert.Equal(t, "String encoding is bad UTF-8 sequence.", host.Error())
}

func TestLogUTF16(t *testing.T) {
	env := newTestEnv(t, nil)
	ptr := env.write(0, utf16le("héllo \U0001F600"))

	require.NoError(t, env.logic.LogUTF16(uint64(len(utf16le("héllo \U0001F600"))), ptr))
	assert.Equal(t, []string{"héllo \U0001F600"}, env.logic.Logs())
}

func TestLogUTF16NulTerminated(t *testing.T) {
	env := newTestEnv(t, nil)
	data := append(utf16le("wide"), 0, 0, 'x', 0)
	ptr := env.write(0, data)

	require.NoError(t, env.logic.LogUTF16(math.MaxUint64, ptr))
	assert.Equal(t, []string{"wide"}, env.logic.Logs())
}

func TestLogUTF16OddLength(t *testing.T) {
	env := newTestEnv(t, nil)
	err := env.logic.LogUTF16(3, 0)
	requireHostErr(t, err, types.BadUTF16)
}

func TestLogUTF16UnpairedSurrogate(t *testing.T) {
	env := newTestEnv(t, nil)
	// A lone high surrogate: 0xD800 little-endian.
	ptr := env.write(0, []byte{0x00, 0xD8})
	err := env.logic.LogUTF16(2, ptr)
	requireHostErr(t, err, types.BadUTF16)
}

func TestLogCountLimit(t *testing.T) {
	env := newTestEnv(t, func(_ *types.VMContext, cfg *types.Config) {
		cfg.LimitConfig.MaxNumberLogs = 2
	})
	ptr := env.write(0, []byte("x"))

	require.NoError(t, env.logic.LogUTF8(1, ptr))
	require.NoError(t, env.logic.LogUTF8(1, ptr))
	err := env.logic.LogUTF8(1, ptr)
	host := requireHostErr(t, err, types.NumberOfLogsExceeded)
	assert.Equal(t, "The number of logs will exceed the limit 2", host.Error())
}

func TestTotalLogLengthLimit(t *testing.T) {
	env := newTestEnv(t, func(_ *types.VMContext, cfg *types.Config) {
		cfg.LimitConfig.MaxTotalLogLength = 10
	})
	ptr := env.write(0, []byte("123456"))

	require.NoError(t, env.logic.LogUTF8(6, ptr))
	err := env.logic.LogUTF8(6, ptr)
	host := requireHostErr(t, err, types.TotalLogLengthExceeded)
	assert.Equal(t, uint64(12), host.Length)
	assert.Equal(t, uint64(10), host.Limit)
}

func TestValueReturn(t *testing.T) {
	env := newTestEnv(t, nil)
	ptr := env.write(0, []byte("result"))

	require.NoError(t, env.logic.ValueReturn(6, ptr))
	assert.Equal(t, []byte("result"), env.logic.ReturnData().Value)
}

func TestValueReturnTooLong(t *testing.T) {
	env := newTestEnv(t, func(_ *types.VMContext, cfg *types.Config) {
		cfg.LimitConfig.MaxLengthReturnedData = 3
	})
	ptr := env.write(0, []byte("long"))
	err := env.logic.ValueReturn(4, ptr)
	requireHostErr(t, err, types.ReturnedValueLengthExceeded)
}

func TestValueReturnPaysDataReceiptFees(t *testing.T) {
	env := newTestEnv(t, func(ctx *types.VMContext, _ *types.Config) {
		ctx.OutputDataReceivers = []types.AccountID{"a.test", "b.test"}
	})
	ptr := env.write(0, []byte("result"))

	require.NoError(t, env.logic.ValueReturn(6, ptr))
	profile := env.logic.GasCounter().Profile()
	baseFee := env.config.ExtCosts.Fee(types.ActionCostNewDataReceiptBase)
	byteFee := env.config.ExtCosts.Fee(types.ActionCostNewDataReceiptByte)
	assert.Equal(t, 2*baseFee.Send, profile.ActionsProfile[types.ActionCostNewDataReceiptBase])
	assert.Equal(t, 2*6*byteFee.Send, profile.ActionsProfile[types.ActionCostNewDataReceiptByte])
}

func TestPanic(t *testing.T) {
	env := newTestEnv(t, nil)
	err := env.logic.Panic()
	host := requireHostErr(t, err, types.GuestPanic)
	assert.Equal(t, "Smart contract panicked: explicit guest panic", host.Error())
}

func TestPanicUTF8(t *testing.T) {
	env := newTestEnv(t, nil)
	ptr := env.write(0, []byte("boom"))
	err := env.logic.PanicUTF8(4, ptr)
	host := requireHostErr(t, err, types.GuestPanic)
	assert.Equal(t, "Smart contract panicked: boom", host.Error())
}

func TestAbort(t *testing.T) {
	env := newTestEnv(t, nil)

	// AssemblyScript layout: a u32 byte length at ptr-4, UTF-16LE text at
	// ptr.
	msg := utf16le("assertion failed")
	env.write(4, msg)
	env.mem.data[0] = byte(len(msg))
	file := utf16le("index.ts")
	env.write(104, file)
	env.mem.data[100] = byte(len(file))

	err := env.logic.Abort(4, 104, 10, 2)
	host := requireHostErr(t, err, types.GuestPanic)
	want := `assertion failed, filename: "index.ts" line: 10 col: 2`
	assert.Equal(t, "Smart contract panicked: "+want, host.Error())
	assert.Equal(t, []string{"ABORT: " + want}, env.logic.Logs())
}

func TestAbortRejectsLowPointers(t *testing.T) {
	env := newTestEnv(t, nil)
	err := env.logic.Abort(2, 100, 0, 0)
	requireHostErr(t, err, types.BadUTF16)
}

func TestGasBurnsOpcodes(t *testing.T) {
	env := newTestEnv(t, nil)
	before := env.logic.GasCounter().BurntGas()
	require.NoError(t, env.logic.Gas(5))
	assert.Equal(t, 5*env.config.RegularOpCost, env.logic.GasCounter().BurntGas()-before)
}

func TestFiniteWasmGas(t *testing.T) {
	env := newTestEnv(t, nil)
	before := env.logic.GasCounter().BurntGas()
	require.NoError(t, env.logic.FiniteWasmGas(12345))
	assert.Equal(t, types.Gas(12345), env.logic.GasCounter().BurntGas()-before)
}

func TestFiniteWasmStack(t *testing.T) {
	env := newTestEnv(t, func(_ *types.VMContext, cfg *types.Config) {
		cfg.LimitConfig.MaxStackHeight = 200
	})
	l := env.logic

	require.NoError(t, l.FiniteWasmStack(0, 150))
	err := l.FiniteWasmStack(0, 100)
	host := requireHostErr(t, err, types.GuestPanic)
	assert.Equal(t, "Smart contract panicked: stack overflow", host.Error())

	// Unwinding restores the budget.
	require.NoError(t, l.FiniteWasmUnstack(0, 150))
	require.NoError(t, l.FiniteWasmStack(64, 136))
}

func TestFiniteWasmStackOverflowingSum(t *testing.T) {
	env := newTestEnv(t, nil)
	err := env.logic.FiniteWasmStack(math.MaxUint64, 2)
	requireHostErr(t, err, types.GuestPanic)
}

func TestOutcomeSuccess(t *testing.T) {
	env := newTestEnv(t, nil)
	ptr := env.write(0, []byte("ret"))
	require.NoError(t, env.logic.ValueReturn(3, ptr))
	require.NoError(t, env.logic.LogUTF8(3, env.write(16, []byte("log"))))

	outcome := env.logic.Outcome(nil)
	assert.Nil(t, outcome.Aborted)
	assert.Equal(t, []byte("ret"), outcome.ReturnData.Value)
	assert.Equal(t, []string{"log"}, outcome.Logs)
	assert.Equal(t, types.Balance{Lo: 110}, outcome.Balance)
	assert.Equal(t, types.StorageUsage(11), outcome.StorageUsage)
	assert.Equal(t, outcome.BurntGas, outcome.UsedGas)
	assert.Equal(t, outcome.BurntGas, outcome.ComputeUsage)
	// Host-call charges are profiled, leaving no instruction residue.
	assert.Equal(t, types.Gas(0), outcome.Profile.WasmGas)
	assert.Equal(t, outcome.BurntGas, outcome.Profile.HostGas()+outcome.Profile.ActionGas())
}

func TestOutcomeAbortDropsReturnDataAndReservedGas(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.logic.ValueReturn(3, env.write(0, []byte("ret"))))
	require.NoError(t, env.logic.GasCounter().ReserveGas(1_000_000))

	outcome, err := env.logic.OutcomeFromError(types.NewHostErrorf(types.GuestPanic, "boom"))
	require.NoError(t, err)
	require.NotNil(t, outcome.Aborted)
	assert.Equal(t, "Smart contract panicked: boom", outcome.Aborted.Error())
	assert.Nil(t, outcome.ReturnData.Value)
	assert.Equal(t, outcome.BurntGas, outcome.UsedGas)
}

func TestOutcomeFromFatalError(t *testing.T) {
	env := newTestEnv(t, nil)
	outcome, err := env.logic.OutcomeFromError(types.ErrIntegerOverflow)
	assert.Nil(t, outcome)
	require.Error(t, err)
	_, ok := err.(*types.VMRunnerError)
	assert.True(t, ok)
}

func TestWasmGasResidue(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.logic.FiniteWasmGas(77_777))
	require.NoError(t, env.logic.CurrentAccountID(0))

	outcome := env.logic.Outcome(nil)
	assert.Equal(t, types.Gas(77_777), outcome.Profile.WasmGas)
}

func TestBurnGas(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.logic.BurnGas(12_345))
	assert.Equal(t, types.Gas(12_345), env.logic.GasCounter().BurntGas())

	// The explicit burn surfaces as instruction cost, not a host-call
	// category.
	outcome := env.logic.Outcome(nil)
	assert.Equal(t, types.Gas(12_345), outcome.Profile.WasmGas)
}
