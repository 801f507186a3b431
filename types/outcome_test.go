package types

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileAccumulation(t *testing.T) {
	var p ProfileData
	p.AddExtCost(ExtCostBase, 10)
	p.AddExtCost(ExtCostBase, 5)
	p.AddExtCost(ExtCostLogBase, 2)
	p.AddActionCost(ActionCostTransfer, 7)

	assert.Equal(t, Gas(15), p.ExtProfile[ExtCostBase])
	assert.Equal(t, Gas(17), p.HostGas())
	assert.Equal(t, Gas(7), p.ActionGas())
}

func TestProfileSaturates(t *testing.T) {
	var p ProfileData
	p.AddExtCost(ExtCostBase, math.MaxUint64)
	p.AddExtCost(ExtCostBase, 1)
	assert.Equal(t, Gas(math.MaxUint64), p.ExtProfile[ExtCostBase])
}

func TestComputeWasmInstructionCost(t *testing.T) {
	var p ProfileData
	p.AddExtCost(ExtCostBase, 10)
	p.AddActionCost(ActionCostTransfer, 7)

	p.ComputeWasmInstructionCost(100)
	assert.Equal(t, Gas(83), p.WasmGas)

	// Burnt below the profiled total clamps to zero instead of wrapping.
	p.ComputeWasmInstructionCost(5)
	assert.Equal(t, Gas(0), p.WasmGas)
}

func TestProfileMerge(t *testing.T) {
	var a, b ProfileData
	a.AddExtCost(ExtCostBase, 10)
	a.WasmGas = 3
	b.AddExtCost(ExtCostBase, 5)
	b.AddActionCost(ActionCostTransfer, 2)
	b.WasmGas = 4

	a.Merge(&b)
	assert.Equal(t, Gas(15), a.ExtProfile[ExtCostBase])
	assert.Equal(t, Gas(2), a.ActionsProfile[ActionCostTransfer])
	assert.Equal(t, Gas(7), a.WasmGas)
}

func TestProfileBinaryRoundTrip(t *testing.T) {
	var p ProfileData
	p.AddExtCost(ExtCostStorageWriteBase, 42)
	p.AddActionCost(ActionCostNewActionReceipt, 9)
	p.WasmGas = 1_000

	data, err := p.MarshalBinary()
	require.NoError(t, err)

	var decoded ProfileData
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, p, decoded)
}

func TestProfileStringListsNonZeroCosts(t *testing.T) {
	var p ProfileData
	p.AddExtCost(ExtCostStorageWriteBase, 42)
	out := p.String()
	assert.True(t, strings.Contains(out, "storage_write_base -> 42"), out)
	assert.False(t, strings.Contains(out, "storage_read_base"), out)
}
