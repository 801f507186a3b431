package types

import "math"

// WasmPageSize is the size of one linear-memory page.
const WasmPageSize = 64 * 1024

// LimitConfig gathers every hard resource limit the runtime enforces.
type LimitConfig struct {
	// MaxGasBurnt is the ceiling on gas burnt by one function call.
	MaxGasBurnt Gas `json:"max_gas_burnt"`
	// MaxStackHeight bounds the instrumented operand+frame stack, in bytes.
	MaxStackHeight uint64 `json:"max_stack_height"`
	// InitialMemoryPages and MaxMemoryPages bound the imported memory.
	InitialMemoryPages uint32 `json:"initial_memory_pages"`
	MaxMemoryPages     uint32 `json:"max_memory_pages"`
	// RegistersMemoryLimit caps the aggregate register usage (len+8 each).
	RegistersMemoryLimit uint64 `json:"registers_memory_limit"`
	// MaxRegisterSize caps one register value.
	MaxRegisterSize uint64 `json:"max_register_size"`
	// MaxNumberRegisters caps the register count.
	MaxNumberRegisters uint64 `json:"max_number_registers"`
	// MaxNumberLogs caps the number of log entries per call.
	MaxNumberLogs uint64 `json:"max_number_logs"`
	// MaxTotalLogLength caps the summed length of all log entries.
	MaxTotalLogLength uint64 `json:"max_total_log_length"`
	// MaxTotalPrepaidGas caps gas attached to created function calls.
	MaxTotalPrepaidGas Gas `json:"max_total_prepaid_gas"`
	// MaxActionsPerReceipt caps actions appended to one receipt.
	MaxActionsPerReceipt uint64 `json:"max_actions_per_receipt"`
	// MaxLengthMethodName caps a single method name.
	MaxLengthMethodName uint64 `json:"max_length_method_name"`
	// MaxNumberBytesMethodNames caps a method-name list.
	MaxNumberBytesMethodNames uint64 `json:"max_number_bytes_method_names"`
	// MaxArgumentsLength caps function-call arguments.
	MaxArgumentsLength uint64 `json:"max_arguments_length"`
	// MaxLengthReturnedData caps value_return payloads.
	MaxLengthReturnedData uint64 `json:"max_length_returned_data"`
	// MaxContractSize caps DeployContract action code.
	MaxContractSize uint64 `json:"max_contract_size"`
	// MaxLengthStorageKey and MaxLengthStorageValue cap storage entries.
	MaxLengthStorageKey   uint64 `json:"max_length_storage_key"`
	MaxLengthStorageValue uint64 `json:"max_length_storage_value"`
	// MaxPromisesPerFunctionCallAction caps promises created per call.
	MaxPromisesPerFunctionCallAction uint64 `json:"max_promises_per_function_call_action"`
	// MaxNumberInputDataDependencies caps promise_and fan-in.
	MaxNumberInputDataDependencies uint64 `json:"max_number_input_data_dependencies"`
	// MaxFunctionsNumberPerContract and MaxLocalsPerContract bound the
	// module shape during preparation.
	MaxFunctionsNumberPerContract uint64 `json:"max_functions_number_per_contract"`
	MaxLocalsPerContract          uint64 `json:"max_locals_per_contract"`
	// YieldPayloadSizeLimit caps promise_yield_resume payloads.
	YieldPayloadSizeLimit uint64 `json:"yield_payload_size_limit"`
	// PerReceiptStorageProofSizeLimit caps the recorded trie proof.
	PerReceiptStorageProofSizeLimit uint64 `json:"per_receipt_storage_proof_size_limit"`
}

// Config is the full runtime configuration: limits, the cost table and
// the preparation knobs.
type Config struct {
	LimitConfig LimitConfig    `json:"limit_config"`
	ExtCosts    ExtCostsConfig `json:"ext_costs"`
	// RegularOpCost is the flat gas cost of one wasm instruction, charged
	// through the instrumentation the preparer injects.
	RegularOpCost Gas `json:"regular_op_cost"`
	// GrowMemCost is the per-page cost of memory.grow.
	GrowMemCost Gas `json:"grow_mem_cost"`
	// DiscardCustomSections drops custom sections during preparation.
	DiscardCustomSections bool `json:"discard_custom_sections"`
	// ImplicitAccountCreation permits 64-char hex account ids as
	// transfer-only receivers.
	ImplicitAccountCreation bool `json:"implicit_account_creation"`
}

// DefaultConfig returns the protocol configuration.
func DefaultConfig() Config {
	return Config{
		LimitConfig: LimitConfig{
			MaxGasBurnt:                      300_000_000_000_000,
			MaxStackHeight:                   262_144,
			InitialMemoryPages:               1_024,
			MaxMemoryPages:                   2_048,
			RegistersMemoryLimit:             1 << 30,
			MaxRegisterSize:                  100 << 20,
			MaxNumberRegisters:               100,
			MaxNumberLogs:                    100,
			MaxTotalLogLength:                16 * 1024,
			MaxTotalPrepaidGas:               300_000_000_000_000,
			MaxActionsPerReceipt:             100,
			MaxLengthMethodName:              256,
			MaxNumberBytesMethodNames:        2_000,
			MaxArgumentsLength:               4 << 20,
			MaxLengthReturnedData:            4 << 20,
			MaxContractSize:                  4 << 20,
			MaxLengthStorageKey:              2_048,
			MaxLengthStorageValue:            4 << 20,
			MaxPromisesPerFunctionCallAction: 1_024,
			MaxNumberInputDataDependencies:   128,
			MaxFunctionsNumberPerContract:    10_000,
			MaxLocalsPerContract:             1_000_000,
			YieldPayloadSizeLimit:            1_024,
			PerReceiptStorageProofSizeLimit:  4 << 20,
		},
		ExtCosts:      DefaultExtCostsConfig(),
		RegularOpCost: 3_856_371,
		GrowMemCost:   1,
	}
}

// ViewConfig relaxes limits for read-only calls. A view call has its own,
// typically effectively unlimited, burnt-gas ceiling and a restricted
// operation set.
type ViewConfig struct {
	MaxGasBurnt Gas `json:"max_gas_burnt"`
}

// DefaultViewConfig places no practical ceiling on view calls.
func DefaultViewConfig() ViewConfig {
	return ViewConfig{MaxGasBurnt: math.MaxUint64}
}
