package wasmexec

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/meterwasm/vmhost/internal/runtime/logic"
	"github.com/meterwasm/vmhost/internal/runtime/prepare"
	"github.com/meterwasm/vmhost/types"
)

// vmAbort is the panic sentinel carrying a host-call failure across the
// engine boundary. The single recover site in the runner unwraps it; any
// other panic keeps propagating.
type vmAbort struct {
	err *types.VMLogicError
}

type hostFunc struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
	call    func(l *logic.VMLogic, stack []uint64) error
}

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

func vt(n int) []api.ValueType {
	out := make([]api.ValueType, n)
	for i := range out {
		out[i] = i64
	}
	return out
}

// ret adapts a (value, error) host call to the engine stack.
func ret(stack []uint64, v uint64, err error) error {
	if err != nil {
		return err
	}
	stack[0] = v
	return nil
}

// hostFuncTable is the complete env surface a contract can import. The
// parameter layout mirrors the guest-facing ABI: every argument is an
// i64 except the AssemblyScript abort hook and the legacy gas counter.
var hostFuncTable = []hostFunc{
	// Registers.
	{name: "read_register", params: vt(2), call: func(l *logic.VMLogic, s []uint64) error {
		return l.ReadRegister(s[0], s[1])
	}},
	{name: "register_len", params: vt(1), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.RegisterLen(s[0])
		return ret(s, v, err)
	}},
	{name: "write_register", params: vt(3), call: func(l *logic.VMLogic, s []uint64) error {
		return l.WriteRegister(s[0], s[1], s[2])
	}},

	// Context.
	{name: "current_account_id", params: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		return l.CurrentAccountID(s[0])
	}},
	{name: "signer_account_id", params: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		return l.SignerAccountID(s[0])
	}},
	{name: "signer_account_pk", params: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		return l.SignerAccountPK(s[0])
	}},
	{name: "predecessor_account_id", params: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		return l.PredecessorAccountID(s[0])
	}},
	{name: "input", params: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		return l.Input(s[0])
	}},
	{name: "block_index", results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.BlockIndex()
		return ret(s, v, err)
	}},
	{name: "block_timestamp", results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.BlockTimestamp()
		return ret(s, v, err)
	}},
	{name: "epoch_height", results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.EpochHeight()
		return ret(s, v, err)
	}},
	{name: "storage_usage", results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.StorageUsage()
		return ret(s, v, err)
	}},

	// Economics.
	{name: "account_balance", params: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		return l.AccountBalance(s[0])
	}},
	{name: "account_locked_balance", params: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		return l.AccountLockedBalance(s[0])
	}},
	{name: "attached_deposit", params: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		return l.AttachedDeposit(s[0])
	}},
	{name: "prepaid_gas", results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.PrepaidGas()
		return ret(s, v, err)
	}},
	{name: "used_gas", results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.UsedGas()
		return ret(s, v, err)
	}},
	{name: "random_seed", params: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		return l.RandomSeed(s[0])
	}},
	{name: "validator_stake", params: vt(3), call: func(l *logic.VMLogic, s []uint64) error {
		return l.ValidatorStake(s[0], s[1], s[2])
	}},
	{name: "validator_total_stake", params: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		return l.ValidatorTotalStake(s[0])
	}},

	// Cryptography.
	{name: "sha256", params: vt(3), call: func(l *logic.VMLogic, s []uint64) error {
		return l.Sha256(s[0], s[1], s[2])
	}},
	{name: "keccak256", params: vt(3), call: func(l *logic.VMLogic, s []uint64) error {
		return l.Keccak256(s[0], s[1], s[2])
	}},
	{name: "keccak512", params: vt(3), call: func(l *logic.VMLogic, s []uint64) error {
		return l.Keccak512(s[0], s[1], s[2])
	}},
	{name: "ripemd160", params: vt(3), call: func(l *logic.VMLogic, s []uint64) error {
		return l.Ripemd160(s[0], s[1], s[2])
	}},
	{name: "ed25519_verify", params: vt(6), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.Ed25519Verify(s[0], s[1], s[2], s[3], s[4], s[5])
		return ret(s, v, err)
	}},
	{name: "alt_bn128_g1_multiexp", params: vt(3), call: func(l *logic.VMLogic, s []uint64) error {
		return l.AltBn128G1Multiexp(s[0], s[1], s[2])
	}},
	{name: "alt_bn128_g1_sum", params: vt(3), call: func(l *logic.VMLogic, s []uint64) error {
		return l.AltBn128G1Sum(s[0], s[1], s[2])
	}},
	{name: "alt_bn128_pairing_check", params: vt(2), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.AltBn128PairingCheck(s[0], s[1])
		return ret(s, v, err)
	}},

	// Output, logs and aborts.
	{name: "value_return", params: vt(2), call: func(l *logic.VMLogic, s []uint64) error {
		return l.ValueReturn(s[0], s[1])
	}},
	{name: "panic", call: func(l *logic.VMLogic, s []uint64) error {
		return l.Panic()
	}},
	{name: "panic_utf8", params: vt(2), call: func(l *logic.VMLogic, s []uint64) error {
		return l.PanicUTF8(s[0], s[1])
	}},
	{name: "log_utf8", params: vt(2), call: func(l *logic.VMLogic, s []uint64) error {
		return l.LogUTF8(s[0], s[1])
	}},
	{name: "log_utf16", params: vt(2), call: func(l *logic.VMLogic, s []uint64) error {
		return l.LogUTF16(s[0], s[1])
	}},
	{name: "abort", params: []api.ValueType{i32, i32, i32, i32}, call: func(l *logic.VMLogic, s []uint64) error {
		return l.Abort(uint64(uint32(s[0])), uint64(uint32(s[1])), uint32(s[2]), uint32(s[3]))
	}},
	{name: "gas", params: []api.ValueType{i32}, call: func(l *logic.VMLogic, s []uint64) error {
		return l.Gas(uint32(s[0]))
	}},
	{name: "burn_gas", params: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		return l.BurnGas(s[0])
	}},

	// Promises.
	{name: "promise_create", params: vt(8), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.PromiseCreate(s[0], s[1], s[2], s[3], s[4], s[5], s[6], s[7])
		return ret(s, v, err)
	}},
	{name: "promise_then", params: vt(9), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.PromiseThen(s[0], s[1], s[2], s[3], s[4], s[5], s[6], s[7], s[8])
		return ret(s, v, err)
	}},
	{name: "promise_and", params: vt(2), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.PromiseAnd(s[0], s[1])
		return ret(s, v, err)
	}},
	{name: "promise_batch_create", params: vt(2), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.PromiseBatchCreate(s[0], s[1])
		return ret(s, v, err)
	}},
	{name: "promise_batch_then", params: vt(3), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.PromiseBatchThen(s[0], s[1], s[2])
		return ret(s, v, err)
	}},
	{name: "promise_batch_action_create_account", params: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		return l.PromiseBatchActionCreateAccount(s[0])
	}},
	{name: "promise_batch_action_deploy_contract", params: vt(3), call: func(l *logic.VMLogic, s []uint64) error {
		return l.PromiseBatchActionDeployContract(s[0], s[1], s[2])
	}},
	{name: "promise_batch_action_function_call", params: vt(7), call: func(l *logic.VMLogic, s []uint64) error {
		return l.PromiseBatchActionFunctionCall(s[0], s[1], s[2], s[3], s[4], s[5], s[6])
	}},
	{name: "promise_batch_action_function_call_weight", params: vt(8), call: func(l *logic.VMLogic, s []uint64) error {
		return l.PromiseBatchActionFunctionCallWeight(s[0], s[1], s[2], s[3], s[4], s[5], s[6], types.GasWeight(s[7]))
	}},
	{name: "promise_batch_action_transfer", params: vt(2), call: func(l *logic.VMLogic, s []uint64) error {
		return l.PromiseBatchActionTransfer(s[0], s[1])
	}},
	{name: "promise_batch_action_stake", params: vt(4), call: func(l *logic.VMLogic, s []uint64) error {
		return l.PromiseBatchActionStake(s[0], s[1], s[2], s[3])
	}},
	{name: "promise_batch_action_add_key_with_full_access", params: vt(4), call: func(l *logic.VMLogic, s []uint64) error {
		return l.PromiseBatchActionAddKeyWithFullAccess(s[0], s[1], s[2], s[3])
	}},
	{name: "promise_batch_action_add_key_with_function_call", params: vt(9), call: func(l *logic.VMLogic, s []uint64) error {
		return l.PromiseBatchActionAddKeyWithFunctionCall(s[0], s[1], s[2], s[3], s[4], s[5], s[6], s[7], s[8])
	}},
	{name: "promise_batch_action_delete_key", params: vt(3), call: func(l *logic.VMLogic, s []uint64) error {
		return l.PromiseBatchActionDeleteKey(s[0], s[1], s[2])
	}},
	{name: "promise_batch_action_delete_account", params: vt(3), call: func(l *logic.VMLogic, s []uint64) error {
		return l.PromiseBatchActionDeleteAccount(s[0], s[1], s[2])
	}},
	{name: "promise_yield_create", params: vt(7), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.PromiseYieldCreate(s[0], s[1], s[2], s[3], s[4], types.GasWeight(s[5]), s[6])
		return ret(s, v, err)
	}},
	{name: "promise_yield_resume", params: vt(4), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.PromiseYieldResume(s[0], s[1], s[2], s[3])
		return ret(s, v, err)
	}},
	{name: "promise_results_count", results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.PromiseResultsCount()
		return ret(s, v, err)
	}},
	{name: "promise_result", params: vt(2), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.PromiseResult(s[0], s[1])
		return ret(s, v, err)
	}},
	{name: "promise_return", params: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		return l.PromiseReturn(s[0])
	}},

	// Storage.
	{name: "storage_write", params: vt(5), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.StorageWrite(s[0], s[1], s[2], s[3], s[4])
		return ret(s, v, err)
	}},
	{name: "storage_read", params: vt(3), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.StorageRead(s[0], s[1], s[2])
		return ret(s, v, err)
	}},
	{name: "storage_remove", params: vt(3), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.StorageRemove(s[0], s[1], s[2])
		return ret(s, v, err)
	}},
	{name: "storage_has_key", params: vt(2), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.StorageHasKey(s[0], s[1])
		return ret(s, v, err)
	}},
	{name: "storage_iter_prefix", params: vt(2), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.StorageIterPrefix(s[0], s[1])
		return ret(s, v, err)
	}},
	{name: "storage_iter_range", params: vt(4), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.StorageIterRange(s[0], s[1], s[2], s[3])
		return ret(s, v, err)
	}},
	{name: "storage_iter_next", params: vt(3), results: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		v, err := l.StorageIterNext(s[0], s[1], s[2])
		return ret(s, v, err)
	}},
}

// internalFuncTable is the instrumentation surface injected by the
// preparer. It lives in its own import namespace; contracts cannot
// import it directly because preparation rejects non-env imports.
var internalFuncTable = []hostFunc{
	{name: prepare.GasFuncName, params: vt(1), call: func(l *logic.VMLogic, s []uint64) error {
		return l.FiniteWasmGas(s[0])
	}},
	{name: prepare.StackFuncName, params: vt(2), call: func(l *logic.VMLogic, s []uint64) error {
		return l.FiniteWasmStack(s[0], s[1])
	}},
	{name: prepare.UnstackFuncName, params: vt(2), call: func(l *logic.VMLogic, s []uint64) error {
		return l.FiniteWasmUnstack(s[0], s[1])
	}},
}

// envShimFuncs converts the host table into the shape the env facade
// generator wants.
func envShimFuncs() []prepare.HostFunc {
	out := make([]prepare.HostFunc, 0, len(hostFuncTable))
	for _, def := range hostFuncTable {
		f := prepare.HostFunc{Name: def.name}
		for _, p := range def.params {
			f.Params = append(f.Params, byte(p))
		}
		for _, r := range def.results {
			f.Results = append(f.Results, byte(r))
		}
		out = append(out, f)
	}
	return out
}
