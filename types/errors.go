package types

import (
	"fmt"
)

// HostErrorKind enumerates every guest-caused failure a host call can
// produce. Host errors are recoverable: they terminate the current
// contract execution and become part of the on-chain outcome.
type HostErrorKind int

const (
	// BadUTF16 string encoding is bad UTF-16 sequence.
	BadUTF16 HostErrorKind = iota
	// BadUTF8 string encoding is bad UTF-8 sequence.
	BadUTF8
	// GasExceeded exceeded the prepaid gas.
	GasExceeded
	// GasLimitExceeded exceeded the maximum amount of gas allowed to burn per contract.
	GasLimitExceeded
	// BalanceExceeded exceeded the account balance.
	BalanceExceeded
	// EmptyMethodName tried to call an empty method name.
	EmptyMethodName
	// GuestPanic smart contract panicked.
	GuestPanic
	// IntegerOverflow happened during a contract execution.
	IntegerOverflow
	// InvalidPromiseIndex does not correspond to existing promises.
	InvalidPromiseIndex
	// CannotAppendActionToJointPromise: actions can only be appended to non-joint promises.
	CannotAppendActionToJointPromise
	// CannotReturnJointPromise: returning a joint promise is currently prohibited.
	CannotReturnJointPromise
	// InvalidPromiseResultIndex accessed invalid promise result index.
	InvalidPromiseResultIndex
	// InvalidRegisterID accessed invalid register id.
	InvalidRegisterID
	// MemoryAccessViolation accessed memory outside the bounds.
	MemoryAccessViolation
	// InvalidReceiptIndex: VM logic returned an invalid receipt index.
	InvalidReceiptIndex
	// InvalidIteratorIndex: iterator index does not exist.
	InvalidIteratorIndex
	// InvalidAccountID: VM logic returned an invalid account id.
	InvalidAccountID
	// InvalidMethodName: VM logic returned an invalid method name.
	InvalidMethodName
	// InvalidPublicKey: VM logic provided an invalid public key.
	InvalidPublicKey
	// ProhibitedInView: the method is not allowed in view calls.
	ProhibitedInView
	// NumberOfLogsExceeded: the total number of logs will exceed the limit.
	NumberOfLogsExceeded
	// KeyLengthExceeded: the storage key length exceeded the limit.
	KeyLengthExceeded
	// ValueLengthExceeded: the storage value length exceeded the limit.
	ValueLengthExceeded
	// TotalLogLengthExceeded: the total log length exceeded the limit.
	TotalLogLengthExceeded
	// NumberPromisesExceeded: too many promises within a FunctionCall.
	NumberPromisesExceeded
	// NumberInputDataDependenciesExceeded: too many input data dependencies.
	NumberInputDataDependenciesExceeded
	// ReturnedValueLengthExceeded: the returned value length exceeded the limit.
	ReturnedValueLengthExceeded
	// ContractSizeExceeded: the contract size for a DeployContract action exceeded the limit.
	ContractSizeExceeded
	// Deprecated: the host function was deprecated.
	Deprecated
	// ECRecoverError: general errors for ECDSA recover.
	ECRecoverError
	// AltBn128InvalidInput: invalid input to the alt_bn128 family of functions.
	AltBn128InvalidInput
	// Ed25519VerifyInvalidInput: invalid input to ed25519 signature verification.
	Ed25519VerifyInvalidInput
	// YieldPayloadLength: yield payload length exceeds the maximum permitted.
	YieldPayloadLength
	// DataIDMalformed: yield resumption data id is malformed.
	DataIDMalformed
	// RecordedStorageExceeded: recorded trie storage proof exceeded the allowed limit.
	RecordedStorageExceeded
)

// HostError is a guest-caused failure. Exactly which auxiliary fields are
// meaningful depends on the Kind.
type HostError struct {
	Kind   HostErrorKind `json:"kind"`
	Msg    string        `json:"msg,omitempty"`
	Index  uint64        `json:"index,omitempty"`
	Length uint64        `json:"length,omitempty"`
	Limit  uint64        `json:"limit,omitempty"`
}

var _ error = (*HostError)(nil)

func (e *HostError) Error() string {
	switch e.Kind {
	case BadUTF8:
		return "String encoding is bad UTF-8 sequence."
	case BadUTF16:
		return "String encoding is bad UTF-16 sequence."
	case GasExceeded:
		return "Exceeded the prepaid gas."
	case GasLimitExceeded:
		return "Exceeded the maximum amount of gas allowed to burn per contract."
	case BalanceExceeded:
		return "Exceeded the account balance."
	case EmptyMethodName:
		return "Tried to call an empty method name."
	case GuestPanic:
		return fmt.Sprintf("Smart contract panicked: %s", e.Msg)
	case IntegerOverflow:
		return "Integer overflow."
	case InvalidIteratorIndex:
		return fmt.Sprintf("Iterator index %d does not exist", e.Index)
	case InvalidPromiseIndex:
		return fmt.Sprintf("%d does not correspond to existing promises", e.Index)
	case CannotAppendActionToJointPromise:
		return "Actions can only be appended to non-joint promise."
	case CannotReturnJointPromise:
		return "Returning joint promise is currently prohibited."
	case InvalidPromiseResultIndex:
		return fmt.Sprintf("Accessed invalid promise result index: %d", e.Index)
	case InvalidRegisterID:
		return fmt.Sprintf("Accessed invalid register id: %d", e.Index)
	case MemoryAccessViolation:
		return "Accessed memory outside the bounds."
	case InvalidReceiptIndex:
		return fmt.Sprintf("VM Logic returned an invalid receipt index: %d", e.Index)
	case InvalidAccountID:
		return "VM Logic returned an invalid account id"
	case InvalidMethodName:
		return "VM Logic returned an invalid method name"
	case InvalidPublicKey:
		return "VM Logic provided an invalid public key"
	case ProhibitedInView:
		return fmt.Sprintf("%s is not allowed in view calls", e.Msg)
	case NumberOfLogsExceeded:
		return fmt.Sprintf("The number of logs will exceed the limit %d", e.Limit)
	case KeyLengthExceeded:
		return fmt.Sprintf("The length of a storage key %d exceeds the limit %d", e.Length, e.Limit)
	case ValueLengthExceeded:
		return fmt.Sprintf("The length of a storage value %d exceeds the limit %d", e.Length, e.Limit)
	case TotalLogLengthExceeded:
		return fmt.Sprintf("The length of a log message %d exceeds the limit %d", e.Length, e.Limit)
	case NumberPromisesExceeded:
		return fmt.Sprintf("The number of promises within a FunctionCall %d exceeds the limit %d", e.Length, e.Limit)
	case NumberInputDataDependenciesExceeded:
		return fmt.Sprintf("The number of input data dependencies %d exceeds the limit %d", e.Length, e.Limit)
	case ReturnedValueLengthExceeded:
		return fmt.Sprintf("The length of a returned value %d exceeds the limit %d", e.Length, e.Limit)
	case ContractSizeExceeded:
		return fmt.Sprintf("The size of a contract code in DeployContract action %d exceeds the limit %d", e.Length, e.Limit)
	case Deprecated:
		return fmt.Sprintf("Attempted to call deprecated host function %s", e.Msg)
	case AltBn128InvalidInput:
		return fmt.Sprintf("AltBn128 invalid input: %s", e.Msg)
	case ECRecoverError:
		return fmt.Sprintf("ECDSA recover error: %s", e.Msg)
	case Ed25519VerifyInvalidInput:
		return fmt.Sprintf("ED25519 signature verification error: %s", e.Msg)
	case YieldPayloadLength:
		return fmt.Sprintf("Yield resume payload is %d bytes which exceeds the %d byte limit", e.Length, e.Limit)
	case DataIDMalformed:
		return "yield resumption token is malformed"
	case RecordedStorageExceeded:
		return fmt.Sprintf("Size of the recorded trie storage proof has exceeded the allowed limit (%d bytes)", e.Limit)
	default:
		return fmt.Sprintf("unknown host error kind %d", e.Kind)
	}
}

// PrepareErrorKind enumerates failures of contract preparation.
type PrepareErrorKind int

const (
	// PrepareSerialization: error happened while serializing the module.
	PrepareSerialization PrepareErrorKind = iota
	// PrepareDeserialization: error happened while deserializing the module.
	PrepareDeserialization
	// PrepareInternalMemoryDeclared: internal memory declaration found in the module.
	PrepareInternalMemoryDeclared
	// PrepareGasInstrumentation: gas instrumentation failed.
	PrepareGasInstrumentation
	// PrepareStackHeightInstrumentation: stack instrumentation failed.
	PrepareStackHeightInstrumentation
	// PrepareInstantiate: error happened during instantiation.
	PrepareInstantiate
	// PrepareMemory: error creating memory.
	PrepareMemory
	// PrepareTooManyFunctions: contract contains too many functions.
	PrepareTooManyFunctions
	// PrepareTooManyLocals: contract contains too many locals.
	PrepareTooManyLocals
)

// PrepareError is a failure of the module preparation pipeline. It is
// recoverable at the granularity of "this deployment fails".
type PrepareError struct {
	Kind PrepareErrorKind `json:"kind"`
}

var _ error = (*PrepareError)(nil)

func (e *PrepareError) Error() string {
	switch e.Kind {
	case PrepareSerialization:
		return "Error happened while serializing the module."
	case PrepareDeserialization:
		return "Error happened while deserializing the module."
	case PrepareInternalMemoryDeclared:
		return "Internal memory declaration has been found in the module."
	case PrepareGasInstrumentation:
		return "Gas instrumentation failed."
	case PrepareStackHeightInstrumentation:
		return "Stack instrumentation failed."
	case PrepareInstantiate:
		return "Error happened during instantiation."
	case PrepareMemory:
		return "Error creating memory."
	case PrepareTooManyFunctions:
		return "Too many functions in contract."
	case PrepareTooManyLocals:
		return "Too many locals declared in the contract."
	default:
		return fmt.Sprintf("unknown prepare error kind %d", e.Kind)
	}
}

// CompilationError wraps everything that can go wrong between raw bytes
// and an executable module. Exactly one field is set.
type CompilationError struct {
	CodeDoesNotExist *AccountID    `json:"code_does_not_exist,omitempty"`
	Prepare          *PrepareError `json:"prepare_error,omitempty"`
	// EngineCompile carries a message from the execution engine when a
	// module slipped past preparation. Defense in depth; preparation is
	// expected to catch every invalid module first.
	EngineCompile string `json:"engine_compile_error,omitempty"`
}

var _ error = (*CompilationError)(nil)

func (e *CompilationError) Error() string {
	switch {
	case e.CodeDoesNotExist != nil:
		return fmt.Sprintf("cannot find contract code for account %s", *e.CodeDoesNotExist)
	case e.Prepare != nil:
		return fmt.Sprintf("PrepareError: %s", e.Prepare.Error())
	case e.EngineCompile != "":
		return fmt.Sprintf("Engine compilation error: %s", e.EngineCompile)
	default:
		return "unknown compilation error"
	}
}

// MethodResolveErrorKind enumerates method lookup failures.
type MethodResolveErrorKind int

const (
	// MethodEmptyName: the requested method name is empty.
	MethodEmptyName MethodResolveErrorKind = iota
	// MethodNotFound: the module does not export the requested method.
	MethodNotFound
	// MethodInvalidSignature: the export is not a zero-argument, zero-result function.
	MethodInvalidSignature
)

// MethodResolveError is a failure to resolve the called method.
type MethodResolveError struct {
	Kind MethodResolveErrorKind `json:"kind"`
}

var _ error = (*MethodResolveError)(nil)

func (e *MethodResolveError) Error() string {
	switch e.Kind {
	case MethodEmptyName:
		return "MethodEmptyName"
	case MethodNotFound:
		return "MethodNotFound"
	case MethodInvalidSignature:
		return "MethodInvalidSignature"
	default:
		return fmt.Sprintf("unknown method resolve error kind %d", e.Kind)
	}
}

// FunctionCallError is the guest-visible outcome of a failed call. It is
// recorded on chain; exactly one field is set.
type FunctionCallError struct {
	Compilation   *CompilationError   `json:"compilation_error,omitempty"`
	MethodResolve *MethodResolveError `json:"method_resolve_error,omitempty"`
	Host          *HostError          `json:"host_error,omitempty"`
}

var _ error = (*FunctionCallError)(nil)

func (e *FunctionCallError) Error() string {
	switch {
	case e.Compilation != nil:
		return e.Compilation.Error()
	case e.MethodResolve != nil:
		return e.MethodResolve.Error()
	case e.Host != nil:
		return e.Host.Error()
	default:
		return "unknown function call error"
	}
}

// InconsistentStateErrorKind enumerates detected host invariant violations.
type InconsistentStateErrorKind int

const (
	// InconsistentIntegerOverflow: a math operation with a value from the
	// state resulted in an integer overflow.
	InconsistentIntegerOverflow InconsistentStateErrorKind = iota
)

// InconsistentStateError indicates a bug in the host itself rather than a
// guest mistake. It must never be surfaced as part of the on-chain
// outcome.
type InconsistentStateError struct {
	Kind InconsistentStateErrorKind `json:"kind"`
}

var _ error = (*InconsistentStateError)(nil)

func (e *InconsistentStateError) Error() string {
	switch e.Kind {
	case InconsistentIntegerOverflow:
		return "Math operation with a value from the state resulted in a integer overflow."
	default:
		return fmt.Sprintf("unknown inconsistent state error kind %d", e.Kind)
	}
}

// VMRunnerError is the fatal tier: the host process should treat it as a
// bug to crash or alert on, never fold it into consensus-visible state.
type VMRunnerError struct {
	Inconsistent *InconsistentStateError `json:"inconsistent_state_error,omitempty"`
}

var _ error = (*VMRunnerError)(nil)

func (e *VMRunnerError) Error() string {
	if e.Inconsistent != nil {
		return e.Inconsistent.Error()
	}
	return "unknown runner error"
}

// VMLogicError is the internal propagation type used by every fallible
// runtime operation. It merges the two error tiers for plumbing purposes;
// the tiers are split again, exactly once, by FunctionCallError below.
// Exactly one field is set.
type VMLogicError struct {
	Host         *HostError
	Inconsistent *InconsistentStateError
}

var _ error = (*VMLogicError)(nil)

func (e *VMLogicError) Error() string {
	switch {
	case e.Host != nil:
		return e.Host.Error()
	case e.Inconsistent != nil:
		return e.Inconsistent.Error()
	default:
		return "unknown vm logic error"
	}
}

// FunctionCallError narrows the internal error to the guest-visible
// subset. It fails with a fatal VMRunnerError exactly when the internal
// error was of the inconsistent-state kind; this conversion boundary is
// the single place where "can this degrade gracefully on-chain" is
// decided.
func (e *VMLogicError) FunctionCallError() (*FunctionCallError, *VMRunnerError) {
	if e.Inconsistent != nil {
		return nil, &VMRunnerError{Inconsistent: e.Inconsistent}
	}
	return &FunctionCallError{Host: e.Host}, nil
}

// Constructors used throughout the runtime.

// NewHostError wraps a HostError kind into the internal propagation type.
func NewHostError(kind HostErrorKind) *VMLogicError {
	return &VMLogicError{Host: &HostError{Kind: kind}}
}

// NewHostErrorf wraps a message-carrying HostError kind.
func NewHostErrorf(kind HostErrorKind, format string, args ...any) *VMLogicError {
	return &VMLogicError{Host: &HostError{Kind: kind, Msg: fmt.Sprintf(format, args...)}}
}

// NewIndexHostError wraps an index-carrying HostError kind.
func NewIndexHostError(kind HostErrorKind, index uint64) *VMLogicError {
	return &VMLogicError{Host: &HostError{Kind: kind, Index: index}}
}

// NewLimitHostError wraps a length/limit-carrying HostError kind.
func NewLimitHostError(kind HostErrorKind, length, limit uint64) *VMLogicError {
	return &VMLogicError{Host: &HostError{Kind: kind, Length: length, Limit: limit}}
}

// ErrIntegerOverflow is the inconsistent-state overflow error. A single
// shared value: the fatal path carries no per-instance data.
var ErrIntegerOverflow = &VMLogicError{
	Inconsistent: &InconsistentStateError{Kind: InconsistentIntegerOverflow},
}

// AsVMLogicError extracts a *VMLogicError from an error value, or wraps a
// foreign error as a guest panic. External collaborators are expected to
// return *VMLogicError for anything the guest caused.
func AsVMLogicError(err error) *VMLogicError {
	if err == nil {
		return nil
	}
	if le, ok := err.(*VMLogicError); ok {
		return le
	}
	return NewHostErrorf(GuestPanic, "%s", err.Error())
}
