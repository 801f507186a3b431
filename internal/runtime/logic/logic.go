// Package logic implements the host-call surface a contract can invoke:
// every operation charges gas through the counter, moves bytes through
// the metered memory/register layer, and delegates chain effects to the
// External collaborator.
package logic

import (
	"math"

	"github.com/meterwasm/vmhost/internal/runtime/gas"
	"github.com/meterwasm/vmhost/internal/runtime/vmstate"
	"github.com/meterwasm/vmhost/types"
)

// promise is the call-local bookkeeping for one created promise: either a
// single pending receipt or the logical AND of several.
type promise struct {
	joint    bool
	receipt  types.ReceiptIndex   // single promise
	receipts []types.ReceiptIndex // joint promise components
}

// VMLogic binds the gas counter, the memory/register layer, the external
// collaborator and the call context into the concrete host functions. One
// instance serves exactly one contract call.
type VMLogic struct {
	ext       types.External
	context   *types.VMContext
	config    *types.Config
	counter   *gas.Counter
	memory    *vmstate.Memory
	registers *vmstate.Registers

	promises       []promise
	returnData     types.ReturnData
	logs           []string
	totalLogLength uint64

	currentAccountBalance types.Balance
	currentStorageUsage   types.StorageUsage

	iterators            map[uint64]types.StorageIterator
	invalidatedIterators map[uint64]bool
	nextIterID           uint64

	remainingStack uint64
}

// New builds the logic for one call. The memory capability and the
// external collaborator are borrowed from the caller and outlive the
// call; the gas counter and registers are owned and discarded with it.
func New(ext types.External, mem types.MemoryLike, context *types.VMContext, config *types.Config) (*VMLogic, error) {
	maxGasBurnt := config.LimitConfig.MaxGasBurnt
	if context.ViewConfig != nil {
		maxGasBurnt = context.ViewConfig.MaxGasBurnt
	}
	balance, overflow := context.AccountBalance.Add(context.AttachedDeposit)
	if overflow {
		return nil, types.ErrIntegerOverflow
	}
	counter := gas.NewCounter(&config.ExtCosts, maxGasBurnt, context.PrepaidGas, context.IsView())
	return &VMLogic{
		ext:                   ext,
		context:               context,
		config:                config,
		counter:               counter,
		memory:                vmstate.NewMemory(mem),
		registers:             vmstate.NewRegisters(),
		currentAccountBalance: balance,
		currentStorageUsage:   context.StorageUsage,
		iterators:             make(map[uint64]types.StorageIterator),
		invalidatedIterators:  make(map[uint64]bool),
		remainingStack:        config.LimitConfig.MaxStackHeight,
	}, nil
}

// GasCounter exposes the counter for lifecycle charges (contract loading
// fees) performed by the surrounding engine.
func (l *VMLogic) GasCounter() *gas.Counter { return l.counter }

// Context returns the immutable call context.
func (l *VMLogic) Context() *types.VMContext { return l.context }

// Config returns the runtime configuration.
func (l *VMLogic) Config() *types.Config { return l.config }

func (l *VMLogic) limits() *types.LimitConfig { return &l.config.LimitConfig }

// checkNotView rejects state-mutating operations in view calls.
func (l *VMLogic) checkNotView(methodName string) error {
	if l.context.IsView() {
		return types.NewHostErrorf(types.ProhibitedInView, "%s", methodName)
	}
	return nil
}

// memoryOrRegister resolves a (ptr, len) pair per the dual addressing
// convention: len == MaxUint64 reads register ptr.
func (l *VMLogic) memoryOrRegister(ptr, length uint64) ([]byte, error) {
	return vmstate.GetMemoryOrRegister(l.counter, l.memory, l.registers, ptr, length)
}

// ---- Registers ----

// ReadRegister copies the value of a register into guest memory at ptr.
func (l *VMLogic) ReadRegister(registerID, ptr uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	data, err := l.registers.Get(l.counter, registerID)
	if err != nil {
		return err
	}
	return l.memory.Set(l.counter, ptr, data)
}

// RegisterLen returns the length of a register, or MaxUint64 if the
// register is not set.
func (l *VMLogic) RegisterLen(registerID uint64) (uint64, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	length, ok := l.registers.GetLen(registerID)
	if !ok {
		return math.MaxUint64, nil
	}
	return length, nil
}

// WriteRegister copies a guest-memory slice into a register.
func (l *VMLogic) WriteRegister(registerID, dataLen, dataPtr uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	data, err := l.memory.View(l.counter, types.MemSlice{Ptr: dataPtr, Len: dataLen})
	if err != nil {
		return err
	}
	return l.registers.Set(l.counter, l.limits(), registerID, data)
}

// Registers exposes the register file for diagnostics.
func (l *VMLogic) Registers() *vmstate.Registers { return l.registers }

// ---- Context accessors ----

func (l *VMLogic) setRegister(registerID uint64, data []byte) error {
	return l.registers.Set(l.counter, l.limits(), registerID, data)
}

// CurrentAccountID writes the executing account id into a register.
func (l *VMLogic) CurrentAccountID(registerID uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	return l.setRegister(registerID, []byte(l.context.CurrentAccountID))
}

// SignerAccountID writes the signer account id into a register.
// Prohibited in view calls: a view has no signer.
func (l *VMLogic) SignerAccountID(registerID uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.checkNotView("signer_account_id"); err != nil {
		return err
	}
	return l.setRegister(registerID, []byte(l.context.SignerAccountID))
}

// SignerAccountPK writes the signer public key into a register.
func (l *VMLogic) SignerAccountPK(registerID uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.checkNotView("signer_account_pk"); err != nil {
		return err
	}
	return l.setRegister(registerID, l.context.SignerAccountPK)
}

// PredecessorAccountID writes the predecessor account id into a register.
func (l *VMLogic) PredecessorAccountID(registerID uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.checkNotView("predecessor_account_id"); err != nil {
		return err
	}
	return l.setRegister(registerID, []byte(l.context.PredecessorAccountID))
}

// Input writes the call arguments into a register.
func (l *VMLogic) Input(registerID uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	return l.setRegister(registerID, l.context.Input)
}

// BlockIndex returns the current block height.
func (l *VMLogic) BlockIndex() (uint64, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	return l.context.BlockHeight, nil
}

// BlockTimestamp returns the block time in nanoseconds.
func (l *VMLogic) BlockTimestamp() (uint64, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	return l.context.BlockTimestamp, nil
}

// EpochHeight returns the current epoch.
func (l *VMLogic) EpochHeight() (types.EpochHeight, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	return l.context.EpochHeight, nil
}

// StorageUsage returns the account state footprint in bytes.
func (l *VMLogic) StorageUsage() (types.StorageUsage, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	return l.currentStorageUsage, nil
}

// AccountBalance writes the account balance into guest memory.
func (l *VMLogic) AccountBalance(balancePtr uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	return l.memory.SetBalance(l.counter, balancePtr, l.currentAccountBalance)
}

// AccountLockedBalance writes the staked balance into guest memory.
func (l *VMLogic) AccountLockedBalance(balancePtr uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	return l.memory.SetBalance(l.counter, balancePtr, l.context.AccountLockedBalance)
}

// AttachedDeposit writes the deposit attached to the call into guest
// memory.
func (l *VMLogic) AttachedDeposit(balancePtr uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.checkNotView("attached_deposit"); err != nil {
		return err
	}
	return l.memory.SetBalance(l.counter, balancePtr, l.context.AttachedDeposit)
}

// PrepaidGas returns the gas attached to the call.
func (l *VMLogic) PrepaidGas() (types.Gas, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.checkNotView("prepaid_gas"); err != nil {
		return 0, err
	}
	return l.context.PrepaidGas, nil
}

// UsedGas returns burnt plus reserved gas, including the charge for this
// very call.
func (l *VMLogic) UsedGas() (types.Gas, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.checkNotView("used_gas"); err != nil {
		return 0, err
	}
	return l.counter.UsedGas(), nil
}

// RandomSeed writes the per-action random seed into a register.
func (l *VMLogic) RandomSeed(registerID uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	return l.setRegister(registerID, l.context.RandomSeed)
}

// ValidatorStake writes the stake of the given validator into guest
// memory, or zero if the account is not a validator.
func (l *VMLogic) ValidatorStake(accountIDLen, accountIDPtr, stakePtr uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	accountID, err := l.readAccountID(accountIDPtr, accountIDLen)
	if err != nil {
		return err
	}
	if err := l.counter.PayBase(types.ExtCostValidatorStakeBase); err != nil {
		return err
	}
	stake, err := l.ext.ValidatorStake(accountID)
	if err != nil {
		return types.AsVMLogicError(err)
	}
	var balance types.Balance
	if stake != nil {
		balance = *stake
	}
	return l.memory.SetBalance(l.counter, stakePtr, balance)
}

// ValidatorTotalStake writes the total validator stake into guest memory.
func (l *VMLogic) ValidatorTotalStake(stakePtr uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.counter.PayBase(types.ExtCostValidatorTotalStakeBase); err != nil {
		return err
	}
	total, err := l.ext.ValidatorTotalStake()
	if err != nil {
		return types.AsVMLogicError(err)
	}
	return l.memory.SetBalance(l.counter, stakePtr, total)
}

// readAccountID reads and validates an account id from memory or a
// register.
func (l *VMLogic) readAccountID(ptr, length uint64) (types.AccountID, error) {
	raw, err := l.memoryOrRegister(ptr, length)
	if err != nil {
		return "", err
	}
	accountID, err := types.ParseAccountID(string(raw))
	if err != nil {
		return "", types.NewHostError(types.InvalidAccountID)
	}
	return accountID, nil
}

// deductBalance spends from the current account balance, failing with
// BalanceExceeded once the balance cannot cover the amount.
func (l *VMLogic) deductBalance(amount types.Balance) error {
	remaining, underflow := l.currentAccountBalance.Sub(amount)
	if underflow {
		return types.NewHostError(types.BalanceExceeded)
	}
	l.currentAccountBalance = remaining
	return nil
}
