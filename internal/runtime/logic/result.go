package logic

import (
	"github.com/meterwasm/vmhost/types"
)

// closeIterators releases every iterator still open at the end of the
// call.
func (l *VMLogic) closeIterators() {
	for id, it := range l.iterators {
		_ = it.Close()
		delete(l.iterators, id)
	}
}

// Outcome finalizes the call into its on-chain result. A nil abort means
// the call succeeded; an aborted call keeps its gas, logs and profile but
// drops its return data.
func (l *VMLogic) Outcome(aborted *types.FunctionCallError) *types.VMOutcome {
	l.closeIterators()
	burnt := l.counter.BurntGas()
	used := l.counter.UsedGas()
	profile := *l.counter.Profile()
	profile.ComputeWasmInstructionCost(burnt)
	outcome := &types.VMOutcome{
		Balance:      l.currentAccountBalance,
		StorageUsage: l.currentStorageUsage,
		BurntGas:     burnt,
		UsedGas:      used,
		ComputeUsage: burnt,
		Logs:         l.logs,
		Profile:      profile,
		Aborted:      aborted,
	}
	if aborted == nil {
		outcome.ReturnData = l.returnData
	} else {
		// An aborted call burns everything it reserved: the receipts it
		// created will never execute.
		outcome.UsedGas = burnt
	}
	return outcome
}

// OutcomeFromError finalizes a call that failed before or during guest
// execution, splitting the two error tiers. Fatal host-side errors
// propagate; guest-caused ones become part of the outcome.
func (l *VMLogic) OutcomeFromError(err error) (*types.VMOutcome, error) {
	logicErr := types.AsVMLogicError(err)
	fnErr, runnerErr := logicErr.FunctionCallError()
	if runnerErr != nil {
		return nil, runnerErr
	}
	return l.Outcome(fnErr), nil
}
