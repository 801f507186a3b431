package logic

import (
	"github.com/meterwasm/vmhost/types"
)

// checkPromiseLimit enforces the per-call promise-count ceiling before a
// new promise is appended.
func (l *VMLogic) checkPromiseLimit() error {
	limit := l.limits().MaxPromisesPerFunctionCallAction
	count := uint64(len(l.promises)) + 1
	if count > limit {
		return types.NewLimitHostError(types.NumberPromisesExceeded, count, limit)
	}
	return nil
}

// appendPromise stores a single-receipt promise and returns its index.
func (l *VMLogic) appendPromise(receipt types.ReceiptIndex) types.PromiseIndex {
	l.promises = append(l.promises, promise{receipt: receipt})
	return types.PromiseIndex(len(l.promises) - 1)
}

// getPromise resolves a guest-supplied promise index.
func (l *VMLogic) getPromise(idx types.PromiseIndex) (*promise, error) {
	if idx >= uint64(len(l.promises)) {
		return nil, types.NewIndexHostError(types.InvalidPromiseIndex, idx)
	}
	return &l.promises[idx], nil
}

// appendableReceipt resolves a promise index to the receipt actions can
// be appended to. Joint promises take no actions.
func (l *VMLogic) appendableReceipt(idx types.PromiseIndex) (types.ReceiptIndex, error) {
	p, err := l.getPromise(idx)
	if err != nil {
		return 0, err
	}
	if p.joint {
		return 0, types.NewHostError(types.CannotAppendActionToJointPromise)
	}
	return p.receipt, nil
}

// readMethodName resolves a function-call method name, rejecting the
// empty name.
func (l *VMLogic) readMethodName(ptr, length uint64) ([]byte, error) {
	name, err := l.memoryOrRegister(ptr, length)
	if err != nil {
		return nil, err
	}
	if len(name) == 0 {
		return nil, types.NewHostError(types.EmptyMethodName)
	}
	return name, nil
}

// readPublicKey resolves a curve-tagged public key blob.
func (l *VMLogic) readPublicKey(ptr, length uint64) (types.PublicKey, error) {
	raw, err := l.memoryOrRegister(ptr, length)
	if err != nil {
		return nil, err
	}
	pk, perr := types.ParsePublicKey(raw)
	if perr != nil {
		return nil, types.NewHostError(types.InvalidPublicKey)
	}
	return pk, nil
}

// payFunctionCallFees charges the action fees of one function call action
// and reserves the explicitly attached gas.
func (l *VMLogic) payFunctionCallFees(methodLen, argsLen uint64, attachedGas types.Gas) error {
	if err := l.counter.PayActionBase(types.ActionCostFunctionCallBase); err != nil {
		return err
	}
	if err := l.counter.PayActionPer(types.ActionCostFunctionCallByte, methodLen+argsLen); err != nil {
		return err
	}
	return l.counter.ReserveGas(attachedGas)
}

// createReceipt charges the receipt-creation fee and asks the external
// collaborator for a receipt depending on the given ones.
func (l *VMLogic) createReceipt(deps []types.ReceiptIndex, receiverID types.AccountID) (types.ReceiptIndex, error) {
	if err := l.counter.PayActionBase(types.ActionCostNewActionReceipt); err != nil {
		return 0, err
	}
	receipt, xerr := l.ext.CreateActionReceipt(deps, receiverID)
	if xerr != nil {
		return 0, types.AsVMLogicError(xerr)
	}
	return receipt, nil
}

// PromiseCreate creates a promise that calls a method on an account and
// returns its index.
func (l *VMLogic) PromiseCreate(accountIDLen, accountIDPtr, methodLen, methodPtr, argsLen, argsPtr, amountPtr uint64, gas types.Gas) (types.PromiseIndex, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.checkNotView("promise_create"); err != nil {
		return 0, err
	}
	idx, err := l.PromiseBatchCreate(accountIDLen, accountIDPtr)
	if err != nil {
		return 0, err
	}
	if err := l.promiseBatchActionFunctionCall(idx, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas, 0); err != nil {
		return 0, err
	}
	return idx, nil
}

// PromiseThen chains a method call after an existing promise and returns
// the new promise index.
func (l *VMLogic) PromiseThen(promiseIdx types.PromiseIndex, accountIDLen, accountIDPtr, methodLen, methodPtr, argsLen, argsPtr, amountPtr uint64, gas types.Gas) (types.PromiseIndex, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.checkNotView("promise_then"); err != nil {
		return 0, err
	}
	idx, err := l.PromiseBatchThen(promiseIdx, accountIDLen, accountIDPtr)
	if err != nil {
		return 0, err
	}
	if err := l.promiseBatchActionFunctionCall(idx, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas, 0); err != nil {
		return 0, err
	}
	return idx, nil
}

// PromiseAnd joins several promises into one that resolves when all of
// them do.
func (l *VMLogic) PromiseAnd(promiseIdxPtr, promiseIdxCount uint64) (types.PromiseIndex, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.checkNotView("promise_and"); err != nil {
		return 0, err
	}
	if err := l.counter.PayBase(types.ExtCostPromiseAndBase); err != nil {
		return 0, err
	}
	if err := l.counter.PayPer(types.ExtCostPromiseAndPerPromise, promiseIdxCount); err != nil {
		return 0, err
	}
	byteLen := promiseIdxCount * 8
	if promiseIdxCount != 0 && byteLen/promiseIdxCount != 8 {
		return 0, types.NewHostError(types.IntegerOverflow)
	}
	raw, err := l.memory.View(l.counter, types.MemSlice{Ptr: promiseIdxPtr, Len: byteLen})
	if err != nil {
		return 0, err
	}
	var receipts []types.ReceiptIndex
	for i := uint64(0); i < promiseIdxCount; i++ {
		var idx uint64
		for j := 7; j >= 0; j-- {
			idx = idx<<8 | uint64(raw[i*8+uint64(j)])
		}
		p, perr := l.getPromise(idx)
		if perr != nil {
			return 0, perr
		}
		if p.joint {
			receipts = append(receipts, p.receipts...)
		} else {
			receipts = append(receipts, p.receipt)
		}
	}
	if limit := l.limits().MaxNumberInputDataDependencies; uint64(len(receipts)) > limit {
		return 0, types.NewLimitHostError(types.NumberInputDataDependenciesExceeded, uint64(len(receipts)), limit)
	}
	if err := l.checkPromiseLimit(); err != nil {
		return 0, err
	}
	l.promises = append(l.promises, promise{joint: true, receipts: receipts})
	return types.PromiseIndex(len(l.promises) - 1), nil
}

// PromiseBatchCreate creates an action-less promise towards an account.
func (l *VMLogic) PromiseBatchCreate(accountIDLen, accountIDPtr uint64) (types.PromiseIndex, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.checkNotView("promise_batch_create"); err != nil {
		return 0, err
	}
	receiverID, err := l.readAccountID(accountIDPtr, accountIDLen)
	if err != nil {
		return 0, err
	}
	if err := l.checkPromiseLimit(); err != nil {
		return 0, err
	}
	receipt, err := l.createReceipt(nil, receiverID)
	if err != nil {
		return 0, err
	}
	return l.appendPromise(receipt), nil
}

// PromiseBatchThen creates an action-less promise that runs after an
// existing one.
func (l *VMLogic) PromiseBatchThen(promiseIdx types.PromiseIndex, accountIDLen, accountIDPtr uint64) (types.PromiseIndex, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.checkNotView("promise_batch_then"); err != nil {
		return 0, err
	}
	receiverID, err := l.readAccountID(accountIDPtr, accountIDLen)
	if err != nil {
		return 0, err
	}
	p, err := l.getPromise(promiseIdx)
	if err != nil {
		return 0, err
	}
	var deps []types.ReceiptIndex
	if p.joint {
		deps = append(deps, p.receipts...)
	} else {
		deps = append(deps, p.receipt)
	}
	if err := l.checkPromiseLimit(); err != nil {
		return 0, err
	}
	receipt, err := l.createReceipt(deps, receiverID)
	if err != nil {
		return 0, err
	}
	return l.appendPromise(receipt), nil
}

// PromiseBatchActionCreateAccount appends a create-account action.
func (l *VMLogic) PromiseBatchActionCreateAccount(promiseIdx types.PromiseIndex) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.checkNotView("promise_batch_action_create_account"); err != nil {
		return err
	}
	receipt, err := l.appendableReceipt(promiseIdx)
	if err != nil {
		return err
	}
	if err := l.counter.PayActionBase(types.ActionCostCreateAccount); err != nil {
		return err
	}
	if xerr := l.ext.AppendActionCreateAccount(receipt); xerr != nil {
		return types.AsVMLogicError(xerr)
	}
	return nil
}

// PromiseBatchActionDeployContract appends a deploy-contract action.
func (l *VMLogic) PromiseBatchActionDeployContract(promiseIdx types.PromiseIndex, codeLen, codePtr uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.checkNotView("promise_batch_action_deploy_contract"); err != nil {
		return err
	}
	code, err := l.memoryOrRegister(codePtr, codeLen)
	if err != nil {
		return err
	}
	if limit := l.limits().MaxContractSize; uint64(len(code)) > limit {
		return types.NewLimitHostError(types.ContractSizeExceeded, uint64(len(code)), limit)
	}
	receipt, err := l.appendableReceipt(promiseIdx)
	if err != nil {
		return err
	}
	if err := l.counter.PayActionBase(types.ActionCostDeployContractBase); err != nil {
		return err
	}
	if err := l.counter.PayActionPer(types.ActionCostDeployContractByte, uint64(len(code))); err != nil {
		return err
	}
	if xerr := l.ext.AppendActionDeployContract(receipt, code); xerr != nil {
		return types.AsVMLogicError(xerr)
	}
	return nil
}

func (l *VMLogic) promiseBatchActionFunctionCall(promiseIdx types.PromiseIndex, methodLen, methodPtr, argsLen, argsPtr, amountPtr uint64, gas types.Gas, gasWeight types.GasWeight) error {
	method, err := l.readMethodName(methodPtr, methodLen)
	if err != nil {
		return err
	}
	args, err := l.memoryOrRegister(argsPtr, argsLen)
	if err != nil {
		return err
	}
	amount, err := l.memory.GetBalance(l.counter, amountPtr)
	if err != nil {
		return err
	}
	receipt, err := l.appendableReceipt(promiseIdx)
	if err != nil {
		return err
	}
	if err := l.payFunctionCallFees(uint64(len(method)), uint64(len(args)), gas); err != nil {
		return err
	}
	if err := l.deductBalance(amount); err != nil {
		return err
	}
	if xerr := l.ext.AppendActionFunctionCallWeight(receipt, method, args, amount, gas, gasWeight); xerr != nil {
		return types.AsVMLogicError(xerr)
	}
	return nil
}

// PromiseBatchActionFunctionCall appends a function-call action with a
// fixed gas attachment.
func (l *VMLogic) PromiseBatchActionFunctionCall(promiseIdx types.PromiseIndex, methodLen, methodPtr, argsLen, argsPtr, amountPtr uint64, gas types.Gas) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.checkNotView("promise_batch_action_function_call"); err != nil {
		return err
	}
	return l.promiseBatchActionFunctionCall(promiseIdx, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas, 0)
}

// PromiseBatchActionFunctionCallWeight appends a function-call action
// whose gas is the fixed attachment plus a weighted share of the gas left
// unspent when this call finishes.
func (l *VMLogic) PromiseBatchActionFunctionCallWeight(promiseIdx types.PromiseIndex, methodLen, methodPtr, argsLen, argsPtr, amountPtr uint64, gas types.Gas, gasWeight types.GasWeight) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.checkNotView("promise_batch_action_function_call_weight"); err != nil {
		return err
	}
	return l.promiseBatchActionFunctionCall(promiseIdx, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas, gasWeight)
}

// PromiseBatchActionTransfer appends a transfer action.
func (l *VMLogic) PromiseBatchActionTransfer(promiseIdx types.PromiseIndex, amountPtr uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.checkNotView("promise_batch_action_transfer"); err != nil {
		return err
	}
	amount, err := l.memory.GetBalance(l.counter, amountPtr)
	if err != nil {
		return err
	}
	receipt, err := l.appendableReceipt(promiseIdx)
	if err != nil {
		return err
	}
	if err := l.counter.PayActionBase(types.ActionCostTransfer); err != nil {
		return err
	}
	if err := l.deductBalance(amount); err != nil {
		return err
	}
	if xerr := l.ext.AppendActionTransfer(receipt, amount); xerr != nil {
		return types.AsVMLogicError(xerr)
	}
	return nil
}

// PromiseBatchActionStake appends a stake action.
func (l *VMLogic) PromiseBatchActionStake(promiseIdx types.PromiseIndex, amountPtr, pkLen, pkPtr uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.checkNotView("promise_batch_action_stake"); err != nil {
		return err
	}
	amount, err := l.memory.GetBalance(l.counter, amountPtr)
	if err != nil {
		return err
	}
	pk, err := l.readPublicKey(pkPtr, pkLen)
	if err != nil {
		return err
	}
	receipt, err := l.appendableReceipt(promiseIdx)
	if err != nil {
		return err
	}
	if err := l.counter.PayActionBase(types.ActionCostStake); err != nil {
		return err
	}
	if xerr := l.ext.AppendActionStake(receipt, amount, pk); xerr != nil {
		return types.AsVMLogicError(xerr)
	}
	return nil
}

// PromiseBatchActionAddKeyWithFullAccess appends an add-key action with a
// full-access key.
func (l *VMLogic) PromiseBatchActionAddKeyWithFullAccess(promiseIdx types.PromiseIndex, pkLen, pkPtr uint64, nonce types.Nonce) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.checkNotView("promise_batch_action_add_key_with_full_access"); err != nil {
		return err
	}
	pk, err := l.readPublicKey(pkPtr, pkLen)
	if err != nil {
		return err
	}
	receipt, err := l.appendableReceipt(promiseIdx)
	if err != nil {
		return err
	}
	if err := l.counter.PayActionBase(types.ActionCostAddFullAccessKey); err != nil {
		return err
	}
	if xerr := l.ext.AppendActionAddKeyWithFullAccess(receipt, pk, nonce); xerr != nil {
		return types.AsVMLogicError(xerr)
	}
	return nil
}

// PromiseBatchActionAddKeyWithFunctionCall appends an add-key action with
// a function-call-restricted key.
func (l *VMLogic) PromiseBatchActionAddKeyWithFunctionCall(promiseIdx types.PromiseIndex, pkLen, pkPtr uint64, nonce types.Nonce, allowancePtr, receiverIDLen, receiverIDPtr, methodNamesLen, methodNamesPtr uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.checkNotView("promise_batch_action_add_key_with_function_call"); err != nil {
		return err
	}
	pk, err := l.readPublicKey(pkPtr, pkLen)
	if err != nil {
		return err
	}
	allowanceBalance, err := l.memory.GetBalance(l.counter, allowancePtr)
	if err != nil {
		return err
	}
	var allowance *types.Balance
	if !allowanceBalance.IsZero() {
		allowance = &allowanceBalance
	}
	receiverID, err := l.readAccountID(receiverIDPtr, receiverIDLen)
	if err != nil {
		return err
	}
	rawMethodNames, err := l.memoryOrRegister(methodNamesPtr, methodNamesLen)
	if err != nil {
		return err
	}
	methodNames, merr := types.SplitMethodNames(rawMethodNames)
	if merr != nil {
		return types.NewHostError(types.InvalidMethodName)
	}
	receipt, err := l.appendableReceipt(promiseIdx)
	if err != nil {
		return err
	}
	if err := l.counter.PayActionBase(types.ActionCostAddFunctionCallKeyBase); err != nil {
		return err
	}
	if err := l.counter.PayActionPer(types.ActionCostAddFunctionCallKeyByte, uint64(len(rawMethodNames))); err != nil {
		return err
	}
	if xerr := l.ext.AppendActionAddKeyWithFunctionCall(receipt, pk, nonce, allowance, receiverID, methodNames); xerr != nil {
		return types.AsVMLogicError(xerr)
	}
	return nil
}

// PromiseBatchActionDeleteKey appends a delete-key action.
func (l *VMLogic) PromiseBatchActionDeleteKey(promiseIdx types.PromiseIndex, pkLen, pkPtr uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.checkNotView("promise_batch_action_delete_key"); err != nil {
		return err
	}
	pk, err := l.readPublicKey(pkPtr, pkLen)
	if err != nil {
		return err
	}
	receipt, err := l.appendableReceipt(promiseIdx)
	if err != nil {
		return err
	}
	if err := l.counter.PayActionBase(types.ActionCostDeleteKey); err != nil {
		return err
	}
	if xerr := l.ext.AppendActionDeleteKey(receipt, pk); xerr != nil {
		return types.AsVMLogicError(xerr)
	}
	return nil
}

// PromiseBatchActionDeleteAccount appends a delete-account action.
func (l *VMLogic) PromiseBatchActionDeleteAccount(promiseIdx types.PromiseIndex, beneficiaryIDLen, beneficiaryIDPtr uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.checkNotView("promise_batch_action_delete_account"); err != nil {
		return err
	}
	beneficiaryID, err := l.readAccountID(beneficiaryIDPtr, beneficiaryIDLen)
	if err != nil {
		return err
	}
	receipt, err := l.appendableReceipt(promiseIdx)
	if err != nil {
		return err
	}
	if err := l.counter.PayActionBase(types.ActionCostDeleteAccount); err != nil {
		return err
	}
	if xerr := l.ext.AppendActionDeleteAccount(receipt, beneficiaryID); xerr != nil {
		return types.AsVMLogicError(xerr)
	}
	return nil
}

// PromiseYieldCreate creates a self-addressed promise blocked until the
// matching data id is resumed. The data id lands in the register.
func (l *VMLogic) PromiseYieldCreate(methodLen, methodPtr, argsLen, argsPtr uint64, gas types.Gas, gasWeight types.GasWeight, registerID uint64) (types.PromiseIndex, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.checkNotView("promise_yield_create"); err != nil {
		return 0, err
	}
	if err := l.counter.PayBase(types.ExtCostYieldCreateBase); err != nil {
		return 0, err
	}
	method, err := l.readMethodName(methodPtr, methodLen)
	if err != nil {
		return 0, err
	}
	args, err := l.memoryOrRegister(argsPtr, argsLen)
	if err != nil {
		return 0, err
	}
	if err := l.counter.PayPer(types.ExtCostYieldCreateByte, uint64(len(method))+uint64(len(args))); err != nil {
		return 0, err
	}
	if err := l.checkPromiseLimit(); err != nil {
		return 0, err
	}
	if err := l.counter.PayActionBase(types.ActionCostYieldCreateBase); err != nil {
		return 0, err
	}
	if err := l.payFunctionCallFees(uint64(len(method)), uint64(len(args)), gas); err != nil {
		return 0, err
	}
	receipt, dataID, xerr := l.ext.CreatePromiseYieldReceipt(l.context.CurrentAccountID)
	if xerr != nil {
		return 0, types.AsVMLogicError(xerr)
	}
	if xerr := l.ext.AppendActionFunctionCallWeight(receipt, method, args, types.Balance{}, gas, gasWeight); xerr != nil {
		return 0, types.AsVMLogicError(xerr)
	}
	if err := l.setRegister(registerID, dataID[:]); err != nil {
		return 0, err
	}
	return l.appendPromise(receipt), nil
}

// PromiseYieldResume delivers a payload for a yielded promise. Returns 1
// if the data id was still awaited, 0 if it was unknown or expired.
func (l *VMLogic) PromiseYieldResume(dataIDLen, dataIDPtr, payloadLen, payloadPtr uint64) (uint64, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.checkNotView("promise_yield_resume"); err != nil {
		return 0, err
	}
	if err := l.counter.PayBase(types.ExtCostYieldResumeBase); err != nil {
		return 0, err
	}
	rawID, err := l.memoryOrRegister(dataIDPtr, dataIDLen)
	if err != nil {
		return 0, err
	}
	if len(rawID) != len(types.DataID{}) {
		return 0, types.NewHostError(types.DataIDMalformed)
	}
	payload, err := l.memoryOrRegister(payloadPtr, payloadLen)
	if err != nil {
		return 0, err
	}
	if limit := l.limits().YieldPayloadSizeLimit; uint64(len(payload)) > limit {
		return 0, types.NewLimitHostError(types.YieldPayloadLength, uint64(len(payload)), limit)
	}
	if err := l.counter.PayPer(types.ExtCostYieldResumeByte, uint64(len(payload))); err != nil {
		return 0, err
	}
	if err := l.counter.PayActionBase(types.ActionCostYieldResume); err != nil {
		return 0, err
	}
	var dataID types.DataID
	copy(dataID[:], rawID)
	accepted, xerr := l.ext.SubmitPromiseResumeData(dataID, payload)
	if xerr != nil {
		return 0, types.AsVMLogicError(xerr)
	}
	if accepted {
		return 1, nil
	}
	return 0, nil
}

// PromiseResultsCount returns the number of promise results available to
// this callback.
func (l *VMLogic) PromiseResultsCount() (uint64, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.checkNotView("promise_results_count"); err != nil {
		return 0, err
	}
	return uint64(len(l.context.PromiseResults)), nil
}

// PromiseResult loads one promise result. Returns 0 for not ready, 1 for
// success (value in the register), 2 for failure.
func (l *VMLogic) PromiseResult(resultIdx, registerID uint64) (uint64, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.checkNotView("promise_result"); err != nil {
		return 0, err
	}
	if resultIdx >= uint64(len(l.context.PromiseResults)) {
		return 0, types.NewIndexHostError(types.InvalidPromiseResultIndex, resultIdx)
	}
	result := l.context.PromiseResults[resultIdx]
	switch {
	case result.NotReady:
		return 0, nil
	case result.Failed:
		return 2, nil
	default:
		if err := l.setRegister(registerID, result.Value); err != nil {
			return 0, err
		}
		return 1, nil
	}
}

// PromiseReturn makes the call return the eventual value of a promise
// instead of its own return data.
func (l *VMLogic) PromiseReturn(promiseIdx types.PromiseIndex) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.checkNotView("promise_return"); err != nil {
		return err
	}
	if err := l.counter.PayBase(types.ExtCostPromiseReturn); err != nil {
		return err
	}
	p, err := l.getPromise(promiseIdx)
	if err != nil {
		return err
	}
	if p.joint {
		return types.NewHostError(types.CannotReturnJointPromise)
	}
	receipt := p.receipt
	l.returnData = types.ReturnData{ReceiptIndex: &receipt}
	return nil
}
