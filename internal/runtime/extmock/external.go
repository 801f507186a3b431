// Package extmock provides an in-memory External implementation backed
// by a memdb. It exists for tests and for the demo binary; a chain
// embedding the runtime supplies its own External over real state.
package extmock

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/meterwasm/vmhost/types"
)

// Action records one receipt action for later inspection.
type Action interface{ actionTag() }

type CreateAccountAction struct{}

type DeployContractAction struct{ Code []byte }

type FunctionCallAction struct {
	MethodName []byte
	Args       []byte
	Deposit    types.Balance
	Gas        types.Gas
	GasWeight  types.GasWeight
}

type TransferAction struct{ Deposit types.Balance }

type StakeAction struct {
	Stake     types.Balance
	PublicKey types.PublicKey
}

type AddKeyWithFullAccessAction struct {
	PublicKey types.PublicKey
	Nonce     types.Nonce
}

type AddKeyWithFunctionCallAction struct {
	PublicKey   types.PublicKey
	Nonce       types.Nonce
	Allowance   *types.Balance
	ReceiverID  types.AccountID
	MethodNames []string
}

type DeleteKeyAction struct{ PublicKey types.PublicKey }

type DeleteAccountAction struct{ BeneficiaryID types.AccountID }

func (CreateAccountAction) actionTag()          {}
func (DeployContractAction) actionTag()         {}
func (FunctionCallAction) actionTag()           {}
func (TransferAction) actionTag()               {}
func (StakeAction) actionTag()                  {}
func (AddKeyWithFullAccessAction) actionTag()   {}
func (AddKeyWithFunctionCallAction) actionTag() {}
func (DeleteKeyAction) actionTag()              {}
func (DeleteAccountAction) actionTag()          {}

// Receipt is one recorded receipt with its dependencies and actions.
type Receipt struct {
	ReceiverID types.AccountID
	Deps       []types.ReceiptIndex
	Actions    []Action
}

// External is the in-memory collaborator: contract state in a memdb,
// receipts and yields in plain slices and maps.
type External struct {
	db dbm.DB

	trieNodes       types.TrieNodesCount
	recordedStorage uint64

	receipts []Receipt

	validators map[types.AccountID]types.Balance
	totalStake types.Balance

	dataCount uint64
	yields    map[types.DataID][]byte
	resumed   map[types.DataID]bool
}

var _ types.External = (*External)(nil)

// NewExternal builds an empty in-memory external.
func NewExternal() *External {
	return &External{
		db:         dbm.NewMemDB(),
		validators: make(map[types.AccountID]types.Balance),
		yields:     make(map[types.DataID][]byte),
		resumed:    make(map[types.DataID]bool),
	}
}

// SetValidator registers a validator stake for lookups.
func (e *External) SetValidator(accountID types.AccountID, stake types.Balance) {
	e.validators[accountID] = stake
	total, overflow := e.totalStake.Add(stake)
	if !overflow {
		e.totalStake = total
	}
}

// Receipts exposes the recorded receipts.
func (e *External) Receipts() []Receipt { return e.receipts }

// countTrieRead emulates trie accounting: every counted read touches one
// fresh node and contributes its bytes to the recorded proof.
func (e *External) countTrieRead(mode types.StorageGetMode, size uint64) {
	if mode != types.StorageGetModeTrie {
		return
	}
	e.trieNodes.DBReads++
	e.recordedStorage += size
}

type valuePtr struct{ data []byte }

func (v valuePtr) Len() uint32            { return uint32(len(v.data)) }
func (v valuePtr) Deref() ([]byte, error) { return v.data, nil }

func (e *External) StorageSet(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return e.db.Set(key, value)
}

func (e *External) StorageGet(key []byte, mode types.StorageGetMode) (types.ValuePtr, error) {
	value, err := e.db.Get(key)
	if err != nil {
		return nil, err
	}
	if value == nil {
		e.countTrieRead(mode, uint64(len(key)))
		return nil, nil
	}
	e.countTrieRead(mode, uint64(len(key))+uint64(len(value)))
	return valuePtr{data: value}, nil
}

func (e *External) StorageRemove(key []byte) error {
	return e.db.Delete(key)
}

func (e *External) StorageRemoveSubtree(prefix []byte) error {
	it, err := e.db.Iterator(prefix, prefixUpperBound(prefix))
	if err != nil {
		return err
	}
	var keys [][]byte
	for ; it.Valid(); it.Next() {
		keys = append(keys, append([]byte(nil), it.Key()...))
	}
	if err := it.Close(); err != nil {
		return err
	}
	for _, k := range keys {
		if err := e.db.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func (e *External) StorageHasKey(key []byte, mode types.StorageGetMode) (bool, error) {
	has, err := e.db.Has(key)
	if err != nil {
		return false, err
	}
	e.countTrieRead(mode, uint64(len(key)))
	return has, nil
}

func (e *External) StorageIter(start, end []byte) (types.StorageIterator, error) {
	if len(start) == 0 {
		start = nil
	}
	return e.db.Iterator(start, end)
}

// prefixUpperBound mirrors the range-end computation of the iterator
// surface: the smallest key above every prefixed key.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func (e *External) GenerateDataID() types.DataID {
	e.dataCount++
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], e.dataCount)
	return types.DataID(sha256.Sum256(seed[:]))
}

func (e *External) GetTrieNodesCount() types.TrieNodesCount { return e.trieNodes }

func (e *External) GetRecordedStorageSize() uint64 { return e.recordedStorage }

func (e *External) ValidatorStake(accountID types.AccountID) (*types.Balance, error) {
	stake, ok := e.validators[accountID]
	if !ok {
		return nil, nil
	}
	return &stake, nil
}

func (e *External) ValidatorTotalStake() (types.Balance, error) {
	return e.totalStake, nil
}

func (e *External) CreateActionReceipt(deps []types.ReceiptIndex, receiverID types.AccountID) (types.ReceiptIndex, error) {
	e.receipts = append(e.receipts, Receipt{
		ReceiverID: receiverID,
		Deps:       append([]types.ReceiptIndex(nil), deps...),
	})
	return types.ReceiptIndex(len(e.receipts) - 1), nil
}

func (e *External) CreatePromiseYieldReceipt(receiverID types.AccountID) (types.ReceiptIndex, types.DataID, error) {
	dataID := e.GenerateDataID()
	e.yields[dataID] = nil
	idx, err := e.CreateActionReceipt(nil, receiverID)
	return idx, dataID, err
}

func (e *External) SubmitPromiseResumeData(dataID types.DataID, payload []byte) (bool, error) {
	if _, ok := e.yields[dataID]; !ok {
		return false, nil
	}
	if e.resumed[dataID] {
		return false, nil
	}
	e.resumed[dataID] = true
	e.yields[dataID] = append([]byte(nil), payload...)
	return true, nil
}

func (e *External) GetReceiptReceiver(receiptIndex types.ReceiptIndex) types.AccountID {
	if receiptIndex >= uint64(len(e.receipts)) {
		return ""
	}
	return e.receipts[receiptIndex].ReceiverID
}

func (e *External) appendAction(receiptIndex types.ReceiptIndex, action Action) error {
	if receiptIndex >= uint64(len(e.receipts)) {
		return fmt.Errorf("unknown receipt index %d", receiptIndex)
	}
	e.receipts[receiptIndex].Actions = append(e.receipts[receiptIndex].Actions, action)
	return nil
}

func (e *External) AppendActionCreateAccount(receiptIndex types.ReceiptIndex) error {
	return e.appendAction(receiptIndex, CreateAccountAction{})
}

func (e *External) AppendActionDeployContract(receiptIndex types.ReceiptIndex, code []byte) error {
	return e.appendAction(receiptIndex, DeployContractAction{Code: append([]byte(nil), code...)})
}

func (e *External) AppendActionFunctionCallWeight(receiptIndex types.ReceiptIndex, methodName, args []byte, attachedDeposit types.Balance, prepaidGas types.Gas, gasWeight types.GasWeight) error {
	return e.appendAction(receiptIndex, FunctionCallAction{
		MethodName: append([]byte(nil), methodName...),
		Args:       append([]byte(nil), args...),
		Deposit:    attachedDeposit,
		Gas:        prepaidGas,
		GasWeight:  gasWeight,
	})
}

func (e *External) AppendActionTransfer(receiptIndex types.ReceiptIndex, deposit types.Balance) error {
	return e.appendAction(receiptIndex, TransferAction{Deposit: deposit})
}

func (e *External) AppendActionStake(receiptIndex types.ReceiptIndex, stake types.Balance, publicKey types.PublicKey) error {
	return e.appendAction(receiptIndex, StakeAction{Stake: stake, PublicKey: publicKey})
}

func (e *External) AppendActionAddKeyWithFullAccess(receiptIndex types.ReceiptIndex, publicKey types.PublicKey, nonce types.Nonce) error {
	return e.appendAction(receiptIndex, AddKeyWithFullAccessAction{PublicKey: publicKey, Nonce: nonce})
}

func (e *External) AppendActionAddKeyWithFunctionCall(receiptIndex types.ReceiptIndex, publicKey types.PublicKey, nonce types.Nonce, allowance *types.Balance, receiverID types.AccountID, methodNames []string) error {
	return e.appendAction(receiptIndex, AddKeyWithFunctionCallAction{
		PublicKey:   publicKey,
		Nonce:       nonce,
		Allowance:   allowance,
		ReceiverID:  receiverID,
		MethodNames: methodNames,
	})
}

func (e *External) AppendActionDeleteKey(receiptIndex types.ReceiptIndex, publicKey types.PublicKey) error {
	return e.appendAction(receiptIndex, DeleteKeyAction{PublicKey: publicKey})
}

func (e *External) AppendActionDeleteAccount(receiptIndex types.ReceiptIndex, beneficiaryID types.AccountID) error {
	return e.appendAction(receiptIndex, DeleteAccountAction{BeneficiaryID: beneficiaryID})
}
