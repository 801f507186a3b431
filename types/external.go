package types

// MemoryLike is the guest-memory capability supplied by the execution
// engine. Every access is bounds-checked by the capability itself; the
// runtime never trusts a pointer/length pair blindly.
type MemoryLike interface {
	// FitsMemory reports whether the slice lies within the memory bounds.
	FitsMemory(slice MemSlice) error
	// ViewMemory returns the bytes of the slice. Engines that cannot hand
	// out a borrowed view may return a copy.
	ViewMemory(slice MemSlice) ([]byte, error)
	// ReadMemory copies guest memory at offset into buf.
	ReadMemory(offset uint64, buf []byte) error
	// WriteMemory copies buf into guest memory at offset.
	WriteMemory(offset uint64, buf []byte) error
}

// ValuePtr defers dereferencing a storage value so the caller can charge
// per-byte gas before the bytes are materialized.
type ValuePtr interface {
	// Len returns the value length.
	Len() uint32
	// Deref materializes the value.
	Deref() ([]byte, error)
}

// TrieNodesCount tallies trie nodes touched by storage operations, split
// by whether the node came from the database or an in-memory cache.
type TrieNodesCount struct {
	DBReads  uint64 `json:"db_reads"`
	MemReads uint64 `json:"mem_reads"`
}

// CountSince returns the node-count delta since an earlier snapshot, or
// an error if the counters went backwards.
func (c TrieNodesCount) CountSince(earlier TrieNodesCount) (TrieNodesCount, bool) {
	if c.DBReads < earlier.DBReads || c.MemReads < earlier.MemReads {
		return TrieNodesCount{}, false
	}
	return TrieNodesCount{
		DBReads:  c.DBReads - earlier.DBReads,
		MemReads: c.MemReads - earlier.MemReads,
	}, true
}

// StorageGetMode distinguishes trie-node-counted reads from uncounted
// ones.
type StorageGetMode int

const (
	// StorageGetModeFlat reads without touching trie nodes.
	StorageGetModeFlat StorageGetMode = iota
	// StorageGetModeTrie reads through the trie and counts nodes.
	StorageGetModeTrie
)

// StorageIterator walks an ordered key range. The shape follows the
// database iterators the embedding chain exposes: position first, then
// Key/Value, Next to advance, Close when done.
type StorageIterator interface {
	Valid() bool
	Key() []byte
	Value() []byte
	Next()
	Error() error
	Close() error
}

// External is the seam to blockchain state. The runtime delegates every
// storage, validator, and receipt operation here and never learns the
// concrete implementation.
type External interface {
	// StorageSet stores value under key.
	StorageSet(key, value []byte) error
	// StorageGet reads key; nil ValuePtr means absent.
	StorageGet(key []byte, mode StorageGetMode) (ValuePtr, error)
	// StorageRemove deletes key.
	StorageRemove(key []byte) error
	// StorageRemoveSubtree deletes every key with the given prefix.
	StorageRemoveSubtree(prefix []byte) error
	// StorageHasKey reports presence of key.
	StorageHasKey(key []byte, mode StorageGetMode) (bool, error)
	// StorageIter opens an iterator over [start, end). A nil end iterates
	// to the end of state.
	StorageIter(start, end []byte) (StorageIterator, error)

	// GenerateDataID mints a fresh data id for receipts and yields.
	GenerateDataID() DataID

	// GetTrieNodesCount returns the running node-touch counters.
	GetTrieNodesCount() TrieNodesCount
	// GetRecordedStorageSize returns the current trie proof size in bytes.
	GetRecordedStorageSize() uint64

	// ValidatorStake returns the stake of a validator, nil if absent.
	ValidatorStake(accountID AccountID) (*Balance, error)
	// ValidatorTotalStake returns the total stake of the epoch validators.
	ValidatorTotalStake() (Balance, error)

	// CreateActionReceipt creates a receipt which will execute once every
	// listed receipt produces its data.
	CreateActionReceipt(receiptIndices []ReceiptIndex, receiverID AccountID) (ReceiptIndex, error)
	// CreatePromiseYieldReceipt creates a self-addressed receipt blocked
	// on a fresh data id until resumed.
	CreatePromiseYieldReceipt(receiverID AccountID) (ReceiptIndex, DataID, error)
	// SubmitPromiseResumeData delivers the payload for a yielded receipt.
	// False means the data id was not awaited (expired or unknown).
	SubmitPromiseResumeData(dataID DataID, payload []byte) (bool, error)

	// GetReceiptReceiver returns the receiver account of a receipt
	// previously created in this call.
	GetReceiptReceiver(receiptIndex ReceiptIndex) AccountID

	AppendActionCreateAccount(receiptIndex ReceiptIndex) error
	AppendActionDeployContract(receiptIndex ReceiptIndex, code []byte) error
	AppendActionFunctionCallWeight(receiptIndex ReceiptIndex, methodName, args []byte, attachedDeposit Balance, prepaidGas Gas, gasWeight GasWeight) error
	AppendActionTransfer(receiptIndex ReceiptIndex, deposit Balance) error
	AppendActionStake(receiptIndex ReceiptIndex, stake Balance, publicKey PublicKey) error
	AppendActionAddKeyWithFullAccess(receiptIndex ReceiptIndex, publicKey PublicKey, nonce Nonce) error
	AppendActionAddKeyWithFunctionCall(receiptIndex ReceiptIndex, publicKey PublicKey, nonce Nonce, allowance *Balance, receiverID AccountID, methodNames []string) error
	AppendActionDeleteKey(receiptIndex ReceiptIndex, publicKey PublicKey) error
	AppendActionDeleteAccount(receiptIndex ReceiptIndex, beneficiaryID AccountID) error
}
