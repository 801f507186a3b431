package types

// PromiseResult is the outcome of an awaited promise, delivered to the
// callback call as an input data dependency.
type PromiseResult struct {
	// NotReady means the dependency has not been delivered yet.
	NotReady bool `json:"not_ready,omitempty"`
	// Failed means the awaited call failed.
	Failed bool `json:"failed,omitempty"`
	// Value is the successful return value.
	Value []byte `json:"value,omitempty"`
}

// VMContext is the immutable snapshot of chain and call state one
// contract execution observes.
type VMContext struct {
	// CurrentAccountID is the account owning the executing contract.
	CurrentAccountID AccountID `json:"current_account_id"`
	// SignerAccountID signed the originating transaction.
	SignerAccountID AccountID `json:"signer_account_id"`
	// SignerAccountPK is the signer's public key blob.
	SignerAccountPK []byte `json:"signer_account_pk"`
	// PredecessorAccountID issued the receipt being executed.
	PredecessorAccountID AccountID `json:"predecessor_account_id"`
	// Input is the method argument blob.
	Input []byte `json:"input"`
	// BlockHeight, BlockTimestamp and EpochHeight locate the execution in
	// chain time. The timestamp is nanoseconds since the unix epoch.
	BlockHeight    BlockHeight `json:"block_height"`
	BlockTimestamp uint64      `json:"block_timestamp"`
	EpochHeight    EpochHeight `json:"epoch_height"`
	// AccountBalance and AccountLockedBalance are the current account's
	// liquid and staked balances.
	AccountBalance       Balance `json:"account_balance"`
	AccountLockedBalance Balance `json:"account_locked_balance"`
	// StorageUsage is the current account's state footprint in bytes.
	StorageUsage StorageUsage `json:"storage_usage"`
	// AttachedDeposit came with the call.
	AttachedDeposit Balance `json:"attached_deposit"`
	// PrepaidGas is the gas attached to the call.
	PrepaidGas Gas `json:"prepaid_gas"`
	// RandomSeed is deterministic per block and action.
	RandomSeed []byte `json:"random_seed"`
	// ViewConfig, when set, marks the call read-only.
	ViewConfig *ViewConfig `json:"view_config,omitempty"`
	// OutputDataReceivers lists the accounts that receive the returned
	// data, one data receipt each.
	OutputDataReceivers []AccountID `json:"output_data_receivers"`
	// PromiseResults carries results of awaited promises for callbacks.
	PromiseResults []PromiseResult `json:"promise_results"`
}

// IsView reports whether the call runs in the restricted read-only mode.
func (c *VMContext) IsView() bool {
	return c.ViewConfig != nil
}
