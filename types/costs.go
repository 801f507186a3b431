package types

// ExtCost names a metered host-side cost. Base and per-unit prices are
// separate entries, so a single host call typically charges one *Base
// cost plus one or more *Byte/*Element costs.
type ExtCost int

const (
	ExtCostBase ExtCost = iota
	ExtCostContractLoadingBase
	ExtCostContractLoadingBytes
	ExtCostReadMemoryBase
	ExtCostReadMemoryByte
	ExtCostWriteMemoryBase
	ExtCostWriteMemoryByte
	ExtCostReadRegisterBase
	ExtCostReadRegisterByte
	ExtCostWriteRegisterBase
	ExtCostWriteRegisterByte
	ExtCostUTF8DecodingBase
	ExtCostUTF8DecodingByte
	ExtCostUTF16DecodingBase
	ExtCostUTF16DecodingByte
	ExtCostSha256Base
	ExtCostSha256Byte
	ExtCostKeccak256Base
	ExtCostKeccak256Byte
	ExtCostKeccak512Base
	ExtCostKeccak512Byte
	ExtCostRipemd160Base
	ExtCostRipemd160Block
	ExtCostEd25519VerifyBase
	ExtCostEd25519VerifyByte
	ExtCostLogBase
	ExtCostLogByte
	ExtCostStorageWriteBase
	ExtCostStorageWriteKeyByte
	ExtCostStorageWriteValueByte
	ExtCostStorageWriteEvictedByte
	ExtCostStorageReadBase
	ExtCostStorageReadKeyByte
	ExtCostStorageReadValueByte
	ExtCostStorageRemoveBase
	ExtCostStorageRemoveKeyByte
	ExtCostStorageRemoveRetValueByte
	ExtCostStorageHasKeyBase
	ExtCostStorageHasKeyByte
	ExtCostStorageIterCreatePrefixBase
	ExtCostStorageIterCreatePrefixByte
	ExtCostStorageIterCreateRangeBase
	ExtCostStorageIterCreateFromByte
	ExtCostStorageIterCreateToByte
	ExtCostStorageIterNextBase
	ExtCostStorageIterNextKeyByte
	ExtCostStorageIterNextValueByte
	ExtCostTouchingTrieNode
	ExtCostReadCachedTrieNode
	ExtCostPromiseAndBase
	ExtCostPromiseAndPerPromise
	ExtCostPromiseReturn
	ExtCostValidatorStakeBase
	ExtCostValidatorTotalStakeBase
	ExtCostAltBn128G1MultiexpBase
	ExtCostAltBn128G1MultiexpElement
	ExtCostAltBn128PairingCheckBase
	ExtCostAltBn128PairingCheckElement
	ExtCostAltBn128G1SumBase
	ExtCostAltBn128G1SumElement
	ExtCostYieldCreateBase
	ExtCostYieldCreateByte
	ExtCostYieldResumeBase
	ExtCostYieldResumeByte

	// NumExtCosts is the table size, not a cost.
	NumExtCosts
)

var extCostNames = [NumExtCosts]string{
	"base",
	"contract_loading_base",
	"contract_loading_bytes",
	"read_memory_base",
	"read_memory_byte",
	"write_memory_base",
	"write_memory_byte",
	"read_register_base",
	"read_register_byte",
	"write_register_base",
	"write_register_byte",
	"utf8_decoding_base",
	"utf8_decoding_byte",
	"utf16_decoding_base",
	"utf16_decoding_byte",
	"sha256_base",
	"sha256_byte",
	"keccak256_base",
	"keccak256_byte",
	"keccak512_base",
	"keccak512_byte",
	"ripemd160_base",
	"ripemd160_block",
	"ed25519_verify_base",
	"ed25519_verify_byte",
	"log_base",
	"log_byte",
	"storage_write_base",
	"storage_write_key_byte",
	"storage_write_value_byte",
	"storage_write_evicted_byte",
	"storage_read_base",
	"storage_read_key_byte",
	"storage_read_value_byte",
	"storage_remove_base",
	"storage_remove_key_byte",
	"storage_remove_ret_value_byte",
	"storage_has_key_base",
	"storage_has_key_byte",
	"storage_iter_create_prefix_base",
	"storage_iter_create_prefix_byte",
	"storage_iter_create_range_base",
	"storage_iter_create_from_byte",
	"storage_iter_create_to_byte",
	"storage_iter_next_base",
	"storage_iter_next_key_byte",
	"storage_iter_next_value_byte",
	"touching_trie_node",
	"read_cached_trie_node",
	"promise_and_base",
	"promise_and_per_promise",
	"promise_return",
	"validator_stake_base",
	"validator_total_stake_base",
	"alt_bn128_g1_multiexp_base",
	"alt_bn128_g1_multiexp_element",
	"alt_bn128_pairing_check_base",
	"alt_bn128_pairing_check_element",
	"alt_bn128_g1_sum_base",
	"alt_bn128_g1_sum_element",
	"yield_create_base",
	"yield_create_byte",
	"yield_resume_base",
	"yield_resume_byte",
}

func (c ExtCost) String() string {
	if c < 0 || c >= NumExtCosts {
		return "unknown"
	}
	return extCostNames[c]
}

// ActionCost names a metered receipt action cost.
type ActionCost int

const (
	ActionCostCreateAccount ActionCost = iota
	ActionCostDeleteAccount
	ActionCostDeployContractBase
	ActionCostDeployContractByte
	ActionCostFunctionCallBase
	ActionCostFunctionCallByte
	ActionCostTransfer
	ActionCostStake
	ActionCostAddFullAccessKey
	ActionCostAddFunctionCallKeyBase
	ActionCostAddFunctionCallKeyByte
	ActionCostDeleteKey
	ActionCostNewActionReceipt
	ActionCostNewDataReceiptBase
	ActionCostNewDataReceiptByte
	ActionCostYieldCreateBase
	ActionCostYieldResume

	// NumActionCosts is the table size, not a cost.
	NumActionCosts
)

var actionCostNames = [NumActionCosts]string{
	"create_account",
	"delete_account",
	"deploy_contract_base",
	"deploy_contract_byte",
	"function_call_base",
	"function_call_byte",
	"transfer",
	"stake",
	"add_full_access_key",
	"add_function_call_key_base",
	"add_function_call_key_byte",
	"delete_key",
	"new_action_receipt",
	"new_data_receipt_base",
	"new_data_receipt_byte",
	"yield_create_base",
	"yield_resume",
}

func (c ActionCost) String() string {
	if c < 0 || c >= NumActionCosts {
		return "unknown"
	}
	return actionCostNames[c]
}

// ActionFee prices one receipt action: the send part is burnt when the
// receipt is created, the exec part is reserved against prepaid gas until
// the receipt executes.
type ActionFee struct {
	Send Gas `json:"send"`
	Exec Gas `json:"exec"`
}

// ExtCostsConfig is the cost table: one gas price per ExtCost kind and
// one fee per ActionCost kind. All charging is driven by this table, so
// two hosts with equal tables meter bit-identically.
type ExtCostsConfig struct {
	Costs      [NumExtCosts]Gas       `json:"costs"`
	ActionFees [NumActionCosts]ActionFee `json:"action_fees"`
}

// Gas returns the price of the given cost kind.
func (c *ExtCostsConfig) Gas(cost ExtCost) Gas {
	return c.Costs[cost]
}

// Fee returns the fee of the given action cost kind.
func (c *ExtCostsConfig) Fee(cost ActionCost) ActionFee {
	return c.ActionFees[cost]
}

// DefaultExtCostsConfig returns the protocol cost table.
func DefaultExtCostsConfig() ExtCostsConfig {
	var cfg ExtCostsConfig
	cfg.Costs = [NumExtCosts]Gas{
		ExtCostBase:                        264_768_111,
		ExtCostContractLoadingBase:         35_445_963,
		ExtCostContractLoadingBytes:        1_089_295,
		ExtCostReadMemoryBase:              2_609_863_200,
		ExtCostReadMemoryByte:              3_801_333,
		ExtCostWriteMemoryBase:             2_803_794_861,
		ExtCostWriteMemoryByte:             2_723_772,
		ExtCostReadRegisterBase:            2_517_165_186,
		ExtCostReadRegisterByte:            98_562,
		ExtCostWriteRegisterBase:           2_865_522_486,
		ExtCostWriteRegisterByte:           3_801_564,
		ExtCostUTF8DecodingBase:            3_111_779_061,
		ExtCostUTF8DecodingByte:            291_580_479,
		ExtCostUTF16DecodingBase:           3_543_313_050,
		ExtCostUTF16DecodingByte:           163_577_493,
		ExtCostSha256Base:                  4_540_970_250,
		ExtCostSha256Byte:                  24_117_351,
		ExtCostKeccak256Base:               5_879_491_275,
		ExtCostKeccak256Byte:               21_471_105,
		ExtCostKeccak512Base:               5_811_388_236,
		ExtCostKeccak512Byte:               36_649_701,
		ExtCostRipemd160Base:               853_675_086,
		ExtCostRipemd160Block:              680_107_584,
		ExtCostEd25519VerifyBase:           210_000_000_000,
		ExtCostEd25519VerifyByte:           9_000_000,
		ExtCostLogBase:                     3_543_313_050,
		ExtCostLogByte:                     13_198_791,
		ExtCostStorageWriteBase:            64_196_736_000,
		ExtCostStorageWriteKeyByte:         70_482_867,
		ExtCostStorageWriteValueByte:       31_018_539,
		ExtCostStorageWriteEvictedByte:     32_117_307,
		ExtCostStorageReadBase:             56_356_845_750,
		ExtCostStorageReadKeyByte:          30_952_533,
		ExtCostStorageReadValueByte:        5_611_005,
		ExtCostStorageRemoveBase:           53_473_030_500,
		ExtCostStorageRemoveKeyByte:        38_220_384,
		ExtCostStorageRemoveRetValueByte:   11_531_556,
		ExtCostStorageHasKeyBase:           54_039_896_625,
		ExtCostStorageHasKeyByte:           30_790_845,
		ExtCostStorageIterCreatePrefixBase: 28_443_562_500,
		ExtCostStorageIterCreatePrefixByte: 442_354_947,
		ExtCostStorageIterCreateRangeBase:  25_804_628_250,
		ExtCostStorageIterCreateFromByte:   429_608_844,
		ExtCostStorageIterCreateToByte:     1_302_886_884,
		ExtCostStorageIterNextBase:         24_213_163_125,
		ExtCostStorageIterNextKeyByte:      539_981_670,
		ExtCostStorageIterNextValueByte:    1_804_196_325,
		ExtCostTouchingTrieNode:            16_101_955_926,
		ExtCostReadCachedTrieNode:          2_280_000_000,
		ExtCostPromiseAndBase:              1_465_013_400,
		ExtCostPromiseAndPerPromise:        5_452_176,
		ExtCostPromiseReturn:               560_152_386,
		ExtCostValidatorStakeBase:          911_834_726_400,
		ExtCostValidatorTotalStakeBase:     911_834_726_400,
		ExtCostAltBn128G1MultiexpBase:      713_000_000_000,
		ExtCostAltBn128G1MultiexpElement:   320_000_000_000,
		ExtCostAltBn128PairingCheckBase:    9_686_000_000_000,
		ExtCostAltBn128PairingCheckElement: 5_102_000_000_000,
		ExtCostAltBn128G1SumBase:           3_000_000_000,
		ExtCostAltBn128G1SumElement:        5_000_000_000,
		ExtCostYieldCreateBase:             153_411_779_276,
		ExtCostYieldCreateByte:             15_643_988,
		ExtCostYieldResumeBase:             1_195_627_285_210,
		ExtCostYieldResumeByte:             17_212_011,
	}
	cfg.ActionFees = [NumActionCosts]ActionFee{
		ActionCostCreateAccount:          {Send: 3_850_000_000_000, Exec: 3_850_000_000_000},
		ActionCostDeleteAccount:          {Send: 147_489_000_000, Exec: 147_489_000_000},
		ActionCostDeployContractBase:     {Send: 184_765_750_000, Exec: 184_765_750_000},
		ActionCostDeployContractByte:     {Send: 6_812_999, Exec: 64_572_944},
		ActionCostFunctionCallBase:       {Send: 2_319_861_500_000, Exec: 2_319_861_500_000},
		ActionCostFunctionCallByte:       {Send: 2_235_934, Exec: 2_235_934},
		ActionCostTransfer:               {Send: 115_123_062_500, Exec: 115_123_062_500},
		ActionCostStake:                  {Send: 141_715_687_500, Exec: 102_217_625_000},
		ActionCostAddFullAccessKey:       {Send: 101_765_125_000, Exec: 101_765_125_000},
		ActionCostAddFunctionCallKeyBase: {Send: 102_217_625_000, Exec: 102_217_625_000},
		ActionCostAddFunctionCallKeyByte: {Send: 1_925_331, Exec: 1_925_331},
		ActionCostDeleteKey:              {Send: 94_946_625_000, Exec: 94_946_625_000},
		ActionCostNewActionReceipt:       {Send: 108_059_500_000, Exec: 108_059_500_000},
		ActionCostNewDataReceiptBase:     {Send: 36_486_732_312, Exec: 36_486_732_312},
		ActionCostNewDataReceiptByte:     {Send: 17_212_011, Exec: 17_212_011},
		ActionCostYieldCreateBase:        {Send: 153_411_779_276, Exec: 153_411_779_276},
		ActionCostYieldResume:            {Send: 1_195_627_285_210, Exec: 1_195_627_285_210},
	}
	return cfg
}

// FreeExtCostsConfig returns an all-zero cost table, useful for tests
// that assert logic rather than metering.
func FreeExtCostsConfig() ExtCostsConfig {
	return ExtCostsConfig{}
}
