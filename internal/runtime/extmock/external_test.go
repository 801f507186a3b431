package extmock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterwasm/vmhost/types"
)

func mustGet(t *testing.T, e *External, key string, mode types.StorageGetMode) []byte {
	t.Helper()
	ptr, err := e.StorageGet([]byte(key), mode)
	require.NoError(t, err)
	if ptr == nil {
		return nil
	}
	value, err := ptr.Deref()
	require.NoError(t, err)
	return value
}

func TestStorageSetGetRemove(t *testing.T) {
	e := NewExternal()

	require.NoError(t, e.StorageSet([]byte("k"), []byte("v")))
	assert.Equal(t, []byte("v"), mustGet(t, e, "k", types.StorageGetModeFlat))

	has, err := e.StorageHasKey([]byte("k"), types.StorageGetModeFlat)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, e.StorageRemove([]byte("k")))
	assert.Nil(t, mustGet(t, e, "k", types.StorageGetModeFlat))
}

func TestTrieModeCountsNodes(t *testing.T) {
	e := NewExternal()
	require.NoError(t, e.StorageSet([]byte("key"), []byte("value")))

	mustGet(t, e, "key", types.StorageGetModeFlat)
	assert.Equal(t, uint64(0), e.GetTrieNodesCount().DBReads)
	assert.Equal(t, uint64(0), e.GetRecordedStorageSize())

	mustGet(t, e, "key", types.StorageGetModeTrie)
	assert.Equal(t, uint64(1), e.GetTrieNodesCount().DBReads)
	assert.Equal(t, uint64(8), e.GetRecordedStorageSize())

	// A counted miss records the key alone.
	mustGet(t, e, "nope", types.StorageGetModeTrie)
	assert.Equal(t, uint64(2), e.GetTrieNodesCount().DBReads)
	assert.Equal(t, uint64(12), e.GetRecordedStorageSize())
}

func TestStorageRemoveSubtree(t *testing.T) {
	e := NewExternal()
	for _, k := range []string{"a/1", "a/2", "b/1"} {
		require.NoError(t, e.StorageSet([]byte(k), []byte("v")))
	}

	require.NoError(t, e.StorageRemoveSubtree([]byte("a/")))
	assert.Nil(t, mustGet(t, e, "a/1", types.StorageGetModeFlat))
	assert.Nil(t, mustGet(t, e, "a/2", types.StorageGetModeFlat))
	assert.Equal(t, []byte("v"), mustGet(t, e, "b/1", types.StorageGetModeFlat))
}

func TestStorageIterOrder(t *testing.T) {
	e := NewExternal()
	for _, k := range []string{"c", "a", "b"} {
		require.NoError(t, e.StorageSet([]byte(k), []byte("v"+k)))
	}

	it, err := e.StorageIter([]byte("a"), []byte("c"))
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for ; it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestPrefixUpperBound(t *testing.T) {
	assert.Equal(t, []byte("a0"), prefixUpperBound([]byte("a/")))
	assert.Equal(t, []byte("b"), prefixUpperBound([]byte("a\xff")))
	assert.Nil(t, prefixUpperBound([]byte("\xff")))
}

func TestReceiptsAndActions(t *testing.T) {
	e := NewExternal()

	idx0, err := e.CreateActionReceipt(nil, "a.test")
	require.NoError(t, err)
	idx1, err := e.CreateActionReceipt([]types.ReceiptIndex{idx0}, "b.test")
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptIndex(0), idx0)
	assert.Equal(t, types.ReceiptIndex(1), idx1)

	assert.Equal(t, types.AccountID("a.test"), e.GetReceiptReceiver(idx0))
	assert.Equal(t, types.AccountID(""), e.GetReceiptReceiver(99))

	require.NoError(t, e.AppendActionTransfer(idx1, types.Balance{Lo: 5}))
	require.NoError(t, e.AppendActionCreateAccount(idx1))

	receipts := e.Receipts()
	require.Len(t, receipts, 2)
	assert.Equal(t, []types.ReceiptIndex{idx0}, receipts[1].Deps)
	require.Len(t, receipts[1].Actions, 2)
	assert.Equal(t, TransferAction{Deposit: types.Balance{Lo: 5}}, receipts[1].Actions[0])

	err = e.AppendActionCreateAccount(99)
	assert.EqualError(t, err, "unknown receipt index 99")
}

func TestYieldLifecycle(t *testing.T) {
	e := NewExternal()

	idx, dataID, err := e.CreatePromiseYieldReceipt("alice.test")
	require.NoError(t, err)
	assert.Equal(t, types.AccountID("alice.test"), e.GetReceiptReceiver(idx))

	ok, err := e.SubmitPromiseResumeData(dataID, []byte("payload"))
	require.NoError(t, err)
	assert.True(t, ok)

	// A second submission and an unknown id are both rejected.
	ok, err = e.SubmitPromiseResumeData(dataID, []byte("other"))
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = e.SubmitPromiseResumeData(types.DataID{1, 2, 3}, []byte("x"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGenerateDataIDIsUnique(t *testing.T) {
	e := NewExternal()
	seen := make(map[types.DataID]bool)
	for i := 0; i < 10; i++ {
		id := e.GenerateDataID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestValidators(t *testing.T) {
	e := NewExternal()
	e.SetValidator("v1.test", types.Balance{Lo: 100})
	e.SetValidator("v2.test", types.Balance{Lo: 200})

	stake, err := e.ValidatorStake("v1.test")
	require.NoError(t, err)
	require.NotNil(t, stake)
	assert.Equal(t, types.Balance{Lo: 100}, *stake)

	stake, err = e.ValidatorStake("nobody.test")
	require.NoError(t, err)
	assert.Nil(t, stake)

	total, err := e.ValidatorTotalStake()
	require.NoError(t, err)
	assert.Equal(t, types.Balance{Lo: 300}, total)
}
