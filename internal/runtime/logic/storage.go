package logic

import (
	"github.com/meterwasm/vmhost/types"
)

// chargeTrieNodes charges for the trie nodes touched since the snapshot,
// split into database reads and cached reads.
func (l *VMLogic) chargeTrieNodes(before types.TrieNodesCount) error {
	delta, ok := l.ext.GetTrieNodesCount().CountSince(before)
	if !ok {
		return types.ErrIntegerOverflow
	}
	if err := l.counter.PayPer(types.ExtCostTouchingTrieNode, delta.DBReads); err != nil {
		return err
	}
	return l.counter.PayPer(types.ExtCostReadCachedTrieNode, delta.MemReads)
}

// checkStorageProofLimit fails the call once the recorded trie proof for
// this receipt has grown past the per-receipt ceiling.
func (l *VMLogic) checkStorageProofLimit() error {
	limit := l.limits().PerReceiptStorageProofSizeLimit
	if size := l.ext.GetRecordedStorageSize(); size > limit {
		return types.NewLimitHostError(types.RecordedStorageExceeded, size, limit)
	}
	return nil
}

// readStorageKey resolves and length-checks a storage key argument.
func (l *VMLogic) readStorageKey(ptr, length uint64) ([]byte, error) {
	key, err := l.memoryOrRegister(ptr, length)
	if err != nil {
		return nil, err
	}
	if limit := l.limits().MaxLengthStorageKey; uint64(len(key)) > limit {
		return nil, types.NewLimitHostError(types.KeyLengthExceeded, uint64(len(key)), limit)
	}
	return key, nil
}

// invalidateIterators retires every live iterator. Any state mutation
// invalidates open iterators; using one afterwards is an error, not a
// silently stale view.
func (l *VMLogic) invalidateIterators() {
	for id, it := range l.iterators {
		_ = it.Close()
		l.invalidatedIterators[id] = true
		delete(l.iterators, id)
	}
}

// StorageWrite stores a key/value pair. If an old value was evicted it is
// placed in the register and 1 is returned, otherwise 0.
func (l *VMLogic) StorageWrite(keyLen, keyPtr, valueLen, valuePtr, registerID uint64) (uint64, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.checkNotView("storage_write"); err != nil {
		return 0, err
	}
	if err := l.counter.PayBase(types.ExtCostStorageWriteBase); err != nil {
		return 0, err
	}
	key, err := l.readStorageKey(keyPtr, keyLen)
	if err != nil {
		return 0, err
	}
	if err := l.counter.PayPer(types.ExtCostStorageWriteKeyByte, uint64(len(key))); err != nil {
		return 0, err
	}
	value, err := l.memoryOrRegister(valuePtr, valueLen)
	if err != nil {
		return 0, err
	}
	if limit := l.limits().MaxLengthStorageValue; uint64(len(value)) > limit {
		return 0, types.NewLimitHostError(types.ValueLengthExceeded, uint64(len(value)), limit)
	}
	if err := l.counter.PayPer(types.ExtCostStorageWriteValueByte, uint64(len(value))); err != nil {
		return 0, err
	}
	nodesBefore := l.ext.GetTrieNodesCount()
	evictedPtr, xerr := l.ext.StorageGet(key, types.StorageGetModeTrie)
	if xerr != nil {
		return 0, types.AsVMLogicError(xerr)
	}
	var evicted []byte
	if evictedPtr != nil {
		if err := l.counter.PayPer(types.ExtCostStorageWriteEvictedByte, uint64(evictedPtr.Len())); err != nil {
			return 0, err
		}
		evicted, xerr = evictedPtr.Deref()
		if xerr != nil {
			return 0, types.AsVMLogicError(xerr)
		}
	}
	if xerr := l.ext.StorageSet(key, value); xerr != nil {
		return 0, types.AsVMLogicError(xerr)
	}
	l.invalidateIterators()
	if err := l.chargeTrieNodes(nodesBefore); err != nil {
		return 0, err
	}
	if err := l.checkStorageProofLimit(); err != nil {
		return 0, err
	}
	if evicted == nil {
		return 0, nil
	}
	if err := l.setRegister(registerID, evicted); err != nil {
		return 0, err
	}
	return 1, nil
}

// StorageRead loads the value under a key into the register. Returns 1 if
// the key exists, 0 otherwise.
func (l *VMLogic) StorageRead(keyLen, keyPtr, registerID uint64) (uint64, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.counter.PayBase(types.ExtCostStorageReadBase); err != nil {
		return 0, err
	}
	key, err := l.readStorageKey(keyPtr, keyLen)
	if err != nil {
		return 0, err
	}
	if err := l.counter.PayPer(types.ExtCostStorageReadKeyByte, uint64(len(key))); err != nil {
		return 0, err
	}
	nodesBefore := l.ext.GetTrieNodesCount()
	valuePtr, xerr := l.ext.StorageGet(key, types.StorageGetModeTrie)
	if xerr != nil {
		return 0, types.AsVMLogicError(xerr)
	}
	if err := l.chargeTrieNodes(nodesBefore); err != nil {
		return 0, err
	}
	if err := l.checkStorageProofLimit(); err != nil {
		return 0, err
	}
	if valuePtr == nil {
		return 0, nil
	}
	if err := l.counter.PayPer(types.ExtCostStorageReadValueByte, uint64(valuePtr.Len())); err != nil {
		return 0, err
	}
	value, xerr := valuePtr.Deref()
	if xerr != nil {
		return 0, types.AsVMLogicError(xerr)
	}
	if err := l.setRegister(registerID, value); err != nil {
		return 0, err
	}
	return 1, nil
}

// StorageRemove deletes a key. The removed value, if any, is placed in
// the register and 1 is returned, otherwise 0.
func (l *VMLogic) StorageRemove(keyLen, keyPtr, registerID uint64) (uint64, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.checkNotView("storage_remove"); err != nil {
		return 0, err
	}
	if err := l.counter.PayBase(types.ExtCostStorageRemoveBase); err != nil {
		return 0, err
	}
	key, err := l.readStorageKey(keyPtr, keyLen)
	if err != nil {
		return 0, err
	}
	if err := l.counter.PayPer(types.ExtCostStorageRemoveKeyByte, uint64(len(key))); err != nil {
		return 0, err
	}
	nodesBefore := l.ext.GetTrieNodesCount()
	removedPtr, xerr := l.ext.StorageGet(key, types.StorageGetModeTrie)
	if xerr != nil {
		return 0, types.AsVMLogicError(xerr)
	}
	var removed []byte
	if removedPtr != nil {
		if err := l.counter.PayPer(types.ExtCostStorageRemoveRetValueByte, uint64(removedPtr.Len())); err != nil {
			return 0, err
		}
		removed, xerr = removedPtr.Deref()
		if xerr != nil {
			return 0, types.AsVMLogicError(xerr)
		}
	}
	if xerr := l.ext.StorageRemove(key); xerr != nil {
		return 0, types.AsVMLogicError(xerr)
	}
	l.invalidateIterators()
	if err := l.chargeTrieNodes(nodesBefore); err != nil {
		return 0, err
	}
	if err := l.checkStorageProofLimit(); err != nil {
		return 0, err
	}
	if removed == nil {
		return 0, nil
	}
	if err := l.setRegister(registerID, removed); err != nil {
		return 0, err
	}
	return 1, nil
}

// StorageHasKey reports whether a key exists: 1 if present, 0 if absent.
func (l *VMLogic) StorageHasKey(keyLen, keyPtr uint64) (uint64, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.counter.PayBase(types.ExtCostStorageHasKeyBase); err != nil {
		return 0, err
	}
	key, err := l.readStorageKey(keyPtr, keyLen)
	if err != nil {
		return 0, err
	}
	if err := l.counter.PayPer(types.ExtCostStorageHasKeyByte, uint64(len(key))); err != nil {
		return 0, err
	}
	nodesBefore := l.ext.GetTrieNodesCount()
	present, xerr := l.ext.StorageHasKey(key, types.StorageGetModeTrie)
	if xerr != nil {
		return 0, types.AsVMLogicError(xerr)
	}
	if err := l.chargeTrieNodes(nodesBefore); err != nil {
		return 0, err
	}
	if err := l.checkStorageProofLimit(); err != nil {
		return 0, err
	}
	if present {
		return 1, nil
	}
	return 0, nil
}

// prefixRangeEnd returns the smallest key greater than every key with the
// given prefix, or nil if no such key exists (all-0xff or empty prefix).
func prefixRangeEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// registerIterator stores an opened iterator and hands out its id.
func (l *VMLogic) registerIterator(it types.StorageIterator) uint64 {
	id := l.nextIterID
	l.nextIterID++
	l.iterators[id] = it
	return id
}

// StorageIterPrefix opens an iterator over every key sharing a prefix and
// returns its id.
func (l *VMLogic) StorageIterPrefix(prefixLen, prefixPtr uint64) (uint64, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.counter.PayBase(types.ExtCostStorageIterCreatePrefixBase); err != nil {
		return 0, err
	}
	prefix, err := l.readStorageKey(prefixPtr, prefixLen)
	if err != nil {
		return 0, err
	}
	if err := l.counter.PayPer(types.ExtCostStorageIterCreatePrefixByte, uint64(len(prefix))); err != nil {
		return 0, err
	}
	it, xerr := l.ext.StorageIter(prefix, prefixRangeEnd(prefix))
	if xerr != nil {
		return 0, types.AsVMLogicError(xerr)
	}
	return l.registerIterator(it), nil
}

// StorageIterRange opens an iterator over [start, end) and returns its id.
func (l *VMLogic) StorageIterRange(startLen, startPtr, endLen, endPtr uint64) (uint64, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.counter.PayBase(types.ExtCostStorageIterCreateRangeBase); err != nil {
		return 0, err
	}
	start, err := l.readStorageKey(startPtr, startLen)
	if err != nil {
		return 0, err
	}
	if err := l.counter.PayPer(types.ExtCostStorageIterCreateFromByte, uint64(len(start))); err != nil {
		return 0, err
	}
	end, err := l.readStorageKey(endPtr, endLen)
	if err != nil {
		return 0, err
	}
	if err := l.counter.PayPer(types.ExtCostStorageIterCreateToByte, uint64(len(end))); err != nil {
		return 0, err
	}
	it, xerr := l.ext.StorageIter(start, end)
	if xerr != nil {
		return 0, types.AsVMLogicError(xerr)
	}
	return l.registerIterator(it), nil
}

// StorageIterNext advances an iterator. On a produced entry the key and
// value land in the two registers and 1 is returned; an exhausted
// iterator is retired and 0 is returned. Iterators invalidated by a
// state mutation fail here.
func (l *VMLogic) StorageIterNext(iteratorID, keyRegisterID, valueRegisterID uint64) (uint64, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.counter.PayBase(types.ExtCostStorageIterNextBase); err != nil {
		return 0, err
	}
	if l.invalidatedIterators[iteratorID] {
		return 0, types.NewIndexHostError(types.InvalidIteratorIndex, iteratorID)
	}
	it, ok := l.iterators[iteratorID]
	if !ok {
		return 0, types.NewIndexHostError(types.InvalidIteratorIndex, iteratorID)
	}
	if !it.Valid() {
		if xerr := it.Error(); xerr != nil {
			return 0, types.AsVMLogicError(xerr)
		}
		_ = it.Close()
		delete(l.iterators, iteratorID)
		return 0, nil
	}
	key := it.Key()
	value := it.Value()
	if err := l.counter.PayPer(types.ExtCostStorageIterNextKeyByte, uint64(len(key))); err != nil {
		return 0, err
	}
	if err := l.counter.PayPer(types.ExtCostStorageIterNextValueByte, uint64(len(value))); err != nil {
		return 0, err
	}
	if err := l.setRegister(keyRegisterID, key); err != nil {
		return 0, err
	}
	if err := l.setRegister(valueRegisterID, value); err != nil {
		return 0, err
	}
	it.Next()
	return 1, nil
}
