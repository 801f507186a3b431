package logic

import (
	"fmt"
	"math"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/meterwasm/vmhost/types"
)

// getUTF8String reads and validates a UTF-8 string argument. A length of
// MaxUint64 switches to NUL-terminated reading. The remaining log budget
// bounds the string either way.
func (l *VMLogic) getUTF8String(length, ptr uint64) (string, error) {
	if err := l.counter.PayBase(types.ExtCostUTF8DecodingBase); err != nil {
		return "", err
	}
	maxLen := l.limits().MaxTotalLogLength - l.totalLogLength
	var buf []byte
	if length != math.MaxUint64 {
		if length > maxLen {
			return "", types.NewLimitHostError(types.TotalLogLengthExceeded, l.totalLogLength+length, l.limits().MaxTotalLogLength)
		}
		var err error
		buf, err = l.memory.View(l.counter, types.MemSlice{Ptr: ptr, Len: length})
		if err != nil {
			return "", err
		}
	} else {
		for i := uint64(0); i <= maxLen; i++ {
			b, err := l.memory.GetU8(l.counter, ptr+i)
			if err != nil {
				return "", err
			}
			if b == 0 {
				break
			}
			if i == maxLen {
				return "", types.NewLimitHostError(types.TotalLogLengthExceeded, l.totalLogLength+maxLen+1, l.limits().MaxTotalLogLength)
			}
			buf = append(buf, b)
		}
	}
	if err := l.counter.PayPer(types.ExtCostUTF8DecodingByte, uint64(len(buf))); err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", types.NewHostError(types.BadUTF8)
	}
	return string(buf), nil
}

// decodeUTF16 validates surrogate pairing strictly; an unpaired surrogate
// is an encoding error, not a replacement character.
func decodeUTF16(units []uint16) (string, bool) {
	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		switch {
		case u >= 0xD800 && u < 0xDC00:
			if i+1 >= len(units) || units[i+1] < 0xDC00 || units[i+1] >= 0xE000 {
				return "", false
			}
			runes = append(runes, utf16.DecodeRune(rune(u), rune(units[i+1])))
			i++
		case u >= 0xDC00 && u < 0xE000:
			return "", false
		default:
			runes = append(runes, rune(u))
		}
	}
	return string(runes), true
}

// getUTF16String reads and validates a UTF-16LE string argument. A length
// of MaxUint64 switches to reading until a double-NUL code unit.
func (l *VMLogic) getUTF16String(length, ptr uint64) (string, error) {
	if err := l.counter.PayBase(types.ExtCostUTF16DecodingBase); err != nil {
		return "", err
	}
	maxLen := l.limits().MaxTotalLogLength - l.totalLogLength
	var buf []byte
	if length != math.MaxUint64 {
		if length%2 != 0 {
			return "", types.NewHostError(types.BadUTF16)
		}
		if length > maxLen {
			return "", types.NewLimitHostError(types.TotalLogLengthExceeded, l.totalLogLength+length, l.limits().MaxTotalLogLength)
		}
		var err error
		buf, err = l.memory.View(l.counter, types.MemSlice{Ptr: ptr, Len: length})
		if err != nil {
			return "", err
		}
	} else {
		limit := maxLen / 2
		for i := uint64(0); i <= limit; i++ {
			unit, err := l.memory.GetU16(l.counter, ptr+2*i)
			if err != nil {
				return "", err
			}
			if unit == 0 {
				break
			}
			if i == limit {
				return "", types.NewLimitHostError(types.TotalLogLengthExceeded, l.totalLogLength+maxLen+2, l.limits().MaxTotalLogLength)
			}
			buf = append(buf, byte(unit), byte(unit>>8))
		}
	}
	if err := l.counter.PayPer(types.ExtCostUTF16DecodingByte, uint64(len(buf))); err != nil {
		return "", err
	}
	units := make([]uint16, len(buf)/2)
	for i := range units {
		units[i] = uint16(buf[2*i]) | uint16(buf[2*i+1])<<8
	}
	s, ok := decodeUTF16(units)
	if !ok {
		return "", types.NewHostError(types.BadUTF16)
	}
	return s, nil
}

// appendLog commits one decoded log line, enforcing the count and total
// length ceilings.
func (l *VMLogic) appendLog(message string) error {
	if err := l.counter.PayBase(types.ExtCostLogBase); err != nil {
		return err
	}
	if err := l.counter.PayPer(types.ExtCostLogByte, uint64(len(message))); err != nil {
		return err
	}
	newTotal := l.totalLogLength + uint64(len(message))
	if newTotal < l.totalLogLength {
		return types.ErrIntegerOverflow
	}
	if limit := l.limits().MaxTotalLogLength; newTotal > limit {
		return types.NewLimitHostError(types.TotalLogLengthExceeded, newTotal, limit)
	}
	l.totalLogLength = newTotal
	l.logs = append(l.logs, message)
	return nil
}

// checkCanAddLog enforces the log-count ceiling before any decoding work.
func (l *VMLogic) checkCanAddLog() error {
	if limit := l.limits().MaxNumberLogs; uint64(len(l.logs))+1 > limit {
		return &types.VMLogicError{Host: &types.HostError{Kind: types.NumberOfLogsExceeded, Limit: limit}}
	}
	return nil
}

// LogUTF8 records a UTF-8 log line. A length of MaxUint64 reads a
// NUL-terminated string.
func (l *VMLogic) LogUTF8(length, ptr uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.checkCanAddLog(); err != nil {
		return err
	}
	message, err := l.getUTF8String(length, ptr)
	if err != nil {
		return err
	}
	return l.appendLog(message)
}

// LogUTF16 records a UTF-16LE log line. A length of MaxUint64 reads until
// a zero code unit.
func (l *VMLogic) LogUTF16(length, ptr uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.checkCanAddLog(); err != nil {
		return err
	}
	message, err := l.getUTF16String(length, ptr)
	if err != nil {
		return err
	}
	return l.appendLog(message)
}

// Logs returns the accumulated log lines.
func (l *VMLogic) Logs() []string { return l.logs }

// ValueReturn sets the return value of the call, paying the data-receipt
// fees towards every registered output data receiver.
func (l *VMLogic) ValueReturn(valueLen, valuePtr uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	value, err := l.memory.View(l.counter, types.MemSlice{Ptr: valuePtr, Len: valueLen})
	if err != nil {
		return err
	}
	if limit := l.limits().MaxLengthReturnedData; uint64(len(value)) > limit {
		return types.NewLimitHostError(types.ReturnedValueLengthExceeded, uint64(len(value)), limit)
	}
	receivers := uint64(len(l.context.OutputDataReceivers))
	if receivers > 0 {
		if err := l.counter.PayActionPer(types.ActionCostNewDataReceiptBase, receivers); err != nil {
			return err
		}
		totalBytes := receivers * uint64(len(value))
		if uint64(len(value)) != 0 && totalBytes/uint64(len(value)) != receivers {
			return types.ErrIntegerOverflow
		}
		if err := l.counter.PayActionPer(types.ActionCostNewDataReceiptByte, totalBytes); err != nil {
			return err
		}
	}
	l.returnData = types.ReturnData{Value: append([]byte(nil), value...)}
	return nil
}

// ReturnData exposes the return value set by the call.
func (l *VMLogic) ReturnData() types.ReturnData { return l.returnData }

// Panic aborts the call with the canonical explicit-panic message.
func (l *VMLogic) Panic() error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	return types.NewHostErrorf(types.GuestPanic, "explicit guest panic")
}

// PanicUTF8 aborts the call with a guest-supplied UTF-8 message.
func (l *VMLogic) PanicUTF8(length, ptr uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	message, err := l.getUTF8String(length, ptr)
	if err != nil {
		return err
	}
	return types.NewHostErrorf(types.GuestPanic, "%s", message)
}

// Abort implements the AssemblyScript abort convention: msg and filename
// point past a 4-byte length prefix and hold UTF-16LE text.
func (l *VMLogic) Abort(msgPtr, filenamePtr uint64, line, col uint32) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if msgPtr < 4 || filenamePtr < 4 {
		return types.NewHostError(types.BadUTF16)
	}
	msgLen, err := l.memory.GetU32(l.counter, msgPtr-4)
	if err != nil {
		return err
	}
	msg, err := l.getUTF16String(uint64(msgLen), msgPtr)
	if err != nil {
		return err
	}
	filenameLen, err := l.memory.GetU32(l.counter, filenamePtr-4)
	if err != nil {
		return err
	}
	filename, err := l.getUTF16String(uint64(filenameLen), filenamePtr)
	if err != nil {
		return err
	}
	message := fmt.Sprintf("%s, filename: \"%s\" line: %d col: %d", msg, filename, line, col)
	if err := l.appendLog("ABORT: " + message); err != nil {
		return err
	}
	return types.NewHostErrorf(types.GuestPanic, "%s", message)
}

// Gas is the legacy instruction-metering callback: it burns gas for a
// number of executed opcodes at the flat per-instruction price.
func (l *VMLogic) Gas(opcodes uint32) error {
	return l.counter.BurnOpcodes(uint64(opcodes), l.config.RegularOpCost)
}

// BurnGas burns an explicit amount of gas requested by the guest. Like
// instruction gas it carries no profile category.
func (l *VMLogic) BurnGas(gas types.Gas) error {
	return l.counter.Burn(gas)
}

// FiniteWasmGas is the injected per-basic-block charge: a raw gas amount
// computed at preparation time.
func (l *VMLogic) FiniteWasmGas(gas types.Gas) error {
	return l.counter.Burn(gas)
}

// FiniteWasmStack is the injected function-entry stack charge. Crossing
// the configured height aborts the call like a native stack overflow
// would.
func (l *VMLogic) FiniteWasmStack(operandSize, frameSize uint64) error {
	total := operandSize + frameSize
	if total < operandSize {
		return types.NewHostErrorf(types.GuestPanic, "stack overflow")
	}
	if total > l.remainingStack {
		return types.NewHostErrorf(types.GuestPanic, "stack overflow")
	}
	l.remainingStack -= total
	return nil
}

// FiniteWasmUnstack is the injected function-exit counterpart of
// FiniteWasmStack.
func (l *VMLogic) FiniteWasmUnstack(operandSize, frameSize uint64) error {
	l.remainingStack += operandSize + frameSize
	return nil
}
