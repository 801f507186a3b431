// Package types provides the value types shared by the vmhost runtime:
// the gas and balance units, the error taxonomy, the execution context
// and the collaborator interfaces an embedder has to supply.
package types

import (
	"fmt"
	"strings"
)

// Gas is the deterministic, protocol-defined unit of metered cost.
type Gas = uint64

// Compute is the compute-cost counterpart of Gas.
type Compute = uint64

// Balance is a token amount. Balances are 128-bit on the wire; they are
// passed through guest memory as 16 little-endian bytes.
type Balance struct {
	Lo uint64 `json:"lo"`
	Hi uint64 `json:"hi"`
}

// Add returns b+other and whether the addition overflowed.
func (b Balance) Add(other Balance) (Balance, bool) {
	lo := b.Lo + other.Lo
	carry := uint64(0)
	if lo < b.Lo {
		carry = 1
	}
	hi := b.Hi + other.Hi + carry
	overflow := hi < b.Hi || (carry == 1 && hi == b.Hi)
	return Balance{Lo: lo, Hi: hi}, overflow
}

// Sub returns b-other and whether the subtraction underflowed.
func (b Balance) Sub(other Balance) (Balance, bool) {
	lo := b.Lo - other.Lo
	borrow := uint64(0)
	if b.Lo < other.Lo {
		borrow = 1
	}
	hi := b.Hi - other.Hi - borrow
	underflow := b.Hi < other.Hi || (b.Hi == other.Hi && borrow == 1)
	return Balance{Lo: lo, Hi: hi}, underflow
}

// IsZero reports whether the balance is zero.
func (b Balance) IsZero() bool { return b.Lo == 0 && b.Hi == 0 }

// LittleEndian returns the 16-byte guest representation of the balance.
func (b Balance) LittleEndian() [16]byte {
	var out [16]byte
	for i := 0; i < 8; i++ {
		out[i] = byte(b.Lo >> (8 * i))
		out[8+i] = byte(b.Hi >> (8 * i))
	}
	return out
}

// BalanceFromLittleEndian parses the 16-byte guest representation.
func BalanceFromLittleEndian(buf [16]byte) Balance {
	var b Balance
	for i := 7; i >= 0; i-- {
		b.Lo = b.Lo<<8 | uint64(buf[i])
		b.Hi = b.Hi<<8 | uint64(buf[8+i])
	}
	return b
}

// BalanceFromGas widens a gas amount into a balance.
func BalanceFromGas(g Gas) Balance {
	return Balance{Lo: g}
}

// MemSlice is a view into guest memory.
type MemSlice struct {
	Ptr uint64
	Len uint64
}

// ReceiptIndex identifies a receipt created by the External collaborator
// during the current call.
type ReceiptIndex = uint64

// PromiseIndex identifies a promise in the call-local promise space.
type PromiseIndex = uint64

// StorageUsage is the number of bytes an account occupies in state.
type StorageUsage = uint64

// BlockHeight is the height of a block in the chain.
type BlockHeight = uint64

// EpochHeight counts epochs since genesis.
type EpochHeight = uint64

// Nonce is an access-key nonce.
type Nonce = uint64

// DataID is the 32-byte token identifying a yielded computation that can
// later be resumed with a payload.
type DataID [32]byte

// GasWeight expresses a portion of the remaining prepaid gas that should
// be assigned to a function call action after the current call finishes.
type GasWeight uint64

// AccountID is a validated chain account identifier.
type AccountID string

const (
	// MinAccountIDLen is the shortest valid account id.
	MinAccountIDLen = 2
	// MaxAccountIDLen is the longest valid account id.
	MaxAccountIDLen = 64
)

// ParseAccountID validates NEAR-style account id syntax: 2..64 characters,
// lowercase alphanumeric parts separated by single '.', '_' or '-'.
func ParseAccountID(s string) (AccountID, error) {
	if len(s) < MinAccountIDLen || len(s) > MaxAccountIDLen {
		return "", fmt.Errorf("account id length %d is out of bounds", len(s))
	}
	prevSeparator := true // a separator may not start the id
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			prevSeparator = false
		case c == '.' || c == '_' || c == '-':
			if prevSeparator {
				return "", fmt.Errorf("account id %q has consecutive or leading separators", s)
			}
			prevSeparator = true
		default:
			return "", fmt.Errorf("account id %q contains invalid character %q", s, c)
		}
	}
	if prevSeparator {
		return "", fmt.Errorf("account id %q ends with a separator", s)
	}
	return AccountID(s), nil
}

func (a AccountID) String() string { return string(a) }

// PublicKey is a curve-tagged public key: one prefix byte (0 for ed25519,
// 1 for secp256k1) followed by the raw key bytes.
type PublicKey []byte

const (
	keyTypeED25519   = 0
	keyTypeSECP256K1 = 1
)

// ParsePublicKey validates the length of a curve-tagged public key blob.
func ParsePublicKey(data []byte) (PublicKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty public key")
	}
	switch data[0] {
	case keyTypeED25519:
		if len(data) != 33 {
			return nil, fmt.Errorf("ed25519 public key must be 33 bytes, got %d", len(data))
		}
	case keyTypeSECP256K1:
		if len(data) != 65 {
			return nil, fmt.Errorf("secp256k1 public key must be 65 bytes, got %d", len(data))
		}
	default:
		return nil, fmt.Errorf("unknown key type %d", data[0])
	}
	out := make(PublicKey, len(data))
	copy(out, data)
	return out, nil
}

// SplitMethodNames parses a comma-separated method-name list, rejecting
// empty entries.
func SplitMethodNames(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	parts := strings.Split(string(raw), ",")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("empty method name in list")
		}
	}
	return parts, nil
}
