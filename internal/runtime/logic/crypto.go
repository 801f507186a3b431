package logic

import (
	"crypto/ed25519"
	"crypto/sha256"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"

	"github.com/meterwasm/vmhost/types"
)

// Sha256 hashes a guest buffer and stores the digest in a register.
func (l *VMLogic) Sha256(valueLen, valuePtr, registerID uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.counter.PayBase(types.ExtCostSha256Base); err != nil {
		return err
	}
	value, err := l.memoryOrRegister(valuePtr, valueLen)
	if err != nil {
		return err
	}
	if err := l.counter.PayPer(types.ExtCostSha256Byte, uint64(len(value))); err != nil {
		return err
	}
	digest := sha256.Sum256(value)
	return l.setRegister(registerID, digest[:])
}

// Keccak256 hashes a guest buffer with legacy keccak-256 and stores the
// digest in a register.
func (l *VMLogic) Keccak256(valueLen, valuePtr, registerID uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.counter.PayBase(types.ExtCostKeccak256Base); err != nil {
		return err
	}
	value, err := l.memoryOrRegister(valuePtr, valueLen)
	if err != nil {
		return err
	}
	if err := l.counter.PayPer(types.ExtCostKeccak256Byte, uint64(len(value))); err != nil {
		return err
	}
	h := sha3.NewLegacyKeccak256()
	h.Write(value)
	return l.setRegister(registerID, h.Sum(nil))
}

// Keccak512 hashes a guest buffer with legacy keccak-512 and stores the
// digest in a register.
func (l *VMLogic) Keccak512(valueLen, valuePtr, registerID uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.counter.PayBase(types.ExtCostKeccak512Base); err != nil {
		return err
	}
	value, err := l.memoryOrRegister(valuePtr, valueLen)
	if err != nil {
		return err
	}
	if err := l.counter.PayPer(types.ExtCostKeccak512Byte, uint64(len(value))); err != nil {
		return err
	}
	h := sha3.NewLegacyKeccak512()
	h.Write(value)
	return l.setRegister(registerID, h.Sum(nil))
}

// Ripemd160 hashes a guest buffer and stores the digest in a register.
// The per-unit price is charged per 64-byte compression block, padding
// included.
func (l *VMLogic) Ripemd160(valueLen, valuePtr, registerID uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	if err := l.counter.PayBase(types.ExtCostRipemd160Base); err != nil {
		return err
	}
	value, err := l.memoryOrRegister(valuePtr, valueLen)
	if err != nil {
		return err
	}
	withLength := uint64(len(value)) + 8
	if withLength < 8 {
		return types.NewHostError(types.IntegerOverflow)
	}
	blocks := withLength/64 + 1
	if err := l.counter.PayPer(types.ExtCostRipemd160Block, blocks); err != nil {
		return err
	}
	h := ripemd160.New()
	h.Write(value)
	return l.setRegister(registerID, h.Sum(nil))
}

// Ed25519Verify checks an ed25519 signature over a guest message and
// returns 1 on success, 0 on failure. Malformed signature or key blobs
// fail the call; a well-formed key that simply does not verify returns 0.
func (l *VMLogic) Ed25519Verify(sigLen, sigPtr, msgLen, msgPtr, pubKeyLen, pubKeyPtr uint64) (uint64, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	if err := l.counter.PayBase(types.ExtCostEd25519VerifyBase); err != nil {
		return 0, err
	}
	signature, err := l.memoryOrRegister(sigPtr, sigLen)
	if err != nil {
		return 0, err
	}
	if len(signature) != ed25519.SignatureSize {
		return 0, types.NewHostErrorf(types.Ed25519VerifyInvalidInput, "invalid signature length %d", len(signature))
	}
	message, err := l.memoryOrRegister(msgPtr, msgLen)
	if err != nil {
		return 0, err
	}
	if err := l.counter.PayPer(types.ExtCostEd25519VerifyByte, uint64(len(message))); err != nil {
		return 0, err
	}
	publicKey, err := l.memoryOrRegister(pubKeyPtr, pubKeyLen)
	if err != nil {
		return 0, err
	}
	if len(publicKey) != ed25519.PublicKeySize {
		return 0, types.NewHostErrorf(types.Ed25519VerifyInvalidInput, "invalid public key length %d", len(publicKey))
	}
	if ed25519.Verify(ed25519.PublicKey(publicKey), message, signature) {
		return 1, nil
	}
	return 0, nil
}

const (
	bn128FpSize       = 32
	bn128G1Size       = 2 * bn128FpSize
	bn128G2Size       = 4 * bn128FpSize
	bn128MultiexpUnit = bn128G1Size + bn128FpSize
	bn128SumUnit      = 1 + bn128G1Size
	bn128PairingUnit  = bn128G1Size + bn128G2Size
)

func altBn128Err(msg string) *types.VMLogicError {
	return types.NewHostErrorf(types.AltBn128InvalidInput, "%s", msg)
}

// decodeFp parses one little-endian base-field element, rejecting
// non-canonical encodings.
func decodeFp(raw []byte) (fp.Element, error) {
	var buf [fp.Bytes]byte
	copy(buf[:], raw)
	elem, err := fp.LittleEndian.Element(&buf)
	if err != nil {
		return fp.Element{}, altBn128Err("field element is not canonical")
	}
	return elem, nil
}

// decodeG1 parses an affine G1 point from 64 little-endian bytes. The
// zero point encodes the identity.
func decodeG1(raw []byte) (bn254.G1Affine, error) {
	var p bn254.G1Affine
	x, err := decodeFp(raw[:bn128FpSize])
	if err != nil {
		return p, err
	}
	y, err := decodeFp(raw[bn128FpSize:bn128G1Size])
	if err != nil {
		return p, err
	}
	p.X, p.Y = x, y
	if p.IsInfinity() {
		return p, nil
	}
	if !p.IsOnCurve() {
		return p, altBn128Err("point is not on curve")
	}
	return p, nil
}

// decodeG2 parses an affine G2 point from 128 little-endian bytes,
// c0 before c1 per coordinate. Subgroup membership is checked.
func decodeG2(raw []byte) (bn254.G2Affine, error) {
	var p bn254.G2Affine
	coords := make([]fp.Element, 4)
	for i := range coords {
		c, err := decodeFp(raw[i*bn128FpSize : (i+1)*bn128FpSize])
		if err != nil {
			return p, err
		}
		coords[i] = c
	}
	p.X.A0, p.X.A1 = coords[0], coords[1]
	p.Y.A0, p.Y.A1 = coords[2], coords[3]
	if p.IsInfinity() {
		return p, nil
	}
	if !p.IsOnCurve() {
		return p, altBn128Err("point is not on curve")
	}
	if !p.IsInSubGroup() {
		return p, altBn128Err("point is not in the subgroup")
	}
	return p, nil
}

// encodeG1 serializes an affine G1 point into 64 little-endian bytes.
func encodeG1(p *bn254.G1Affine) []byte {
	var out [bn128G1Size]byte
	var buf [fp.Bytes]byte
	fp.LittleEndian.PutElement(&buf, p.X)
	copy(out[:bn128FpSize], buf[:])
	fp.LittleEndian.PutElement(&buf, p.Y)
	copy(out[bn128FpSize:], buf[:])
	return out[:]
}

// leScalar interprets 32 little-endian bytes as an unsigned scalar.
func leScalar(raw []byte) *big.Int {
	be := make([]byte, len(raw))
	for i, b := range raw {
		be[len(raw)-1-i] = b
	}
	return new(big.Int).SetBytes(be)
}

// AltBn128G1Multiexp computes the multi-scalar multiplication over a list
// of (point, scalar) pairs and stores the 64-byte result in a register.
func (l *VMLogic) AltBn128G1Multiexp(valueLen, valuePtr, registerID uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	value, err := l.memoryOrRegister(valuePtr, valueLen)
	if err != nil {
		return err
	}
	if len(value)%bn128MultiexpUnit != 0 {
		return altBn128Err("input not a multiple of the element size")
	}
	count := uint64(len(value) / bn128MultiexpUnit)
	if err := l.counter.PayBase(types.ExtCostAltBn128G1MultiexpBase); err != nil {
		return err
	}
	if err := l.counter.PayPer(types.ExtCostAltBn128G1MultiexpElement, count); err != nil {
		return err
	}
	var acc bn254.G1Jac
	for i := uint64(0); i < count; i++ {
		chunk := value[i*bn128MultiexpUnit : (i+1)*bn128MultiexpUnit]
		point, err := decodeG1(chunk[:bn128G1Size])
		if err != nil {
			return err
		}
		scalar := leScalar(chunk[bn128G1Size:])
		var term bn254.G1Jac
		term.FromAffine(&point)
		term.ScalarMultiplication(&term, scalar)
		acc.AddAssign(&term)
	}
	var result bn254.G1Affine
	result.FromJacobian(&acc)
	return l.setRegister(registerID, encodeG1(&result))
}

// AltBn128G1Sum computes a signed sum of G1 points and stores the 64-byte
// result in a register. Each element is a sign byte (0 add, 1 subtract)
// followed by a point.
func (l *VMLogic) AltBn128G1Sum(valueLen, valuePtr, registerID uint64) error {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return err
	}
	value, err := l.memoryOrRegister(valuePtr, valueLen)
	if err != nil {
		return err
	}
	if len(value)%bn128SumUnit != 0 {
		return altBn128Err("input not a multiple of the element size")
	}
	count := uint64(len(value) / bn128SumUnit)
	if err := l.counter.PayBase(types.ExtCostAltBn128G1SumBase); err != nil {
		return err
	}
	if err := l.counter.PayPer(types.ExtCostAltBn128G1SumElement, count); err != nil {
		return err
	}
	var acc bn254.G1Jac
	for i := uint64(0); i < count; i++ {
		chunk := value[i*bn128SumUnit : (i+1)*bn128SumUnit]
		sign := chunk[0]
		if sign > 1 {
			return altBn128Err("invalid sign byte")
		}
		point, err := decodeG1(chunk[1:])
		if err != nil {
			return err
		}
		if sign == 1 {
			point.Neg(&point)
		}
		var term bn254.G1Jac
		term.FromAffine(&point)
		acc.AddAssign(&term)
	}
	var result bn254.G1Affine
	result.FromJacobian(&acc)
	return l.setRegister(registerID, encodeG1(&result))
}

// AltBn128PairingCheck evaluates the pairing product over (G1, G2) pairs
// and returns 1 if it equals the identity. The empty product is 1.
func (l *VMLogic) AltBn128PairingCheck(valueLen, valuePtr uint64) (uint64, error) {
	if err := l.counter.PayBase(types.ExtCostBase); err != nil {
		return 0, err
	}
	value, err := l.memoryOrRegister(valuePtr, valueLen)
	if err != nil {
		return 0, err
	}
	if len(value)%bn128PairingUnit != 0 {
		return 0, altBn128Err("input not a multiple of the element size")
	}
	count := uint64(len(value) / bn128PairingUnit)
	if err := l.counter.PayBase(types.ExtCostAltBn128PairingCheckBase); err != nil {
		return 0, err
	}
	if err := l.counter.PayPer(types.ExtCostAltBn128PairingCheckElement, count); err != nil {
		return 0, err
	}
	g1s := make([]bn254.G1Affine, 0, count)
	g2s := make([]bn254.G2Affine, 0, count)
	for i := uint64(0); i < count; i++ {
		chunk := value[i*bn128PairingUnit : (i+1)*bn128PairingUnit]
		g1, err := decodeG1(chunk[:bn128G1Size])
		if err != nil {
			return 0, err
		}
		g2, err := decodeG2(chunk[bn128G1Size:])
		if err != nil {
			return 0, err
		}
		g1s = append(g1s, g1)
		g2s = append(g2s, g2)
	}
	ok, perr := bn254.PairingCheck(g1s, g2s)
	if perr != nil {
		return 0, altBn128Err(perr.Error())
	}
	if ok {
		return 1, nil
	}
	return 0, nil
}
