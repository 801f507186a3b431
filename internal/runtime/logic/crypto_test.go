package logic

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterwasm/vmhost/types"
)

func fromHex(t *testing.T, s string) []byte {
	t.Helper()
	out, err := hex.DecodeString(s)
	require.NoError(t, err)
	return out
}

func TestSha256(t *testing.T) {
	env := newTestEnv(t, nil)
	ptr := env.write(0, []byte("abc"))

	require.NoError(t, env.logic.Sha256(3, ptr, 1))
	want := fromHex(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")
	assert.Equal(t, want, env.register(t, 1))
}

func TestKeccak256(t *testing.T) {
	env := newTestEnv(t, nil)

	require.NoError(t, env.logic.Keccak256(0, 0, 1))
	want := fromHex(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
	assert.Equal(t, want, env.register(t, 1))
}

func TestKeccak512(t *testing.T) {
	env := newTestEnv(t, nil)

	require.NoError(t, env.logic.Keccak512(0, 0, 1))
	want := fromHex(t, "0eab42de4c3ceb9235fc91acffe746b29c29a8c366b7c60e4e67c466f36a4304"+
		"c00fa9caf9d87976ba469bcbe06713b435f091ef2769fb160cdab33d3670680e")
	assert.Equal(t, want, env.register(t, 1))
}

func TestRipemd160(t *testing.T) {
	env := newTestEnv(t, nil)
	ptr := env.write(0, []byte("abc"))

	require.NoError(t, env.logic.Ripemd160(3, ptr, 1))
	want := fromHex(t, "8eb208f7e05d987a9b044a8e98c6b087f15a0bfc")
	assert.Equal(t, want, env.register(t, 1))
}

func TestRipemd160ChargesPerBlock(t *testing.T) {
	env := newTestEnv(t, nil)
	profile := env.logic.GasCounter().Profile()
	blockPrice := env.config.ExtCosts.Gas(types.ExtCostRipemd160Block)

	// 3 bytes plus the 8-byte length fit one padded block.
	require.NoError(t, env.logic.Ripemd160(3, env.write(0, []byte("abc")), 1))
	assert.Equal(t, 1*blockPrice, profile.ExtProfile[types.ExtCostRipemd160Block])

	// 60 bytes push past the first compression block.
	require.NoError(t, env.logic.Ripemd160(60, 0, 1))
	assert.Equal(t, 3*blockPrice, profile.ExtProfile[types.ExtCostRipemd160Block])
}

func TestEd25519Verify(t *testing.T) {
	env := newTestEnv(t, nil)
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	message := []byte("signed payload")
	signature := ed25519.Sign(priv, message)

	sigPtr := env.write(0, signature)
	msgPtr := env.write(100, message)
	pkPtr := env.write(200, pub)

	res, err := env.logic.Ed25519Verify(64, sigPtr, uint64(len(message)), msgPtr, 32, pkPtr)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res)

	// A corrupted signature verifies to 0, not an error.
	env.mem.data[0] ^= 0xff
	res, err = env.logic.Ed25519Verify(64, sigPtr, uint64(len(message)), msgPtr, 32, pkPtr)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res)
}

func TestEd25519VerifyInvalidLengths(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.logic.Ed25519Verify(63, 0, 1, 0, 32, 0)
	host := requireHostErr(t, err, types.Ed25519VerifyInvalidInput)
	assert.Equal(t, "ED25519 signature verification error: invalid signature length 63", host.Error())

	_, err = env.logic.Ed25519Verify(64, 0, 1, 0, 31, 0)
	requireHostErr(t, err, types.Ed25519VerifyInvalidInput)
}

// g1Generator returns the little-endian encoding of the bn254 G1
// generator (1, 2).
func g1Generator() []byte {
	out := make([]byte, 64)
	out[0] = 1
	out[32] = 2
	return out
}

func TestAltBn128G1SumIdentity(t *testing.T) {
	env := newTestEnv(t, nil)

	// g - g collapses to the zero point.
	input := append([]byte{0}, g1Generator()...)
	input = append(input, 1)
	input = append(input, g1Generator()...)
	ptr := env.write(0, input)

	require.NoError(t, env.logic.AltBn128G1Sum(uint64(len(input)), ptr, 1))
	assert.Equal(t, make([]byte, 64), env.register(t, 1))
}

func TestAltBn128G1SumEmptyInput(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.logic.AltBn128G1Sum(0, 0, 1))
	assert.Equal(t, make([]byte, 64), env.register(t, 1))
}

func TestAltBn128MultiexpMatchesSum(t *testing.T) {
	env := newTestEnv(t, nil)

	// g * 2 computed by multiexp.
	scalar := make([]byte, 32)
	scalar[0] = 2
	multiexpInput := append(g1Generator(), scalar...)
	ptr := env.write(0, multiexpInput)
	require.NoError(t, env.logic.AltBn128G1Multiexp(uint64(len(multiexpInput)), ptr, 1))

	// g + g computed by sum.
	sumInput := append([]byte{0}, g1Generator()...)
	sumInput = append(sumInput, 0)
	sumInput = append(sumInput, g1Generator()...)
	ptr = env.write(1024, sumInput)
	require.NoError(t, env.logic.AltBn128G1Sum(uint64(len(sumInput)), ptr, 2))

	doubled := env.register(t, 1)
	assert.Equal(t, doubled, env.register(t, 2))
	assert.NotEqual(t, make([]byte, 64), doubled)
}

func TestAltBn128PairingCheckInfinity(t *testing.T) {
	env := newTestEnv(t, nil)

	// e(0, 0) is the identity, so the product check passes.
	input := make([]byte, 192)
	ptr := env.write(0, input)
	res, err := env.logic.AltBn128PairingCheck(192, ptr)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res)
}

func TestAltBn128RejectsBadInput(t *testing.T) {
	env := newTestEnv(t, nil)

	// Truncated input.
	err := env.logic.AltBn128G1Sum(64, 0, 1)
	host := requireHostErr(t, err, types.AltBn128InvalidInput)
	assert.Equal(t, "AltBn128 invalid input: input not a multiple of the element size", host.Error())

	// Non-canonical field element.
	bad := append([]byte{0}, make([]byte, 64)...)
	for i := 1; i < 33; i++ {
		bad[i] = 0xff
	}
	ptr := env.write(0, bad)
	err = env.logic.AltBn128G1Sum(65, ptr, 1)
	requireHostErr(t, err, types.AltBn128InvalidInput)

	// A well-formed element pair that is not on the curve.
	notOnCurve := append([]byte{0}, make([]byte, 64)...)
	notOnCurve[1] = 1
	notOnCurve[33] = 1
	ptr = env.write(100, notOnCurve)
	err = env.logic.AltBn128G1Sum(65, ptr, 1)
	requireHostErr(t, err, types.AltBn128InvalidInput)

	// A bad sign byte.
	badSign := append([]byte{7}, g1Generator()...)
	ptr = env.write(200, badSign)
	err = env.logic.AltBn128G1Sum(65, ptr, 1)
	requireHostErr(t, err, types.AltBn128InvalidInput)
}
