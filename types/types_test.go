package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceAdd(t *testing.T) {
	sum, overflow := Balance{Lo: 1}.Add(Balance{Lo: 2})
	assert.False(t, overflow)
	assert.Equal(t, Balance{Lo: 3}, sum)

	// Carry into the high word.
	sum, overflow = Balance{Lo: math.MaxUint64}.Add(Balance{Lo: 1})
	assert.False(t, overflow)
	assert.Equal(t, Balance{Lo: 0, Hi: 1}, sum)

	_, overflow = Balance{Hi: math.MaxUint64}.Add(Balance{Hi: 1})
	assert.True(t, overflow)
	_, overflow = Balance{Lo: math.MaxUint64, Hi: math.MaxUint64}.Add(Balance{Lo: 1})
	assert.True(t, overflow)
}

func TestBalanceSub(t *testing.T) {
	diff, underflow := Balance{Lo: 3}.Sub(Balance{Lo: 2})
	assert.False(t, underflow)
	assert.Equal(t, Balance{Lo: 1}, diff)

	// Borrow from the high word.
	diff, underflow = Balance{Hi: 1}.Sub(Balance{Lo: 1})
	assert.False(t, underflow)
	assert.Equal(t, Balance{Lo: math.MaxUint64}, diff)

	_, underflow = Balance{Lo: 1}.Sub(Balance{Lo: 2})
	assert.True(t, underflow)
	_, underflow = Balance{}.Sub(Balance{Hi: 1})
	assert.True(t, underflow)
}

func TestBalanceLittleEndianRoundTrip(t *testing.T) {
	b := Balance{Lo: 0x0102030405060708, Hi: 0x1112131415161718}
	buf := b.LittleEndian()
	assert.Equal(t, byte(0x08), buf[0])
	assert.Equal(t, byte(0x01), buf[7])
	assert.Equal(t, byte(0x18), buf[8])
	assert.Equal(t, b, BalanceFromLittleEndian(buf))

	assert.True(t, Balance{}.IsZero())
	assert.False(t, Balance{Hi: 1}.IsZero())
}

func TestParseAccountID(t *testing.T) {
	for _, valid := range []string{
		"ok",
		"alice.near",
		"system",
		"a-b_c.d",
		"0x123",
		"10-4.8-2",
	} {
		id, err := ParseAccountID(valid)
		require.NoError(t, err, valid)
		assert.Equal(t, AccountID(valid), id)
	}

	for _, invalid := range []string{
		"",
		"a",
		"Alice.near",
		"alice..near",
		".alice",
		"alice.",
		"alice@near",
		"a_-b",
		"la la la",
	} {
		_, err := ParseAccountID(invalid)
		assert.Error(t, err, invalid)
	}

	// Exactly at the length bounds.
	long := make([]byte, MaxAccountIDLen)
	for i := range long {
		long[i] = 'a'
	}
	_, err := ParseAccountID(string(long))
	assert.NoError(t, err)
	_, err = ParseAccountID(string(long) + "a")
	assert.Error(t, err)
}

func TestParsePublicKey(t *testing.T) {
	ed := append([]byte{0}, make([]byte, 32)...)
	pk, err := ParsePublicKey(ed)
	require.NoError(t, err)
	assert.Equal(t, PublicKey(ed), pk)

	secp := append([]byte{1}, make([]byte, 64)...)
	_, err = ParsePublicKey(secp)
	assert.NoError(t, err)

	for _, bad := range [][]byte{
		nil,
		{0},
		append([]byte{0}, make([]byte, 31)...),
		append([]byte{1}, make([]byte, 32)...),
		append([]byte{9}, make([]byte, 32)...),
	} {
		_, err := ParsePublicKey(bad)
		assert.Error(t, err)
	}
}

func TestSplitMethodNames(t *testing.T) {
	names, err := SplitMethodNames([]byte("get,set"))
	require.NoError(t, err)
	assert.Equal(t, []string{"get", "set"}, names)

	names, err = SplitMethodNames(nil)
	require.NoError(t, err)
	assert.Nil(t, names)

	for _, bad := range []string{",", "get,", ",set", "get,,set"} {
		_, err := SplitMethodNames([]byte(bad))
		assert.Error(t, err, bad)
	}
}
