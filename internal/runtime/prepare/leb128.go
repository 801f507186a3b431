package prepare

import "errors"

var errMalformedLEB = errors.New("malformed LEB128 integer")

// reader walks a byte slice with explicit position tracking. All decode
// failures collapse into errMalformedLEB or errUnexpectedEOF; the caller
// maps them to a preparation error.
type reader struct {
	buf []byte
	pos int
}

var errUnexpectedEOF = errors.New("unexpected end of section")

func (r *reader) len() int { return len(r.buf) - r.pos }

func (r *reader) done() bool { return r.pos >= len(r.buf) }

func (r *reader) byte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, errUnexpectedEOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.len() < n {
		return nil, errUnexpectedEOF
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// uleb32 decodes an unsigned LEB128 integer of at most 32 bits.
func (r *reader) uleb32() (uint32, error) {
	var result uint32
	var shift uint
	for i := 0; i < 5; i++ {
		b, err := r.byte()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			if i == 4 && b > 0x0f {
				return 0, errMalformedLEB
			}
			return result, nil
		}
		shift += 7
	}
	return 0, errMalformedLEB
}

// sleb decodes a signed LEB128 integer of at most the given bit width.
// Block types use 33 bits, constants 32 or 64.
func (r *reader) sleb(bits uint) (int64, error) {
	var result int64
	var shift uint
	maxBytes := int(bits+6) / 7
	for i := 0; i < maxBytes; i++ {
		b, err := r.byte()
		if err != nil {
			return 0, err
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				result |= -1 << shift
			}
			return result, nil
		}
	}
	return 0, errMalformedLEB
}

// appendUleb32 encodes an unsigned LEB128 integer.
func appendUleb32(dst []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			dst = append(dst, b|0x80)
		} else {
			return append(dst, b)
		}
	}
}

// appendSleb64 encodes a signed LEB128 integer.
func appendSleb64(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}
