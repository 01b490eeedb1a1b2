package edgestore

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// EncodeWeight returns a fixed-width hex string whose lexicographic order
// matches the numeric order of the weights. It is used by stores that can
// only order rows by string keys.
func EncodeWeight(w float64) string {
	bits := math.Float64bits(w)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], bits)

	return hex.EncodeToString(buf[:])
}

// DecodeWeight reverses EncodeWeight.
func DecodeWeight(s string) (float64, error) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 8 {
		return 0, fmt.Errorf("decode weight %q: malformed value", s)
	}

	bits := binary.BigEndian.Uint64(raw)
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}

	return math.Float64frombits(bits), nil
}
