package ledger

// Binary layout helpers. All integers are little-endian; strings and byte
// arrays carry a u32 length prefix.
//
// Parse functions never panic: when the data is too short they return the
// zero value and position len(data)+1, so a caller only needs to check
// position > len(data) once after a sequence of parses.

// PutUint8 appends v.
func PutUint8(v uint8, data *[]byte) {
	*data = append(*data, v)
}

// PutBool appends v as one byte, 1 or 0.
func PutBool(v bool, data *[]byte) {
	if v {
		*data = append(*data, 1)
		return
	}
	*data = append(*data, 0)
}

// PutUint16 appends v little-endian.
func PutUint16(v uint16, data *[]byte) {
	*data = append(*data, byte(v), byte(v>>8))
}

// PutUint32 appends v little-endian.
func PutUint32(v uint32, data *[]byte) {
	*data = append(*data, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// PutUint64 appends v little-endian.
func PutUint64(v uint64, data *[]byte) {
	*data = append(*data, byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// PutInt64 appends v as its two's complement uint64.
func PutInt64(v int64, data *[]byte) {
	PutUint64(uint64(v), data)
}

// PutBytes appends b with a u32 length prefix.
func PutBytes(b []byte, data *[]byte) {
	PutUint32(uint32(len(b)), data)
	*data = append(*data, b...)
}

// PutString appends s with a u32 length prefix.
func PutString(s string, data *[]byte) {
	PutUint32(uint32(len(s)), data)
	*data = append(*data, s...)
}

// PutOptionalString writes a presence byte followed by the string when set.
func PutOptionalString(s *string, data *[]byte) {
	if s == nil {
		PutUint8(0, data)
		return
	}
	PutUint8(1, data)
	PutString(*s, data)
}

// PutAddress appends the 32 raw bytes of a.
func PutAddress(a Address, data *[]byte) {
	*data = append(*data, a[:]...)
}

// PutSignature appends the 64 raw bytes of s.
func PutSignature(s Signature, data *[]byte) {
	*data = append(*data, s[:]...)
}

func overflow(data []byte) int {
	return len(data) + 1
}

// ParseUint8 reads one byte at position.
func ParseUint8(data []byte, position int) (uint8, int) {
	if position < 0 || position+1 > len(data) {
		return 0, overflow(data)
	}
	return data[position], position + 1
}

// ParseBool reads a byte written by PutBool. Any nonzero byte is true.
func ParseBool(data []byte, position int) (bool, int) {
	v, position := ParseUint8(data, position)
	return v != 0, position
}

// ParseUint16 reads a little-endian uint16 at position.
func ParseUint16(data []byte, position int) (uint16, int) {
	if position < 0 || position+2 > len(data) {
		return 0, overflow(data)
	}
	return uint16(data[position]) | uint16(data[position+1])<<8, position + 2
}

// ParseUint32 reads a little-endian uint32 at position.
func ParseUint32(data []byte, position int) (uint32, int) {
	if position < 0 || position+4 > len(data) {
		return 0, overflow(data)
	}
	v := uint32(data[position]) | uint32(data[position+1])<<8 |
		uint32(data[position+2])<<16 | uint32(data[position+3])<<24
	return v, position + 4
}

// ParseUint64 reads a little-endian uint64 at position.
func ParseUint64(data []byte, position int) (uint64, int) {
	if position < 0 || position+8 > len(data) {
		return 0, overflow(data)
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(data[position+i])
	}
	return v, position + 8
}

// ParseInt64 reads a value written by PutInt64.
func ParseInt64(data []byte, position int) (int64, int) {
	v, position := ParseUint64(data, position)
	return int64(v), position
}

// ParseBytes reads a length-prefixed byte slice and returns a copy.
func ParseBytes(data []byte, position int) ([]byte, int) {
	n, position := ParseUint32(data, position)
	if position > len(data) || uint64(position)+uint64(n) > uint64(len(data)) {
		return nil, overflow(data)
	}
	out := make([]byte, n)
	copy(out, data[position:position+int(n)])
	return out, position + int(n)
}

// ParseString reads a value written by PutString.
func ParseString(data []byte, position int) (string, int) {
	b, position := ParseBytes(data, position)
	return string(b), position
}

// ParseOptionalString reads a value written by PutOptionalString.
// A presence byte other than 0 or 1 is treated as malformed.
func ParseOptionalString(data []byte, position int) (*string, int) {
	flag, position := ParseUint8(data, position)
	switch {
	case position > len(data):
		return nil, position
	case flag == 0:
		return nil, position
	case flag != 1:
		return nil, overflow(data)
	}
	s, position := ParseString(data, position)
	if position > len(data) {
		return nil, position
	}
	return &s, position
}

// ParseAddress reads 32 raw bytes at position.
func ParseAddress(data []byte, position int) (Address, int) {
	var a Address
	if position < 0 || position+Size > len(data) {
		return a, overflow(data)
	}
	copy(a[:], data[position:position+Size])
	return a, position + Size
}

// ParseSignature reads 64 raw bytes at position.
func ParseSignature(data []byte, position int) (Signature, int) {
	var s Signature
	if position < 0 || position+SignatureSize > len(data) {
		return s, overflow(data)
	}
	copy(s[:], data[position:position+SignatureSize])
	return s, position + SignatureSize
}
