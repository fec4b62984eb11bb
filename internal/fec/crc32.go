package fec

import (
	"encoding/binary"
	"hash/crc32"
)

// CRC32 computes CRC-32 checksum using IEEE polynomial.
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// AppendCRC32 appends 4-byte CRC-32 to the data.
func AppendCRC32(data []byte) []byte {
	checksum := CRC32(data)
	result := make([]byte, len(data)+4)
	copy(result, data)
	binary.BigEndian.PutUint32(result[len(data):], checksum)
	return result
}

// VerifyCRC32 verifies the CRC-32 at the end of the data.
// Returns the data without CRC and whether verification passed.
func VerifyCRC32(dataWithCRC []byte) ([]byte, bool) {
	if len(dataWithCRC) < 4 {
		return nil, false
	}

	data := dataWithCRC[:len(dataWithCRC)-4]
	expected := binary.BigEndian.Uint32(dataWithCRC[len(dataWithCRC)-4:])
	actual := CRC32(data)

	return data, actual == expected
}

// CRC32Bytes returns the CRC-32 as a 4-byte slice.
func CRC32Bytes(data []byte) []byte {
	checksum := CRC32(data)
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, checksum)
	return buf
}

// FrameLengthPrefixed appends a CRC-32 to data and prefixes the result
// with its own length as a big-endian uint32. Callers that wrap the frame
// in fixed-size shards (e.g. Reed-Solomon padding) need the exact
// pre-padding length to strip that padding back off on decode.
func FrameLengthPrefixed(data []byte) []byte {
	withCRC := AppendCRC32(data)
	framed := make([]byte, 4+len(withCRC))
	binary.BigEndian.PutUint32(framed, uint32(len(withCRC)))
	copy(framed[4:], withCRC)
	return framed
}

// UnframeLengthPrefixed reverses FrameLengthPrefixed: it reads the length
// prefix, verifies the CRC-32 over the named span, and returns the
// checksummed payload. body may carry trailing padding beyond the framed
// length, which is discarded.
func UnframeLengthPrefixed(body []byte) ([]byte, bool) {
	if len(body) < 4 {
		return nil, false
	}
	n := binary.BigEndian.Uint32(body)
	if int(n) > len(body)-4 {
		return nil, false
	}
	return VerifyCRC32(body[4 : 4+n])
}
