package meg

import "hash/crc32"

// ChecksumFunc computes the 32-bit checksum of an encoded entry path.
type ChecksumFunc func(data []byte) uint32

// Checksum is the CRC-32 (IEEE) used by Petroglyph games to order the file
// table and to look up entries without comparing names.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// PathChecksum returns the checksum of an already encoded path.
func PathChecksum(path string) uint32 {
	return Checksum([]byte(path))
}
