package binary

// ByteSum computes the unsigned byte sum used by tar headers. Each byte
// contributes its value in the range 0-255.
func ByteSum(data []byte) int64 {
	var sum int64
	for _, b := range data {
		sum += int64(b)
	}
	return sum
}

// ByteSumBlanked computes ByteSum as if data[off:off+n] held ASCII spaces.
// Tar checksums are defined over the header with the checksum field blanked.
func ByteSumBlanked(data []byte, off, n int) int64 {
	var sum int64
	for i, b := range data {
		if i >= off && i < off+n {
			sum += ' '
			continue
		}
		sum += int64(b)
	}
	return sum
}
