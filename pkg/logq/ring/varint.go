package ring

// Length prefixes are unsigned base-128 varints, least significant group
// first, high bit marking continuation. They are read and written
// byte-wise with modular indexes so a prefix may straddle the arena edge.

// maxVarintBytes bounds prefix decoding; sizes are 32-bit.
const maxVarintBytes = 5

func varintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

func (b *Buffer) writeVarintAt(at int, v uint64) int {
	n := 0
	for v >= 0x80 {
		b.data[(at+n)%len(b.data)] = byte(v) | 0x80
		v >>= 7
		n++
	}
	b.data[(at+n)%len(b.data)] = byte(v)
	return n + 1
}

func (b *Buffer) readVarintAt(at int) (uint64, int, error) {
	var v uint64
	for i := 0; i < maxVarintBytes; i++ {
		c := b.data[(at+i)%len(b.data)]
		v |= uint64(c&0x7f) << (7 * uint(i))
		if c&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrCorruptFrame
}
