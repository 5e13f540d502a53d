package codec

// The share format is a flat MSB-first bitstream. The writer and the reader
// below must agree exactly on bit order: a mismatch does not fail, it decodes
// into a silently different song.

// bitWriter appends fixed-width fields to a growable bitstream, most
// significant bit first. The zero value is ready to use.
type bitWriter struct {
	buf []byte
	n   int // bits written
}

// writeBits appends the width least significant bits of value.
func (w *bitWriter) writeBits(value, width int) {
	for i := width - 1; i >= 0; i-- {
		if w.n&7 == 0 {
			w.buf = append(w.buf, 0)
		}
		if value>>uint(i)&1 != 0 {
			w.buf[w.n>>3] |= 0x80 >> uint(w.n&7)
		}
		w.n++
	}
}

// bytes returns the stream as bytes, with the final partial byte zero-padded.
func (w *bitWriter) bytes() []byte {
	return w.buf
}

// bitReader reads fixed-width fields back out of a bitstream, most
// significant bit first. Reading past the end is not an error: missing bits
// read as zero, so a truncated payload decodes as empty fields rather than
// failing.
type bitReader struct {
	data []byte
	pos  int
}

// readBits consumes width bits and returns them as an unsigned integer.
func (r *bitReader) readBits(width int) int {
	value := 0
	for i := 0; i < width; i++ {
		value <<= 1
		if idx := r.pos >> 3; idx < len(r.data) {
			value |= int(r.data[idx]>>uint(7-r.pos&7)) & 1
		}
		r.pos++
	}
	return value
}
