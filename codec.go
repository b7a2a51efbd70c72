package amqp

import "math"

// Bounds-checked big-endian accessors. A false result means the access
// would cross the end of buf; nothing is read or written in that case.

func getUint8(buf []byte, off int) (uint8, bool) {
	if off < 0 || off+1 > len(buf) {
		return 0, false
	}
	return buf[off], true
}

func getUint16(buf []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(buf) {
		return 0, false
	}
	return uint16(buf[off])<<8 | uint16(buf[off+1]), true
}

func getUint32(buf []byte, off int) (uint32, bool) {
	if off < 0 || off+4 > len(buf) {
		return 0, false
	}
	return uint32(buf[off])<<24 | uint32(buf[off+1])<<16 |
		uint32(buf[off+2])<<8 | uint32(buf[off+3]), true
}

func getUint64(buf []byte, off int) (uint64, bool) {
	hi, ok := getUint32(buf, off)
	if !ok {
		return 0, false
	}
	lo, ok := getUint32(buf, off+4)
	if !ok {
		return 0, false
	}
	return uint64(hi)<<32 | uint64(lo), true
}

func getBytes(buf []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off+n > len(buf) {
		return nil, false
	}
	return buf[off : off+n : off+n], true
}

func putUint8(buf []byte, off int, v uint8) bool {
	if off < 0 || off+1 > len(buf) {
		return false
	}
	buf[off] = v
	return true
}

func putUint16(buf []byte, off int, v uint16) bool {
	if off < 0 || off+2 > len(buf) {
		return false
	}
	buf[off] = byte(v >> 8)
	buf[off+1] = byte(v)
	return true
}

func putUint32(buf []byte, off int, v uint32) bool {
	if off < 0 || off+4 > len(buf) {
		return false
	}
	buf[off] = byte(v >> 24)
	buf[off+1] = byte(v >> 16)
	buf[off+2] = byte(v >> 8)
	buf[off+3] = byte(v)
	return true
}

func putUint64(buf []byte, off int, v uint64) bool {
	if off < 0 || off+8 > len(buf) {
		return false
	}
	putUint32(buf, off, uint32(v>>32))
	putUint32(buf, off+4, uint32(v))
	return true
}

func putBytes(buf []byte, off int, b []byte) bool {
	if off < 0 || off+len(b) > len(buf) {
		return false
	}
	copy(buf[off:], b)
	return true
}

var errTruncated = &LibraryError{Status: StatusBadAMQPData, Op: "decode"}

// decoder reads wire values from buf. The first failure sticks: later reads
// return zero values and err keeps the original cause.
type decoder struct {
	buf  []byte
	off  int
	pool *Pool
	err  error
}

func newDecoder(buf []byte, pool *Pool) *decoder {
	return &decoder{buf: buf, pool: pool}
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) remaining() int {
	return len(d.buf) - d.off
}

func (d *decoder) u8() uint8 {
	if d.err != nil {
		return 0
	}
	v, ok := getUint8(d.buf, d.off)
	if !ok {
		d.fail(errTruncated)
		return 0
	}
	d.off++
	return v
}

func (d *decoder) u16() uint16 {
	if d.err != nil {
		return 0
	}
	v, ok := getUint16(d.buf, d.off)
	if !ok {
		d.fail(errTruncated)
		return 0
	}
	d.off += 2
	return v
}

func (d *decoder) u32() uint32 {
	if d.err != nil {
		return 0
	}
	v, ok := getUint32(d.buf, d.off)
	if !ok {
		d.fail(errTruncated)
		return 0
	}
	d.off += 4
	return v
}

func (d *decoder) u64() uint64 {
	if d.err != nil {
		return 0
	}
	v, ok := getUint64(d.buf, d.off)
	if !ok {
		d.fail(errTruncated)
		return 0
	}
	d.off += 8
	return v
}

// raw returns n bytes aliasing the input.
func (d *decoder) raw(n int) []byte {
	if d.err != nil {
		return nil
	}
	b, ok := getBytes(d.buf, d.off, n)
	if !ok {
		d.fail(errTruncated)
		return nil
	}
	d.off += n
	return b
}

// pooled returns n bytes copied into the decoder's pool, or aliasing the
// input when there is no pool.
func (d *decoder) pooled(n int) []byte {
	b := d.raw(n)
	if d.err != nil || d.pool == nil {
		return b
	}
	out, err := d.pool.Dup(b)
	if err != nil {
		d.fail(err)
		return nil
	}
	return out
}

func (d *decoder) shortstr() string {
	return string(d.raw(int(d.u8())))
}

func (d *decoder) longstr() string {
	return string(d.raw(int(d.u32())))
}

func (d *decoder) longbytes() []byte {
	return d.pooled(int(d.u32()))
}

// encoder writes wire values into a fixed buffer. It never grows buf; an
// overflow sticks as err.
type encoder struct {
	buf     []byte
	off     int
	inTable int
	err     error
}

func newEncoder(buf []byte) *encoder {
	return &encoder{buf: buf}
}

func (e *encoder) overflow() {
	if e.err != nil {
		return
	}
	if e.inTable > 0 {
		e.err = &LibraryError{Status: StatusTableTooBig, Op: "encode"}
		return
	}
	e.err = &LibraryError{Status: StatusBadAMQPData, Op: "encode"}
}

func (e *encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *encoder) u8(v uint8) {
	if e.err != nil {
		return
	}
	if !putUint8(e.buf, e.off, v) {
		e.overflow()
		return
	}
	e.off++
}

func (e *encoder) u16(v uint16) {
	if e.err != nil {
		return
	}
	if !putUint16(e.buf, e.off, v) {
		e.overflow()
		return
	}
	e.off += 2
}

func (e *encoder) u32(v uint32) {
	if e.err != nil {
		return
	}
	if !putUint32(e.buf, e.off, v) {
		e.overflow()
		return
	}
	e.off += 4
}

func (e *encoder) u64(v uint64) {
	if e.err != nil {
		return
	}
	if !putUint64(e.buf, e.off, v) {
		e.overflow()
		return
	}
	e.off += 8
}

func (e *encoder) raw(b []byte) {
	if e.err != nil {
		return
	}
	if !putBytes(e.buf, e.off, b) {
		e.overflow()
		return
	}
	e.off += len(b)
}

func (e *encoder) shortstr(s string) {
	if len(s) > math.MaxUint8 {
		e.fail(&LibraryError{Status: StatusInvalidParameter, Op: "encode shortstr"})
		return
	}
	e.u8(uint8(len(s)))
	e.raw([]byte(s))
}

func (e *encoder) longstr(s string) {
	e.longbytes([]byte(s))
}

func (e *encoder) longbytes(b []byte) {
	if uint64(len(b)) > math.MaxUint32 {
		e.fail(&LibraryError{Status: StatusInvalidParameter, Op: "encode longstr"})
		return
	}
	e.u32(uint32(len(b)))
	e.raw(b)
}

// reserve32 skips four bytes for a size filled in later by patch32.
func (e *encoder) reserve32() int {
	at := e.off
	e.u32(0)
	return at
}

func (e *encoder) patch32(at int, v uint32) {
	if e.err != nil {
		return
	}
	putUint32(e.buf, at, v)
}

func (e *encoder) bytes() []byte {
	return e.buf[:e.off]
}

// packBits packs consecutive bit fields, first field in the lowest bit.
func packBits(bits ...bool) uint8 {
	var v uint8
	for i, b := range bits {
		if b {
			v |= 1 << uint(i)
		}
	}
	return v
}

func bitAt(v uint8, i int) bool {
	return v&(1<<uint(i)) != 0
}
