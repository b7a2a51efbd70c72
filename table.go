package amqp

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// Kind identifies the type of a FieldValue. Its value is the wire tag.
type Kind byte

// Field value kinds.
const (
	KindBoolean   Kind = 't'
	KindI8        Kind = 'b'
	KindU8        Kind = 'B'
	KindI16       Kind = 's'
	KindU16       Kind = 'u'
	KindI32       Kind = 'I'
	KindU32       Kind = 'i'
	KindI64       Kind = 'l'
	KindU64       Kind = 'L'
	KindF32       Kind = 'f'
	KindF64       Kind = 'd'
	KindDecimal   Kind = 'D'
	KindUTF8      Kind = 'S'
	KindBytes     Kind = 'x'
	KindArray     Kind = 'A'
	KindTimestamp Kind = 'T'
	KindTable     Kind = 'F'
	KindVoid      Kind = 'V'
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindI8:
		return "i8"
	case KindU8:
		return "u8"
	case KindI16:
		return "i16"
	case KindU16:
		return "u16"
	case KindI32:
		return "i32"
	case KindU32:
		return "u32"
	case KindI64:
		return "i64"
	case KindU64:
		return "u64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindDecimal:
		return "decimal"
	case KindUTF8:
		return "utf8"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindTimestamp:
		return "timestamp"
	case KindTable:
		return "table"
	case KindVoid:
		return "void"
	}
	return fmt.Sprintf("kind(%q)", byte(k))
}

// Decimal is a scaled integer: Value / 10^Scale.
type Decimal struct {
	Scale uint8
	Value uint32
}

// FieldValue is a typed value stored in a Table or Array. The zero value is
// void. Accessors panic when called on the wrong kind.
//
// A decoded string, byte, table or array value borrows from the pool it was
// decoded into. Once that pool is recycled its accessors panic; use Clone to
// keep a value longer.
type FieldValue struct {
	kind  Kind
	num   uint64
	bytes []byte
	table Table
	array Array
	lease Lease
}

// Boolean returns a boolean value.
func Boolean(v bool) FieldValue {
	var n uint64
	if v {
		n = 1
	}
	return FieldValue{kind: KindBoolean, num: n}
}

// Int8 returns a signed 8-bit value.
func Int8(v int8) FieldValue {
	return FieldValue{kind: KindI8, num: uint64(uint8(v))}
}

// Uint8 returns an unsigned 8-bit value.
func Uint8(v uint8) FieldValue {
	return FieldValue{kind: KindU8, num: uint64(v)}
}

// Int16 returns a signed 16-bit value.
func Int16(v int16) FieldValue {
	return FieldValue{kind: KindI16, num: uint64(uint16(v))}
}

// Uint16 returns an unsigned 16-bit value.
func Uint16(v uint16) FieldValue {
	return FieldValue{kind: KindU16, num: uint64(v)}
}

// Int32 returns a signed 32-bit value, tag 'I'.
func Int32(v int32) FieldValue {
	return FieldValue{kind: KindI32, num: uint64(uint32(v))}
}

// Uint32 returns an unsigned 32-bit value, tag 'i'.
func Uint32(v uint32) FieldValue {
	return FieldValue{kind: KindU32, num: uint64(v)}
}

// Int64 returns a signed 64-bit value.
func Int64(v int64) FieldValue {
	return FieldValue{kind: KindI64, num: uint64(v)}
}

// Uint64 returns an unsigned 64-bit value.
func Uint64(v uint64) FieldValue {
	return FieldValue{kind: KindU64, num: v}
}

// Float32 returns a single precision value. NaN payloads are kept bit for
// bit.
func Float32(v float32) FieldValue {
	return FieldValue{kind: KindF32, num: uint64(math.Float32bits(v))}
}

// Float64 returns a double precision value.
func Float64(v float64) FieldValue {
	return FieldValue{kind: KindF64, num: math.Float64bits(v)}
}

// DecimalValue returns a decimal value.
func DecimalValue(d Decimal) FieldValue {
	return FieldValue{kind: KindDecimal, num: uint64(d.Scale)<<32 | uint64(d.Value)}
}

// UTF8 stores s as a long string. The bytes are not validated.
func UTF8(s string) FieldValue {
	return FieldValue{kind: KindUTF8, bytes: []byte(s)}
}

// UTF8Bytes stores b as a long string without copying.
func UTF8Bytes(b []byte) FieldValue {
	return FieldValue{kind: KindUTF8, bytes: b}
}

// Bytes stores b as a byte array without copying.
func Bytes(b []byte) FieldValue {
	return FieldValue{kind: KindBytes, bytes: b}
}

// Timestamp stores seconds since the Unix epoch.
func Timestamp(sec uint64) FieldValue {
	return FieldValue{kind: KindTimestamp, num: sec}
}

// TimeValue stores t as a timestamp, truncated to the second.
func TimeValue(t time.Time) FieldValue {
	return Timestamp(uint64(t.Unix()))
}

// TableValue nests t.
func TableValue(t Table) FieldValue {
	return FieldValue{kind: KindTable, table: t}
}

// ArrayValue nests a.
func ArrayValue(a Array) FieldValue {
	return FieldValue{kind: KindArray, array: a}
}

// Void returns the empty value.
func Void() FieldValue {
	return FieldValue{kind: KindVoid}
}

// Kind returns the value's kind.
func (v FieldValue) Kind() Kind {
	if v.kind == 0 {
		return KindVoid
	}
	return v.kind
}

// Valid reports whether the memory v borrows is still usable. Values built
// with the constructors are always valid.
func (v FieldValue) Valid() bool {
	return v.lease.Valid()
}

func (v FieldValue) borrowed() {
	if !v.lease.Valid() {
		panic("amqp: field value used after its buffer was recycled")
	}
}

// Clone returns a copy of v that borrows nothing.
func (v FieldValue) Clone() FieldValue {
	v.borrowed()
	out := FieldValue{kind: v.kind, num: v.num}
	switch v.kind {
	case KindUTF8, KindBytes:
		out.bytes = append([]byte(nil), v.bytes...)
	case KindTable:
		out.table = v.table.Clone()
	case KindArray:
		out.array = v.array.Clone()
	}
	return out
}

func (v FieldValue) mustBe(kinds ...Kind) {
	k := v.Kind()
	for _, want := range kinds {
		if k == want {
			return
		}
	}
	panic(fmt.Sprintf("amqp: FieldValue of kind %s used as %s", k, kinds[0]))
}

// Bool returns a boolean value.
func (v FieldValue) Bool() bool {
	v.mustBe(KindBoolean)
	return v.num != 0
}

// Int returns any signed integer kind widened to int64.
func (v FieldValue) Int() int64 {
	v.mustBe(KindI64, KindI32, KindI16, KindI8)
	switch v.kind {
	case KindI8:
		return int64(int8(v.num))
	case KindI16:
		return int64(int16(v.num))
	case KindI32:
		return int64(int32(v.num))
	}
	return int64(v.num)
}

// Uint returns any unsigned integer kind, or a timestamp, widened to uint64.
func (v FieldValue) Uint() uint64 {
	v.mustBe(KindU64, KindU32, KindU16, KindU8, KindTimestamp)
	return v.num
}

// Float returns either floating point kind as float64.
func (v FieldValue) Float() float64 {
	v.mustBe(KindF64, KindF32)
	if v.kind == KindF32 {
		return float64(math.Float32frombits(uint32(v.num)))
	}
	return math.Float64frombits(v.num)
}

// Decimal returns a decimal value.
func (v FieldValue) Decimal() Decimal {
	v.mustBe(KindDecimal)
	return Decimal{Scale: uint8(v.num >> 32), Value: uint32(v.num)}
}

// Bytes returns the payload of a utf8 or bytes value.
func (v FieldValue) Bytes() []byte {
	v.mustBe(KindUTF8, KindBytes)
	v.borrowed()
	return v.bytes
}

// String formats the value. For utf8 values it returns the text itself.
func (v FieldValue) String() string {
	v.borrowed()
	switch v.Kind() {
	case KindUTF8:
		return string(v.bytes)
	case KindBytes:
		return fmt.Sprintf("%x", v.bytes)
	case KindBoolean:
		return fmt.Sprint(v.Bool())
	case KindI8, KindI16, KindI32, KindI64:
		return fmt.Sprint(v.Int())
	case KindU8, KindU16, KindU32, KindU64, KindTimestamp:
		return fmt.Sprint(v.num)
	case KindF32, KindF64:
		return fmt.Sprint(v.Float())
	case KindDecimal:
		d := v.Decimal()
		return fmt.Sprintf("%de-%d", d.Value, d.Scale)
	case KindTable:
		return fmt.Sprint(v.table)
	case KindArray:
		return fmt.Sprint(v.array)
	}
	return "void"
}

// Table returns a nested table.
func (v FieldValue) Table() Table {
	v.mustBe(KindTable)
	v.borrowed()
	return v.table
}

// Array returns a nested array.
func (v FieldValue) Array() Array {
	v.mustBe(KindArray)
	v.borrowed()
	return v.array
}

// Equal reports whether two values have the same kind and wire encoding.
func (v FieldValue) Equal(o FieldValue) bool {
	v.borrowed()
	o.borrowed()
	if v.Kind() != o.Kind() {
		return false
	}
	switch v.Kind() {
	case KindUTF8, KindBytes:
		return bytes.Equal(v.bytes, o.bytes)
	case KindTable:
		return v.table.Equal(o.table)
	case KindArray:
		return v.array.Equal(o.array)
	case KindVoid:
		return true
	}
	return v.num == o.num
}

// TableEntry is one key/value pair of a Table.
type TableEntry struct {
	Key   string
	Value FieldValue
}

// Entry is shorthand for TableEntry{Key: key, Value: v}.
func Entry(key string, v FieldValue) TableEntry {
	return TableEntry{Key: key, Value: v}
}

// Table is an ordered list of entries. Duplicate keys are kept as received.
type Table []TableEntry

// Get returns the first entry with the given key.
func (t Table) Get(key string) (FieldValue, bool) {
	for _, e := range t {
		if e.Key == key {
			return e.Value, true
		}
	}
	return FieldValue{}, false
}

// Equal compares two tables entry by entry, in order.
func (t Table) Equal(o Table) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if t[i].Key != o[i].Key || !t[i].Value.Equal(o[i].Value) {
			return false
		}
	}
	return true
}

// Valid reports whether every value in t is still usable.
func (t Table) Valid() bool {
	for _, e := range t {
		if !e.Value.Valid() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of t that borrows nothing from a pool.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for i, e := range t {
		out[i] = TableEntry{Key: e.Key, Value: e.Value.Clone()}
	}
	return out
}

// CompareEntries orders entries by key bytes. A key that is a prefix of
// another sorts first.
func CompareEntries(a, b TableEntry) int {
	return bytes.Compare([]byte(a.Key), []byte(b.Key))
}

// Sort orders t in place with CompareEntries. Encoding and decoding never
// reorder; call Sort when a canonical order is needed.
func (t Table) Sort() {
	sort.SliceStable(t, func(i, j int) bool {
		return CompareEntries(t[i], t[j]) < 0
	})
}

// Array is an ordered list of values.
type Array []FieldValue

// Clone returns a deep copy of a that borrows nothing from a pool.
func (a Array) Clone() Array {
	if a == nil {
		return nil
	}
	out := make(Array, len(a))
	for i, v := range a {
		out[i] = v.Clone()
	}
	return out
}

// Equal compares two arrays element by element.
func (a Array) Equal(o Array) bool {
	if len(a) != len(o) {
		return false
	}
	for i := range a {
		if !a[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

const initialTableScratch = 16

var errStaleValue = &LibraryError{
	Status: StatusInvalidParameter,
	Op:     "encode field",
	Err:    errors.New("value used after its buffer was recycled"),
}

func unknownKind(tag uint8) error {
	return &LibraryError{
		Status: StatusUnknownFieldKind,
		Op:     "decode field",
		Err:    errors.Errorf("tag %q", tag),
	}
}

func (d *decoder) table() Table {
	size := int(d.u32())
	if d.err != nil {
		return nil
	}
	if size > d.remaining() {
		d.fail(errTruncated)
		return nil
	}
	limit := d.off + size

	scratch := make([]TableEntry, 0, initialTableScratch)
	for d.off < limit && d.err == nil {
		key := d.shortstr()
		v := d.fieldValue()
		if d.err != nil {
			break
		}
		scratch = append(scratch, TableEntry{Key: key, Value: v})
	}
	if d.err != nil {
		return nil
	}
	if d.off != limit {
		d.fail(errTruncated)
		return nil
	}
	return d.finishTable(scratch)
}

func (d *decoder) finishTable(scratch []TableEntry) Table {
	var out []TableEntry
	if d.pool != nil {
		out = d.pool.allocEntries(len(scratch))
	} else {
		out = make([]TableEntry, len(scratch))
	}
	copy(out, scratch)
	return out
}

func (d *decoder) array() Array {
	size := int(d.u32())
	if d.err != nil {
		return nil
	}
	if size > d.remaining() {
		d.fail(errTruncated)
		return nil
	}
	limit := d.off + size

	scratch := make([]FieldValue, 0, initialTableScratch)
	for d.off < limit && d.err == nil {
		v := d.fieldValue()
		if d.err != nil {
			break
		}
		scratch = append(scratch, v)
	}
	if d.err != nil {
		return nil
	}
	if d.off != limit {
		d.fail(errTruncated)
		return nil
	}
	var out []FieldValue
	if d.pool != nil {
		out = d.pool.allocValues(len(scratch))
	} else {
		out = make([]FieldValue, len(scratch))
	}
	copy(out, scratch)
	return out
}

func (d *decoder) fieldValue() FieldValue {
	tag := d.u8()
	if d.err != nil {
		return FieldValue{}
	}
	k := Kind(tag)
	switch k {
	case KindBoolean, KindI8, KindU8:
		return FieldValue{kind: k, num: uint64(d.u8())}
	case KindI16, KindU16:
		return FieldValue{kind: k, num: uint64(d.u16())}
	case KindI32, KindU32, KindF32:
		return FieldValue{kind: k, num: uint64(d.u32())}
	case KindI64, KindU64, KindF64, KindTimestamp:
		return FieldValue{kind: k, num: d.u64()}
	case KindDecimal:
		scale := d.u8()
		value := d.u32()
		return DecimalValue(Decimal{Scale: scale, Value: value})
	case KindUTF8, KindBytes:
		return FieldValue{kind: k, bytes: d.longbytes(), lease: d.lease()}
	case KindArray:
		return FieldValue{kind: k, array: d.array(), lease: d.lease()}
	case KindTable:
		return FieldValue{kind: k, table: d.table(), lease: d.lease()}
	case KindVoid:
		return FieldValue{kind: k}
	}
	d.fail(unknownKind(tag))
	return FieldValue{}
}

// lease ties decoded values to the decoder's pool, if any.
func (d *decoder) lease() Lease {
	if d.pool == nil {
		return Lease{}
	}
	return d.pool.Lease()
}

func (e *encoder) table(t Table) {
	e.inTable++
	defer func() { e.inTable-- }()

	at := e.reserve32()
	start := e.off
	for _, entry := range t {
		e.shortstr(entry.Key)
		e.fieldValue(entry.Value)
	}
	e.patch32(at, uint32(e.off-start))
}

func (e *encoder) array(a Array) {
	e.inTable++
	defer func() { e.inTable-- }()

	at := e.reserve32()
	start := e.off
	for _, v := range a {
		e.fieldValue(v)
	}
	e.patch32(at, uint32(e.off-start))
}

func (e *encoder) fieldValue(v FieldValue) {
	if !v.lease.Valid() {
		e.fail(errStaleValue)
		return
	}
	k := v.Kind()
	e.u8(uint8(k))
	switch k {
	case KindBoolean, KindI8, KindU8:
		e.u8(uint8(v.num))
	case KindI16, KindU16:
		e.u16(uint16(v.num))
	case KindI32, KindU32, KindF32:
		e.u32(uint32(v.num))
	case KindI64, KindU64, KindF64, KindTimestamp:
		e.u64(v.num)
	case KindDecimal:
		e.u8(uint8(v.num >> 32))
		e.u32(uint32(v.num))
	case KindUTF8, KindBytes:
		e.longbytes(v.bytes)
	case KindArray:
		e.array(v.array)
	case KindTable:
		e.table(v.table)
	case KindVoid:
	default:
		e.fail(unknownKind(uint8(k)))
	}
}

// DecodeTable decodes a size-prefixed table starting at offset off of buf.
// Strings and nested containers are allocated from pool. It returns the
// offset just past the table.
func DecodeTable(buf []byte, off int, pool *Pool) (Table, int, error) {
	d := newDecoder(buf, pool)
	d.off = off
	t := d.table()
	if d.err != nil {
		return nil, off, d.err
	}
	return t, d.off, nil
}

// EncodeTable writes t, size prefix included, into buf at offset off and
// returns the offset just past it. buf is never grown; StatusTableTooBig is
// returned when it is too small.
func EncodeTable(buf []byte, off int, t Table) (int, error) {
	e := newEncoder(buf)
	e.off = off
	e.table(t)
	if e.err != nil {
		return off, e.err
	}
	return e.off, nil
}

// AppendTable appends the encoding of t to dst.
func AppendTable(dst []byte, t Table) ([]byte, error) {
	size := 4 + t.encodedSize()
	start := len(dst)
	dst = append(dst, make([]byte, size)...)
	if _, err := EncodeTable(dst, start, t); err != nil {
		return dst[:start], err
	}
	return dst, nil
}

func (t Table) encodedSize() int {
	n := 0
	for _, e := range t {
		n += 1 + len(e.Key) + e.Value.encodedSize()
	}
	return n
}

func (v FieldValue) encodedSize() int {
	n := 1
	switch v.Kind() {
	case KindBoolean, KindI8, KindU8:
		n++
	case KindI16, KindU16:
		n += 2
	case KindI32, KindU32, KindF32:
		n += 4
	case KindI64, KindU64, KindF64, KindTimestamp:
		n += 8
	case KindDecimal:
		n += 5
	case KindUTF8, KindBytes:
		n += 4 + len(v.bytes)
	case KindArray:
		n += 4
		for _, item := range v.array {
			n += item.encodedSize()
		}
	case KindTable:
		n += 4 + v.table.encodedSize()
	}
	return n
}
