// Package engine implements the raw buffer underneath a parcel: a growable
// byte slice with a single shared cursor, fixed-width primitive access in
// little-endian 4-byte slots, bounds-checked splicing between buffers, and an
// out-of-band table for references to remote endpoint objects.
//
// The parcel layer only sequences calls into this package and checks the
// returned status; all bounds validation happens here.
package engine

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	// ErrNotEnoughData is returned when a read would run past the buffer size.
	ErrNotEnoughData = errors.New("parcel: not enough data")
	// ErrBadValue is returned for malformed lengths, offsets and splice ranges.
	ErrBadValue = errors.New("parcel: bad value")
	// ErrBadType is returned when the data at the cursor is not an object
	// reference but one was requested.
	ErrBadType = errors.New("parcel: bad type")
)

// Ref is implemented by object references whose lifetime is refcounted by
// their owner. The buffer takes a reference for every table entry it holds
// and drops it again on Free.
type Ref interface {
	IncRef()
	DecRef()
}

// Object encoding on the wire: a 4-byte type header followed by a 4-byte
// table index. The header for a live reference reproduces the flat binder
// object tag; null references carry a zero header.
const (
	objHeader  uint32 = 0x73622a85
	nullHeader uint32 = 0

	objEncodedSize int32 = 8
)

type objEntry struct {
	pos int32 // offset of the type header word
	obj any
}

// Buffer holds parcel bytes plus the object table delivered out-of-band by
// the transport. The cursor is state of the buffer, not of any handle viewing
// it: every view over the same Buffer observes and moves the same position.
type Buffer struct {
	data      []byte
	pos       int32
	objects   []objEntry
	sensitive bool
	freed     bool
}

// New allocates an empty buffer. An empty buffer is assumed always
// constructible; there is no error path.
func New() *Buffer {
	return &Buffer{}
}

// Free releases the buffer. Sensitive buffers are zeroed first, and every
// object table entry drops the reference taken at registration. Calling Free
// twice is a no-op the second time.
func (b *Buffer) Free() {
	if b.freed {
		return
	}
	b.freed = true
	if b.sensitive {
		zero(b.data)
	}
	for _, e := range b.objects {
		if r, ok := e.obj.(Ref); ok {
			r.DecRef()
		}
	}
	b.data = nil
	b.objects = nil
}

// MarkSensitive flags the buffer so its bytes are zeroed before being freed
// or abandoned by reallocation. Idempotent.
func (b *Buffer) MarkSensitive() {
	b.sensitive = true
}

// Size returns the total buffer size in bytes.
func (b *Buffer) Size() int32 {
	return int32(len(b.data))
}

// Position returns the current cursor offset.
func (b *Buffer) Position() int32 {
	return b.pos
}

// SetPosition moves the cursor. Targets outside [0, Size()] are rejected.
func (b *Buffer) SetPosition(p int32) error {
	if p < 0 || p > b.Size() {
		return ErrBadValue
	}
	b.pos = p
	return nil
}

// Bytes exposes the raw backing bytes, e.g. for handing to a transport. The
// slice aliases buffer memory and is invalidated by any subsequent write.
func (b *Buffer) Bytes() []byte {
	return b.data
}

func zero(p []byte) {
	for i := range p {
		p[i] = 0
	}
}

// grow extends the buffer by n bytes. A sensitive buffer zeroes the old
// backing array when a reallocation abandons it.
func (b *Buffer) grow(n int) {
	off := len(b.data)
	need := off + n
	if need <= cap(b.data) {
		b.data = b.data[:need]
		return
	}
	newCap := cap(b.data) * 2
	if newCap < need {
		newCap = need
	}
	tmp := make([]byte, need, newCap)
	copy(tmp, b.data)
	if b.sensitive {
		zero(b.data)
	}
	b.data = tmp
}

// need checks that n bytes remain at the cursor and advances past them,
// returning the offset they start at. The cursor does not move on failure.
func (b *Buffer) need(n int32) (int32, error) {
	if int64(b.pos)+int64(n) > int64(len(b.data)) {
		return 0, ErrNotEnoughData
	}
	off := b.pos
	b.pos += n
	return off, nil
}

// writeAt places p at the cursor, overwriting existing bytes in place and
// growing the buffer when the write extends past the current size.
func (b *Buffer) writeAt(p []byte) error {
	if b.freed {
		return ErrBadValue
	}
	need := int(b.pos) + len(p)
	if need > len(b.data) {
		b.grow(need - len(b.data))
	}
	copy(b.data[b.pos:], p)
	b.pos += int32(len(p))
	return nil
}

// WriteUint32 writes one 4-byte slot at the cursor in little-endian order.
func (b *Buffer) WriteUint32(v uint32) error {
	var s [4]byte
	binary.LittleEndian.PutUint32(s[:], v)
	return b.writeAt(s[:])
}

// WriteUint64 writes two slots at the cursor in little-endian order.
func (b *Buffer) WriteUint64(v uint64) error {
	var s [8]byte
	binary.LittleEndian.PutUint64(s[:], v)
	return b.writeAt(s[:])
}

// WriteFloat32 writes an IEEE 754 float in one slot.
func (b *Buffer) WriteFloat32(v float32) error {
	return b.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 writes an IEEE 754 double in two slots.
func (b *Buffer) WriteFloat64(v float64) error {
	return b.WriteUint64(math.Float64bits(v))
}

// WriteRaw writes exactly len(p) bytes at the cursor with no header and no
// padding; alignment is the caller's concern.
func (b *Buffer) WriteRaw(p []byte) error {
	return b.writeAt(p)
}

// ReadUint32 reads one slot at the cursor.
func (b *Buffer) ReadUint32() (uint32, error) {
	off, err := b.need(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b.data[off:]), nil
}

// ReadUint64 reads two slots at the cursor.
func (b *Buffer) ReadUint64() (uint64, error) {
	off, err := b.need(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b.data[off:]), nil
}

// ReadFloat32 reads an IEEE 754 float from one slot.
func (b *Buffer) ReadFloat32() (float32, error) {
	v, err := b.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFloat64 reads an IEEE 754 double from two slots.
func (b *Buffer) ReadFloat64() (float64, error) {
	v, err := b.ReadUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadRaw reads exactly n bytes at the cursor. The returned slice aliases
// buffer memory; callers that retain it past the next write must copy.
func (b *Buffer) ReadRaw(n int32) ([]byte, error) {
	if n < 0 {
		return nil, ErrBadValue
	}
	off, err := b.need(n)
	if err != nil {
		return nil, err
	}
	return b.data[off : off+n], nil
}

// AppendFrom copies size bytes of src starting at offset start onto the end
// of b, past Size() regardless of the cursor. Object entries whose encoding
// lies inside the copied range are re-registered at their new offsets, taking
// an extra reference for each.
func (b *Buffer) AppendFrom(src *Buffer, start, size int32) error {
	if b.freed || src.freed {
		return ErrBadValue
	}
	if start < 0 || size < 0 {
		return ErrBadValue
	}
	end := int64(start) + int64(size)
	if end > int64(src.Size()) {
		return ErrBadValue
	}
	dstOff := int32(len(b.data))
	n := len(b.data)
	b.grow(int(size))
	copy(b.data[n:], src.data[start:end])
	for _, e := range src.objects {
		if e.pos >= start && int64(e.pos)+int64(objEncodedSize) <= end {
			if r, ok := e.obj.(Ref); ok {
				r.IncRef()
			}
			b.objects = append(b.objects, objEntry{pos: e.pos - start + dstOff, obj: e.obj})
		}
	}
	return nil
}

// WriteObject encodes a reference to a remote endpoint object at the cursor.
// A nil obj encodes a null reference of the same width. Live references are
// registered in the object table; Ref implementers are refcounted.
func (b *Buffer) WriteObject(obj any) error {
	if obj == nil {
		if err := b.WriteUint32(nullHeader); err != nil {
			return err
		}
		return b.WriteUint32(0)
	}
	pos := b.pos
	if err := b.WriteUint32(objHeader); err != nil {
		return err
	}
	if err := b.WriteUint32(uint32(len(b.objects))); err != nil {
		return err
	}
	if r, ok := obj.(Ref); ok {
		r.IncRef()
	}
	b.objects = append(b.objects, objEntry{pos: pos, obj: obj})
	return nil
}

// ReadObject decodes an object reference at the cursor. Null references
// yield (nil, nil). Data that does not carry an object header, including an
// empty buffer, yields ErrBadType; the cursor is unmoved on any failure.
func (b *Buffer) ReadObject() (any, error) {
	pos := b.pos
	hdr, err := b.ReadUint32()
	if err != nil {
		return nil, ErrBadType
	}
	switch hdr {
	case nullHeader:
		if _, err := b.ReadUint32(); err != nil {
			b.pos = pos
			return nil, err
		}
		return nil, nil
	case objHeader:
		if _, err := b.ReadUint32(); err != nil {
			b.pos = pos
			return nil, err
		}
		for _, e := range b.objects {
			if e.pos == pos {
				return e.obj, nil
			}
		}
		b.pos = pos
		return nil, ErrBadValue
	default:
		b.pos = pos
		return nil, ErrBadType
	}
}
