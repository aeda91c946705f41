package parcel

import "github.com/rawbytedev/parcel/internal/common"

// Readable is implemented by values that can decode themselves from a parcel
// at the current cursor.
type Readable interface {
	ReadFromParcel(p *Parcel) error
}

// Read decodes r from the current cursor, advancing it.
func (p *Parcel) Read(r Readable) error {
	return r.ReadFromParcel(p)
}

// ReadTo decodes onto an existing value. The value is overwritten on
// success and left untouched when the read fails.
func (p *Parcel) ReadTo(r Readable) error {
	return r.ReadFromParcel(p)
}

// ReadBool reads one slot; any non-zero value is true.
func (p *Parcel) ReadBool() (bool, error) {
	v, err := p.buf.ReadUint32()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// ReadInt8 reads one slot and returns its low byte.
func (p *Parcel) ReadInt8() (int8, error) {
	v, err := p.buf.ReadUint32()
	if err != nil {
		return 0, err
	}
	return int8(v), nil
}

// ReadUint8 reads one slot and returns its low byte.
func (p *Parcel) ReadUint8() (uint8, error) {
	v, err := p.buf.ReadUint32()
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// ReadChar reads one slot and returns its low 16 bits.
func (p *Parcel) ReadChar() (uint16, error) {
	v, err := p.buf.ReadUint32()
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// ReadInt32 reads one slot.
func (p *Parcel) ReadInt32() (int32, error) {
	v, err := p.buf.ReadUint32()
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// ReadUint32 reads one slot.
func (p *Parcel) ReadUint32() (uint32, error) {
	return p.buf.ReadUint32()
}

// ReadInt64 reads two slots.
func (p *Parcel) ReadInt64() (int64, error) {
	v, err := p.buf.ReadUint64()
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// ReadUint64 reads two slots.
func (p *Parcel) ReadUint64() (uint64, error) {
	return p.buf.ReadUint64()
}

// ReadFloat32 reads one slot.
func (p *Parcel) ReadFloat32() (float32, error) {
	return p.buf.ReadFloat32()
}

// ReadFloat64 reads two slots.
func (p *Parcel) ReadFloat64() (float64, error) {
	return p.buf.ReadFloat64()
}

// readPayload reads n bytes plus their alignment padding. The returned slice
// aliases buffer memory and excludes the padding.
func (p *Parcel) readPayload(n int32) ([]byte, error) {
	raw, err := p.buf.ReadRaw(common.Pad4(n))
	if err != nil {
		return nil, err
	}
	return raw[:n], nil
}

// ReadString reads a required string. A null sentinel yields
// ErrUnexpectedNull.
func (p *Parcel) ReadString() (string, error) {
	s, err := p.ReadNullableString()
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", ErrUnexpectedNull
	}
	return *s, nil
}

// ReadNullableString reads a string, or nil for the null sentinel. A zero
// length header yields a present empty string.
func (p *Parcel) ReadNullableString() (*string, error) {
	n, err := p.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	raw, err := p.readPayload(n)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}

// ReadByteSlice reads a required byte payload. A null sentinel yields
// ErrUnexpectedNull. The returned slice is a copy and safe to retain.
func (p *Parcel) ReadByteSlice() ([]byte, error) {
	b, err := p.ReadNullableByteSlice()
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrUnexpectedNull
	}
	return b, nil
}

// ReadNullableByteSlice reads a byte payload, or nil for the null sentinel.
// An empty payload yields a present zero-length slice.
func (p *Parcel) ReadNullableByteSlice() ([]byte, error) {
	n, err := p.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	raw, err := p.readPayload(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, raw)
	return out, nil
}

// remaining returns the number of unread bytes past the cursor.
func (p *Parcel) remaining() int32 {
	return p.Size() - p.Position()
}

// readSlice reads a count header and decodes that many elements. Every
// element occupies at least one slot, so the count is validated against the
// remaining bytes before anything is allocated. A negative header yields a
// nil slice without error.
func readSlice[T any](p *Parcel, elem func(*Parcel) (T, error)) ([]T, error) {
	n, err := p.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	if int64(n)*4 > int64(p.remaining()) {
		return nil, ErrNotEnoughData
	}
	out := make([]T, 0, n)
	for i := int32(0); i < n; i++ {
		v, err := elem(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// requiredSlice maps an absent sequence to ErrUnexpectedNull.
func requiredSlice[T any](s []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrUnexpectedNull
	}
	return s, nil
}

// ReadBoolSlice reads a required bool sequence.
func (p *Parcel) ReadBoolSlice() ([]bool, error) {
	return requiredSlice(p.ReadNullableBoolSlice())
}

// ReadNullableBoolSlice reads a bool sequence, or nil for the null sentinel.
func (p *Parcel) ReadNullableBoolSlice() ([]bool, error) {
	return readSlice(p, (*Parcel).ReadBool)
}

// ReadInt8Slice reads a required int8 sequence. Each element occupies a full
// slot on the wire, unlike a byte payload.
func (p *Parcel) ReadInt8Slice() ([]int8, error) {
	return requiredSlice(p.ReadNullableInt8Slice())
}

// ReadNullableInt8Slice reads an int8 sequence, or nil for the null sentinel.
func (p *Parcel) ReadNullableInt8Slice() ([]int8, error) {
	return readSlice(p, (*Parcel).ReadInt8)
}

// ReadCharSlice reads a required 16-bit character sequence.
func (p *Parcel) ReadCharSlice() ([]uint16, error) {
	return requiredSlice(p.ReadNullableCharSlice())
}

// ReadNullableCharSlice reads a character sequence, or nil for the null
// sentinel.
func (p *Parcel) ReadNullableCharSlice() ([]uint16, error) {
	return readSlice(p, (*Parcel).ReadChar)
}

// ReadInt32Slice reads a required int32 sequence.
func (p *Parcel) ReadInt32Slice() ([]int32, error) {
	return requiredSlice(p.ReadNullableInt32Slice())
}

// ReadNullableInt32Slice reads an int32 sequence, or nil for the null
// sentinel.
func (p *Parcel) ReadNullableInt32Slice() ([]int32, error) {
	return readSlice(p, (*Parcel).ReadInt32)
}

// ReadUint32Slice reads a required uint32 sequence.
func (p *Parcel) ReadUint32Slice() ([]uint32, error) {
	return requiredSlice(p.ReadNullableUint32Slice())
}

// ReadNullableUint32Slice reads a uint32 sequence, or nil for the null
// sentinel.
func (p *Parcel) ReadNullableUint32Slice() ([]uint32, error) {
	return readSlice(p, (*Parcel).ReadUint32)
}

// ReadInt64Slice reads a required int64 sequence.
func (p *Parcel) ReadInt64Slice() ([]int64, error) {
	return requiredSlice(p.ReadNullableInt64Slice())
}

// ReadNullableInt64Slice reads an int64 sequence, or nil for the null
// sentinel.
func (p *Parcel) ReadNullableInt64Slice() ([]int64, error) {
	return readSlice(p, (*Parcel).ReadInt64)
}

// ReadUint64Slice reads a required uint64 sequence.
func (p *Parcel) ReadUint64Slice() ([]uint64, error) {
	return requiredSlice(p.ReadNullableUint64Slice())
}

// ReadNullableUint64Slice reads a uint64 sequence, or nil for the null
// sentinel.
func (p *Parcel) ReadNullableUint64Slice() ([]uint64, error) {
	return readSlice(p, (*Parcel).ReadUint64)
}

// ReadFloat32Slice reads a required float32 sequence.
func (p *Parcel) ReadFloat32Slice() ([]float32, error) {
	return requiredSlice(p.ReadNullableFloat32Slice())
}

// ReadNullableFloat32Slice reads a float32 sequence, or nil for the null
// sentinel.
func (p *Parcel) ReadNullableFloat32Slice() ([]float32, error) {
	return readSlice(p, (*Parcel).ReadFloat32)
}

// ReadFloat64Slice reads a required float64 sequence.
func (p *Parcel) ReadFloat64Slice() ([]float64, error) {
	return requiredSlice(p.ReadNullableFloat64Slice())
}

// ReadNullableFloat64Slice reads a float64 sequence, or nil for the null
// sentinel.
func (p *Parcel) ReadNullableFloat64Slice() ([]float64, error) {
	return readSlice(p, (*Parcel).ReadFloat64)
}

// ReadStringSlice reads a required string sequence.
func (p *Parcel) ReadStringSlice() ([]string, error) {
	return requiredSlice(p.ReadNullableStringSlice())
}

// ReadNullableStringSlice reads a string sequence, or nil for the null
// sentinel.
func (p *Parcel) ReadNullableStringSlice() ([]string, error) {
	return readSlice(p, (*Parcel).ReadString)
}

// ResizeOutSlice reads a count header and sizes the caller's output slice
// for that many elements, as the receiving side of an output array argument.
// A null sentinel is an error here: the argument was required.
func ResizeOutSlice[T any](p *Parcel, out *[]T) error {
	n, err := p.ReadInt32()
	if err != nil {
		return err
	}
	if n < 0 {
		return ErrUnexpectedNull
	}
	if int64(n) > int64(p.Size()) {
		return ErrBadValue
	}
	*out = make([]T, n)
	return nil
}

// ResizeNullableOutSlice reads a count header and either sizes the output
// slice or sets it to nil for the null sentinel.
func ResizeNullableOutSlice[T any](p *Parcel, out *[]T) error {
	n, err := p.ReadInt32()
	if err != nil {
		return err
	}
	if n < 0 {
		*out = nil
		return nil
	}
	if int64(n) > int64(p.Size()) {
		return ErrBadValue
	}
	*out = make([]T, n)
	return nil
}
