package parcel

import (
	"math"

	"github.com/rawbytedev/parcel/internal/common"
)

// Writable is implemented by values that can append their encoding to a
// parcel at the current cursor.
type Writable interface {
	WriteToParcel(p *Parcel) error
}

// Write appends w's encoding at the current cursor, advancing it.
func (p *Parcel) Write(w Writable) error {
	return w.WriteToParcel(p)
}

// WriteBool writes v as one 4-byte slot (1 or 0).
func (p *Parcel) WriteBool(v bool) error {
	if v {
		return p.buf.WriteUint32(1)
	}
	return p.buf.WriteUint32(0)
}

// WriteInt8 writes v widened to one slot.
func (p *Parcel) WriteInt8(v int8) error {
	return p.buf.WriteUint32(uint32(uint8(v)))
}

// WriteUint8 writes v widened to one slot.
func (p *Parcel) WriteUint8(v uint8) error {
	return p.buf.WriteUint32(uint32(v))
}

// WriteChar writes a 16-bit character widened to one slot.
func (p *Parcel) WriteChar(v uint16) error {
	return p.buf.WriteUint32(uint32(v))
}

// WriteInt32 writes v as one slot.
func (p *Parcel) WriteInt32(v int32) error {
	return p.buf.WriteUint32(uint32(v))
}

// WriteUint32 writes v as one slot.
func (p *Parcel) WriteUint32(v uint32) error {
	return p.buf.WriteUint32(v)
}

// WriteInt64 writes v as two slots.
func (p *Parcel) WriteInt64(v int64) error {
	return p.buf.WriteUint64(uint64(v))
}

// WriteUint64 writes v as two slots.
func (p *Parcel) WriteUint64(v uint64) error {
	return p.buf.WriteUint64(v)
}

// WriteFloat32 writes v as one slot.
func (p *Parcel) WriteFloat32(v float32) error {
	return p.buf.WriteFloat32(v)
}

// WriteFloat64 writes v as two slots.
func (p *Parcel) WriteFloat64(v float64) error {
	return p.buf.WriteFloat64(v)
}

// writePayload writes raw bytes followed by zero padding up to the next
// 4-byte boundary, keeping subsequent slots aligned.
func (p *Parcel) writePayload(b []byte) error {
	if err := p.buf.WriteRaw(b); err != nil {
		return err
	}
	n := int32(len(b))
	if pad := common.Pad4(n) - n; pad > 0 {
		var zeros [4]byte
		return p.buf.WriteRaw(zeros[:pad])
	}
	return nil
}

// WriteString writes s as a signed length header followed by the UTF-8 bytes
// padded to a slot boundary. An empty string writes a zero header, distinct
// from the null sentinel.
func (p *Parcel) WriteString(s string) error {
	if len(s) > math.MaxInt32 {
		return ErrBadValue
	}
	if err := p.WriteInt32(int32(len(s))); err != nil {
		return err
	}
	return p.writePayload([]byte(s))
}

// WriteNullableString writes s, or the -1 null sentinel when s is nil.
func (p *Parcel) WriteNullableString(s *string) error {
	if s == nil {
		return p.WriteInt32(-1)
	}
	return p.WriteString(*s)
}

// WriteByteSlice writes b as a signed length header followed by the raw
// bytes padded to a slot boundary. A nil slice writes the -1 null sentinel;
// an empty one writes a zero header.
func (p *Parcel) WriteByteSlice(b []byte) error {
	if b == nil {
		return p.WriteInt32(-1)
	}
	if len(b) > math.MaxInt32 {
		return ErrBadValue
	}
	if err := p.WriteInt32(int32(len(b))); err != nil {
		return err
	}
	return p.writePayload(b)
}

// writeSlice writes the signed count header for s, then each element through
// elem. A nil slice writes only the -1 null sentinel.
func writeSlice[T any](p *Parcel, s []T, elem func(*Parcel, T) error) error {
	if s == nil {
		return p.WriteInt32(-1)
	}
	if len(s) > math.MaxInt32 {
		return ErrBadValue
	}
	if err := p.WriteInt32(int32(len(s))); err != nil {
		return err
	}
	for _, v := range s {
		if err := elem(p, v); err != nil {
			return err
		}
	}
	return nil
}

// WriteBoolSlice writes a count header followed by one slot per element.
func (p *Parcel) WriteBoolSlice(s []bool) error {
	return writeSlice(p, s, (*Parcel).WriteBool)
}

// WriteInt8Slice writes a count header followed by one slot per element.
func (p *Parcel) WriteInt8Slice(s []int8) error {
	return writeSlice(p, s, (*Parcel).WriteInt8)
}

// WriteCharSlice writes a count header followed by one slot per element.
func (p *Parcel) WriteCharSlice(s []uint16) error {
	return writeSlice(p, s, (*Parcel).WriteChar)
}

// WriteInt32Slice writes a count header followed by one slot per element.
func (p *Parcel) WriteInt32Slice(s []int32) error {
	return writeSlice(p, s, (*Parcel).WriteInt32)
}

// WriteUint32Slice writes a count header followed by one slot per element.
func (p *Parcel) WriteUint32Slice(s []uint32) error {
	return writeSlice(p, s, (*Parcel).WriteUint32)
}

// WriteInt64Slice writes a count header followed by two slots per element.
func (p *Parcel) WriteInt64Slice(s []int64) error {
	return writeSlice(p, s, (*Parcel).WriteInt64)
}

// WriteUint64Slice writes a count header followed by two slots per element.
func (p *Parcel) WriteUint64Slice(s []uint64) error {
	return writeSlice(p, s, (*Parcel).WriteUint64)
}

// WriteFloat32Slice writes a count header followed by one slot per element.
func (p *Parcel) WriteFloat32Slice(s []float32) error {
	return writeSlice(p, s, (*Parcel).WriteFloat32)
}

// WriteFloat64Slice writes a count header followed by two slots per element.
func (p *Parcel) WriteFloat64Slice(s []float64) error {
	return writeSlice(p, s, (*Parcel).WriteFloat64)
}

// WriteStringSlice writes a count header followed by the length-prefixed
// elements.
func (p *Parcel) WriteStringSlice(s []string) error {
	return writeSlice(p, s, (*Parcel).WriteString)
}

// WriteSliceSize writes only the signed count header for s, reserving room
// for an output array argument on the far side. A nil slice writes the null
// sentinel.
func WriteSliceSize[T any](p *Parcel, s []T) error {
	if s == nil {
		return p.WriteInt32(-1)
	}
	if len(s) > math.MaxInt32 {
		return ErrBadValue
	}
	return p.WriteInt32(int32(len(s)))
}
