package parcel

import "math"

// WritableSubParcel scopes the write capability handed to a SizedWrite body.
// Its writes land in the enclosing parcel's buffer at the shared cursor;
// there is no separate storage.
type WritableSubParcel struct {
	p *Parcel
}

// Write appends w's encoding to the enclosing parcel.
func (s *WritableSubParcel) Write(w Writable) error { return s.p.Write(w) }

// WriteBool writes v as one slot.
func (s *WritableSubParcel) WriteBool(v bool) error { return s.p.WriteBool(v) }

// WriteInt8 writes v widened to one slot.
func (s *WritableSubParcel) WriteInt8(v int8) error { return s.p.WriteInt8(v) }

// WriteUint8 writes v widened to one slot.
func (s *WritableSubParcel) WriteUint8(v uint8) error { return s.p.WriteUint8(v) }

// WriteChar writes a 16-bit character widened to one slot.
func (s *WritableSubParcel) WriteChar(v uint16) error { return s.p.WriteChar(v) }

// WriteInt32 writes v as one slot.
func (s *WritableSubParcel) WriteInt32(v int32) error { return s.p.WriteInt32(v) }

// WriteUint32 writes v as one slot.
func (s *WritableSubParcel) WriteUint32(v uint32) error { return s.p.WriteUint32(v) }

// WriteInt64 writes v as two slots.
func (s *WritableSubParcel) WriteInt64(v int64) error { return s.p.WriteInt64(v) }

// WriteUint64 writes v as two slots.
func (s *WritableSubParcel) WriteUint64(v uint64) error { return s.p.WriteUint64(v) }

// WriteFloat32 writes v as one slot.
func (s *WritableSubParcel) WriteFloat32(v float32) error { return s.p.WriteFloat32(v) }

// WriteFloat64 writes v as two slots.
func (s *WritableSubParcel) WriteFloat64(v float64) error { return s.p.WriteFloat64(v) }

// WriteString writes a length-prefixed string.
func (s *WritableSubParcel) WriteString(v string) error { return s.p.WriteString(v) }

// WriteNullableString writes a string or the null sentinel.
func (s *WritableSubParcel) WriteNullableString(v *string) error {
	return s.p.WriteNullableString(v)
}

// WriteByteSlice writes a length-prefixed byte payload.
func (s *WritableSubParcel) WriteByteSlice(v []byte) error { return s.p.WriteByteSlice(v) }

// WriteInt32Slice writes a count-prefixed int32 sequence.
func (s *WritableSubParcel) WriteInt32Slice(v []int32) error { return s.p.WriteInt32Slice(v) }

// WriteInt64Slice writes a count-prefixed int64 sequence.
func (s *WritableSubParcel) WriteInt64Slice(v []int64) error { return s.p.WriteInt64Slice(v) }

// WriteStringSlice writes a count-prefixed string sequence.
func (s *WritableSubParcel) WriteStringSlice(v []string) error { return s.p.WriteStringSlice(v) }

// WriteObject writes a nullable object reference.
func (s *WritableSubParcel) WriteObject(obj any) error { return s.p.WriteObject(obj) }

// SizedWrite performs a series of writes prepended with their length in
// bytes. A zero length slot is written first, the body runs against a
// write-scoped sub-parcel, then the slot is patched to the total size of the
// block including the length slot itself. Receivers that do not understand
// the contents can read the length and skip the block whole, which is what
// makes additive schema evolution possible.
//
// A body error propagates without the patch-back; the block is then
// malformed and the caller should abandon the parcel.
func (p *Parcel) SizedWrite(fn func(sub *WritableSubParcel) error) error {
	start := p.Position()
	if err := p.WriteInt32(0); err != nil {
		return err
	}
	if err := fn(&WritableSubParcel{p: p}); err != nil {
		return err
	}
	end := p.Position()
	if err := p.SetPosition(start); err != nil {
		return err
	}
	if err := p.WriteInt32(end - start); err != nil {
		return err
	}
	return p.SetPosition(end)
}

// ReadableSubParcel bounds the reads of a SizedRead body to the declared end
// of the block. The body is expected to call HasMoreData before each
// conditional read so that a shorter block written by an older schema does
// not fail on exhausted data.
type ReadableSubParcel struct {
	p   *Parcel
	end int32
}

// HasMoreData reports whether the cursor is still below the block's declared
// end.
func (s *ReadableSubParcel) HasMoreData() bool {
	return s.p.Position() < s.end
}

func (s *ReadableSubParcel) guard() error {
	if !s.HasMoreData() {
		return ErrNotEnoughData
	}
	return nil
}

// Read decodes r from the block.
func (s *ReadableSubParcel) Read(r Readable) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.p.Read(r)
}

// ReadBool reads one slot from the block.
func (s *ReadableSubParcel) ReadBool() (bool, error) {
	if err := s.guard(); err != nil {
		return false, err
	}
	return s.p.ReadBool()
}

// ReadInt8 reads one slot from the block, returning its low byte.
func (s *ReadableSubParcel) ReadInt8() (int8, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	return s.p.ReadInt8()
}

// ReadUint8 reads one slot from the block, returning its low byte.
func (s *ReadableSubParcel) ReadUint8() (uint8, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	return s.p.ReadUint8()
}

// ReadChar reads one slot from the block, returning its low 16 bits.
func (s *ReadableSubParcel) ReadChar() (uint16, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	return s.p.ReadChar()
}

// ReadInt32 reads one slot from the block.
func (s *ReadableSubParcel) ReadInt32() (int32, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	return s.p.ReadInt32()
}

// ReadUint32 reads one slot from the block.
func (s *ReadableSubParcel) ReadUint32() (uint32, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	return s.p.ReadUint32()
}

// ReadInt64 reads two slots from the block.
func (s *ReadableSubParcel) ReadInt64() (int64, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	return s.p.ReadInt64()
}

// ReadUint64 reads two slots from the block.
func (s *ReadableSubParcel) ReadUint64() (uint64, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	return s.p.ReadUint64()
}

// ReadFloat32 reads one slot from the block.
func (s *ReadableSubParcel) ReadFloat32() (float32, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	return s.p.ReadFloat32()
}

// ReadFloat64 reads two slots from the block.
func (s *ReadableSubParcel) ReadFloat64() (float64, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	return s.p.ReadFloat64()
}

// ReadString reads a required string from the block.
func (s *ReadableSubParcel) ReadString() (string, error) {
	if err := s.guard(); err != nil {
		return "", err
	}
	return s.p.ReadString()
}

// ReadNullableString reads a string or nil from the block.
func (s *ReadableSubParcel) ReadNullableString() (*string, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.p.ReadNullableString()
}

// ReadByteSlice reads a required byte payload from the block.
func (s *ReadableSubParcel) ReadByteSlice() ([]byte, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.p.ReadByteSlice()
}

// ReadNullableByteSlice reads a byte payload or nil from the block.
func (s *ReadableSubParcel) ReadNullableByteSlice() ([]byte, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.p.ReadNullableByteSlice()
}

// ReadInt32Slice reads a required int32 sequence from the block.
func (s *ReadableSubParcel) ReadInt32Slice() ([]int32, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.p.ReadInt32Slice()
}

// ReadInt64Slice reads a required int64 sequence from the block.
func (s *ReadableSubParcel) ReadInt64Slice() ([]int64, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.p.ReadInt64Slice()
}

// ReadStringSlice reads a required string sequence from the block.
func (s *ReadableSubParcel) ReadStringSlice() ([]string, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.p.ReadStringSlice()
}

// ReadObject reads a nullable object reference from the block.
func (s *ReadableSubParcel) ReadObject() (any, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.p.ReadObject()
}

// SizedRead reads a length-prefixed block. The declared size is validated
// (negative sizes and overflowing or out-of-range ends are rejected), the
// body runs against a sub-parcel bounded to the block's end, and on success
// the cursor is forced to that end no matter how much the body consumed, so
// trailing fields from a newer schema are silently skipped. On a body error
// the cursor is left wherever the failure occurred.
func (p *Parcel) SizedRead(fn func(sub *ReadableSubParcel) error) error {
	start := p.Position()
	size, err := p.ReadInt32()
	if err != nil {
		return err
	}
	if size < 0 {
		return ErrBadValue
	}
	end := int64(start) + int64(size)
	if end > math.MaxInt32 {
		return ErrBadValue
	}
	if int32(end) > p.Size() {
		return ErrNotEnoughData
	}
	if err := fn(&ReadableSubParcel{p: p, end: int32(end)}); err != nil {
		return err
	}
	return p.SetPosition(int32(end))
}
