package parcel

import (
	"reflect"
	"sync"

	"github.com/rawbytedev/parcel/internal/common"
)

// Parcelable presence headers. A null parcelable is a bare zero slot; a
// present one is a one slot followed by a sized block.
const (
	nullParcelable    int32 = 0
	nonNullParcelable int32 = 1
)

type fieldInfo struct {
	idx  int
	kind reflect.Kind
}

type fieldPlan struct {
	fields []fieldInfo
}

// Codec encodes flat structs into parcels and back without generated code.
// Exported fields are written in declaration order inside a sized block, so
// a reader built against an older version of the struct skips the trailing
// fields it does not know, and a newer reader leaves its extra fields at
// their zero values when the block runs out.
//
// Field plans are computed once per type and cached; a Codec is safe for
// concurrent use.
type Codec struct {
	mu   sync.RWMutex
	plan map[reflect.Type]*fieldPlan
}

// NewCodec returns an empty Codec.
func NewCodec() *Codec {
	return &Codec{plan: make(map[reflect.Type]*fieldPlan)}
}

func supportedField(t reflect.Type) bool {
	k := t.Kind()
	switch {
	case common.IsFixedKind(k), k == reflect.String:
		return true
	case k == reflect.Slice:
		ek := t.Elem().Kind()
		return common.IsFixedKind(ek) || ek == reflect.String
	default:
		return false
	}
}

func (c *Codec) getPlan(t reflect.Type) (*fieldPlan, error) {
	c.mu.RLock()
	if pl, ok := c.plan[t]; ok {
		c.mu.RUnlock()
		return pl, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check
	if pl, ok := c.plan[t]; ok {
		return pl, nil
	}

	pl := &fieldPlan{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" && !sf.Anonymous {
			continue // skip unexported
		}
		if !supportedField(sf.Type) {
			return nil, ErrUnsupported
		}
		pl.fields = append(pl.fields, fieldInfo{idx: i, kind: sf.Type.Kind()})
	}
	c.plan[t] = pl
	return pl, nil
}

// Encode writes val into p as a nullable parcelable: a presence slot, then a
// sized block holding the exported fields in declaration order. A nil val or
// nil struct pointer writes only the null header.
func (c *Codec) Encode(p *Parcel, val any) error {
	if val == nil {
		return p.WriteInt32(nullParcelable)
	}
	v := reflect.ValueOf(val)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return p.WriteInt32(nullParcelable)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return ErrNotStruct
	}
	pl, err := c.getPlan(v.Type())
	if err != nil {
		return err
	}
	if err := p.WriteInt32(nonNullParcelable); err != nil {
		return err
	}
	return p.SizedWrite(func(sub *WritableSubParcel) error {
		for _, f := range pl.fields {
			if err := writeField(sub, v.Field(f.idx)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Decode reads a required parcelable from p into out, which must be a
// pointer to a struct. A null header yields ErrUnexpectedNull.
func (c *Codec) Decode(p *Parcel, out any) error {
	found, err := c.DecodeNullable(p, out)
	if err != nil {
		return err
	}
	if !found {
		return ErrUnexpectedNull
	}
	return nil
}

// DecodeNullable reads a parcelable from p into out, reporting whether one
// was present. out is untouched when the header is null.
func (c *Codec) DecodeNullable(p *Parcel, out any) (bool, error) {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return false, ErrNotStructPtr
	}
	dst := v.Elem()
	pl, err := c.getPlan(dst.Type())
	if err != nil {
		return false, err
	}
	hdr, err := p.ReadInt32()
	if err != nil {
		return false, err
	}
	if hdr == nullParcelable {
		return false, nil
	}
	err = p.SizedRead(func(sub *ReadableSubParcel) error {
		for _, f := range pl.fields {
			if !sub.HasMoreData() {
				// older writer: remaining fields keep their values
				return nil
			}
			if err := readField(sub, dst.Field(f.idx)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func writeField(sub *WritableSubParcel, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Bool:
		return sub.WriteBool(v.Bool())
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return sub.WriteInt32(int32(v.Int()))
	case reflect.Int64:
		return sub.WriteInt64(v.Int())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return sub.WriteUint32(uint32(v.Uint()))
	case reflect.Uint64:
		return sub.WriteUint64(v.Uint())
	case reflect.Float32:
		return sub.WriteFloat32(float32(v.Float()))
	case reflect.Float64:
		return sub.WriteFloat64(v.Float())
	case reflect.String:
		return sub.WriteString(v.String())
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return sub.WriteByteSlice(v.Bytes())
		}
		if v.IsNil() {
			return sub.WriteInt32(-1)
		}
		n := v.Len()
		if err := sub.WriteInt32(int32(n)); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := writeField(sub, v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	default:
		return ErrUnsupported
	}
}

func readField(sub *ReadableSubParcel, fv reflect.Value) error {
	switch fv.Kind() {
	case reflect.Bool:
		v, err := sub.ReadBool()
		if err != nil {
			return err
		}
		fv.SetBool(v)
	case reflect.Int8:
		v, err := sub.ReadInt32()
		if err != nil {
			return err
		}
		fv.SetInt(int64(int8(v)))
	case reflect.Int16:
		v, err := sub.ReadInt32()
		if err != nil {
			return err
		}
		fv.SetInt(int64(int16(v)))
	case reflect.Int32:
		v, err := sub.ReadInt32()
		if err != nil {
			return err
		}
		fv.SetInt(int64(v))
	case reflect.Int64:
		v, err := sub.ReadInt64()
		if err != nil {
			return err
		}
		fv.SetInt(v)
	case reflect.Uint8:
		v, err := sub.ReadUint32()
		if err != nil {
			return err
		}
		fv.SetUint(uint64(uint8(v)))
	case reflect.Uint16:
		v, err := sub.ReadUint32()
		if err != nil {
			return err
		}
		fv.SetUint(uint64(uint16(v)))
	case reflect.Uint32:
		v, err := sub.ReadUint32()
		if err != nil {
			return err
		}
		fv.SetUint(uint64(v))
	case reflect.Uint64:
		v, err := sub.ReadUint64()
		if err != nil {
			return err
		}
		fv.SetUint(v)
	case reflect.Float32:
		v, err := sub.ReadFloat32()
		if err != nil {
			return err
		}
		fv.SetFloat(float64(v))
	case reflect.Float64:
		v, err := sub.ReadFloat64()
		if err != nil {
			return err
		}
		fv.SetFloat(v)
	case reflect.String:
		v, err := sub.ReadString()
		if err != nil {
			return err
		}
		fv.SetString(v)
	case reflect.Slice:
		if fv.Type().Elem().Kind() == reflect.Uint8 {
			v, err := sub.ReadNullableByteSlice()
			if err != nil {
				return err
			}
			fv.SetBytes(v)
			return nil
		}
		n, err := sub.ReadInt32()
		if err != nil {
			return err
		}
		if n < 0 {
			fv.SetZero()
			return nil
		}
		sz := common.SlotSize(fv.Type().Elem().Kind())
		if sz < 0 {
			sz = 4 // strings consume at least a length slot
		}
		if int64(n)*int64(sz) > int64(sub.p.remaining()) {
			return ErrNotEnoughData
		}
		slice := reflect.MakeSlice(fv.Type(), int(n), int(n))
		for i := 0; i < int(n); i++ {
			if err := readField(sub, slice.Index(i)); err != nil {
				return err
			}
		}
		fv.Set(slice)
	default:
		return ErrUnsupported
	}
	return nil
}

var defaultCodec = NewCodec()

// WriteParcelable writes val through the package-level codec.
func (p *Parcel) WriteParcelable(val any) error {
	return defaultCodec.Encode(p, val)
}

// ReadParcelable reads a required parcelable into out through the
// package-level codec.
func (p *Parcel) ReadParcelable(out any) error {
	return defaultCodec.Decode(p, out)
}

// ReadNullableParcelable reads a parcelable into out through the
// package-level codec, reporting presence.
func (p *Parcel) ReadNullableParcelable(out any) (bool, error) {
	return defaultCodec.DecodeNullable(p, out)
}
