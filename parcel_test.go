package parcel

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBinder struct {
	refs int
}

func (f *fakeBinder) IncRef() { f.refs++ }
func (f *fakeBinder) DecRef() { f.refs-- }

// connMeta encodes itself field by field, the way a generated stub would.
type connMeta struct {
	ID    int32
	Flags uint32
	Addr  string
}

func (m *connMeta) WriteToParcel(p *Parcel) error {
	if err := p.WriteInt32(m.ID); err != nil {
		return err
	}
	if err := p.WriteUint32(m.Flags); err != nil {
		return err
	}
	return p.WriteString(m.Addr)
}

func (m *connMeta) ReadFromParcel(p *Parcel) error {
	id, err := p.ReadInt32()
	if err != nil {
		return err
	}
	flags, err := p.ReadUint32()
	if err != nil {
		return err
	}
	addr, err := p.ReadString()
	if err != nil {
		return err
	}
	m.ID, m.Flags, m.Addr = id, flags, addr
	return nil
}

func TestWritableReadableDispatch(t *testing.T) {
	p := New()
	defer p.Free()
	in := &connMeta{ID: 3, Flags: 1 << 9, Addr: "node-7"}
	require.NoError(t, p.Write(in))

	require.NoError(t, p.SetPosition(0))
	out := &connMeta{}
	require.NoError(t, p.Read(out))
	assert.Equal(t, in, out)
}

func TestReadToOverwritesExisting(t *testing.T) {
	p := New()
	defer p.Free()
	in := &connMeta{ID: 8, Flags: 2, Addr: "node-1"}
	require.NoError(t, p.Write(in))

	require.NoError(t, p.SetPosition(0))
	existing := &connMeta{ID: 99, Flags: 99, Addr: "stale"}
	require.NoError(t, p.ReadTo(existing))
	assert.Equal(t, in, existing)

	// a failed decode leaves the target untouched
	short := New()
	defer short.Free()
	require.NoError(t, short.WriteInt32(1))
	require.NoError(t, short.SetPosition(0))
	keep := &connMeta{ID: 5, Flags: 6, Addr: "kept"}
	require.ErrorIs(t, short.ReadTo(keep), ErrNotEnoughData)
	assert.Equal(t, &connMeta{ID: 5, Flags: 6, Addr: "kept"}, keep)
}

func TestReadWrite(t *testing.T) {
	p := New()
	defer p.Free()
	start := p.Position()

	_, err := p.ReadBool()
	require.ErrorIs(t, err, ErrNotEnoughData)
	_, err = p.ReadInt8()
	require.ErrorIs(t, err, ErrNotEnoughData)
	_, err = p.ReadChar()
	require.ErrorIs(t, err, ErrNotEnoughData)
	_, err = p.ReadInt32()
	require.ErrorIs(t, err, ErrNotEnoughData)
	_, err = p.ReadUint32()
	require.ErrorIs(t, err, ErrNotEnoughData)
	_, err = p.ReadInt64()
	require.ErrorIs(t, err, ErrNotEnoughData)
	_, err = p.ReadUint64()
	require.ErrorIs(t, err, ErrNotEnoughData)
	_, err = p.ReadFloat32()
	require.ErrorIs(t, err, ErrNotEnoughData)
	_, err = p.ReadFloat64()
	require.ErrorIs(t, err, ErrNotEnoughData)
	_, err = p.ReadString()
	require.ErrorIs(t, err, ErrNotEnoughData)

	_, err = p.ReadObject()
	require.ErrorIs(t, err, ErrBadType)

	require.NoError(t, p.WriteInt32(1))
	require.NoError(t, p.SetPosition(start))

	i, err := p.ReadInt32()
	require.NoError(t, err)
	assert.EqualValues(t, 1, i)
}

func TestReadData(t *testing.T) {
	p := New()
	defer p.Free()

	require.NoError(t, p.WriteByteSlice([]byte("Hello, Binder!\x00")))
	// 4-byte length header plus 15 payload bytes padded to 16
	require.EqualValues(t, 20, p.Size())

	require.NoError(t, p.SetPosition(0))
	n, err := p.ReadInt32()
	require.NoError(t, err)
	require.EqualValues(t, 15, n)
	start := p.Position()

	b, err := p.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)

	require.NoError(t, p.SetPosition(start))
	i8, err := p.ReadInt8()
	require.NoError(t, err)
	assert.EqualValues(t, 72, i8)

	require.NoError(t, p.SetPosition(start))
	c, err := p.ReadChar()
	require.NoError(t, err)
	assert.EqualValues(t, 25928, c)

	require.NoError(t, p.SetPosition(start))
	i32, err := p.ReadInt32()
	require.NoError(t, err)
	assert.EqualValues(t, 1819043144, i32)

	require.NoError(t, p.SetPosition(start))
	u32, err := p.ReadUint32()
	require.NoError(t, err)
	assert.EqualValues(t, 1819043144, u32)

	require.NoError(t, p.SetPosition(start))
	i64, err := p.ReadInt64()
	require.NoError(t, err)
	assert.EqualValues(t, 4764857262830019912, i64)

	require.NoError(t, p.SetPosition(start))
	u64, err := p.ReadUint64()
	require.NoError(t, err)
	assert.EqualValues(t, uint64(4764857262830019912), u64)

	require.NoError(t, p.SetPosition(start))
	f32, err := p.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(1143139100000000000000000000.0), f32)
	f32, err = p.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(40.043392), f32)

	require.NoError(t, p.SetPosition(start))
	f64, err := p.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, 34732488246.197815, f64)

	require.NoError(t, p.SetPosition(0))
	raw, err := p.ReadByteSlice()
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello, Binder!\x00"), raw)
}

func TestStringRoundTrip(t *testing.T) {
	p := New()
	defer p.Free()
	start := p.Position()

	require.NoError(t, p.WriteString("Hello, Binder!"))
	require.NoError(t, p.SetPosition(start))
	s, err := p.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "Hello, Binder!", s)

	require.NoError(t, p.SetPosition(start))
	require.NoError(t, p.WriteString("Embedded null \x00 inside a string"))
	require.NoError(t, p.SetPosition(start))
	s, err = p.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "Embedded null \x00 inside a string", s)
}

func TestNullableString(t *testing.T) {
	p := New()
	defer p.Free()

	require.NoError(t, p.WriteNullableString(nil))
	require.NoError(t, p.WriteString(""))
	hello := "hello"
	require.NoError(t, p.WriteNullableString(&hello))

	require.NoError(t, p.SetPosition(0))
	s, err := p.ReadNullableString()
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = p.ReadNullableString()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "", *s)

	s, err = p.ReadNullableString()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "hello", *s)

	// a required read of the null sentinel is an error
	require.NoError(t, p.SetPosition(0))
	_, err = p.ReadString()
	require.ErrorIs(t, err, ErrUnexpectedNull)
}

func TestStringSlices(t *testing.T) {
	p := New()
	defer p.Free()
	start := p.Position()

	require.NoError(t, p.WriteStringSlice([]string{"str1", "str2", "str3"}))
	require.NoError(t, p.WriteStringSlice([]string{"str4", "str5", "str6"}))

	s1 := "Hello, Binder!"
	s2 := "This is a utf8 string."
	s3 := "Some more text here."
	require.NoError(t, p.WriteStringSlice([]string{s1, s2, s3}))

	require.NoError(t, p.SetPosition(start))
	got, err := p.ReadStringSlice()
	require.NoError(t, err)
	assert.Equal(t, []string{"str1", "str2", "str3"}, got)
	got, err = p.ReadStringSlice()
	require.NoError(t, err)
	assert.Equal(t, []string{"str4", "str5", "str6"}, got)
	got, err = p.ReadStringSlice()
	require.NoError(t, err)
	assert.Equal(t, []string{s1, s2, s3}, got)
}

func TestAppendFrom(t *testing.T) {
	p1 := New()
	defer p1.Free()
	require.NoError(t, p1.WriteInt32(42))

	p2 := New()
	require.NoError(t, p2.AppendAllFrom(p1))
	require.EqualValues(t, 4, p2.Size())
	require.NoError(t, p2.AppendAllFrom(p1))
	require.EqualValues(t, 8, p2.Size())
	require.NoError(t, p2.SetPosition(0))
	v, err := p2.ReadInt32()
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)
	v, err = p2.ReadInt32()
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)
	p2.Free()

	p2 = New()
	require.NoError(t, p2.AppendFrom(p1, 0, 2))
	require.NoError(t, p2.AppendFrom(p1, 2, 2))
	require.EqualValues(t, 4, p2.Size())
	require.NoError(t, p2.SetPosition(0))
	v, err = p2.ReadInt32()
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)
	p2.Free()

	p2 = New()
	require.NoError(t, p2.AppendFrom(p1, 0, 2))
	require.EqualValues(t, 2, p2.Size())
	require.NoError(t, p2.SetPosition(0))
	_, err = p2.ReadInt32()
	require.ErrorIs(t, err, ErrNotEnoughData)
	p2.Free()

	p2 = New()
	require.ErrorIs(t, p2.AppendFrom(p1, 4, 2), ErrBadValue)
	require.ErrorIs(t, p2.AppendFrom(p1, 2, 4), ErrBadValue)
	require.ErrorIs(t, p2.AppendFrom(p1, -1, 4), ErrBadValue)
	require.ErrorIs(t, p2.AppendFrom(p1, 2, -1), ErrBadValue)
	p2.Free()
}

func TestCloneEquivalence(t *testing.T) {
	p := New()
	defer p.Free()
	require.NoError(t, p.WriteInt32(7))
	require.NoError(t, p.WriteString("payload"))
	require.NoError(t, p.WriteInt64Slice([]int64{1, 2, 3}))

	c := p.Clone()
	defer c.Free()
	assert.Equal(t, p.Bytes(), c.Bytes())

	require.NoError(t, c.SetPosition(0))
	v, err := c.ReadInt32()
	require.NoError(t, err)
	assert.EqualValues(t, 7, v)
	s, err := c.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "payload", s)
	xs, err := c.ReadInt64Slice()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, xs)

	// the clone never aliases its source
	require.NoError(t, c.WriteInt32(99))
	assert.NotEqual(t, p.Size(), c.Size())
}

func TestNullSequenceDistinction(t *testing.T) {
	p := New()
	defer p.Free()

	require.NoError(t, p.WriteInt32Slice(nil))
	require.NoError(t, p.WriteInt32Slice([]int32{}))

	require.NoError(t, p.SetPosition(0))
	s, err := p.ReadNullableInt32Slice()
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = p.ReadNullableInt32Slice()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Len(t, s, 0)

	require.NoError(t, p.SetPosition(0))
	_, err = p.ReadInt32Slice()
	require.ErrorIs(t, err, ErrUnexpectedNull)
}

func TestSequenceCountValidated(t *testing.T) {
	p := New()
	defer p.Free()

	// claims a million elements with no data behind the header
	require.NoError(t, p.WriteInt32(1_000_000))
	require.NoError(t, p.SetPosition(0))
	_, err := p.ReadInt32Slice()
	require.ErrorIs(t, err, ErrNotEnoughData)
}

func TestFixedSliceRoundTrips(t *testing.T) {
	p := New()
	defer p.Free()
	start := p.Position()

	require.NoError(t, p.WriteBoolSlice([]bool{true, false, true}))
	require.NoError(t, p.WriteInt8Slice([]int8{-1, 0, 1, 127}))
	require.NoError(t, p.WriteCharSlice([]uint16{'a', 'b'}))
	require.NoError(t, p.WriteUint32Slice([]uint32{1, 1 << 31}))
	require.NoError(t, p.WriteUint64Slice([]uint64{2, 1 << 63}))
	require.NoError(t, p.WriteFloat32Slice([]float32{12.13, 16.23}))
	require.NoError(t, p.WriteFloat64Slice([]float64{100.5, 165.63}))

	require.NoError(t, p.SetPosition(start))
	bs, err := p.ReadBoolSlice()
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, bs)
	i8s, err := p.ReadInt8Slice()
	require.NoError(t, err)
	assert.Equal(t, []int8{-1, 0, 1, 127}, i8s)
	cs, err := p.ReadCharSlice()
	require.NoError(t, err)
	assert.Equal(t, []uint16{'a', 'b'}, cs)
	u32s, err := p.ReadUint32Slice()
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 1 << 31}, u32s)
	u64s, err := p.ReadUint64Slice()
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 1 << 63}, u64s)
	f32s, err := p.ReadFloat32Slice()
	require.NoError(t, err)
	assert.Equal(t, []float32{12.13, 16.23}, f32s)
	f64s, err := p.ReadFloat64Slice()
	require.NoError(t, err)
	assert.Equal(t, []float64{100.5, 165.63}, f64s)
}

func TestSliceSizeHelpers(t *testing.T) {
	p := New()
	defer p.Free()

	require.NoError(t, WriteSliceSize(p, []int32{1, 2, 3}))
	require.NoError(t, WriteSliceSize[int32](p, nil))

	require.NoError(t, p.SetPosition(0))
	var out []int32
	require.NoError(t, ResizeOutSlice(p, &out))
	assert.Len(t, out, 3)
	require.ErrorIs(t, ResizeOutSlice(p, &out), ErrUnexpectedNull)

	require.NoError(t, p.SetPosition(4))
	out = []int32{9}
	require.NoError(t, ResizeNullableOutSlice(p, &out))
	assert.Nil(t, out)

	// a count far beyond anything the parcel could carry is rejected
	require.NoError(t, p.SetPosition(0))
	require.NoError(t, p.WriteInt32(1<<30))
	require.NoError(t, p.SetPosition(0))
	require.ErrorIs(t, ResizeOutSlice(p, &out), ErrBadValue)
}

func TestOwnershipViews(t *testing.T) {
	assert.Nil(t, Wrap(nil, true))
	assert.Nil(t, WrapOwned(nil))

	o := NewOwned()
	b := o.Borrowed()
	require.NoError(t, b.WriteInt32(7))
	// dropping a borrowed view never destroys the buffer
	b.Free()
	b2 := o.Borrowed()
	require.EqualValues(t, 4, b2.Size())
	require.NoError(t, b2.SetPosition(0))
	v, err := b2.ReadInt32()
	require.NoError(t, err)
	assert.EqualValues(t, 7, v)

	p := o.IntoParcel()
	ex := p.IntoExclusive()
	require.NotNil(t, ex)
	// the conversion consumed p
	assert.Nil(t, p.IntoExclusive())
	// a borrowed view can never become exclusive
	assert.Nil(t, ex.Borrowed().IntoExclusive())
	ex.Free()
}

func TestExclusiveHandoff(t *testing.T) {
	ex := NewOwned()
	done := make(chan *OwnedParcel)
	go func() {
		b := ex.Borrowed()
		_ = b.WriteString("from the other side")
		done <- ex
	}()
	back := <-done
	b := back.Borrowed()
	require.NoError(t, b.SetPosition(0))
	s, err := b.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "from the other side", s)
	back.Free()
}

func TestObjectReferences(t *testing.T) {
	svc := &fakeBinder{}
	p := New()
	require.NoError(t, p.WriteObject(svc))
	require.NoError(t, p.WriteObject(nil))
	require.Equal(t, 1, svc.refs)

	require.NoError(t, p.SetPosition(0))
	got, err := p.ReadObject()
	require.NoError(t, err)
	assert.Same(t, svc, got)
	got, err = p.ReadObject()
	require.NoError(t, err)
	assert.Nil(t, got)

	// a clone carries the reference with it
	c := p.Clone()
	require.Equal(t, 2, svc.refs)
	require.NoError(t, c.SetPosition(0))
	got, err = c.ReadObject()
	require.NoError(t, err)
	assert.Same(t, svc, got)

	c.Free()
	require.Equal(t, 1, svc.refs)
	p.Free()
	require.Equal(t, 0, svc.refs)
}

func TestMarkSensitive(t *testing.T) {
	p := New()
	p.MarkSensitive()
	require.NoError(t, p.WriteString("secret"))
	alias := p.Bytes()
	p.Free()
	for _, c := range alias {
		assert.Zero(t, c)
	}
}

func TestPrimitiveRoundTripProperty(t *testing.T) {
	p := New()
	defer p.Free()
	condition := func(a int32, b int64, u uint32, f float64, s string) bool {
		require.NoError(t, p.SetPosition(0))
		require.NoError(t, p.WriteInt32(a))
		require.NoError(t, p.WriteInt64(b))
		require.NoError(t, p.WriteUint32(u))
		require.NoError(t, p.WriteFloat64(f))
		require.NoError(t, p.WriteString(s))
		require.NoError(t, p.SetPosition(0))
		ga, err := p.ReadInt32()
		require.NoError(t, err)
		gb, err := p.ReadInt64()
		require.NoError(t, err)
		gu, err := p.ReadUint32()
		require.NoError(t, err)
		gf, err := p.ReadFloat64()
		require.NoError(t, err)
		gs, err := p.ReadString()
		require.NoError(t, err)
		return ga == a && gb == b && gu == u &&
			(gf == f || (f != f && gf != gf)) && gs == s
	}
	err := quick.Check(condition, &quick.Config{})
	if err != nil {
		t.Errorf("Error: %v", err)
	}
}
