// Package parcel implements a container for messages exchanged across a
// process boundary. A parcel carries both serialized data, decoded on the
// other side in the same order it was written, and references to live
// endpoint objects that the receiver resolves into proxies.
//
// A Parcel is a handle over an engine buffer plus an ownership tag: an owned
// handle is solely responsible for releasing the buffer, a borrowed handle is
// a transient view over a buffer owned elsewhere and never releases it.
// OwnedParcel is the stricter exclusive variant safe to hand to another
// goroutine wholesale.
package parcel

import "github.com/rawbytedev/parcel/pkg/engine"

// Parcel is a handle to an engine buffer with an ownership tag. All handles
// over the same buffer share one cursor.
type Parcel struct {
	buf   *engine.Buffer
	owned bool
}

// OwnedParcel is an owning handle guaranteed to be the only live reference to
// its buffer. That exclusivity is what makes it safe to transfer to another
// goroutine in its entirety; a plain Parcel must not be, since other views
// may alias its buffer.
type OwnedParcel struct {
	buf *engine.Buffer
}

// New creates an empty owned parcel. Allocation of an empty buffer is
// treated as infallible.
func New() *Parcel {
	return &Parcel{buf: engine.New(), owned: true}
}

// NewOwned creates an empty exclusive parcel.
func NewOwned() *OwnedParcel {
	return &OwnedParcel{buf: engine.New()}
}

// Wrap builds a parcel handle over an existing engine buffer, or nil when buf
// is nil. The caller attests that buf is live and, when owned is true, that
// no other owner exists.
func Wrap(buf *engine.Buffer, owned bool) *Parcel {
	if buf == nil {
		return nil
	}
	return &Parcel{buf: buf, owned: owned}
}

// WrapOwned builds an exclusive parcel over an existing engine buffer, or nil
// when buf is nil. The caller attests that no other handle to buf exists and
// that none will be created except through this OwnedParcel.
func WrapOwned(buf *engine.Buffer) *OwnedParcel {
	if buf == nil {
		return nil
	}
	return &OwnedParcel{buf: buf}
}

// Borrowed returns a transient borrowed view over p's buffer. The view must
// not be used concurrently with p and must not outlive the operation it was
// created for; p regains exclusive access once the view is dropped.
func (p *OwnedParcel) Borrowed() *Parcel {
	return &Parcel{buf: p.buf, owned: false}
}

// IntoParcel consumes p, converting it into a plain owned parcel. p is dead
// afterwards and its exclusivity guarantee no longer holds.
func (p *OwnedParcel) IntoParcel() *Parcel {
	out := &Parcel{buf: p.buf, owned: true}
	p.buf = nil
	return out
}

// IntoExclusive consumes an owned p, converting it into an exclusive parcel.
// Returns nil for borrowed or dead handles: a borrower cannot attest that no
// other view exists. The caller attests there are no other aliases.
func (p *Parcel) IntoExclusive() *OwnedParcel {
	if p.buf == nil || !p.owned {
		return nil
	}
	out := &OwnedParcel{buf: p.buf}
	p.buf = nil
	return out
}

// Free releases the underlying buffer if p owns it; a borrowed handle only
// drops its view. p is dead afterwards either way.
func (p *Parcel) Free() {
	if p.buf == nil {
		return
	}
	if p.owned {
		p.buf.Free()
	}
	p.buf = nil
}

// Free releases the underlying buffer. p is dead afterwards.
func (p *OwnedParcel) Free() {
	if p.buf == nil {
		return
	}
	p.buf.Free()
	p.buf = nil
}

// Clone duplicates p into a fresh owned parcel. The clone holds its own copy
// of the bytes and object entries; it never aliases p's buffer.
func (p *Parcel) Clone() *Parcel {
	dup := New()
	if err := dup.AppendAllFrom(p); err != nil {
		// appending a valid buffer onto an empty one cannot fail
		panic("parcel: clone append failed: " + err.Error())
	}
	return dup
}

// Clone duplicates p into a fresh exclusive parcel.
func (p *OwnedParcel) Clone() *OwnedParcel {
	dup := NewOwned()
	if err := dup.Borrowed().AppendAllFrom(p.Borrowed()); err != nil {
		panic("parcel: clone append failed: " + err.Error())
	}
	return dup
}

// MarkSensitive flags the buffer so its bytes are zeroed before being freed
// or reallocated. Idempotent.
func (p *Parcel) MarkSensitive() {
	p.buf.MarkSensitive()
}

// Position returns the current cursor offset in the parcel data.
func (p *Parcel) Position() int32 {
	return p.buf.Position()
}

// SetPosition moves the cursor. Out-of-range targets are rejected by the
// engine with ErrBadValue.
func (p *Parcel) SetPosition(pos int32) error {
	return p.buf.SetPosition(pos)
}

// Size returns the total size of the parcel data in bytes.
func (p *Parcel) Size() int32 {
	return p.buf.Size()
}

// Bytes exposes the raw parcel bytes for handing to a transport. The slice
// aliases the buffer and is invalidated by any subsequent write.
func (p *Parcel) Bytes() []byte {
	return p.buf.Bytes()
}

// AppendFrom appends size bytes of other starting at offset start onto the
// end of p. The engine validates the range and reports ErrBadValue when
// start or size is negative or the range runs past other's size.
func (p *Parcel) AppendFrom(other *Parcel, start, size int32) error {
	return p.buf.AppendFrom(other.buf, start, size)
}

// AppendAllFrom appends the entire contents of other onto the end of p.
func (p *Parcel) AppendAllFrom(other *Parcel) error {
	return p.AppendFrom(other, 0, other.Size())
}
