package parcel

import "github.com/rawbytedev/parcel/pkg/engine"

// Ref is re-exported from the engine: object references implementing it are
// refcounted for as long as a buffer's object table holds them.
type Ref = engine.Ref

// WriteObject writes a reference to a remote endpoint object at the cursor.
// A nil obj writes a null reference. The encoding itself belongs to the
// engine; the parcel only sequences the call.
func (p *Parcel) WriteObject(obj any) error {
	return p.buf.WriteObject(obj)
}

// ReadObject reads an object reference at the cursor, yielding either a live
// handle or nil for a null reference. Decoding against data that is not a
// reference fails with ErrBadType, distinct from ErrNotEnoughData.
func (p *Parcel) ReadObject() (any, error) {
	return p.buf.ReadObject()
}
