package parcel

import (
	"errors"

	"github.com/rawbytedev/parcel/pkg/engine"
)

// Status kinds surfaced by parcel operations. The first three originate in
// the buffer engine; ErrUnexpectedNull is produced by required reads that
// decode an absent value.
var (
	ErrNotEnoughData  = engine.ErrNotEnoughData
	ErrBadValue       = engine.ErrBadValue
	ErrBadType        = engine.ErrBadType
	ErrUnexpectedNull = errors.New("parcel: unexpected null")
)

// Reflection codec errors.
var (
	ErrNotStruct    = errors.New("expected struct")
	ErrNotStructPtr = errors.New("expected pointer to struct")
	ErrUnsupported  = errors.New("unsupported type")
)
