// Package codec serializes object bodies for the backing store.
//
// Each codec has a one-byte ID that is written into every stored record, so a
// pool opened with a different codec than the one that wrote a record detects
// the mismatch instead of decoding garbage.
package codec

// Codec encodes/decodes object bodies V to []byte.
type Codec[V any] interface {
	ID() byte
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Codec IDs. Values are persisted; never renumber.
const (
	IDBytes    byte = 0x01
	IDString   byte = 0x02
	IDJSON     byte = 0x03
	IDCBOR     byte = 0x04
	IDMsgpack  byte = 0x05
	IDProtobuf byte = 0x06
)
