// Package wire frames object records stored in the backing store.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version       byte = 1
	kindRecord    byte = 1
	kindTombstone byte = 2

	hdrLen = 4 + 1 + 1 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("poolcache: corrupt record")
	magic4     = [...]byte{'P', 'O', 'O', 'L'}
)

// Record is one persisted object.
// A tombstone marks an object dropped from the pool; it has no payload.
type Record struct {
	OID       int
	Codec     byte
	Tombstone bool
	Payload   []byte
}

// Encode frames r as:
//
//	magic(4) | ver(1) | kind(1) | codec(1) | oid(u64 be) | vlen(u32 be) | payload(vlen)
func Encode(r Record) []byte {
	kind := kindRecord
	payload := r.Payload
	if r.Tombstone {
		kind = kindTombstone
		payload = nil
	}

	var buf bytes.Buffer
	buf.Grow(hdrLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kind)
	buf.WriteByte(r.Codec)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(int64(r.OID)))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// Decode parses a framed record. Trailing bytes, unknown versions or kinds,
// and tombstones carrying a payload are rejected with ErrCorrupt.
func Decode(b []byte) (Record, error) {
	if len(b) < hdrLen || !bytes.Equal(b[:4], magic4[:]) || b[4] != version {
		return Record{}, ErrCorrupt
	}

	var r Record
	switch b[5] {
	case kindRecord:
	case kindTombstone:
		r.Tombstone = true
	default:
		return Record{}, ErrCorrupt
	}
	r.Codec = b[6]

	off := 7
	r.OID = int(int64(binary.BigEndian.Uint64(b[off : off+8])))
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen != len(b)-off {
		return Record{}, ErrCorrupt
	}
	if r.Tombstone && vlen != 0 {
		return Record{}, ErrCorrupt
	}

	r.Payload = b[off : off+vlen]
	return r, nil
}
