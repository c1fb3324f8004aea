// Package wire frames snapshot payloads for byte stores.
//
// Snapshot entries carry the time they were written so readers can label
// stale first-paint data with its age. The format is validated strictly on
// decode; anything that does not parse is treated as corrupt and deleted by
// the caller.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version      byte = 1
	kindSnapshot byte = 1
)

var (
	ErrCorrupt = errors.New("viewcache: corrupt snapshot entry")
	magic4     = [...]byte{'V', 'C', 'S', 'N'}
)

const header = 4 + 1 + 1 + 8 + 4 // magic | ver | kind | writtenAt | vlen

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// EncodeSnapshot frames payload with the write timestamp (unix nanos).
//
//	magic(4) | ver(1) | kind(1) | writtenAt(i64 be) | vlen(u32 be) | payload(vlen)
func EncodeSnapshot(writtenAtUnixNano int64, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(header + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindSnapshot)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(writtenAtUnixNano))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// DecodeSnapshot parses a framed entry. Trailing bytes beyond the declared
// payload length are rejected as corruption.
func DecodeSnapshot(b []byte) (writtenAtUnixNano int64, payload []byte, err error) {
	if len(b) < header || !hasMagic(b) || b[4] != version || b[5] != kindSnapshot {
		return 0, nil, ErrCorrupt
	}

	off := 6

	writtenAtUnixNano = int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off { // exact length; no trailing bytes
		return 0, nil, ErrCorrupt
	}

	return writtenAtUnixNano, b[off : off+vlen], nil
}
