package vpkutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// VPK format constants.
const (
	// Magic signature of a VPK archive, little-endian.
	Signature = 0x55AA1234

	// HeaderSize is the fixed size of the VPK header: 7 little-endian uint32s.
	HeaderSize = 28

	// FormatVersion is the version this package writes. Version 2 archives
	// carry the trailing self-hash section.
	FormatVersion = 2

	// SelfHashesSize is the fixed size of the trailing self-hash section:
	// three 16-byte MD5 digests.
	SelfHashesSize = 48

	// embeddedArchiveIndex marks an entry whose payload lives in the same
	// file, after the tree section. Any other value refers to an external
	// numbered archive part, which this package does not support.
	embeddedArchiveIndex = 0x7FFF

	// entryTerminator closes every directory entry's metadata record.
	entryTerminator = 0xFFFF

	// entryMetadataSize is the fixed metadata record following each file
	// name in the tree section: CRC32 (4), preload length (2), archive
	// index (2), offset (4), length (4), terminator (2).
	entryMetadataSize = 18
)

// Header is the fixed 28-byte VPK header.
type Header struct {
	Signature       uint32
	Version         uint32
	TreeLength      uint32
	EmbedLength     uint32
	ChunkHashLength uint32
	SelfHashLength  uint32
	SignatureLength uint32
}

// parseHeader decodes the header from the first 28 bytes of data.
func parseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("archive is %d bytes, smaller than the %d byte header", len(data), HeaderSize)
	}

	h := &Header{}
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, h); err != nil {
		return nil, err
	}
	return h, nil
}

// writeHeader appends the encoded header to buf.
func writeHeader(buf *bytes.Buffer, h *Header) error {
	return binary.Write(buf, binary.LittleEndian, h)
}
