package vpkutil

import (
	"bytes"
	"encoding/binary"
	"fmt"

	tperrors "github.com/dotamods/terrain-patch/terrainpatch/errors"
)

// FileSet maps a logical file path inside an archive to its payload bytes.
// It is the unit exchanged between the reader, the merger and the writer.
type FileSet map[string][]byte

// Entry is one record of the archive's file index.
type Entry struct {
	Path         string
	CRC32        uint32
	Preload      []byte
	ArchiveIndex uint16
	// Offset is the payload position within the archive, already corrected
	// to be absolute (the stored value is relative to the end of the tree
	// section).
	Offset uint32
	Length uint32
}

// treeWalker walks the null-terminated tree section of an archive.
type treeWalker struct {
	data []byte
	pos  int
}

// Parse decodes a whole VPK archive into a FileSet.
func Parse(data []byte) (FileSet, error) {
	_, entries, err := ParseIndex(data)
	if err != nil {
		return nil, err
	}

	files := make(FileSet, len(entries))
	for _, e := range entries {
		end := int(e.Offset) + int(e.Length) + len(e.Preload)
		if end > len(data) {
			return nil, tperrors.ErrIndexCorrupt.
				WithDetail("path", e.Path).
				WithCause(fmt.Errorf("payload range [%d, %d) exceeds archive size %d", e.Offset, end, len(data)))
		}
		payload := make([]byte, end-int(e.Offset))
		copy(payload, data[e.Offset:end])
		files[e.Path] = payload
	}
	return files, nil
}

// ParseIndex decodes the header and the file index of an archive without
// loading any payload. Offsets in the returned entries are already
// corrected to absolute archive positions.
func ParseIndex(data []byte) (*Header, []Entry, error) {
	header, err := parseHeader(data)
	if err != nil {
		return nil, nil, tperrors.ErrIndexCorrupt.WithCause(err)
	}
	if header.Signature != Signature {
		return nil, nil, tperrors.ErrInvalidSignature.
			WithDetail("signature", fmt.Sprintf("0x%08X", header.Signature))
	}

	w := &treeWalker{data: data, pos: HeaderSize}
	treeEnd := HeaderSize + int(header.TreeLength)

	var entries []Entry
	for {
		// Version 0 archives carry no tree length, so the bound only
		// applies to later versions.
		if header.Version > 0 && w.pos > treeEnd {
			return nil, nil, tperrors.ErrIndexCorrupt.
				WithCause(fmt.Errorf("tree walk at %d exceeds declared tree end %d", w.pos, treeEnd))
		}

		ext, err := w.readString()
		if err != nil {
			return nil, nil, err
		}
		if ext == "" {
			break
		}

		for {
			dir, err := w.readString()
			if err != nil {
				return nil, nil, err
			}
			if dir == "" {
				break
			}
			// A directory named a single space is the archive root.
			prefix := ""
			if dir != " " {
				prefix = dir + "/"
			}

			for {
				name, err := w.readString()
				if err != nil {
					return nil, nil, err
				}
				if name == "" {
					break
				}

				entry, err := w.readEntry(header)
				if err != nil {
					return nil, nil, err
				}
				entry.Path = prefix + name + "." + ext
				entries = append(entries, entry)
			}
		}
	}

	return header, entries, nil
}

// readString reads one null-terminated string from the tree section.
func (w *treeWalker) readString() (string, error) {
	rel := bytes.IndexByte(w.data[w.pos:], 0)
	if rel < 0 {
		return "", tperrors.ErrIndexCorrupt.
			WithCause(fmt.Errorf("unterminated string at offset %d", w.pos))
	}
	s := string(w.data[w.pos : w.pos+rel])
	w.pos += rel + 1
	return s, nil
}

// readEntry reads the fixed metadata record following a file name, plus the
// inline preload bytes it declares, and applies the offset correction for
// payloads embedded after the tree section.
func (w *treeWalker) readEntry(header *Header) (Entry, error) {
	if w.pos+entryMetadataSize > len(w.data) {
		return Entry{}, tperrors.ErrIndexCorrupt.
			WithCause(fmt.Errorf("truncated metadata record at offset %d", w.pos))
	}
	meta := w.data[w.pos : w.pos+entryMetadataSize]
	w.pos += entryMetadataSize

	entry := Entry{
		CRC32:        binary.LittleEndian.Uint32(meta[0:4]),
		ArchiveIndex: binary.LittleEndian.Uint16(meta[6:8]),
		Offset:       binary.LittleEndian.Uint32(meta[8:12]),
		Length:       binary.LittleEndian.Uint32(meta[12:16]),
	}
	preloadLength := int(binary.LittleEndian.Uint16(meta[4:6]))
	terminator := binary.LittleEndian.Uint16(meta[16:18])

	if terminator != entryTerminator {
		return Entry{}, tperrors.ErrIndexCorrupt.
			WithCause(fmt.Errorf("entry terminator 0x%04X, want 0x%04X", terminator, entryTerminator))
	}

	if w.pos+preloadLength > len(w.data) {
		return Entry{}, tperrors.ErrIndexCorrupt.
			WithCause(fmt.Errorf("truncated preload data at offset %d", w.pos))
	}
	entry.Preload = append([]byte(nil), w.data[w.pos:w.pos+preloadLength]...)
	w.pos += preloadLength

	switch entry.ArchiveIndex {
	case embeddedArchiveIndex:
		// Stored offsets are relative to the start of the payload section;
		// correct them exactly once, here.
		entry.Offset += HeaderSize + header.TreeLength
	default:
		return Entry{}, tperrors.ErrIndexCorrupt.
			WithCause(fmt.Errorf("entry references external archive part %d, only embedded payloads are supported", entry.ArchiveIndex))
	}

	return entry, nil
}
