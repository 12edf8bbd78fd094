package vpkutil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	tperrors "github.com/dotamods/terrain-patch/terrainpatch/errors"
)

// testArchive hand-assembles an archive from a raw tree section and payload
// section, so tests can produce layouts the writer never emits.
func testArchive(version uint32, tree, payload []byte) []byte {
	header := &Header{
		Signature:   Signature,
		Version:     version,
		TreeLength:  uint32(len(tree)),
		EmbedLength: uint32(len(payload)),
	}
	var buf bytes.Buffer
	if err := writeHeader(&buf, header); err != nil {
		panic(err)
	}
	buf.Write(tree)
	buf.Write(payload)
	return buf.Bytes()
}

// writeTestEntry appends a file name plus its metadata record to a tree
// section under construction.
func writeTestEntry(buf *bytes.Buffer, name string, crc uint32, preload []byte, archiveIndex uint16, offset, length uint32, terminator uint16) {
	buf.WriteString(name)
	buf.WriteByte(0)

	var rec [entryMetadataSize]byte
	binary.LittleEndian.PutUint32(rec[0:4], crc)
	binary.LittleEndian.PutUint16(rec[4:6], uint16(len(preload)))
	binary.LittleEndian.PutUint16(rec[6:8], archiveIndex)
	binary.LittleEndian.PutUint32(rec[8:12], offset)
	binary.LittleEndian.PutUint32(rec[12:16], length)
	binary.LittleEndian.PutUint16(rec[16:18], terminator)
	buf.Write(rec[:])
	buf.Write(preload)
}

func TestParseInvalidSignature(t *testing.T) {
	data, err := Build(FileSet{"maps/dota.vmap_c": []byte("x")}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	data[0] = 0x00

	if _, err := Parse(data); !errors.Is(err, tperrors.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestParseTruncatedHeader(t *testing.T) {
	if _, err := Parse(make([]byte, HeaderSize-1)); !errors.Is(err, tperrors.ErrIndexCorrupt) {
		t.Fatalf("expected ErrIndexCorrupt, got %v", err)
	}
}

func TestParseTerminatorMismatch(t *testing.T) {
	var tree bytes.Buffer
	tree.WriteString("txt")
	tree.WriteByte(0)
	tree.WriteString(" ")
	tree.WriteByte(0)
	writeTestEntry(&tree, "a", 0, nil, embeddedArchiveIndex, 0, 1, 0x1234)
	tree.WriteByte(0)
	tree.WriteByte(0)
	tree.WriteByte(0)

	data := testArchive(2, tree.Bytes(), []byte("A"))
	if _, err := Parse(data); !errors.Is(err, tperrors.ErrIndexCorrupt) {
		t.Fatalf("expected ErrIndexCorrupt for terminator 0x1234, got %v", err)
	}
}

func TestParseExternalArchiveIndexUnsupported(t *testing.T) {
	var tree bytes.Buffer
	tree.WriteString("txt")
	tree.WriteByte(0)
	tree.WriteString(" ")
	tree.WriteByte(0)
	writeTestEntry(&tree, "a", 0, nil, 1, 0, 1, entryTerminator)
	tree.WriteByte(0)
	tree.WriteByte(0)
	tree.WriteByte(0)

	data := testArchive(2, tree.Bytes(), []byte("A"))
	if _, err := Parse(data); !errors.Is(err, tperrors.ErrIndexCorrupt) {
		t.Fatalf("expected ErrIndexCorrupt for external archive index, got %v", err)
	}
}

func TestParseTreeBounds(t *testing.T) {
	data, err := Build(FileSet{
		"maps/dota.vmap_c": []byte("MAP"),
		"maps/extra.vpk_c": []byte("X"),
	}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// Understate the declared tree length; a version 2 archive must refuse
	// to walk past it.
	binary.LittleEndian.PutUint32(data[8:12], 4)

	if _, _, err := ParseIndex(data); !errors.Is(err, tperrors.ErrIndexCorrupt) {
		t.Fatalf("expected ErrIndexCorrupt for walk past tree end, got %v", err)
	}
}

func TestParsePreloadBytes(t *testing.T) {
	// Entry with 2 preload bytes inline and a declared payload length of 3:
	// the loaded payload is the 5 bytes at the corrected offset.
	var tree bytes.Buffer
	tree.WriteString("txt")
	tree.WriteByte(0)
	tree.WriteString(" ")
	tree.WriteByte(0)
	writeTestEntry(&tree, "a", 0, []byte("PQ"), embeddedArchiveIndex, 0, 3, entryTerminator)
	tree.WriteByte(0)
	tree.WriteByte(0)
	tree.WriteByte(0)

	data := testArchive(2, tree.Bytes(), []byte("ABCDE"))
	files, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := files["a.txt"]; !bytes.Equal(got, []byte("ABCDE")) {
		t.Fatalf("payload = %q, want %q", got, "ABCDE")
	}
}

func TestParsePayloadOutOfRange(t *testing.T) {
	var tree bytes.Buffer
	tree.WriteString("txt")
	tree.WriteByte(0)
	tree.WriteString(" ")
	tree.WriteByte(0)
	writeTestEntry(&tree, "a", 0, nil, embeddedArchiveIndex, 0, 100, entryTerminator)
	tree.WriteByte(0)
	tree.WriteByte(0)
	tree.WriteByte(0)

	data := testArchive(2, tree.Bytes(), []byte("A"))
	if _, err := Parse(data); !errors.Is(err, tperrors.ErrIndexCorrupt) {
		t.Fatalf("expected ErrIndexCorrupt for payload past end, got %v", err)
	}
}

func TestParseDirectorySentinels(t *testing.T) {
	data, err := Build(FileSet{
		"root.txt":            []byte("at root"),
		"materials/grass.vtx": []byte("grass"),
	}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	files, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := files["root.txt"]; !bytes.Equal(got, []byte("at root")) {
		t.Fatalf("root file payload = %q", got)
	}
	if got := files["materials/grass.vtx"]; !bytes.Equal(got, []byte("grass")) {
		t.Fatalf("nested file payload = %q", got)
	}
}

func TestParseIndexOffsets(t *testing.T) {
	files := FileSet{
		"maps/a.txt": []byte("aaaa"),
		"maps/b.txt": []byte("bb"),
	}
	data, err := Build(files, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	header, entries, err := ParseIndex(data)
	if err != nil {
		t.Fatalf("parse index: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	payloadStart := uint32(HeaderSize) + header.TreeLength
	for _, e := range entries {
		if e.Offset < payloadStart {
			t.Errorf("%s: offset %d not corrected past payload start %d", e.Path, e.Offset, payloadStart)
		}
		want := files[e.Path]
		got := data[e.Offset : e.Offset+e.Length]
		if !bytes.Equal(got, want) {
			t.Errorf("%s: payload at corrected offset = %q, want %q", e.Path, got, want)
		}
	}
}
