package vpkutil

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"path"
	"sort"
	"strings"

	tperrors "github.com/dotamods/terrain-patch/terrainpatch/errors"
)

// ProgressCallback reports encoding progress.
// current: payload bytes emitted so far, total: total payload bytes.
type ProgressCallback func(current int64, total int64)

// rootDirName is the sentinel directory name for files at the archive root.
const rootDirName = " "

// fileRef ties a base name in the directory tree back to its FileSet key.
type fileRef struct {
	name string
	path string
}

// directoryTree groups a FileSet by extension, then directory, for the
// tree-section encoding. It only lives for the duration of one Build.
type directoryTree map[string]map[string][]fileRef

// Build serializes a FileSet into a structurally valid VPK archive.
// Preload data is never emitted; every payload is stored embedded after the
// tree section. progress may be nil.
func Build(files FileSet, progress ProgressCallback) ([]byte, error) {
	tree, err := buildDirectoryTree(files)
	if err != nil {
		return nil, err
	}

	// The tree length has to be known before any offset can be assigned,
	// since stored offsets are relative to the end of the tree section.
	treeLength := treeSectionLength(tree)

	var totalPayload int64
	for _, payload := range files {
		totalPayload += int64(len(payload))
	}

	var treeBuf, payloadBuf bytes.Buffer
	var embedLength uint32

	for _, ext := range sortedKeys(tree) {
		treeBuf.WriteString(ext)
		treeBuf.WriteByte(0)

		dirs := tree[ext]
		for _, dir := range sortedKeys(dirs) {
			treeBuf.WriteString(dir)
			treeBuf.WriteByte(0)

			for _, ref := range dirs[dir] {
				treeBuf.WriteString(ref.name)
				treeBuf.WriteByte(0)

				payload := files[ref.path]
				meta := entryMetadata{
					crc: crc32.ChecksumIEEE(payload),
					// Offset of this payload relative to the start of the
					// payload section.
					offset: embedLength,
					length: uint32(len(payload)),
				}
				meta.writeTo(&treeBuf)

				payloadBuf.Write(payload)
				embedLength += uint32(len(payload))
				if progress != nil {
					progress(int64(payloadBuf.Len()), totalPayload)
				}
			}
			treeBuf.WriteByte(0) // end of this directory
		}
		treeBuf.WriteByte(0) // end of this extension
	}
	treeBuf.WriteByte(0) // end of tree

	if uint32(treeBuf.Len()) != treeLength {
		return nil, fmt.Errorf("tree section is %d bytes, computed %d", treeBuf.Len(), treeLength)
	}

	header := &Header{
		Signature:      Signature,
		Version:        FormatVersion,
		TreeLength:     treeLength,
		EmbedLength:    embedLength,
		SelfHashLength: SelfHashesSize,
	}
	var headerBuf bytes.Buffer
	if err := writeHeader(&headerBuf, header); err != nil {
		return nil, err
	}

	out := make([]byte, 0, headerBuf.Len()+treeBuf.Len()+payloadBuf.Len()+SelfHashesSize)
	out = append(out, headerBuf.Bytes()...)
	out = append(out, treeBuf.Bytes()...)
	out = append(out, payloadBuf.Bytes()...)
	out = appendSelfHashes(out, treeBuf.Bytes())
	return out, nil
}

// appendSelfHashes appends the trailing self-hash section: an MD5 of the
// tree section, an MD5 of the (empty) chunk-hash section, and an MD5 of
// everything before it including the first two digests.
func appendSelfHashes(archive, tree []byte) []byte {
	treeDigest := md5.Sum(tree)
	chunkDigest := md5.Sum(nil)

	whole := md5.New()
	whole.Write(archive)
	whole.Write(treeDigest[:])
	whole.Write(chunkDigest[:])

	archive = append(archive, treeDigest[:]...)
	archive = append(archive, chunkDigest[:]...)
	return whole.Sum(archive)
}

// entryMetadata is the write-side view of the fixed 18-byte record.
type entryMetadata struct {
	crc    uint32
	offset uint32
	length uint32
}

func (m entryMetadata) writeTo(buf *bytes.Buffer) {
	var rec [entryMetadataSize]byte
	binary.LittleEndian.PutUint32(rec[0:4], m.crc)
	binary.LittleEndian.PutUint16(rec[4:6], 0) // no preload data on write
	binary.LittleEndian.PutUint16(rec[6:8], embeddedArchiveIndex)
	binary.LittleEndian.PutUint32(rec[8:12], m.offset)
	binary.LittleEndian.PutUint32(rec[12:16], m.length)
	binary.LittleEndian.PutUint16(rec[16:18], entryTerminator)
	buf.Write(rec[:])
}

// buildDirectoryTree groups every path by extension and directory. Paths at
// the archive root map to the single-space sentinel directory.
func buildDirectoryTree(files FileSet) (directoryTree, error) {
	tree := make(directoryTree)
	for p := range files {
		dir, name, ext, err := splitArchivePath(p)
		if err != nil {
			return nil, err
		}
		if tree[ext] == nil {
			tree[ext] = make(map[string][]fileRef)
		}
		tree[ext][dir] = append(tree[ext][dir], fileRef{name: name, path: p})
	}
	for _, dirs := range tree {
		for _, refs := range dirs {
			sort.Slice(refs, func(i, j int) bool { return refs[i].name < refs[j].name })
		}
	}
	return tree, nil
}

// treeSectionLength computes the tree section size analytically: the final
// terminator, plus name+terminator+level-terminator per extension and
// directory, plus name+terminator+metadata per file.
func treeSectionLength(tree directoryTree) uint32 {
	length := uint32(1)
	for ext, dirs := range tree {
		length += uint32(len(ext)) + 2
		for dir, refs := range dirs {
			length += uint32(len(dir)) + 2
			for _, ref := range refs {
				length += uint32(len(ref.name)) + entryMetadataSize + 1
			}
		}
	}
	return length
}

// splitArchivePath decomposes a logical archive path into the directory,
// base name and extension used by the tree section.
func splitArchivePath(p string) (dir, name, ext string, err error) {
	if p == "" || strings.HasSuffix(p, "/") {
		return "", "", "", tperrors.ErrBadPath.WithDetail("path", p)
	}
	dir = path.Dir(p)
	if dir == "." || dir == "/" {
		dir = rootDirName
	}

	base := path.Base(p)
	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 || dot == len(base)-1 {
		return "", "", "", tperrors.ErrBadPath.WithDetail("path", p)
	}
	return dir, base[:dot], base[dot+1:], nil
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
