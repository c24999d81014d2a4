// Package npz reads and writes the numpy .npz container used by the
// enrollment store: a zip archive of .npy entries. Only the two entry kinds
// the store persists are supported, little-endian float32 matrices and
// unicode string scalars, which keeps the artifacts interchangeable with
// enrollments written by the previous tooling (np.savez_compressed).
package npz

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var npyMagic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y'}

var headerRe = regexp.MustCompile(`'descr':\s*'([^']+)',\s*'fortran_order':\s*(True|False),\s*'shape':\s*\(([^)]*)\)`)

// Archive is the decoded content of one .npz file.
type Archive struct {
	matrices map[string][][]float32
	scalars  map[string]string
}

// Matrix returns the float32 matrix stored under key.
func (a *Archive) Matrix(key string) ([][]float32, bool) {
	m, ok := a.matrices[key]
	return m, ok
}

// Scalar returns the string scalar stored under key.
func (a *Archive) Scalar(key string) (string, bool) {
	s, ok := a.scalars[key]
	return s, ok
}

// Write serializes matrices and string scalars into a compressed .npz
// archive. Entries are written in sorted key order so identical input
// produces identical bytes.
func Write(w io.Writer, matrices map[string][][]float32, scalars map[string]string) error {
	zw := zip.NewWriter(w)

	names := make([]string, 0, len(matrices))
	for name := range matrices {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		payload, err := encodeMatrix(matrices[name])
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		if err := writeEntry(zw, name, payload); err != nil {
			return err
		}
	}

	names = names[:0]
	for name := range scalars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writeEntry(zw, name, encodeStringScalar(scalars[name])); err != nil {
			return err
		}
	}

	return zw.Close()
}

// Read decodes a .npz archive.
func Read(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open npz container: %w", err)
	}

	archive := &Archive{
		matrices: make(map[string][][]float32),
		scalars:  make(map[string]string),
	}

	for _, file := range zr.File {
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", file.Name, err)
		}
		payload, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", file.Name, err)
		}

		key := strings.TrimSuffix(file.Name, ".npy")
		if err := decodeEntry(archive, key, payload); err != nil {
			return nil, fmt.Errorf("decode entry %s: %w", file.Name, err)
		}
	}

	return archive, nil
}

func writeEntry(zw *zip.Writer, name string, payload []byte) error {
	ew, err := zw.CreateHeader(&zip.FileHeader{
		Name:   name + ".npy",
		Method: zip.Deflate,
	})
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := ew.Write(payload); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

// npyHeader builds the v1.0 .npy preamble, space-padded so the data section
// starts on a 64-byte boundary as numpy does.
func npyHeader(descr, shape string) []byte {
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, shape)
	padded := 10 + len(dict) + 1
	if rem := padded % 64; rem != 0 {
		dict += strings.Repeat(" ", 64-rem)
	}
	dict += "\n"

	buf := make([]byte, 0, 10+len(dict))
	buf = append(buf, npyMagic...)
	buf = append(buf, 1, 0)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(dict)))
	return append(buf, dict...)
}

func encodeMatrix(matrix [][]float32) ([]byte, error) {
	rows := len(matrix)
	cols := 0
	if rows > 0 {
		cols = len(matrix[0])
	}
	for i, row := range matrix {
		if len(row) != cols {
			return nil, fmt.Errorf("ragged matrix: row %d has %d columns, want %d", i, len(row), cols)
		}
	}

	header := npyHeader("<f4", fmt.Sprintf("(%d, %d)", rows, cols))
	buf := make([]byte, 0, len(header)+rows*cols*4)
	buf = append(buf, header...)
	for _, row := range matrix {
		for _, v := range row {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return buf, nil
}

func encodeStringScalar(s string) []byte {
	runes := []rune(s)
	header := npyHeader(fmt.Sprintf("<U%d", len(runes)), "()")
	buf := make([]byte, 0, len(header)+len(runes)*4)
	buf = append(buf, header...)
	for _, r := range runes {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(r))
	}
	return buf
}

func decodeEntry(archive *Archive, key string, payload []byte) error {
	descr, shape, data, err := parseNpy(payload)
	if err != nil {
		return err
	}

	switch {
	case descr == "<f4":
		if len(shape) != 2 {
			return fmt.Errorf("unsupported float32 shape %v", shape)
		}
		matrix, err := decodeMatrix(data, shape[0], shape[1])
		if err != nil {
			return err
		}
		archive.matrices[key] = matrix

	case strings.HasPrefix(descr, "<U"):
		if len(shape) != 0 {
			return fmt.Errorf("unsupported string shape %v", shape)
		}
		s, err := decodeStringScalar(data)
		if err != nil {
			return err
		}
		archive.scalars[key] = s

	default:
		return fmt.Errorf("unsupported dtype %q", descr)
	}

	return nil
}

func parseNpy(payload []byte) (descr string, shape []int, data []byte, err error) {
	if len(payload) < 10 || !bytes.Equal(payload[:6], npyMagic) {
		return "", nil, nil, fmt.Errorf("not a npy entry")
	}

	major := payload[6]
	var headerLen, headerStart int
	switch major {
	case 1:
		headerLen = int(binary.LittleEndian.Uint16(payload[8:10]))
		headerStart = 10
	case 2:
		if len(payload) < 12 {
			return "", nil, nil, fmt.Errorf("truncated npy header")
		}
		headerLen = int(binary.LittleEndian.Uint32(payload[8:12]))
		headerStart = 12
	default:
		return "", nil, nil, fmt.Errorf("unsupported npy version %d", major)
	}

	if len(payload) < headerStart+headerLen {
		return "", nil, nil, fmt.Errorf("truncated npy header")
	}
	header := string(payload[headerStart : headerStart+headerLen])

	m := headerRe.FindStringSubmatch(header)
	if m == nil {
		return "", nil, nil, fmt.Errorf("malformed npy header %q", header)
	}
	if m[2] == "True" {
		return "", nil, nil, fmt.Errorf("fortran-ordered arrays are not supported")
	}

	for _, part := range strings.Split(m[3], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dim, convErr := strconv.Atoi(part)
		if convErr != nil {
			return "", nil, nil, fmt.Errorf("malformed shape %q", m[3])
		}
		shape = append(shape, dim)
	}

	return m[1], shape, payload[headerStart+headerLen:], nil
}

func decodeMatrix(data []byte, rows, cols int) ([][]float32, error) {
	// The shape comes from the header, not the payload. Bounding each
	// dimension against the actual byte count keeps a corrupt artifact from
	// overflowing the size check or allocating an absurd matrix.
	values := len(data) / 4
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("malformed matrix shape (%d, %d)", rows, cols)
	}
	if rows > values || (cols > 0 && rows > values/cols) {
		return nil, fmt.Errorf("matrix data truncated: shape (%d, %d) exceeds %d bytes", rows, cols, len(data))
	}

	matrix := make([][]float32, rows)
	offset := 0
	for i := range matrix {
		row := make([]float32, cols)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))
			offset += 4
		}
		matrix[i] = row
	}
	return matrix, nil
}

func decodeStringScalar(data []byte) (string, error) {
	if len(data)%4 != 0 {
		return "", fmt.Errorf("string scalar data not UTF-32 aligned")
	}
	runes := make([]rune, 0, len(data)/4)
	for offset := 0; offset < len(data); offset += 4 {
		runes = append(runes, rune(binary.LittleEndian.Uint32(data[offset:])))
	}
	return string(runes), nil
}
