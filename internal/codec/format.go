package codec

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a serialisation of the experiment tree.
type Format int

const (
	JSON Format = iota
	CBOR
	Proto
)

var formatNames = []string{
	JSON:  "json",
	CBOR:  "cbor",
	Proto: "proto",
}

var formatExts = map[string]Format{
	".json": JSON,
	".cbor": CBOR,
	".pb":   Proto,
}

func (f Format) String() string {
	if f >= 0 && int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Ext returns the file extension conventionally used for f.
func (f Format) Ext() string {
	for ext, ff := range formatExts {
		if ff == f {
			return ext
		}
	}
	return ""
}

// ParseFormat accepts a format name as produced by String.
func ParseFormat(s string) (Format, error) {
	for i, n := range formatNames {
		if strings.EqualFold(s, n) {
			return Format(i), nil
		}
	}
	return 0, fmt.Errorf("unknown format %q", s)
}

// Compression is an optional stream compression applied around a Format.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
)

var compressionNames = []string{
	None: "none",
	Gzip: "gzip",
	Zstd: "zstd",
}

var compressionExts = map[string]Compression{
	".gz":  Gzip,
	".zst": Zstd,
}

func (c Compression) String() string {
	if c >= 0 && int(c) < len(compressionNames) {
		return compressionNames[c]
	}
	return fmt.Sprintf("Compression(%d)", int(c))
}

// Ext returns the file extension of c, empty for None.
func (c Compression) Ext() string {
	for ext, cc := range compressionExts {
		if cc == c {
			return ext
		}
	}
	return ""
}

// ParseCompression accepts a compression name as produced by String. The
// empty string means None.
func ParseCompression(s string) (Compression, error) {
	if s == "" {
		return None, nil
	}
	for i, n := range compressionNames {
		if strings.EqualFold(s, n) {
			return Compression(i), nil
		}
	}
	return 0, fmt.Errorf("unknown compression %q", s)
}

// DetectFile infers the format and compression of path from its
// extensions, e.g. "exp.cbor.zst" is CBOR compressed with zstd.
func DetectFile(path string) (Format, Compression, error) {
	name := strings.ToLower(filepath.Base(path))
	comp := None
	ext := filepath.Ext(name)
	if c, ok := compressionExts[ext]; ok {
		comp = c
		name = strings.TrimSuffix(name, ext)
		ext = filepath.Ext(name)
	}
	f, ok := formatExts[ext]
	if !ok {
		return 0, 0, fmt.Errorf("cannot infer format of %s", path)
	}
	return f, comp, nil
}

// FileName returns base with the extensions of f and c appended.
func FileName(base string, f Format, c Compression) string {
	return base + f.Ext() + c.Ext()
}
