// Package codec persists experiment trees as JSON, CBOR or protobuf wire
// format, optionally wrapped in gzip or zstd compression.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
	"github.com/antonmeskildsen/tracker-tools/internal/fsutil"
)

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	cborEnc, err = cbor.EncOptions{
		Sort: cbor.SortCanonical,
		Time: cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(err)
	}
	cborDec, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Marshal serialises exp in format f.
func Marshal(exp *experiment.Experiment, f Format) ([]byte, error) {
	switch f {
	case JSON:
		return json.Marshal(exp)
	case CBOR:
		return cborEnc.Marshal(exp)
	case Proto:
		return marshalProto(exp), nil
	default:
		return nil, fmt.Errorf("marshal: unsupported format %v", f)
	}
}

// Unmarshal decodes data produced by Marshal with the same format.
func Unmarshal(data []byte, f Format) (*experiment.Experiment, error) {
	var (
		exp experiment.Experiment
		err error
	)
	switch f {
	case JSON:
		err = json.Unmarshal(data, &exp)
	case CBOR:
		err = cborDec.Unmarshal(data, &exp)
	case Proto:
		err = unmarshalProto(data, &exp)
	default:
		return nil, fmt.Errorf("unmarshal: unsupported format %v", f)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal %v: %w", f, err)
	}
	return &exp, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// compressWriter wraps w so that bytes written are compressed with c. The
// caller must Close the result to flush it; w itself is not closed.
func compressWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		return zstd.NewWriter(w)
	default:
		return nil, fmt.Errorf("unsupported compression %v", c)
	}
}

func decompressReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		return gzip.NewReader(r)
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported compression %v", c)
	}
}

// Encode writes exp to w in format f compressed with c.
func Encode(w io.Writer, exp *experiment.Experiment, f Format, c Compression) error {
	data, err := Marshal(exp, f)
	if err != nil {
		return err
	}
	cw, err := compressWriter(w, c)
	if err != nil {
		return err
	}
	if _, err := cw.Write(data); err != nil {
		cw.Close()
		return fmt.Errorf("write %v: %w", c, err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("flush %v: %w", c, err)
	}
	return nil
}

// Decode reads an experiment written by Encode with the same settings.
func Decode(r io.Reader, f Format, c Compression) (*experiment.Experiment, error) {
	cr, err := decompressReader(r, c)
	if err != nil {
		return nil, fmt.Errorf("open %v stream: %w", c, err)
	}
	defer cr.Close()
	data, err := io.ReadAll(cr)
	if err != nil {
		return nil, fmt.Errorf("read %v stream: %w", c, err)
	}
	return Unmarshal(data, f)
}

// EncodeBytes is Encode into a fresh buffer.
func EncodeBytes(exp *experiment.Experiment, f Format, c Compression) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, exp, f, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeBytes is Decode from an in-memory payload.
func DecodeBytes(data []byte, f Format, c Compression) (*experiment.Experiment, error) {
	return Decode(bytes.NewReader(data), f, c)
}

// WriteFile stores exp at path, choosing format and compression from the
// file's extensions.
func WriteFile(fsys fsutil.FileSystem, path string, exp *experiment.Experiment) error {
	f, c, err := DetectFile(path)
	if err != nil {
		return err
	}
	data, err := EncodeBytes(exp, f, c)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return fsys.WriteFile(path, data, 0o644)
}

// ReadFile loads an experiment stored by WriteFile.
func ReadFile(fsys fsutil.FileSystem, path string) (*experiment.Experiment, error) {
	f, c, err := DetectFile(path)
	if err != nil {
		return nil, err
	}
	rc, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	exp, err := Decode(rc, f, c)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return exp, nil
}
