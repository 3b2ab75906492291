package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFile(t *testing.T) {
	tests := []struct {
		path    string
		format  Format
		comp    Compression
		wantErr bool
	}{
		{path: "exp.json", format: JSON, comp: None},
		{path: "/data/run1/exp.cbor", format: CBOR, comp: None},
		{path: "exp.pb", format: Proto, comp: None},
		{path: "exp.json.gz", format: JSON, comp: Gzip},
		{path: "exp.cbor.zst", format: CBOR, comp: Zstd},
		{path: "EXP.PB.ZST", format: Proto, comp: Zstd},
		{path: "exp.asc", wantErr: true},
		{path: "exp.gz", wantErr: true},
		{path: "exp", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f, c, err := DetectFile(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.format, f)
			assert.Equal(t, tt.comp, c)
		})
	}
}

func TestParseNames(t *testing.T) {
	for _, f := range []Format{JSON, CBOR, Proto} {
		got, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	got, err := ParseFormat("CBOR")
	require.NoError(t, err)
	assert.Equal(t, CBOR, got)
	_, err = ParseFormat("xml")
	assert.Error(t, err)

	for _, c := range []Compression{None, Gzip, Zstd} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	comp, err := ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, None, comp)
	_, err = ParseCompression("lz4")
	assert.Error(t, err)

	assert.Equal(t, "Format(7)", Format(7).String())
	assert.Equal(t, "Compression(7)", Compression(7).String())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "exp.cbor.zst", FileName("exp", CBOR, Zstd))
	assert.Equal(t, "exp.json", FileName("exp", JSON, None))
	assert.Equal(t, "exp.pb.gz", FileName("exp", Proto, Gzip))
}
