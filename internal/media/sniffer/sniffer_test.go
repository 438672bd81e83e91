package sniffer

import (
	"bytes"
	"encoding/binary"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelviewer/internal/models"
)

func zipHeader(name string) []byte {
	header := make([]byte, 30)
	copy(header, "PK\x03\x04")
	binary.LittleEndian.PutUint16(header[26:28], uint16(len(name)))
	return append(header, name...)
}

func TestDetectHead(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want MediaType
		kind models.AssetKind
		mime string
	}{
		{"glb", append([]byte("glTF"), 2, 0, 0, 0), TypeGLB, models.AssetKindModel, models.MimeGLTFBinary},
		{"gltf json", []byte(`  {"asset": {"version": "2.0"}, "scenes": []}`), TypeGLTF, models.AssetKindModel, models.MimeGLTFJSON},
		{"fbx binary", []byte("Kaydara FBX Binary  \x00\x1a\x00"), TypeFBX, models.AssetKindModel, models.MimeFBX},
		{"fbx ascii", []byte("; FBX 7.4.0 project file\n"), TypeFBX, models.AssetKindModel, models.MimeFBX},
		{"usdz", zipHeader("scene.usdc"), TypeUSDZ, models.AssetKindModel, models.MimeUSDZ},
		{"usd crate", []byte("PXR-USDC\x00\x00"), TypeUSD, models.AssetKindModel, models.MimeUSD},
		{"usd ascii", []byte("#usda 1.0\n"), TypeUSD, models.AssetKindModel, models.MimeUSD},
		{"collada", []byte(`<?xml version="1.0"?><COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema">`), TypeCollada, models.AssetKindModel, models.MimeCollada},
		{"obj", []byte("# cube\nmtllib cube.mtl\no Cube\nv 1 1 1\nv -1 1 1\nf 1 2 3\n"), TypeOBJ, models.AssetKindModel, models.MimeOBJ},
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0}, TypeJPEG, models.AssetKindPoster, "image/jpeg"},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, TypePNG, models.AssetKindPoster, "image/png"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), TypeWEBP, models.AssetKindPoster, "image/webp"},
		{"svg", []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`), TypeSVG, models.AssetKindPoster, "image/svg+xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := DetectHead(tt.head)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Type)
			assert.Equal(t, tt.kind, result.Kind)
			assert.Equal(t, tt.mime, result.MIME)
		})
	}
}

func TestDetectHead_Unknown(t *testing.T) {
	for _, head := range [][]byte{
		nil,
		[]byte("hello world, this is not a model"),
		zipHeader("document.xml"),
		{0x00, 0x01, 0x02},
	} {
		_, err := DetectHead(head)
		assert.ErrorIs(t, err, ErrUnknownType)
	}
}

func TestDetect_ReturnsHead(t *testing.T) {
	data := append([]byte("glTF"), bytes.Repeat([]byte{1}, HeadSize*2)...)
	result, head, err := Detect(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, TypeGLB, result.Type)
	assert.Len(t, head, HeadSize)
	assert.Equal(t, "glb", result.Extension())
}

func TestCompatible(t *testing.T) {
	glb := Result{Type: TypeGLB, MIME: models.MimeGLTFBinary}
	assert.True(t, Compatible("", glb))
	assert.True(t, Compatible("application/octet-stream", glb))
	assert.True(t, Compatible(models.MimeGLTFBinary, glb))
	assert.False(t, Compatible("image/png", glb))
}

func TestMimeTypeFromHTTP(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Type", "image/png; charset=binary")
	assert.Equal(t, "image/png", MimeTypeFromHTTP(header))
	assert.Equal(t, "", MimeTypeFromHTTP(http.Header{}))
}
