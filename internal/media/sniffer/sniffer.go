package sniffer

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net/http"
	"strings"

	"modelviewer/internal/models"
)

type MediaType string

const (
	TypeGLB     MediaType = "glb"
	TypeGLTF    MediaType = "gltf"
	TypeOBJ     MediaType = "obj"
	TypeFBX     MediaType = "fbx"
	TypeCollada MediaType = "dae"
	TypeUSDZ    MediaType = "usdz"
	TypeUSD     MediaType = "usd"

	TypeJPEG MediaType = "jpeg"
	TypePNG  MediaType = "png"
	TypeWEBP MediaType = "webp"
	TypeSVG  MediaType = "svg"
)

// HeadSize is how many leading bytes detection looks at.
const HeadSize = 4096

var ErrUnknownType = errors.New("unknown media type")

type Result struct {
	Type MediaType
	MIME string
	Kind models.AssetKind
}

// Extension is the file extension stored objects get for this type.
func (r Result) Extension() string {
	if r.Type == TypeJPEG {
		return "jpg"
	}
	return string(r.Type)
}

func Detect(r io.Reader) (Result, []byte, error) {
	head := make([]byte, HeadSize)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Result{}, nil, err
	}
	head = head[:n]

	result, err := DetectHead(head)
	return result, head, err
}

func DetectHead(head []byte) (Result, error) {
	if len(head) == 0 {
		return Result{}, ErrUnknownType
	}

	switch {
	case isGLB(head):
		return model(TypeGLB, models.MimeGLTFBinary), nil
	case isFBX(head):
		return model(TypeFBX, models.MimeFBX), nil
	case isUSDZ(head):
		return model(TypeUSDZ, models.MimeUSDZ), nil
	case isUSD(head):
		return model(TypeUSD, models.MimeUSD), nil
	case isJPEG(head):
		return poster(TypeJPEG, "image/jpeg"), nil
	case isPNG(head):
		return poster(TypePNG, "image/png"), nil
	case isWEBP(head):
		return poster(TypeWEBP, "image/webp"), nil
	}

	if !isText(head) {
		return Result{}, ErrUnknownType
	}
	switch {
	case isGLTF(head):
		return model(TypeGLTF, models.MimeGLTFJSON), nil
	case isCollada(head):
		return model(TypeCollada, models.MimeCollada), nil
	case isSVG(head):
		return poster(TypeSVG, "image/svg+xml"), nil
	case isOBJ(head):
		return model(TypeOBJ, models.MimeOBJ), nil
	}

	return Result{}, ErrUnknownType
}

func model(t MediaType, mime string) Result {
	return Result{Type: t, MIME: mime, Kind: models.AssetKindModel}
}

func poster(t MediaType, mime string) Result {
	return Result{Type: t, MIME: mime, Kind: models.AssetKindPoster}
}

func isGLB(head []byte) bool {
	return bytes.HasPrefix(head, []byte("glTF"))
}

func isFBX(head []byte) bool {
	return bytes.HasPrefix(head, []byte("Kaydara FBX Binary")) ||
		bytes.HasPrefix(bytes.TrimSpace(head), []byte("; FBX"))
}

// isUSDZ checks for a zip archive whose first entry is a USD layer.
func isUSDZ(head []byte) bool {
	if len(head) < 30 || !bytes.HasPrefix(head, []byte("PK\x03\x04")) {
		return false
	}
	nameLen := int(binary.LittleEndian.Uint16(head[26:28]))
	if len(head) < 30+nameLen {
		return false
	}
	name := strings.ToLower(string(head[30 : 30+nameLen]))
	return strings.HasSuffix(name, ".usd") || strings.HasSuffix(name, ".usdc") || strings.HasSuffix(name, ".usda")
}

func isUSD(head []byte) bool {
	return bytes.HasPrefix(head, []byte("PXR-USDC")) || bytes.HasPrefix(head, []byte("#usda"))
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WEBP"))
}

func isText(head []byte) bool {
	return !bytes.ContainsRune(head, 0)
}

func isGLTF(head []byte) bool {
	trimmed := bytes.TrimSpace(head)
	if !bytes.HasPrefix(trimmed, []byte("{")) {
		return false
	}
	for _, key := range []string{`"asset"`, `"scenes"`, `"meshes"`, `"buffers"`} {
		if bytes.Contains(trimmed, []byte(key)) {
			return true
		}
	}
	return false
}

func isCollada(head []byte) bool {
	return bytes.Contains(head, []byte("<COLLADA"))
}

func isSVG(head []byte) bool {
	trimmed := strings.TrimSpace(string(head))
	if strings.HasPrefix(trimmed, "<svg") {
		return true
	}
	return strings.HasPrefix(trimmed, "<?xml") && strings.Contains(trimmed, "<svg")
}

// isOBJ accepts text whose statements are Wavefront OBJ keywords.
func isOBJ(head []byte) bool {
	if idx := bytes.LastIndexByte(head, '\n'); idx > 0 && len(head) == HeadSize {
		head = head[:idx]
	}
	scanner := bufio.NewScanner(bytes.NewReader(head))
	vertices := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keyword, _, _ := strings.Cut(line, " ")
		switch keyword {
		case "v", "vt", "vn", "vp":
			vertices++
		case "f", "o", "g", "s", "l", "mtllib", "usemtl":
		default:
			return false
		}
	}
	return vertices > 0
}

func MimeTypeFromHTTP(header http.Header) string {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		return ""
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		return strings.TrimSpace(contentType[:idx])
	}
	return strings.TrimSpace(contentType)
}

// Compatible reports whether a client-declared content type agrees with the
// detected one. Browsers label most 3D formats as generic binary, so an empty
// or generic declaration is accepted.
func Compatible(declared string, result Result) bool {
	switch declared {
	case "", "application/octet-stream", "binary/octet-stream":
		return true
	}
	return declared == result.MIME
}
