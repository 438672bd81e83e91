package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"modelviewer/internal/ids"
	"modelviewer/internal/media/sniffer"
	"modelviewer/internal/media/svg"
	"modelviewer/internal/metrics"
	"modelviewer/internal/models"
	"modelviewer/internal/queue"
	"modelviewer/internal/uploadgate"
)

var (
	ErrInvalidUpload   = errors.New("invalid file payload")
	ErrEmptyFile       = errors.New("empty file")
	ErrFileTooLarge    = errors.New("file exceeds the maximum upload size")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTypeMismatch    = errors.New("file content does not match its type")
	ErrTypeNotAllowed  = errors.New("file type is not allowed")
)

// ObjectWriter stores uploaded files.
type ObjectWriter interface {
	Bucket() string
	Put(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) (int64, error)
	PublicURL(bucket, objectKey string) string
}

type TaskQueue interface {
	Enqueue(ctx context.Context, task queue.Task) error
}

type UploadInput struct {
	User   models.User
	File   io.Reader
	Header *multipart.FileHeader
}

type UploadResult struct {
	Asset models.Asset
	URL   string
}

type UploadService struct {
	assets   AssetStore
	store    ObjectWriter
	queue    TaskQueue
	defaults DefaultsSource
	metrics  *metrics.Collector
	log      zerolog.Logger
	now      func() time.Time
}

func NewUploadService(assets AssetStore, store ObjectWriter, tasks TaskQueue, defaults DefaultsSource, collector *metrics.Collector, log zerolog.Logger) *UploadService {
	return &UploadService{
		assets:   assets,
		store:    store,
		queue:    tasks,
		defaults: defaults,
		metrics:  collector,
		log:      log,
		now:      time.Now,
	}
}

// AcceptedTypes is the extension to MIME map the upload endpoint accepts for
// model files.
func (s *UploadService) AcceptedTypes(ctx context.Context) map[string]string {
	return uploadgate.ExtendAcceptedTypes(nil, s.defaults.GetDefaults(ctx))
}

// Upload validates and stores a model file or poster image. Model files must
// pass the allow-list in the viewer defaults, posters must be images, and the
// detected content must agree with both the file name and the declared type.
func (s *UploadService) Upload(ctx context.Context, input UploadInput) (UploadResult, error) {
	result, err := s.upload(ctx, input)
	if err != nil {
		s.metrics.RecordUpload("unknown", "rejected", 0)
		return UploadResult{}, err
	}
	s.metrics.RecordUpload(result.Asset.Extension, "ok", result.Asset.SizeBytes)
	return result, nil
}

func (s *UploadService) upload(ctx context.Context, input UploadInput) (UploadResult, error) {
	if input.File == nil || input.Header == nil {
		return UploadResult{}, ErrInvalidUpload
	}
	defaults := s.defaults.GetDefaults(ctx)
	limit := defaults.MaxFileSizeBytes()
	if input.Header.Size > limit {
		return UploadResult{}, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, input.Header.Size, limit)
	}

	data, err := io.ReadAll(io.LimitReader(input.File, limit+1))
	if err != nil {
		return UploadResult{}, fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return UploadResult{}, ErrEmptyFile
	}
	if int64(len(data)) > limit {
		return UploadResult{}, fmt.Errorf("%w: limit %d", ErrFileTooLarge, limit)
	}

	detected, err := sniffer.DetectHead(data[:min(len(data), sniffer.HeadSize)])
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %s", ErrUnsupportedType, input.Header.Filename)
	}

	declared := sniffer.MimeTypeFromHTTP(http.Header(input.Header.Header))
	if !sniffer.Compatible(declared, detected) {
		return UploadResult{}, fmt.Errorf("%w: declared %s, actual %s", ErrTypeMismatch, declared, detected.MIME)
	}
	if !extensionMatches(input.Header.Filename, detected) {
		return UploadResult{}, fmt.Errorf("%w: %s is %s", ErrTypeMismatch, input.Header.Filename, detected.Type)
	}
	if detected.Kind == models.AssetKindModel {
		if _, ok := uploadgate.Accepts(defaults, detected.Extension()); !ok {
			return UploadResult{}, fmt.Errorf("%w: %s", ErrTypeNotAllowed, detected.Type)
		}
	}

	if detected.Type == sniffer.TypeSVG {
		clean, err := svg.Sanitize(data)
		if err != nil {
			return UploadResult{}, fmt.Errorf("sanitize svg: %w", err)
		}
		data = clean
	}

	assetID := ids.New()
	objectKey := s.buildObjectKey(detected.Kind, assetID, detected.Extension())

	size, err := s.store.Put(ctx, objectKey, bytes.NewReader(data), int64(len(data)), detected.MIME)
	if err != nil {
		return UploadResult{}, fmt.Errorf("put object: %w", err)
	}

	sum := sha256.Sum256(data)
	now := s.now().UTC()
	asset := models.Asset{
		ID:        assetID,
		OwnerID:   input.User.ID,
		Bucket:    s.store.Bucket(),
		ObjectKey: objectKey,
		Filename:  path.Base(input.Header.Filename),
		MimeType:  detected.MIME,
		Extension: detected.Extension(),
		Kind:      detected.Kind,
		SizeBytes: size,
		Checksum:  sum[:],
		Status:    models.AssetStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		return UploadResult{}, fmt.Errorf("save metadata: %w", err)
	}

	if err := s.queue.Enqueue(ctx, queue.Task{
		Type:    queue.TaskIngest,
		AssetID: asset.ID,
		Bucket:  asset.Bucket,
		Object:  asset.ObjectKey,
		Format:  asset.Extension,
	}); err != nil {
		s.log.Warn().Err(err).Str("asset_id", asset.ID).Msg("enqueue ingest failed")
	}

	s.log.Info().
		Str("asset_id", asset.ID).
		Str("type", string(detected.Type)).
		Int64("size", size).
		Msg("asset uploaded")

	return UploadResult{
		Asset: asset,
		URL:   s.store.PublicURL(asset.Bucket, objectKey),
	}, nil
}

func (s *UploadService) buildObjectKey(kind models.AssetKind, assetID, ext string) string {
	datePrefix := s.now().UTC().Format("2006/01/02")
	return path.Join(string(kind)+"s", datePrefix, fmt.Sprintf("%s.%s", assetID, ext))
}

// extensionMatches compares the uploaded file name with the detected type.
func extensionMatches(filename string, detected sniffer.Result) bool {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	switch detected.Type {
	case sniffer.TypeJPEG:
		return ext == "jpg" || ext == "jpeg"
	case sniffer.TypeUSD:
		return ext == "usd" || ext == "usda" || ext == "usdc"
	}
	return ext == detected.Extension()
}
