package models

import "time"

type AssetStatus string

const (
	AssetStatusProcessing AssetStatus = "processing"
	AssetStatusReady      AssetStatus = "ready"
	AssetStatusRejected   AssetStatus = "rejected"
)

type AssetKind string

const (
	AssetKindModel  AssetKind = "model"
	AssetKindPoster AssetKind = "poster"
)

// Asset is an uploaded file referenced by model records through its ID.
type Asset struct {
	ID        string
	OwnerID   string
	Bucket    string
	ObjectKey string
	Filename  string
	MimeType  string
	Extension string
	Kind      AssetKind
	SizeBytes int64
	Checksum  []byte
	Status    AssetStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
