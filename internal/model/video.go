package model

import "time"

type TranscodeStatus string

const (
	TranscodeIdle        TranscodeStatus = "idle"
	TranscodePreparing   TranscodeStatus = "preparing"
	TranscodeCompressing TranscodeStatus = "compressing"
	TranscodeSuccess     TranscodeStatus = "success"
	TranscodeError       TranscodeStatus = "error"
	TranscodeCancelled   TranscodeStatus = "cancelled"
)

// VideoCompressionMetadata describes one finished (or fallback)
// compression run; it travels with the owning StoredAnswer.
type VideoCompressionMetadata struct {
	OriginalName         string    `json:"originalName"`
	OriginalSize         int64     `json:"originalSize"`
	CompressedSize       int64     `json:"compressedSize"`
	CompressionPercent   float64   `json:"compressionPercent"`
	DurationSeconds      float64   `json:"durationSeconds,omitempty"`
	MimeType             string    `json:"mimeType"`
	ApproxRealtimeFactor float64   `json:"approxRealtimeFactor,omitempty"`
	StartedAt            time.Time `json:"startedAt"`
	FinishedAt           time.Time `json:"finishedAt,omitempty"`
}

// VideoCompressionPayload bundles the upload-ready file, the untouched
// original and the compression metadata as one unit.
type VideoCompressionPayload struct {
	File         FileRef                  `json:"file"`
	OriginalFile FileRef                  `json:"originalFile"`
	Metadata     VideoCompressionMetadata `json:"metadata"`
}

// TranscodeRecord is the audit row written for every terminal transcode.
type TranscodeRecord struct {
	BaseModel
	SessionID          string  `gorm:"size:64;index" json:"sessionId"`
	QuestionID         string  `gorm:"size:64" json:"questionId"`
	OriginalName       string  `gorm:"size:255" json:"originalName"`
	OriginalSize       int64   `json:"originalSize"`
	CompressedSize     int64   `json:"compressedSize"`
	CompressionPercent float64 `json:"compressionPercent"`
	DurationSeconds    float64 `json:"durationSeconds"`
	State              string  `gorm:"size:20" json:"state"`
	Detail             string  `gorm:"type:text" json:"detail,omitempty"`
}

func (TranscodeRecord) TableName() string {
	return "transcode_records"
}
