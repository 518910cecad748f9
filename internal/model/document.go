package model

import (
	"encoding/json"
	"time"
)

// UploadedFile represents an upload staged in the transient store.
// The transient store owns the underlying file; any holder must tolerate it being gone.
type UploadedFile struct {
	StoredPath   string    `json:"filePath"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	SizeBytes    int64     `json:"sizeBytes"`
	ReceivedAt   time.Time `json:"receivedAt"`
}

// ProcessingResult is the opaque payload returned by the remote service for an ingestion call.
type ProcessingResult map[string]any

// AnswerResult is the opaque payload returned by the remote service for a question.
type AnswerResult = json.RawMessage

// Question is a question-answering request toward the remote service.
// Exactly one of FilePath and DocumentText is set, depending on the deployment's ask mode.
type Question struct {
	FilePath     string `json:"file_path,omitempty"`
	DocumentText string `json:"document_text,omitempty"`
	Question     string `json:"question"`
}

// IngestResult couples the remote result with the identity of the staged file.
type IngestResult struct {
	File   UploadedFile
	Result ProcessingResult
}

// MarshalJSON flattens the remote result and echoes the file identity fields a client
// needs to reference this upload in a later question.
func (r IngestResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Result)+3)
	for k, v := range r.Result {
		out[k] = v
	}
	out["filePath"] = r.File.StoredPath
	out["filename"] = r.File.Filename
	out["originalName"] = r.File.OriginalName
	return json.Marshal(out)
}
