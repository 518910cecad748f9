package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"docgateway/internal/admission"
	"docgateway/internal/config"
	"docgateway/internal/model"
	"docgateway/internal/remote"
	"docgateway/internal/storage"
)

var (
	ErrMissingFile      = errors.New("file is required")
	ErrMissingFields    = errors.New("document reference and question are required")
	ErrDocumentNotFound = errors.New("document not found")
)

// Upload is a candidate file as received from the transport layer.
type Upload struct {
	Reader       io.Reader
	OriginalName string
	ContentType  string
	Size         int64
}

// AskRequest carries a question and the document it refers to. Which of DocumentReference
// and DocumentText is read depends on the deployment's ask mode.
type AskRequest struct {
	DocumentReference string `json:"documentReference" form:"documentReference"`
	DocumentText      string `json:"document_text" form:"document_text"`
	Question          string `json:"question" form:"question"`
}

// Options fix the per-deployment behaviour of the pipeline.
type Options struct {
	Admission admission.Policy
	// CleanupPolicy is config.CleanupRetain or config.CleanupDelete.
	CleanupPolicy string
	// AskMode is config.AskModeReference or config.AskModeText.
	AskMode string
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Ingest admits and stages the upload, has the remote service process it and returns the
	// remote result together with the staged file's identity. The staged file is then disposed
	// of according to the cleanup policy, whatever the outcome.
	Ingest(ctx context.Context, up *Upload) (*model.IngestResult, error)

	// Ask forwards a question about a previously ingested file or raw text.
	Ask(ctx context.Context, req AskRequest) (model.AnswerResult, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store  storage.TransientStore
	remote remote.Client
	opts   Options
	log    *zap.Logger
	now    func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.TransientStore, rc remote.Client, opts Options, log *zap.Logger) DocumentService {
	if opts.CleanupPolicy == "" {
		opts.CleanupPolicy = config.CleanupRetain
	}
	if opts.AskMode == "" {
		opts.AskMode = config.AskModeReference
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &documentService{store: store, remote: rc, opts: opts, log: log, now: time.Now}
}

func (s *documentService) Ingest(ctx context.Context, up *Upload) (*model.IngestResult, error) {
	if up == nil || up.Reader == nil {
		return nil, ErrMissingFile
	}
	if err := s.opts.Admission.Admit(up.ContentType, up.Size); err != nil {
		return nil, err
	}

	receivedAt := s.now().UTC()
	name := admission.StoredName(up.OriginalName, receivedAt)
	obj, err := s.store.Write(ctx, name, s.opts.Admission.LimitReader(up.Reader), storage.WriteOptions{
		Size:         up.Size,
		ContentType:  up.ContentType,
		OriginalName: up.OriginalName,
	})
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	defer s.dispose(ctx, obj.Name)

	file := model.UploadedFile{
		StoredPath:   obj.Path,
		Filename:     obj.Name,
		OriginalName: up.OriginalName,
		MimeType:     up.ContentType,
		SizeBytes:    obj.Size,
		ReceivedAt:   receivedAt,
	}

	res, err := s.remote.SubmitDocument(ctx, file.StoredPath)
	if err != nil {
		return nil, err
	}
	return &model.IngestResult{File: file, Result: res}, nil
}

// dispose applies the cleanup policy to a staged file. It runs on every exit path
// after a successful write and outlives client cancellation.
func (s *documentService) dispose(ctx context.Context, name string) {
	if s.opts.CleanupPolicy != config.CleanupDelete {
		s.log.Debug("staged_file_retained", zap.String("file", name))
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.store.Delete(ctx, name); err != nil {
		s.log.Warn("staged_file_delete_failed", zap.String("file", name), zap.Error(err))
	}
}

func (s *documentService) Ask(ctx context.Context, req AskRequest) (model.AnswerResult, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrMissingFields
	}

	q := model.Question{Question: question}
	switch s.opts.AskMode {
	case config.AskModeText:
		if strings.TrimSpace(req.DocumentText) == "" {
			return nil, ErrMissingFields
		}
		q.DocumentText = req.DocumentText
	default:
		ref := strings.TrimSpace(req.DocumentReference)
		if ref == "" {
			return nil, ErrMissingFields
		}
		if err := storage.ValidateName(ref); err != nil {
			return nil, err
		}
		obj, err := s.store.Stat(ctx, ref)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ErrDocumentNotFound
			}
			return nil, fmt.Errorf("resolve document reference: %w", err)
		}
		q.FilePath = obj.Path
	}

	return s.remote.SubmitQuestion(ctx, q)
}
