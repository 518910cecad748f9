package mocks

import (
	"context"

	"docgateway/internal/model"
	"docgateway/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

var _ service.DocumentService = (*MockDocumentService)(nil)

func (m *MockDocumentService) Ingest(ctx context.Context, up *service.Upload) (*model.IngestResult, error) {
	args := m.Called(ctx, up)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.IngestResult), args.Error(1)
}

func (m *MockDocumentService) Ask(ctx context.Context, req service.AskRequest) (model.AnswerResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.AnswerResult), args.Error(1)
}
