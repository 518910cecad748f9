package mocks

import (
	"context"

	"docgateway/internal/model"
	"docgateway/internal/remote"

	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

var _ remote.Client = (*MockClient)(nil)

func (m *MockClient) SubmitDocument(ctx context.Context, filePath string) (model.ProcessingResult, error) {
	args := m.Called(ctx, filePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.ProcessingResult), args.Error(1)
}

func (m *MockClient) SubmitQuestion(ctx context.Context, q model.Question) (model.AnswerResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.AnswerResult), args.Error(1)
}
