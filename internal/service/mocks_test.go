package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/saturnino-fabrica-de-software/rosto/internal/domain"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(ctx context.Context, record *domain.EnrollmentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockStore) LoadEmbeddings(ctx context.Context) ([][]float32, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockStore) LoadMetadata(ctx context.Context) (*domain.EnrollmentMetadata, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EnrollmentMetadata), args.Error(1)
}

func (m *MockStore) IsEnrolled(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) Validate(ctx context.Context, imageBytes []byte, poseLabel string) domain.FrameOutcome {
	args := m.Called(ctx, imageBytes, poseLabel)
	return args.Get(0).(domain.FrameOutcome)
}
