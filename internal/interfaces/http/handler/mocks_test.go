package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	applisting "github.com/flipledger/backend/internal/application/listing"
	"github.com/flipledger/backend/internal/domain/listing"
	"github.com/flipledger/backend/internal/infrastructure/scheduler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockBatchSubmitter struct {
	mock.Mock
}

func (m *mockBatchSubmitter) SubmitBatch(ctx context.Context, req applisting.BatchRequest) (*applisting.BatchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*applisting.BatchResult), args.Error(1)
}

type mockMappingReader struct {
	mock.Mock
}

func (m *mockMappingReader) FindByDestinationSku(ctx context.Context, sku string) (*listing.ListingMapping, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.ListingMapping), args.Error(1)
}

func (m *mockMappingReader) FindBySourceListing(ctx context.Context, sourceListingID string) (*listing.ListingMapping, error) {
	args := m.Called(ctx, sourceListingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.ListingMapping), args.Error(1)
}

func (m *mockMappingReader) ListActive(ctx context.Context) ([]listing.ListingMapping, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.ListingMapping), args.Error(1)
}

func (m *mockMappingReader) ListAll(ctx context.Context, filter listing.MappingFilter) ([]listing.ListingMapping, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.ListingMapping), args.Error(1)
}

func (m *mockMappingReader) Count(ctx context.Context, filter listing.MappingFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMappingReader) Stats(ctx context.Context) (*listing.MappingStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.MappingStats), args.Error(1)
}

type mockReconcileTrigger struct {
	mock.Mock
}

func (m *mockReconcileTrigger) TriggerNow() (uuid.UUID, error) {
	args := m.Called()
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockReconcileTrigger) History(limit int) []*scheduler.ReconcileJob {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*scheduler.ReconcileJob)
}

var (
	_ BatchSubmitter        = (*mockBatchSubmitter)(nil)
	_ listing.MappingReader = (*mockMappingReader)(nil)
	_ ReconcileTrigger      = (*mockReconcileTrigger)(nil)
)
