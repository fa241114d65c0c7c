package inventory

import (
	"context"
	"testing"
	"time"

	"policy-agent/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func passReportAt(t time.Time) PassReport {
	return PassReport{
		Pass:      "shallow",
		StartedAt: t,
		Kinds: []KindReport{
			{Kind: "security_groups", Outdated: []string{"sg-1"}},
		},
	}
}

func TestReportArchive_Store(t *testing.T) {
	client := new(mocks.Client)
	archive := NewReportArchive(client, "sync-reports", zap.NewNop())

	started := time.Date(2026, 8, 26, 14, 30, 5, 0, time.UTC)
	client.On("BucketExists", mock.Anything, "sync-reports").Return(true, nil)
	client.On("PutObject", mock.Anything, "sync-reports",
		"reports/2026/08/26/sync-143005.json",
		mock.Anything, mock.AnythingOfType("int64"), mock.Anything).
		Return(minio.UploadInfo{}, nil)

	archive.Store(context.Background(), passReportAt(started))
	client.AssertExpectations(t)
}

func TestReportArchive_Store_CreatesMissingBucket(t *testing.T) {
	client := new(mocks.Client)
	archive := NewReportArchive(client, "sync-reports", zap.NewNop())

	client.On("BucketExists", mock.Anything, "sync-reports").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "sync-reports", mock.Anything).Return(nil)
	client.On("PutObject", mock.Anything, "sync-reports", mock.Anything,
		mock.Anything, mock.AnythingOfType("int64"), mock.Anything).
		Return(minio.UploadInfo{}, nil)

	archive.Store(context.Background(), passReportAt(time.Now()))
	client.AssertExpectations(t)
}

func TestReportArchive_Store_PutFailureIsSwallowed(t *testing.T) {
	client := new(mocks.Client)
	archive := NewReportArchive(client, "sync-reports", zap.NewNop())

	client.On("BucketExists", mock.Anything, "sync-reports").Return(true, nil)
	client.On("PutObject", mock.Anything, "sync-reports", mock.Anything,
		mock.Anything, mock.AnythingOfType("int64"), mock.Anything).
		Return(minio.UploadInfo{}, assert.AnError)

	// The archive is an ops convenience; a failed upload must not panic or
	// propagate into the pass.
	archive.Store(context.Background(), passReportAt(time.Now()))
	client.AssertExpectations(t)
}

func TestReportArchive_Store_BucketCheckFailureSkipsUpload(t *testing.T) {
	client := new(mocks.Client)
	archive := NewReportArchive(client, "sync-reports", zap.NewNop())

	client.On("BucketExists", mock.Anything, "sync-reports").Return(false, assert.AnError)

	archive.Store(context.Background(), passReportAt(time.Now()))
	client.AssertNotCalled(t, "PutObject",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
