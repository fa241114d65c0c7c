package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"policy-agent/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// KindReport is the aggregate outdated/orphaned report of one object kind.
type KindReport struct {
	Kind     string   `json:"kind"`
	Outdated []string `json:"outdated"`
	Orphaned []string `json:"orphaned"`
}

// PassReport is the report of one synchronization pass.
type PassReport struct {
	Pass      string       `json:"pass"`
	StartedAt time.Time    `json:"started_at"`
	Kinds     []KindReport `json:"kinds"`
}

// ReportArchive persists pass reports to object storage.
type ReportArchive struct {
	client storage.Client
	bucket string
	log    *zap.Logger
}

// NewReportArchive creates an archive writing into the given bucket.
func NewReportArchive(client storage.Client, bucket string, log *zap.Logger) *ReportArchive {
	return &ReportArchive{client: client, bucket: bucket, log: log}
}

// Store uploads one pass report as a timestamped JSON object. Failures are
// logged, never propagated: the archive is an ops convenience and must not
// affect the pass.
func (a *ReportArchive) Store(ctx context.Context, report PassReport) {
	payload, err := json.Marshal(report)
	if err != nil {
		a.log.Error("Failed to encode sync report", zap.Error(err))
		return
	}

	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		a.log.Error("Failed to check report bucket", zap.Error(err))
		return
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			a.log.Error("Failed to create report bucket", zap.Error(err))
			return
		}
	}

	name := fmt.Sprintf("reports/%s/sync-%s.json",
		report.StartedAt.UTC().Format("2006/01/02"),
		report.StartedAt.UTC().Format("150405"))

	_, err = a.client.PutObject(ctx, a.bucket, name,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		a.log.Error("Failed to archive sync report",
			zap.String("object", name),
			zap.Error(err),
		)
		return
	}

	a.log.Debug("Archived sync report", zap.String("object", name))
}
