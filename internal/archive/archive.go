// Package archive stores completed report payloads in Google Cloud Storage.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/household-reports/internal/domain"
	"google.golang.org/api/option"
)

const uploadTimeout = 2 * time.Minute

// ObjectWriter writes one object to a bucket.
type ObjectWriter interface {
	WriteObject(ctx context.Context, bucket, object string, data []byte) error
}

// Document is the archived form of a completed report.
type Document struct {
	ReportID         string             `json:"reportId"`
	HouseholdID      string             `json:"householdId"`
	Kind             domain.ReportKind  `json:"kind"`
	StartDate        time.Time          `json:"startDate"`
	EndDate          time.Time          `json:"endDate"`
	Currency         string             `json:"currency"`
	TransactionCount int                `json:"transactionCount"`
	Attempt          int64              `json:"attempt"`
	ArchivedAt       time.Time          `json:"archivedAt"`
	Data             *domain.ReportData `json:"data"`
}

// Sink archives completed reports as <prefix>/<household>/<report>.json.
type Sink struct {
	writer ObjectWriter
	bucket string
	prefix string
	now    func() time.Time
}

// NewSink creates an archive sink over an existing writer.
func NewSink(writer ObjectWriter, bucket, prefix string) *Sink {
	return &Sink{
		writer: writer,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
	}
}

// Name implements pipeline.ReportSink.
func (s *Sink) Name() string {
	return "gcs-archive"
}

// ObjectName returns the object path a report is archived under.
func (s *Sink) ObjectName(report *domain.Report) string {
	return path.Join(s.prefix, report.HouseholdID, report.ID+".json")
}

// Publish implements pipeline.ReportSink.
func (s *Sink) Publish(ctx context.Context, report *domain.Report) error {
	if report.Data == nil {
		return fmt.Errorf("Publish: report %s has no data", report.ID)
	}

	doc := Document{
		ReportID:         report.ID,
		HouseholdID:      report.HouseholdID,
		Kind:             report.Kind,
		StartDate:        report.StartDate,
		EndDate:          report.EndDate,
		Currency:         report.Currency,
		TransactionCount: report.TransactionCount,
		Attempt:          report.Attempt,
		ArchivedAt:       s.now().UTC(),
		Data:             report.Data,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("Publish: encoding report: %w", err)
	}

	object := s.ObjectName(report)
	if err := s.writer.WriteObject(ctx, s.bucket, object, data); err != nil {
		return fmt.Errorf("Publish: writing gs://%s/%s: %w", s.bucket, object, err)
	}
	return nil
}

// GCSWriter writes objects with a Cloud Storage client.
type GCSWriter struct {
	client *storage.Client
}

// NewGCSWriter creates a storage client. It uses Application Default Credentials unless
// opts say otherwise.
func NewGCSWriter(ctx context.Context, opts ...option.ClientOption) (*GCSWriter, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSWriter{client: client}, nil
}

// WriteObject uploads data, replacing any existing object.
func (w *GCSWriter) WriteObject(ctx context.Context, bucket, object string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	ow := w.client.Bucket(bucket).Object(object).NewWriter(ctx)
	ow.ContentType = "application/json"

	if _, err := ow.Write(data); err != nil {
		_ = ow.Close()
		return fmt.Errorf("copy payload to GCS writer: %w", err)
	}
	// Close finalizes the upload
	if err := ow.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

// Close releases the storage client.
func (w *GCSWriter) Close() error {
	return w.client.Close()
}
