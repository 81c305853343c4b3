// Package snapshot uploads a point-in-time copy of the local user directory
// to S3-compatible object storage.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/usersync/internal/logging"
	"github.com/dmitrijs2005/usersync/internal/models"
	"github.com/google/uuid"
)

// Settings locate the bucket and hold static credentials.
type Settings struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// NewS3Client builds a path-style client for s.
func NewS3Client(ctx context.Context, s Settings) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.AccessKey,
			s.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.BaseEndpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// ObjectPutter is the part of *s3.Client the exporter uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// RecordLister supplies the records to export.
type RecordLister interface {
	List(ctx context.Context) ([]models.UserRecord, error)
}

// Document is the uploaded JSON body.
type Document struct {
	Role    string   `json:"role"`
	TakenAt int64    `json:"taken_at"`
	Count   int      `json:"count"`
	Records []string `json:"records"`
}

type Exporter struct {
	client ObjectPutter
	bucket string
	role   string
	log    logging.Logger
	now    func() time.Time
}

func NewExporter(client ObjectPutter, bucket, role string, l logging.Logger) *Exporter {
	return &Exporter{
		client: client,
		bucket: bucket,
		role:   role,
		log:    l.With("module", "snapshot"),
		now:    time.Now,
	}
}

// Key returns the object key for a snapshot taken at t.
func (e *Exporter) Key(t time.Time) string {
	return fmt.Sprintf("snapshots/%s/%s-%s.json", e.role, t.UTC().Format("20060102T150405Z"), uuid.NewString())
}

// Export uploads the current contents of src and returns the object key.
func (e *Exporter) Export(ctx context.Context, src RecordLister) (string, error) {
	records, err := src.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list records: %w", err)
	}

	now := e.now()
	doc := Document{
		Role:    e.role,
		TakenAt: now.UnixMilli(),
		Count:   len(records),
		Records: models.EncodeTuples(records),
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}

	key := e.Key(now)
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	e.log.Info(ctx, "snapshot uploaded", "bucket", e.bucket, "key", key, "count", len(records))
	return key, nil
}
