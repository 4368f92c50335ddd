// Package archive exports dashboard reports as JSON snapshots to S3
// compatible object storage.
package archive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/aiwu-analytics/pkg/analytics"
)

var tracer = otel.Tracer("aiwu/archive")

// ChecksumMetadataKey is the object metadata entry holding the hex SHA-256
// of the body.
const ChecksumMetadataKey = "checksum-sha256"

// Config holds object storage settings.
type Config struct {
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string // custom endpoint, e.g. MinIO
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	CreateBucket bool // create the bucket when missing, for local development
}

// objectAPI is the subset of *s3.Client used here.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// Recorder receives upload outcomes. *observability.Metrics satisfies it.
type Recorder interface {
	ObserveArchive(err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveArchive(error) {}

// Snapshot describes an uploaded report.
type Snapshot struct {
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	Size     int    `json:"size"`
	Checksum string `json:"checksum_sha256"`
}

// S3Archiver writes report snapshots to a bucket.
type S3Archiver struct {
	client   objectAPI
	bucket   string
	prefix   string
	recorder Recorder
	now      func() time.Time
	newID    func() string
}

// NewS3Archiver builds an AWS SDK client from cfg. Static credentials are
// used when both keys are set, otherwise the default credential chain.
func NewS3Archiver(ctx context.Context, cfg Config, recorder Recorder) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	a := newArchiver(client, cfg, recorder)
	if cfg.CreateBucket {
		if err := a.ensureBucket(ctx); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func newArchiver(client objectAPI, cfg Config, recorder Recorder) *S3Archiver {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &S3Archiver{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		recorder: recorder,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// ObjectKey is <prefix>/<date_from>_<date_to>/<timestamp>-<id>.json.
func (a *S3Archiver) ObjectKey(report *analytics.DashboardReport, at time.Time, id string) string {
	name := fmt.Sprintf("%s-%s.json", at.UTC().Format("20060102T150405Z"), id)
	window := report.Filters.DateFrom + "_" + report.Filters.DateTo
	if a.prefix == "" {
		return path.Join(window, name)
	}
	return path.Join(a.prefix, window, name)
}

// Archive uploads report as JSON and returns where it was written.
func (a *S3Archiver) Archive(ctx context.Context, report *analytics.DashboardReport) (snap *Snapshot, err error) {
	defer func() { a.recorder.ObserveArchive(err) }()

	key := a.ObjectKey(report, a.now(), a.newID())
	ctx, span := tracer.Start(ctx, "S3.PutObject",
		trace.WithAttributes(
			attribute.String("s3.operation", "PutObject"),
			attribute.String("s3.bucket", a.bucket),
			attribute.String("s3.key", key),
		),
	)
	defer span.End()

	data, err := json.Marshal(report)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode report")
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	span.SetAttributes(attribute.Int("content.size", len(data)))

	hash := sha256.Sum256(data)
	checksum := hex.EncodeToString(hash[:])

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			ChecksumMetadataKey: checksum,
			"date-from":         report.Filters.DateFrom,
			"date-to":           report.Filters.DateTo,
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload to s3")
		return nil, fmt.Errorf("failed to upload to s3: %w", err)
	}

	span.SetStatus(codes.Ok, "snapshot uploaded")
	return &Snapshot{Bucket: a.bucket, Key: key, Size: len(data), Checksum: checksum}, nil
}

func (a *S3Archiver) ensureBucket(ctx context.Context) error {
	if _, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)}); err == nil {
		return nil
	}

	_, err := a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil && !isBucketAlreadyExists(err) {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func isBucketAlreadyExists(err error) bool {
	var exists *types.BucketAlreadyExists
	var owned *types.BucketAlreadyOwnedByYou
	return errors.As(err, &exists) || errors.As(err, &owned)
}
