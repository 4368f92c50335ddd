package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/aiwu-analytics/pkg/analytics"
)

type fakeS3 struct {
	objects      map[string][]byte
	metadata     map[string]map[string]string
	buckets      map[string]bool
	putErr       error
	createErr    error
	createCalled int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects:  map[string][]byte{},
		metadata: map[string]map[string]string{},
		buckets:  map[string]bool{},
	}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = body
	f.metadata[key] = in.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.buckets[aws.ToString(in.Bucket)] {
		return &s3.HeadBucketOutput{}, nil
	}
	return nil, &types.NotFound{}
}

func (f *fakeS3) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.createCalled++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.buckets[aws.ToString(in.Bucket)] = true
	return &s3.CreateBucketOutput{}, nil
}

type recorder struct{ errs []error }

func (r *recorder) ObserveArchive(err error) { r.errs = append(r.errs, err) }

func testArchiver(client objectAPI, prefix string, rec Recorder) *S3Archiver {
	a := newArchiver(client, Config{Bucket: "reports", Prefix: prefix}, rec)
	a.now = func() time.Time { return time.Date(2025, 3, 15, 6, 0, 0, 0, time.UTC) }
	a.newID = func() string { return "abc" }
	return a
}

func report() *analytics.DashboardReport {
	return &analytics.DashboardReport{
		Filters: analytics.Filters{DateFrom: "2025-03-01", DateTo: "2025-03-10", Plan: "all"},
	}
}

func TestArchiveUploadsSnapshot(t *testing.T) {
	fake := newFakeS3()
	rec := &recorder{}
	a := testArchiver(fake, "/daily/", rec)

	snap, err := a.Archive(context.Background(), report())
	require.NoError(t, err)
	assert.Equal(t, "reports", snap.Bucket)
	assert.Equal(t, "daily/2025-03-01_2025-03-10/20250315T060000Z-abc.json", snap.Key)

	body := fake.objects["reports/"+snap.Key]
	require.NotEmpty(t, body)
	assert.Equal(t, len(body), snap.Size)

	sum := sha256.Sum256(body)
	assert.Equal(t, hex.EncodeToString(sum[:]), snap.Checksum)
	assert.Equal(t, snap.Checksum, fake.metadata["reports/"+snap.Key][ChecksumMetadataKey])

	var decoded analytics.DashboardReport
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "2025-03-10", decoded.Filters.DateTo)

	require.Len(t, rec.errs, 1)
	assert.NoError(t, rec.errs[0])
}

func TestArchiveWithoutPrefix(t *testing.T) {
	a := testArchiver(newFakeS3(), "", nil)
	key := a.ObjectKey(report(), time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), "id")
	assert.Equal(t, "2025-03-01_2025-03-10/20250102T030405Z-id.json", key)
}

func TestArchiveUploadFailure(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("access denied")
	rec := &recorder{}
	a := testArchiver(fake, "p", rec)

	snap, err := a.Archive(context.Background(), report())
	assert.Nil(t, snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload to s3")
	require.Len(t, rec.errs, 1)
	assert.Error(t, rec.errs[0])
}

func TestEnsureBucket(t *testing.T) {
	t.Run("creates missing bucket", func(t *testing.T) {
		fake := newFakeS3()
		a := testArchiver(fake, "", nil)
		require.NoError(t, a.ensureBucket(context.Background()))
		assert.True(t, fake.buckets["reports"])
		assert.Equal(t, 1, fake.createCalled)
	})

	t.Run("existing bucket is left alone", func(t *testing.T) {
		fake := newFakeS3()
		fake.buckets["reports"] = true
		a := testArchiver(fake, "", nil)
		require.NoError(t, a.ensureBucket(context.Background()))
		assert.Zero(t, fake.createCalled)
	})

	t.Run("creation race is tolerated", func(t *testing.T) {
		fake := newFakeS3()
		fake.createErr = &types.BucketAlreadyOwnedByYou{}
		a := testArchiver(fake, "", nil)
		assert.NoError(t, a.ensureBucket(context.Background()))
	})

	t.Run("other creation errors surface", func(t *testing.T) {
		fake := newFakeS3()
		fake.createErr = errors.New("forbidden")
		a := testArchiver(fake, "", nil)
		assert.Error(t, a.ensureBucket(context.Background()))
	})
}

func TestNewS3ArchiverRequiresBucket(t *testing.T) {
	_, err := NewS3Archiver(context.Background(), Config{Region: "us-east-1"}, nil)
	assert.Error(t, err)
}

func TestNewS3ArchiverStaticCredentials(t *testing.T) {
	a, err := NewS3Archiver(context.Background(), Config{
		Bucket:       "reports",
		Region:       "us-east-1",
		Endpoint:     "http://localhost:9000",
		AccessKey:    "minio",
		SecretKey:    "minio123",
		UsePathStyle: true,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "reports", a.bucket)
}
