// Package attachments stores entry photos in S3-compatible object
// storage. Photos added before an entry's first save live under a
// temporary prefix keyed by the draft id; after the entry is created
// they are relocated under the real entry id.
package attachments

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sethvargo/go-retry"

	"github.com/gabenodland/trace-sub002/internal/client/models"
	"github.com/gabenodland/trace-sub002/internal/logging"
)

// Config carries the object storage settings (MinIO in development).
type Config struct {
	Region       string
	BaseEndpoint string
	Bucket       string
	RootUser     string // MINIO_ROOT_USER
	RootPassword string // MINIO_ROOT_PASSWORD
}

// objectAPI is the slice of the S3 client the store uses. Tests provide
// a fake.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps pending and saved attachment objects in one bucket.
type S3Store struct {
	api    objectAPI
	bucket string
	log    logging.Logger
}

func NewS3Store(ctx context.Context, cfg Config, log logging.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.RootUser,
			cfg.RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{api: client, bucket: cfg.Bucket, log: log.With("module", "attachments")}, nil
}

// PendingKey is where a photo lives before its entry exists.
func PendingKey(tempID, attachmentID string) string {
	return fmt.Sprintf("pending/%s/%s", tempID, attachmentID)
}

// EntryKey is a photo's permanent home once its entry is persisted.
func EntryKey(entryID, attachmentID string) string {
	return fmt.Sprintf("entries/%s/%s", entryID, attachmentID)
}

// UploadPending uploads a local file under the draft's pending prefix and
// returns the pending attachment descriptor the editor keeps until the
// first save.
func (s *S3Store) UploadPending(ctx context.Context, tempID string, p models.PendingAttachment) (models.PendingAttachment, error) {
	f, err := os.Open(p.LocalPath)
	if err != nil {
		return p, fmt.Errorf("open %s: %w", p.LocalPath, err)
	}
	defer f.Close()

	key := PendingKey(tempID, p.ID)
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(p.MimeType),
	})
	if err != nil {
		return p, fmt.Errorf("upload pending: %w", err)
	}

	p.StorageKey = key
	s.log.Debug(ctx, "pending photo uploaded", "key", key, "bytes", p.ByteSize)
	return p, nil
}

// MovePending relocates one pending object under its entry's permanent
// prefix. S3 has no rename, so this is a copy followed by a delete of the
// source; each step retries transient failures with a short backoff. When
// the copy succeeded but the delete did not, the move still counts: the
// permanent object exists and the orphaned pending object is harmless.
func (s *S3Store) MovePending(ctx context.Context, tempID, realID string, p models.PendingAttachment) (models.Attachment, error) {
	src := p.StorageKey
	if src == "" {
		src = PendingKey(tempID, p.ID)
	}
	dst := EntryKey(realID, p.ID)

	copySource := url.PathEscape(s.bucket + "/" + src)

	err := s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.api.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:     aws.String(s.bucket),
			Key:        aws.String(dst),
			CopySource: aws.String(copySource),
		})
		return err
	})
	if err != nil {
		return models.Attachment{}, fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}

	err = s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(src),
		})
		return err
	})
	if err != nil {
		s.log.Warn(ctx, "pending object left behind after copy", "key", src, "error", err.Error())
	}

	return models.Attachment{
		ID:         p.ID,
		EntryID:    realID,
		StorageKey: dst,
		MimeType:   p.MimeType,
		ByteSize:   p.ByteSize,
		Width:      p.Width,
		Height:     p.Height,
		Position:   p.Position,
	}, nil
}

// DeletePending discards a photo the user removed before saving.
func (s *S3Store) DeletePending(ctx context.Context, tempID string, p models.PendingAttachment) error {
	key := p.StorageKey
	if key == "" {
		key = PendingKey(tempID, p.ID)
	}
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete pending: %w", err)
	}
	return nil
}

func (s *S3Store) withRetry(ctx context.Context, op func(context.Context) error) error {
	b := retry.WithMaxRetries(3, retry.NewFibonacci(200*time.Millisecond))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := op(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
