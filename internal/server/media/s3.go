// Package media uploads user images to S3-compatible object storage.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/google/uuid"
)

// File is an uploaded image.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, f File) (string, error)
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) putObjectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Config selects the bucket and credentials.
type S3Config struct {
	RootUser      string
	RootPassword  string
	Bucket        string
	Region        string
	BaseEndpoint  string
	PublicBaseURL string
}

type S3Uploader struct {
	client        putObjectAPI
	bucket        string
	publicBaseURL string
	now           func() time.Time
}

// NewS3Uploader builds an uploader with static credentials and path-style
// addressing, which MinIO requires.
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.RootUser,
			cfg.RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return newS3Uploader(client, cfg.Bucket, cfg.PublicBaseURL), nil
}

func newS3Uploader(client putObjectAPI, bucket, publicBaseURL string) *S3Uploader {
	return &S3Uploader{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

// StorageKey returns a unique object key that keeps the file extension.
func StorageKey(now time.Time, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("images/%d/%02d/%02d/%s%s", now.Year(), now.Month(), now.Day(), uuid.New(), ext)
}

func (u *S3Uploader) Upload(ctx context.Context, f File) (string, error) {
	if f.Body == nil {
		return "", fmt.Errorf("%w: empty file", common.ErrMediaUpload)
	}

	key := StorageKey(u.now().UTC(), f.Name)
	in := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   f.Body,
	}
	if f.ContentType != "" {
		in.ContentType = aws.String(f.ContentType)
	}
	if f.Size > 0 {
		in.ContentLength = aws.Int64(f.Size)
	}

	if _, err := u.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("%w: put object: %w", common.ErrMediaUpload, err)
	}
	return u.publicBaseURL + "/" + u.bucket + "/" + key, nil
}
