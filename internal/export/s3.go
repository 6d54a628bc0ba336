package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bookmate/bookmate-server/internal/awscfg"
	"github.com/bookmate/bookmate-server/internal/config"
)

// LinkExpiry is how long a download link stays valid.
const LinkExpiry = 15 * time.Minute

// ErrNoBucket is returned when uploads are not configured.
var ErrNoBucket = errors.New("export: no bucket configured")

// ObjectAPI is the subset of the S3 client used for uploads.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Presigner signs download links.
type Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Upload describes a stored export.
type Upload struct {
	Bucket    string    `json:"bucket"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Uploader stores CSV exports in a bucket.
type Uploader struct {
	objects ObjectAPI
	presign Presigner
	bucket  string
	prefix  string
	now     func() time.Time
}

// NewUploader creates an uploader over the given clients.
func NewUploader(objects ObjectAPI, presign Presigner, bucket, prefix string) *Uploader {
	return &Uploader{
		objects: objects,
		presign: presign,
		bucket:  bucket,
		prefix:  prefix,
		now:     time.Now,
	}
}

// NewS3Uploader builds an uploader from configuration. A custom endpoint
// switches to path-style addressing for MinIO and LocalStack.
func NewS3Uploader(ctx context.Context, awsCfg config.AWSConfig, exp config.ExportConfig) (*Uploader, error) {
	if exp.Bucket == "" {
		return nil, ErrNoBucket
	}
	cfg, err := awscfg.Load(ctx, awsCfg)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if ep := awscfg.Endpoint(awsCfg); ep != nil {
			o.BaseEndpoint = ep
			o.UsePathStyle = true
		}
	})
	return NewUploader(client, s3.NewPresignClient(client), exp.Bucket, exp.Prefix), nil
}

// Put stores data under <prefix><userID>/<UTC timestamp>.csv and returns a
// presigned download link.
func (u *Uploader) Put(ctx context.Context, userID string, data []byte) (*Upload, error) {
	if u.bucket == "" {
		return nil, ErrNoBucket
	}
	now := u.now().UTC()
	key := fmt.Sprintf("%s%s/%s.csv", u.prefix, userID, now.Format("20060102T150405Z"))

	_, err := u.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(ContentType),
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	req, err := u.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(LinkExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}

	return &Upload{
		Bucket:    u.bucket,
		Key:       key,
		URL:       req.URL,
		ExpiresAt: now.Add(LinkExpiry),
	}, nil
}
