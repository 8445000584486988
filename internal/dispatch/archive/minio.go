package archive

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/autopeer-io/dispatch/pkg/log"
	"github.com/autopeer-io/dispatch/pkg/options"
)

// Bucket stores roster exports in an S3 compatible bucket.
type Bucket struct {
	client *minio.Client
	name   string
	region string
}

// NewMinIOBucket creates a Bucket from opts. No request is made.
func NewMinIOBucket(opts *options.S3Options) (*Bucket, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Development brokers run with self-signed certificates.
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure:    opts.UseSSL,
		Region:    opts.Region,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Bucket{client: client, name: opts.BucketName, region: opts.Region}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (b *Bucket) EnsureBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.name)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	log.Info("Bucket does not exist, creating...", "bucket", b.name)
	if err := b.client.MakeBucket(ctx, b.name, minio.MakeBucketOptions{Region: b.region}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Put uploads payload as a JSON object under key.
func (b *Bucket) Put(ctx context.Context, key string, payload []byte) error {
	_, err := b.client.PutObject(ctx, b.name, key, bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// PresignedURL returns a temporary download URL for key.
func (b *Bucket) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	reqParams := make(url.Values)
	reqParams.Set("response-content-type", "application/json")

	u, err := b.client.PresignedGetObject(ctx, b.name, key, expiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned url: %w", err)
	}
	return u.String(), nil
}

// Locator hands out download links for the latest export of a room.
type Locator struct {
	bucket *Bucket
	prefix string
	expiry time.Duration
}

// NewLocator creates a Locator for exports written under prefix.
func NewLocator(bucket *Bucket, prefix string, expiry time.Duration) *Locator {
	return &Locator{bucket: bucket, prefix: prefix, expiry: expiry}
}

// LatestURL returns a presigned URL of the latest export of room.
func (l *Locator) LatestURL(ctx context.Context, room string) (string, error) {
	return l.bucket.PresignedURL(ctx, LatestKey(l.prefix, room), l.expiry)
}
