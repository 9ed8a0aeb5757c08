// Package transport implements the remote object-storage contract the
// backup pipeline depends on: negotiate an upload target, put bytes,
// negotiate a download reference, get bytes.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"buildflow/internal/buildflow"
	"buildflow/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// downloadRefTTL bounds how long a negotiated download reference stays
// usable.
const downloadRefTTL = 15 * time.Minute

// S3Transport stores backups in an S3 bucket. Uploads go through the SDK
// upload manager under an optional key prefix; download references are
// presigned GET URLs, fetched with a plain HTTP client, so a reference can
// also be handed to something that has no AWS credentials.
type S3Transport struct {
	client   *s3.Client
	presign  *s3.PresignClient
	uploader *manager.Uploader
	httpc    *http.Client
	bucket   string
	prefix   string
}

// NewS3Transport builds an S3 transport from config. Credentials come from
// the default AWS chain unless a static access key is configured. A custom
// endpoint switches to path-style addressing for minio-compatible stores.
func NewS3Transport(ctx context.Context, cfg config.TransportConfig) (*S3Transport, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 transport requires s3_bucket to be set")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Transport{
		client:   client,
		presign:  s3.NewPresignClient(client),
		uploader: manager.NewUploader(client),
		httpc:    &http.Client{Timeout: 60 * time.Second},
		bucket:   cfg.S3Bucket,
		prefix:   cfg.S3Prefix,
	}, nil
}

// RequestUploadTarget computes the object key for a named object under a
// folder namespace. The key doubles as the upload destination: PutBytes
// uploads to it with the SDK.
func (t *S3Transport) RequestUploadTarget(_ context.Context, filename, _, folder string) (*buildflow.UploadTarget, error) {
	key := path.Join(t.prefix, folder, filename)
	return &buildflow.UploadTarget{
		UploadDestination: key,
		PublicRef:         key,
	}, nil
}

// PutBytes uploads data to the given object key.
func (t *S3Transport) PutBytes(ctx context.Context, uploadDestination string, data []byte, contentType string) error {
	_, err := t.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(t.bucket),
		Key:         aws.String(uploadDestination),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("%w: uploading %s: %v", buildflow.ErrTransportFailure, uploadDestination, err)
	}
	return nil
}

// RequestDownloadTarget returns a presigned GET URL for a stored key.
func (t *S3Transport) RequestDownloadTarget(ctx context.Context, key string) (string, error) {
	req, err := t.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(downloadRefTTL))
	if err != nil {
		return "", fmt.Errorf("%w: presigning %s: %v", buildflow.ErrTransportFailure, key, err)
	}
	return req.URL, nil
}

// GetBytes fetches the object behind a presigned URL.
func (t *S3Transport) GetBytes(ctx context.Context, downloadRef string) ([]byte, error) {
	if !strings.HasPrefix(downloadRef, "http://") && !strings.HasPrefix(downloadRef, "https://") {
		return nil, fmt.Errorf("%w: download reference is not a URL", buildflow.ErrTransportFailure)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadRef, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", buildflow.ErrTransportFailure, err)
	}
	resp, err := t.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching snapshot: %v", buildflow.ErrTransportFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetching snapshot: status %d", buildflow.ErrTransportFailure, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading snapshot body: %v", buildflow.ErrTransportFailure, err)
	}
	return data, nil
}

// ValidateSetup verifies the bucket is reachable with the configured
// credentials.
func (t *S3Transport) ValidateSetup(ctx context.Context) error {
	_, err := t.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(t.bucket),
	})
	if err != nil {
		return fmt.Errorf("%w: bucket %s not accessible: %v", buildflow.ErrTransportFailure, t.bucket, err)
	}
	return nil
}

// Compile-time check that S3Transport implements the Transport interface
var _ buildflow.Transport = (*S3Transport)(nil)
