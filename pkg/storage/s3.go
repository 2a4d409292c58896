package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Config configures the S3-backed provider. Empty fields fall back to
// the standard AWS config/credential chain.
type S3Config struct {
	Bucket string
	// Prefix is prepended to every object key, e.g. "recipes".
	Prefix string
	// Region to use for requests. If empty, AWS defaults apply.
	Region string
	// Endpoint overrides the S3 endpoint (for S3-compatible providers).
	Endpoint string
	// UsePathStyle forces path-style addressing (needed by some
	// S3-compatible providers).
	UsePathStyle bool
}

// S3Provider stores extraction results as JSON objects in an S3 bucket.
type S3Provider struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 creates an S3 provider using the default AWS configuration
// chain, with optional overrides from cfg.
func NewS3(ctx context.Context, cfg S3Config) (*S3Provider, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Provider{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// UploadOrUpdate writes content to <prefix>/<folder>/<name>, overwriting
// any existing object at that key.
func (p *S3Provider) UploadOrUpdate(ctx context.Context, folder, name string, content []byte) (*File, error) {
	key := path.Join(p.prefix, folder, name)

	exists, err := p.Exists(ctx, folder, name)
	if err != nil {
		return nil, err
	}

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: failed to upload %s: %w", key, err)
	}

	return &File{
		ID:      key,
		URL:     fmt.Sprintf("s3://%s/%s", p.bucket, key),
		Updated: exists,
	}, nil
}

// Exists reports whether an object already exists at folder/name.
func (p *S3Provider) Exists(ctx context.Context, folder, name string) (bool, error) {
	key := path.Join(p.prefix, folder, name)

	_, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return false, nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return false, nil
	}

	return false, fmt.Errorf("storage: failed to check %s: %w", key, err)
}

var _ Provider = (*S3Provider)(nil)
