package sink

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"squeeze/internal/pipeline"
)

// S3Options configures the object storage sink.
type S3Options struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// ObjectPutter is the part of the S3 client the sink uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads results to a bucket under Prefix, keyed by relative path.
type S3 struct {
	client ObjectPutter
	opts   S3Options
}

// NewS3 builds an S3 client from static credentials. Endpoint and
// UsePathStyle allow S3-compatible stores.
func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return NewS3WithClient(client, opts), nil
}

// NewS3WithClient wraps an existing client.
func NewS3WithClient(client ObjectPutter, opts S3Options) *S3 {
	return &S3{client: client, opts: opts}
}

func (s *S3) Put(ctx context.Context, src Source, res *pipeline.Result) (string, error) {
	key := s.key(src.RelPath, res.Name)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.opts.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(res.Data),
		ContentType:   aws.String(res.MIME),
		ContentLength: aws.Int64(res.Size()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return "s3://" + s.opts.Bucket + "/" + key, nil
}

func (s *S3) key(relPath, name string) string {
	key := filepath.ToSlash(withExtension(relPath, filepath.Ext(name)))
	key = strings.TrimPrefix(key, "/")
	if s.opts.Prefix == "" {
		return key
	}
	return path.Join(s.opts.Prefix, key)
}
