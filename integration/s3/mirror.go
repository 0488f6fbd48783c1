package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/PoeBlu/ssl/certstore"
)

const defaultPrefix = "certificates/"

// Compile-time check that Mirror implements certstore.Mirror
var _ certstore.Mirror = (*Mirror)(nil)

// S3Client defines the interface for S3 operations used by Mirror.
type S3Client interface {
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
}

// Mirror replicates certificate artifacts to an S3 bucket after each
// successful issuance or renewal, so fresh instances and disaster recovery
// have an off-host copy to pull from.
type Mirror struct {
	client S3Client
	bucket string
	prefix string
}

// Config contains settings for the S3 mirror, loadable from environment
// variables. Endpoint and ForcePathStyle support S3-compatible services like
// MinIO and Wasabi.
type Config struct {
	Bucket         string `env:"SSL_S3_BUCKET"`
	Region         string `env:"SSL_S3_REGION" envDefault:"us-east-1"`
	AccessKeyID    string `env:"SSL_S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"SSL_S3_SECRET_KEY"`
	Endpoint       string `env:"SSL_S3_ENDPOINT"`
	Prefix         string `env:"SSL_S3_PREFIX" envDefault:"certificates/"`
	ForcePathStyle bool   `env:"SSL_S3_FORCE_PATH_STYLE" envDefault:"false"`
}

// Option defines a function that configures a Mirror.
type Option func(*mirrorOptions)

type mirrorOptions struct {
	client S3Client
}

// WithClient sets a custom pre-configured S3 client.
// Primarily used for testing with mocks, but also allows advanced client
// customization.
func WithClient(client S3Client) Option {
	return func(o *mirrorOptions) {
		o.client = client
	}
}

// New creates an S3 mirror. Without WithClient, an AWS client is built from
// the config; static credentials are used when provided, otherwise the
// default credential chain applies.
func New(ctx context.Context, cfg Config, opts ...Option) (*Mirror, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}

	options := &mirrorOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(options)
	}

	client := options.client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}

		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions,
				config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretKey,
					"",
				)),
			)
		}

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		client = s3aws.NewFromConfig(awsConfig, func(o *s3aws.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle
		})
	}

	prefix := strings.TrimPrefix(cfg.Prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &Mirror{
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
	}, nil
}

// Put uploads one artifact under the configured prefix. The name is the
// store's file name, domain.key or chained.pem.
func (m *Mirror) Put(ctx context.Context, name string, data []byte) error {
	_, err := m.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(m.prefix + name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/x-pem-file"),
	})
	if err != nil {
		return classifyError(err, "replicate "+name)
	}
	return nil
}
