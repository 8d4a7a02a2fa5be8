package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	infraconfig "github.com/cosmetica/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// S3Scheme prefixes sheet locations served from object storage
const S3Scheme = "s3://"

// ErrInvalidS3URI is returned for locations that are not s3://bucket/key
var ErrInvalidS3URI = errors.New("invalid s3 location")

// S3Location identifies an object in a bucket
type S3Location struct {
	Bucket string
	Key    string
}

// IsS3URI reports whether location uses the s3:// scheme
func IsS3URI(location string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(location)), S3Scheme)
}

// ParseS3URI splits s3://bucket/key into its parts
func ParseS3URI(location string) (S3Location, error) {
	u, err := url.Parse(strings.TrimSpace(location))
	if err != nil {
		return S3Location{}, fmt.Errorf("%w: %v", ErrInvalidS3URI, err)
	}
	if !strings.EqualFold(u.Scheme, "s3") {
		return S3Location{}, fmt.Errorf("%w: scheme must be s3", ErrInvalidS3URI)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" || strings.HasSuffix(key, "/") {
		return S3Location{}, fmt.Errorf("%w: expected s3://bucket/key, got %q", ErrInvalidS3URI, location)
	}
	return S3Location{Bucket: u.Host, Key: key}, nil
}

// objectGetter is the subset of the S3 client the source uses
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3SheetSource downloads sheets from S3 or any S3-compatible store
type S3SheetSource struct {
	client objectGetter
	logger *zap.Logger
}

// S3SheetSourceOption is a functional option for configuring S3SheetSource
type S3SheetSourceOption func(*S3SheetSource)

// WithLogger sets a custom logger for S3SheetSource
func WithLogger(logger *zap.Logger) S3SheetSourceOption {
	return func(s *S3SheetSource) {
		s.logger = logger
	}
}

// NewS3SheetSource creates a source from configuration. Without static keys
// the default AWS credential chain is used.
func NewS3SheetSource(ctx context.Context, cfg *infraconfig.StorageConfig, opts ...S3SheetSourceOption) (*S3SheetSource, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, errors.New("storage access key id and secret access key must be set together")
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint != "" {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return newS3SheetSource(client, opts...), nil
}

func newS3SheetSource(client objectGetter, opts ...S3SheetSourceOption) *S3SheetSource {
	source := &S3SheetSource{
		client: client,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(source)
	}
	return source
}

// Open fetches the object behind location. The returned name is the key's
// base name, so the file extension still selects the reader.
func (s *S3SheetSource) Open(ctx context.Context, location string) (string, io.ReadCloser, error) {
	loc, err := ParseS3URI(location)
	if err != nil {
		return "", nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return "", nil, &SheetNotFoundError{Name: location, Tried: []string{location}}
		}
		return "", nil, fmt.Errorf("failed to fetch %s: %w", location, err)
	}

	s.logger.Info("Fetched sheet from object storage",
		zap.String("bucket", loc.Bucket),
		zap.String("key", loc.Key),
		zap.Int64("size", aws.ToInt64(out.ContentLength)),
	)
	return path.Base(loc.Key), out.Body, nil
}
