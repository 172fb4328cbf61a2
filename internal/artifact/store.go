package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
)

const s3Scheme = "s3://"

// S3API is the subset of the S3 client used for artifacts.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds connection settings for S3 or an S3-compatible service.
type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// NewS3Client builds an S3 client. Static credentials are used when an access
// key is set, otherwise the default AWS chain applies.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.Endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(cfg.Endpoint))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     cfg.AccessKey,
					SecretAccessKey: cfg.SecretKey,
				}, nil
			})))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.Endpoint != ""
	}), nil
}

// Store reads and writes artifacts on local disk or S3.
type Store struct {
	s3 S3API
}

// NewStore returns a Store. client may be nil when only local paths are used.
func NewStore(client S3API) *Store {
	return &Store{s3: client}
}

// splitS3 parses s3://bucket/key.
func splitS3(location string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(location, s3Scheme) {
		return "", "", false
	}
	rest := strings.TrimPrefix(location, s3Scheme)
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// IsS3 reports whether location names an S3 object.
func IsS3(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

// Read returns the bytes at location.
func (s *Store) Read(ctx context.Context, location string) ([]byte, error) {
	if !IsS3(location) {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", location, err)
		}
		return data, nil
	}
	bucket, key, ok := splitS3(location)
	if !ok {
		return nil, fmt.Errorf("%w: malformed location %q", ErrInvalidArtifact, location)
	}
	if s.s3 == nil {
		return nil, fmt.Errorf("read %s: s3 is not configured", location)
	}
	out, err := s.s3.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", location, err)
	}
	defer func() {
		_ = out.Body.Close()
	}()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}

// Write stores data at location, creating parent directories for local paths.
func (s *Store) Write(ctx context.Context, location string, data []byte) error {
	if !IsS3(location) {
		if dir := filepath.Dir(location); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(location, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", location, err)
		}
		return nil
	}
	bucket, key, ok := splitS3(location)
	if !ok {
		return fmt.Errorf("%w: malformed location %q", ErrInvalidArtifact, location)
	}
	if s.s3 == nil {
		return fmt.Errorf("write %s: s3 is not configured", location)
	}
	_, err := s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", location, err)
	}
	return nil
}

// LoadResponses reads captured raw responses from location.
func (s *Store) LoadResponses(ctx context.Context, location string) ([]models.RawResponse, error) {
	data, err := s.Read(ctx, location)
	if err != nil {
		return nil, err
	}
	return DecodeResponses(data)
}

// LoadCanonical reads and validates a canonical artifact from location.
func (s *Store) LoadCanonical(ctx context.Context, location string) (models.Artifact, error) {
	data, err := s.Read(ctx, location)
	if err != nil {
		return models.Artifact{}, err
	}
	return DecodeCanonical(data)
}

// SaveCanonical writes a canonical artifact to location.
func (s *Store) SaveCanonical(ctx context.Context, location string, a models.Artifact) error {
	data, err := MarshalCanonical(a)
	if err != nil {
		return err
	}
	return s.Write(ctx, location, data)
}
