// Package s3svc is the read-only object store client of the ingestion pipeline.
package s3svc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sgaunet/s3ingest/pkg/config"
)

const requestTimeout = 30 * time.Second

// Service is the struct for the S3 service
type Service struct {
	cfg         config.S3Config
	awsS3Client *s3.Client
	profile     ProviderProfile
	signer      *Signer
	log         *slog.Logger
}

// Option customizes a Service.
type Option func(*options)

type options struct {
	profiles   Profiles
	httpClient aws.HTTPClient
}

// WithProfiles replaces the built-in provider table.
func WithProfiles(p Profiles) Option {
	return func(o *options) {
		o.profiles = p
	}
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(c aws.HTTPClient) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// NewS3Svc creates a new S3 service for cfg.
// The provider profile is detected from the endpoint and decides the signing region,
// unless cfg.SigningRegion overrides it.
// By default the logger is set to write to /dev/null
func NewS3Svc(ctx context.Context, cfg config.S3Config, opts ...Option) (*Service, error) {
	o := options{profiles: DefaultProfiles()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = awshttp.NewBuildableClient().WithTimeout(requestTimeout)
	}

	profile := o.profiles.Detect(cfg.Endpoint)
	region := cfg.SigningRegion
	if region == "" {
		region = profile.SigningRegion(cfg.Endpoint)
	}
	signer := NewSigner(cfg.AccessKey, cfg.SecretKey, region)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
		awsconfig.WithHTTPClient(o.httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("error loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(opt *s3.Options) {
		if cfg.Endpoint != "" {
			opt.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		opt.UsePathStyle = true
		opt.HTTPSignerV4 = signer
		opt.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		opt.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return &Service{
		cfg:         cfg,
		awsS3Client: client,
		profile:     profile,
		signer:      signer,
		log:         slog.New(slog.DiscardHandler),
	}, nil
}

// SetLogger sets the logger
func (s *Service) SetLogger(log *slog.Logger) {
	s.log = log
}

// Profile returns the provider profile detected for the endpoint.
func (s *Service) Profile() ProviderProfile {
	return s.profile
}

// Signer returns the signer used for every request of the service.
func (s *Service) Signer() *Signer {
	return s.signer
}
