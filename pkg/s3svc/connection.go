package s3svc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// CheckCredentials validates the connection strings against the detected provider.
func (s *Service) CheckCredentials() error {
	var missing []string
	if s.cfg.Endpoint == "" {
		missing = append(missing, "endpoint")
	}
	if s.cfg.AccessKey == "" {
		missing = append(missing, "access key")
	}
	if s.cfg.SecretKey == "" {
		missing = append(missing, "secret key")
	}
	if s.cfg.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingCredentials, missing)
	}

	p := s.profile
	if p.AccessKeyLen > 0 && len(s.cfg.AccessKey) != p.AccessKeyLen {
		return fmt.Errorf("%w: %s access keys are %d characters, got %d",
			ErrCredentialLength, p.Name, p.AccessKeyLen, len(s.cfg.AccessKey))
	}
	if p.SecretKeyLen > 0 && len(s.cfg.SecretKey) != p.SecretKeyLen {
		return fmt.Errorf("%w: %s secret keys are %d characters, got %d",
			ErrCredentialLength, p.Name, p.SecretKeyLen, len(s.cfg.SecretKey))
	}
	return nil
}

// TestConnection checks the credentials then lists a single key as a live check.
// Errors are one of ErrMissingCredentials, ErrCredentialLength, ErrNetwork or *StatusError.
func (s *Service) TestConnection(ctx context.Context) (string, error) {
	if err := s.CheckCredentials(); err != nil {
		return "", err
	}

	out, err := s.awsS3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.cfg.Bucket),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		err = classifyError("ListObjectsV2", err)
		s.log.Error("Connection test failed",
			slog.String("provider", s.profile.Name),
			slog.String("error", err.Error()))
		return "", err
	}

	count := len(out.Contents)
	msg := fmt.Sprintf("Connection successful (%s, region %s): %d object(s) found",
		s.profile.Name, s.signer.Region(), count)
	s.log.Info("Connection test succeeded", slog.String("provider", s.profile.Name), slog.Int("objects", count))
	return msg, nil
}

// IsConfigError reports whether err comes from the connection strings rather than the store.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrMissingCredentials) || errors.Is(err, ErrCredentialLength)
}
