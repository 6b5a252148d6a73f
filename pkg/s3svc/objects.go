package s3svc

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sgaunet/s3ingest/pkg/dto"
)

const (
	// MaxPageKeys is the largest page a list request may ask for.
	MaxPageKeys = 1000
	// MaxListPages bounds the number of list requests of one ListObjects call.
	MaxListPages = 100
)

// ListObjects returns up to maxKeys objects under prefix, following continuation tokens.
// A maxKeys of zero or less only stops on the page ceiling.
// A failure on the first page returns ErrList. A failure on a later page is logged
// and the objects gathered so far are returned, unless ctx is done: a cancelled or
// expired listing returns the context error and no objects.
func (s *Service) ListObjects(ctx context.Context, prefix string, maxKeys int) ([]dto.S3Object, error) {
	result := []dto.S3Object{}
	var token *string

	for page := range MaxListPages {
		pageSize := MaxPageKeys
		if maxKeys > 0 {
			pageSize = min(maxKeys-len(result), MaxPageKeys)
		}
		input := &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.cfg.Bucket),
			MaxKeys:           aws.Int32(int32(pageSize)),
			ContinuationToken: token,
		}
		if prefix != "" {
			input.Prefix = aws.String(prefix)
		}

		out, err := s.awsS3Client.ListObjectsV2(ctx, input)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("ListObjects interrupted on page %d: %w", page, ctxErr)
			}
			err = classifyError("ListObjectsV2", err)
			if page == 0 {
				return nil, fmt.Errorf("%w: %w", ErrList, err)
			}
			s.log.Warn("ListObjects: page failed, keeping partial result",
				slog.String("prefix", prefix),
				slog.Int("page", page),
				slog.Int("objects", len(result)),
				slog.String("error", err.Error()))
			return result, nil
		}

		for _, obj := range out.Contents {
			result = append(result, dto.S3Object{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
			if maxKeys > 0 && len(result) >= maxKeys {
				return result, nil
			}
		}

		if !aws.ToBool(out.IsTruncated) || aws.ToString(out.NextContinuationToken) == "" {
			return result, nil
		}
		token = out.NextContinuationToken
	}

	s.log.Warn("ListObjects: page ceiling reached",
		slog.String("prefix", prefix),
		slog.Int("pages", MaxListPages),
		slog.Int("objects", len(result)))
	return result, nil
}

// GetObject downloads key and returns its content.
func (s *Service) GetObject(ctx context.Context, key string) ([]byte, error) {
	out, err := s.awsS3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, key, classifyError("GetObject", err))
	}
	defer func() {
		if closeErr := out.Body.Close(); closeErr != nil {
			s.log.Debug("GetObject: error closing body", slog.String("key", key), slog.String("error", closeErr.Error()))
		}
	}()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading body: %w", ErrFetch, key, err)
	}
	return body, nil
}
