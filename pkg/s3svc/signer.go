package s3svc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

const (
	signingService = "s3"

	headerContentSha256 = "X-Amz-Content-Sha256"
	headerDate          = "X-Amz-Date"
	headerAuthorization = "Authorization"
	headerHost          = "Host"
)

// Signer computes SigV4 signatures for a single region.
// It is the one place where the signing region can deviate from what the client resolved.
type Signer struct {
	signer *v4.Signer
	creds  aws.Credentials
	region string
	now    func() time.Time
}

// NewSigner returns a signer for the given static credentials and region.
func NewSigner(accessKey, secretKey, region string) *Signer {
	return &Signer{
		signer: v4.NewSigner(func(o *v4.SignerOptions) {
			o.DisableURIPathEscaping = true
		}),
		creds: aws.Credentials{
			AccessKeyID:     accessKey,
			SecretAccessKey: secretKey,
			Source:          "s3ingest",
		},
		region: region,
		now:    time.Now,
	}
}

// Region is the region every request is signed for.
func (s *Signer) Region() string {
	return s.region
}

// SignHTTP satisfies the HTTPSignerV4 option of the S3 client.
// The region resolved by the client is replaced by the signer's own.
func (s *Signer) SignHTTP(ctx context.Context, credentials aws.Credentials, r *http.Request,
	payloadHash string, service string, _ string, signingTime time.Time,
	optFns ...func(*v4.SignerOptions)) error {
	return s.signer.SignHTTP(ctx, credentials, r, payloadHash, service, s.region, signingTime, optFns...)
}

// SignInput is a request to sign outside of the SDK.
type SignInput struct {
	Method string
	URL    string
	Body   []byte
}

// Sign returns the authentication header set of a request:
// Authorization, X-Amz-Content-Sha256, X-Amz-Date and Host.
// The signed header list is always host;x-amz-content-sha256;x-amz-date.
func (s *Signer) Sign(ctx context.Context, in SignInput) (http.Header, error) {
	method := in.Method
	if method == "" {
		method = http.MethodGet
	}
	// The body only contributes through its hash, so content-length stays out of the signed headers.
	req, err := http.NewRequestWithContext(ctx, method, in.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request to sign: %w", err)
	}
	sum := sha256.Sum256(in.Body)
	payloadHash := hex.EncodeToString(sum[:])
	req.Header.Set(headerContentSha256, payloadHash)

	if err := s.signer.SignHTTP(ctx, s.creds, req, payloadHash, signingService, s.region, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	out := make(http.Header, 4)
	out.Set(headerAuthorization, req.Header.Get(headerAuthorization))
	out.Set(headerContentSha256, payloadHash)
	out.Set(headerDate, req.Header.Get(headerDate))
	out.Set(headerHost, req.URL.Host)
	return out, nil
}
