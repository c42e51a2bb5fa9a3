// Package s3object implements the existence/checksum verification side
// of verify_file for s3:// destinations, modeled on the teacher's
// S3Client wrapper but stripped of its auto-refreshing-credentials
// machinery, which has no equivalent in this domain.
package s3object

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/cernopendata/coldstorage/internal/backend"
)

// Name is the registry key this backend registers under.
const Name = "s3"

// Backend checks object existence, size and ETag against s3://
// destinations. It does not implement Archive/Stage: submission to the
// cold tier goes through widearea, this backend only verifies what
// landed there.
type Backend struct {
	client   *s3.Client
	endpoint string
}

// New creates a Backend using the default AWS credential chain,
// optionally pointed at an S3-compatible endpoint (e.g. an EOS/CTA-public
// gateway) instead of AWS proper.
func New(ctx context.Context, region, endpoint string) (*Backend, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("s3object: load config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})
	return &Backend{client: client, endpoint: endpoint}, nil
}

// Name returns the registry key.
func (b *Backend) Name() string { return Name }

// Archive is unsupported: the s3object backend only verifies existing
// cold copies, it does not submit transfers.
func (b *Backend) Archive(sourceURL, destURL string) (string, error) {
	return "", fmt.Errorf("s3object: archive not supported, submit via widearea")
}

// Stage is unsupported for the same reason as Archive.
func (b *Backend) Stage(sourceURL, destURL string) (string, error) {
	return "", fmt.Errorf("s3object: stage not supported, submit via widearea")
}

// CheckStatus is unsupported: s3object never issues a job ID.
func (b *Backend) CheckStatus(jobID string) (bool, bool, string, string, error) {
	return false, false, "", "", fmt.Errorf("s3object: no jobs are submitted by this backend")
}

// ExistsFile runs HeadObject against the bucket/key parsed from destURL,
// returning nil (no error) when the object is absent.
func (b *Backend) ExistsFile(destURL string) (*backend.ExistsResult, error) {
	bucket, key, err := parseS3URL(destURL)
	if err != nil {
		return nil, err
	}

	out, err := b.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *smithyhttp.ResponseError
		if errors.As(err, &notFound) && notFound.HTTPStatusCode() == 404 {
			return nil, nil
		}
		if strings.Contains(err.Error(), "NotFound") {
			return nil, nil
		}
		return nil, fmt.Errorf("s3object: head object %s: %w", destURL, err)
	}

	result := &backend.ExistsResult{}
	if out.ContentLength != nil {
		result.Size = *out.ContentLength
	}
	if out.ETag != nil {
		result.Checksum = strings.Trim(*out.ETag, `"`)
	}
	return result, nil
}

// parseS3URL splits "s3://bucket/key/with/slashes" into its bucket and
// key parts.
func parseS3URL(url string) (bucket, key string, err error) {
	const prefix = "s3://"
	if !strings.HasPrefix(url, prefix) {
		return "", "", fmt.Errorf("s3object: not an s3:// URL: %s", url)
	}
	rest := url[len(prefix):]
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("s3object: malformed s3:// URL: %s", url)
	}
	return parts[0], parts[1], nil
}
