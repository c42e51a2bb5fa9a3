// Package azureblob implements the existence/checksum verification side
// of verify_file for azblob:// destinations, the second reference
// cold-tier object store alongside s3object, modeled on the teacher's
// AzureClient wrapper without its auto-refreshing-credentials machinery.
package azureblob

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/cernopendata/coldstorage/internal/backend"
)

// Name is the registry key this backend registers under.
const Name = "azure"

// Backend checks blob existence, size and content-MD5 against
// azblob:// destinations. Like s3object, it does not implement
// Archive/Stage: submission goes through widearea.
type Backend struct {
	client *azblob.Client
}

// New creates a Backend for the storage account at accountURL, using an
// anonymous client with no credential attached.
func New(accountURL string) (*Backend, error) {
	client, err := azblob.NewClientWithNoCredential(accountURL, nil)
	if err != nil {
		return nil, fmt.Errorf("azureblob: new client: %w", err)
	}
	return &Backend{client: client}, nil
}

// Name returns the registry key.
func (b *Backend) Name() string { return Name }

// Archive is unsupported: azureblob only verifies existing cold copies.
func (b *Backend) Archive(sourceURL, destURL string) (string, error) {
	return "", fmt.Errorf("azureblob: archive not supported, submit via widearea")
}

// Stage is unsupported for the same reason as Archive.
func (b *Backend) Stage(sourceURL, destURL string) (string, error) {
	return "", fmt.Errorf("azureblob: stage not supported, submit via widearea")
}

// CheckStatus is unsupported: azureblob never issues a job ID.
func (b *Backend) CheckStatus(jobID string) (bool, bool, string, string, error) {
	return false, false, "", "", fmt.Errorf("azureblob: no jobs are submitted by this backend")
}

// ExistsFile fetches blob properties for the container/blob parsed from
// destURL, returning nil (no error) when the blob is absent.
func (b *Backend) ExistsFile(destURL string) (*backend.ExistsResult, error) {
	container, blobName, err := parseAzblobURL(destURL)
	if err != nil {
		return nil, err
	}

	props, err := b.client.ServiceClient().NewContainerClient(container).NewBlobClient(blobName).GetProperties(context.Background(), nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == 404 {
			return nil, nil
		}
		if strings.Contains(err.Error(), "BlobNotFound") {
			return nil, nil
		}
		return nil, fmt.Errorf("azureblob: get properties %s: %w", destURL, err)
	}

	result := &backend.ExistsResult{}
	if props.ContentLength != nil {
		result.Size = *props.ContentLength
	}
	if len(props.ContentMD5) > 0 {
		result.Checksum = fmt.Sprintf("%x", props.ContentMD5)
	}
	return result, nil
}

// parseAzblobURL splits "azblob://container/blob/with/slashes" into its
// container and blob name parts.
func parseAzblobURL(url string) (container, blobName string, err error) {
	const prefix = "azblob://"
	if !strings.HasPrefix(url, prefix) {
		return "", "", fmt.Errorf("azureblob: not an azblob:// URL: %s", url)
	}
	rest := url[len(prefix):]
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("azureblob: malformed azblob:// URL: %s", url)
	}
	return parts[0], parts[1], nil
}
