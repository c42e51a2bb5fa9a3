package s3object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseS3URLSplitsBucketAndKey(t *testing.T) {
	bucket, key, err := parseS3URL("s3://opendata-cold/atlas/2016/file.root")
	assert.NoError(t, err)
	assert.Equal(t, "opendata-cold", bucket)
	assert.Equal(t, "atlas/2016/file.root", key)
}

func TestParseS3URLRejectsWrongScheme(t *testing.T) {
	_, _, err := parseS3URL("azblob://bucket/key")
	assert.Error(t, err)
}

func TestParseS3URLRejectsMissingKey(t *testing.T) {
	_, _, err := parseS3URL("s3://bucket-only")
	assert.Error(t, err)
}

func TestNameReturnsRegistryKey(t *testing.T) {
	b := &Backend{}
	assert.Equal(t, "s3", b.Name())
}

func TestArchiveAndStageAreUnsupported(t *testing.T) {
	b := &Backend{}
	_, err := b.Archive("x", "s3://bucket/key")
	assert.Error(t, err)
	_, err = b.Stage("x", "s3://bucket/key")
	assert.Error(t, err)
}
