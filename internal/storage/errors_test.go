package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestIsNoSuchKey(t *testing.T) {
	assert.False(t, IsNoSuchKey(nil))
	assert.True(t, IsNoSuchKey(fmt.Errorf("wrapped: %w", minio.ErrorResponse{Code: "NoSuchKey"})))
	assert.True(t, IsNoSuchKey(errors.New("The specified key does not exist.")))
	assert.False(t, IsNoSuchKey(errors.New("access denied")))
	assert.False(t, IsNoSuchKey(minio.ErrorResponse{Code: "AccessDenied", Message: "key not found in policy"}))
}

func TestIsNoSuchBucket(t *testing.T) {
	assert.True(t, IsNoSuchBucket(minio.ErrorResponse{Code: "NoSuchBucket"}))
	assert.False(t, IsNoSuchBucket(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, IsNoSuchBucket(errors.New("The specified bucket does not exist")))
	assert.False(t, IsNoSuchBucket(nil))
}

func TestExportPrefix(t *testing.T) {
	assert.Equal(t, "resource-exports/7/", ExportPrefix(7))
}

func TestParseBucketLookup(t *testing.T) {
	got, err := parseBucketLookup(" Path ")
	assert.NoError(t, err)
	assert.Equal(t, minio.BucketLookupPath, got)

	_, err = parseBucketLookup("virtual")
	assert.Error(t, err)
}
