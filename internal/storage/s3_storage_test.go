package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gausamvardhan/storefront-backend/config"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey(ProductImageFolder, "Mango Pickle.JPG")
	assert.True(t, strings.HasPrefix(key, "products/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.NotEqual(t, key, ObjectKey(ProductImageFolder, "Mango Pickle.JPG"))
}

func TestFileURL(t *testing.T) {
	s := NewS3Storage(config.S3Config{Region: "ap-south-1", Bucket: "shop", AccessKeyID: "id", SecretAccessKey: "secret"})
	assert.Equal(t, "https://shop.s3.ap-south-1.amazonaws.com/products/a.png", s.FileURL("products/a.png"))

	cdn := NewS3Storage(config.S3Config{Region: "ap-south-1", Bucket: "shop", AccessKeyID: "id", SecretAccessKey: "secret", BaseURL: "https://cdn.example.com/"})
	assert.Equal(t, "https://cdn.example.com/products/a.png", cdn.FileURL("products/a.png"))
}

func TestPresignProductImage(t *testing.T) {
	s := NewS3Storage(config.S3Config{Region: "ap-south-1", Bucket: "shop", AccessKeyID: "id", SecretAccessKey: "secret"})

	resp, err := s.PresignProductImage(context.Background(), "ghee.png", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Key, "products/"))
	assert.Contains(t, resp.UploadURL, "X-Amz-Signature")
	assert.Contains(t, resp.FileURL, resp.Key)

	_, err = s.PresignProductImage(context.Background(), "notes.pdf", "application/pdf")
	var notAllowed *ErrContentTypeNotAllowed
	require.True(t, errors.As(err, &notAllowed))
	assert.Equal(t, "application/pdf", notAllowed.ContentType)
}
