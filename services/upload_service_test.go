package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/khoilion/store-be/common/errors"
	"github.com/khoilion/store-be/services"
)

type fakePresigner struct {
	bucket      string
	err         error
	key         string
	contentType string
	expires     time.Duration
}

func (f *fakePresigner) Bucket() string { return f.bucket }

func (f *fakePresigner) PresignPut(_ context.Context, key, contentType string, expires time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.key, f.contentType, f.expires = key, contentType, expires
	return "https://signed.example/" + key, nil
}

func TestUpload_PresignDefaults(t *testing.T) {
	p := &fakePresigner{bucket: "media"}
	svc := services.NewUploadService(p, services.UploadConfig{KeyPrefix: "products/"}, zap.NewNop())

	out, err := svc.PresignUpload(context.Background(), "my phone.png", "", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.Key, "products/"))
	assert.True(t, strings.HasSuffix(out.Key, "_my_phone.png"))
	assert.Equal(t, "image/jpeg", p.contentType)
	assert.Equal(t, int64(900), out.ExpiresIn)
	assert.Equal(t, "https://media.s3.amazonaws.com/"+out.Key, out.ImageURL)
	assert.Equal(t, "https://signed.example/"+out.Key, out.URL)
}

func TestUpload_ExpiryIsCapped(t *testing.T) {
	p := &fakePresigner{bucket: "media"}
	svc := services.NewUploadService(p, services.UploadConfig{CDNDomain: "cdn.example.com/"}, zap.NewNop())

	out, err := svc.PresignUpload(context.Background(), "a.webp", "image/webp", 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3600), out.ExpiresIn)
	assert.Equal(t, services.MaxPresignExpiry, p.expires)
	assert.Equal(t, "https://cdn.example.com/"+out.Key, out.ImageURL)
}

func TestUpload_EndpointURL(t *testing.T) {
	p := &fakePresigner{bucket: "media"}
	svc := services.NewUploadService(p, services.UploadConfig{Endpoint: "http://localhost:4566/"}, zap.NewNop())

	out, err := svc.PresignUpload(context.Background(), "a.gif", "image/gif", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4566/media/"+out.Key, out.ImageURL)
	assert.Equal(t, int64(60), out.ExpiresIn)
}

func TestUpload_Rejections(t *testing.T) {
	svc := services.NewUploadService(&fakePresigner{bucket: "media"}, services.UploadConfig{}, zap.NewNop())

	_, err := svc.PresignUpload(context.Background(), "   ", "image/png", 0)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = svc.PresignUpload(context.Background(), "doc.pdf", "application/pdf", 0)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Contains(t, apperrors.PublicMessage(err), "image/png")

	failing := services.NewUploadService(&fakePresigner{err: errors.New("no creds")}, services.UploadConfig{}, zap.NewNop())
	_, err = failing.PresignUpload(context.Background(), "a.png", "image/png", 0)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
}
