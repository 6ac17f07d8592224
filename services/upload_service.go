package services

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/khoilion/store-be/common/errors"
)

const (
	DefaultPresignExpiry = 900 * time.Second
	MaxPresignExpiry     = 3600 * time.Second
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// AllowedImageTypes lists the accepted upload content types.
func AllowedImageTypes() []string {
	out := make([]string, 0, len(allowedImageTypes))
	for t := range allowedImageTypes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Presigner signs PUT requests for one bucket.
type Presigner interface {
	Bucket() string
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
}

type UploadConfig struct {
	KeyPrefix string
	CDNDomain string
	Endpoint  string
}

type PresignedUpload struct {
	URL       string `json:"url"`
	ImageURL  string `json:"imageUrl"`
	Key       string `json:"key"`
	ExpiresIn int64  `json:"expiresIn"`
}

type UploadService struct {
	presigner Presigner
	cfg       UploadConfig
	logger    *zap.Logger
}

func NewUploadService(p Presigner, cfg UploadConfig, logger *zap.Logger) *UploadService {
	return &UploadService{presigner: p, cfg: cfg, logger: logger}
}

// PresignUpload returns a signed PUT URL and the public URL the object will have.
// A zero expires selects the default; anything above an hour is capped.
func (s *UploadService) PresignUpload(ctx context.Context, objectName, contentType string, expires time.Duration) (*PresignedUpload, error) {
	objectName = strings.Join(strings.Fields(objectName), "_")
	if objectName == "" {
		return nil, apperrors.Validation("objectName is required")
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	if !allowedImageTypes[contentType] {
		return nil, apperrors.Validation(fmt.Sprintf("Invalid content type. Allowed: %v", AllowedImageTypes()))
	}
	if expires <= 0 {
		expires = DefaultPresignExpiry
	}
	if expires > MaxPresignExpiry {
		expires = MaxPresignExpiry
	}

	key := fmt.Sprintf("%s%s_%s", s.cfg.KeyPrefix, uuid.NewString(), objectName)
	signed, err := s.presigner.PresignPut(ctx, key, contentType, expires)
	if err != nil {
		return nil, internal(ctx, s.logger, "Failed to generate presigned upload", err)
	}

	return &PresignedUpload{
		URL:       signed,
		ImageURL:  s.publicURL(key),
		Key:       key,
		ExpiresIn: int64(expires / time.Second),
	}, nil
}

func (s *UploadService) publicURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	switch {
	case s.cfg.CDNDomain != "":
		return fmt.Sprintf("https://%s/%s", strings.TrimSuffix(s.cfg.CDNDomain, "/"), escaped)
	case s.cfg.Endpoint != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.cfg.Endpoint, "/"), s.presigner.Bucket(), escaped)
	default:
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.presigner.Bucket(), escaped)
	}
}
