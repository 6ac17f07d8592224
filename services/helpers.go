package services

import (
	"context"
	"errors"

	apperrors "github.com/khoilion/store-be/common/errors"
	"github.com/khoilion/store-be/common/logger"
	"go.uber.org/zap"
)

// internal logs an unexpected store failure once and hides it behind an Internal error.
// Errors that are already typed pass through unchanged.
func internal(ctx context.Context, l *zap.Logger, msg string, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	logger.FromContext(ctx, l).Error(msg, zap.Error(err))
	return apperrors.Internal(err)
}
