package s3

import (
	"github.com/hlskit/hlskit/pkg/errors"
)

func pushErrInvalidConfig(msg string) error {
	return errors.New(errors.ErrCodeInvalidConfig, msg)
}

func pushErrNotConnected() error {
	return errors.New(errors.ErrCodeNotConnected, "s3 pusher is not connected, call Connect first")
}

func pushErrConnectionFailed(cause error) error {
	return errors.Wrap(errors.ErrCodeConnectionFailed, "s3 push failed", cause)
}
