package storage

import (
	"context"
	"errors"
	"io"
)

// SheetSource opens an input sheet by location. The returned name carries
// the file extension used to pick the reader.
type SheetSource interface {
	Open(ctx context.Context, location string) (name string, body io.ReadCloser, err error)
}

// SheetLocator dispatches s3:// locations to object storage and everything
// else to the local filesystem.
type SheetLocator struct {
	Local SheetSource
	S3    SheetSource
}

// Open implements SheetSource
func (l *SheetLocator) Open(ctx context.Context, location string) (string, io.ReadCloser, error) {
	if IsS3URI(location) {
		if l.S3 == nil {
			return "", nil, errors.New("s3 locations need storage configuration")
		}
		return l.S3.Open(ctx, location)
	}
	return l.Local.Open(ctx, location)
}
