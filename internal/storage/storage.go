package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrObjectNotFound = errors.New("object not found")

// MaxAttachmentSize caps uploaded attachments at 10 MiB
const MaxAttachmentSize = 10 << 20

// AttachmentStore keeps event attachments outside the database
type AttachmentStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// PresignedURL returns a temporary download URL for key
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, key string) error
}

// AttachmentKey builds the object key for a new attachment of an event, keeping the file extension
func AttachmentKey(eventID, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	return fmt.Sprintf("events/%s/%s%s", eventID, uuid.NewString(), ext)
}

// IsAttachmentKey reports whether value is a key produced by AttachmentKey for eventID.
// Events may also carry plain URLs as attachments, which are not stored here.
func IsAttachmentKey(eventID, value string) bool {
	return strings.HasPrefix(value, "events/"+eventID+"/")
}
