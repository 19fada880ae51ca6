package relay

import (
	"context"

	"github.com/zulandar/switchboard/internal/platform"
)

// Actor identifies the staff member performing an operation.
type Actor struct {
	ID       string
	Username string
	Nickname string
	Role     string
}

// DisplayName resolves the actor's shown name per the nickname toggle.
func (a Actor) DisplayName(useNicknames bool) string {
	if useNicknames && a.Nickname != "" {
		return a.Nickname
	}
	return a.Username
}

// AttachmentStore persists message attachments and converts them to
// platform file handles. Implementations own the binary storage; the
// engine only carries the resulting URLs and handles.
type AttachmentStore interface {
	// SaveAttachment stores the attachment and returns its public URL.
	SaveAttachment(ctx context.Context, att platform.Attachment) (string, error)

	// ToPlatformFile converts the attachment into a file handle ready
	// to ride on an outgoing post.
	ToPlatformFile(ctx context.Context, att platform.Attachment) (platform.File, error)
}
