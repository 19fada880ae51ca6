// Package relay implements the thread relay engine: the thread
// lifecycle state machine, the alert registry, and bidirectional
// message mirroring between the user surface and the staff surface.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/models"
	"github.com/zulandar/switchboard/internal/platform"
	"gorm.io/gorm"
)

// Engine orchestrates relay operations on threads. It holds no
// in-process lock across an operation; the one point needing true
// atomicity, message-number allocation, is delegated to the store's
// transaction.
type Engine struct {
	db          *gorm.DB
	client      platform.Client
	attachments AttachmentStore
	formatter   Formatter
	cfg         config.RelayConfig
	selfURL     string
}

// EngineOpts holds parameters for creating an Engine.
type EngineOpts struct {
	DB          *gorm.DB
	Client      platform.Client
	Attachments AttachmentStore // optional; attachment relaying fails without one
	Formatter   Formatter       // optional; defaults to DefaultFormatter
	RelayConfig config.RelayConfig
	SelfURL     string
}

// NewEngine creates an Engine with the given options.
func NewEngine(opts EngineOpts) (*Engine, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("relay: db is required")
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("relay: platform client is required")
	}
	formatter := opts.Formatter
	if formatter == nil {
		formatter = DefaultFormatter{}
	}
	attachments := opts.Attachments
	if attachments == nil {
		attachments = noopAttachmentStore{}
	}
	return &Engine{
		db:          opts.DB,
		client:      opts.Client,
		attachments: attachments,
		formatter:   formatter,
		cfg:         opts.RelayConfig,
		selfURL:     opts.SelfURL,
	}, nil
}

// noopAttachmentStore errors on use — installed when no real store is
// configured so text-only relaying still works.
type noopAttachmentStore struct{}

func (noopAttachmentStore) SaveAttachment(ctx context.Context, att platform.Attachment) (string, error) {
	return "", fmt.Errorf("relay: no attachment store configured")
}

func (noopAttachmentStore) ToPlatformFile(ctx context.Context, att platform.Attachment) (platform.File, error) {
	return platform.File{}, fmt.Errorf("relay: no attachment store configured")
}

// ChannelExists reports whether a staff channel still exists on the platform.
func (e *Engine) ChannelExists(ctx context.Context, channelID string) (bool, error) {
	return e.client.ChannelExists(ctx, channelID)
}

// LogURL returns the transcript link for a thread under the self URL base.
func (e *Engine) LogURL(thread *models.Thread) string {
	return strings.TrimSuffix(e.selfURL, "/") + "/logs/" + thread.ID
}

// sendDM opens the user's private channel and posts content to it,
// chunked at the platform length limit with files riding only on the
// final chunk. Returns the first chunk sent, which is the canonical
// user-surface reference for the whole post, plus the DM channel ID.
func (e *Engine) sendDM(ctx context.Context, thread *models.Thread, content string, files []platform.File) (*platform.Message, string, error) {
	dmChannelID, err := e.client.OpenDM(ctx, thread.UserID)
	if err != nil {
		return nil, "", err
	}

	chunks := ChunkContent(content, platform.MaxMessageLength)
	var first *platform.Message
	for i, chunk := range chunks {
		var chunkFiles []platform.File
		if i == len(chunks)-1 {
			chunkFiles = files
		}
		msg, err := e.client.SendMessage(ctx, dmChannelID, chunk, chunkFiles)
		if err != nil {
			return nil, "", err
		}
		if first == nil {
			first = msg
		}
	}
	return first, dmChannelID, nil
}

// postToStaff posts content to the thread's staff channel, chunked the
// same way as sendDM. A send that fails because the staff surface no
// longer exists is surfaced as a StaffSurfaceGone event to the
// lifecycle handler, which auto-closes the thread; in that case the
// post is swallowed and (nil, nil) is returned. All other errors
// propagate to the caller unchanged.
func (e *Engine) postToStaff(ctx context.Context, thread *models.Thread, content string, files []platform.File) (*platform.Message, error) {
	chunks := ChunkContent(content, platform.MaxMessageLength)
	var first *platform.Message
	for i, chunk := range chunks {
		var chunkFiles []platform.File
		if i == len(chunks)-1 {
			chunkFiles = files
		}
		msg, err := e.client.SendMessage(ctx, thread.ChannelID, chunk, chunkFiles)
		if err != nil {
			if errors.Is(err, platform.ErrStaffSurfaceMissing) {
				e.handleStaffSurfaceGone(ctx, thread)
				return nil, nil
			}
			return nil, fmt.Errorf("relay: post to staff channel %s: %w", thread.ChannelID, err)
		}
		if first == nil {
			first = msg
		}
	}
	return first, nil
}

// handleStaffSurfaceGone is the lifecycle reaction to a StaffSurfaceGone
// event: the staff channel was deleted out from under the thread, so
// the thread self-heals by closing without ceremony.
func (e *Engine) handleStaffSurfaceGone(ctx context.Context, thread *models.Thread) {
	log.Printf("relay: staff channel for %s no longer exists, auto-closing thread %s",
		thread.UserName, thread.ID)
	if err := e.Close(ctx, thread, true, false); err != nil {
		log.Printf("relay: auto-close of thread %s: %v", thread.ID, err)
	}
}
