// Package platform defines the chat platform contract consumed by the
// relay engine, along with the error taxonomy the engine absorbs.
package platform

import (
	"context"
	"errors"
)

// MaxMessageLength is the platform's per-post body length limit.
const MaxMessageLength = 2000

// ErrUserSurfaceUnavailable means the user's private channel could not
// be opened or written to (blocked the relay, privacy settings). The
// relay absorbs this into a boolean failure plus a staff notice.
var ErrUserSurfaceUnavailable = errors.New("platform: user surface unavailable")

// ErrStaffSurfaceMissing means the staff channel no longer exists. The
// relay absorbs this by auto-closing the thread.
var ErrStaffSurfaceMissing = errors.New("platform: staff surface missing")

// Message activity type codes, matching the platform wire values.
const (
	ActivityTypeJoin        = 1
	ActivityTypeSpectate    = 2
	ActivityTypeListen      = 3
	ActivityTypeJoinRequest = 5
)

// File is a platform file handle ready to attach to an outgoing post.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message identifies a post that was created on some surface.
type Message struct {
	ID        string
	ChannelID string
	Content   string
}

// Attachment describes a raw attachment on an inbound or outbound
// message. Data may be nil when only the source URL is known.
type Attachment struct {
	ID   string
	Name string
	URL  string
	Size int64
	Data []byte
}

// Activity is a rich-activity payload carried by an inbound message
// (game invites, listen-along sessions and similar embeds).
type Activity struct {
	Type    int
	PartyID string
}

// IncomingMessage is a message event as received from the platform.
type IncomingMessage struct {
	ID              string
	ChannelID       string
	AuthorID        string
	AuthorName      string
	Bot             bool
	DM              bool
	Body            string
	Attachments     []Attachment
	Activity        *Activity
	ApplicationName string
}

// EventKind discriminates message events.
type EventKind int

const (
	EventMessageCreated EventKind = iota + 1
	EventMessageUpdated
	EventMessageDeleted
)

// Event is a single platform message event.
type Event struct {
	Kind    EventKind
	Message IncomingMessage
}

// Client is the outbound platform surface the relay engine calls.
// Implementations classify platform failures into the sentinel errors
// above so the engine can apply its absorption policy with errors.Is.
type Client interface {
	// OpenDM opens (or reuses) the private channel with a user and
	// returns its channel ID.
	OpenDM(ctx context.Context, userID string) (string, error)

	// SendMessage creates a message on a surface. Content must fit the
	// platform length limit; chunking is the caller's concern.
	SendMessage(ctx context.Context, channelID, content string, files []File) (*Message, error)

	// EditMessage replaces the content of an existing message.
	EditMessage(ctx context.Context, channelID, messageID, content string) error

	// DeleteMessage removes an existing message.
	DeleteMessage(ctx context.Context, channelID, messageID string) error

	// AddReaction adds a reaction emoji to a message.
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error

	// DeleteChannel deletes a surface (channel).
	DeleteChannel(ctx context.Context, channelID string) error

	// ChannelExists reports whether a surface still exists.
	ChannelExists(ctx context.Context, channelID string) (bool, error)
}

// Listener is the inbound platform surface: a stream of message events.
type Listener interface {
	// Connect establishes the platform connection.
	Connect(ctx context.Context) error

	// Listen returns a channel of message events. The channel is closed
	// when the context is cancelled or the listener is closed. Listen
	// must only be called after Connect.
	Listen(ctx context.Context) (<-chan Event, error)

	// Close gracefully shuts down the connection.
	Close() error
}
