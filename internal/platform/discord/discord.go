// Package discord implements the platform Client and Listener for
// Discord using the Gateway WebSocket.
package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/switchboard/internal/platform"
)

const (
	// maxRetries is the max number of retries for rate-limited API calls.
	maxRetries = 3
	// baseBackoff is the initial backoff duration for rate-limit retries.
	baseBackoff = 2 * time.Second
	// maxBackoff caps the exponential backoff.
	maxBackoff = 2 * time.Minute
	// eventBuffer is the inbound event channel capacity.
	eventBuffer = 100
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	AddHandler(handler interface{}) func()
}

// realSession wraps *discordgo.Session to implement the session interface.
type realSession struct {
	s *discordgo.Session
}

func (r *realSession) Open() error  { return r.s.Open() }
func (r *realSession) Close() error { return r.s.Close() }
func (r *realSession) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return r.s.UserChannelCreate(recipientID, options...)
}
func (r *realSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSendComplex(channelID, data, options...)
}
func (r *realSession) ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageEdit(channelID, messageID, content, options...)
}
func (r *realSession) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	return r.s.ChannelMessageDelete(channelID, messageID, options...)
}
func (r *realSession) MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error {
	return r.s.MessageReactionAdd(channelID, messageID, emojiID, options...)
}
func (r *realSession) ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return r.s.ChannelDelete(channelID, options...)
}
func (r *realSession) Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return r.s.Channel(channelID, options...)
}
func (r *realSession) AddHandler(handler interface{}) func() {
	return r.s.AddHandler(handler)
}

// Adapter implements platform.Client and platform.Listener for Discord
// via the Gateway WebSocket.
type Adapter struct {
	sess           session
	botToken       string
	botUserID      string
	mu             sync.Mutex
	connected      bool
	closed         bool
	events         chan platform.Event
	removeHandlers []func()
	baseBackoff    time.Duration
	maxBackoff     time.Duration
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken string // Discord bot token
	// For testing: inject a mock session instead of real Discord API.
	Session session
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}

	a := &Adapter{
		botToken:    opts.BotToken,
		events:      make(chan platform.Event, eventBuffer),
		baseBackoff: baseBackoff,
		maxBackoff:  maxBackoff,
	}
	if opts.Session != nil {
		a.sess = opts.Session
	}
	return a, nil
}

// Connect establishes the Discord Gateway WebSocket connection.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("discord: adapter already closed")
	}
	if a.connected {
		return nil
	}

	// Create real session if not injected (production path).
	if a.sess == nil {
		dg, err := discordgo.New("Bot " + a.botToken)
		if err != nil {
			return fmt.Errorf("discord: create session: %w", err)
		}
		dg.Identify.Intents = discordgo.IntentsGuildMessages |
			discordgo.IntentsDirectMessages |
			discordgo.IntentsMessageContent
		a.sess = &realSession{s: dg}
	}

	a.sess.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.mu.Lock()
		a.botUserID = r.User.ID
		a.mu.Unlock()
		log.Printf("discord: connected as %s (ID: %s)", r.User.Username, r.User.ID)
	})
	a.sess.AddHandler(func(_ *discordgo.Session, d *discordgo.Disconnect) {
		log.Printf("discord: gateway disconnected, discordgo will auto-reconnect")
	})

	if err := a.sess.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}
	a.connected = true
	return nil
}

// Listen returns the channel of inbound message events. Must be called
// after Connect.
func (a *Adapter) Listen(ctx context.Context) (<-chan platform.Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil, fmt.Errorf("discord: not connected")
	}

	a.removeHandlers = append(a.removeHandlers,
		a.sess.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
			a.handleCreate(m)
		}),
		a.sess.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageUpdate) {
			a.handleUpdate(m)
		}),
		a.sess.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageDelete) {
			a.handleDelete(m)
		}),
	)
	return a.events, nil
}

// Close shuts down the gateway connection and closes the event channel.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.connected = false
	for _, remove := range a.removeHandlers {
		remove()
	}
	close(a.events)
	if a.sess != nil {
		return a.sess.Close()
	}
	return nil
}

// BotUserID returns the bot's Discord user ID (available after Connect).
func (a *Adapter) BotUserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.botUserID
}

// SetBotUserID sets the bot user ID (used for self-message filtering).
func (a *Adapter) SetBotUserID(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.botUserID = id
}

// OpenDM ensures a private channel with the user exists and returns its ID.
func (a *Adapter) OpenDM(ctx context.Context, userID string) (string, error) {
	var ch *discordgo.Channel
	err := a.retryOnRateLimit(ctx, func() error {
		var apiErr error
		ch, apiErr = a.sess.UserChannelCreate(userID)
		return apiErr
	})
	if err != nil {
		return "", classify(fmt.Errorf("discord: open dm with %s: %w", userID, err))
	}
	return ch.ID, nil
}

// SendMessage posts content with optional file uploads to a channel.
func (a *Adapter) SendMessage(ctx context.Context, channelID, content string, files []platform.File) (*platform.Message, error) {
	data := &discordgo.MessageSend{Content: content}
	for _, f := range files {
		data.Files = append(data.Files, &discordgo.File{
			Name:        f.Name,
			ContentType: f.ContentType,
			Reader:      bytes.NewReader(f.Data),
		})
	}

	var msg *discordgo.Message
	err := a.retryOnRateLimit(ctx, func() error {
		var apiErr error
		msg, apiErr = a.sess.ChannelMessageSendComplex(channelID, data)
		return apiErr
	})
	if err != nil {
		return nil, classify(fmt.Errorf("discord: send to %s: %w", channelID, err))
	}
	return &platform.Message{ID: msg.ID, ChannelID: channelID, Content: content}, nil
}

// EditMessage replaces the content of a previously sent message.
func (a *Adapter) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	err := a.retryOnRateLimit(ctx, func() error {
		_, apiErr := a.sess.ChannelMessageEdit(channelID, messageID, content)
		return apiErr
	})
	if err != nil {
		return classify(fmt.Errorf("discord: edit message %s in %s: %w", messageID, channelID, err))
	}
	return nil
}

// DeleteMessage removes a previously sent message.
func (a *Adapter) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	err := a.retryOnRateLimit(ctx, func() error {
		return a.sess.ChannelMessageDelete(channelID, messageID)
	})
	if err != nil {
		return classify(fmt.Errorf("discord: delete message %s in %s: %w", messageID, channelID, err))
	}
	return nil
}

// AddReaction adds an emoji reaction to a message.
func (a *Adapter) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	err := a.retryOnRateLimit(ctx, func() error {
		return a.sess.MessageReactionAdd(channelID, messageID, emoji)
	})
	if err != nil {
		return classify(fmt.Errorf("discord: react to %s in %s: %w", messageID, channelID, err))
	}
	return nil
}

// DeleteChannel removes a channel.
func (a *Adapter) DeleteChannel(ctx context.Context, channelID string) error {
	err := a.retryOnRateLimit(ctx, func() error {
		_, apiErr := a.sess.ChannelDelete(channelID)
		return apiErr
	})
	if err != nil {
		return classify(fmt.Errorf("discord: delete channel %s: %w", channelID, err))
	}
	return nil
}

// ChannelExists reports whether a channel is still reachable. A 10003
// response means it is gone; other API failures propagate.
func (a *Adapter) ChannelExists(ctx context.Context, channelID string) (bool, error) {
	err := a.retryOnRateLimit(ctx, func() error {
		_, apiErr := a.sess.Channel(channelID)
		return apiErr
	})
	if err != nil {
		classified := classify(err)
		if errors.Is(classified, platform.ErrStaffSurfaceMissing) {
			return false, nil
		}
		return false, fmt.Errorf("discord: check channel %s: %w", channelID, err)
	}
	return true, nil
}

// classify maps Discord API error codes onto the platform sentinels the
// relay engine dispatches on. 10003 (unknown channel) means the target
// channel is gone; 50007 means the user's DMs are closed to us.
func classify(err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return err
	}
	switch restErr.Message.Code {
	case discordgo.ErrCodeUnknownChannel:
		return fmt.Errorf("%v: %w", err, platform.ErrStaffSurfaceMissing)
	case discordgo.ErrCodeCannotSendMessagesToThisUser:
		return fmt.Errorf("%v: %w", err, platform.ErrUserSurfaceUnavailable)
	}
	return err
}

// retryOnRateLimit retries an API call on 429 with exponential backoff.
func (a *Adapter) retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		restErr, ok := err.(*discordgo.RESTError)
		if !ok || restErr.Response == nil || restErr.Response.StatusCode != 429 {
			return err // not a rate limit error
		}
		if attempt == maxRetries {
			return err
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * a.baseBackoff
		if wait > a.maxBackoff {
			wait = a.maxBackoff
		}
		log.Printf("discord: rate limited (attempt %d/%d) — retrying in %v",
			attempt+1, maxRetries, wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil // unreachable
}

// handleCreate converts a Discord message event to a platform event.
func (a *Adapter) handleCreate(m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}

	a.mu.Lock()
	botID := a.botUserID
	a.mu.Unlock()
	if m.Author.ID == botID {
		return
	}

	incoming := platform.IncomingMessage{
		ID:         m.ID,
		ChannelID:  m.ChannelID,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		Bot:        m.Author.Bot,
		DM:         m.GuildID == "",
		Body:       m.Content,
	}
	for _, att := range m.Attachments {
		incoming.Attachments = append(incoming.Attachments, platform.Attachment{
			ID:   att.ID,
			Name: att.Filename,
			URL:  att.URL,
			Size: int64(att.Size),
		})
	}
	if m.Activity != nil {
		incoming.Activity = &platform.Activity{
			Type:    int(m.Activity.Type),
			PartyID: m.Activity.PartyID,
		}
		if m.Application != nil {
			incoming.ApplicationName = m.Application.Name
		}
	}

	a.deliver(platform.Event{Kind: platform.EventMessageCreated, Message: incoming})
}

// handleUpdate converts a message edit event. Discord sends partial
// update payloads; events without an author or content are dropped.
func (a *Adapter) handleUpdate(m *discordgo.MessageUpdate) {
	if m.Author == nil {
		return
	}

	a.mu.Lock()
	botID := a.botUserID
	a.mu.Unlock()
	if m.Author.ID == botID || m.Author.Bot {
		return
	}

	a.deliver(platform.Event{
		Kind: platform.EventMessageUpdated,
		Message: platform.IncomingMessage{
			ID:         m.ID,
			ChannelID:  m.ChannelID,
			AuthorID:   m.Author.ID,
			AuthorName: m.Author.Username,
			DM:         m.GuildID == "",
			Body:       m.Content,
		},
	})
}

// handleDelete converts a message delete event. The payload carries
// only identifiers.
func (a *Adapter) handleDelete(m *discordgo.MessageDelete) {
	a.deliver(platform.Event{
		Kind: platform.EventMessageDeleted,
		Message: platform.IncomingMessage{
			ID:        m.ID,
			ChannelID: m.ChannelID,
			DM:        m.GuildID == "",
		},
	})
}

// deliver enqueues an event, dropping it if the consumer has stalled
// long enough to fill the buffer.
func (a *Adapter) deliver(event platform.Event) {
	select {
	case a.events <- event:
	default:
		log.Printf("discord: event buffer full, dropping %v for message %s",
			event.Kind, event.Message.ID)
	}
}
