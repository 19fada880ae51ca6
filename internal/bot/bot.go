// Package bot is the switchboard daemon: it pumps platform message
// events into the relay engine, routing user DMs and staff channel
// activity to the right thread.
package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/models"
	"github.com/zulandar/switchboard/internal/platform"
	"github.com/zulandar/switchboard/internal/relay"
	"github.com/zulandar/switchboard/internal/store"
	"gorm.io/gorm"
)

// ThreadOpener creates a new thread for a user with no open one. It is
// optional: without an opener, DMs from unknown users are dropped.
type ThreadOpener interface {
	OpenThread(ctx context.Context, userID, userName string) (*models.Thread, error)
}

// Daemon routes inbound platform events to relay operations.
type Daemon struct {
	db       *gorm.DB
	cfg      *config.Config
	listener platform.Listener
	engine   *relay.Engine
	opener   ThreadOpener
	out      io.Writer
}

// DaemonOpts holds parameters for creating a Daemon.
type DaemonOpts struct {
	DB       *gorm.DB
	Config   *config.Config
	Listener platform.Listener
	Engine   *relay.Engine
	Opener   ThreadOpener // optional; enables opening threads for new users
	Out      io.Writer    // defaults to os.Stdout
}

// NewDaemon creates a Daemon with the given options.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("bot: db is required")
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("bot: config is required")
	}
	if opts.Listener == nil {
		return nil, fmt.Errorf("bot: platform listener is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("bot: relay engine is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.Opener == nil {
		fmt.Fprintf(out, "bot: no thread opener configured; DMs from users without an open thread are ignored\n")
	}
	return &Daemon{
		db:       opts.DB,
		cfg:      opts.Config,
		listener: opts.Listener,
		engine:   opts.Engine,
		opener:   opts.Opener,
		out:      out,
	}, nil
}

// Run connects the listener and pumps events until the context is
// cancelled. On shutdown it closes the listener gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	fmt.Fprintf(d.out, "Switchboard connecting...\n")
	if err := d.listener.Connect(ctx); err != nil {
		return fmt.Errorf("bot: connect: %w", err)
	}

	events, err := d.listener.Listen(ctx)
	if err != nil {
		d.listener.Close()
		return fmt.Errorf("bot: listen: %w", err)
	}

	fmt.Fprintf(d.out, "Switchboard online\n")

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "Switchboard shutting down...\n")
			if err := d.listener.Close(); err != nil {
				log.Printf("bot: close listener: %v", err)
			}
			fmt.Fprintf(d.out, "Switchboard stopped\n")
			return nil

		case event, ok := <-events:
			if !ok {
				fmt.Fprintf(d.out, "Switchboard event channel closed\n")
				return nil
			}
			d.Handle(ctx, event)
		}
	}
}

// Handle dispatches a single platform event. Failures are logged, not
// fatal: one bad message must not take the daemon down.
func (d *Daemon) Handle(ctx context.Context, event platform.Event) {
	var err error
	switch event.Kind {
	case platform.EventMessageCreated:
		err = d.handleCreated(ctx, event.Message)
	case platform.EventMessageUpdated:
		err = d.handleUpdated(ctx, event.Message)
	case platform.EventMessageDeleted:
		err = d.handleDeleted(ctx, event.Message)
	}
	if err != nil {
		log.Printf("bot: handle message %s: %v", event.Message.ID, err)
	}
}

// handleCreated routes a new message. DMs go to the user's thread
// (opening one when an opener is configured); staff channel messages
// are logged as chat or command rows on the thread bound to the channel.
func (d *Daemon) handleCreated(ctx context.Context, msg platform.IncomingMessage) error {
	if msg.Bot {
		return nil
	}

	if msg.DM {
		thread, err := store.OpenThreadByUserID(d.db.WithContext(ctx), msg.AuthorID)
		if err != nil {
			return err
		}
		if thread == nil {
			if d.opener == nil {
				return nil
			}
			thread, err = d.opener.OpenThread(ctx, msg.AuthorID, msg.AuthorName)
			if err != nil {
				return fmt.Errorf("bot: open thread for %s: %w", msg.AuthorID, err)
			}
			if thread == nil {
				return nil
			}
		}
		return d.engine.ReceiveUserReply(ctx, thread, msg)
	}

	thread, err := store.ThreadByChannelID(d.db.WithContext(ctx), msg.ChannelID)
	if err != nil {
		return err
	}
	if thread == nil {
		return nil // not a thread channel
	}
	if strings.HasPrefix(msg.Body, d.cfg.CommandPrefix) {
		return d.engine.SaveCommandMessageToLogs(ctx, thread, msg)
	}
	return d.engine.SaveChatMessageToLogs(ctx, thread, msg)
}

// handleUpdated syncs edits to logged staff chat messages.
func (d *Daemon) handleUpdated(ctx context.Context, msg platform.IncomingMessage) error {
	if msg.DM {
		return nil
	}
	thread, err := store.ThreadByChannelID(d.db.WithContext(ctx), msg.ChannelID)
	if err != nil || thread == nil {
		return err
	}
	return d.engine.UpdateChatMessageInLogs(ctx, thread, msg.ID, msg.Body)
}

// handleDeleted removes logged staff chat messages that were deleted
// on the surface.
func (d *Daemon) handleDeleted(ctx context.Context, msg platform.IncomingMessage) error {
	if msg.DM {
		return nil
	}
	thread, err := store.ThreadByChannelID(d.db.WithContext(ctx), msg.ChannelID)
	if err != nil || thread == nil {
		return err
	}
	return d.engine.DeleteChatMessageFromLogs(ctx, thread, msg.ID)
}
