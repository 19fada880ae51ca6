package platform

import (
	"context"
	"fmt"
	"sync"
)

// SentMessage records one SendMessage call on the mock client.
type SentMessage struct {
	ID        string
	ChannelID string
	Content   string
	Files     []File
}

// EditedMessage records one EditMessage call on the mock client.
type EditedMessage struct {
	ChannelID string
	MessageID string
	Content   string
}

// DeletedMessage records one DeleteMessage call on the mock client.
type DeletedMessage struct {
	ChannelID string
	MessageID string
}

// Reaction records one AddReaction call on the mock client.
type Reaction struct {
	ChannelID string
	MessageID string
	Emoji     string
}

// MockClient implements Client for testing. It records every call and
// allows injecting the two sentinel failure modes per channel/user.
type MockClient struct {
	mu              sync.Mutex
	counter         int
	sent            []SentMessage
	edits           []EditedMessage
	deletes         []DeletedMessage
	reactions       []Reaction
	deletedChannels map[string]bool
	missingChannels map[string]bool
	blockedUsers    map[string]bool
	failReactions   bool
}

// NewMockClient creates an empty MockClient.
func NewMockClient() *MockClient {
	return &MockClient{
		deletedChannels: make(map[string]bool),
		missingChannels: make(map[string]bool),
		blockedUsers:    make(map[string]bool),
	}
}

// BlockUser makes OpenDM and DM sends fail for a user with
// ErrUserSurfaceUnavailable, simulating blocked DMs.
func (m *MockClient) BlockUser(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockedUsers[userID] = true
}

// RemoveChannel makes sends to a channel fail with ErrStaffSurfaceMissing,
// simulating a deleted staff channel.
func (m *MockClient) RemoveChannel(channelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.missingChannels[channelID] = true
}

// FailReactions makes AddReaction return an error.
func (m *MockClient) FailReactions() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failReactions = true
}

// DMChannelID returns the deterministic DM channel ID the mock assigns
// to a user.
func DMChannelID(userID string) string {
	return "dm-" + userID
}

// OpenDM returns the deterministic DM channel for the user.
func (m *MockClient) OpenDM(ctx context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blockedUsers[userID] {
		return "", fmt.Errorf("open dm with %s: %w", userID, ErrUserSurfaceUnavailable)
	}
	return DMChannelID(userID), nil
}

// SendMessage records the message and assigns an incrementing ID.
func (m *MockClient) SendMessage(ctx context.Context, channelID, content string, files []File) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.missingChannels[channelID] || m.deletedChannels[channelID] {
		return nil, fmt.Errorf("send to %s: %w", channelID, ErrStaffSurfaceMissing)
	}
	for userID := range m.blockedUsers {
		if channelID == DMChannelID(userID) {
			return nil, fmt.Errorf("send to %s: %w", channelID, ErrUserSurfaceUnavailable)
		}
	}
	m.counter++
	msg := SentMessage{
		ID:        fmt.Sprintf("msg-%d", m.counter),
		ChannelID: channelID,
		Content:   content,
		Files:     files,
	}
	m.sent = append(m.sent, msg)
	return &Message{ID: msg.ID, ChannelID: channelID, Content: content}, nil
}

// EditMessage records the edit.
func (m *MockClient) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, EditedMessage{ChannelID: channelID, MessageID: messageID, Content: content})
	return nil
}

// DeleteMessage records the deletion.
func (m *MockClient) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, DeletedMessage{ChannelID: channelID, MessageID: messageID})
	return nil
}

// AddReaction records the reaction, or fails when FailReactions was set.
func (m *MockClient) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReactions {
		return fmt.Errorf("add reaction: forbidden")
	}
	m.reactions = append(m.reactions, Reaction{ChannelID: channelID, MessageID: messageID, Emoji: emoji})
	return nil
}

// DeleteChannel marks the channel deleted. Deleting an already-missing
// channel returns an error, letting tests exercise cleanup tolerance.
func (m *MockClient) DeleteChannel(ctx context.Context, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.missingChannels[channelID] || m.deletedChannels[channelID] {
		return fmt.Errorf("delete channel %s: unknown channel", channelID)
	}
	m.deletedChannels[channelID] = true
	return nil
}

// ChannelExists reports whether the channel has not been removed.
func (m *MockClient) ChannelExists(ctx context.Context, channelID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.missingChannels[channelID] && !m.deletedChannels[channelID], nil
}

// --- Test helpers ---

// AllSent returns a copy of all recorded sends.
func (m *MockClient) AllSent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentTo returns recorded sends to one channel, in order.
func (m *MockClient) SentTo(channelID string) []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SentMessage
	for _, msg := range m.sent {
		if msg.ChannelID == channelID {
			out = append(out, msg)
		}
	}
	return out
}

// LastSent returns the most recent send, and false when none happened.
func (m *MockClient) LastSent() (SentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return SentMessage{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// SentCount returns the number of recorded sends.
func (m *MockClient) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// Edits returns a copy of all recorded edits.
func (m *MockClient) Edits() []EditedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EditedMessage, len(m.edits))
	copy(out, m.edits)
	return out
}

// Deletes returns a copy of all recorded message deletions.
func (m *MockClient) Deletes() []DeletedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]DeletedMessage, len(m.deletes))
	copy(out, m.deletes)
	return out
}

// Reactions returns a copy of all recorded reactions.
func (m *MockClient) Reactions() []Reaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Reaction, len(m.reactions))
	copy(out, m.reactions)
	return out
}

// ChannelDeleted reports whether DeleteChannel was called for a channel.
func (m *MockClient) ChannelDeleted(channelID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletedChannels[channelID]
}
