package relay

import (
	"fmt"
	"strings"

	"github.com/zulandar/switchboard/internal/models"
)

// Formatter maps thread messages to platform-ready content. All methods
// are pure; implementations must not touch the network or the store.
type Formatter interface {
	// FormatStaffReplyDM renders a staff reply as sent to the user.
	FormatStaffReplyDM(msg *models.ThreadMessage) string

	// FormatStaffReplyEcho renders the staff-surface echo of a reply.
	FormatStaffReplyEcho(msg *models.ThreadMessage) string

	// FormatUserReplyEcho renders a user message for the staff surface.
	FormatUserReplyEcho(msg *models.ThreadMessage) string

	// FormatEditNotice renders the audit notice for an edited reply.
	FormatEditNotice(msg *models.ThreadMessage, newText string, actor Actor) string

	// FormatDeleteNotice renders the audit notice for a deleted reply.
	FormatDeleteNotice(msg *models.ThreadMessage, actor Actor) string
}

// DefaultFormatter renders messages in plain Markdown.
type DefaultFormatter struct{}

// modInfo renders the staff identity shown on a reply. Anonymous
// replies show only the role label.
func modInfo(msg *models.ThreadMessage) string {
	if msg.IsAnonymous {
		if msg.RoleName != nil {
			return *msg.RoleName
		}
		return "Moderator"
	}
	if msg.RoleName != nil {
		return "(" + *msg.RoleName + ") " + msg.UserName
	}
	return msg.UserName
}

// attachmentLines renders attachment URLs, one per line.
func attachmentLines(urls []string) string {
	var b strings.Builder
	for _, url := range urls {
		b.WriteString("\n**Attachment:** ")
		b.WriteString(url)
	}
	return b.String()
}

func (DefaultFormatter) FormatStaffReplyDM(msg *models.ThreadMessage) string {
	if info := modInfo(msg); info != "" {
		return fmt.Sprintf("**%s:** %s", info, msg.Body)
	}
	return msg.Body
}

func (DefaultFormatter) FormatStaffReplyEcho(msg *models.ThreadMessage) string {
	prefix := ""
	if msg.MessageNumber != nil {
		prefix = fmt.Sprintf("`[%d]` ", *msg.MessageNumber)
	}
	return prefix + fmt.Sprintf("**%s:** %s", modInfo(msg), msg.Body) +
		attachmentLines(msg.AttachmentURLs())
}

func (DefaultFormatter) FormatUserReplyEcho(msg *models.ThreadMessage) string {
	return fmt.Sprintf("**%s:** %s", msg.UserName, msg.Body) +
		attachmentLines(msg.AttachmentURLs())
}

func (DefaultFormatter) FormatEditNotice(msg *models.ThreadMessage, newText string, actor Actor) string {
	number := 0
	if msg.MessageNumber != nil {
		number = *msg.MessageNumber
	}
	return fmt.Sprintf("**%s** edited reply `[%d]`:\n`Before:` %s\n`After:` %s",
		actor.Username, number, msg.Body, newText)
}

func (DefaultFormatter) FormatDeleteNotice(msg *models.ThreadMessage, actor Actor) string {
	number := 0
	if msg.MessageNumber != nil {
		number = *msg.MessageNumber
	}
	return fmt.Sprintf("**%s** deleted reply `[%d]` (content: %s)",
		actor.Username, number, msg.Body)
}
