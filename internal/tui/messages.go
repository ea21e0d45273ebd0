package tui

import (
	"github.com/bobchat/cli/internal/attachments"
	"github.com/bobchat/cli/internal/conversation"
)

type (
	// replyMsg carries the assistant message for the conversation that sent
	// the request
	replyMsg struct {
		conversationID string
		message        conversation.Message
	}

	attachedMsg struct {
		attachment attachments.Attachment
		err        error
	}

	loginDoneMsg struct {
		err error
	}

	signupDoneMsg struct {
		message string
		err     error
	}

	downloadedMsg struct {
		path string
		err  error
	}
)
