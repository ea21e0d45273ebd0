package main

import (
	"fmt"
	"io"

	"github.com/bobchat/cli/internal/conversation"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newConversationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv", "c"},
		Short:   "Manage locally stored conversations",
	}
	cmd.AddCommand(
		newConversationsListCmd(),
		newConversationsNewCmd(),
		newConversationsDeleteCmd(),
		newConversationsShowCmd(),
	)
	return cmd
}

func newConversationsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List conversations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.conversations(cmd.Context())
			if err != nil {
				return err
			}
			renderConversations(cmd.OutOrStdout(), store.Conversations(), store.ActiveID())
			return nil
		},
	}
}

func renderConversations(w io.Writer, convs []conversation.Conversation, activeID string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("", "ID", "TITLE", "CREATED", "MESSAGES")
	for _, c := range convs {
		marker := ""
		if c.ID == activeID {
			marker = "*"
		}
		t.Row(marker, c.ID, c.Title, c.CreatedAt, fmt.Sprint(len(c.Messages)))
	}
	fmt.Fprintln(w, t.Render())
}

func newConversationsNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.conversations(cmd.Context())
			if err != nil {
				return err
			}
			c, err := store.Create(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.ID, c.Title)
			return nil
		},
	}
}

func newConversationsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.conversations(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("cannot delete %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted", args[0])
			return nil
		},
	}
}

func newConversationsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Print a conversation (default: most recent)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.conversations(cmd.Context())
			if err != nil {
				return err
			}
			id := store.ActiveID()
			if len(args) == 1 {
				id = args[0]
			}
			c, ok := store.Get(id)
			if !ok {
				return conversation.ErrConversationNotFound
			}
			printConversation(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func printConversation(w io.Writer, c conversation.Conversation) {
	fmt.Fprintf(w, "%s (%s)\n\n", c.Title, c.CreatedAt)
	for _, m := range c.Messages {
		who := "You"
		if m.Role == conversation.RoleAssistant {
			who = "BOb"
		}
		fmt.Fprintf(w, "[%s] %s:\n", m.Timestamp, who)
		switch content := m.Content.(type) {
		case conversation.Text:
			fmt.Fprintln(w, string(content))
		case conversation.ImageQuery:
			fmt.Fprintf(w, "%s\n  image: %s\n", content.Question, content.ImageURL)
		case conversation.PDFQuery:
			fmt.Fprintf(w, "%s\n  pdf: %s\n", content.Query, content.Filename)
		}
		if m.GeneratedImageURL != "" {
			fmt.Fprintf(w, "  generated image: %s\n", m.GeneratedImageURL)
		}
		fmt.Fprintln(w)
	}
}
