package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/bobchat/cli/internal/attachments"
	"github.com/bobchat/cli/internal/backend"
	"github.com/bobchat/cli/internal/composer"
	"github.com/bobchat/cli/internal/conversation"
	"github.com/bobchat/cli/internal/messaging"
	"github.com/spf13/cobra"
)

func newSendCmd() *cobra.Command {
	var (
		imagePath      string
		pdfPath        string
		conversationID string
		save           bool
	)

	cmd := &cobra.Command{
		Use:   "send [text]",
		Short: "Send one message and print the reply",
		Example: `  bobchat send "What is a transformer?"
  bobchat send --image cat.png "What breed is this?"
  bobchat send --pdf report.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if imagePath != "" && pdfPath != "" {
				return fmt.Errorf("--image and --pdf cannot be combined")
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.conversations(ctx)
			if err != nil {
				return err
			}
			if conversationID != "" {
				if _, ok := store.Get(conversationID); !ok {
					return conversation.ErrConversationNotFound
				}
				store.Select(conversationID)
			}

			draft := composer.New()
			draft.SetText(strings.Join(args, " "))
			for _, p := range []struct {
				path string
				kind conversation.Kind
			}{{imagePath, conversation.KindImage}, {pdfPath, conversation.KindPDF}} {
				if p.path == "" {
					continue
				}
				att, err := attachments.Inspect(p.path)
				if err != nil {
					return err
				}
				if att.Kind != p.kind {
					return fmt.Errorf("%s is not a %s", att.Name, p.kind)
				}
				cache, err := a.cache()
				if err != nil {
					return err
				}
				if att, err = cache.Store(att); err != nil {
					return err
				}
				draft.Attach(att)
			}

			out, ok := draft.Submit()
			if !ok {
				return fmt.Errorf("nothing to send: give some text or an attachment")
			}

			convID := store.ActiveID()
			if err := store.Append(ctx, conversation.NewUserMessage(out.Content, time.Now())); err != nil {
				return err
			}
			reply := a.gateway.Send(ctx, out)
			if err := store.AppendTo(ctx, convID, reply); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, reply.Content)
			if reply.GeneratedImageURL != "" {
				fmt.Fprintln(w, "Generated image:", reply.GeneratedImageURL)
				if save {
					path, err := messaging.SaveGeneratedImage(ctx, a.client, reply, a.cfg.Paths.DownloadDir)
					if err != nil {
						return err
					}
					fmt.Fprintln(w, "Saved", path)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "attach an image")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "attach a PDF")
	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "conversation to append to (default: most recent)")
	cmd.Flags().BoolVar(&save, "save", false, "download a generated image to the download directory")
	return cmd
}

func newImagineCmd() *cobra.Command {
	var (
		req  backend.GenerateImageRequest
		save bool
	)

	cmd := &cobra.Command{
		Use:   "imagine <prompt>",
		Short: "Ask the backend to generate an image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			req.Prompt = strings.Join(args, " ")
			req.ThreadID = a.cfg.Backend.ThreadID
			resp, err := a.client.GenerateImage(ctx, &req)
			if err != nil {
				return fmt.Errorf("failed to generate image: %w", err)
			}

			w := cmd.OutOrStdout()
			text, found := messaging.ExtractGeneratedImage(resp.Response)
			imageURL := resp.GeneratedImageURL
			if imageURL == "" {
				imageURL = found
			}
			if text != "" {
				fmt.Fprintln(w, text)
			}
			if imageURL == "" {
				return fmt.Errorf("backend returned no image")
			}
			fmt.Fprintln(w, "Generated image:", imageURL)

			store, err := a.conversations(ctx)
			if err != nil {
				return err
			}
			now := time.Now()
			msg := conversation.NewAssistantMessage(text, imageURL, now)
			if err := store.Append(ctx, conversation.NewUserMessage(conversation.Text(req.Prompt), now), msg); err != nil {
				return err
			}

			if save {
				path, err := messaging.SaveGeneratedImage(ctx, a.client, msg, a.cfg.Paths.DownloadDir)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "Saved", path)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&req.Width, "width", 1024, "image width")
	cmd.Flags().IntVar(&req.Height, "height", 1024, "image height")
	cmd.Flags().IntVar(&req.Seed, "seed", 42, "random seed")
	cmd.Flags().StringVar(&req.Model, "model", "flux", "image model")
	cmd.Flags().BoolVar(&save, "save", false, "download the image to the download directory")
	return cmd
}
