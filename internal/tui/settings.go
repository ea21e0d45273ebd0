package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bobchat/cli/config"
	"github.com/bobchat/cli/internal/auth"
)

// settingsView renders the read-only settings overlay
func settingsView(cfg *config.Config, token string, now time.Time) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n\n")

	row := func(label, value string) {
		if value == "" {
			value = "-"
		}
		b.WriteString(fmt.Sprintf("%-16s %s\n", label, value))
	}

	timeout := "none"
	if cfg.Backend.Timeout > 0 {
		timeout = cfg.Backend.Timeout.String()
	}

	row("Backend", cfg.Backend.BaseURL)
	row("Thread", cfg.Backend.ThreadID)
	row("Timeout", timeout)
	row("Storage", cfg.Storage.Driver)
	switch cfg.Storage.Driver {
	case "postgres":
		row("DSN", config.RedactDSN(cfg.Storage.DSN))
	case "redis":
		row("Redis", cfg.Storage.RedisAddr)
	case "memory":
	default:
		row("Database", cfg.Storage.Path)
	}
	row("Attachments", cfg.Paths.AttachmentDir)
	row("Downloads", cfg.Paths.DownloadDir)
	row("Log file", cfg.Log.File)
	b.WriteString("\n")

	b.WriteString(identityLine(token, now))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("esc close • ctrl+l log out"))
	return overlayStyle.Render(b.String())
}

func identityLine(token string, now time.Time) string {
	if token == "" {
		return hintStyle.Render("Not signed in")
	}
	id, err := auth.ParseIdentity(token)
	if err != nil || id.Subject == "" {
		return "Signed in"
	}
	line := "Signed in as " + id.Subject
	switch {
	case id.Expired(now):
		return errorStyle.Render(line + " (token expired)")
	case !id.ExpiresAt.IsZero():
		line += hintStyle.Render("  until " + id.ExpiresAt.Local().Format(time.DateTime))
	}
	return okStyle.Render(line)
}
