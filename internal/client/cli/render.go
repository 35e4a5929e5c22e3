package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dustin/go-humanize"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	pendingStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("246"))
	failedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	metaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
)

// renderMessage formats the n-th (1-based) message of the log.
func renderMessage(n int, m models.Message) string {
	var label string
	switch m.Role {
	case models.RoleUser:
		label = userStyle.Render("you")
	case models.RoleAssistant:
		label = assistantStyle.Render("assistant")
	default:
		label = metaStyle.Render(string(m.Role))
	}

	line := fmt.Sprintf("%s %s: %s", metaStyle.Render(fmt.Sprintf("[%d]", n)), label, m.Content)

	switch {
	case m.Failed:
		line += " " + failedStyle.Render(fmt.Sprintf("(failed, type 'retry %d')", n))
	case m.Pending():
		line += " " + pendingStyle.Render("(sending...)")
	}
	return line
}

func renderMessages(msgs []models.Message) string {
	if len(msgs) == 0 {
		return metaStyle.Render("No messages yet. Type to start the conversation.")
	}
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(renderMessage(i+1, m))
	}
	return b.String()
}

// renderSessions lists chat sessions, marking the selected one.
func renderSessions(sessions []models.ChatSession, selected int64, now time.Time) string {
	if len(sessions) == 0 {
		return metaStyle.Render("No chats yet. Use 'new [name]' to start one.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Chats"))
	for _, s := range sessions {
		b.WriteByte('\n')

		marker := "  "
		name := s.Name
		if s.ID == selected {
			marker = "* "
			name = selectedStyle.Render(name)
		}

		b.WriteString(fmt.Sprintf("%s#%-4d %s", marker, s.ID, name))
		if !s.CreatedAt.IsZero() {
			b.WriteString("  " + metaStyle.Render(humanize.RelTime(s.CreatedAt, now, "ago", "from now")))
		}
	}
	return b.String()
}

func renderIdentity(id models.Identity, now time.Time) string {
	var parts []string
	if id.Subject != "" {
		parts = append(parts, "Logged in as "+userStyle.Render(id.Subject))
	} else {
		parts = append(parts, "Logged in")
	}
	if id.UserID != 0 {
		parts = append(parts, fmt.Sprintf("user #%d", id.UserID))
	}
	if !id.ExpiresAt.IsZero() {
		if id.Expired(now) {
			parts = append(parts, failedStyle.Render("token expired "+humanize.RelTime(id.ExpiresAt, now, "ago", "from now")))
		} else {
			parts = append(parts, metaStyle.Render("token expires "+humanize.RelTime(id.ExpiresAt, now, "ago", "from now")))
		}
	}
	return strings.Join(parts, ", ")
}
