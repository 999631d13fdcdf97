package commands

import (
	"fmt"
	"strings"

	"github.com/ostapv/leadwatch/internal/analytics"
	"github.com/ostapv/leadwatch/internal/database"
	"github.com/ostapv/leadwatch/internal/leads"
)

const helpText = `Commands:
help — this message
show <id> — full lead card
recent <id> — latest archived messages from the lead's chat
dm <id> — send the stored first-contact draft
regen <id> — regenerate the draft and send it
pitch <id> — send the service pitch
invite <id> — invite the author to the client group
fav <id> — mark the lead as favorite
ignore <id> — drop the lead from the queue
stats — per-group and per-category totals`

const cardTextLimit = 400

// RenderLeadCard renders the full operator-facing view of one lead.
func RenderLeadCard(lead *leads.Lead) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🎯 Lead %s [%s]\n", lead.ID, lead.Status)
	fmt.Fprintf(&b, "Category: %s (score %d, %s)\n",
		lead.Classification.Category, lead.Classification.Score, lead.Classification.Provenance)
	if len(lead.Classification.Reasons) > 0 {
		fmt.Fprintf(&b, "Reasons: %s\n", strings.Join(lead.Classification.Reasons, ", "))
	}

	chat := lead.ChatTitle
	if lead.ChatLink != "" {
		chat += " (" + lead.ChatLink + ")"
	}
	fmt.Fprintf(&b, "Chat: %s\n", chat)

	sender := lead.SenderName
	if lead.SenderHandle != "" {
		sender += " @" + lead.SenderHandle
	}
	fmt.Fprintf(&b, "From: %s\n\n", strings.TrimSpace(sender))

	fmt.Fprintf(&b, "%s\n", truncate(lead.Text, cardTextLimit))
	if lead.Classification.Draft != "" {
		fmt.Fprintf(&b, "\n📝 Draft:\n%s\n", lead.Classification.Draft)
	}

	fmt.Fprintf(&b, "\nNext: dm %s | pitch %s | invite %s | fav %s | ignore %s",
		lead.ID, lead.ID, lead.ID, lead.ID, lead.ID)
	return b.String()
}

const recentPreviewLimit = 120

// RenderRecent renders the newest archived messages of one chat,
// oldest first so the view reads like the chat itself.
func RenderRecent(chatTitle string, msgs []database.ArchivedMessage) string {
	if len(msgs) == 0 {
		return fmt.Sprintf("no archived messages for %s yet", chatTitle)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🕒 Recent in %s:\n", chatTitle)
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		sender := "@" + m.SenderHandle
		if m.SenderHandle == "" {
			sender = fmt.Sprintf("id %d", m.SenderID)
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n",
			m.Timestamp.Format("02.01 15:04"), sender, truncate(m.Content, recentPreviewLimit))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderStats renders per-group analytics and, when available, the
// 24-hour per-category archive breakdown.
func RenderStats(agg *analytics.Aggregator, counts []database.CategoryCount) string {
	var b strings.Builder

	b.WriteString("📊 Groups:\n")
	titles := agg.Titles()
	if len(titles) == 0 {
		b.WriteString("no messages recorded yet\n")
	}
	snapshot := agg.Snapshot()
	for _, title := range titles {
		gs := snapshot[title]
		fmt.Fprintf(&b, "%s — %d messages", title, gs.Total)
		if parts := categoryParts(gs.ByCategory); parts != "" {
			fmt.Fprintf(&b, " (%s)", parts)
		}
		b.WriteString("\n")
	}

	if len(counts) > 0 {
		b.WriteString("\nLast 24h by category:\n")
		for _, c := range counts {
			fmt.Fprintf(&b, "%s: %d\n", c.Category, c.Count)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func categoryParts(byCategory map[string]int) string {
	if len(byCategory) == 0 {
		return ""
	}
	parts := make([]string, 0, len(byCategory))
	for _, cat := range []string{"LEAD_SEARCH", "LEAD_QUESTION", "PARTNER_SERVICES", "COMPETITOR", "SPAM", "OFFTOP", "OTHER"} {
		if n := byCategory[cat]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", cat, n))
		}
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
