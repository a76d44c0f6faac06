package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"contractflow/internal/providers/chat"
)

// SlackReporter posts a run summary to a channel and optionally DMs the submitter.
type SlackReporter struct {
	chat        Chat
	channelID   string
	dmSubmitter bool
	logger      *slog.Logger
}

// NewSlackReporter reports to channelID unless a job names its own channel.
func NewSlackReporter(c Chat, channelID string, dmSubmitter bool, logger *slog.Logger) *SlackReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlackReporter{chat: c, channelID: channelID, dmSubmitter: dmSubmitter, logger: logger}
}

// Report implements Reporter.
func (r *SlackReporter) Report(ctx context.Context, job Job, res *Result) error {
	msg := Summarize(res)
	var errs []error

	channel := job.Origin.ChannelID
	if channel == "" {
		channel = r.channelID
	}
	if channel != "" {
		msg.Channel = channel
		if _, err := r.chat.PostMessage(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("post to %s: %w", channel, err))
		}
	} else {
		r.logger.WarnContext(ctx, "no report channel configured", "run_id", res.RunID)
	}

	if r.dmSubmitter && job.Origin.UserID != "" {
		dm, err := r.chat.OpenDM(ctx, job.Origin.UserID)
		if err == nil {
			msg.Channel = dm
			_, err = r.chat.PostMessage(ctx, msg)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("dm %s: %w", job.Origin.UserID, err))
		}
	}
	return errors.Join(errs...)
}

// Summarize renders a result as a Block Kit message (without a channel).
func Summarize(res *Result) chat.Message {
	req := res.Request
	var title, text string
	if res.Success {
		title = fmt.Sprintf(":white_check_mark: Contract created: %s", req.Company)
		text = fmt.Sprintf("Contract created for %s (%s, %s)", req.Company, strings.ToUpper(string(req.Variant)), req.Amount)
	} else {
		title = fmt.Sprintf(":x: Contract failed: %s", req.Company)
		text = fmt.Sprintf("Contract for %s failed at %s: %s", req.Company, res.Stage, res.Error)
	}

	blocks := []chat.Block{
		chat.Header(title),
		chat.Section(nil,
			chat.Markdown("*Client:*\n"+req.ClientName+" ("+req.ClientEmail+")"),
			chat.Markdown("*Type:*\n"+strings.ToUpper(string(req.Variant))),
			chat.Markdown("*Amount:*\n"+req.Amount),
			chat.Markdown("*Source:*\n"+orDash(res.Source)),
		),
	}

	if !res.Success {
		blocks = append(blocks, chat.Section(chat.Markdown(
			fmt.Sprintf("*Failed at `%s`:* %s\nNo invoice or task was created.", res.Stage, res.Error))))
	}

	var lines []string
	if res.ESign != nil {
		line := "*Agreement:* " + res.ESign.DocumentID
		if res.ESign.SigningLink != "" {
			label := "signing link"
			if res.ESign.LinkType == "viewer" {
				label = "view document (embedded link unavailable)"
			}
			line += fmt.Sprintf(" - <%s|%s>", res.ESign.SigningLink, label)
		}
		if res.ESign.EmailInviteSent {
			line += " - email invite sent"
		}
		if res.ESign.Error != "" {
			line += " - :warning: invite failed: " + res.ESign.Error
		}
		lines = append(lines, line)
	}
	if p := res.Payment; p != nil {
		switch {
		case p.Error != "":
			lines = append(lines, "*Invoice:* :warning: "+p.Error)
		case p.InvoiceURL != "":
			lines = append(lines, fmt.Sprintf("*Invoice:* <%s|%s> (%s)", p.InvoiceURL, p.InvoiceID, p.Mode))
		default:
			lines = append(lines, "*Invoice:* "+orDash(p.InvoiceID))
		}
	}
	if t := res.Task; t != nil {
		if t.Error != "" {
			lines = append(lines, "*Task:* :warning: "+t.Error)
		} else {
			lines = append(lines, fmt.Sprintf("*Task:* <%s|%s>", t.TaskURL, t.TaskID))
		}
	}
	if a := res.Archive; a != nil {
		if a.Error != "" {
			lines = append(lines, "*Archive:* :warning: "+a.Error)
		} else {
			lines = append(lines, "*Archive:* "+a.ObjectKey)
		}
	}
	if len(lines) > 0 {
		blocks = append(blocks, chat.Divider(), chat.Section(chat.Markdown(strings.Join(lines, "\n"))))
	}
	blocks = append(blocks, chat.Context(chat.Markdown("Run `"+res.RunID+"`")))

	return chat.Message{Text: text, Blocks: blocks}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
