// internal/infra/telegram/ops_notifier.go
package telegram

import (
	"fmt"

	"school_backend/internal/domain/importer"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// OpsNotifier mirrors import outcomes to an operations chat using the
// gopkg.in/telebot.v3 library. Alerts are best effort: failures are logged
// and never fail the job. A nil *OpsNotifier is safe to call, so the channel
// can stay unconfigured.
type OpsNotifier struct {
	bot    *telebot.Bot
	chatID int64
	logger *logrus.Logger
}

func NewOpsNotifier(token string, chatID int64, logger *logrus.Logger) (*OpsNotifier, error) {
	bot, err := telebot.NewBot(telebot.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("failed to create ops Telegram bot: %w", err)
	}
	return &OpsNotifier{bot: bot, chatID: chatID, logger: logger}, nil
}

func (n *OpsNotifier) ImportCompleted(initiator importer.Initiator, report *importer.Report) {
	if n == nil {
		return
	}
	n.send(fmt.Sprintf(
		"User import for school %s finished: %d created, %d rejected (initiated by %s).",
		initiator.SchoolID, report.SuccessCount, report.ErrorCount, initiator.Email,
	))
}

func (n *OpsNotifier) ImportFailed(job importer.Job, err error) {
	if n == nil {
		return
	}
	n.send(fmt.Sprintf(
		"User import for school %s FAILED (payload %s): %v",
		job.Initiator.SchoolID, job.PayloadPath, err,
	))
}

func (n *OpsNotifier) send(text string) {
	recipient := &telebot.User{ID: n.chatID}
	if _, err := n.bot.Send(recipient, text, &telebot.SendOptions{}); err != nil {
		n.logger.Warnf("Failed to deliver ops alert: %v", err)
	}
}
