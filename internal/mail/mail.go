// Package mail sends a notification email after a scheduled broadcast has
// played. Sending is best effort: failures are logged and counted, never
// propagated, because a lost email must not affect playback.
package mail

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/url"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/beni69/csengo/internal/conf"
	"github.com/beni69/csengo/internal/logging"
	"github.com/beni69/csengo/internal/observability/metrics"
)

const sendTimeout = 15 * time.Second

// Notifier sends the task-done email over SMTP. A Notifier built without
// mail credentials is a no-op.
type Notifier struct {
	sender    *router.ServiceRouter
	address   string
	signature string
	metrics   *metrics.MailMetrics
	logger    *slog.Logger
}

// New builds a Notifier from the mail settings. When no address or password
// is configured the returned Notifier silently drops every send.
func New(settings *conf.Settings, m *metrics.MailMetrics) *Notifier {
	n := &Notifier{
		address:   settings.Mail.Address,
		signature: settings.Mail.Signature,
		metrics:   m,
		logger:    logging.ForService("mail"),
	}

	if !settings.MailEnabled() {
		n.logger.Warn("mail address or password not set, no mail will be sent")
		return n
	}

	sender, err := shoutrrr.CreateSender(smtpURL(settings))
	if err != nil {
		n.logger.Error("invalid mail configuration", "error", err)
		return n
	}
	sender.Timeout = sendTimeout
	sender.SetLogger(log.New(io.Discard, "", 0))
	n.sender = sender
	return n
}

// Enabled reports whether the notifier has a working transport.
func (n *Notifier) Enabled() bool { return n.sender != nil }

// TaskDone reports that the named file played at the given time. The
// notification goes to the configured address itself.
func (n *Notifier) TaskDone(fileName string, fireTime time.Time) {
	if n.sender == nil {
		return
	}

	body := fmt.Sprintf(`Tisztelt Tanár úr!

Sikeresen lement a következő adás:
Név: %s
Időpont: %s

Üdvözlettel,
%s`, fileName, fireTime.Local().Format("2006-01-02 15:04:05"), n.signature)

	params := stypes.Params{}
	params.SetTitle("Adás: " + fileName)

	errs := n.sender.Send(body, &params)
	for _, err := range errs {
		if err != nil {
			n.logger.Error("failed to send mail", "file", fileName, "error", err)
			if n.metrics != nil {
				n.metrics.RecordEmail(false)
			}
			return
		}
	}

	n.logger.Info("mail sent", "file", fileName)
	if n.metrics != nil {
		n.metrics.RecordEmail(true)
	}
}

// smtpURL renders the shoutrrr service URL for the configured account. The
// sender address doubles as the recipient.
func smtpURL(settings *conf.Settings) string {
	q := url.Values{}
	q.Set("from", settings.Mail.Address)
	q.Set("to", settings.Mail.Address)
	q.Set("useStartTLS", "no")
	q.Set("auth", "Plain")

	return fmt.Sprintf("smtp://%s:%s@%s:%d/?%s",
		url.QueryEscape(settings.Mail.Address),
		url.QueryEscape(settings.Mail.Password),
		settings.Mail.Host,
		settings.Mail.Port,
		q.Encode())
}
