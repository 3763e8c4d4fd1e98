package bot

import (
	"fmt"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/storebot/internal/config"
)

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                config.WebhookConfig
}

// BuildPoller returns a Telebot poller based on the provided options.
func BuildPoller(opts PollerOptions) tele.Poller {
	if opts.RunMode == config.RunModeWebhook {
		return &tele.Webhook{
			Listen:   fmt.Sprintf("%s:%d", opts.Webhook.Listen, opts.Webhook.Port),
			Endpoint: &tele.WebhookEndpoint{PublicURL: opts.Webhook.URL},
		}
	}

	timeoutSec := opts.LongPollTimeoutSeconds
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	return &tele.LongPoller{Timeout: time.Duration(timeoutSec) * time.Second}
}
