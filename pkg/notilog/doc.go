// Package notilog is a pluggable logging facade: it accepts log calls at
// several severities, renders them to the console, and fans warn/error
// severities out to chat notification transports (Slack webhook, Telegram,
// journald, or custom sinks).
//
// Quick start:
//
//	log := notilog.New(notilog.Config{
//	    AppName: "checkout",
//	    Slack: notilog.SlackConfig{
//	        Enabled:    true,
//	        WebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
//	    },
//	})
//
//	log.Info("service started", port)
//	log.Error("payment failed", err)
//
// Dispatch is fire-and-forget: log calls never block on delivery and no
// failure inside the facade ever propagates to the caller. Error values of
// unknown shape are normalized into safe structured fields instead of being
// trusted or dropped.
package notilog
