package notilog

// Options is the optional trailing argument to Warn: a per-call destination
// override and extra fields merged into the entry.
type Options struct {
	// Channel overrides the remote destination for this call.
	Channel string

	// Fields are merged into the entry's structured fields.
	Fields map[string]any
}

// SlackMessage is a direct send through the Slack transport (SendToSlack).
type SlackMessage struct {
	Text string

	// Channel overrides the destination ("" = webhook default).
	Channel string

	// Severity selects the endpoint/channel routing tier. "" = error.
	Severity Severity

	// Fields are attached to the payload after sanitization.
	Fields map[string]any
}
