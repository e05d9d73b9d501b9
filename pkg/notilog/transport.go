package notilog

import "notilog/internal/transport"

// Re-exported transport contract so custom sinks can be implemented without
// reaching into internal packages.
type (
	// Severity is the declared importance tier of a log call.
	Severity = transport.Severity

	// Entry is one dispatched log call.
	Entry = transport.Entry

	// Transport is a log destination: a capability interface every sink
	// implements.
	Transport = transport.Transport
)

const (
	SeverityLog             = transport.SeverityLog
	SeverityInfo            = transport.SeverityInfo
	SeverityWarn            = transport.SeverityWarn
	SeverityError           = transport.SeverityError
	SeverityErrorBackground = transport.SeverityErrorBackground
	SeverityDebug           = transport.SeverityDebug
	SeverityVerbose         = transport.SeverityVerbose
)
