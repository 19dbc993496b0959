package domain

import "time"

// Severity level of a threat-log entry.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ThreatEvent simulated security event shown in the threat-log widget.
type ThreatEvent struct {
	ID       string    `json:"id"`
	At       time.Time `json:"ts"`
	Severity Severity  `json:"severity"`
	Source   string    `json:"source"`
	Message  string    `json:"message"`
}

// ThreatLog rolling list of the latest threat events.
type ThreatLog = Window[ThreatEvent]
