package utils

import (
	"log"
	"strings"
)

// LogEvent writes one line per domain event, tagged by module and action.
// Messages carry identifiers only, never personal data or payloads.
func LogEvent(requestID, module, action, message string) {
	rid := strings.TrimSpace(requestID)
	if rid == "" {
		rid = "-"
	}
	log.Printf("[%s] request_id=%s action=%s %s", strings.ToUpper(module), rid, action, message)
}
