package syslogfacade

import (
	"log/syslog"
	"strconv"
)

// severityMask isolates the severity bits of a syslog.Priority, mirroring
// glibc's LOG_PRIMASK (facility bits occupy the rest).
const severityMask = 0x07

// priorityNames gives each syslog severity the upper-case name novaprova's
// composed log lines use ("CRIT: panic now", not "crit: panic now"),
// unlike glibc's lower-case prioritynames table. log/syslog exposes the
// severities as untyped constants but no name table of its own.
var priorityNames = [8]string{
	syslog.LOG_EMERG:   "EMERG",
	syslog.LOG_ALERT:   "ALERT",
	syslog.LOG_CRIT:    "CRIT",
	syslog.LOG_ERR:     "ERR",
	syslog.LOG_WARNING: "WARNING",
	syslog.LOG_NOTICE:  "NOTICE",
	syslog.LOG_INFO:    "INFO",
	syslog.LOG_DEBUG:   "DEBUG",
}

func priorityName(p syslog.Priority) string {
	sev := int(p) & severityMask
	if sev < 0 || sev >= len(priorityNames) {
		return strconv.Itoa(sev)
	}
	return priorityNames[sev]
}
