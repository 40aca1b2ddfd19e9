package notify

import (
	"fmt"
	"os"

	"github.com/oszuidwest/zwfm-varecorder/internal/types"
	"github.com/oszuidwest/zwfm-varecorder/internal/util"
)

// emailSubject returns the subject line for a recording outcome.
func emailSubject(e *types.Event) string {
	switch e.Kind {
	case types.EventSessionSaved:
		return "[OK] Recording saved - " + e.Target
	case types.EventSessionSkipped:
		return "[WARN] Recording not saved, lock active - " + e.Target
	default:
		return "[ALERT] Recording failed - " + e.Target
	}
}

// emailBody returns the plain text body for a recording outcome.
func emailBody(e *types.Event) string {
	host, _ := os.Hostname()
	body := fmt.Sprintf(
		"%s on %s\n\n"+
			"Target:   %s\n"+
			"Trigger:  %s\n"+
			"Stopped:  %s\n"+
			"Duration: %s\n"+
			"Time:     %s\n",
		AppName, host, e.Target, e.Trigger, e.Cause,
		util.FormatDuration(e.Duration), util.HumanTime(e.Time),
	)
	if e.File != "" {
		body += "File:     " + e.File + "\n"
	}
	if e.Error != "" {
		body += "Error:    " + e.Error + "\n"
	}
	return body
}
