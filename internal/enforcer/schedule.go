package enforcer

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fwarner/kidlock/internal/config"
)

// withinSchedule reports whether now falls inside the applicable daily
// window. Saturday and Sunday use the weekend window, everything else the
// weekday window; both endpoints are inclusive. A window string that does
// not parse allows access; a config typo must never lock a user out.
func withinSchedule(policy config.UserPolicy, now time.Time) bool {
	window := policy.WeekdayHours
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		window = policy.WeekendHours
	}

	start, end, err := parseWindow(window)
	if err != nil {
		slog.Warn("invalid schedule window, allowing access", "window", window, "error", err)
		return true
	}

	current := now.Hour()*60 + now.Minute()
	return start <= current && current <= end
}

// parseWindow parses a "HH:MM-HH:MM" string into start and end expressed
// as minutes of the day.
func parseWindow(window string) (int, int, error) {
	parts := strings.Split(window, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected 'HH:MM-HH:MM', got %q", window)
	}

	layout := "15:04"
	start, err := time.Parse(layout, strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err := time.Parse(layout, strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}

	return start.Hour()*60 + start.Minute(), end.Hour()*60 + end.Minute(), nil
}
