package fetch

import (
	"fmt"
	"strings"
	"time"
)

// DefaultBaseURL is where FINRA publishes monthly Reg SHO short-sale files.
const DefaultBaseURL = "https://cdn.finra.org/equity/regsho/monthly"

// DefaultSources are the monthly file families. A "_N" suffix selects a part file.
var DefaultSources = []string{"FNRA", "FNSQ", "FNSQ_1", "FNSQ_2", "FNSQ_3", "FNSQ_4", "FNQC", "FNYX"}

const monthLayout = "2006-01"

// ParseMonth parses YYYY-MM (or YYYYMM) into the first day of that month, UTC.
func ParseMonth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{monthLayout, "200601"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid month %q (use YYYY-MM)", s)
}

// Months returns the first day of every month in [from, to].
func Months(from, to time.Time) []time.Time {
	start := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 1, 0) {
		out = append(out, d)
	}
	return out
}

// FileName returns {SOURCE}sh{YYYYMM}[_{part}].zip for source and month.
func FileName(source string, month time.Time) string {
	prefix, part, _ := strings.Cut(source, "_")
	name := prefix + "sh" + month.Format("200601")
	if part != "" {
		name += "_" + part
	}
	return name + ".zip"
}
