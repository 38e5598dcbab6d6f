package assemble

import (
	"strings"
	"time"
)

// CodeCandidate is one stored porting-source revision for a service.
type CodeCandidate struct {
	Service string `json:"service"`
	Source  string `json:"source"`
	Updated string `json:"updated,omitempty"`
	Author  string `json:"author,omitempty"`
}

// dateLayouts are tried in order against the free-form Updated field.
// Dashed dates resolve day-first, slashed dates month-first, matching the
// sheet conventions the stored revisions come from.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"01/02/2006",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"01/02/2006 15:04:05",
	"02/01/2006 15:04:05",
	"Jan 2, 2006",
	"2 Jan 2006",
	"Jan 2 2006",
	"2006.01.02",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// parseUpdated parses a candidate's free-form timestamp. The bool is false
// when no layout matched.
func parseUpdated(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SelectLatest picks the candidate with the most recent parseable Updated
// timestamp. Candidates whose timestamp does not parse never displace one
// that does; among equal or uniformly unparseable timestamps the earliest
// candidate in input order wins. Candidates with an empty Source are
// skipped. The bool is false when nothing usable remains.
func SelectLatest(candidates []CodeCandidate) (CodeCandidate, bool) {
	var (
		best     CodeCandidate
		bestTime time.Time
		bestSet  bool
		found    bool
	)
	for _, c := range candidates {
		if strings.TrimSpace(c.Source) == "" {
			continue
		}
		if !found {
			best = c
			bestTime, bestSet = parseUpdated(c.Updated)
			found = true
			continue
		}
		t, ok := parseUpdated(c.Updated)
		if !ok {
			continue
		}
		if !bestSet || t.After(bestTime) {
			best, bestTime, bestSet = c, t, true
		}
	}
	return best, found
}
