package http

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"tally/internal/core"
)

const dateLayout = "2006-01-02"

// parseFilter maps query parameters to a filter. A parameter's presence
// activates its toggle; "All" is accepted and degrades the toggle to the
// type restriction alone.
//
//	?type=expense&account=Cash&category=All&from=2024-03-02&to=2024-03-05
func parseFilter(q url.Values) (core.Filter, error) {
	var f core.Filter

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		t := core.TxType(v)
		if !t.Valid() {
			return core.Filter{}, fmt.Errorf("invalid type %q", v)
		}
		f.Type = t
	}

	if q.Has("account") {
		f.ByAccount = true
		f.Account = strings.TrimSpace(q.Get("account"))
	}
	if q.Has("category") {
		f.ByCategory = true
		f.Category = strings.TrimSpace(q.Get("category"))
	}

	from := strings.TrimSpace(q.Get("from"))
	to := strings.TrimSpace(q.Get("to"))
	if from != "" || to != "" {
		if from == "" || to == "" {
			return core.Filter{}, fmt.Errorf("date filter needs both from and to")
		}
		start, err := time.Parse(dateLayout, from)
		if err != nil {
			return core.Filter{}, fmt.Errorf("invalid from date %q", from)
		}
		end, err := time.Parse(dateLayout, to)
		if err != nil {
			return core.Filter{}, fmt.Errorf("invalid to date %q", to)
		}
		if end.Before(start) {
			return core.Filter{}, fmt.Errorf("date range end before start")
		}
		f.ByDate = true
		f.Start = start
		f.End = end
	}

	return f, nil
}

// filterKey canonicalizes a filter for cache lookups.
func filterKey(f core.Filter) string {
	var b strings.Builder
	b.WriteString(string(f.Type))
	b.WriteByte('|')
	if f.ByAccount {
		b.WriteString(f.Account)
	}
	b.WriteByte('|')
	if f.ByCategory {
		b.WriteString(f.Category)
	}
	b.WriteByte('|')
	if f.ByDate {
		b.WriteString(f.Start.Format(dateLayout))
		b.WriteByte(':')
		b.WriteString(f.End.Format(dateLayout))
	}
	return b.String()
}
