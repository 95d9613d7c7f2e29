package libcal

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// GridTimeLayout is the wall-clock format the availability grid uses for
// slot boundaries. It matches the timeslot columns in the store.
const GridTimeLayout = "2006-01-02 15:04:05"

// ParseGridTime parses a grid timestamp into a naive wall-clock time
// (UTC-tagged so database round trips compare consistently).
func ParseGridTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(GridTimeLayout, s, time.UTC); err == nil {
		return t, nil
	}
	// some deployments emit ISO "T" separators
	return time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
}

var (
	seatLinkRe   = regexp.MustCompile(`/seat/(\d+)`)
	dataAttrRe   = regexp.MustCompile(`data-(?:seat|space)-id="(\d+)"`)
	seatIDJSONRe = regexp.MustCompile(`"seatId"\s*:\s*(\d+)`)

	h1Re      = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	titleRe   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	tagRe     = regexp.MustCompile(`<[^>]+>`)
	spaceRe   = regexp.MustCompile(`\s+`)
	namedElRe = []*regexp.Regexp{
		regexp.MustCompile(`(?is)class="[^"]*(?:space|seat)[^"]*(?:name|title)[^"]*"[^>]*>(.*?)<`),
		regexp.MustCompile(`(?is)class="[^"]*item-title[^"]*"[^>]*>(.*?)<`),
		regexp.MustCompile(`(?i)data-space-name="([^"]+)"`),
		regexp.MustCompile(`(?i)data-seat-name="([^"]+)"`),
	}
)

func extractIDs(html string, re *regexp.Regexp) map[int64]struct{} {
	ids := map[int64]struct{}{}
	for _, m := range re.FindAllStringSubmatch(html, -1) {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		ids[id] = struct{}{}
	}
	return ids
}

func stripTags(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// normalizeSeatName drops the location suffix:
// "4.A.20 (UB City Centre, ...)" -> "4.A.20".
func normalizeSeatName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.Index(name, " ("); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// seatNameFromHTML tries several patterns because the seat pages do not
// reliably put the name in <h1>.
func seatNameFromHTML(html string) *string {
	if m := h1Re.FindStringSubmatch(html); m != nil {
		if name := stripTags(m[1]); name != "" {
			n := normalizeSeatName(name)
			return &n
		}
	}

	for _, re := range namedElRe {
		if m := re.FindStringSubmatch(html); m != nil {
			if name := stripTags(m[1]); name != "" {
				return &name
			}
		}
	}

	if m := titleRe.FindStringSubmatch(html); m != nil {
		if title := stripTags(m[1]); title != "" {
			parts := strings.FieldsFunc(title, func(r rune) bool { return r == '-' || r == '|' })
			var clean []string
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					clean = append(clean, p)
				}
			}
			if len(clean) >= 2 {
				return &clean[1]
			}
			return &title
		}
	}

	return nil
}
