package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rushi1222/job-applier-amazon/internal/model"
)

// Normalize lowercases s and strips diacritics so "Sénior" matches "senior".
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.Join(strings.Fields(out), " "))
}

// Blacklist drops jobs whose title contains any configured term.
type Blacklist struct {
	terms []string
}

func NewBlacklist(terms []string) *Blacklist {
	b := &Blacklist{}
	for _, t := range terms {
		if n := Normalize(t); n != "" {
			b.terms = append(b.terms, n)
		}
	}
	return b
}

// Match returns the first blacklisted term found in title.
func (b *Blacklist) Match(title string) (string, bool) {
	if len(b.terms) == 0 {
		return "", false
	}
	text := Normalize(title)
	for _, t := range b.terms {
		if strings.Contains(text, t) {
			return t, true
		}
	}
	return "", false
}

// Apply keeps the jobs that pass, in order, and returns the dropped ones.
func (b *Blacklist) Apply(jobs []model.JobRecord) (kept, dropped []model.JobRecord) {
	kept = make([]model.JobRecord, 0, len(jobs))
	for _, j := range jobs {
		if _, hit := b.Match(j.Title); hit {
			dropped = append(dropped, j)
			continue
		}
		kept = append(kept, j)
	}
	return kept, dropped
}
