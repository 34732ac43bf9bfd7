// Package display turns canonical activity state into what the client
// shows: localized time labels, truncated bodies and per-comment controls.
// Everything here is pure; nothing is written back to the stores.
package display

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LangParam is the query parameter that overrides Accept-Language.
const LangParam = "lang"

var (
	supported = []language.Tag{language.Swedish, language.English}
	matcher   = language.NewMatcher(supported)
)

// Localizer renders catalog messages for one language and one time zone.
type Localizer struct {
	tag      language.Tag
	printer  *message.Printer
	location *time.Location
}

// NewLocalizer matches tag against the supported languages. A nil location
// means UTC.
func NewLocalizer(tag language.Tag, loc *time.Location) Localizer {
	matched := MatchTag(tag)
	if loc == nil {
		loc = time.UTC
	}
	return Localizer{
		tag:      matched,
		printer:  message.NewPrinter(matched),
		location: loc,
	}
}

func (l Localizer) Tag() language.Tag {
	if l.printer == nil {
		return language.Swedish
	}
	return l.tag
}

func (l Localizer) Location() *time.Location {
	if l.location == nil {
		return time.UTC
	}
	return l.location
}

// T formats the message stored under key.
func (l Localizer) T(key string, args ...any) string {
	p := l.printer
	if p == nil {
		p = message.NewPrinter(language.Swedish)
	}
	return p.Sprintf(key, args...)
}

// MatchTag picks the closest supported language; Swedish when nothing fits.
func MatchTag(tags ...language.Tag) language.Tag {
	if len(tags) == 0 {
		return language.Swedish
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return language.Swedish
	}
	return supported[idx]
}

// ParseTag parses s and reports whether it names a supported language.
func ParseTag(s string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.Und, false
	}
	return supported[idx], true
}

// ResolveTag picks the request's language: the lang query parameter, then
// Accept-Language, then def.
func ResolveTag(r *http.Request, def language.Tag) language.Tag {
	if r == nil {
		return def
	}
	if v := r.URL.Query().Get(LangParam); v != "" {
		if tag, ok := ParseTag(v); ok {
			return tag
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			if _, idx, conf := matcher.Match(tags...); conf != language.No {
				return supported[idx]
			}
		}
	}
	return def
}
