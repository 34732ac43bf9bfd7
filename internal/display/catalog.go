package display

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type translation struct {
	key string
	sv  string
	en  string
}

var translations = []translation{
	{"time.just_now", "just nu", "just now"},
	{"time.minutes_ago", "%d min sedan", "%d min ago"},
	{"time.hours_ago", "%d h sedan", "%d h ago"},
	{"time.day_ago", "%d dag sedan", "%d day ago"},
	{"time.days_ago", "%d dagar sedan", "%d days ago"},
	{"time.absolute", "%d %s kl. %s", "%d %s at %s"},

	{"month.1", "jan", "Jan"},
	{"month.2", "feb", "Feb"},
	{"month.3", "mar", "Mar"},
	{"month.4", "apr", "Apr"},
	{"month.5", "maj", "May"},
	{"month.6", "jun", "Jun"},
	{"month.7", "jul", "Jul"},
	{"month.8", "aug", "Aug"},
	{"month.9", "sep", "Sep"},
	{"month.10", "okt", "Oct"},
	{"month.11", "nov", "Nov"},
	{"month.12", "dec", "Dec"},

	{"error.transport", "Det gick inte att slutföra åtgärden. Försök igen.", "Could not complete the action. Please try again."},
	{"error.unauthorized", "Du behöver logga in igen.", "You need to sign in again."},
	{"error.rejected", "Åtgärden godkändes inte.", "The action was not accepted."},
	{"error.not_found", "Hittades inte.", "Not found."},
	{"error.comment_not_found", "Kommentaren finns inte längre.", "That comment no longer exists."},
	{"error.not_replyable", "Du kan bara svara på huvudkommentarer.", "Only top-level comments can be replied to."},

	{"event.degraded", "Aktiviteten kunde inte uppdateras.", "The activity could not be refreshed."},
}

func init() {
	for _, t := range translations {
		_ = message.SetString(language.Swedish, t.key, t.sv)
		_ = message.SetString(language.English, t.key, t.en)
	}
}
