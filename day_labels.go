package main

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// dayLabeler produces short weekday and date labels in the configured locale.
// Only a handful of languages are supported; anything else falls back to English.
type dayLabeler struct {
	weekdays [7]string
	months   [12]string
}

var supportedLocales = []language.Tag{
	language.English,
	language.Spanish,
	language.French,
	language.German,
	language.Portuguese,
	language.Italian,
}

var localeMatcher = language.NewMatcher(supportedLocales)

var labelTables = map[language.Base]dayLabeler{
	mustBase(language.English): {
		weekdays: [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
		months:   [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	},
	mustBase(language.Spanish): {
		weekdays: [7]string{"dom", "lun", "mar", "mié", "jue", "vie", "sáb"},
		months:   [12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
	},
	mustBase(language.French): {
		weekdays: [7]string{"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."},
		months:   [12]string{"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."},
	},
	mustBase(language.German): {
		weekdays: [7]string{"So.", "Mo.", "Di.", "Mi.", "Do.", "Fr.", "Sa."},
		months:   [12]string{"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sept.", "Okt.", "Nov.", "Dez."},
	},
	mustBase(language.Portuguese): {
		weekdays: [7]string{"dom.", "seg.", "ter.", "qua.", "qui.", "sex.", "sáb."},
		months:   [12]string{"jan.", "fev.", "mar.", "abr.", "mai.", "jun.", "jul.", "ago.", "set.", "out.", "nov.", "dez."},
	},
	mustBase(language.Italian): {
		weekdays: [7]string{"dom", "lun", "mar", "mer", "gio", "ven", "sab"},
		months:   [12]string{"gen", "feb", "mar", "apr", "mag", "giu", "lug", "ago", "set", "ott", "nov", "dic"},
	},
}

func mustBase(t language.Tag) language.Base {
	b, _ := t.Base()
	return b
}

// newDayLabeler matches a BCP 47 locale string such as "en-US" or "de".
func newDayLabeler(locale string) dayLabeler {
	tag, _, _ := localeMatcher.Match(language.Make(locale))
	if table, ok := labelTables[mustBase(tag)]; ok {
		return table
	}
	return labelTables[mustBase(language.English)]
}

// Weekday returns the abbreviated weekday, e.g. "Mon".
func (l dayLabeler) Weekday(t time.Time) string {
	return l.weekdays[t.Weekday()]
}

// Date returns the weekday plus month and day, e.g. "Mon, Jun 2".
func (l dayLabeler) Date(t time.Time) string {
	return fmt.Sprintf("%s, %s %d", l.weekdays[t.Weekday()], l.months[t.Month()-1], t.Day())
}
