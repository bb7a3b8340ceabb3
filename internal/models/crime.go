package models

import "strings"

// CrimeIncident is a single street-level crime record for one calendar month.
// Incidents lacking valid coordinates keep nil Latitude/Longitude; they are
// excluded from map rendering but retained in counts.
type CrimeIncident struct {
	Category  string        `json:"category"`
	Month     string        `json:"month"`
	Street    string        `json:"street,omitempty"`
	Latitude  *float64      `json:"latitude,omitempty"`
	Longitude *float64      `json:"longitude,omitempty"`
	Outcome   *CrimeOutcome `json:"outcome,omitempty"`
}

// CrimeOutcome is the recorded outcome of an incident, when available.
type CrimeOutcome struct {
	Category string `json:"category"`
	Date     string `json:"date,omitempty"`
}

// CrimeCategory is a provider-published crime category.
type CrimeCategory struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Humanize converts a hyphenated provider token into its display form,
// e.g. "anti-social-behaviour" becomes "Anti Social Behaviour". This is the
// canonical normalization for crime categories, outcomes, and region names.
func Humanize(token string) string {
	words := strings.Split(strings.ReplaceAll(token, "-", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
