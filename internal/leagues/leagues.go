// Package leagues holds the competition whitelist. Matching is
// case-insensitive and substring-based because the provider is not
// consistent about league naming across seasons.
package leagues

import "strings"

type rule struct {
	countries []string
	names     []string
}

var rules = []rule{
	{[]string{"italy"}, []string{"serie a", "serie-a", "serie b", "serie-b", "serie c", "serie-c", "coppa italia"}},
	{[]string{"england"}, []string{"premier", "championship", "fa cup", "efl cup", "carabao", "league cup"}},
	{[]string{"spain"}, []string{"la liga", "laliga", "segunda", "copa del rey"}},
	{[]string{"germany"}, []string{"bundesliga", "dfb-pokal", "dfb pokal"}},
	{[]string{"france"}, []string{"ligue 1", "ligue 2", "coupe de france"}},
	{[]string{"portugal"}, []string{"primeira liga", "liga portugal", "taca de portugal"}},
	{[]string{"netherlands", "holland"}, []string{"eredivisie", "knvb beker"}},
	{[]string{"belgium"}, []string{"pro league", "jupiler"}},
	{[]string{"austria"}, []string{"bundesliga"}},
	{[]string{"denmark"}, []string{"superliga"}},
	{[]string{"romania"}, []string{"liga 1", "liga i", "superliga"}},
	{[]string{"scotland"}, []string{"premiership", "premier"}},
	{[]string{"switzerland", "swiss"}, []string{"super league"}},
	{[]string{"turkey"}, []string{"super lig"}},
	{[]string{"europe", "world", "uefa"}, []string{"champions league", "europa league", "conference league", "uefa super cup"}},
	{[]string{"world", "fifa"}, []string{"world cup"}},
	{[]string{"south america", "conmebol", "world"}, []string{"libertadores", "sudamericana"}},
}

// Allowed reports whether a competition is in the whitelist.
func Allowed(country, name string) bool {
	c := norm(country)
	n := norm(name)
	if c == "" || n == "" {
		return false
	}
	for _, r := range rules {
		if !contains(r.countries, c) {
			continue
		}
		for _, frag := range r.names {
			if strings.Contains(n, frag) {
				return true
			}
		}
	}
	return false
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
