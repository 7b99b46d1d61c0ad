package shazam

// Countries maps the chart country codes the service accepts to display names.
var Countries = map[string]string{
	WorldChart: "World",
	"AU":       "Australia",
	"AT":       "Austria",
	"BY":       "Belarus",
	"UK":       "United Kingdom",
	"DE":       "Germany",
	"DK":       "Denmark",
	"ES":       "Spain",
	"IT":       "Italy",
	"CN":       "China",
	"PT":       "Portugal",
	"RU":       "Russia",
	"US":       "United States",
	"RS":       "Serbia",
	"FI":       "Finland",
	"FR":       "France",
	"CH":       "Switzerland",
}

// Genres are the chart genre filters the service understands.
var Genres = map[string]string{
	"pop":         "Pop",
	"country":     "Country",
	"rock":        "Rock",
	"afro":        "Afro",
	"alternative": "Alternative",
	"dance":       "Dance",
	"electronic":  "Electronic",
	"rap-hip-hop": "Hip-Hop/Rap",
}

var allGenres = []string{"alternative", "pop", "rock", "dance", "electronic", "country", "afro", "rap-hip-hop"}

// AvailableGenres lists the genre filters the service actually serves per
// country. Smaller markets expose no genre charts at all.
var AvailableGenres = map[string][]string{
	WorldChart: allGenres,
	"AU":       allGenres,
	"AT":       {},
	"BY":       {},
	"UK":       {},
	"DE":       allGenres,
	"DK":       {},
	"ES":       allGenres,
	"IT":       allGenres,
	"CN":       {},
	"PT":       {},
	"RU":       allGenres,
	"US":       allGenres,
	"RS":       {},
	"FI":       {},
	"FR":       allGenres,
	"CH":       {},
}

// ValidCountry reports whether the country code is chartable.
func ValidCountry(country string) bool {
	_, ok := Countries[country]
	return ok
}

// ValidGenre reports whether the genre filter is served for the country.
func ValidGenre(country, genre string) bool {
	if genre == "" {
		return true
	}
	for _, g := range AvailableGenres[country] {
		if g == genre {
			return true
		}
	}
	return false
}
