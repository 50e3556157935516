package profile

import "strings"

// Profile captures the business identity exposed to the widget and named in
// the system prompt.
type Profile struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Website     string `json:"website"`
	OpeningLine string `json:"openingLine"`
	Tagline     string `json:"tagline"`
	Placeholder string `json:"placeholder"`
	Footer      string `json:"footer"`
}

// Default provides the stock resort profile.
func Default() Profile {
	return Profile{
		Name:        "Barberyn Resorts",
		Title:       "Discover Barberyn: Virtual Assistant",
		Website:     "https://www.barberynresorts.com/",
		OpeningLine: "Welcome to Barberyn Virtual Assistant!",
		Tagline:     "Have a question about our resorts? Ask away!",
		Placeholder: "Ask a question about our services...",
		Footer:      "Discover Barberyn: Virtual Assistant",
	}
}

// WithOverrides replaces the name and website when set. The page title and
// footer follow a renamed business.
func (p Profile) WithOverrides(name, website string) Profile {
	name = strings.TrimSpace(name)
	if name != "" && name != p.Name {
		short := strings.Fields(name)[0]
		p.Name = name
		p.Title = "Discover " + short + ": Virtual Assistant"
		p.Footer = p.Title
		p.OpeningLine = "Welcome to " + short + " Virtual Assistant!"
	}
	if website = strings.TrimSpace(website); website != "" {
		p.Website = website
	}
	return p
}
