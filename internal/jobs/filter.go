package jobs

import "strings"

// Criteria are the optional directory predicates. Zero values mean no
// constraint.
type Criteria struct {
	Text      string           `json:"q,omitempty"`
	RegionID  string           `json:"region,omitempty"`
	SubRegion string           `json:"sub,omitempty"`
	Location  string           `json:"loc,omitempty"`
	City      string           `json:"city,omitempty"`
	MinSalary int              `json:"min,omitempty"`
	Types     []EmploymentType `json:"types,omitempty"`
}

// Filter returns the postings that are not deleted and satisfy every
// predicate in c, in their original order.
func Filter(postings []Posting, c Criteria) []Posting {
	text := normalize(c.Text)
	sub := normalize(c.SubRegion)
	loc := normalize(c.Location)
	city := normalize(c.City)

	out := make([]Posting, 0, len(postings))
	for _, p := range postings {
		if p.Status == StatusDeleted {
			continue
		}
		if text != "" && !containsFold(p.Title+" "+p.Description, text) {
			continue
		}
		if c.RegionID != "" && p.RegionID != c.RegionID {
			continue
		}
		if sub != "" && strings.ToLower(p.SubRegion) != sub {
			continue
		}
		if loc != "" && !containsFold(p.Location, loc) {
			continue
		}
		if city != "" && !containsFold(p.Location, city) {
			continue
		}
		if c.MinSalary > 0 && p.Salary < c.MinSalary {
			continue
		}
		if len(c.Types) > 0 && !hasType(c.Types, p.Type) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// containsFold reports whether the lowercased needle appears anywhere in
// haystack, ignoring case.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func hasType(types []EmploymentType, t EmploymentType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
