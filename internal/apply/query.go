package apply

import "strings"

// OwnerQuery narrows the recruiter's application list. Zero values match
// everything.
type OwnerQuery struct {
	Text   string `json:"q,omitempty"`
	Status Status `json:"status,omitempty"`
	JobID  string `json:"job,omitempty"`
}

// Match reports whether a satisfies every predicate of q. Text is a
// case-insensitive substring of job title, company, candidate name and
// candidate identity.
func (q OwnerQuery) Match(a Application) bool {
	if text := strings.ToLower(strings.TrimSpace(q.Text)); text != "" {
		hay := strings.ToLower(a.JobTitle + " " + a.Company + " " + a.CandidateName + " " + a.Candidate)
		if !strings.Contains(hay, text) {
			return false
		}
	}
	if q.Status != "" && a.Status != q.Status {
		return false
	}
	if q.JobID != "" && a.JobID != q.JobID {
		return false
	}
	return true
}

// FilterOwner keeps the applications matching q, order preserved.
func FilterOwner(apps []Application, q OwnerQuery) []Application {
	out := make([]Application, 0, len(apps))
	for _, a := range apps {
		if q.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

// CountByJob returns the number of applications per posting id.
func CountByJob(apps []Application) map[string]int {
	counts := make(map[string]int)
	for _, a := range apps {
		counts[a.JobID]++
	}
	return counts
}
