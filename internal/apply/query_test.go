package apply_test

import (
	"strings"
	"testing"

	"leja/board-service/internal/apply"
)

func TestOwnerQuery(t *testing.T) {
	apps := []apply.Application{
		{ID: "a", JobID: "j1", JobTitle: "Panadero", Company: "La Espiga", CandidateName: "Ana", Candidate: "ana@example.com", Status: apply.StatusPending},
		{ID: "b", JobID: "j2", JobTitle: "Soldador", Company: "Aceros", CandidateName: "Luis", Candidate: "luis@example.com", Status: apply.StatusAccepted},
		{ID: "c", JobID: "j1", JobTitle: "Panadero", Company: "La Espiga", Candidate: "eva@example.com", Status: apply.StatusRejected},
	}
	cases := []struct {
		q    apply.OwnerQuery
		want string
	}{
		{apply.OwnerQuery{}, "a,b,c"},
		{apply.OwnerQuery{Text: "ESPIGA"}, "a,c"},
		{apply.OwnerQuery{Text: "luis"}, "b"},
		{apply.OwnerQuery{Text: "eva@"}, "c"},
		{apply.OwnerQuery{Status: apply.StatusAccepted}, "b"},
		{apply.OwnerQuery{JobID: "j1"}, "a,c"},
		{apply.OwnerQuery{JobID: "j1", Status: apply.StatusPending}, "a"},
	}
	for _, c := range cases {
		got := apply.FilterOwner(apps, c.q)
		parts := make([]string, len(got))
		for i, a := range got {
			parts[i] = a.ID
		}
		if s := strings.Join(parts, ","); s != c.want {
			t.Errorf("FilterOwner(%+v) = %q, want %q", c.q, s, c.want)
		}
	}

	counts := apply.CountByJob(apps)
	if counts["j1"] != 2 || counts["j2"] != 1 {
		t.Errorf("CountByJob = %v", counts)
	}
}

func TestInsertTemplate(t *testing.T) {
	if got := apply.InsertTemplate("", apply.ReplyTemplates[0]); got != apply.ReplyTemplates[0] {
		t.Errorf("InsertTemplate on empty draft = %q", got)
	}
	if got := apply.InsertTemplate("Hola", "Gracias"); got != "Hola\nGracias" {
		t.Errorf("InsertTemplate = %q", got)
	}
	if got := apply.InsertTemplate("Hola", ""); got != "Hola" {
		t.Errorf("InsertTemplate with empty template = %q", got)
	}
	if len(apply.ReplyTemplates) != 5 {
		t.Errorf("len(ReplyTemplates) = %d, want 5", len(apply.ReplyTemplates))
	}
}
