package apply

// ReplyTemplates are the canned answers offered to recruiters.
var ReplyTemplates = []string{
	"Perfil interesante para futuras vacantes.",
	"Experiencia insuficiente para los requisitos actuales.",
	"Falta dominio de herramientas solicitadas.",
	"Horarios/ubicación no compatibles.",
	"Vacante ocupada. ¡Gracias por tu interés!",
}

// InsertTemplate appends tpl to draft, on a new line when draft is not empty.
func InsertTemplate(draft, tpl string) string {
	if tpl == "" {
		return draft
	}
	if draft == "" {
		return tpl
	}
	return draft + "\n" + tpl
}
