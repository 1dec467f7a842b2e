package participant

// DisplayCategory classifies a verification result for presentation.
// It is derived, never stored.
type DisplayCategory string

const (
	CategoryDefault  DisplayCategory = "default"
	CategoryNotFound DisplayCategory = "not-found"
	CategoryFull     DisplayCategory = "full"
	CategoryStudent  DisplayCategory = "student"
	CategoryNone     DisplayCategory = "none"
)

// CategoryFor maps a lookup result to its display category.
// A nil record means the lookup found nothing or failed.
func CategoryFor(p *Participant) DisplayCategory {
	if p == nil {
		return CategoryNotFound
	}
	switch p.RegistrationType {
	case RegistrationFull:
		return CategoryFull
	case RegistrationStudent:
		return CategoryStudent
	case RegistrationNone:
		return CategoryNone
	default:
		return CategoryDefault
	}
}
