package domain

// Verb is the kind of a pending mutation.
type Verb string

const (
	VerbCreate Verb = "create"
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
)

// ParseVerb maps the verb segment of a change URL to a Verb.
func ParseVerb(s string) (Verb, bool) {
	switch Verb(s) {
	case VerbCreate, VerbUpdate, VerbDelete:
		return Verb(s), true
	}
	return "", false
}
