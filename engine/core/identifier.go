package core

import (
	"fmt"

	"github.com/google/uuid"
)

// IdentifierNew returns a name that is unique across runs, used for segment
// names and the files they are exported to.
func IdentifierNew(prefix string) string {
	id := uuid.New()
	if len(prefix) == 0 {
		return id.String()
	}
	return fmt.Sprintf("%s-%s", prefix, id.String())
}

// IdentifierParse extracts the uuid part of a name built by IdentifierNew.
func IdentifierParse(name string) (uuid.UUID, error) {
	// a uuid string is always 36 characters
	if len(name) < 36 {
		return uuid.Nil, fmt.Errorf("identifier '%s' is too short", name)
	}
	return uuid.Parse(name[len(name)-36:])
}
