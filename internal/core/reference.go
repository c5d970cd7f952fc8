package core

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultReferencePrefix is the merchant reference prefix used for Chapa payments.
const DefaultReferencePrefix = "CHAP"

const referenceIDLength = 12

// GenerateReference returns a merchant transaction reference of the form
// PREFIX-XXXXXXXXXXXX where the suffix is 12 uppercase hex characters taken
// from a random UUID. Uniqueness is ultimately enforced by storage.
func GenerateReference(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(id[:referenceIDLength])
}

// HasReferencePrefix reports whether ref already carries the prefix.
func HasReferencePrefix(ref, prefix string) bool {
	return strings.HasPrefix(ref, prefix+"-")
}
