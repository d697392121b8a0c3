// Package identity resolves the free-form sender column into a display name
// and address.
package identity

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/triage/backend/internal/models"
)

var namedAddress = regexp.MustCompile(`^(.*?)\s*<(.+)>$`)

// Resolve never fails. "Jane Doe <jane@x.com>" yields both parts; anything
// else is taken as the address, named after its local part.
func Resolve(raw string) models.Sender {
	var (
		name, email string
		matched     bool
	)
	if strings.Contains(raw, "<") {
		if m := namedAddress.FindStringSubmatch(raw); m != nil {
			name = strings.TrimSpace(m[1])
			email = strings.TrimSpace(m[2])
			matched = true
		}
	}
	if !matched {
		email = raw
		name = raw
		if at := strings.Index(raw, "@"); at >= 0 {
			name = raw[:at]
		}
	}
	return models.Sender{
		Name:      name,
		Email:     email,
		AvatarRef: AvatarRef(email),
	}
}

// AvatarRef is a stable opaque key the presentation layer maps to an image.
func AvatarRef(email string) string {
	key := strings.ToLower(strings.TrimSpace(email))
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return fmt.Sprintf("avatar-%016x", h.Sum64())
}
