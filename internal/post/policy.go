package post

import "strings"

// Well-known header keys.
const (
	HeaderTitle    = "title"
	HeaderAuthor   = "author"
	HeaderID       = "id"
	HeaderDate     = "date"
	HeaderSubtitle = "subtitle"
)

// DefaultRequiredHeaders are required by DefaultPolicy.
var DefaultRequiredHeaders = []string{HeaderTitle, HeaderAuthor, HeaderID, HeaderDate}

// Policy is the required-header rule applied at the end of Parse.
// The zero value accepts everything.
type Policy struct {
	Required []string
	Strict   bool
}

// DefaultPolicy requires DefaultRequiredHeaders.
func DefaultPolicy() Policy {
	required := make([]string, len(DefaultRequiredHeaders))
	copy(required, DefaultRequiredHeaders)
	return Policy{Required: required, Strict: true}
}

// LenientPolicy skips validation. It is meant for drafts and previews.
func LenientPolicy() Policy {
	return Policy{}
}

// Normalize returns p with keys trimmed, lowercased and deduplicated.
func (p Policy) Normalize() Policy {
	seen := make(map[string]struct{}, len(p.Required))
	out := make([]string, 0, len(p.Required))
	for _, k := range p.Required {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return Policy{Required: out, Strict: p.Strict}
}

// Validate returns a *MissingHeadersError naming every required key absent
// from d. It always succeeds when p is not strict.
func (p Policy) Validate(d *Document) error {
	if !p.Strict {
		return nil
	}
	var missing []string
	for _, k := range p.Required {
		if !d.HasHeader(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &MissingHeadersError{Keys: missing}
	}
	return nil
}
