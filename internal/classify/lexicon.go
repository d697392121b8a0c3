package classify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon holds the ordered phrase lists the classifier matches against.
// Output order of every extracted list follows the order here, not the text.
type Lexicon struct {
	urgency      []string
	positive     []string
	negative     []string
	requirements []string
	products     []string
}

// LexiconSpec is the mutable, serializable form of a Lexicon.
type LexiconSpec struct {
	Urgency      []string `yaml:"urgency" json:"urgency"`
	Positive     []string `yaml:"positive" json:"positive"`
	Negative     []string `yaml:"negative" json:"negative"`
	Requirements []string `yaml:"requirements" json:"requirements"`
	Products     []string `yaml:"products" json:"products"`
}

var defaultSpec = LexiconSpec{
	Urgency: []string{
		"urgent", "critical", "emergency", "asap", "immediately",
		"cannot access", "down", "broken", "not working",
	},
	Positive: []string{
		"thank", "great", "excellent", "love", "amazing", "wonderful", "fantastic", "pleased",
	},
	Negative: []string{
		"angry", "frustrated", "terrible", "awful", "hate", "disappointed", "cannot", "broken", "problem",
	},
	Requirements: []string{
		"need help", "need assistance", "want to", "looking for", "require",
		"account access", "password reset", "billing", "refund", "cancel",
		"upgrade", "downgrade", "feature request", "bug report",
	},
	Products: []string{
		"dashboard", "account", "billing", "subscription", "api", "integration",
		"mobile app", "web app", "service", "support", "premium", "basic plan",
	},
}

func DefaultLexicon() Lexicon {
	return NewLexicon(defaultSpec)
}

// NewLexicon copies spec; lists left empty in spec fall back to the defaults.
func NewLexicon(spec LexiconSpec) Lexicon {
	return Lexicon{
		urgency:      pick(spec.Urgency, defaultSpec.Urgency),
		positive:     pick(spec.Positive, defaultSpec.Positive),
		negative:     pick(spec.Negative, defaultSpec.Negative),
		requirements: pick(spec.Requirements, defaultSpec.Requirements),
		products:     pick(spec.Products, defaultSpec.Products),
	}
}

// LoadLexicon reads a YAML lexicon override from path.
func LoadLexicon(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	var spec LexiconSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return Lexicon{}, fmt.Errorf("parse lexicon %s: %w", path, err)
	}
	return NewLexicon(spec), nil
}

func (l Lexicon) Spec() LexiconSpec {
	return LexiconSpec{
		Urgency:      clone(l.urgency),
		Positive:     clone(l.positive),
		Negative:     clone(l.negative),
		Requirements: clone(l.requirements),
		Products:     clone(l.products),
	}
}

func (l Lexicon) Urgency() []string      { return clone(l.urgency) }
func (l Lexicon) Positive() []string     { return clone(l.positive) }
func (l Lexicon) Negative() []string     { return clone(l.negative) }
func (l Lexicon) Requirements() []string { return clone(l.requirements) }
func (l Lexicon) Products() []string     { return clone(l.products) }

// pick lower-cases phrases so matching against the lower-cased text is
// case-insensitive.
func pick(list, fallback []string) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return clone(fallback)
	}
	return out
}

func clone(list []string) []string {
	out := make([]string, len(list))
	copy(out, list)
	return out
}
