// Package chat implements the rule-based chat responder behind the site's
// chat widget. Matching is plain keyword scanning over a fixed, ordered
// rulebook; there is no learning and no randomness.
package chat

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"cuepoint/internal/logging"
)

// Rule maps keywords to one canned reply. Interests name the content
// categories a match implies, which feed the context engine.
type Rule struct {
	Name      string   `yaml:"name"`
	Keywords  []string `yaml:"keywords"`
	Reply     string   `yaml:"reply"`
	Interests []string `yaml:"interests,omitempty"`
}

type rulebookFile struct {
	Rules    []Rule `yaml:"rules"`
	Fallback string `yaml:"fallback"`
}

// Responder answers chat messages from an ordered rulebook. First matching
// rule wins; no match yields the fallback reply.
type Responder struct {
	rules    []Rule
	fallback string
}

// Response is the outcome of one chat turn.
type Response struct {
	Reply     string   `json:"reply"`
	Rule      string   `json:"rule,omitempty"`
	Interests []string `json:"interests,omitempty"`
	Matched   bool     `json:"matched"`
}

// DefaultRules returns the compiled-in rulebook.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "greeting",
			Keywords: []string{"hello", "hi ", "hey"},
			Reply:    "Hi! Ask me about cues, tables, training sessions or our stores.",
		},
		{
			Name:      "pricing",
			Keywords:  []string{"price", "cost", "how much", "expensive"},
			Reply:     "Cue prices start at $89; professional tables from $2,400. Want me to point you to the catalog?",
			Interests: []string{"products"},
		},
		{
			Name:      "products",
			Keywords:  []string{"cue", "table", "chalk", "accessor", "tip"},
			Reply:     "We stock competition cues, tables and accessories from all major makers. The catalog has the full range.",
			Interests: []string{"products"},
		},
		{
			Name:      "stores",
			Keywords:  []string{"store", "shop", "showroom", "near", "address", "open", "hours"},
			Reply:     "We have showrooms in twelve cities, each with full-size trial tables. The store locator shows hours and directions.",
			Interests: []string{"stores"},
		},
		{
			Name:      "training",
			Keywords:  []string{"training", "coach", "lesson", "learn", "class", "practice"},
			Reply:     "Our certified coaches run beginner to league-level programs. First trial session is free - shall I help you book one?",
			Interests: []string{"training"},
		},
		{
			Name:      "booking",
			Keywords:  []string{"book", "appointment", "reserve", "schedule", "visit"},
			Reply:     "You can book a store visit or training session right here - I just need a name, phone number and a preferred time.",
			Interests: []string{"training", "stores"},
		},
		{
			Name:      "franchise",
			Keywords:  []string{"franchise", "partner", "invest", "own a", "business"},
			Reply:     "Our franchise program covers location scouting, fit-out and coach certification. I can send you the prospectus.",
			Interests: []string{"franchise"},
		},
	}
}

// DefaultFallback is the reply for messages no rule matches.
const DefaultFallback = "I can help with products, stores, training and franchising. Could you rephrase that?"

// NewResponder builds a responder from the given rulebook.
func NewResponder(rules []Rule, fallback string) *Responder {
	if fallback == "" {
		fallback = DefaultFallback
	}
	return &Responder{rules: rules, fallback: fallback}
}

// LoadRulebook reads a rulebook from a YAML file. An empty path or missing
// file yields the compiled-in defaults.
func LoadRulebook(path string) (*Responder, error) {
	if path == "" {
		return NewResponder(DefaultRules(), DefaultFallback), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Chat("rulebook %s missing, using defaults", path)
			return NewResponder(DefaultRules(), DefaultFallback), nil
		}
		return nil, fmt.Errorf("failed to read rulebook: %w", err)
	}

	var rf rulebookFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse rulebook: %w", err)
	}
	if len(rf.Rules) == 0 {
		return nil, fmt.Errorf("rulebook %s defines no rules", path)
	}
	for i, r := range rf.Rules {
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("rulebook rule %d (%s) has no keywords", i, r.Name)
		}
	}

	logging.Chat("loaded %d chat rules from %s", len(rf.Rules), path)
	return NewResponder(rf.Rules, rf.Fallback), nil
}

// Respond answers one message. Matching lowercases the input and scans
// rules in order; the first rule with any keyword hit wins.
func (r *Responder) Respond(message string) Response {
	lowered := strings.ToLower(message)

	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lowered, kw) {
				logging.Chat("message matched rule %q", rule.Name)
				return Response{
					Reply:     rule.Reply,
					Rule:      rule.Name,
					Interests: append([]string(nil), rule.Interests...),
					Matched:   true,
				}
			}
		}
	}

	return Response{Reply: r.fallback}
}
