// Package personality holds the fixed set of system instructions a
// conversation can be conditioned with.
package personality

import "strings"

// Personality is a closed enumeration of instruction profiles.
type Personality int

const (
	Empathetic Personality = iota
	Playful
	Stoic
)

// Default is used whenever a label is empty or not recognized.
const Default = Empathetic

var labels = [...]string{
	Empathetic: "Empathetic",
	Playful:    "Playful",
	Stoic:      "Stoic",
}

var instructions = [...]string{
	Empathetic: "You are a friendly and empathetic AI therapist named Clarity. " +
		"Your goal is to provide a safe and supportive space for users to share their thoughts and feelings. " +
		"You should be a good listener, offer validation, and help users gain clarity of thought. " +
		"If the user asks for it, you can also suggest actionable ideas.",
	Playful: "You are Clarity, a warm and playful companion. " +
		"Keep the tone light and encouraging, use gentle humor where it fits, and never make light of real distress. " +
		"Help the user see their situation from a fresh, kinder angle, and suggest small, fun next steps when asked.",
	Stoic: "You are Clarity, a calm guide grounded in Stoic philosophy. " +
		"Listen carefully, help the user separate what is within their control from what is not, and respond with steady, concise reflections. " +
		"Offer practical exercises drawn from Stoic practice when the user asks for advice.",
}

// All returns every personality in display order.
func All() []Personality {
	return []Personality{Empathetic, Playful, Stoic}
}

// Labels returns the label of every personality in display order.
func Labels() []string {
	out := make([]string, 0, len(labels))
	for _, p := range All() {
		out = append(out, p.Label())
	}
	return out
}

// Parse looks up a label, ignoring case and surrounding space.
func Parse(label string) (Personality, bool) {
	label = strings.TrimSpace(label)
	for _, p := range All() {
		if strings.EqualFold(p.Label(), label) {
			return p, true
		}
	}
	return Default, false
}

// Resolve is Parse with the miss folded into Default.
func Resolve(label string) Personality {
	p, _ := Parse(label)
	return p
}

func (p Personality) valid() bool {
	return p >= Empathetic && int(p) < len(labels)
}

func (p Personality) Label() string {
	if !p.valid() {
		return labels[Default]
	}
	return labels[p]
}

// Instruction is the system-level text sent with every request made under p.
func (p Personality) Instruction() string {
	if !p.valid() {
		return instructions[Default]
	}
	return instructions[p]
}

func (p Personality) String() string { return p.Label() }
