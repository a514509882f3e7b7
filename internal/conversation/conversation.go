package conversation

import "fmt"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged message in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SeedLen is the number of turns every conversation starts with.
const SeedLen = 2

const personaInstruction = "You are a chatbot designed to provide mental health support. " +
	"Keep your responses calming and empathetic."

const greeting = "Welcome! I'm here to listen and support you with your mental health concerns. " +
	"My purpose is to provide a safe and non-judgmental space for you to express yourself, " +
	"and I'm here to help you manage your mental well-being.\n\n" +
	"Please know that everything discussed in our chat is confidential and anonymous. " +
	"I'm not a replacement for professional help, but I can offer guidance, resources, " +
	"and support to help you feel more comfortable and empowered to take care of your mental health.\n\n" +
	"What's been going on lately that's been worrying or stressing you out? " +
	"Is there anything specific you'd like to talk about or share with me?"

// DefaultConversation is the seed template. Never hand it out directly; use NewConversation.
var DefaultConversation = [SeedLen]Turn{
	{Role: RoleUser, Content: personaInstruction},
	{Role: RoleAssistant, Content: greeting},
}

// NewConversation returns a fresh, independently owned copy of the seed.
func NewConversation() []Turn {
	out := make([]Turn, SeedLen)
	copy(out, DefaultConversation[:])
	return out
}

// History returns a copy of the turns after the seed.
func History(turns []Turn) []Turn {
	if len(turns) <= SeedLen {
		return []Turn{}
	}
	out := make([]Turn, len(turns)-SeedLen)
	copy(out, turns[SeedLen:])
	return out
}

// Clone copies a turn list so callers can append without aliasing stored state.
func Clone(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

func (t Turn) Validate() error {
	switch t.Role {
	case RoleUser, RoleAssistant:
		return nil
	default:
		return fmt.Errorf("unknown role %q", t.Role)
	}
}

// Seeded reports whether turns start with exactly the default seed.
func Seeded(turns []Turn) bool {
	if len(turns) < SeedLen {
		return false
	}
	return turns[0] == DefaultConversation[0] && turns[1] == DefaultConversation[1]
}

// Check reports why a stored conversation cannot be used: a missing or
// altered seed, or a turn with an unknown role.
func Check(turns []Turn) error {
	if !Seeded(turns) {
		return fmt.Errorf("conversation does not start with the seed")
	}
	for i, t := range turns {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("turn %d: %w", i, err)
		}
	}
	return nil
}
