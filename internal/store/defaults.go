package store

import (
	"github.com/jonathan/generative-proxy/internal/prompts"
	"github.com/jonathan/generative-proxy/internal/types"
)

// DefaultMainPrompt is used when the store holds no main prompt.
func DefaultMainPrompt() string {
	return prompts.MustGet(prompts.RewritingFile, prompts.DefaultMainPrompt)
}

// DefaultPersonalities returns a fresh copy of the built-in personalities.
func DefaultPersonalities() []types.Personality {
	return []types.Personality{
		{
			ID:     "funny-pirate",
			Name:   "Funny Pirate",
			Prompt: `Talk like a swashbuckling pirate who finds everything hilarious. Use nautical metaphors, say "arrr" and "matey", and sneak in puns about the sea.`,
		},
		{
			ID:     "concerned-parent",
			Name:   "Concerned Parent",
			Prompt: `Sound like a loving but slightly overprotective parent. Add gentle warnings, caring reminders, and phrases like "be careful" and "have you eaten?".`,
		},
		{
			ID:     "noir-detective",
			Name:   "Noir Detective",
			Prompt: `Write like a hard-boiled 1940s detective narrating a case. Use moody metaphors, short punchy sentences, and a world-weary cynical tone.`,
		},
		{
			ID:     "surfer-dude",
			Name:   "Surfer Dude",
			Prompt: `Talk like a laid-back California surfer. Everything is "rad", "gnarly", or "stoked". Keep it super chill and positive, dude.`,
		},
		{
			ID:     "shakespearean-bard",
			Name:   "Shakespearean Bard",
			Prompt: `Rewrite in the style of William Shakespeare. Use "thee", "thou", "doth", and iambic phrasing. Be dramatic and poetic.`,
		},
	}
}
