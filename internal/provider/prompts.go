package provider

import (
	"fmt"

	"mediagen-gateway/internal/request"
)

// chatPrompt is the provider-neutral prompt for one text operation.
type chatPrompt struct {
	System    string
	User      string
	MaxTokens int
}

// modelForTier selects the chat model each tier pays for.
func modelForTier(tier request.Tier) string {
	switch tier {
	case request.TierLow:
		return "gpt-4o-mini"
	case request.TierHigh:
		return "gpt-4o"
	default:
		return "gpt-3.5-turbo"
	}
}

func maxTokensForTier(tier request.Tier) int {
	switch tier {
	case request.TierLow:
		return 3000
	case request.TierHigh:
		return 4000
	default:
		return 2000
	}
}

// wordsPerSecond approximates spoken narration pace (~130 wpm).
const wordsPerSecond = 130.0 / 60.0

// Characters of the source script kept when building the extraction prompt,
// to stay inside the model context window.
const scriptExcerptChars = 4000

// buildPrompt assembles the prompt for a normalized text-operation spec.
func buildPrompt(spec request.Spec) (chatPrompt, error) {
	switch spec.Operation {
	case request.OpScript:
		return scriptPrompt(spec), nil
	case request.OpTitles:
		return titlesPrompt(spec), nil
	case request.OpShortsExtraction:
		return shortsPrompt(spec), nil
	}
	return chatPrompt{}, fmt.Errorf("operation %q is not a text operation", spec.Operation)
}

func scriptPrompt(spec request.Spec) chatPrompt {
	duration := spec.DurationMinutes
	if duration <= 0 {
		duration = 30
	}
	theme := spec.Theme
	if theme == "" {
		theme = "an uplifting reflection"
	}
	segments := duration / 5
	if segments < 1 {
		segments = 1
	}

	user := fmt.Sprintf(`Create a %d-minute narration script for the %q channel.

Theme: %s

Requirements:
1. Calm, engaging tone suitable for continuous narration
2. Divide the content into %d segments of roughly 5 minutes each
3. Each segment should have a clear theme or teaching
4. Use simple, accessible language
5. The content must be original and copyright-safe

Format your response as:
SEGMENT 1: [Title]
[Content]

SEGMENT 2: [Title]
[Content]

... continue for all %d segments, ending with a short closing reflection.`,
		duration, spec.Channel, theme, segments, segments)

	return chatPrompt{
		System:    "You are a script writer producing long-form narration for faceless videos. Your writing is clear, warm, and structured for spoken delivery.",
		User:      user,
		MaxTokens: maxTokensForTier(spec.Tier),
	}
}

func titlesPrompt(spec request.Spec) chatPrompt {
	const numOptions = 3
	user := fmt.Sprintf(`Generate %d title options and %d thumbnail text options for a video about:

Topic: %s

Requirements:
- Titles: engaging, SEO-friendly, under 70 characters, include a benefit or curiosity gap
- Thumbnail text: short (3-7 words), high-contrast visual text that complements the title

Format your response as:
TITLES:
1. [Title option 1]
2. [Title option 2]
3. [Title option 3]

THUMBNAILS:
1. [Thumbnail text option 1]
2. [Thumbnail text option 2]
3. [Thumbnail text option 3]`, numOptions, numOptions, spec.Theme)

	return chatPrompt{
		System:    "You are a video title and thumbnail copy specialist.",
		User:      user,
		MaxTokens: 500,
	}
}

func shortsPrompt(spec request.Spec) chatPrompt {
	const maxSeconds = 60
	maxWords := int(maxSeconds * wordsPerSecond)

	excerpt := spec.SourceScript
	if len(excerpt) > scriptExcerptChars {
		excerpt = excerpt[:scriptExcerptChars]
	}

	user := fmt.Sprintf(`From the following long-form script, extract exactly %d short-form video segments.

Each short should:
- Be highly engaging and retain viewer attention within the first 3 seconds
- Be approximately %d words (%d seconds when spoken)
- Work as a standalone video clip
- Be formatted for vertical 9:16 video
- Start with a strong hook

For each short, provide:
SHORT [N]: [Title]
HOOK: [First 1-2 sentences that grab attention]
SCRIPT: [Full narration script for the short]
CAPTION: [Social media caption, max 150 chars]
HASHTAGS: [5-8 relevant hashtags]
---

LONG-FORM SCRIPT:
%s

Extract %d shorts now:`, spec.NumShorts, maxWords, maxSeconds, excerpt, spec.NumShorts)

	return chatPrompt{
		System:    "You are a social media video specialist who extracts highly engaging short-form segments from long-form scripts. You optimize for viewer retention.",
		User:      user,
		MaxTokens: 3000,
	}
}
