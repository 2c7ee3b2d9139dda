package server

import (
	"fmt"
	"strings"
)

var soloCriteriaByCategory = map[string]string{
	CategoryFunniest:     "humor, comedic value, clever wordplay, and how hard it would make someone laugh",
	CategoryMostAccurate: "literal accuracy to what's shown, descriptive precision, and truthfulness",
	CategoryMostCreative: "originality, uniqueness, imaginative interpretation, and unconventional perspective",
	CategoryBestMeme:     "internet culture relevance, relatability, viral potential, and meme format fit",
}

var rankingCriteriaByCategory = map[string]string{
	CategoryFunniest: `
- Humor and comedic value
- Clever wordplay or puns
- Unexpected or surprising elements
- Timing and delivery in written form
- How hard it would make someone laugh`,

	CategoryMostAccurate: `
- Literal accuracy to what's shown in the image
- Descriptive precision
- Relevant details captured
- Truthfulness to the scene
- How well it explains what's happening`,

	CategoryMostCreative: `
- Originality and uniqueness
- Imaginative interpretation
- Unconventional perspective
- Artistic or poetic quality
- How different it is from obvious choices`,

	CategoryBestMeme: `
- Internet culture relevance
- Relatability to common experiences
- Viral/shareable potential
- Proper meme format/style
- How well it fits meme conventions`,
}

// buildSoloJudgment asks for an absolute 1-10 score for the single entry.
// Unrecognized categories fall back to the Funniest rubric.
func buildSoloJudgment(imageURL, category, caption string) Judgment {
	criteria, ok := soloCriteriaByCategory[category]
	if !ok {
		criteria = soloCriteriaByCategory[CategoryFunniest]
	}

	prompt := fmt.Sprintf(`You are a judge for a caption contest. Score this single caption on a scale of 1-10 for the %q category.

IMAGE: %s

CAPTION: %q

SCORING CRITERIA FOR %q:
Evaluate based on: %s

SCORING GUIDE:
- 1-3: Poor - doesn't fit the category well
- 4-5: Below average - somewhat fits but lacks impact
- 6-7: Good - solid entry that fits the category
- 8-9: Excellent - stands out, very fitting for the category
- 10: Perfect - exceptional, couldn't be better for this category

RESPOND IN THIS EXACT JSON FORMAT:
{"score": <integer 1-10>}

IMPORTANT: Return ONLY the JSON object, no other text.`,
		category, imageURL, caption, strings.ToUpper(category), criteria)

	acceptance := fmt.Sprintf(`The AI response must:
1. Be valid JSON with a "score" key
2. The score must be an integer from 1 to 10
3. The score should reasonably reflect how well the caption fits the %q category`, category)

	return Judgment{
		Task:     fmt.Sprintf("Score caption for %s category (1-10)", category),
		Criteria: acceptance,
		Prompt:   prompt,
	}
}

// buildRankingJudgment lists every entry under its single-letter id and
// asks for a winner and a distinct runner-up.
func buildRankingJudgment(imageURL, category string, entries []judgedEntry) Judgment {
	criteria, ok := rankingCriteriaByCategory[category]
	if !ok {
		criteria = rankingCriteriaByCategory[CategoryFunniest]
	}

	lines := make([]string, 0, len(entries))
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("Caption %s: %q", entry.ID, entry.Text))
		ids = append(ids, entry.ID)
	}

	prompt := fmt.Sprintf(`You are a judge for a caption contest. Your task is to select the TOP 2 captions for the %q category.

IMAGE: %s

CAPTIONS TO EVALUATE:
%s

JUDGING CRITERIA FOR %q:%s

INSTRUCTIONS:
1. Consider ONLY the %q criteria above
2. Evaluate each caption against these specific criteria
3. Select the BEST caption as Winner
4. Select the SECOND BEST caption as Runner-up
5. Both Winner and Runner-up MUST be different captions

RESPOND IN THIS EXACT JSON FORMAT:
{"winner": "<caption_id>", "runner_up": "<caption_id>"}

IMPORTANT:
- Return ONLY the JSON object, no other text
- Use the exact caption IDs provided (e.g., "A", "B", "C")
- Winner and runner_up must be different`,
		category, imageURL, strings.Join(lines, "\n"), strings.ToUpper(category), criteria, category)

	acceptance := fmt.Sprintf(`The AI response must:
1. Be valid JSON with "winner" and "runner_up" keys
2. Contain valid caption IDs from the provided list (%s)
3. Have different values for winner and runner_up
4. Select captions that reasonably fit the %q category criteria`,
		strings.Join(ids, ", "), category)

	return Judgment{
		Task:     fmt.Sprintf("Select top 2 captions for %s category", category),
		Criteria: acceptance,
		Prompt:   prompt,
	}
}

// judgedEntry is one caption under its letter id, in submission order.
type judgedEntry struct {
	ID   string
	Text string
}

// entryID maps a zero-based ordinal to a letter id: A, B, C, ...
func entryID(index int) string {
	return string(rune('A' + index))
}
