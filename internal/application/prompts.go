package application

import (
	"fmt"
	"regexp"
	"strings"
)

const recommendationPromptTemplate = `Given the list of scents: %s, and considering that the user liked the following fragrances: %s, and disliked the following fragrances: %s, recommend a list of perfumes or fragrances that match the user's preferences. Treat liked fragrances as positive signals and disliked fragrances as negative signals. Include only perfumes with a similarity score of 0.5 or higher. For each perfume, include the perfume name, manufacturer, price in USD, a similarity score between 0 and 1 indicating how closely the perfume matches the user's preferences (1 is an exact match), and a short description (2-3 sentences) about the fragrance. Provide the output in JSON format as an array of objects with keys "name", "manufacturer", "price", "similarity", and "description". Do not include any additional text besides the JSON output.`

const expansionPromptTemplate = `Given the list of scents: %s, generate a list of additional scent notes that are similar to the ones provided. Provide the output as a comma-separated list of scents. Do not include any additional text besides the list of scents.`

// RecommendationPrompt renders the recommendation request. Empty name lists
// render as empty strings.
func RecommendationPrompt(scents string, liked, disliked []string) string {
	return fmt.Sprintf(recommendationPromptTemplate,
		strings.TrimSpace(scents),
		strings.Join(liked, ", "),
		strings.Join(disliked, ", "),
	)
}

// ExpansionPrompt renders the scent expansion request.
func ExpansionPrompt(scents string) string {
	return fmt.Sprintf(expansionPromptTemplate, strings.TrimSpace(scents))
}

var codeFence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// stripCodeFence unwraps a response the model put inside a markdown fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFence.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}
