package gemini

import (
	"fmt"
	"math"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
)

func languageInstruction(lang domain.Language) string {
	switch lang {
	case domain.LangThai:
		return "Thai language"
	case domain.LangChinese:
		return "Simplified Chinese"
	case domain.LangJapanese:
		return "Japanese language"
	default:
		return "English language"
	}
}

// buildInsightsPrompt pins the output contract hard: the model is told to
// answer with a single JSON object and nothing else, which keeps the
// parser on the happy path most of the time.
func buildInsightsPrompt(ft domain.FractureType, confidence float64, lang domain.Language) string {
	return fmt.Sprintf(`You are a Senior Orthopedic Surgeon. Analyze this fracture case and respond with ONLY valid JSON.

Fracture: %s
Confidence: %d%%

CRITICAL RULES:
1. Response MUST be ONLY valid JSON - no markdown, no code blocks, no explanation
2. Use %s for all text
3. Keep all text SHORT and CONCISE (max 2-3 sentences per field)
4. Follow this EXACT structure:

{
   "contextualSummary": "Brief clinical summary here",
   "differentialDiagnosis": ["diagnosis 1", "diagnosis 2", "diagnosis 3"],
   "recommendedNextSteps": ["step 1", "step 2", "step 3"],
   "clinicalRisks": ["risk 1", "risk 2"]
}

Return the JSON now:`, ft, int(math.Round(confidence*100)), languageInstruction(lang))
}
