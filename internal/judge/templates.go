package judge

import (
	"strings"

	"github.com/dmorim/verdicto/internal/domain"
)

// TemplateKind selects which judgment prompt a batch run uses.
type TemplateKind string

const (
	// TemplateTranslation judges whether the target text is a correct
	// translation of the source text.
	TemplateTranslation TemplateKind = "translation"

	// TemplateSemantic judges whether the two texts express the same
	// meaning, regardless of literal translation.
	TemplateSemantic TemplateKind = "semantic"

	// TemplateQuality judges the linguistic quality of both texts
	// independently of their relation.
	TemplateQuality TemplateKind = "quality"
)

const translationTemplate = `You are an expert translation evaluator. Your task is to decide whether the translation is correct, considering accuracy, fluency, and cultural adequacy.

## INSTRUCTIONS:
1. Judge whether the translation captures the original meaning
2. Consider fluency in the target language
3. Check for grammatical or contextual errors
4. Consider cultural and idiomatic nuance
5. Return ONLY a valid JSON object with your evaluation

## MANDATORY RESPONSE FORMAT:
IMPORTANT: Respond with a single valid JSON object only, no extra text, no markdown, no explanations.

{
    "is_correct": true,
    "confidence_score": 0.85,
    "reasoning": "The translation captures the original meaning and reads fluently in the target language"
}

## DATA TO EVALUATE:

**Original text ({source_lang}):**
{source_text}

**Translation ({target_lang}):**
{target_text}
{context_section}
**RESPONSE (JSON only):**`

const semanticTemplate = `You are an expert in semantic analysis. Decide whether two sentences in different languages express the same meaning, independently of being literal translations.

## INSTRUCTIONS:
1. Focus on semantic equivalence, not literal translation
2. Allow different ways of expressing the same idea
3. Judge whether the communicative intent is preserved
4. Allow legitimate cultural variation
5. Return ONLY a valid JSON object

## MANDATORY RESPONSE FORMAT:
IMPORTANT: Respond with a single valid JSON object only, no extra text, no markdown, no explanations.

{
    "is_correct": true,
    "confidence_score": 0.85,
    "reasoning": "Both sentences express the same meaning and preserve the communicative intent"
}

## DATA TO EVALUATE:

**Sentence 1 ({source_lang}):**
{source_text}

**Sentence 2 ({target_lang}):**
{target_text}
{context_section}
**RESPONSE (JSON only):**`

const qualityTemplate = `You are a linguistic quality assessor. Evaluate both sentences for quality, clarity, and adequacy, independently of the relation between them.

## EVALUATION CRITERIA:
1. **Grammar and syntax**: linguistic correctness
2. **Clarity**: ease of comprehension
3. **Naturalness**: fluency in the language
4. **Adequacy**: appropriate for the context
5. **Completeness**: conveys complete information

## MANDATORY RESPONSE FORMAT:
IMPORTANT: Respond with a single valid JSON object only, no extra text, no markdown, no explanations.

{
    "is_correct": true,
    "confidence_score": 0.85,
    "reasoning": "Both sentences show good linguistic quality, with correct grammar and adequate clarity"
}

## DATA TO EVALUATE:

**Text 1 ({source_lang}):**
{source_text}

**Text 2 ({target_lang}):**
{target_text}
{context_section}
**RESPONSE (JSON only):**`

var templates = map[TemplateKind]string{
	TemplateTranslation: translationTemplate,
	TemplateSemantic:    semanticTemplate,
	TemplateQuality:     qualityTemplate,
}

// Template returns the prompt template for kind. Unknown kinds fall back to
// the translation template.
func Template(kind TemplateKind) string {
	if t, ok := templates[kind]; ok {
		return t
	}
	return translationTemplate
}

// FormatPrompt renders the prompt for one sentence pair by straight field
// substitution into the selected template.
func FormatPrompt(kind TemplateKind, pair domain.SentencePair) string {
	contextSection := "\n"
	if pair.Context != "" {
		contextSection = "\n**Additional context:**\n" + pair.Context + "\n\n"
	}

	return strings.NewReplacer(
		"{source_text}", pair.SourceText,
		"{target_text}", pair.TargetText,
		"{source_lang}", pair.SourceLanguage,
		"{target_lang}", pair.TargetLanguage,
		"{context_section}", contextSection,
	).Replace(Template(kind))
}
