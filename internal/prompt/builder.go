package prompt

import (
	"strings"

	"github.com/utafrali/PromptEnhancerPro/internal/domain"
)

const noneSpecified = "None specified"

// BuildMetaPrompt renders the instruction document sent to the provider.
// The wording and section order are what the provider model is tuned
// against, so they must stay stable.
func BuildMetaPrompt(p domain.EnhancementParams, model domain.ModelDescriptor) string {
	target := model.DisplayName()
	lang := strings.ToUpper(p.PromptLanguage)

	var b strings.Builder
	b.Grow(3072 + len(p.InitialPrompt) + len(p.SpecificInstructions))

	b.WriteString("You are a world-class prompt engineering assistant.\n")
	b.WriteString("Your primary goal is to enhance the user's initial prompt to make it highly effective for the specified target AI model.\n")
	b.WriteString("The final enhanced prompt MUST be in the target output language: **" + lang + "**.\n\n")
	b.WriteString("User's original prompt:\n")
	b.WriteString("\"" + p.InitialPrompt + "\"\n\n")
	b.WriteString("Target AI Model: **" + target + "**.\n")
	b.WriteString("Tailor the prompt structure, syntax, and keywords considering the specific strengths and requirements of this model. ")
	b.WriteString("For example, Midjourney uses '--ar' for aspect ratio, DALL-E prefers descriptive sentences.\n\n")
	b.WriteString("Target output language for the ENHANCED PROMPT: **" + lang + "**.\n\n")
	b.WriteString("Enhance this prompt by incorporating the following details and instructions.\n")
	b.WriteString("If a parameter is \"Default\" or empty, use your best judgment or omit it if not applicable.\n")
	b.WriteString("Remember to generate the final prompt in **" + lang + "**.\n\n")

	b.WriteString("**Core Enhancement Parameters:**\n")
	b.WriteString("- **Style/Tone:** " + p.StyleOrTone + " (Interpret and apply this in " + lang + ")\n")
	b.WriteString("- **Detail Level:** " + p.DetailLevel + " (Adjust verbosity and detail in " + lang + ")\n")
	b.WriteString("- **Keywords/Concepts to Add/Emphasize:** " + orNone(p.KeywordsToAdd) + " (Incorporate these into the " + lang + " prompt)\n")
	b.WriteString("- **Elements to Avoid/Negative Prompts:** " + orNone(p.NegativePrompts) + " (Ensure these are excluded in the " + lang + " prompt)\n")

	if model.IsImageModel {
		b.WriteString("\n")
		b.WriteString("**Image Specific Parameters (for " + target + ", in " + lang + "):**\n")
		b.WriteString("- **Artistic Medium:** " + p.ArtisticMedium + "\n")
		b.WriteString("- **Camera Angle/Shot Type:** " + p.CameraAngle + "\n")
		b.WriteString("- **Lighting:** " + p.Lighting + "\n")
		b.WriteString("- **Color Palette:** " + p.ColorPalette + "\n")
	}

	instructions := p.SpecificInstructions
	if instructions == "" {
		instructions = "Generate the most effective and creative prompt in " + lang + " based on the above."
	}

	b.WriteString("\n")
	b.WriteString("**Specific Instructions for You (The Prompt Enhancer AI):**\n")
	b.WriteString(instructions + "\n\n")
	b.WriteString("**Output Requirements:**\n")
	b.WriteString("- Generate ONLY the enhanced prompt text, in **" + lang + "**.\n")
	b.WriteString("- Do NOT include any explanations, apologies, or conversational filler like \"Here is the enhanced prompt:\" before or after the prompt.\n")
	b.WriteString("- The output should be ready to be copied and pasted directly into the target AI model (" + target + ").\n")
	b.WriteString("- If the target model uses specific syntax (e.g., parameters like --v 6 or --ar 16:9 for Midjourney), try to incorporate them intelligently if relevant, ensuring they are compatible with the " + lang + " prompt.\n")
	b.WriteString("- For image models, focus on vivid descriptions and artistic styles. For text models, focus on clarity, completeness, and appropriate tone. All in ")
	b.WriteString("**" + lang + "**.\n\n")
	b.WriteString("Enhanced Prompt for " + target + " (in " + lang + "):\n")

	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return noneSpecified
	}
	return s
}
