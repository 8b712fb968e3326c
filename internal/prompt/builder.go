package prompt

import (
	"fmt"
	"strings"
)

// ScriptSpec carries everything the builders need to phrase a generation
// request.
type ScriptSpec struct {
	Domain     string
	Topic      string
	Style      string
	Language   string // "en" or "vi"
	Idea       string
	SceneCount int
}

// BuildSystemPrompt produces the system instruction for a script request.
// The output-format section is the load-bearing part: the backends are asked
// for a bare JSON object, and everything downstream assumes a top-level
// "scenes" array.
func BuildSystemPrompt(c Catalog, spec ScriptSpec) string {
	sceneGuidance := "" +
		"- The output MUST be a JSON object with a 'scenes' field, containing an array of objects.\n" +
		"- Each object in the array must have:\n" +
		"  - 'scene': The 1-based scene number.\n" +
		"  - 'voiceover': The narration text for the scene.\n" +
		"  - 'visual': A short description of what is on screen.\n" +
		"  - 'duration_seconds': Approximate scene length as a number.\n" +
		"- Respond ONLY with the JSON object. No markdown fences, no commentary.\n"
	if spec.SceneCount > 0 {
		sceneGuidance += fmt.Sprintf("- The 'scenes' array must contain exactly %d scenes.\n", spec.SceneCount)
	}

	style := spec.Style
	if style == "" {
		style = "engaging"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional short-video script writer. Write a %s sales script for the domain %q, topic %q.\n\n", style, spec.Domain, spec.Topic)
	if intro := BuildExpertIntro(c, spec.Domain, spec.Topic, spec.Language); intro != "" {
		b.WriteString(intro)
		b.WriteString("\n\n")
	}
	b.WriteString("Output Structure:\n")
	b.WriteString(sceneGuidance)
	b.WriteString("\nRules:\n")
	b.WriteString("- Maintain a consistent tone across scenes.\n")
	b.WriteString("- Voiceover lines must be speakable within the scene duration.\n")
	if spec.Language == "vi" {
		b.WriteString("- Write all voiceover text in Vietnamese.\n")
	} else {
		b.WriteString("- Write all voiceover text in English.\n")
	}
	return b.String()
}

// BuildExpertIntro renders the expert introduction for a domain/topic pair,
// in the requested language. Returns "" when the catalog has no prompt for
// the pair.
func BuildExpertIntro(c Catalog, domain, topic, language string) string {
	systemPrompt := c.SystemPrompt(domain, topic)
	if systemPrompt == "" {
		return ""
	}

	if language == "vi" {
		return fmt.Sprintf(`Tôi là chuyên gia trong lĩnh vực %s, chuyên về %s.
Tôi đã nhận ý tưởng từ bạn và sẽ biến nó thành kịch bản và câu chuyện theo yêu cầu của bạn.

%s

Kịch bản như sau:`, domain, topic, systemPrompt)
	}

	return fmt.Sprintf(`I am an expert in %s, specializing in %s.
I have received your idea and will turn it into a script and story according to your requirements.

%s

Script as follows:`, domain, topic, systemPrompt)
}

// BuildUserPrompt renders the user-visible half of the request: the idea to
// turn into a script.
func BuildUserPrompt(spec ScriptSpec) string {
	var b strings.Builder
	b.WriteString("Idea:\n")
	b.WriteString(strings.TrimSpace(spec.Idea))
	b.WriteString("\n")
	if spec.SceneCount > 0 {
		fmt.Fprintf(&b, "\nNumber of scenes: %d\n", spec.SceneCount)
	}
	return b.String()
}
