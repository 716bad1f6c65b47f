package llm

import (
	"fmt"
	"strings"

	"github.com/sadreammm/Helply/pkg/models"
)

const (
	// MaxDOMElements is the number of element descriptors sent to the model
	MaxDOMElements = 50
	// MaxVisibleText is the number of visible text bytes sent to the model
	MaxVisibleText = 2000
)

const systemPrompt = `You are an expert onboarding assistant that generates step-by-step guidance for web applications.

Your role:
1. Analyze the current page context (URL, title, visible text, DOM elements)
2. Identify the most relevant interactive elements for the current task step
3. Generate clear, actionable instructions with CSS selectors
4. Provide helpful tips and context
5. Anticipate potential issues

Output Format (JSON):
{
    "actions": [
        {
            "selector": "CSS selector for element",
            "action_type": "click|type|highlight|navigate",
            "message": "Clear instruction for user",
            "priority": 1-5,
            "reasoning": "Why this action is needed",
            "alternatives": ["backup selector 1", "backup selector 2"]
        }
    ],
    "tip": "Helpful tip or context",
    "explanation": "Overall guidance explanation",
    "confidence": 0.0-1.0,
    "next_step_prediction": "What likely happens next",
    "potential_issues": ["Issue 1", "Issue 2"]
}

Guidelines:
- Be specific with selectors (prefer IDs, then data attributes, then classes)
- Provide 2-3 alternative selectors when possible
- Use friendly, encouraging language
- Keep messages concise (under 100 chars)
- Priority 5 = critical action, 1 = optional/informational`

// guidancePrompt renders the page context for one guidance request
func guidancePrompt(req models.GuidanceRequest) string {
	dom := req.Page.DOMElements
	if len(dom) > MaxDOMElements {
		dom = dom[:MaxDOMElements]
	}
	text := truncate(req.Page.VisibleText, MaxVisibleText)

	previous := "None (first step)"
	if len(req.Page.PreviousActions) > 0 {
		previous = strings.Join(req.Page.PreviousActions, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", req.TaskTitle)
	fmt.Fprintf(&b, "Description: %s\n", req.TaskDescription)
	fmt.Fprintf(&b, "Current Step: %d of %d\n\n", req.StepNumber, req.TotalSteps)
	b.WriteString("Page Context:\n")
	fmt.Fprintf(&b, "- URL: %s\n", req.Page.URL)
	fmt.Fprintf(&b, "- Title: %s\n", req.Page.PageTitle)
	fmt.Fprintf(&b, "- Visible Text Preview: %s\n", text)
	fmt.Fprintf(&b, "- Interactive Elements Detected: %s\n\n", strings.Join(dom, ", "))
	fmt.Fprintf(&b, "Previous Actions: %s\n\n", previous)
	fmt.Fprintf(&b, "Analyze this page and provide guidance for step %d. What should the user do next?\n", req.StepNumber)
	b.WriteString("Return ONLY valid JSON matching the specified format.")
	return b.String()
}

// intentPrompt asks the model to restate a free-text request as platform and action
func intentPrompt(text, url string, platforms []string) string {
	if url == "" {
		url = "unknown"
	}
	return fmt.Sprintf(`User request: %q

Available platforms: %s
Current URL: %s

What is the user trying to accomplish? Return JSON:
{
    "intent": "clear description",
    "platform": "best matching platform",
    "action": "specific action",
    "confidence": 0.0-1.0
}`, text, strings.Join(platforms, ", "), url)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && n < len(s) && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
