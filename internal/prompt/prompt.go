// Package prompt builds reviewer prompts from review requests.
package prompt

import (
	"fmt"
	"strings"

	"github.com/richhaase/interpeer/internal/domain"
)

// Bundle is a system/user prompt pair.
type Bundle struct {
	System string
	User   string
}

// Persona is the fixed reviewer instruction shared by every template.
const Persona = `You are a senior engineer acting as an independent peer reviewer.
Another AI assistant is asking for a second opinion on the material below.
Be direct and specific. Point out real problems, explain why they matter, and propose concrete fixes.
Do not restate the material back. If something is fine, say so briefly and move on.`

// Template is a named bundle of guidance for one review type.
type Template struct {
	Title    string
	Guidance []string
}

var templates = map[domain.ReviewType]Template{
	domain.ReviewGeneral: {
		Title: "General review",
		Guidance: []string{
			"Identify correctness problems, unclear reasoning, and missing considerations.",
			"Call out assumptions that are not justified by the material.",
			"Note anything that would surprise a maintainer six months from now.",
		},
	},
	domain.ReviewCode: {
		Title: "Code review",
		Guidance: []string{
			"Look for logic errors, crashes, and wrong behavior on edge cases.",
			"Check error handling: silent failures, swallowed errors, misleading messages.",
			"Flag concurrency hazards, resource leaks, and unbounded growth.",
			"Skip style and formatting unless it hides a bug.",
		},
	},
	domain.ReviewDesign: {
		Title: "Design review",
		Guidance: []string{
			"Evaluate whether the design solves the stated problem and nothing more.",
			"Identify unclear responsibilities, leaky abstractions, and awkward interfaces.",
			"Point out failure modes the design does not address.",
		},
	},
	domain.ReviewArchitecture: {
		Title: "Architecture review",
		Guidance: []string{
			"Assess component boundaries, coupling, and data flow.",
			"Identify scalability limits and single points of failure.",
			"Consider operability: deployment, observability, and migration paths.",
			"Highlight decisions that will be expensive to reverse.",
		},
	},
	domain.ReviewSecurity: {
		Title: "Security audit",
		Guidance: []string{
			"Look for injection, authentication and authorization bypass, and data exposure.",
			"Check input validation and trust boundaries.",
			"Review secret handling, cryptography use, and logging of sensitive data.",
			"Rate each finding by severity and exploitability.",
		},
	},
	domain.ReviewBrainstorm: {
		Title: "Brainstorm alternatives",
		Guidance: []string{
			"Propose materially different approaches to the same problem.",
			"For each alternative, give the main trade-offs against the current approach.",
			"Say which alternative you would pick and under what conditions.",
		},
	},
}

// TemplateFor returns the template for t, falling back to general for
// unknown or missing values. Hyphenated ids are accepted.
func TemplateFor(t domain.ReviewType) Template {
	key := domain.ReviewType(strings.ReplaceAll(string(t), "-", "_"))
	if key == "brainstorm" {
		key = domain.ReviewBrainstorm
	}
	if tpl, ok := templates[key]; ok {
		return tpl
	}
	return templates[domain.ReviewGeneral]
}

// Build assembles the prompt bundle for req. It is a pure function: identical
// requests produce byte-identical bundles. Resource expansion must already
// have been applied to req.Content.
func Build(req domain.ReviewRequest) Bundle {
	tpl := TemplateFor(req.ReviewType)

	var sys strings.Builder
	sys.WriteString(Persona)
	sys.WriteString("\n\n## ")
	sys.WriteString(tpl.Title)
	sys.WriteString("\n")
	for _, g := range tpl.Guidance {
		sys.WriteString("- ")
		sys.WriteString(g)
		sys.WriteString("\n")
	}

	sys.WriteString("\n## Focus areas\n")
	if len(req.Focus) > 0 {
		for _, f := range req.Focus {
			sys.WriteString("- ")
			sys.WriteString(strings.TrimSpace(f))
			sys.WriteString("\n")
		}
	} else {
		sys.WriteString("No specific focus was requested. Use your judgment to prioritize what matters most.\n")
	}

	if req.TimeBudgetSeconds != nil {
		sys.WriteString("\n## Time budget\n")
		sys.WriteString(timeBudgetSentence(*req.TimeBudgetSeconds))
		sys.WriteString("\n")
	}

	sys.WriteString("\n## Output format\n")
	sys.WriteString(formatInstruction(req.Style))

	var user strings.Builder
	user.WriteString("Please review the following material.\n\n")
	user.WriteString(req.Content)
	if !strings.HasSuffix(req.Content, "\n") {
		user.WriteString("\n")
	}

	return Bundle{System: sys.String(), User: user.String()}
}

func timeBudgetSentence(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("You have about %d seconds. Report only the most important findings.", seconds)
	}
	minutes := (seconds + 30) / 60
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	if seconds <= 120 {
		return fmt.Sprintf("You have about %d %s. Prioritize the highest-impact findings and keep it brief.", minutes, unit)
	}
	return fmt.Sprintf("You have about %d %s. Be thorough, but stop once you have covered the significant issues.", minutes, unit)
}

func formatInstruction(style domain.Style) string {
	if style == domain.StyleFreeform {
		return "Respond in free-form prose. Organize it however best communicates your assessment.\n"
	}
	return `Respond with these sections, in order:
1. Summary: two or three sentences with your overall assessment.
2. Findings: a numbered list. For each, give severity (high/medium/low), location if applicable, the problem, and a suggested fix.
3. Open questions: anything you could not assess from the material provided.
`
}
