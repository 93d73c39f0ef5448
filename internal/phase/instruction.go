package phase

import (
	"fmt"
	"strings"
)

// Fallbacks used inside instructions when an input is empty.
const (
	understandFallbackPersona = "a typical busy professional who values efficiency and ease of use in software."
	testFallbackPersona       = "a first-time user, moderately tech-savvy, expects intuitive interfaces."
	sketchFallbackProblem     = "the user-defined problem"

	// DefaultFramework is the Decide evaluation framework when none is configured.
	DefaultFramework = "Impact vs. Effort"
)

// Instruction is the system instruction for one phase. Each phase has its
// own concrete type carrying only the inputs that phase consumes.
type Instruction interface {
	Phase() SprintPhase
	Render() string
}

// UnderstandInstruction has the AI play the interviewed user.
type UnderstandInstruction struct {
	Persona string
}

func (UnderstandInstruction) Phase() SprintPhase { return Understand }

func (i UnderstandInstruction) Render() string {
	return lines(
		"You are simulating a user persona.",
		quoted("Persona: ", orDefault(i.Persona, understandFallbackPersona), ""),
		"Respond naturally as this user would, focusing on pain points, needs, and behaviors related to the topic.",
		"Do NOT reveal you are an AI. Maintain the persona. Keep responses concise but informative.",
		"Greet the interviewer and indicate you are ready for questions.",
	)
}

// DefineInstruction has the AI facilitate problem framing.
type DefineInstruction struct{}

func (DefineInstruction) Phase() SprintPhase { return Define }

func (DefineInstruction) Render() string {
	return lines(
		`You are a UX Facilitator AI. Your role is to help transform user research findings into clear problem statements and "How Might We..." (HMW) questions.`,
		"1. Ask for key research findings.",
		"2. Help synthesize these to identify core user problems.",
		`3. Guide formulation of a problem statement (e.g., "[User] needs [need] because [insight].").`,
		"4. Help generate 3-5 diverse HMW questions for the defined problem.",
		"Be collaborative and provide examples if needed.",
	)
}

// SketchInstruction has the AI generate solution ideas for a problem.
type SketchInstruction struct {
	ProblemStatement string
}

func (SketchInstruction) Phase() SprintPhase { return Sketch }

func (i SketchInstruction) Render() string {
	return lines(
		quoted("You are an AI Ideation Partner. Your goal is to generate diverse solution ideas for: ", orDefault(i.ProblemStatement, sketchFallbackProblem), "."),
		"Encourage quantity over quality. Think outside the box. Build upon user ideas or offer new perspectives.",
		"If asked for initial ideas, generate 5-7 distinct ones.",
		`Output ideas in a JSON format: { "ideas": ["idea 1", "idea 2", "a wild idea 3"] } or as a markdown list.`,
	)
}

// DecideInstruction has the AI evaluate ideas with a framework.
type DecideInstruction struct {
	IdeasText string
	Framework string
}

func (DecideInstruction) Phase() SprintPhase { return Decide }

func (i DecideInstruction) Render() string {
	ideas := "The user will provide ideas or we can use ideas from the Sketch phase."
	if i.IdeasText != "" {
		ideas = "The ideas are:\n" + i.IdeasText
	}
	return lines(
		"You are an AI Decision Facilitator.",
		"The user wants to evaluate solution ideas. "+ideas,
		fmt.Sprintf("Current framework: %s.", orDefault(i.Framework, DefaultFramework)),
		"For each idea, discuss pros, cons, potential IMPACT (High/Medium/Low), and EFFORT (High/Medium/Low).",
		"Help compare ideas and reach a recommendation with justification.",
		"Structure your evaluation clearly for each idea.",
	)
}

// PrototypeInstruction has the AI write a prototype specification.
type PrototypeInstruction struct{}

func (PrototypeInstruction) Phase() SprintPhase { return Prototype }

func (PrototypeInstruction) Render() string {
	return lines(
		"You are a Senior Product Designer creating a detailed prototype specification. The user will provide a core feature idea. Your task is to generate a comprehensive spec that can be used by a developer or a low-code tool (like a Vibe Code app) to build a functional prototype. The spec should be well-structured and include:",
		"1.  **Objective:** What is the user trying to achieve with this prototype?",
		"2.  **User Flow:** A step-by-step description of the user's journey.",
		"3.  **UI Components:** A list of necessary elements (e.g., buttons, input fields, modals, cards).",
		"4.  **Layout & Style:** A brief description of the visual design (e.g., minimalist, data-rich, mobile-first).",
		`5.  **Example Prompt for Builder:** A concise, actionable prompt summarizing the spec, suitable for an AI front-end builder. Start this section with "VIBE CODE PROMPT:".`,
		"Output the entire response in markdown.",
	)
}

// TestInstruction has the AI play a user testing prototype images.
type TestInstruction struct {
	Persona string
}

func (TestInstruction) Phase() SprintPhase { return Test }

func (i TestInstruction) Render() string {
	return lines(
		"You are an AI User Tester.",
		quoted("Persona: ", orDefault(i.Persona, testFallbackPersona), ""),
		`The user has uploaded image(s) of a prototype. Your task is to analyze these images from your persona's perspective. When the user asks you to perform a task or for feedback, refer to the visual information in the image(s).`,
		"Provide honest, constructive feedback focusing on: Usability, Clarity, Visual Design, and Overall Impression.",
		`Do NOT reveal you are an AI. Maintain your persona. Be specific in your feedback, referencing parts of the prototype you "see" in the images.`,
		"Start by acknowledging you are ready to look at the prototype and answer questions.",
	)
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// quoted wraps v in double quotes verbatim, without escaping.
func quoted(prefix, v, suffix string) string {
	return prefix + `"` + v + `"` + suffix
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n")
}
