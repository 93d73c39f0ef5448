package phase

// Defaults carried from the sprint template.
const (
	DefaultPersona              = "A typical user interested in new software products. Moderately tech-savvy, values ease of use, and often busy."
	DefaultPrototypeDescription = "A generic web application interface with common navigation and content areas."
)

// Inputs are the free-form values a phase instruction may draw on.
type Inputs struct {
	Persona          string
	ProblemStatement string
	IdeasText        string
	Framework        string
}

// Config describes one phase. Values are immutable; Lookup returns copies.
type Config struct {
	Phase             SprintPhase
	Title             string
	Description       string
	UserPromptLabel   string
	InitialHelperText string

	RequiresPersonaInput          bool
	RequiresProblemStatementInput bool
	AllowsImageUpload             bool

	build func(Inputs) Instruction
}

// Instruction builds the phase's system instruction from in.
func (c Config) Instruction(in Inputs) Instruction {
	return c.build(in)
}

var registry = map[SprintPhase]Config{
	Understand: {
		Phase:                Understand,
		Title:                "1. Understand",
		Description:          "Simulate user conversations to uncover pain points and needs.",
		UserPromptLabel:      "Ask your user a question:",
		InitialHelperText:    "Define a user persona below (or use default), then ask questions to understand their perspective.",
		RequiresPersonaInput: true,
		build: func(in Inputs) Instruction {
			return UnderstandInstruction{Persona: in.Persona}
		},
	},
	Define: {
		Phase:             Define,
		Title:             "2. Define",
		Description:       `Transform research into problem statements and "How Might We..." questions.`,
		UserPromptLabel:   "Share key research findings or observations:",
		InitialHelperText: "Describe your research findings. The AI will help you define the problem and generate HMW questions.",
		build: func(Inputs) Instruction {
			return DefineInstruction{}
		},
	},
	Sketch: {
		Phase:                         Sketch,
		Title:                         "3. Sketch/Ideate",
		Description:                   "Generate a variety of diverse and innovative solution ideas.",
		UserPromptLabel:               "Enter your problem statement or an initial idea:",
		InitialHelperText:             "Provide a problem statement. The AI will help generate solution ideas. You can also input your own ideas for the AI to build upon.",
		RequiresProblemStatementInput: true,
		build: func(in Inputs) Instruction {
			return SketchInstruction{ProblemStatement: in.ProblemStatement}
		},
	},
	Decide: {
		Phase:             Decide,
		Title:             "4. Decide",
		Description:       "Objectively evaluate ideas using frameworks like Impact vs. Effort.",
		UserPromptLabel:   "Paste or describe the ideas to evaluate (one per line, or let AI use previously generated ones):",
		InitialHelperText: "List the ideas you want to evaluate. The AI will guide you through an evaluation process (e.g., Impact vs. Effort).",
		build: func(in Inputs) Instruction {
			return DecideInstruction{IdeasText: in.IdeasText, Framework: in.Framework}
		},
	},
	Prototype: {
		Phase:             Prototype,
		Title:             "5. Prototype Spec",
		Description:       "Generate detailed specifications and prompts for building a prototype based on a selected idea.",
		UserPromptLabel:   "Describe the core idea you want to build:",
		InitialHelperText: `Provide your chosen idea from the "Decide" phase. The AI will generate a detailed specification for a developer or a low-code/no-code tool.`,
		build: func(Inputs) Instruction {
			return PrototypeInstruction{}
		},
	},
	Test: {
		Phase:                Test,
		Title:                "6. Test",
		Description:          "Upload prototype images and simulate user testing to get feedback.",
		UserPromptLabel:      `Ask the "user" to perform a task or get their feedback on the prototype images:`,
		InitialHelperText:    "First, define the user persona below. Then, upload one or more images of your prototype. Finally, interact with the AI as if it's that user testing your design.",
		RequiresPersonaInput: true,
		AllowsImageUpload:    true,
		build: func(in Inputs) Instruction {
			return TestInstruction{Persona: in.Persona}
		},
	},
}

// Lookup returns the Config for p. ok is false for invalid phases.
func Lookup(p SprintPhase) (cfg Config, ok bool) {
	cfg, ok = registry[p]
	return cfg, ok
}

// MustLookup is Lookup for phases known to be valid.
func MustLookup(p SprintPhase) Config {
	cfg, ok := registry[p]
	if !ok {
		panic("phase: no config for " + p.String())
	}
	return cfg
}

// Title returns the display title of p, e.g. "3. Sketch/Ideate".
func (p SprintPhase) Title() string {
	if cfg, ok := registry[p]; ok {
		return cfg.Title
	}
	return p.String()
}
