// Package gateway is the boundary between the sprint orchestrator and a
// hosted generative-AI backend.
//
// A Client opens stateful chat Sessions, runs single-shot generations,
// writes checkpoint summaries and renders images. Two backends are
// provided: the Gemini API through google.golang.org/genai, and any
// OpenAI-compatible endpoint through langchaingo. Every outbound call is
// paced by a token-bucket limiter and recorded as an OpenTelemetry span
// and metrics. Calls are never retried.
//
// The extraction helpers (ExtractJSON, ExtractListItems, ExtractIdeas)
// turn free-form model output into structured values. They never fail;
// unparseable text simply yields nothing.
package gateway
