// Package scenarios holds the demo knowledge bases and questions the CLI
// and the example programs run.
package scenarios

// Scenario is one demo question with what it is meant to show
type Scenario struct {
	Title    string
	Question string
}

// GroundedKnowledge is the context for the grounded responder demo
const GroundedKnowledge = `
Anthropic's headquarters are located in San Francisco, California.
Anthropic's latest AI model is Claude 3.5 Sonnet, released in June 2024.
Claude was built using an approach called "Constitutional AI."
`

// Grounded returns the grounded responder scenarios
func Grounded() []Scenario {
	return []Scenario{
		{Title: "Question in context", Question: "What is Anthropic's latest AI model and when was it released?"},
		{Title: "Out of context question", Question: "Who won the 1998 World Cup?"},
		{Title: "Detail in context", Question: "Where is Anthropic's headquarters?"},
	}
}

// ConfidenceKnowledge is the context for the confidence gate demo
const ConfidenceKnowledge = `
The official launch of Claude 4 Sonnet was in May 2025.
Anthropic is headquartered in San Francisco.
Anthropic's principal founder is Dario Amodei.
`

// Confidence returns the confidence gate scenarios
func Confidence() []Scenario {
	return []Scenario{
		{Title: "Factual information", Question: "When was Claude 4 Sonnet released?"},
		{Title: "Missing information", Question: "What is the name of Anthropic's CEO?"},
		{Title: "Hallucination-inducing question", Question: "What did co-founder Ben Mann say about the future of AI in 2026?"},
	}
}

// AnalysisText is the demo input for the extractor
const AnalysisText = "Apple's new M4 processor, built on 3nm technology, promises a 50% increase in graphics rendering speed, making it ideal for video editing professionals."
