// Package analysis defines the contract for the external model that reviews
// Solidity source. The only production implementation is analysis/groq.
package analysis

import "context"

// SystemPrompt is sent ahead of every contract. It asks for line-level
// findings, references to real incidents, and a fully patched contract in a
// ```solidity fence (which package extract relies on).
const SystemPrompt = "Analyze this Solidity contract for vulnerabilities and gas optimizations. " +
	"Identify the specific lines where the bugs exist, mention case study references related to these vulnerabilities, " +
	"and return a fully patched version of the contract with fixes implemented."

// DefaultModel is the Groq-hosted model used when none is configured.
const DefaultModel = "meta-llama/llama-4-maverick-17b-128e-instruct"

// DefaultMaxTokens bounds the completion length.
const DefaultMaxTokens = 3500

// Analyzer sends source to a model and returns its review as text.
//
// Implementations return an error matching apperror.ErrAnalysisService for
// any upstream failure, including an empty answer. They do not retry.
type Analyzer interface {
	Analyze(ctx context.Context, source string) (string, error)
}
