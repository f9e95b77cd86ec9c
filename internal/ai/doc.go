// Package ai adapts an LLM endpoint for job matching.
//
// Matcher sends a user's natural-language prompt plus a compact JSON encoding
// of candidate listings to a Gemini-style generateContent endpoint and parses
// the returned listing IDs. Contract points:
//
//   - Callers never pass a blank prompt; a blank prompt means "match
//     everything" and is handled upstream without an API call.
//   - The returned IDs are filtered to the candidate set, so the model cannot
//     hallucinate listings into a digest.
//   - An empty match result is a valid outcome, not an error.
//   - Input is truncated to MaxCandidates before the call to bound cost.
//
// BaseURL is overridable so tests run against an httptest server.
package ai
