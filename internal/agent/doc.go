// Package agent invokes peer reviewers.
//
// An Adapter turns a prompt bundle into a review result for one agent. The
// built-in adapters are:
//
//   - claude_code: the Claude Agent SDK, which drives the claude CLI
//   - codex_cli: "codex exec --json", parsed from its JSONL event stream
//   - factory_droid: "droid exec", parsed from JSON or passed through as text
//
// Custom agents from the config file run through a generic CLI adapter that
// writes the prompt to stdin and returns stdout as the review.
//
// Subprocess adapters are probed once with "<command> --version" before first
// use; see Prober. SDK adapters are never probed.
package agent
