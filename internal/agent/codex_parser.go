package agent

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/richhaase/interpeer/internal/domain"
)

const (
	// scannerInitialBuffer is the initial buffer size for the scanner (64KB).
	scannerInitialBuffer = 64 * 1024
	// scannerMaxLineSize is the maximum line size the scanner will handle (100MB).
	scannerMaxLineSize = 100 * 1024 * 1024
)

// CodexOutput is the parsed result of a codex exec --json run.
type CodexOutput struct {
	// Text is the last agent_message, which carries the final answer.
	Text  string
	Usage *domain.Usage
	// Failure is the message of an error or turn.failed event, if any.
	Failure string
	// SkippedLines counts lines that were not valid JSON.
	SkippedLines int
}

type codexEvent struct {
	Type string `json:"type"`
	Item *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"item"`
	Usage *struct {
		InputTokens       int64 `json:"input_tokens"`
		CachedInputTokens int64 `json:"cached_input_tokens"`
		OutputTokens      int64 `json:"output_tokens"`
	} `json:"usage"`
	Message string `json:"message"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ParseCodexOutput reads codex JSONL events. Codex emits lines like:
//
//	{"type":"item.completed","item":{"type":"agent_message","text":"..."}}
//	{"type":"turn.completed","usage":{"input_tokens":10,"output_tokens":5}}
//
// Non-JSON lines are skipped and counted. Usage is summed across turns.
func ParseCodexOutput(data []byte) (*CodexOutput, error) {
	out := &CodexOutput{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	ConfigureScanner(scanner)

	var usage domain.Usage
	sawUsage := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var ev codexEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			out.SkippedLines++
			continue
		}

		switch {
		case ev.Item != nil && ev.Item.Type == "agent_message" && ev.Item.Text != "":
			out.Text = ev.Item.Text
		case ev.Type == "turn.completed" && ev.Usage != nil:
			sawUsage = true
			usage.InputTokens += ev.Usage.InputTokens
			usage.CachedInputTokens += ev.Usage.CachedInputTokens
			usage.OutputTokens += ev.Usage.OutputTokens
		case ev.Type == "turn.failed" && ev.Error != nil:
			out.Failure = ev.Error.Message
		case ev.Type == "error" && ev.Message != "":
			out.Failure = ev.Message
		}
	}
	if err := scanner.Err(); err != nil {
		return out, fmt.Errorf("failed to read codex output: %w", err)
	}

	if sawUsage {
		out.Usage = &usage
	}
	return out, nil
}

// ConfigureScanner configures a bufio.Scanner with appropriate buffer sizes
// for parsing agent output (64KB initial, 100MB max).
func ConfigureScanner(scanner *bufio.Scanner) {
	scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxLineSize)
}
