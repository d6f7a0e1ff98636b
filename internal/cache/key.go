package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/richhaase/interpeer/internal/domain"
)

// keyMaterial fixes the serialized field order, so structurally identical
// requests hash identically regardless of how they were constructed.
type keyMaterial struct {
	Agent             string   `json:"agent"`
	Model             string   `json:"model"`
	Content           string   `json:"content"`
	Focus             []string `json:"focus"`
	Style             string   `json:"style"`
	ReviewType        string   `json:"review_type"`
	TimeBudgetSeconds *int     `json:"time_budget_seconds"`
}

// Key derives the cache key for a prepared request sent to agent with model.
// Resource paths are excluded: their contents are already part of Content.
func Key(req domain.ReviewRequest, agent, model string) string {
	req = req.WithDefaults()
	focus := req.Focus
	if focus == nil {
		focus = []string{}
	}
	data, _ := json.Marshal(keyMaterial{
		Agent:             agent,
		Model:             model,
		Content:           req.Content,
		Focus:             focus,
		Style:             string(req.Style),
		ReviewType:        string(req.ReviewType),
		TimeBudgetSeconds: req.TimeBudgetSeconds,
	})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
