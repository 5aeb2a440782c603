package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"ai-colosseum/server/engine"
)

const combatSystem = `
You are an autonomous combat agent in a turn-based arena. Each turn you get
a JSON observation of the world and must pick exactly one action.

Directives:
- Weigh hit points, alliances, and prize share terms; survival pays.
- Alliances split the prize by the agreed percentages; betrayal deals heavy
  unblockable damage but makes you a target.
- Defending halves incoming damage this turn.
- Respond with JSON only. No prose, no markdown.
`

const rpsSystem = `
You play rock-paper-scissors for a prize pool. You are given the score and
your opponent's last move. Respond with JSON only: {"move":"rock"|"paper"|"scissors"}.
`

var actionEnum = []string{
	string(engine.ActionAttack),
	string(engine.ActionDefend),
	string(engine.ActionProposeAlliance),
	string(engine.ActionAcceptAlliance),
	string(engine.ActionBetrayAlliance),
	string(engine.ActionBribe),
}

func decisionSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"action": map[string]any{
				"type": "string",
				"enum": actionEnum,
			},
			"target":       map[string]any{"type": []any{"string", "null"}},
			"attackTarget": map[string]any{"type": []any{"string", "null"}},
			"proposer":     map[string]any{"type": []any{"string", "null"}},
			"allianceId":   map[string]any{"type": []any{"string", "null"}},
			"amount":       map[string]any{"type": []any{"integer", "null"}, "minimum": 0},
			"terms": map[string]any{
				"type": []any{"object", "null"},
				"properties": map[string]any{
					"prizeShare": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
				},
			},
			"reasoning": map[string]any{"type": []any{"string", "null"}},
		},
		"required": []string{"action"},
	}
}

// ChooseDecision asks a model for one combat decision. The reply is parsed
// tolerantly: strict JSON first, then a brace-extraction salvage.
func (c *Client) ChooseDecision(ctx context.Context, model string, snap engine.Snapshot) (engine.Decision, error) {
	obsRaw, _ := json.Marshal(snap)
	user := fmt.Sprintf(`Observation:
%s

Respond ONLY with a single compact JSON object:
{"action":"%s", ...}
Rules:
- "attack" needs "target" (an opponent id).
- "propose_alliance" needs "target" and may set "terms":{"prizeShare":0-100} (your share).
- "accept_alliance" needs "proposer" (who offered).
- "betray_alliance" needs "allianceId" and "target" (the ally to hit).
- "bribe" needs "target", "amount", and may set "terms".
- "defend" takes no extra fields.
- Optional "reasoning" under 200 characters.`,
		string(obsRaw), strings.Join(actionEnum, `"|"`))

	text, err := c.Complete(ctx, model, combatSystem, user, Options{
		SchemaName: "arena_decision",
		Schema:     decisionSchema(),
		Strict:     true,
	})
	if err != nil {
		return engine.Decision{}, err
	}
	d, ok := ParseDecision(text)
	if !ok {
		return engine.Decision{}, fmt.Errorf("no valid decision in model output: %s", truncate(text, 200))
	}
	return d, nil
}

// ParseDecision turns raw model text into a decision: strict JSON, then
// the outermost JSON object embedded in prose or fences.
func ParseDecision(raw string) (engine.Decision, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return engine.Decision{}, false
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		cleaned := extractJSONObject(raw)
		if cleaned == "" {
			return engine.Decision{}, false
		}
		if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
			return engine.Decision{}, false
		}
	}
	return coerceDecisionMap(parsed)
}

func coerceDecisionMap(parsed map[string]any) (engine.Decision, bool) {
	var d engine.Decision
	if v, ok := parsed["action"].(string); ok {
		d.Action = engine.Action(strings.ToLower(strings.TrimSpace(v)))
	}
	if !d.Action.Valid() {
		return engine.Decision{}, false
	}
	d.Target = stringField(parsed, "target")
	d.AttackTarget = stringField(parsed, "attackTarget", "attack_target")
	d.Proposer = stringField(parsed, "proposer")
	d.AllianceID = stringField(parsed, "allianceId", "alliance_id")
	d.Reasoning = stringField(parsed, "reasoning")
	if n, ok := intField(parsed, "amount"); ok {
		d.Amount = n
	}
	if t, ok := parsed["terms"].(map[string]any); ok {
		if share, ok := intField(t, "prizeShare", "prize_share"); ok && share >= 0 && share <= 100 {
			d.Terms = &engine.Terms{PrizeShare: int(share)}
		}
	}
	return d, true
}

// ChooseMove asks a model for one rps throw.
func (c *Client) ChooseMove(ctx context.Context, model string, snap engine.RPSSnapshot) (engine.Move, error) {
	obsRaw, _ := json.Marshal(snap)
	user := fmt.Sprintf("Observation:\n%s\n\nRespond ONLY with {\"move\":\"rock\"|\"paper\"|\"scissors\"}.", string(obsRaw))
	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"move": map[string]any{"type": "string", "enum": []string{"rock", "paper", "scissors"}},
		},
		"required": []string{"move"},
	}
	text, err := c.Complete(ctx, model, rpsSystem, user, Options{SchemaName: "rps_move", Schema: schema, Strict: true})
	if err != nil {
		return "", err
	}
	mv, ok := ParseMove(text)
	if !ok {
		return "", fmt.Errorf("no valid move in model output: %s", truncate(text, 200))
	}
	return mv, nil
}

// ParseMove accepts strict JSON, embedded JSON, or a bare move word.
func ParseMove(raw string) (engine.Move, bool) {
	raw = strings.TrimSpace(raw)
	var parsed struct {
		Move string `json:"move"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		if cleaned := extractJSONObject(raw); cleaned != "" {
			_ = json.Unmarshal([]byte(cleaned), &parsed)
		}
	}
	candidate := strings.ToLower(strings.TrimSpace(parsed.Move))
	if candidate == "" {
		candidate = strings.ToLower(strings.Trim(raw, `"' .`))
	}
	mv := engine.Move(candidate)
	if mv.Valid() {
		return mv, true
	}
	return "", false
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func intField(m map[string]any, keys ...string) (int64, bool) {
	for _, k := range keys {
		raw, ok := m[k]
		if !ok || raw == nil {
			continue
		}
		switch t := raw.(type) {
		case float64:
			return int64(t), true
		case json.Number:
			if n, err := t.Int64(); err == nil {
				return n, true
			}
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
