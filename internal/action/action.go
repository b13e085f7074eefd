// Package action implements ActionExecutor (spec.md §4.3): applying a
// chosen response pattern's impact to SelfState and producing a stable,
// unique action identifier plus a short dedup signature for the resulting
// memory entry.
//
// Grounded on reflex.ActionRegistry's naming style for the executor shape,
// and on graph.generateShortID's BLAKE3-short-hash technique for the memory
// entry signature.
package action

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/zeebo/blake3"

	"github.com/vthunder/life/internal/selfstate"
	"github.com/vthunder/life/internal/types"
)

// SignatureLen is the number of hex characters kept from the BLAKE3 digest
// for MemoryEntry.Signature — enough to dedup without storing a full hash.
const SignatureLen = 10

// Result is the outcome of one ActionExecutor.Execute call.
type Result struct {
	ActionID    string
	StateBefore types.Scalars
	StateAfter  types.Scalars
}

// Execute applies impact to state via ApplyDelta (which clamps), then
// returns a unique action_id in the form "action_<tick>_<pattern>_<ms>"
// (spec.md §4.3 step 4). Side effects are limited to state mutation; no I/O.
func Execute(state *selfstate.SelfState, pattern types.Pattern, impact map[string]float64) Result {
	before := state.Scalars()
	state.ApplyDelta(impact)
	after := state.Scalars()

	actionID := fmt.Sprintf("action_%d_%s_%d", state.Ticks(), pattern, time.Now().UnixMilli())

	return Result{ActionID: actionID, StateBefore: before, StateAfter: after}
}

// Signature computes a short, stable dedup hash for a memory entry from its
// event type, pattern, and significance — cheap enough to compute on every
// append (spec.md §3.4 "signature, for cheap dedup").
func Signature(eventType string, pattern types.Pattern, significance float64) string {
	payload := fmt.Sprintf("%s|%s|%.6f", eventType, pattern, significance)
	digest := blake3.Sum256([]byte(payload))
	return hex.EncodeToString(digest[:])[:SignatureLen]
}
