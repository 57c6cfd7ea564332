package action

import (
	"context"
	"strings"
	"time"

	"fiefdom/internal/domain/activity"
	"fiefdom/internal/domain/event"
	"fiefdom/internal/domain/player"
)

// Attempt resolves one instant train, thieve, agility or dice action through the same
// resolvers the queue uses. An unsuccessful in-world outcome is returned as a response,
// never as an error.
func (u UseCase) Attempt(ctx context.Context, req AttemptRequest) (AttemptResponse, error) {
	playerID := strings.TrimSpace(req.PlayerID)
	if playerID == "" {
		return AttemptResponse{}, invalid("player_id", "is required")
	}
	kind := activity.NormalizeKind(req.Kind)
	if !activity.IsInstant(kind) {
		return AttemptResponse{}, invalid("kind", "unsupported instant action "+string(kind))
	}
	if req.Location.Type != "" && !req.Location.Type.Valid() {
		return AttemptResponse{}, invalid("location_type", "unknown location type "+string(req.Location.Type))
	}
	params := activity.Params{}
	for k, v := range req.Params {
		params[k] = v
	}
	if target := strings.TrimSpace(req.Target); target != "" {
		params[activity.TargetParam(kind)] = target
	}

	var out AttemptResponse
	_, err := u.run(ctx, "attempt_"+string(kind), playerID, true, func(_ context.Context, ac *ActionContext) error {
		if ac.Active != nil && ac.Active.IsActive() {
			return precondition(CodeQueueActive, "you are busy with a %s queue", ac.Active.ActionType)
		}
		if ac.State.LockedAt(ac.Now) {
			wait := ac.State.LockedUntil.Sub(ac.Now).Round(time.Second)
			return precondition(CodeLockedOut, "you are being watched; try again in %s", wait)
		}
		loc := ac.State.Location
		if req.Location.Type != "" {
			if req.Location != loc {
				return precondition(CodeWrongLocation, "you are not at %s %d", req.Location.Type, req.Location.ID)
			}
		}
		res, err := u.prepare(kind, params, ac.State, loc)
		if err != nil {
			return err
		}
		if missing := ac.State.Shortfall(res.Cost(params)); len(missing) > 0 {
			return precondition(CodeInsufficientResources, "not enough %s", strings.Join(missing, ", "))
		}
		ac.State.TryDebit(res.Cost(params))
		ac.markStateDirty()

		outcome := res.Resolve(ac.State, params, loc, u.roller())
		levelUps := applyOutcome(&ac.State, outcome, ac.Now)
		ac.emit(event.TypeAttemptResolved, ac.Now, map[string]any{
			"kind":    string(kind),
			"target":  params.String(activity.TargetParam(kind)),
			"outcome": string(outcome.Class()),
			"caught":  outcome.Caught,
			"message": outcome.Message,
		})
		ac.emitLevelUps(levelUps, ac.Now)
		ac.emitPenalty(outcome.Penalty, ac.Now)

		out = AttemptResponse{
			Success:  outcome.Success,
			Failed:   outcome.Failed,
			Caught:   outcome.Caught,
			Outcome:  outcome.Class(),
			Rewards:  outcome.Rewards,
			LevelUps: levelUps,
			Penalty:  outcome.Penalty,
			Message:  outcome.Message,
			Energy:   ac.State.Energy,
		}
		return nil
	})
	if err != nil {
		return AttemptResponse{}, err
	}
	return out, nil
}

// LocationOf is a convenience for transports that receive location fields separately.
func LocationOf(locationType string, locationID int64) player.Location {
	return player.Location{Type: player.LocationType(strings.ToLower(strings.TrimSpace(locationType))), ID: locationID}
}
