package action

import (
	"fmt"
	"sort"
	"time"

	"fiefdom/internal/domain/activity"
	"fiefdom/internal/domain/event"
	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/queue"
	"fiefdom/internal/domain/skills"
)

// advance resolves every repetition of the active queue that is due at ac.Now. Each
// repetition debits its cost, resolves against the state left by the previous one, then
// credits rewards. A failed debit completes the queue early. With no elapsed time it
// resolves nothing and marks nothing dirty.
func (u UseCase) advance(ac *ActionContext) error {
	q := ac.Active
	if q == nil || !q.IsActive() {
		return nil
	}
	res, ok := u.activities().Resolver(q.ActionType)
	if !ok {
		return fmt.Errorf("advance queue %d: no resolver for %s", q.ID, q.ActionType)
	}
	d, ok := u.activities().Duration(q.ActionType)
	if !ok {
		return fmt.Errorf("advance queue %d: no duration for %s", q.ID, q.ActionType)
	}

	if q.Remaining() == 0 {
		if err := q.Finish(queue.StopTotalReached, ac.Now); err != nil {
			return err
		}
		ac.markQueueDirty()
		ac.emit(event.TypeQueueCompleted, ac.Now, queuePayload(*q, map[string]any{"completed": q.Completed}))
		return nil
	}

	due := q.DueRepetitions(ac.Now, d, u.MaxCatchUp)
	for i := 0; i < due; i++ {
		at := q.NextDueAt
		if !ac.State.TryDebit(res.Cost(q.Params)) {
			if err := q.Finish(queue.StopInsufficientResources, at); err != nil {
				return err
			}
			ac.markQueueDirty()
			ac.emit(event.TypeQueueCompleted, at, queuePayload(*q, map[string]any{
				"completed":   q.Completed,
				"stop_reason": string(q.StopReason),
			}))
			u.logger().Info("queue stopped early",
				"player_id", ac.PlayerID, "queue_id", q.ID, "action_type", q.ActionType, "completed", q.Completed)
			return nil
		}
		ac.markStateDirty()

		outcome := res.Resolve(ac.State, q.Params, ac.State.Location, u.roller())
		levelUps := applyOutcome(&ac.State, outcome, at)
		if err := q.Record(queue.Result{
			Success:    outcome.Success,
			Failed:     outcome.Failed,
			Caught:     outcome.Caught,
			Rewards:    outcome.Rewards,
			LevelUps:   levelUps,
			Penalty:    outcome.Penalty,
			Message:    outcome.Message,
			ResolvedAt: at,
		}, d); err != nil {
			return err
		}
		ac.markQueueDirty()
		result := q.Results[len(q.Results)-1]
		ac.Resolved = append(ac.Resolved, result)
		ac.emit(event.TypeRepetitionResolved, at, queuePayload(*q, map[string]any{
			"index":   result.Index,
			"outcome": string(outcome.Class()),
			"message": result.Message,
		}))
		ac.emitLevelUps(levelUps, at)
		ac.emitPenalty(outcome.Penalty, at)

		if !q.IsActive() {
			ac.emit(event.TypeQueueCompleted, at, queuePayload(*q, map[string]any{
				"completed":   q.Completed,
				"stop_reason": string(q.StopReason),
			}))
			u.logger().Info("queue completed",
				"player_id", ac.PlayerID, "queue_id", q.ID, "action_type", q.ActionType, "completed", q.Completed)
		}
	}
	return nil
}

// applyOutcome credits items, gold and xp, then applies the penalty once. It returns only
// the credits that crossed a level boundary.
func applyOutcome(state *player.State, out activity.Outcome, at time.Time) []skills.LevelUp {
	if state.Skills == nil {
		state.Skills = skills.NewSet()
	}
	state.Credit(out.Rewards)

	names := make([]string, 0, len(out.Rewards.XP))
	for name := range out.Rewards.XP {
		names = append(names, string(name))
	}
	sort.Strings(names)
	var ups []skills.LevelUp
	for _, name := range names {
		up := state.Skills.Credit(skills.Name(name), out.Rewards.XP[skills.Name(name)])
		if up.LeveledUp {
			ups = append(ups, up)
		}
	}
	state.ApplyPenalty(out.Penalty, at)
	return ups
}

func (ac *ActionContext) emitLevelUps(ups []skills.LevelUp, at time.Time) {
	for _, up := range ups {
		ac.emit(event.TypeSkillLevelUp, at, map[string]any{
			"skill":     string(up.Skill),
			"old_level": up.OldLevel,
			"new_level": up.NewLevel,
		})
	}
}

func (ac *ActionContext) emitPenalty(p *player.Penalty, at time.Time) {
	if p == nil {
		return
	}
	ac.emit(event.TypePenaltyApplied, at, map[string]any{
		"kind":            string(p.Kind),
		"energy_loss":     p.EnergyLoss,
		"lockout_seconds": int64(p.Lockout / time.Second),
	})
}
