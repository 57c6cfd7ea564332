package action

import (
	"context"
	"errors"
	"testing"
	"time"

	"fiefdom/internal/domain/activity"
	"fiefdom/internal/domain/event"
	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/skills"
)

func TestAttempt_ThievingCaughtAppliesPenaltyOnce(t *testing.T) {
	env := newTestEnv(0.99, 0.01)

	resp, err := env.uc.Attempt(context.Background(), AttemptRequest{
		PlayerID: "p-1",
		Kind:     "thieve",
		Target:   "farmer",
		Location: LocationOf("village", 1),
	})
	if err != nil {
		t.Fatalf("attempt error: %v", err)
	}
	if resp.Success || !resp.Failed || !resp.Caught {
		t.Fatalf("expected caught failure, got success=%v failed=%v caught=%v", resp.Success, resp.Failed, resp.Caught)
	}
	if resp.Outcome != activity.ClassFailureWithPenalty {
		t.Fatalf("outcome mismatch: got=%s", resp.Outcome)
	}
	if env.rolls.Drawn != 2 {
		t.Fatalf("expected success roll plus catch roll, drawn=%d", env.rolls.Drawn)
	}
	if resp.Penalty == nil || resp.Penalty.Kind != player.PenaltyCaught {
		t.Fatalf("expected caught penalty, got %+v", resp.Penalty)
	}

	state := env.player()
	if got, want := state.Energy, 100-2-5; got != want {
		t.Fatalf("energy mismatch: got=%d want=%d", got, want)
	}
	if got, want := state.LockedUntil, testStart.Add(30*time.Second); !got.Equal(want) {
		t.Fatalf("lockout mismatch: got=%s want=%s", got, want)
	}
	if n := env.events.count(event.TypePenaltyApplied); n != 1 {
		t.Fatalf("penalty must be applied exactly once, events=%d", n)
	}

	_, err = env.uc.Attempt(context.Background(), AttemptRequest{PlayerID: "p-1", Kind: "thieve", Target: "farmer"})
	requirePrecondition(t, err, CodeLockedOut)
	if got := env.player().Energy; got != 93 {
		t.Fatalf("locked-out attempt must not charge energy, got %d", got)
	}

	env.clock.Advance(31 * time.Second)
	if _, err := env.uc.Attempt(context.Background(), AttemptRequest{PlayerID: "p-1", Kind: "thieve", Target: "farmer"}); err != nil {
		t.Fatalf("attempt after lockout: %v", err)
	}
}

func TestAttempt_ThievingSuccessCreditsGoldAndXP(t *testing.T) {
	env := newTestEnv(0.0, 0.999)
	resp, err := env.uc.Attempt(context.Background(), AttemptRequest{PlayerID: "p-1", Kind: "thieve", Target: "farmer"})
	if err != nil {
		t.Fatalf("attempt error: %v", err)
	}
	if !resp.Success || resp.Rewards.Gold != 9 {
		t.Fatalf("expected 9 gold loot, got success=%v gold=%d", resp.Success, resp.Rewards.Gold)
	}
	state := env.player()
	if state.Gold != 9 || state.Skills.XP(skills.Thieving) != 8 {
		t.Fatalf("ledger mismatch: gold=%d xp=%d", state.Gold, state.Skills.XP(skills.Thieving))
	}
}

func TestAttempt_AgilityInjuryIsAResultNotAnError(t *testing.T) {
	env := newTestEnv(0.99)
	resp, err := env.uc.Attempt(context.Background(), AttemptRequest{PlayerID: "p-1", Kind: "agility", Target: "log_balance"})
	if err != nil {
		t.Fatalf("attempt error: %v", err)
	}
	if resp.Success || !resp.Failed || resp.Caught {
		t.Fatalf("unexpected flags: %+v", resp)
	}
	if resp.Penalty == nil || resp.Penalty.Kind != player.PenaltyInjured {
		t.Fatalf("expected injury penalty")
	}
	if got, want := resp.Energy, 100-2-4; got != want {
		t.Fatalf("energy mismatch: got=%d want=%d", got, want)
	}
}

func TestAttempt_Preconditions(t *testing.T) {
	env := newTestEnv()

	_, err := env.uc.Attempt(context.Background(), AttemptRequest{PlayerID: "p-1", Kind: "cook", Target: "bread"})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "kind" {
		t.Fatalf("expected kind validation error, got %v", err)
	}

	_, err = env.uc.Attempt(context.Background(), AttemptRequest{PlayerID: "p-1", Kind: "thieve", Target: "dragon"})
	if !errors.As(err, &verr) || verr.Code != CodeInvalidParams {
		t.Fatalf("expected invalid params, got %v", err)
	}

	_, err = env.uc.Attempt(context.Background(), AttemptRequest{PlayerID: "p-1", Kind: "thieve", Target: "farmer", Location: LocationOf("town", 4)})
	requirePrecondition(t, err, CodeWrongLocation)

	env.updatePlayer(func(s *player.State) { s.Skills.Credit(skills.Thieving, skills.XPForLevel(50)) })
	_, err = env.uc.Attempt(context.Background(), AttemptRequest{PlayerID: "p-1", Kind: "thieve", Target: "noble"})
	requirePrecondition(t, err, CodeWrongLocation)

	_, err = env.uc.Attempt(context.Background(), AttemptRequest{PlayerID: "p-1", Kind: "dice", Params: activity.Params{"game": "high_roll", "bet": 50}})
	requirePrecondition(t, err, CodeInsufficientResources)

	_, err = env.uc.Attempt(context.Background(), AttemptRequest{PlayerID: "p-1", Kind: "thieve", Target: "farmer", Location: LocationOf("castle", 1)})
	if !errors.As(err, &verr) || verr.Field != "location_type" {
		t.Fatalf("expected location_type validation error, got %v", err)
	}
}

func TestAttempt_RefusedWhileQueueActive(t *testing.T) {
	env := newTestEnv()
	startSparring(t, env, 2)

	_, err := env.uc.Attempt(context.Background(), AttemptRequest{PlayerID: "p-1", Kind: "train", Target: "sparring"})
	requirePrecondition(t, err, CodeQueueActive)

	env.clock.Advance(2 * trainRep)
	resp, err := env.uc.Attempt(context.Background(), AttemptRequest{PlayerID: "p-1", Kind: "train", Target: "sparring"})
	if err != nil {
		t.Fatalf("attempt once queue finished: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success with roll 0.1")
	}
	if got, want := env.player().Skills.XP(skills.Attack), int64(60); got != want {
		t.Fatalf("attack xp mismatch: got=%d want=%d", got, want)
	}
}

func TestAttempt_DiceStakesBet(t *testing.T) {
	env := newTestEnv(0.99)
	env.updatePlayer(func(s *player.State) { s.Gold = 100 })

	resp, err := env.uc.Attempt(context.Background(), AttemptRequest{
		PlayerID: "p-1",
		Kind:     "dice",
		Params:   activity.Params{"game": "high_roll", "bet": float64(40)},
	})
	if err != nil {
		t.Fatalf("attempt error: %v", err)
	}
	if resp.Success || resp.Penalty != nil {
		t.Fatalf("expected plain loss, got %+v", resp)
	}
	if got := env.player().Gold; got != 60 {
		t.Fatalf("gold mismatch: got=%d want=60", got)
	}
}
