package status

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"fiefdom/internal/app/ports"
	"fiefdom/internal/domain/skills"
)

var ErrInvalidRequest = errors.New("invalid status request")

// UseCase is a read model over player state; it never advances queues or writes.
type UseCase struct {
	StateRepo ports.PlayerStateRepository
	Now       func() time.Time
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.PlayerID) == "" {
		return Response{}, ErrInvalidRequest
	}
	state, err := u.StateRepo.GetByPlayerID(ctx, req.PlayerID)
	if err != nil {
		return Response{}, err
	}
	state.Skills = state.Skills.Normalize()

	views := make([]SkillView, 0, len(skills.All()))
	total := 0
	for _, name := range skills.All() {
		level := state.Skills.Level(name)
		total += level
		views = append(views, SkillView{Skill: name, Level: level, XP: state.Skills.XP(name)})
	}

	resp := Response{
		State:       state,
		Skills:      views,
		CombatLevel: skills.CombatLevel(state.Skills),
		TotalLevel:  total,
	}
	now := u.now()
	if state.LockedAt(now) {
		resp.LockedForSeconds = int(math.Ceil(state.LockedUntil.Sub(now).Seconds()))
	}
	return resp, nil
}

func (u UseCase) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now().UTC()
}
