package status

import (
	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/skills"
)

type Request struct {
	PlayerID string
}

type SkillView struct {
	Skill skills.Name `json:"skill"`
	Level int         `json:"level"`
	XP    int64       `json:"xp"`
}

type Response struct {
	State            player.State `json:"state"`
	Skills           []SkillView  `json:"skills"`
	CombatLevel      int          `json:"combat_level"`
	TotalLevel       int          `json:"total_level"`
	LockedForSeconds int          `json:"locked_for_seconds"`
}
