package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fiefdom/internal/adapter/repo/gorm/model"
	"fiefdom/internal/app/ports"
	"fiefdom/internal/domain/player"
	"fiefdom/internal/domain/skills"

	"gorm.io/gorm"
)

type PlayerStateRepo struct {
	db *gorm.DB
}

func NewPlayerStateRepo(db *gorm.DB) PlayerStateRepo {
	return PlayerStateRepo{db: db}
}

func (r PlayerStateRepo) GetByPlayerID(ctx context.Context, playerID string) (player.State, error) {
	var m model.PlayerState
	if err := forUpdate(ctx, r.db).Where("player_id = ?", playerID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return player.State{}, ports.ErrNotFound
		}
		return player.State{}, fmt.Errorf("load player state: %w", err)
	}
	return toPlayerState(m)
}

func (r PlayerStateRepo) SaveWithVersion(ctx context.Context, state player.State, expectedVersion int64) error {
	db := getDBFromCtx(ctx, r.db)
	m, err := fromPlayerState(state)
	if err != nil {
		return err
	}
	if expectedVersion == 0 {
		if err := db.Create(&m).Error; err != nil {
			if isUniqueViolation(err) {
				return ports.ErrConflict
			}
			return fmt.Errorf("insert player state: %w", err)
		}
		return nil
	}

	updates := map[string]any{
		"energy":        m.Energy,
		"max_energy":    m.MaxEnergy,
		"gold":          m.Gold,
		"inventory":     m.Inventory,
		"skills":        m.Skills,
		"location_type": m.LocationType,
		"location_id":   m.LocationID,
		"locked_until":  m.LockedUntil,
		"version":       m.Version,
		"updated_at":    m.UpdatedAt,
	}
	res := db.Model(&model.PlayerState{}).
		Where("player_id = ? AND version = ?", state.PlayerID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update player state: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ports.ErrConflict
	}
	return nil
}

func toPlayerState(m model.PlayerState) (player.State, error) {
	state := player.State{
		PlayerID:  m.PlayerID,
		Energy:    int(m.Energy),
		MaxEnergy: int(m.MaxEnergy),
		Gold:      m.Gold,
		Inventory: map[string]int{},
		Skills:    skills.NewSet(),
		Location:  player.Location{Type: player.LocationType(m.LocationType), ID: m.LocationID},
		Version:   m.Version,
		UpdatedAt: m.UpdatedAt,
	}
	if len(m.Inventory) > 0 {
		if err := json.Unmarshal(m.Inventory, &state.Inventory); err != nil {
			return player.State{}, fmt.Errorf("decode inventory of %s: %w", m.PlayerID, err)
		}
	}
	if len(m.Skills) > 0 {
		var set skills.Set
		if err := json.Unmarshal(m.Skills, &set); err != nil {
			return player.State{}, fmt.Errorf("decode skills of %s: %w", m.PlayerID, err)
		}
		for name, p := range set.Normalize() {
			state.Skills[name] = p
		}
	}
	if m.LockedUntil != nil {
		state.LockedUntil = m.LockedUntil.UTC()
	}
	return state, nil
}

func fromPlayerState(state player.State) (model.PlayerState, error) {
	inventory := state.Inventory
	if inventory == nil {
		inventory = map[string]int{}
	}
	invJSON, err := json.Marshal(inventory)
	if err != nil {
		return model.PlayerState{}, fmt.Errorf("encode inventory: %w", err)
	}
	set := state.Skills
	if set == nil {
		set = skills.NewSet()
	}
	skillsJSON, err := json.Marshal(set)
	if err != nil {
		return model.PlayerState{}, fmt.Errorf("encode skills: %w", err)
	}
	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	m := model.PlayerState{
		PlayerID:     state.PlayerID,
		Energy:       int32(state.Energy),
		MaxEnergy:    int32(state.MaxEnergy),
		Gold:         state.Gold,
		Inventory:    invJSON,
		Skills:       skillsJSON,
		LocationType: string(state.Location.Type),
		LocationID:   state.Location.ID,
		Version:      state.Version,
		UpdatedAt:    updatedAt,
	}
	if !state.LockedUntil.IsZero() {
		until := state.LockedUntil
		m.LockedUntil = &until
	}
	return m, nil
}
