package player

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testState() State {
	s := NewState("p-1", Location{Type: LocationVillage, ID: 1})
	s.Energy = 20
	s.Gold = 50
	s.Inventory = map[string]int{"raw_fish": 3, "log": 1}
	return s
}

func TestTryDebit_AppliesWholeCost(t *testing.T) {
	s := testState()
	ok := s.TryDebit(Cost{Energy: 5, Gold: 10, Items: map[string]int{"raw_fish": 3}})
	require.True(t, ok)
	assert.Equal(t, 15, s.Energy)
	assert.Equal(t, int64(40), s.Gold)
	_, present := s.Inventory["raw_fish"]
	assert.False(t, present, "exhausted items are removed")
	assert.Equal(t, 1, s.Inventory["log"])
}

func TestTryDebit_AllOrNothing(t *testing.T) {
	costs := []Cost{
		{Energy: 21, Items: map[string]int{"raw_fish": 1}},
		{Energy: 1, Items: map[string]int{"raw_fish": 1, "log": 2}},
		{Energy: 1, Gold: 51},
		{Items: map[string]int{"iron_ore": 1}},
	}
	for _, c := range costs {
		s := testState()
		before := s.Clone()
		assert.False(t, s.TryDebit(c))
		assert.Equal(t, before, s, "cost %+v must not partially debit", c)
	}
}

func TestShortfall_ListsEveryMissingRequirement(t *testing.T) {
	s := testState()
	got := s.Shortfall(Cost{Energy: 99, Gold: 99, Items: map[string]int{"log": 2, "raw_fish": 1}})
	assert.Equal(t, []string{"energy", "gold", "log"}, got)
	assert.True(t, s.CanAfford(Cost{}))
}

func TestCredit_AddsItemsAndGold(t *testing.T) {
	s := State{}
	s.Credit(Rewards{Items: map[string]int{"bread": 2, "": 4, "ash": 0}, Gold: 7})
	assert.Equal(t, map[string]int{"bread": 2}, s.Inventory)
	assert.Equal(t, int64(7), s.Gold)
}

func TestApplyPenalty_ClampsEnergyAndExtendsLockout(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s := testState()
	s.ApplyPenalty(&Penalty{Kind: PenaltyCaught, EnergyLoss: 50, Lockout: time.Minute}, now)
	assert.Equal(t, 0, s.Energy)
	assert.True(t, s.LockedAt(now.Add(30*time.Second)))
	assert.False(t, s.LockedAt(now.Add(time.Minute)))

	s.ApplyPenalty(&Penalty{Kind: PenaltyCaught, Lockout: time.Second}, now)
	assert.Equal(t, now.Add(time.Minute), s.LockedUntil, "shorter lockout never shortens an existing one")

	s.ApplyPenalty(nil, now)
	assert.Equal(t, 0, s.Energy)
}

func TestPenaltyJSON_LockoutInSeconds(t *testing.T) {
	data, err := json.Marshal(&Penalty{Kind: PenaltyCaught, EnergyLoss: 5, Lockout: 5 * time.Minute})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"caught","energy_loss":5,"lockout_seconds":300}`, string(data))

	var back Penalty
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, 5*time.Minute, back.Lockout)

	data, err = json.Marshal(Penalty{Kind: PenaltyInjured, EnergyLoss: 4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"injured","energy_loss":4}`, string(data))
}

func TestClone_DoesNotAlias(t *testing.T) {
	s := testState()
	c := s.Clone()
	c.Inventory["log"] = 9
	c.Skills.Credit("cooking", 500)
	assert.Equal(t, 1, s.Inventory["log"])
	assert.Equal(t, int64(0), s.Skills.XP("cooking"))
}

func TestLocationTier(t *testing.T) {
	assert.Equal(t, 1, LocationVillage.Tier())
	assert.Equal(t, 5, LocationKingdom.Tier())
	assert.False(t, LocationType("castle").Valid())
}
