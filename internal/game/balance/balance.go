// Package balance holds the numeric balancing model: the level power curve,
// damage scaling, reward curves and experience costs. The constants here are
// tuned together; changing one shifts the whole progression.
package balance

import (
	"math"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

const (
	MaximumEnergy = 10
	MaximumDamage = 10
	StartDamage   = 5

	PowerCoefficient = 0.05
	PowerBase        = 1.05
	PowerOffset      = 1.0
	// PowerReferenceLevel is the level power offsets are authored against.
	PowerReferenceLevel = 5

	ExperienceMultiplierOffset = 10

	LevelUpCostBase = 1.11

	ActionLearnCostCoefficient = 0.05
	ActionLearnCostOffset      = 11

	DamageMultiplierBase          = 2.0
	DamageMultiplierCoefficient   = 0.2
	DamageMultiplierNormalization = 5

	LevelDiscountScale      = 0.5
	ExperienceDiscountScale = 0.5
	EnergyDiscountScale     = 0.5

	LearnableActionCapacity = 7
	KeySlotCount            = 10

	// HealthPowerScale is the maximum health of an entity at PowerReferenceLevel.
	HealthPowerScale = 20

	GoldRewardScale       = 100
	ExperienceRewardScale = 10
)

// PowerMultiplier returns coeff*level + base^level - offset.
//
// Postcondition: strictly increasing in level for level >= 0.
func PowerMultiplier(level float64) float64 {
	return PowerCoefficient*level + math.Pow(PowerBase, level) - PowerOffset
}

// LevelForPower inverts PowerMultiplier, returning the (fractional) level whose
// power multiplier equals power.
//
// Precondition: power >= PowerMultiplier(0) (that is, power >= 0).
// Postcondition: PowerMultiplier(LevelForPower(p)) == p within floating point error.
func LevelForPower(power float64) float64 {
	a := PowerCoefficient
	k := math.Log(PowerBase)
	c := power + PowerOffset
	// a*L + e^(k*L) = c  =>  L = c/a - W((k/a) * e^(k*c/a)) / k
	w := lambertWOfExp(math.Log(k/a) + k*c/a)
	return c/a - w/k
}

// DamageMultiplier scales outgoing health damage by the performer's damage stat.
// A damage stat of DamageMultiplierNormalization is neutral.
func DamageMultiplier(damage int) float64 {
	return math.Pow(DamageMultiplierBase, DamageMultiplierCoefficient*float64(damage-DamageMultiplierNormalization))
}

// ExperienceMultiplier returns the linear experience scale for a level.
func ExperienceMultiplier(level int) float64 {
	return float64(ExperienceMultiplierOffset + level)
}

// RewardMultiplier is a logistic curve over the log power gap between loser and
// winner. It approaches 1 when the loser is much stronger and 0 when much weaker;
// equal power yields 1/9.
//
// Precondition: winnerLevel >= 1.
// Postcondition: Returns a value in [0, 1].
func RewardMultiplier(loserLevel, winnerLevel int) float64 {
	ratio := PowerMultiplier(float64(loserLevel)) / PowerMultiplier(float64(winnerLevel))
	return 1 / (1 + math.Pow(2, -1.5*math.Log2(ratio)+3))
}

// GoldReward returns the gold a winner takes from a loser.
//
// Precondition: src must be non-nil.
func GoldReward(loserLevel, winnerLevel int, src dice.Source) int {
	return dice.FuzzyRound(GoldRewardScale*RewardMultiplier(loserLevel, winnerLevel), src)
}

// ExperienceReward returns the experience granted for defeating a loser.
//
// Precondition: src must be non-nil.
func ExperienceReward(loserLevel, winnerLevel int, src dice.Source) int {
	v := ExperienceRewardScale * ExperienceMultiplier(loserLevel) * RewardMultiplier(loserLevel, winnerLevel)
	return dice.FuzzyRound(v, src)
}

// LevelUpCost returns the experience required to advance from level to level+1.
func LevelUpCost(level int) int {
	return int(math.Round(ExperienceRewardScale * ExperienceMultiplier(level) * math.Pow(LevelUpCostBase, float64(level))))
}

// ActionLearnCost returns the experience required to learn an action with the
// given minimum level.
func ActionLearnCost(minimumLevel int) int {
	return int(math.Round(ActionLearnCostCoefficient * float64(minimumLevel+ActionLearnCostOffset) * float64(LevelUpCost(minimumLevel))))
}

// MaximumHealth returns the health cap for an entity of the given level.
//
// Postcondition: Returns >= 1.
func MaximumHealth(level int) int {
	v := int(math.Ceil(HealthPowerScale * PowerMultiplier(float64(level)) / PowerMultiplier(PowerReferenceLevel)))
	if v < 1 {
		return 1
	}
	return v
}
