package spaces

// Goal observation key names, fixed by the goal-conditioned contract.
const (
	KeyObservation  = "observation"
	KeyAchievedGoal = "achieved_goal"
	KeyDesiredGoal  = "desired_goal"
)

// Goal is the goal-conditioned observation space: a mapping with exactly
// three independently-shaped subspaces.
type Goal struct {
	Observation  Box
	AchievedGoal Box
	DesiredGoal  Box
}

// NewGoal builds a Goal space from its three subspaces.
func NewGoal(observation, achieved, desired Box) Goal {
	return Goal{Observation: observation, AchievedGoal: achieved, DesiredGoal: desired}
}

// Keys returns the observation mapping's keys. Always exactly these three,
// in this order, regardless of the task.
func (Goal) Keys() []string {
	return []string{KeyObservation, KeyAchievedGoal, KeyDesiredGoal}
}

// Subspace returns the Box declared for a key.
func (g Goal) Subspace(key string) (Box, bool) {
	switch key {
	case KeyObservation:
		return g.Observation, true
	case KeyAchievedGoal:
		return g.AchievedGoal, true
	case KeyDesiredGoal:
		return g.DesiredGoal, true
	}
	return Box{}, false
}
