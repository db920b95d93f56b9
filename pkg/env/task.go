// Package env defines the task contracts and the environment core that
// composes them over the roscore lifecycle.
package env

import "gonum.org/v1/gonum/mat"

// Task is the contract a concrete single-objective task fulfills. All
// computation methods must be pure functions of the current robot state and
// the supplied info map, with no side effects beyond what SetAction caused.
type Task interface {
	// SetInitialParams resets robot and sensor state for a new episode.
	// Options come from the caller of Reset.
	SetInitialParams(options map[string]any) error

	// SetAction applies an action to the robot.
	SetAction(action *mat.VecDense) error

	// GetObservation returns the current state of the environment.
	GetObservation() (*mat.VecDense, error)

	// GetReward scores the current state.
	GetReward(info map[string]any) (float64, error)

	// ComputeTerminated reports whether a terminal state was reached.
	ComputeTerminated(info map[string]any) (bool, error)

	// ComputeTruncated reports whether the episode ended for a
	// non-terminal reason (step limits and the like).
	ComputeTruncated(info map[string]any) (bool, error)
}

// GoalTask is the goal-conditioned contract. Reward, termination, and
// truncation depend only on their explicit arguments so a training loop can
// relabel desired goals after the fact and recompute them without
// re-running the robot.
type GoalTask interface {
	SetInitialParams(options map[string]any) error
	SetAction(action *mat.VecDense) error
	GetObservation() (*mat.VecDense, error)

	// GetAchievedGoal returns the goal the robot currently achieves.
	GetAchievedGoal() (*mat.VecDense, error)

	// GetDesiredGoal returns the target goal for this episode.
	GetDesiredGoal() (*mat.VecDense, error)

	ComputeReward(achieved, desired *mat.VecDense, info map[string]any) (float64, error)
	ComputeTerminated(achieved, desired *mat.VecDense, info map[string]any) (bool, error)
	ComputeTruncated(achieved, desired *mat.VecDense, info map[string]any) (bool, error)
}

// UnimplementedTask may be embedded by concrete tasks. Every method fails
// with ErrNotImplemented naming the missing extension point, so a partially
// implemented task fails loudly at the first call instead of returning a
// wrong answer.
type UnimplementedTask struct{}

func (UnimplementedTask) SetInitialParams(map[string]any) error {
	return notImplemented("SetInitialParams")
}

func (UnimplementedTask) SetAction(*mat.VecDense) error {
	return notImplemented("SetAction")
}

func (UnimplementedTask) GetObservation() (*mat.VecDense, error) {
	return nil, notImplemented("GetObservation")
}

func (UnimplementedTask) GetReward(map[string]any) (float64, error) {
	return 0, notImplemented("GetReward")
}

func (UnimplementedTask) ComputeTerminated(map[string]any) (bool, error) {
	return false, notImplemented("ComputeTerminated")
}

func (UnimplementedTask) ComputeTruncated(map[string]any) (bool, error) {
	return false, notImplemented("ComputeTruncated")
}

// UnimplementedGoalTask is the goal-conditioned counterpart of
// UnimplementedTask.
type UnimplementedGoalTask struct{}

func (UnimplementedGoalTask) SetInitialParams(map[string]any) error {
	return notImplemented("SetInitialParams")
}

func (UnimplementedGoalTask) SetAction(*mat.VecDense) error {
	return notImplemented("SetAction")
}

func (UnimplementedGoalTask) GetObservation() (*mat.VecDense, error) {
	return nil, notImplemented("GetObservation")
}

func (UnimplementedGoalTask) GetAchievedGoal() (*mat.VecDense, error) {
	return nil, notImplemented("GetAchievedGoal")
}

func (UnimplementedGoalTask) GetDesiredGoal() (*mat.VecDense, error) {
	return nil, notImplemented("GetDesiredGoal")
}

func (UnimplementedGoalTask) ComputeReward(_, _ *mat.VecDense, _ map[string]any) (float64, error) {
	return 0, notImplemented("ComputeReward")
}

func (UnimplementedGoalTask) ComputeTerminated(_, _ *mat.VecDense, _ map[string]any) (bool, error) {
	return false, notImplemented("ComputeTerminated")
}

func (UnimplementedGoalTask) ComputeTruncated(_, _ *mat.VecDense, _ map[string]any) (bool, error) {
	return false, notImplemented("ComputeTruncated")
}
