package env

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/ncbdrck/ros-rl/pkg/config"
	"github.com/ncbdrck/ros-rl/pkg/spaces"
)

// reachTask is a goal task whose reward is the negative distance between
// achieved and desired goals; success terminates.
type reachTask struct {
	obs      []float64
	achieved []float64
	desired  []float64
}

func vec(v []float64) *mat.VecDense {
	return mat.NewVecDense(len(v), append([]float64(nil), v...))
}

func (r *reachTask) SetInitialParams(map[string]any) error  { return nil }
func (r *reachTask) SetAction(*mat.VecDense) error          { return nil }
func (r *reachTask) GetObservation() (*mat.VecDense, error) { return vec(r.obs), nil }
func (r *reachTask) GetAchievedGoal() (*mat.VecDense, error) {
	return vec(r.achieved), nil
}
func (r *reachTask) GetDesiredGoal() (*mat.VecDense, error) {
	return vec(r.desired), nil
}

func dist(a, d *mat.VecDense) float64 {
	diff := mat.NewVecDense(a.Len(), nil)
	diff.SubVec(a, d)
	return mat.Norm(diff, 2)
}

func (r *reachTask) ComputeReward(a, d *mat.VecDense, _ map[string]any) (float64, error) {
	return -dist(a, d), nil
}

func (r *reachTask) ComputeTerminated(a, d *mat.VecDense, _ map[string]any) (bool, error) {
	return dist(a, d) < 0.05, nil
}

func (r *reachTask) ComputeTruncated(_, _ *mat.VecDense, _ map[string]any) (bool, error) {
	return false, nil
}

func goalSpace(t *testing.T, obsDim, goalDim int) spaces.Goal {
	t.Helper()
	o, err := spaces.NewUnitBox(obsDim)
	if err != nil {
		t.Fatalf("obs: %v", err)
	}
	ag, err := spaces.NewUnitBox(goalDim)
	if err != nil {
		t.Fatalf("achieved: %v", err)
	}
	dg, err := spaces.NewUnitBox(goalDim)
	if err != nil {
		t.Fatalf("desired: %v", err)
	}
	return spaces.NewGoal(o, ag, dg)
}

func constructGoal(t *testing.T, task GoalTask, obsDim, goalDim int) *Env {
	t.Helper()
	fakeRegistrar(t)
	cfg := testConfig(config.EnvOptions{RoscorePort: 11312, Seed: 42})
	mgr, _ := testManager(cfg, true)
	act, err := spaces.NewUnitBox(1)
	if err != nil {
		t.Fatalf("action: %v", err)
	}
	e, err := NewGoal(context.Background(), cfg, task, goalSpace(t, obsDim, goalDim), act, WithManager(mgr))
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	return e
}

func TestGoalObservationHasThreeParts(t *testing.T) {
	task := &reachTask{
		obs:      []float64{0.1, 0.2, 0.3, 0.4, 0.5},
		achieved: []float64{0.1, 0.1, 0.1},
		desired:  []float64{0.9, 0.9, 0.9},
	}
	e := constructGoal(t, task, 5, 3)

	if got := e.GoalSpace().Keys(); len(got) != 3 {
		t.Fatalf("space keys = %v", got)
	}

	obs, _, err := e.Reset(nil, nil)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if obs.Mode != ModeGoal {
		t.Fatalf("mode = %v", obs.Mode)
	}
	if obs.Observation.Len() != 5 || obs.AchievedGoal.Len() != 3 || obs.DesiredGoal.Len() != 3 {
		t.Fatalf("observation parts have wrong shapes: %d/%d/%d",
			obs.Observation.Len(), obs.AchievedGoal.Len(), obs.DesiredGoal.Len())
	}
}

func TestGoalRewardFromGoalsOnly(t *testing.T) {
	task := &reachTask{
		obs:      []float64{0, 0, 0, 0, 0},
		achieved: []float64{0.5, 0.5, 0.5},
		desired:  []float64{0.5, 0.5, 0.8},
	}
	e := constructGoal(t, task, 5, 3)
	if _, _, err := e.Reset(nil, nil); err != nil {
		t.Fatalf("reset: %v", err)
	}

	_, reward, terminated, truncated, _, err := e.Step(mat.NewVecDense(1, []float64{0}))
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if want := -0.3; reward < want-1e-9 || reward > want+1e-9 {
		t.Fatalf("reward = %v, want %v", reward, want)
	}
	if terminated || truncated {
		t.Fatalf("terminated=%v truncated=%v", terminated, truncated)
	}
}

func TestGoalRelabelingPurity(t *testing.T) {
	// Rewards recomputed for the same (achieved, desired, info) must be
	// identical no matter how many steps have elapsed in between.
	task := &reachTask{
		obs:      []float64{0, 0, 0, 0, 0},
		achieved: []float64{0.2, 0.2, 0.2},
		desired:  []float64{0.7, 0.7, 0.7},
	}
	e := constructGoal(t, task, 5, 3)
	if _, _, err := e.Reset(nil, nil); err != nil {
		t.Fatalf("reset: %v", err)
	}

	achieved := vec([]float64{0.2, 0.2, 0.2})
	relabel := vec([]float64{0.21, 0.2, 0.2})
	info := map[string]any{}

	r1, err := task.ComputeReward(achieved, relabel, info)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, _, _, _, _, err := e.Step(mat.NewVecDense(1, []float64{0})); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	r2, err := task.ComputeReward(achieved, relabel, info)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if r1 != r2 {
		t.Fatalf("relabeled reward changed across steps: %v vs %v", r1, r2)
	}

	term1, _ := task.ComputeTerminated(achieved, relabel, info)
	term2, _ := task.ComputeTerminated(achieved, relabel, info)
	if term1 != term2 {
		t.Fatalf("relabeled termination not stable")
	}
}

func TestGoalTerminatesOnReach(t *testing.T) {
	task := &reachTask{
		obs:      []float64{0, 0, 0, 0, 0},
		achieved: []float64{0.5, 0.5, 0.5},
		desired:  []float64{0.5, 0.5, 0.5},
	}
	e := constructGoal(t, task, 5, 3)
	if _, _, err := e.Reset(nil, nil); err != nil {
		t.Fatalf("reset: %v", err)
	}
	_, _, terminated, _, _, err := e.Step(mat.NewVecDense(1, []float64{0}))
	if err != nil || !terminated {
		t.Fatalf("terminated=%v err=%v, want goal reached", terminated, err)
	}
}

func TestGoalUnimplementedHook(t *testing.T) {
	e := constructGoal(t, &partialGoalTask{}, 5, 3)
	if _, _, err := e.Reset(nil, nil); err != nil {
		t.Fatalf("reset: %v", err)
	}
	_, _, _, _, _, err := e.Step(mat.NewVecDense(1, []float64{0}))
	if !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("err = %v, want ErrNotImplemented", err)
	}
	if !strings.Contains(err.Error(), "ComputeReward") {
		t.Fatalf("err %q does not name ComputeReward", err)
	}
}

// partialGoalTask overrides everything except ComputeReward.
type partialGoalTask struct {
	UnimplementedGoalTask
}

func (p *partialGoalTask) SetInitialParams(map[string]any) error { return nil }
func (p *partialGoalTask) SetAction(*mat.VecDense) error         { return nil }
func (p *partialGoalTask) GetObservation() (*mat.VecDense, error) {
	return mat.NewVecDense(5, nil), nil
}
func (p *partialGoalTask) GetAchievedGoal() (*mat.VecDense, error) {
	return mat.NewVecDense(3, nil), nil
}
func (p *partialGoalTask) GetDesiredGoal() (*mat.VecDense, error) {
	return mat.NewVecDense(3, nil), nil
}
func (p *partialGoalTask) ComputeTerminated(_, _ *mat.VecDense, _ map[string]any) (bool, error) {
	return false, nil
}
func (p *partialGoalTask) ComputeTruncated(_, _ *mat.VecDense, _ map[string]any) (bool, error) {
	return false, nil
}

func TestGoalShapeMismatch(t *testing.T) {
	task := &reachTask{
		obs:      []float64{0, 0, 0, 0, 0},
		achieved: []float64{0.5, 0.5}, // declared goal space is 3-d
		desired:  []float64{0.5, 0.5, 0.5},
	}
	e := constructGoal(t, task, 5, 3)
	_, _, err := e.Reset(nil, nil)
	var ce *ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ContractError", err)
	}
	if ce.What != spaces.KeyAchievedGoal {
		t.Fatalf("ContractError names %q, want achieved_goal", ce.What)
	}
}
