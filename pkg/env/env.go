package env

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/ncbdrck/ros-rl/pkg/config"
	"github.com/ncbdrck/ros-rl/pkg/node"
	"github.com/ncbdrck/ros-rl/pkg/rosmaster"
	"github.com/ncbdrck/ros-rl/pkg/spaces"
)

// Mode tags the observation variant an environment produces.
type Mode int

const (
	// ModePlain environments observe a single vector.
	ModePlain Mode = iota
	// ModeGoal environments observe a three-part goal mapping.
	ModeGoal
)

type phase int

const (
	phaseConstructed phase = iota
	phaseReady
	phaseStepping
	phaseTerminated
	phaseTruncated
)

// Observation is the tagged observation value. For ModePlain only Vector is
// set; for ModeGoal the three goal fields are set.
type Observation struct {
	Mode Mode

	Vector *mat.VecDense

	Observation  *mat.VecDense
	AchievedGoal *mat.VecDense
	DesiredGoal  *mat.VecDense
}

// Robot is the base robot environment collaborator. It is initialized once
// during construction, after node registration.
type Robot interface {
	Init(port int, seed int64, resetPrompt bool, actionCycleTime time.Duration) error
}

// registerNode is the registration collaborator. Test hook.
var registerNode = node.Register

// Env composes a task over the resolved master endpoint and registered node.
// Instances are single-threaded: no step may run concurrently with another
// step of the same instance.
type Env struct {
	mode Mode
	task Task
	goal GoalTask

	obsSpace    spaces.Box
	goalSpace   spaces.Goal
	actionSpace spaces.Box

	endpoint *rosmaster.Endpoint
	node     *node.Node
	robot    Robot
	rng      *rand.Rand
	opts     config.EnvOptions
	log      *zap.Logger

	phase      phase
	lastAction time.Time

	now     func() time.Time
	sleep   func(time.Duration)
	confirm func() error
}

// Option configures environment construction.
type Option func(*builder)

type builder struct {
	state   *rosmaster.State
	manager *rosmaster.Manager
	robot   Robot
}

// WithState supplies an explicit shared client-addressing state instead of
// the process-wide default.
func WithState(s *rosmaster.State) Option {
	return func(b *builder) { b.state = s }
}

// WithManager supplies a pre-built master manager. Its state takes
// precedence over WithState.
func WithManager(m *rosmaster.Manager) Option {
	return func(b *builder) { b.manager = m }
}

// WithRobot attaches the base robot environment collaborator.
func WithRobot(r Robot) Option {
	return func(b *builder) { b.robot = r }
}

// New constructs a plain task environment: resolves the master endpoint,
// derives and registers the node identity, initializes the robot
// collaborator, and seeds the RNG, in that order. A construction failure
// leaves no usable environment.
func New(ctx context.Context, cfg *config.Config, task Task, obs, action spaces.Box, opts ...Option) (*Env, error) {
	if task == nil {
		return nil, errors.New("env: nil task")
	}
	e := &Env{mode: ModePlain, task: task, obsSpace: obs, actionSpace: action}
	if obs.Shape() == 0 {
		return nil, errors.New("env: observation space not declared")
	}
	return e.construct(ctx, cfg, opts)
}

// NewGoal constructs a goal-conditioned task environment. Same construction
// shape as New; the observation space is the fixed three-key goal mapping.
func NewGoal(ctx context.Context, cfg *config.Config, task GoalTask, obs spaces.Goal, action spaces.Box, opts ...Option) (*Env, error) {
	if task == nil {
		return nil, errors.New("env: nil task")
	}
	e := &Env{mode: ModeGoal, goal: task, goalSpace: obs, actionSpace: action}
	if obs.Observation.Shape() == 0 || obs.AchievedGoal.Shape() == 0 || obs.DesiredGoal.Shape() == 0 {
		return nil, errors.New("env: goal observation space not fully declared")
	}
	return e.construct(ctx, cfg, opts)
}

func (e *Env) construct(ctx context.Context, cfg *config.Config, opts []Option) (*Env, error) {
	if cfg == nil {
		return nil, errors.New("env: nil config")
	}
	if e.actionSpace.Shape() == 0 {
		return nil, errors.New("env: action space not declared")
	}

	var b builder
	for _, o := range opts {
		o(&b)
	}
	if b.state == nil {
		b.state = rosmaster.DefaultState()
	}
	mgr := b.manager
	if mgr == nil {
		mgr = rosmaster.New(cfg.Master, b.state)
	}

	// Endpoint resolution always completes before identity resolution,
	// which completes before registration, which completes before any
	// extension point runs.
	ep, err := mgr.Resolve(ctx, cfg.Env)
	if err != nil {
		return nil, err
	}
	port := 0
	if ep != nil {
		port = ep.Port
	}
	name := node.ResolveName(port)

	n, err := registerNode(ctx, mgr.State(), name, node.Options{
		Anonymous:    true,
		ProbeTimeout: cfg.Master.ProbeTimeout,
	})
	if err != nil {
		return nil, err
	}

	seed := cfg.Env.Seed
	if seed < 0 {
		seed = time.Now().UnixNano()
	}

	if b.robot != nil {
		if err := b.robot.Init(port, seed, cfg.Env.ResetEnvPrompt, cfg.Env.ActionCycleTime); err != nil {
			return nil, fmt.Errorf("env: robot init: %w", err)
		}
	}

	e.endpoint = ep
	e.node = n
	e.robot = b.robot
	e.rng = rand.New(rand.NewSource(seed))
	e.opts = cfg.Env
	e.log = zap.L().With(zap.String("node", n.Name()))
	e.phase = phaseConstructed
	e.now = time.Now
	e.sleep = time.Sleep
	e.confirm = stdinConfirm

	e.log.Info("environment constructed",
		zap.Int("resolved_port", port),
		zap.String("mode", e.modeString()))
	return e, nil
}

func (e *Env) modeString() string {
	if e.mode == ModeGoal {
		return "goal"
	}
	return "plain"
}

// stdinConfirm waits for the operator to confirm an environment reset.
func stdinConfirm() error {
	fmt.Print("reset the environment and press enter to continue: ")
	r := bufio.NewReader(os.Stdin)
	line, err := r.ReadString('\n')
	if err != nil {
		return err
	}
	if s := strings.TrimSpace(line); s == "n" || s == "no" {
		return errors.New("reset declined")
	}
	return nil
}

// Mode returns the environment's observation mode.
func (e *Env) Mode() Mode { return e.mode }

// Node returns the registered node.
func (e *Env) Node() *node.Node { return e.node }

// NodeName returns the unique registered node name.
func (e *Env) NodeName() string { return e.node.Name() }

// Endpoint returns the resolved master endpoint, or false when construction
// reused an already-running default master without resolving a port.
func (e *Env) Endpoint() (rosmaster.Endpoint, bool) {
	if e.endpoint == nil {
		return rosmaster.Endpoint{}, false
	}
	return *e.endpoint, true
}

// Rand returns the environment's seeded random source.
func (e *Env) Rand() *rand.Rand { return e.rng }

// ActionSpace returns the declared action space.
func (e *Env) ActionSpace() spaces.Box { return e.actionSpace }

// ObservationSpace returns the declared plain observation space. Valid for
// ModePlain.
func (e *Env) ObservationSpace() spaces.Box { return e.obsSpace }

// GoalSpace returns the declared goal observation space. Valid for ModeGoal.
func (e *Env) GoalSpace() spaces.Goal { return e.goalSpace }

// Reset starts a new episode: optional operator confirmation, optional
// reseed, task initial parameters, then a fresh observation.
func (e *Env) Reset(seed *int64, options map[string]any) (Observation, map[string]any, error) {
	if e.opts.ResetEnvPrompt {
		if err := e.confirm(); err != nil {
			return Observation{}, nil, err
		}
	}
	if seed != nil {
		e.rng = rand.New(rand.NewSource(*seed))
	}

	if err := e.setInitialParams(options); err != nil {
		return Observation{}, nil, err
	}
	obs, err := e.observe()
	if err != nil {
		return Observation{}, nil, err
	}

	e.phase = phaseReady
	e.lastAction = time.Time{}
	return obs, map[string]any{}, nil
}

func (e *Env) setInitialParams(options map[string]any) error {
	if e.mode == ModeGoal {
		return e.goal.SetInitialParams(options)
	}
	return e.task.SetInitialParams(options)
}

// Step applies an action and advances the episode by one transition.
func (e *Env) Step(action *mat.VecDense) (Observation, float64, bool, bool, map[string]any, error) {
	switch e.phase {
	case phaseConstructed:
		return Observation{}, 0, false, false, nil, ErrNotReset
	case phaseTerminated, phaseTruncated:
		return Observation{}, 0, false, false, nil, ErrEpisodeOver
	}
	if action == nil || action.Len() != e.actionSpace.Shape() {
		got := 0
		if action != nil {
			got = action.Len()
		}
		return Observation{}, 0, false, false, nil, &ContractError{What: "action", Got: got, Want: e.actionSpace.Shape()}
	}

	e.pace()
	e.phase = phaseStepping

	var applyErr error
	if e.mode == ModeGoal {
		applyErr = e.goal.SetAction(action)
	} else {
		applyErr = e.task.SetAction(action)
	}
	if applyErr != nil {
		return Observation{}, 0, false, false, nil, applyErr
	}
	e.lastAction = e.now()

	obs, err := e.observe()
	if err != nil {
		return Observation{}, 0, false, false, nil, err
	}

	info := map[string]any{}
	reward, terminated, truncated, err := e.evaluate(obs, info)
	if err != nil {
		return Observation{}, 0, false, false, nil, err
	}

	if terminated && truncated {
		// Mutually exclusive by contract; terminated takes precedence.
		e.log.Warn("task reported terminated and truncated in the same step, keeping terminated")
		truncated = false
	}

	switch {
	case terminated:
		e.phase = phaseTerminated
	case truncated:
		e.phase = phaseTruncated
	default:
		e.phase = phaseReady
	}
	return obs, reward, terminated, truncated, info, nil
}

// pace enforces the minimum wall-clock delay between successive actions.
func (e *Env) pace() {
	if e.opts.ActionCycleTime <= 0 || e.lastAction.IsZero() {
		return
	}
	if elapsed := e.now().Sub(e.lastAction); elapsed < e.opts.ActionCycleTime {
		e.sleep(e.opts.ActionCycleTime - elapsed)
	}
}

func (e *Env) observe() (Observation, error) {
	if e.mode == ModeGoal {
		return e.observeGoal()
	}
	v, err := e.task.GetObservation()
	if err != nil {
		return Observation{}, err
	}
	if err := checkShape("observation", v, e.obsSpace); err != nil {
		return Observation{}, err
	}
	return Observation{Mode: ModePlain, Vector: v}, nil
}

func (e *Env) observeGoal() (Observation, error) {
	v, err := e.goal.GetObservation()
	if err != nil {
		return Observation{}, err
	}
	achieved, err := e.goal.GetAchievedGoal()
	if err != nil {
		return Observation{}, err
	}
	desired, err := e.goal.GetDesiredGoal()
	if err != nil {
		return Observation{}, err
	}
	if err := checkShape(spaces.KeyObservation, v, e.goalSpace.Observation); err != nil {
		return Observation{}, err
	}
	if err := checkShape(spaces.KeyAchievedGoal, achieved, e.goalSpace.AchievedGoal); err != nil {
		return Observation{}, err
	}
	if err := checkShape(spaces.KeyDesiredGoal, desired, e.goalSpace.DesiredGoal); err != nil {
		return Observation{}, err
	}
	return Observation{
		Mode:         ModeGoal,
		Observation:  v,
		AchievedGoal: achieved,
		DesiredGoal:  desired,
	}, nil
}

func (e *Env) evaluate(obs Observation, info map[string]any) (reward float64, terminated, truncated bool, err error) {
	if e.mode == ModeGoal {
		if reward, err = e.goal.ComputeReward(obs.AchievedGoal, obs.DesiredGoal, info); err != nil {
			return
		}
		if terminated, err = e.goal.ComputeTerminated(obs.AchievedGoal, obs.DesiredGoal, info); err != nil {
			return
		}
		truncated, err = e.goal.ComputeTruncated(obs.AchievedGoal, obs.DesiredGoal, info)
		return
	}
	if reward, err = e.task.GetReward(info); err != nil {
		return
	}
	if terminated, err = e.task.ComputeTerminated(info); err != nil {
		return
	}
	truncated, err = e.task.ComputeTruncated(info)
	return
}

func checkShape(what string, v *mat.VecDense, space spaces.Box) error {
	got := 0
	if v != nil {
		got = v.Len()
	}
	if got != space.Shape() {
		return &ContractError{What: what, Got: got, Want: space.Shape()}
	}
	return nil
}
