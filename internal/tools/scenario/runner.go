package scenario

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"google.golang.org/grpc"

	"github.com/louisbranch/initiative/internal/platform/discovery"
	platformgrpc "github.com/louisbranch/initiative/internal/platform/grpc"
	"github.com/louisbranch/initiative/internal/platform/timeouts"
	initiativeapi "github.com/louisbranch/initiative/internal/services/initiative/api/grpc/initiative"
	"github.com/louisbranch/initiative/internal/services/initiative/api/grpc/interceptors"
)

const defaultStepTimeout = 10 * time.Second

// actorID stamps every scenario call on the initiative service.
const actorID = "scenario"

// Config controls scenario execution.
type Config struct {
	GRPCAddr   string
	Timeout    time.Duration
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:   discovery.DefaultGRPCAddr(discovery.ServiceInitiative),
		Timeout:    defaultStepTimeout,
		Assertions: AssertionStrict,
	}
}

// Runner executes Lua scenarios against the initiative gRPC API.
type Runner struct {
	conn       *grpc.ClientConn
	client     initiativeClient
	assertions Assertions
	logger     *log.Logger
	verbose    bool
	timeout    time.Duration
}

// NewRunner connects to the initiative service and prepares a runner.
func NewRunner(ctx context.Context, cfg Config) (*Runner, error) {
	if cfg.GRPCAddr == "" {
		return nil, errors.New("grpc address is required")
	}
	conn, err := platformgrpc.Connect(
		ctx,
		cfg.GRPCAddr,
		initiativeapi.ServiceName,
		timeouts.GRPCDial,
		nil,
		platformgrpc.ClientDialOptions(interceptors.ActorClientInterceptor(actorID))...,
	)
	if err != nil {
		return nil, fmt.Errorf("dial gRPC: %w", err)
	}

	r := newRunnerWithDeps(cfg, runnerDeps{client: initiativeapi.NewClient(conn)})
	r.conn = conn
	return r, nil
}

// newRunnerWithDeps builds a Runner from pre-built dependencies and applies
// the logger and timeout defaults.
func newRunnerWithDeps(cfg Config, deps runnerDeps) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultStepTimeout
	}
	return &Runner{
		client:     deps.client,
		assertions: Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
		timeout:    timeout,
	}
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// RunFile loads and executes a scenario file.
func RunFile(ctx context.Context, cfg Config, path string) error {
	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		return err
	}
	runner, err := NewRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()
	return runner.RunScenario(ctx, scenario)
}

// RunScenario executes the scenario steps in order.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) error {
	if scenario == nil {
		return errors.New("scenario is required")
	}
	r.logf("scenario start: %s (%d steps)", scenario.Name, len(scenario.Steps))
	state := &scenarioState{}

	for index, step := range scenario.Steps {
		stepNumber := index + 1
		r.logf("step %d/%d start: %s", stepNumber, len(scenario.Steps), step.Kind)
		stepStart := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := r.runStep(stepCtx, state, step)
		cancel()
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}
		r.logf("step %d/%d done: %s (%s)", stepNumber, len(scenario.Steps), step.Kind, time.Since(stepStart))
	}
	r.logf("scenario done: %s", scenario.Name)
	return nil
}

func (r *Runner) logf(format string, args ...any) {
	if !r.verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}
