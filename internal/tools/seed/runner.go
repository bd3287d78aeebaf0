package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	platformgrpc "github.com/louisbranch/initiative/internal/platform/grpc"
	"github.com/louisbranch/initiative/internal/platform/timeouts"
	initiativeapi "github.com/louisbranch/initiative/internal/services/initiative/api/grpc/initiative"
	"github.com/louisbranch/initiative/internal/services/initiative/api/grpc/interceptors"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/roster"
	"github.com/louisbranch/initiative/internal/services/initiative/domain/schedule"
)

const actorID = "seed"

// initiativeClient is the subset of the service the seeder needs.
type initiativeClient interface {
	PutCharacter(ctx context.Context, character initiativeapi.Character, opts ...grpc.CallOption) (initiativeapi.Character, error)
	GetEncounter(ctx context.Context, encounterID string, opts ...grpc.CallOption) (initiativeapi.Encounter, error)
	CreateEncounter(ctx context.Context, req initiativeapi.CreateEncounterRequest, opts ...grpc.CallOption) (initiativeapi.Encounter, error)
	ApplyCommand(ctx context.Context, encounterID string, cmd schedule.Command, opts ...grpc.CallOption) (initiativeapi.Encounter, error)
}

var _ initiativeClient = (*initiativeapi.Client)(nil)

type runnerDeps struct {
	client initiativeClient
}

// Config configures a seed run.
type Config struct {
	GRPCAddr     string
	ManifestPath string
	Timeout      time.Duration
	Verbose      bool
}

// Summary counts what a run changed.
type Summary struct {
	Characters        int
	EncountersCreated int
	EncountersSkipped int
	Commands          int
}

// Runner applies manifests against the initiative service.
type Runner struct {
	cfg  Config
	deps runnerDeps
	conn *grpc.ClientConn
	errW io.Writer
}

// NewRunner dials the initiative service.
func NewRunner(ctx context.Context, cfg Config, errW io.Writer) (*Runner, error) {
	addr := strings.TrimSpace(cfg.GRPCAddr)
	if addr == "" {
		return nil, errors.New("grpc address is required")
	}
	conn, err := platformgrpc.Connect(
		ctx,
		addr,
		initiativeapi.ServiceName,
		timeouts.GRPCDial,
		nil,
		platformgrpc.ClientDialOptions(interceptors.ActorClientInterceptor(actorID))...,
	)
	if err != nil {
		return nil, fmt.Errorf("connect initiative: %w", err)
	}
	runner := newRunnerWithClients(cfg, runnerDeps{client: initiativeapi.NewClient(conn)}, errW)
	runner.conn = conn
	return runner, nil
}

func newRunnerWithClients(cfg Config, deps runnerDeps, errW io.Writer) *Runner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if errW == nil {
		errW = io.Discard
	}
	return &Runner{cfg: cfg, deps: deps, errW: errW}
}

// Close releases the connection.
func (r *Runner) Close() error {
	if r == nil || r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

// Run loads the configured manifest and applies it.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	manifest, err := LoadManifest(r.cfg.ManifestPath)
	if err != nil {
		return Summary{}, err
	}
	return r.RunManifest(ctx, manifest)
}

// RunManifest applies manifest. Characters are upserted on every run;
// encounters are created only when missing, and their commands run only on
// creation.
func (r *Runner) RunManifest(ctx context.Context, manifest Manifest) (Summary, error) {
	if err := ValidateManifest(manifest); err != nil {
		return Summary{}, fmt.Errorf("validate manifest: %w", err)
	}
	if r.deps.client == nil {
		return Summary{}, errors.New("initiative client is not configured")
	}

	var summary Summary
	for _, c := range manifest.Characters {
		if err := r.putCharacter(ctx, c); err != nil {
			return summary, err
		}
		summary.Characters++
	}
	for _, e := range manifest.Encounters {
		created, applied, err := r.ensureEncounter(ctx, e)
		if err != nil {
			return summary, err
		}
		if created {
			summary.EncountersCreated++
		} else {
			summary.EncountersSkipped++
		}
		summary.Commands += applied
	}
	r.logf("seed %q: %d characters, %d encounters created, %d skipped, %d commands",
		manifest.Name, summary.Characters, summary.EncountersCreated, summary.EncountersSkipped, summary.Commands)
	return summary, nil
}

func (r *Runner) putCharacter(ctx context.Context, c ManifestCharacter) error {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	character := initiativeapi.Character{
		ID:    strings.TrimSpace(c.ID),
		Name:  strings.TrimSpace(c.Name),
		Level: c.Level,
	}
	if c.Speed != nil {
		character.Speed = &roster.SpeedStat{Base: c.Speed.Base, Bonus: c.Speed.Bonus, Gain: c.Speed.Gain}
	}
	if _, err := r.deps.client.PutCharacter(callCtx, character); err != nil {
		return fmt.Errorf("put character %s: %w", character.ID, err)
	}
	r.logf("character %s upserted", character.ID)
	return nil
}

func (r *Runner) ensureEncounter(ctx context.Context, e ManifestEncounter) (bool, int, error) {
	id := strings.TrimSpace(e.ID)

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	_, err := r.deps.client.GetEncounter(callCtx, id)
	cancel()
	switch {
	case err == nil:
		r.logf("encounter %s exists, skipping", id)
		return false, 0, nil
	case status.Code(err) != codes.NotFound:
		return false, 0, fmt.Errorf("get encounter %s: %w", id, err)
	}

	callCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
	_, err = r.deps.client.CreateEncounter(callCtx, initiativeapi.CreateEncounterRequest{
		EncounterID:  id,
		Name:         strings.TrimSpace(e.Name),
		CharacterIDs: trimAll(e.Characters),
	})
	cancel()
	if err != nil {
		return false, 0, fmt.Errorf("create encounter %s: %w", id, err)
	}
	r.logf("encounter %s created", id)

	for i, mc := range e.Commands {
		cmd := commandFromManifest(mc).Normalize()
		callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		_, err := r.deps.client.ApplyCommand(callCtx, id, cmd)
		cancel()
		if err != nil {
			return true, i, fmt.Errorf("encounter %s: command %d (%s): %w", id, i, cmd.Type, err)
		}
		r.logf("encounter %s: applied %s", id, cmd.Type)
	}
	return true, len(e.Commands), nil
}

func commandFromManifest(c ManifestCommand) schedule.Command {
	return schedule.Command{
		Type:        schedule.CommandType(c.Type),
		CharacterID: c.Character,
		TargetID:    c.Target,
		Team:        c.Team,
		Position:    c.Position,
		Index:       c.Index,
		Locked:      c.Locked,
	}.Normalize()
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

func (r *Runner) logf(format string, args ...any) {
	if !r.cfg.Verbose {
		return
	}
	fmt.Fprintf(r.errW, format+"\n", args...)
}
