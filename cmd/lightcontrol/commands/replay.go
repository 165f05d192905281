package commands

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/spatialhue/lightcontrol/internal/collision"
	"github.com/spatialhue/lightcontrol/internal/config"
	"github.com/spatialhue/lightcontrol/internal/gesture"
	"github.com/spatialhue/lightcontrol/internal/interaction"
	"github.com/spatialhue/lightcontrol/internal/monitor"
	"github.com/spatialhue/lightcontrol/internal/parser"
	"github.com/spatialhue/lightcontrol/internal/replay"
	"github.com/spatialhue/lightcontrol/internal/ring"
	"github.com/spatialhue/lightcontrol/internal/scene"
	"github.com/spatialhue/lightcontrol/internal/slingshot"
	"github.com/spatialhue/lightcontrol/internal/tracking"
	"github.com/spatialhue/lightcontrol/internal/worker"
	"github.com/spatialhue/lightcontrol/pkg/core"
)

const (
	fingerMarkerRadius = 0.005
	previewPointRadius = 0.003
	anchorEventBuffer  = 256
)

var (
	replayDryRun      bool
	replayStep        time.Duration
	replayTail        time.Duration
	replaySeed        uint64
	replayAnchorLimit int
)

var replayCmd = &cobra.Command{
	Use:   "replay <session.jsonl>",
	Short: "Drive the control core from a recorded session",
	Long: `Drive the control core from a recorded session.

Every line of the session is a JSON object with a "t" offset in seconds and a
"type": hand, device, or one of the inputs mode, place, move, remove, select,
target, toggle, editing, drag and release. Simulated time follows the offsets,
so the replay runs as fast as the entries can be applied.

Records placed during the replay are persisted to the configured storage.
With --dry-run, light and group commands are logged instead of sent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("error opening session: %w", err)
		}
		defer f.Close()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		backend, err := a.openBackend()
		if err != nil {
			return err
		}

		var lights worker.LightController = dryRunLights{log: a.log}
		if !replayDryRun {
			lights = a.hueClient()
		}
		commands, queue, err := a.commander(lights)
		if err != nil {
			return err
		}

		sc := scene.New()
		world := tracking.NewWorld(replayAnchorLimit, anchorEventBuffer)
		defer world.Close()

		store, err := a.store(sc, backend, world, world, commands)
		if err != nil {
			return err
		}
		hits, err := collision.New(sc, store, commands, a.log)
		if err != nil {
			return err
		}

		var rng *rand.Rand
		if replaySeed != 0 {
			rng = rand.New(rand.NewPCG(replaySeed, replaySeed))
		}
		m := interaction.NewManager(interactionConfig(), interaction.Dependencies{
			Scene:      sc,
			Session:    a.sess,
			Device:     world,
			Physics:    slingshot.NewBallistics(sc),
			Collisions: hits,
			Rand:       rng,
			Logger:     a.log,
		})
		defer m.Close()

		mc := config.GetMonitorConfig()
		mon := monitor.NewService(monitor.Dependencies{
			Anchors:    store,
			Session:    a.sess,
			Commands:   queue,
			Logger:     a.log,
			StatusFile: mc.StatusFile,
			Interval:   mc.Interval,
		})
		if err := mon.Start(); err != nil {
			return err
		}
		defer mon.Stop()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		runner := replay.New(replay.Config{Step: replayStep, Tail: replayTail}, replay.Dependencies{
			Interaction: m,
			Anchors:     store,
			World:       world,
			Logger:      a.log,
		})
		a.log.Info("Replaying session", "file", args[0], "dryRun", replayDryRun)
		res, err := runner.Run(ctx, parser.NewParser(a.log, a.start), f)
		if err != nil {
			return err
		}

		if _, err := mon.Snapshot(); err != nil {
			a.log.Warn("Failed to write status", "error", err)
		}
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metrics.Flush(flushCtx); err != nil {
			a.log.Warn("Metric flush failed", "error", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "entries:  %d (%d hand samples, %d inputs, %d failed)\n", res.Entries, res.Samples, res.Actions, res.Failed)
		fmt.Fprintf(out, "hits:     %d\n", res.Hits)
		fmt.Fprintf(out, "duration: %s\n", res.Duration)
		fmt.Fprintf(out, "records:  %d live, %d without anchor\n", store.MarkerCount(), store.OrphanCount())
		return nil
	},
}

func init() {
	f := replayCmd.Flags()
	f.BoolVar(&replayDryRun, "dry-run", false, "log light commands instead of sending them to the bridge")
	f.DurationVar(&replayStep, "step", 20*time.Millisecond, "longest simulation tick")
	f.DurationVar(&replayTail, "tail", 2*time.Second, "simulated time to keep running after the last entry")
	f.Uint64Var(&replaySeed, "seed", 0, "seed for projectile colors (0 picks one at random)")
	f.IntVar(&replayAnchorLimit, "anchor-limit", 0, "maximum live anchors (0 for no limit)")

	rootCmd.AddCommand(replayCmd)
}

// interactionConfig maps the gesture, ring and slingshot settings onto the
// interaction sessions.
func interactionConfig() interaction.Config {
	gc := config.GetGestureConfig()
	rc := config.GetRingConfig()
	sc := config.GetSlingshotConfig()

	return interaction.Config{
		Palm: gesture.PalmConfig{
			Hand:                core.ParseChirality(gc.RingHand),
			RequiredStableCount: gc.RequiredStableCount,
			UpThreshold:         gc.PalmUpThreshold,
			CloseDuration:       rc.CloseDuration,
		},
		Peace: gesture.PeaceConfig{
			Hand:           core.ParseChirality(gc.SlingshotHand),
			Separation:     gc.PeaceSeparation,
			ExtensionRatio: gc.ExtensionRatio,
		},
		Ring: interaction.RingConfig{
			Layout: ring.Config{
				Radius:          rc.Radius,
				TokenRadius:     rc.TokenRadius,
				RemoveDistance:  rc.RemoveDistance,
				SnapDistance:    rc.SnapDistance,
				ArrangeDuration: rc.ArrangeDuration,
			},
			OffsetY:       rc.OffsetY,
			OpenDuration:  rc.OpenDuration,
			CloseDuration: rc.CloseDuration,
		},
		Slingshot: interaction.SlingshotConfig{
			MaxPullDistance: sc.MaxPullDistance,
			ForceMultiplier: sc.ForceMultiplier,
			TokenRadius:     rc.TokenRadius,
			MarkerRadius:    fingerMarkerRadius,
			Preview: slingshot.PreviewConfig{
				Length:      sc.PreviewLength,
				ArcHeight:   sc.ArcHeight,
				Samples:     sc.TrajectorySamples,
				PointRadius: previewPointRadius,
			},
			ResetDelay: sc.ResetDelay,
		},
	}
}
