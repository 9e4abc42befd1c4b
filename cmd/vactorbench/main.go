// Command vactorbench is a small demo and smoke-test driver for the
// runtime: it spins up a local echo actor and a handful of virtual counter
// actors and prints what they report back. It is not part of the library's
// public surface.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/catalyst-oss/vactor"
	"github.com/catalyst-oss/vactor/persistence"
	"github.com/catalyst-oss/vactor/persistence/memory"
)

var (
	counterIDs   int
	incPerID     int
	statefulIncs int
)

var rootCmd = &cobra.Command{
	Use:   "vactorbench",
	Short: "Exercise the virtual actor runtime with an echo actor and a counter pool",
	RunE:  runBench,
}

func init() {
	rootCmd.PersistentFlags().IntVar(
		&counterIDs, "counters", 4, "number of distinct counter actor ids to spawn",
	)
	rootCmd.PersistentFlags().IntVar(
		&incPerID, "inc", 10, "number of Inc messages sent to each counter id",
	)
	rootCmd.PersistentFlags().IntVar(
		&statefulIncs, "stateful-inc", 3,
		"number of increments sent to the persisted stateful counter demo, across a simulated idle reactivation",
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runBench(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	rt := vactor.New()

	exec := rt.CreateExecutor(vactor.ExecutorPreferences{
		Name:            "bench",
		MailboxCapacity: 256,
	})

	echoAddr, err := vactor.SpawnLocal[EchoMessage, string](
		exec, vactor.DefaultMailboxPreferences(), newEchoActor,
	)
	if err != nil {
		return fmt.Errorf("spawning echo actor: %w", err)
	}
	defer echoAddr.Close()

	if err := echoAddr.WaitForReady(ctx, 2*time.Second); err != nil {
		return fmt.Errorf("waiting for echo actor: %w", err)
	}

	reply, err := echoAddr.Send(ctx, EchoMessage{Input: "hello from vactorbench"})
	if err != nil {
		return fmt.Errorf("sending to echo actor: %w", err)
	}
	fmt.Printf("echo: %s\n", reply)

	vactor.RegisterActor[uint32, CounterMessage, int](
		rt, counterKind, exec, vactor.DefaultMailboxPreferences(), newCounterActor,
	)

	for id := 0; id < counterIDs; id++ {
		addr, err := vactor.SpawnVirtual[uint32, CounterMessage, int](
			rt, counterKind, uint32(id),
		)
		if err != nil {
			return fmt.Errorf("resolving counter %d: %w", id, err)
		}

		var last int
		for i := 0; i < incPerID; i++ {
			last, err = addr.Send(ctx, IncMessage{})
			if err != nil {
				return fmt.Errorf("incrementing counter %d: %w", id, err)
			}
		}

		fmt.Printf("counter[%d]: %d\n", id, last)
	}

	if err := rt.GracefulShutdown(ctx, 5*time.Second); err != nil {
		return err
	}

	return runStatefulDemo(ctx)
}

// runStatefulDemo spawns a single persisted counter, sends it a handful of
// increments, forces an idle reactivation via a short ActorIdleTimeout, and
// shows its count survives: the reloaded instance continues counting from
// what the prior activation's AfterMessageHook last saved, instead of
// resetting to zero.
func runStatefulDemo(ctx context.Context) error {
	const kind vactor.ActorKind = "stateful-counter-demo"

	prefs := vactor.DefaultRuntimePreferences()
	prefs.ActorIdleTimeout = 50 * time.Millisecond
	prefs.GarbageCollectInterval = 25 * time.Millisecond

	rt := vactor.WithPreferences(prefs)
	exec := rt.CreateExecutor(vactor.DefaultExecutorPreferences())

	store := memory.New[uint32, int]()
	vactor.RegisterActor[uint32, persistence.StatefulCounterMessage, int](
		rt, kind, exec, vactor.DefaultMailboxPreferences(),
		persistence.NewStatefulCounterFactory[uint32](store, kind),
	)

	addr, err := vactor.SpawnVirtual[uint32, persistence.StatefulCounterMessage, int](
		rt, kind, 1,
	)
	if err != nil {
		return fmt.Errorf("resolving stateful counter: %w", err)
	}

	var last int
	for i := 0; i < statefulIncs; i++ {
		if i == 1 {
			// Give the housekeeper time to reap the idle instance before
			// the next send, so that send triggers a fresh activation.
			time.Sleep(200 * time.Millisecond)
		}
		last, err = addr.Send(ctx, persistence.StatefulCounterMessage{})
		if err != nil {
			return fmt.Errorf("incrementing stateful counter: %w", err)
		}
	}
	fmt.Printf("stateful counter (across idle reactivation): %d\n", last)

	return rt.GracefulShutdown(ctx, 5*time.Second)
}
