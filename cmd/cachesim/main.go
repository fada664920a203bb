// Package main provides cachesim, a demo driver that wires a small
// multi-level cache hierarchy together and drives it with synthetic CPU
// traffic, in the idiom of m2sim's own cmd/m2sim entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/m2sim/timing/cache"
	"github.com/sarchlab/m2sim/timing/cache/cpuagent"
	"github.com/sarchlab/m2sim/timing/cache/statsrecorder"
)

var (
	numCores   int
	numReads   int
	numWrites  int
	maxAddress uint64
	envFile    string
	configPath string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:   "cachesim",
	Short: "cachesim drives a synthetic multi-level cache hierarchy to completion.",
	Long: `cachesim builds one L1 per simulated core, each with its own
downstream link into a single shared L2 last-level cache, drives them with
randomized ReadReq/WriteReq traffic, and reports the resulting statistics.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().IntVar(&numCores, "cores", 2, "number of L1 caches / CPU agents")
	rootCmd.Flags().IntVar(&numReads, "reads", 2000, "reads issued per core")
	rootCmd.Flags().IntVar(&numWrites, "writes", 2000, "writes issued per core")
	rootCmd.Flags().Uint64Var(&maxAddress, "max-address", 1<<20, "address range each core issues into")
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "optional .env file with CACHE_* overrides")
	rootCmd.Flags().StringVar(&configPath, "config", "", "optional JSON file with L1 cache configuration")
	rootCmd.Flags().StringVar(&dbPath, "stats-db", "", "optional SQLite path to persist stats to at teardown")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(_ *cobra.Command, _ []string) error {
	l1Config, err := cache.LoadConfigFromEnv(envFile, configPath)
	if err != nil {
		return fmt.Errorf("cachesim: %w", err)
	}
	l1Config.NumUpstream = 1

	engine := sim.NewSerialEngine()
	network := NewSwitch("Network")

	l2Config := cache.DefaultL2Config()
	l2Config.NumUpstream = numCores
	l2 := cache.MakeBuilder().
		WithEngine(engine).
		WithConfig(l2Config).
		Build("L2")

	agents := make([]*cpuagent.Agent, 0, numCores)
	l1s := make([]*cache.Comp, 0, numCores)

	for i := 0; i < numCores; i++ {
		cfg := l1Config.Clone()
		name := fmt.Sprintf("L1_%d", i)

		l2Upstream := l2.GetPortByName(fmt.Sprintf("Upstream%d", i))
		network.PlugIn(l2Upstream)

		l1 := cache.MakeBuilder().
			WithEngine(engine).
			WithConfig(cfg).
			WithDownstream(l2Upstream.AsRemote()).
			Build(name)

		network.PlugIn(l1.GetPortByName("Downstream"))

		agent := cpuagent.NewAgent(
			name+"_CPU", engine, l1.GetPortByName("Upstream0"),
			maxAddress, l1Config.BlockSize, numReads, numWrites,
		)
		network.PlugIn(agent.GetPortByName("Cache"))
		network.PlugIn(l1.GetPortByName("Upstream0"))

		l1s = append(l1s, l1)
		agents = append(agents, agent)
	}

	if err := engine.Run(); err != nil {
		return fmt.Errorf("cachesim: simulation failed: %w", err)
	}

	report(l1s, l2, agents)

	if dbPath != "" {
		if err := persistStats(l1s, l2); err != nil {
			return fmt.Errorf("cachesim: %w", err)
		}
	}

	return nil
}

func report(l1s []*cache.Comp, l2 *cache.Comp, agents []*cpuagent.Agent) {
	for i, l1 := range l1s {
		s := l1.Stats()
		fmt.Printf("L1_%d: reads=%d(%d miss) writes=%d(%d miss) upgrades=%d\n",
			i, s.ReadHit+s.ReadMiss, s.ReadMiss, s.WriteHit+s.WriteMiss, s.WriteMiss, s.UpgradeMiss)
	}

	s := l2.Stats()
	fmt.Printf("L2: reads=%d(%d miss) writes=%d(%d miss) supplies=%d(%d miss)\n",
		s.ReadHit+s.ReadMiss, s.ReadMiss, s.WriteHit+s.WriteMiss, s.WriteMiss,
		s.SupplyHit+s.SupplyMiss, s.SupplyMiss)

	for i, agent := range agents {
		as := agent.Stats()
		fmt.Printf("CPU_%d: sent %d reads / %d writes, completed %d / %d\n",
			i, as.ReadsSent, as.WritesSent, as.ReadsComplete, as.WritesComplete)
	}
}

func persistStats(l1s []*cache.Comp, l2 *cache.Comp) error {
	rec := statsrecorder.NewRecorder(dbPath)
	defer rec.Close()

	for i, l1 := range l1s {
		s := l1.Stats()
		rec.Record(fmt.Sprintf("L1_%d", i), &s)
	}
	l2s := l2.Stats()
	rec.Record("L2", &l2s)

	return nil
}
