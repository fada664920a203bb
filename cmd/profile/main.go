// Package main provides a profiling wrapper around the cache simulation,
// for identifying performance bottlenecks in the controller's dispatch
// and directory paths.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/m2sim/timing/cache"
	"github.com/sarchlab/m2sim/timing/cache/cpuagent"
)

var (
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	numCores   = flag.Int("cores", 4, "number of L1 caches / CPU agents")
	numReads   = flag.Int("reads", 100000, "reads issued per core")
	numWrites  = flag.Int("writes", 100000, "writes issued per core")
	maxAddress = flag.Uint64("max-address", 1<<24, "address range each core issues into")
)

func main() {
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	start := time.Now()

	l1s, l2, engine := buildHierarchy()

	if err := engine.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running simulation: %v\n", err)
		os.Exit(1)
	}

	elapsed := time.Since(start)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	var accesses uint64
	for _, l1 := range l1s {
		s := l1.Stats()
		accesses += s.ReadHit + s.ReadMiss + s.WriteHit + s.WriteMiss
	}
	l2s := l2.Stats()
	accesses += l2s.ReadHit + l2s.ReadMiss + l2s.WriteHit + l2s.WriteMiss

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("L1 caches: %d\n", len(l1s))
	fmt.Printf("Cache accesses: %d\n", accesses)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if accesses > 0 {
		fmt.Printf("Accesses/second: %.0f\n", float64(accesses)/elapsed.Seconds())
	}
}

// buildHierarchy wires numCores L1 caches behind one shared L2, each
// driven by its own cpuagent, mirroring cachesim's own topology.
func buildHierarchy() ([]*cache.Comp, *cache.Comp, sim.Engine) {
	engine := sim.NewSerialEngine()
	network := newSwitch("Network")

	l1Config := cache.DefaultL1Config()
	l1Config.NumUpstream = 1

	l2Config := cache.DefaultL2Config()
	l2Config.NumUpstream = *numCores
	l2 := cache.MakeBuilder().
		WithEngine(engine).
		WithConfig(l2Config).
		Build("L2")

	l1s := make([]*cache.Comp, 0, *numCores)

	for i := 0; i < *numCores; i++ {
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
			*maxAddress, l1Config.BlockSize, *numReads, *numWrites,
		)
		network.PlugIn(agent.GetPortByName("Cache"))
		network.PlugIn(l1.GetPortByName("Upstream0"))

		l1s = append(l1s, l1)
	}

	return l1s, l2, engine
}
