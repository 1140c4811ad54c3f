package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Hakuto4838/HashPipe.git/config"
	"github.com/Hakuto4838/HashPipe.git/datastream"
	"github.com/Hakuto4838/HashPipe.git/logger"
	"github.com/Hakuto4838/HashPipe.git/skiplist"
	"github.com/Hakuto4838/HashPipe.git/skiplist/analyTool"
	"github.com/Hakuto4838/HashPipe.git/skiplist/basic"
	"github.com/Hakuto4838/HashPipe.git/skiplist/bloompipe"
	"github.com/Hakuto4838/HashPipe.git/skiplist/hashpipe"
)

func main() {
	// Input: either provide -file, -dir, or generation params (optionally saved with -out)
	var configPath string
	var file string
	var dir string
	var out string
	var impls string

	cfg := config.Default()
	flag.StringVar(&configPath, "config", "", "YAML config file; explicit flags override it")
	flag.StringVar(&file, "file", "", "existing op file (HPBENCH1 format)")
	flag.StringVar(&dir, "dir", "", "directory containing op files to test (will test all .bin files)")
	flag.StringVar(&out, "out", "", "write the generated op file to this path")
	flag.IntVar(&cfg.Keys, "n", cfg.Keys, "number of distinct keys")
	flag.IntVar(&cfg.Ops, "k", cfg.Ops, "number of operations to generate")
	flag.Float64Var(&cfg.ZipfA, "a", cfg.ZipfA, "Zipf parameter a (0 = uniform)")
	flag.Float64Var(&cfg.ZipfB, "b", cfg.ZipfB, "Zipf parameter b")
	flag.Float64Var(&cfg.GetRatio, "get", cfg.GetRatio, "ratio of Get among repeated keys")
	flag.Float64Var(&cfg.MissRatio, "miss", cfg.MissRatio, "ratio of Get on absent keys")
	flag.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "seed for generators and the basic skip list")
	flag.StringVar(&cfg.Hash, "hash", cfg.Hash, "hasher for hashpipe/bloompipe: xxhash, fnv, java")
	flag.StringVar(&impls, "impl", "", "implementations to run: comma list of hashpipe,bloompipe,basic")
	flag.IntVar(&cfg.Runs, "runs", cfg.Runs, "how many times to repeat each benchmark")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "runs executed concurrently, each on its own table")
	flag.Float64Var(&cfg.BloomFP, "bloom.fp", cfg.BloomFP, "bloom filter false positive rate")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	flag.Parse()

	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		// 命令列明確指定的參數優先
		cfg = overrideFromFlags(loaded)
	}
	if impls != "" {
		cfg.Impls = strings.Split(impls, ",")
	}

	log, err := logger.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	workloads, names := loadWorkloads(log, cfg, file, dir, out)
	log.Info().Strs("impls", cfg.Impls).Int("files", len(workloads)).Msg("benchmark start")

	rows := make([][]string, 0, len(cfg.Impls))
	for _, impl := range cfg.Impls {
		var all []benchStats
		for i, w := range workloads {
			log.Info().Str("impl", impl).Str("workload", names[i]).Int("ops", len(w.Ops)).Msg("benchmarking")
			stats, err := benchmarkImpl(context.Background(), w, impl, cfg)
			if err != nil {
				log.Fatal().Err(err).Str("impl", impl).Msg("benchmark failed")
			}
			all = append(all, stats)
		}
		rows = append(rows, summarize(impl, cfg.Runs, all))
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Impl", "Runs", "Avg(ms)", "Min(ms)", "Max(ms)", "Ops/s", "AvgSteps", "Hits"})
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}

// overrideFromFlags 把命令列上明確設定的值蓋到 loaded 上
func overrideFromFlags(loaded *config.Config) *config.Config {
	flag.Visit(func(f *flag.Flag) {
		v := f.Value.(flag.Getter).Get()
		switch f.Name {
		case "n":
			loaded.Keys = v.(int)
		case "k":
			loaded.Ops = v.(int)
		case "a":
			loaded.ZipfA = v.(float64)
		case "b":
			loaded.ZipfB = v.(float64)
		case "get":
			loaded.GetRatio = v.(float64)
		case "miss":
			loaded.MissRatio = v.(float64)
		case "seed":
			loaded.Seed = v.(uint64)
		case "hash":
			loaded.Hash = v.(string)
		case "runs":
			loaded.Runs = v.(int)
		case "workers":
			loaded.Workers = v.(int)
		case "bloom.fp":
			loaded.BloomFP = v.(float64)
		case "log-level":
			loaded.LogLevel = v.(string)
		}
	})
	return loaded
}

func loadWorkloads(log zerolog.Logger, cfg *config.Config, file, dir, out string) ([]*datastream.Workload, []string) {
	var paths []string
	switch {
	case dir != "":
		files, err := filepath.Glob(filepath.Join(dir, "*.bin"))
		if err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("scan directory")
		}
		if len(files) == 0 {
			log.Fatal().Str("dir", dir).Msg("no .bin files found")
		}
		slices.Sort(files)
		paths = files
	case file != "":
		paths = []string{file}
	default:
		ks := datastream.NewKeySpace(cfg.Keys, "key:")
		var sampler datastream.Sampler
		if cfg.ZipfA > 0 {
			sampler = datastream.NewZipfSampler(cfg.Keys, cfg.ZipfA, cfg.ZipfB, cfg.Seed)
		} else {
			sampler = datastream.NewUniformSampler(cfg.Keys, cfg.Seed)
		}
		w, err := datastream.GenerateWorkload(ks, sampler, cfg.Ops, cfg.GetRatio, cfg.MissRatio, cfg.Seed)
		if err != nil {
			log.Fatal().Err(err).Msg("generate workload")
		}
		log.Info().Float64("entropy", datastream.Entropy(w.Dist)).Int("ops", len(w.Ops)).Msg("generated workload")
		if out != "" {
			if err := datastream.WriteOpFile(out, w); err != nil {
				log.Fatal().Err(err).Msg("write op file")
			}
			log.Info().Str("path", out).Msg("op file written")
		}
		return []*datastream.Workload{w}, []string{"generated"}
	}

	workloads := make([]*datastream.Workload, 0, len(paths))
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		w, err := datastream.ReadOpFile(p)
		if err != nil {
			log.Error().Err(err).Msg("skipping op file")
			continue
		}
		workloads = append(workloads, w)
		names = append(names, filepath.Base(p))
	}
	if len(workloads) == 0 {
		log.Fatal().Msg("no readable op files")
	}
	return workloads, names
}

type benchStats struct {
	durations []float64 // ms, one per run
	ops       int
	avgSteps  float64 // from one run (structure-dependent), NaN if not analyzable
	hits      int
}

func newImpl(impl string, cfg *config.Config, expected int) (skiplist.SymbolTable, error) {
	hasher, err := hashpipe.HasherByName(cfg.Hash)
	if err != nil {
		return nil, err
	}
	switch impl {
	case "hashpipe":
		return hashpipe.New(hashpipe.WithHasher(hasher)), nil
	case "bloompipe":
		return bloompipe.New(uint(expected), cfg.BloomFP, hashpipe.WithHasher(hasher)), nil
	case "basic":
		return basic.NewBasicSkipList(int64(cfg.Seed)), nil
	}
	return nil, errors.Errorf("unknown impl: %s", impl)
}

func analyzable(st skiplist.SymbolTable) (skiplist.Analyable, bool) {
	if bp, ok := st.(*bloompipe.BloomPipe); ok {
		return bp.Pipe(), true
	}
	a, ok := st.(skiplist.Analyable)
	return a, ok
}

// benchmarkImpl 以 cfg.Workers 個 goroutine 併行重複 cfg.Runs 次，每次使用獨立的表
func benchmarkImpl(ctx context.Context, w *datastream.Workload, impl string, cfg *config.Config) (benchStats, error) {
	durations := make([]float64, cfg.Runs)
	tables := make([]skiplist.SymbolTable, cfg.Runs)
	hits := make([]int, cfg.Runs)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := 0; i < cfg.Runs; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			st, err := newImpl(impl, cfg, len(w.Dist))
			if err != nil {
				return err
			}
			start := time.Now()
			hits[i] = w.ToSequenceModel().Replay(st)
			durations[i] = float64(time.Since(start).Microseconds()) / 1000.0
			tables[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return benchStats{}, err
	}

	for i := 1; i < len(hits); i++ {
		if hits[i] != hits[0] {
			return benchStats{}, errors.Errorf("run %d hit %d keys, run 0 hit %d", i, hits[i], hits[0])
		}
	}

	stats := benchStats{durations: durations, ops: len(w.Ops), avgSteps: math.NaN(), hits: hits[0]}
	if a, ok := analyzable(tables[0]); ok {
		if err := analyTool.CheckStruct(a); err != nil {
			return benchStats{}, errors.Wrapf(err, "%s: structure check", impl)
		}
		stats.avgSteps = analyTool.AnalyzeStep(a, w.Dist)
	}
	return stats, nil
}

func summarize(impl string, runs int, all []benchStats) []string {
	var durations, steps []float64
	totalOps, hits := 0, 0
	totalSec := 0.0
	for _, s := range all {
		durations = append(durations, s.durations...)
		totalOps += s.ops * len(s.durations)
		hits += s.hits
		for _, d := range s.durations {
			totalSec += d / 1000.0
		}
		if !math.IsNaN(s.avgSteps) {
			steps = append(steps, s.avgSteps)
		}
	}

	stepStr := "N/A"
	if len(steps) > 0 {
		stepStr = fmt.Sprintf("%.6f", average(steps))
	}
	thr := 0.0
	if totalSec > 0 {
		thr = float64(totalOps) / totalSec
	}
	return []string{
		impl,
		fmt.Sprintf("%d", runs*len(all)),
		fmt.Sprintf("%.3f", average(durations)),
		fmt.Sprintf("%.3f", slices.Min(durations)),
		fmt.Sprintf("%.3f", slices.Max(durations)),
		fmt.Sprintf("%.2f", thr),
		stepStr,
		fmt.Sprintf("%d", hits),
	}
}

// 輔助函數：計算平均值
func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
