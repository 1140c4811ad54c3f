package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"

	"github.com/Hakuto4838/HashPipe.git/datastream"
	"github.com/Hakuto4838/HashPipe.git/logger"
	"github.com/Hakuto4838/HashPipe.git/skiplist"
	"github.com/Hakuto4838/HashPipe.git/skiplist/analyTool"
	"github.com/Hakuto4838/HashPipe.git/skiplist/basic"
	"github.com/Hakuto4838/HashPipe.git/skiplist/hashpipe"
)

const histLevels = 6

func testOne(log zerolog.Logger, name string, sl skiplist.Analyable, dist map[skiplist.K]float64) []string {
	if err := analyTool.CheckStruct(sl); err != nil {
		log.Fatal().Err(err).Str("impl", name).Msg("structure check failed")
	}
	_, maxLevel := sl.GetMaxStats()
	row := []string{
		name,
		fmt.Sprintf("%d", maxLevel+1),
		fmt.Sprintf("%.3f", analyTool.AnalyzeStep(sl, dist)),
	}
	hist := analyTool.HeightHistogram(sl)
	for h := 0; h < histLevels; h++ {
		f := 0.0
		if h < len(hist) {
			f = hist[h]
		}
		row = append(row, fmt.Sprintf("%.4f", f))
	}
	return row
}

func main() {
	var n int
	var seed int64
	var prefix string
	var zipfA float64
	var logLevel string

	flag.IntVar(&n, "n", 5000, "number of keys")
	flag.Int64Var(&seed, "seed", 42, "seed for the basic skip list and the Zipf weights")
	flag.StringVar(&prefix, "prefix", "key:", "key prefix")
	flag.Float64Var(&zipfA, "a", 1.07, "Zipf parameter a used to weight the search steps (0 = uniform)")
	flag.StringVar(&logLevel, "log-level", "info", "log level")
	flag.Parse()

	log, err := logger.New(logLevel, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if n <= 0 {
		log.Fatal().Int("n", n).Msg("-n must be positive")
	}

	ks := datastream.NewKeySpace(n, prefix)
	var sampler datastream.Sampler = datastream.NewUniformSampler(n, uint64(seed))
	if zipfA > 0 {
		sampler = datastream.NewZipfSampler(n, zipfA, 0, uint64(seed))
	}
	dist := ks.Distribution(sampler)

	rows := make([][]string, 0, 4)
	for _, name := range hashpipe.HasherNames() {
		h, err := hashpipe.HasherByName(name)
		if err != nil {
			log.Fatal().Err(err).Msg("hasher")
		}
		hp := hashpipe.New(hashpipe.WithHasher(h))
		for i, k := range ks.Keys() {
			hp.Put(k, i)
		}
		rows = append(rows, testOne(log, "hashpipe/"+name, hp, dist))
	}

	bsl := basic.NewBasicSkipList(seed)
	for i, k := range ks.Keys() {
		bsl.Put(k, i)
	}
	rows = append(rows, testOne(log, "basic", bsl, dist))

	header := []string{"Impl", "Levels", "AvgSteps"}
	expected := []string{"2^-h", "", ""}
	for h := 1; h <= histLevels; h++ {
		header = append(header, fmt.Sprintf("h=%d", h))
		expected = append(expected, fmt.Sprintf("%.4f", 1/float64(uint(1)<<h)))
	}
	rows = append(rows, expected)

	log.Info().Int("keys", n).Float64("entropy", datastream.Entropy(dist)).Msg("compare")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}
