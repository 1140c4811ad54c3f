// Command hashpipe inserts a small key set into a hash pipe and prints the
// lookups and per-level links, for eyeballing the structure.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/Hakuto4838/HashPipe.git/logger"
	"github.com/Hakuto4838/HashPipe.git/skiplist/analyTool"
	"github.com/Hakuto4838/HashPipe.git/skiplist/hashpipe"
)

func main() {
	var hashName string
	var insert string
	var probe string
	var logLevel string

	flag.StringVar(&hashName, "hash", "java", "hasher: xxhash, fnv or java")
	flag.StringVar(&insert, "insert", "SEARCHEXAMPLE", "keys to insert, one per character (value = position)")
	flag.StringVar(&probe, "probe", "ABCDEFGHIJKLMNOPQRSTUVWXYZ", "keys to look up, one per character")
	flag.StringVar(&logLevel, "log-level", "info", "log level")
	flag.Parse()

	log, err := logger.New(logLevel, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	hasher, err := hashpipe.HasherByName(hashName)
	if err != nil {
		log.Fatal().Err(err).Msg("bad -hash")
	}

	hp := hashpipe.New(hashpipe.WithHasher(hasher), hashpipe.WithLogger(log))
	for i, r := range []rune(insert) {
		hp.Put(string(r), i)
	}
	log.Info().Int("size", hp.Size()).Int("levels", hp.Levels()).Str("hash", hashName).Msg("inserted")

	// Get 結果
	rows := make([][]string, 0, len(probe))
	for _, r := range probe {
		key := string(r)
		val := "-"
		if v, ok := hp.Get(key); ok {
			val = strconv.Itoa(v)
		}
		rows = append(rows, []string{key, val})
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Value"})
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.AppendBulk(rows)
	table.Render()

	// 每座塔在各層的後繼
	header := []string{"Key", "Height"}
	for l := 0; l < hp.Levels(); l++ {
		header = append(header, fmt.Sprintf("L%d", l))
	}
	rows = rows[:0]
	for key := range hp.All() {
		height, _ := hp.Height(key)
		row := []string{key, strconv.Itoa(height)}
		for l := 0; l < hp.Levels(); l++ {
			switch next, ok := hp.Control(key, l); {
			case ok:
				row = append(row, next)
			case l < height:
				row = append(row, "nil")
			default:
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.AppendBulk(rows)
	table.Render()

	analyTool.PrintSkipList(os.Stdout, hp, hp.Levels(), hp.Size())

	if err := analyTool.CheckStruct(hp); err != nil {
		log.Fatal().Err(err).Msg("structure check failed")
	}
	log.Debug().Msg("structure ok")
}
