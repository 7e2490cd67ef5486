package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	ovio "github.com/seqwerk/ovio"
	"github.com/seqwerk/ovio/ovfile"
	colorlog "github.com/seqwerk/ovio/util/log"
)

func init() {
	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)
	log.SetFormatter(&colorlog.FancyLogFormatter{
		UseColors: true,
	})
}

func formatGroup(category string) string {
	return strings.ToUpper(category) + " COMMANDS"
}

func setLogPath(path string) error {
	switch path {
	case "stdout":
		log.SetOutput(os.Stdout)
	case "stderr":
		log.SetOutput(os.Stderr)
	default:
		fd, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}

		log.SetOutput(fd)
	}

	return nil
}

// levenshtein returns the edit distance between s and t, normalized over
// the length of the longer string.
func levenshtein(s, t string) float64 {
	s = strings.ToLower(s)
	t = strings.ToLower(t)

	prev := make([]int, len(t)+1)
	curr := make([]int, len(t)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s); i++ {
		curr[0] = i
		for j := 1; j <= len(t); j++ {
			cost := 1
			if s[i-1] == t[j-1] {
				cost = 0
			}

			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}

		prev, curr = curr, prev
	}

	longest := len(s)
	if len(t) > longest {
		longest = len(t)
	}

	return float64(prev[len(t)]) / float64(longest)
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}

	return a
}

type suggestion struct {
	name  string
	score float64
}

func findSimilarCommands(cmdName string, cmds []cli.Command) []suggestion {
	similars := []suggestion{}

	for _, cmd := range cmds {
		candidates := []string{cmd.Name}
		candidates = append(candidates, cmd.Aliases...)

		for _, candidate := range candidates {
			score := levenshtein(cmdName, candidate)
			if score <= 0.5 {
				similars = append(similars, suggestion{
					name:  cmd.Name,
					score: score,
				})
				break
			}
		}
	}

	// Special cases for the unix inclined:
	staticSuggestions := map[string]string{
		"cat":   "dump",
		"print": "dump",
		"info":  "stats",
		"stat":  "stats",
	}

	for otherName, ourName := range staticSuggestions {
		if cmdName == otherName {
			similars = append(similars, suggestion{
				name:  ourName,
				score: 0.0,
			})
		}
	}

	// Let suggestions be sorted by their similarity:
	sort.Slice(similars, func(i, j int) bool {
		return similars[i].score < similars[j].score
	})

	return similars
}

func commandNotFound(ctx *cli.Context, cmdName string) {
	similars := findSimilarCommands(cmdName, ctx.App.Commands)

	fmt.Printf("`%s` is not a valid command. ", color.RedString(cmdName))

	switch len(similars) {
	case 0:
		fmt.Printf("\n")
	case 1:
		fmt.Printf("Did you maybe mean `%s`?\n", color.GreenString(similars[0].name))
	default:
		fmt.Println("\n\nDid you mean one of those?")
		for _, similar := range similars {
			fmt.Printf("  * %s\n", color.GreenString(similar.name))
		}
	}
}

////////////////////////////
// Commandline definition //
////////////////////////////

// RunCmdline starts the ovio commandline tool.
func RunCmdline(args []string) int {
	app := cli.NewApp()
	app.Name = "ovio"
	app.Usage = "Inspect and convert sequence overlap files"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf(
		"%s [buildtime: %s]",
		ovio.VersionString(),
		ovio.BuildTime,
	)
	app.CommandNotFound = commandNotFound

	// Groups:
	inspGroup := formatGroup("inspect")
	editGroup := formatGroup("rewrite")
	miscGroup := formatGroup("misc")

	// Flags shared by everything reading an overlap file:
	readFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "layout,w",
			Value: int(ovfile.DefaultLayout),
			Usage: "Payload words per record (3, 5 or 8)",
		},
		cli.BoolFlag{
			Name:  "full,f",
			Usage: "Records carry their a-ID on disk",
		},
		cli.StringFlag{
			Name:  "blocks,b",
			Value: "default",
			Usage: "Framing of the file (default|raw|snappy|lz4)",
		},
	}

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose,V",
			Usage: "Show what happens under the hood",
		},
		cli.StringFlag{
			Name:   "log-path,l",
			Usage:  "Where to output the log. May be 'stderr' (default) or 'stdout'",
			Value:  "stderr",
			EnvVar: "OVIO_LOG",
		},
	}

	app.Before = func(ctx *cli.Context) error {
		if ctx.Bool("verbose") {
			log.SetLevel(log.DebugLevel)
		}

		return setLogPath(ctx.String("log-path"))
	}

	app.Commands = []cli.Command{
		{
			Name:        "dump",
			Category:    inspGroup,
			Usage:       "Print the records of an overlap file as text",
			ArgsUsage:   "<file>",
			Description: "Print one record per line: the sequence IDs in decimal,\n   then the payload words in hex. Reading from stdin works with '-'.",
			Action:      withArgCheck(needAtLeast(1), handleDump),
			Flags: append([]cli.Flag{
				cli.Int64Flag{
					Name:  "num,n",
					Usage: "Stop after this many records (0 means all)",
				},
				cli.Int64Flag{
					Name:  "start,s",
					Usage: "Seek to this record first (raw files only)",
				},
			}, readFlags...),
		},
		{
			Name:        "stats",
			Category:    inspGroup,
			Usage:       "Show size and geometry of an overlap file",
			ArgsUsage:   "<file>",
			Description: "Show the record geometry, the file size and, when one\n   exists, a summary of the counts side file.",
			Action:      withArgCheck(needAtLeast(1), handleStats),
			Flags: append([]cli.Flag{
				cli.BoolFlag{
					Name:  "scan",
					Usage: "Read every record to report ID ranges, even when the size suffices",
				},
			}, readFlags...),
		},
		{
			Name:        "counts",
			Category:    inspGroup,
			Usage:       "Print the counts side file of a write session",
			ArgsUsage:   "<file|counts-file>",
			Description: "Print how many overlaps touch each sequence. The path may\n   be the data file (the side file is derived) or the side file itself.",
			Action:      withArgCheck(needAtLeast(1), handleCounts),
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "all,a",
					Usage: "Also print sequences without overlaps",
				},
			},
		},
		{
			Name:        "convert",
			Category:    editGroup,
			Usage:       "Rewrite an overlap file with another framing or transport",
			ArgsUsage:   "<src> <dst>",
			Description: "Read src and write its records to dst. The dst suffix picks\n   the outer compression (.gz/.xz), --out-blocks the framing inside.",
			Action:      withArgCheck(needAtLeast(2), handleConvert),
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "out-blocks,o",
					Value: "default",
					Usage: "Framing of the output file (default|raw|snappy|lz4)",
				},
				cli.BoolFlag{
					Name:  "strip-aid",
					Usage: "Drop the a-IDs, writing a normal shape file",
				},
				cli.BoolFlag{
					Name:  "no-counts",
					Usage: "Do not write a counts side file",
				},
				cli.IntFlag{
					Name:  "buffer",
					Value: ovfile.DefaultBufferBytes,
					Usage: "Word buffer size in bytes",
				},
			}, readFlags...),
		},
		{
			Name:     "version",
			Category: miscGroup,
			Usage:    "Show the version of ovio",
			Action:   handleVersion,
		},
	}

	if err := app.Run(args); err != nil {
		exitErr, ok := err.(ExitCode)
		if !ok {
			exitErr = ExitCode{UnknownError, err.Error()}
		}

		if exitErr.Message != "" {
			log.Error(exitErr.Message)
		}

		return exitErr.Code
	}

	return 0
}
