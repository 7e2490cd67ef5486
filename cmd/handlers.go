package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	humanize "github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	ovio "github.com/seqwerk/ovio"
	"github.com/seqwerk/ovio/ovfile"
)

func handleVersion(ctx *cli.Context) error {
	fmt.Println(ovio.VersionString())
	return nil
}

func handleDump(ctx *cli.Context) error {
	f, err := openReader(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	if start := ctx.Int64("start"); start > 0 {
		if !f.Seekable() {
			return ExitCode{BadArgs, "--start needs a raw, uncompressed file"}
		}

		if err := f.SeekOverlap(start); err != nil {
			return ExitCode{BadFile, fmt.Sprintf("seek failed: %v", err)}
		}
	}

	limit := ctx.Int64("num")
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for n := int64(0); limit <= 0 || n < limit; n++ {
		ov := ovfile.Overlap{}
		ok, err := f.ReadOverlap(&ov)
		if err != nil {
			return ExitCode{BadFile, fmt.Sprintf("read failed: %v", err)}
		}
		if !ok {
			break
		}

		printOverlap(out, &ov, f.Layout(), f.Mode().Full())
	}

	return nil
}

// printOverlap writes one record as a line of text: IDs in decimal, the
// payload words in hex since they are packed bitfields.
func printOverlap(out io.Writer, ov *ovfile.Overlap, layout ovfile.Layout, full bool) {
	if full {
		fmt.Fprintf(out, "%d\t", ov.AID)
	}

	fmt.Fprintf(out, "%d", ov.BID)

	digits := 8
	if layout == ovfile.Layout3 {
		digits = 16
	}

	for i := 0; i < layout.DatWords(); i++ {
		fmt.Fprintf(out, "\t%0*x", digits, ov.Dat[i])
	}

	fmt.Fprintln(out)
}

func handleStats(ctx *cli.Context) error {
	f, err := openReader(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	path := ctx.Args().First()
	layout := f.Layout()
	full := f.Mode().Full()

	info, err := os.Stat(path)
	if err != nil {
		return ExitCode{BadFile, fmt.Sprintf("failed to stat '%s': %v", path, err)}
	}

	fmt.Printf("path:         %s\n", path)
	fmt.Printf("layout:       %s\n", layout)
	fmt.Printf(
		"record size:  %d bytes (%d words)\n",
		f.RecordBytes(),
		layout.WordsPerOverlap(full),
	)
	fmt.Printf(
		"file size:    %s (%s bytes)\n",
		humanize.IBytes(uint64(info.Size())),
		humanize.Comma(info.Size()),
	)

	if f.Seekable() && !ctx.Bool("scan") {
		// Raw files on disk: the size tells us everything.
		recordBytes := int64(f.RecordBytes())
		fmt.Printf("records:      %s\n", humanize.Comma(info.Size()/recordBytes))

		if info.Size()%recordBytes != 0 {
			log.Warningf("file size is not a whole number of records; wrong layout or truncated file")
		}
	} else {
		scan, err := scanOverlaps(f)
		if err != nil {
			return ExitCode{BadFile, fmt.Sprintf("scan failed after %d records: %v", scan.records, err)}
		}

		fmt.Printf("records:      %s\n", humanize.Comma(scan.records))
		if scan.records > 0 {
			if full {
				fmt.Printf("a-id range:   %d..%d\n", scan.minA, scan.maxA)
			}
			fmt.Printf("b-id range:   %d..%d\n", scan.minB, scan.maxB)
		}
	}

	printCountsInfo(ovfile.CountsPath(path))
	return nil
}

// scanInfo sums up one full pass over a file.
type scanInfo struct {
	records    int64
	minA, maxA uint32
	minB, maxB uint32
}

func scanOverlaps(f *ovfile.File) (*scanInfo, error) {
	batch := make([]ovfile.Overlap, 8192)
	si := &scanInfo{minA: ^uint32(0), minB: ^uint32(0)}

	for {
		n, err := f.ReadOverlaps(batch)
		for i := 0; i < n; i++ {
			ov := &batch[i]
			if ov.AID < si.minA {
				si.minA = ov.AID
			}
			if ov.AID > si.maxA {
				si.maxA = ov.AID
			}
			if ov.BID < si.minB {
				si.minB = ov.BID
			}
			if ov.BID > si.maxB {
				si.maxB = ov.BID
			}
		}

		si.records += int64(n)
		if err != nil {
			return si, err
		}
		if n < len(batch) {
			return si, nil
		}
	}
}

func printCountsInfo(path string) {
	counts, err := ovfile.ReadCounts(path)
	switch {
	case err == nil:
		total, seen := uint64(0), int64(0)
		for _, c := range counts {
			total += uint64(c)
			if c > 0 {
				seen++
			}
		}

		fmt.Printf(
			"counts file:  %s (%s sequences, %s with overlaps, %s overlaps)\n",
			path,
			humanize.Comma(int64(len(counts))),
			humanize.Comma(seen),
			humanize.Comma(int64(total/2)),
		)
	case os.IsNotExist(err):
		fmt.Printf("counts file:  none\n")
	default:
		log.Warningf("counts file '%s' is damaged: %v", path, err)
	}
}

func handleCounts(ctx *cli.Context) error {
	path := ctx.Args().First()
	if !strings.HasSuffix(path, ".counts") {
		path = ovfile.CountsPath(path)
	}

	counts, err := ovfile.ReadCounts(path)
	if err != nil {
		return ExitCode{BadFile, fmt.Sprintf("failed to read '%s': %v", path, err)}
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	total := uint64(0)
	for id, count := range counts {
		total += uint64(count)
		if count == 0 && !ctx.Bool("all") {
			continue
		}

		fmt.Fprintf(out, "%d\t%d\n", id, count)
	}

	log.Infof("%d sequences, %d overlaps", len(counts), total/2)
	return nil
}

func handleConvert(ctx *cli.Context) error {
	layout, err := layoutFromCtx(ctx)
	if err != nil {
		return err
	}

	inBlocks, err := blocksFromCtx(ctx, "blocks")
	if err != nil {
		return err
	}

	outBlocks, err := blocksFromCtx(ctx, "out-blocks")
	if err != nil {
		return err
	}

	srcFull := ctx.Bool("full")
	stripAID := ctx.Bool("strip-aid")
	if stripAID && !srcFull {
		return ExitCode{BadArgs, "--strip-aid only makes sense with --full input"}
	}

	rmode := ovfile.ReadNormal
	if srcFull {
		rmode = ovfile.ReadFull
	}

	wmode := ovfile.WriteNormal
	if srcFull && !stripAID {
		wmode = ovfile.WriteFull
		if ctx.Bool("no-counts") {
			wmode = ovfile.WriteFullNoCounts
		}
	}

	srcPath := ctx.Args().Get(0)
	dstPath := ctx.Args().Get(1)
	bufferBytes := ctx.Int("buffer")

	src, err := ovfile.OpenOptions(srcPath, rmode, layout, ovfile.Options{
		Blocks:      inBlocks,
		BufferBytes: bufferBytes,
	})
	if err != nil {
		return ExitCode{BadFile, fmt.Sprintf("failed to open '%s': %v", srcPath, err)}
	}
	defer src.Close()

	dst, err := ovfile.OpenOptions(dstPath, wmode, layout, ovfile.Options{
		Blocks:      outBlocks,
		BufferBytes: bufferBytes,
	})
	if err != nil {
		return ExitCode{BadFile, fmt.Sprintf("failed to create '%s': %v", dstPath, err)}
	}

	batch := make([]ovfile.Overlap, 8192)
	total := int64(0)

	for {
		n, err := src.ReadOverlaps(batch)
		if err != nil {
			dst.Close()
			return ExitCode{BadFile, fmt.Sprintf("read failed after %d records: %v", total, err)}
		}
		if n == 0 {
			break
		}

		if err := dst.WriteOverlaps(batch[:n]); err != nil {
			dst.Close()
			return ExitCode{BadFile, fmt.Sprintf("write failed: %v", err)}
		}

		total += int64(n)
		if n < len(batch) {
			break
		}
	}

	if err := dst.Close(); err != nil {
		return ExitCode{BadFile, fmt.Sprintf("failed to finish '%s': %v", dstPath, err)}
	}

	log.Infof("converted %d records from '%s' to '%s'", total, srcPath, dstPath)
	return nil
}
