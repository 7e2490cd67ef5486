// +build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var Aliases = map[string]interface{}{
	"b": Build.Binary,
	"t": Build.Test,
	"l": Dev.Lint,
}

/////////////////////
// UTILITY HELPERS //
/////////////////////

func speak(format string, args ...interface{}) {
	if mg.Verbose() {
		fmt.Printf("-- "+format+"\n", args...)
	}
}

func gitRev() string {
	rev, err := sh.Output("git", "rev-parse", "HEAD")
	if err != nil {
		speak("-- could not get git version: %v", err)
		return ""
	}

	return rev
}

func binaryOutput() string {
	path := os.Getenv("OVIO_BINARY_PATH")
	if path != "" {
		speak("using binary path from OVIO_BINARY_PATH: %s", path)
		return path
	}

	speak("using ${GOBIN}/ovio as binary output location")
	return filepath.Join(os.Getenv("GOBIN"), "ovio")
}

////////////////////
// ACTUAL TARGETS //
////////////////////

var Default = Build.Binary

type Build mg.Namespace

func (Build) Binary() error {
	imp := "github.com/seqwerk/ovio"
	ldflags := []string{
		"-X", fmt.Sprintf("%s.BuildTime=%s", imp, time.Now().Format(time.RFC3339)),
		"-X", fmt.Sprintf("%s.GitRev=%s", imp, gitRev()),
	}

	useUPX := false
	switch os.Getenv("OVIO_SMALL_BINARY") {
	case "tiny":
		useUPX = true
		fallthrough
	case "small":
		ldflags = append(ldflags, "-s")
		ldflags = append(ldflags, "-w")
	default:
		break
	}

	binPath := binaryOutput()
	minusld := strings.Join(ldflags, " ")
	err := sh.Run("go", "build", "-ldflags", minusld, "-o", binPath, "./ovio")
	if err != nil {
		return err
	}

	if useUPX {
		if err := sh.Run("upx", binPath); err != nil {
			return err
		}
	}

	return nil
}

func (Build) Test() error {
	return sh.RunV("go", "test", "./...")
}

// Development tools that are not relevant to the user's building process:
type Dev mg.Namespace

func (Dev) Lint() error {
	findCmd := "find -iname '*.go' -type f ! -iname 'build.go'"

	linters := []string{
		fmt.Sprintf("%s -exec gofmt -s -w {} \\;", findCmd),
		fmt.Sprintf("%s -exec go fix {} \\;", findCmd),
		fmt.Sprintf("%s -exec golint {} \\;", findCmd),
		fmt.Sprintf("%s -exec misspell {} \\;", findCmd),
		fmt.Sprintf("%s -exec gocyclo -over 20 {} \\; | sort -n", findCmd),
	}

	for _, linter := range linters {
		sh.RunV("sh", "-c", linter)
	}

	return nil
}

func (Dev) Cloc() error {
	cmd := "cloc $(find -iname '*.go' | sort | uniq)"
	return sh.RunV("sh", "-c", cmd)
}
