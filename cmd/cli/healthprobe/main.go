// healthprobe is the one-shot container liveness probe: it reads the health
// record and exits 0 when the content contains the success sentinel, 1
// otherwise. A missing or unreadable record is unhealthy. Intended as the
// container HEALTHCHECK command, so it writes nothing on success and stays
// silent unless asked to explain itself.
package main

import (
	"fmt"
	"os"
	"strings"

	flags "github.com/jessevdk/go-flags"

	"github.com/core-tools/hsu-healthmon-go/pkg/healthfile"
	"github.com/core-tools/hsu-healthmon-go/pkg/logging"
)

type flagOptions struct {
	File      string `long:"file" short:"f" description:"Health record path (overrides --process-id)"`
	ProcessID string `long:"process-id" description:"Process ID used to derive the conventional record path" default:"safety"`
	Sentinel  string `long:"sentinel" description:"Success sentinel substring" default:"OK: true"`
	Verbose   bool   `long:"verbose" short:"v" description:"Print the probe verdict"`
}

func main() {
	var opts flagOptions
	var parser = flags.NewParser(&opts, flags.HelpFlag)
	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Command line flags parsing failed: %v\n", err)
		os.Exit(1)
	}

	path := opts.File
	if path == "" {
		config := healthfile.GetRecommendedHealthFileConfig("container", "")
		manager := healthfile.NewHealthFileManager(config, logging.NewNullLogger())
		path = manager.GenerateHealthFilePath(opts.ProcessID)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if opts.Verbose {
			fmt.Fprintf(os.Stderr, "unhealthy: %v\n", err)
		}
		os.Exit(1)
	}

	if !strings.Contains(string(content), opts.Sentinel) {
		if opts.Verbose {
			fmt.Fprintf(os.Stderr, "unhealthy: record %q does not contain %q\n",
				strings.TrimSpace(string(content)), opts.Sentinel)
		}
		os.Exit(1)
	}

	if opts.Verbose {
		// Report the content that actually matched, not a re-rendering
		fmt.Printf("healthy: %s\n", strings.TrimSpace(string(content)))
	}
}
