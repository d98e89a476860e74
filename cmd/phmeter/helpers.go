package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/charlie0129/phmeter/pkg/version"
)

// annotationLocal marks commands that never talk to the daemon.
const annotationLocal = "phmeter/local"

func parseIntArg(args []string, valueName string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("invalid number of arguments")
	}

	value, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", valueName, err)
	}

	return value, nil
}

// parseChannelArgs parses three 0..255 colour channels.
func parseChannelArgs(args []string) (r, g, b int, err error) {
	if len(args) != 3 {
		return 0, 0, 0, fmt.Errorf("expected 3 arguments (R G B), got %d", len(args))
	}

	var ch [3]int
	for i, name := range []string{"R", "G", "B"} {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid %s: %v", name, err)
		}
		if v < 0 || v > 255 {
			return 0, 0, 0, fmt.Errorf("%s must be between 0 and 255, got %d", name, v)
		}
		ch[i] = v
	}

	return ch[0], ch[1], ch[2], nil
}

// needsDaemon reports whether cmd will talk to the daemon.
func needsDaemon(cmd *cobra.Command) bool {
	if cmd.Annotations[annotationLocal] == "true" {
		return false
	}
	if f := cmd.Flags().Lookup("local"); f != nil && f.Value.String() == "true" {
		return false
	}
	return true
}

func getVersion() (clientVersion, daemonVersion string, err error) {
	daemonVersion, err = apiClient.GetVersion()
	if err != nil {
		return version.Version, "", err
	}
	return version.Version, daemonVersion, nil
}
