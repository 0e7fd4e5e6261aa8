// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command edubadge is the one-shot maintenance tool for the profile store.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/taibuivan/edubadge/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand(os.Stdout, cli.DefaultOpener)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var withExitCode interface{ ExitCode() int }
		if errors.As(err, &withExitCode) {
			os.Exit(withExitCode.ExitCode())
		}
		os.Exit(1)
	}
}
