/*
LODScript - Script text dump/insert tooling for The Legend of Dragoon (PSX) game files.

Copyright © 2026 theflyingzamboni
*/
package main

import (
	"fmt"
	"os"

	"github.com/theflyingzamboni/lodscript/cmd"
)

// Version information (injected at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Check for version flag
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		fmt.Printf("LODScript %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		os.Exit(0)
	}

	cmd.Execute()
}
