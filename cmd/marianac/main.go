// Command marianac drives the compilation core against a JSON class-graph
// fixture (see fixture.go): `compile` runs the full pipeline end to end,
// `inspect` opens an interactive console over the resolved class/trait
// tables before any body is scheduled.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	// Version is set by ldflags during a real build; "dev" otherwise.
	Version = "dev"

	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return fs
}

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "compile":
		os.Exit(runCompile(os.Args[2:]))
	case "inspect":
		os.Exit(runInspect(os.Args[2:]))
	case "-version", "--version":
		fmt.Printf("marianac %s\n", bold(Version))
	case "-help", "--help", "help":
		printHelp()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(bold("marianac") + " - AVM2-to-managed-runtime compilation core")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  marianac <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s -fixture <f.json> [-config c.yaml]   Compile a class-graph fixture\n", cyan("compile"))
	fmt.Printf("  %s -fixture <f.json>                    Explore a fixture's resolved classes\n", cyan("inspect"))
	fmt.Printf("  %s                                      Print version information\n", cyan("--version"))
}
