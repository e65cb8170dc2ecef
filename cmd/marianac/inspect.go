package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/jfd16/mariana/internal/abc"
	"github.com/jfd16/mariana/internal/classbuild"
	"github.com/jfd16/mariana/internal/sig"
)

// inspectSession resolves a fixture's classes (DefinePass + TraitsPass,
// stopping short of EmitPass and the scheduler) and lets the user
// explore the result interactively. Follows the same shape as
// internal/repl.REPL.Start: a peterh/liner session with a temp-file
// history and a `:`-prefixed command completer, adapted from evaluating
// expressions to listing classes and trait tables.
type inspectSession struct {
	reg     *classbuild.Registry
	classes []*classbuild.Class
}

func runInspect(args []string) int {
	fs := newFlagSet("inspect")
	fixturePath := fs.String("fixture", "", "path to a JSON class-graph fixture (required)")
	fs.Parse(args)

	if *fixturePath == "" {
		fmt.Fprintf(os.Stderr, "%s: -fixture is required\n", red("Error"))
		fs.Usage()
		return 1
	}

	file, err := loadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 1
	}

	sess, err := newInspectSession(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 1
	}
	sess.start(os.Stdin, os.Stdout)
	return 0
}

func newInspectSession(file *abc.File) (*inspectSession, error) {
	var reg *classbuild.Registry
	resolve := func(mn *abc.Multiname) (*classbuild.Class, error) {
		q := abc.QName{NS: mn.NS, Local: mn.Local}
		if cls, ok := reg.Lookup(q); ok {
			return cls, nil
		}
		for _, ci := range file.Classes {
			if ci.Name.Equal(q) {
				return reg.Declare(ci), nil
			}
		}
		return nil, fmt.Errorf("class %s not found", mn.Local)
	}
	reg = classbuild.NewRegistry(resolve)
	reg.File = file

	classes := make([]*classbuild.Class, len(file.Classes))
	for i, ci := range file.Classes {
		classes[i] = reg.Declare(ci)
	}
	for _, cls := range classes {
		if err := reg.DefinePass(cls); err != nil {
			return nil, err
		}
	}
	for _, cls := range classes {
		if err := reg.TraitsPass(cls, sig.CoerceDefault); err != nil {
			return nil, err
		}
	}
	return &inspectSession{reg: reg, classes: classes}, nil
}

func (s *inspectSession) start(in io.Reader, out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()

	historyFile := filepath.Join(os.TempDir(), ".marianac_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	fmt.Fprintf(out, "%s %d classes resolved\n", bold("marianac inspect"), len(s.classes))
	fmt.Fprintln(out, "Type :help for commands, :quit to exit")
	fmt.Fprintln(out)

	commands := []string{":help", ":list", ":class", ":quit"}
	line.SetCompleter(func(input string) (c []string) {
		for _, cmd := range commands {
			if strings.HasPrefix(cmd, input) {
				c = append(c, cmd)
			}
		}
		return
	})

	for {
		input, err := line.Prompt("inspect> ")
		if err == io.EOF {
			fmt.Fprintln(out, green("Goodbye!"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			continue
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if !s.handle(input, out) {
			break
		}
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

// handle runs one command; returns false to end the session.
func (s *inspectSession) handle(input string, out io.Writer) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case ":quit", ":q":
		return false
	case ":help":
		fmt.Fprintln(out, "  :list             list every resolved class")
		fmt.Fprintln(out, "  :class <name>     show a class's resolved trait table")
		fmt.Fprintln(out, "  :quit             exit")
	case ":list":
		names := make([]string, len(s.classes))
		for i, cls := range s.classes {
			names[i] = cls.Name.Local
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintln(out, "  "+cyan(n))
		}
	case ":class":
		if len(fields) < 2 {
			fmt.Fprintf(out, "%s: usage: :class <name>\n", red("Error"))
			return true
		}
		s.printClass(fields[1], out)
	default:
		fmt.Fprintf(out, "%s: unknown command %q (try :help)\n", red("Error"), fields[0])
	}
	return true
}

func (s *inspectSession) printClass(name string, out io.Writer) {
	for _, cls := range s.classes {
		if cls.Name.Local != name {
			continue
		}
		fmt.Fprintf(out, "%s %s\n", bold("class"), cls.Name.Local)
		if cls.Parent != nil {
			fmt.Fprintf(out, "  extends %s\n", cls.Parent.Name.Local)
		}
		for _, iface := range cls.ImplementedInterfaces() {
			fmt.Fprintf(out, "  implements %s\n", iface.Name.Local)
		}
		fmt.Fprintln(out, "  instance traits:")
		for _, t := range cls.InstanceTraits {
			fmt.Fprintf(out, "    %s %s\n", traitKindLabel(t), t.Name.Local)
		}
		fmt.Fprintln(out, "  static traits:")
		for _, t := range cls.StaticTraits {
			fmt.Fprintf(out, "    %s %s\n", traitKindLabel(t), t.Name.Local)
		}
		return
	}
	fmt.Fprintf(out, "%s: no such class %q\n", red("Error"), name)
}

func traitKindLabel(t *classbuild.Trait) string {
	switch t.Kind {
	case classbuild.TraitField:
		return "field"
	case classbuild.TraitConst:
		return "const"
	case classbuild.TraitMethod:
		return "method"
	case classbuild.TraitProperty:
		return "property"
	case classbuild.TraitClassAlias:
		return "classalias"
	default:
		return "trait"
	}
}
