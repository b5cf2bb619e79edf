// Command joosc is the Joos ahead-of-time compiler's CLI entry point
// (spec.md §6): `joosc <file1.java> <file2.java> ...` compiles a closed set
// of compilation units to x86-32 assembly, writing one combined .s file
// (<stem>.s for a single input, joos_output.s otherwise) into the -o
// directory or the first source file's directory (assembled/linked against
// the fixed runtime ABI by a separate
// build step outside this compiler's scope). Grounded on the teacher's
// cmd/dwscript Cobra command shape: a single root command with positional
// file arguments, verbose/output flags, and os.Exit carrying the process
// exit code the spec mandates (0/42/1) rather than relying on cobra's own
// error-to-exit-code mapping.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/compiler"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/diag"
	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"
)

var (
	verbose    bool
	outputDir  string
)

var rootCmd = &cobra.Command{
	Use:   "joosc <file1.java> [file2.java ...]",
	Short: "Ahead-of-time compiler for the Joos language subset",
	Long: `joosc compiles a set of Joos (.java) source files into x86-32
assembly: it links every type against every other file given on the same
invocation, checks static semantics end to end, and emits one combined
assembly file for all inputs.

Exit codes: 0 on success, 42 on any user-program error, 1 on an internal
compiler error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print diagnostics for warnings too")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory to write the .s file to (default: the first source file's directory)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the usage/argument error; a malformed
		// invocation is itself a user error under spec.md §6.
		os.Exit(42)
	}
}

func runCompile(_ *cobra.Command, args []string) error {
	var files []compiler.FileInput
	for _, path := range args {
		if filepath.Ext(path) != ".java" {
			fmt.Fprintf(os.Stderr, "error: %s does not have a .java extension\n", path)
			os.Exit(42)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: cannot read %s: %v\n", path, err)
			os.Exit(1)
		}
		files = append(files, compiler.FileInput{Name: path, Content: string(content)})
	}

	mgr := source.NewManager()
	result := compiler.Compile(mgr, files)

	for _, d := range result.Diagnostics {
		if d.Kind == diag.KindWarning && !verbose {
			continue
		}
		fmt.Fprint(os.Stderr, d.Format(mgr, isTerminal()))
	}

	if result.ExitCode == 0 {
		if err := writeOutputs(args, result.Assembly); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	os.Exit(result.ExitCode)
	return nil
}

// writeOutputs writes the single assembled text to one .s file: <stem>.s
// when there is exactly one input, joos_output.s otherwise. The file goes
// to outputDir, or to the first input's directory when outputDir is empty.
// The output is not split per compilation unit.
func writeOutputs(inputs []string, asm string) error {
	dir := outputDir
	if dir == "" && len(inputs) > 0 {
		dir = filepath.Dir(inputs[0])
	}
	name := "joos_output.s"
	if len(inputs) == 1 {
		stem := strings.TrimSuffix(filepath.Base(inputs[0]), filepath.Ext(inputs[0]))
		name = stem + ".s"
	}
	return os.WriteFile(filepath.Join(dir, name), []byte(asm), 0o644)
}

func isTerminal() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
