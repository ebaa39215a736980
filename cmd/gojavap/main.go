package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/daimatz/gojavap/pkg/classpath"
	"github.com/daimatz/gojavap/pkg/config"
	"github.com/daimatz/gojavap/pkg/javap"
	"github.com/daimatz/gojavap/pkg/log"
)

type flags struct {
	configPath    string
	disassemble   bool
	lineAndLocals bool
	signatures    bool
	verbose       bool
	all           bool
	public        bool
	protected     bool
	pkg           bool
	private       bool
	classpath     string
	bootclasspath string
	jobs          int
	logLevel      string
	debug         string
	tree          bool
	dump          bool
}

// findJmodPath locates java.base.jmod for the default boot class path.
func findJmodPath() string {
	if env := os.Getenv("JAVA_BASE_JMOD"); env != "" {
		return env
	}
	if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" {
		p := filepath.Join(javaHome, "jmods", "java.base.jmod")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "gojavap [flags] class...",
		Short: "Disassemble Java class files",
		Long: `gojavap prints the declarations of the named classes and, on request,
their bytecode, line and local variable tables, constant pool and raw
attributes. Classes are given as binary names (java.lang.String),
internal names (java/lang/String) or paths to .class files.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &f, args)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "YAML config file (default $"+config.EnvVar+")")
	fl.BoolVarP(&f.disassemble, "disassemble", "c", false, "Disassemble the code")
	fl.BoolVarP(&f.lineAndLocals, "lines", "l", false, "Print line number and local variable tables")
	fl.BoolVarP(&f.signatures, "signatures", "s", false, "Print internal type signatures")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Print stack size, locals, args and the constant pool")
	fl.BoolVar(&f.all, "all", false, "Print every attribute")
	fl.BoolVar(&f.public, "public", false, "Show only public classes and members")
	fl.BoolVar(&f.protected, "protected", false, "Show protected and public classes and members")
	fl.BoolVar(&f.pkg, "package", false, "Show package, protected and public classes and members (default)")
	fl.BoolVar(&f.private, "private", false, "Show all classes and members")
	cmd.MarkFlagsMutuallyExclusive("public", "protected", "package", "private")
	fl.StringVar(&f.classpath, "classpath", "", "Where to find user class files")
	fl.StringVar(&f.classpath, "cp", "", "Alias for --classpath")
	fl.StringVar(&f.bootclasspath, "bootclasspath", "", "Override the location of bootstrap class files")
	fl.IntVarP(&f.jobs, "jobs", "j", 0, "Classes decoded in parallel")
	fl.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	fl.StringVar(&f.debug, "debug", "", "Comma-separated modules with debug logging enabled, or all")
	fl.BoolVar(&f.tree, "tree", false, "Print an outline tree instead of the listing")
	fl.BoolVar(&f.dump, "dump", false, "Dump the decoded class structure")
	return cmd
}

// settings merges the config file with the flags given on the command
// line.
func settings(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	fl := cmd.Flags()
	setBool := func(name string, dst *bool, v bool) {
		if fl.Changed(name) {
			*dst = v
		}
	}
	setBool("disassemble", &cfg.Disassemble, f.disassemble)
	setBool("lines", &cfg.LineAndLocals, f.lineAndLocals)
	setBool("signatures", &cfg.Signatures, f.signatures)
	setBool("verbose", &cfg.Verbose, f.verbose)
	setBool("all", &cfg.AllAttributes, f.all)

	switch {
	case f.public:
		cfg.Access = "public"
	case f.protected:
		cfg.Access = "protected"
	case f.pkg:
		cfg.Access = "package"
	case f.private:
		cfg.Access = "private"
	}
	if fl.Changed("classpath") || fl.Changed("cp") {
		cfg.Classpath = f.classpath
	}
	if fl.Changed("bootclasspath") {
		cfg.Bootclasspath = f.bootclasspath
	}
	if cfg.Bootclasspath == "" {
		cfg.Bootclasspath = findJmodPath()
	}
	if fl.Changed("jobs") {
		if f.jobs < 1 {
			return nil, fmt.Errorf("--jobs must be at least 1, got %d", f.jobs)
		}
		cfg.Jobs = f.jobs
	}
	if fl.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	return cfg, nil
}

func run(cmd *cobra.Command, f *flags, args []string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg, err := settings(cmd, f)
	if err != nil {
		return err
	}
	if err := log.InitLogger(stderr, cfg.LogLevel); err != nil {
		return err
	}
	log.EnableModules(f.debug)

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	opts.Tree = f.tree

	var entries []string
	for _, p := range []string{cfg.Bootclasspath, cfg.Classpath} {
		if p != "" {
			entries = append(entries, p)
		}
	}
	cp := classpath.New(strings.Join(entries, string(os.PathListSeparator)))
	log.Debug(log.CLI, "class path", "entries", cp.Entries(), "jobs", cfg.Jobs)

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := javap.Batch(ctx, args, cp.Find, opts, cfg.Jobs)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(stderr, "Error: %s: %v\n", r.Name, r.Err)
			continue
		}
		if _, err := stdout.Write(r.Output); err != nil {
			return err
		}
		if f.dump {
			dump(stdout, r)
		}
	}
	log.Info(log.CLI, "done", "classes", len(results), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d classes failed", failed, len(results))
	}
	return nil
}

func dump(w io.Writer, r javap.Result) {
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
	cfg.Fdump(w, r.Class)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		os.Exit(1)
	}
}
