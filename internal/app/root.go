package app

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/pranshuparmar/portproc/internal/command"
	"github.com/pranshuparmar/portproc/internal/pipeline"
	"github.com/pranshuparmar/portproc/internal/ports"
	procpkg "github.com/pranshuparmar/portproc/internal/proc"
	"github.com/pranshuparmar/portproc/internal/tui"
	"github.com/pranshuparmar/portproc/pkg/model"
)

var (
	version   = ""
	commit    = ""
	buildDate = ""
)

func SetVersionBuildCommitString(v, c, d string) {
	version = v
	commit = c
	buildDate = d
}

func versionString() string {
	v := version
	if v == "" {
		v = "dev"
	}
	if commit != "" {
		v += " (" + commit
		if buildDate != "" {
			v += ", " + buildDate
		}
		v += ")"
	}
	return v
}

// env is everything a run touches outside the process: the terminal,
// socket tables, process table and child processes.
type env struct {
	stdout io.Writer
	stderr io.Writer
	isTTY  bool
	width  int
	getenv func(string) string

	enumerate pipeline.EnumerateFunc
	resolver  ports.Resolver
	runner    command.Runner
	pick      func(ctx context.Context, infos []model.PortInfo, command string) (model.Process, error)
}

func systemEnv() env {
	fd := int(os.Stdout.Fd())
	isTTY := term.IsTerminal(fd)
	width := 0
	if isTTY {
		if w, _, err := term.GetSize(fd); err == nil {
			width = w
		}
	}

	return env{
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		isTTY:     isTTY,
		width:     width,
		getenv:    os.Getenv,
		enumerate: procpkg.Enumerate,
		resolver:  procpkg.NewResolver(procpkg.SystemProcessTable(), procpkg.SystemUsers(), procpkg.CurrentUID()),
		runner:    command.ExecRunner{},
		pick:      tui.Pick,
	}
}

// Execute runs portproc with the process arguments and exits.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], systemEnv())
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, e env) int {
	cmd := newRootCmd(e)
	cmd.SetArgs(args)
	cmd.SetOut(e.stdout)
	cmd.SetErr(e.stderr)
	return exitCode(cmd.ExecuteContext(ctx), e.stderr)
}

func newRootCmd(e env) *cobra.Command {
	var o Options

	cmd := &cobra.Command{
		Use:   "portproc [flags] [-- command [args...]]",
		Short: "Find the processes behind open ports and act on them",
		Long: `portproc lists the processes that own open ports: listening TCP sockets
and bound UDP sockets.

With a command after --, it runs that command once for every process found,
replacing {} with the pid, or appending the pid when there is no {}.
Running a command on more than one process needs --force.`,
		Example: `  portproc                     # pids of every process with an open port
  portproc -a                  # with their command lines
  portproc -p 5000 -- kill     # kill whatever listens on port 5000
  portproc -p 53 -u -- ps -o user= -p {}
  portproc -i -- kill -TERM    # pick the process interactively`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dash := cmd.ArgsLenAtDash()
			if dash < 0 && len(args) > 0 {
				return usageErrorf("unexpected argument %q: put the command after --", args[0])
			}
			if dash > 0 {
				return usageErrorf("unexpected argument %q before --", args[0])
			}
			if dash == 0 {
				o.Command = args
			}
			o.HasPort = cmd.Flags().Changed("port")

			if err := o.Validate(); err != nil {
				return err
			}
			return execute(cmd.Context(), o, e)
		},
	}
	cmd.SetVersionTemplate("portproc {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	f := cmd.Flags()
	f.SortFlags = false
	f.Uint16VarP(&o.Port, "port", "p", 0, "only the process using this port")
	f.BoolVarP(&o.All, "all", "a", false, "show the header and command column even when not on a terminal")
	f.BoolVar(&o.Force, "force", false, "allow running the command on more than one process")
	f.BoolVarP(&o.IPv4, "ipv4", "4", false, "IPv4 sockets only")
	f.BoolVarP(&o.IPv6, "ipv6", "6", false, "IPv6 sockets only")
	f.BoolVarP(&o.TCP, "tcp", "t", false, "TCP listeners only")
	f.BoolVarP(&o.UDP, "udp", "u", false, "UDP sockets only")
	f.BoolVar(&o.Mine, "mine", false, "only ports owned by the current user")
	f.BoolVar(&o.AllOwners, "all-owners", false, "include every process sharing a socket, not just the first")
	f.StringVar(&o.Backend, "backend", string(procpkg.BackendAuto), "socket source: auto, gopsutil or procfs")
	f.StringVar(&o.ProcRoot, "proc-root", "", "procfs mount to read instead of "+procpkg.DefaultProcRoot)
	f.BoolVar(&o.JSON, "json", false, "print ports, processes and warnings as JSON")
	f.BoolVarP(&o.Interactive, "interactive", "i", false, "choose a single process interactively")
	f.StringVar(&o.Color, "color", "auto", "color output: auto, always or never")
	f.BoolVarP(&o.Verbose, "verbose", "v", false, "log debug information to stderr")
	f.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "colour" {
			name = "color"
		}
		return pflag.NormalizedName(name)
	})

	return cmd
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "portproc",
		ReportTimestamp: false,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func logWarnings(logger *log.Logger, warnings []model.Warning) {
	for _, w := range warnings {
		switch w.Kind {
		case model.WarnEnumeration:
			logger.Debug("skipped socket table", "detail", w.Detail)
		case model.WarnUnreadable:
			if w.PID == 0 {
				// every socket of another user ends up here when not root
				logger.Debug("skipped socket", "detail", w.Detail)
				continue
			}
			logger.Warn("skipped process", "kind", w.Kind, "pid", w.PID, "detail", w.Detail)
		default:
			if w.PID > 0 {
				logger.Warn("skipped process", "kind", w.Kind, "pid", w.PID, "detail", w.Detail)
			} else {
				logger.Warn("skipped process", "kind", w.Kind, "detail", w.Detail)
			}
		}
	}
}
