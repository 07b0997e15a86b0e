package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kubereach/kubereach/internal/check"
	"github.com/kubereach/kubereach/internal/config"
	"github.com/kubereach/kubereach/internal/kube"
	"github.com/kubereach/kubereach/internal/kubectl"
	"github.com/kubereach/kubereach/internal/logging"
	"github.com/kubereach/kubereach/internal/output"
	"github.com/kubereach/kubereach/internal/probe"
	"github.com/kubereach/kubereach/internal/resolver"
	"github.com/kubereach/kubereach/internal/validation"
)

var (
	version = "dev"

	cfg       *config.Settings
	formatter *output.Formatter

	// Global flags
	envFile     string
	outputFlag  string
	kubectlPath string
	kubeconfig  string
	namespace   string
	useAPI      bool
	timeout     time.Duration
	verbose     bool

	// check flags
	targetOverride string

	// resolve flags
	fromStdin bool
)

// exitCodeError carries a process exit code through cobra's error return.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

var rootCmd = &cobra.Command{
	Use:   "kubereach",
	Short: "Check whether a Kubernetes cluster's services are reachable",
	Long: `kubereach lists cluster nodes and services, resolves a single probe
target (the first LoadBalancer service with an external address, falling
back to the in-cluster API server) and issues one HTTP request against it.

The node and service listings must succeed; a failed probe is reported but
does not fail the run.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration in precedence order (lowest to highest):
		// environment variables, env-file, command-line flags.
		if envFile == "" {
			defaultEnvFile := filepath.Join("config", "kubereach.env")
			if _, err := os.Stat(defaultEnvFile); err == nil {
				envFile = defaultEnvFile
			}
		}

		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		applyFlagOverrides(cmd.Flags().Changed)

		logging.Setup(os.Stderr, cfg.Verbose)

		format, err := output.ParseFormat(cfg.Output)
		if err != nil {
			return err
		}
		formatter = output.New(format)
		return nil
	},
}

// applyFlagOverrides copies changed flag values over the loaded settings.
// changed reports whether the named flag was set on the command line.
func applyFlagOverrides(changed func(string) bool) {
	if changed("kubectl") {
		cfg.KubectlPath = kubectlPath
	}
	if changed("kubeconfig") {
		cfg.Kubeconfig = kubeconfig
	}
	if changed("namespace") {
		cfg.Namespace = namespace
	}
	if changed("use-api") {
		cfg.UseAPI = useAPI
	}
	if changed("timeout") {
		cfg.Timeout = timeout
	}
	if changed("output") {
		cfg.Output = outputFlag
	}
	if changed("verbose") {
		cfg.Verbose = verbose
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to environment file (default: config/kubereach.env if exists)")
	rootCmd.PersistentFlags().StringVar(&outputFlag, "output", "text", "Output format: text or json")
	rootCmd.PersistentFlags().StringVar(&kubectlPath, "kubectl", "", "Path to the kubectl binary (default: kubectl from PATH)")
	rootCmd.PersistentFlags().StringVar(&kubeconfig, "kubeconfig", "", "Path to kubeconfig for API mode (default: in-cluster auth)")
	rootCmd.PersistentFlags().StringVar(&namespace, "namespace", "", "Namespace to list services in (default: default)")
	rootCmd.PersistentFlags().BoolVar(&useAPI, "use-api", false, "List through the Kubernetes API instead of kubectl")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-step timeout (default: none)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(versionCmd)

	// Invoking kubereach with no subcommand runs the check.
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return checkCmd.RunE(cmd, args)
	}

	checkCmd.Flags().StringVar(&targetOverride, "target", "", "Probe this URL instead of the discovered one (e.g., http://203.0.113.10:80)")
	resolveCmd.Flags().BoolVar(&fromStdin, "stdin", false, "Resolve from a service listing read on stdin")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "List nodes and services, resolve a target, and probe it",
	Long: `Run the full reachability pipeline: list cluster nodes, list services,
resolve a probe target, and issue one HTTP request against it.

Exits 1 if either listing fails. A failed probe is reported with guidance
but exits 0.

Examples:
  kubereach check
  kubereach check --use-api --kubeconfig ~/.kube/config
  kubereach check --target http://203.0.113.10:80`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validation.TargetURL("--target", targetOverride); err != nil {
			return err
		}

		source, err := buildSource()
		if err != nil {
			return err
		}
		if targetOverride != "" {
			target, err := resolver.ParseURL(targetOverride)
			if err != nil {
				return err
			}
			source = check.WithTarget(source, target)
		}

		checker := check.New(source, probe.New(cfg.Timeout), formatter)
		if code := checker.Run(cmd.Context()); code != 0 {
			return exitCodeError{code: code}
		}
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the probe target without probing it",
	Long: `Resolve the probe target from the cluster's service listing, or from a
listing piped on stdin, and print it without issuing a request.

Examples:
  kubereach resolve
  kubectl get services | kubereach resolve --stdin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var target resolver.Target

		if fromStdin {
			listing, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read service listing from stdin: %w", err)
			}
			target = resolver.ResolveTable(string(listing))
		} else {
			source, err := buildSource()
			if err != nil {
				return err
			}
			if _, target, err = source.Services(cmd.Context()); err != nil {
				return fmt.Errorf("could not list cluster services: %w", err)
			}
		}

		return formatter.Print(&output.Report{Success: true, Target: &target})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the kubereach version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

// buildSource picks the listing mechanism: kubectl scraping by default, the
// typed API when configured.
func buildSource() (check.Source, error) {
	if cfg.UseAPI {
		client, err := kube.NewClient(cfg.Kubeconfig, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return check.APISource{Client: client, Namespace: cfg.Namespace}, nil
	}

	runner, err := kubectl.New(cfg.KubectlPath, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return check.KubectlSource{Runner: runner}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
