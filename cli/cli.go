package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/santiagomed/stepseq/core"
	"github.com/santiagomed/stepseq/fs"
	"github.com/santiagomed/stepseq/logger"
)

const exitCancelled = 130

var rootCmd = &cobra.Command{
	Use:           "stepseq",
	Short:         "Stepseq runs step workflows defined in YAML",
	Long:          `Stepseq runs a chain of steps, asking for input, branching on conditions and performing actions, as described in a workflow file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run <workflow.yaml>",
	Short: "Run a workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := parseRunFlags(cmd)
		if err != nil {
			return fmt.Errorf("error parsing flags: %w", err)
		}
		cfg, err := loadSettings(flags)
		if err != nil {
			return err
		}
		if err := logger.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
			return err
		}
		defer logger.Close()

		return runWorkflow(cmd.Context(), args[0], cfg, cmd.OutOrStdout())
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <workflow.yaml>",
	Short: "Check a workflow without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := parseRunFlags(cmd)
		if err != nil {
			return fmt.Errorf("error parsing flags: %w", err)
		}
		cfg, err := loadSettings(flags)
		if err != nil {
			return err
		}
		return validateWorkflow(fs.NewOsFileSystem(), args[0], cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)

	rootCmd.PersistentFlags().StringP("config", "c", "", "Directory containing a config.yaml")

	runCmd.Flags().StringP("answers", "a", "", "Answer prompts from this YAML file instead of the terminal")
	runCmd.Flags().Bool("dedupe", false, "Run each step at most once per run")
}

func parseRunFlags(cmd *cobra.Command) (runFlags, error) {
	config, err := cmd.Flags().GetString("config")
	if err != nil {
		return runFlags{}, err
	}

	f := runFlags{config: config}
	if cmd.Flags().Lookup("answers") == nil {
		return f, nil
	}

	f.answers, err = cmd.Flags().GetString("answers")
	if err != nil {
		return runFlags{}, err
	}
	f.dedupe, err = cmd.Flags().GetBool("dedupe")
	if err != nil {
		return runFlags{}, err
	}
	return f, nil
}

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, core.ErrCancelled):
		return exitCancelled
	default:
		return 1
	}
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if errors.Is(err, core.ErrCancelled) {
			fmt.Fprintln(os.Stderr, mutedStyle.Render("Cancelled."))
		} else {
			fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		}
		os.Exit(ExitCode(err))
	}
}
