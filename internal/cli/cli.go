package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/santiagomed/poststretch/internal/config"
	"github.com/santiagomed/poststretch/internal/core"
	"github.com/santiagomed/poststretch/internal/utils"
	"github.com/santiagomed/poststretch/pkg/fs"
)

// Version is set at build time.
var Version = "dev"

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFBA08"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

type runFlags struct {
	config   string
	output   string
	progress bool
}

// NewRootCmd builds the poststretch command over fsys.
func NewRootCmd(fsys *fs.FileSystem) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "poststretch [infile]",
		Short: "Poststretch compensates plastic shrinkage in sliced G-code",
		Long: `Poststretch moves the corners and walls of every layer of a G-code file
outward, so that the printed part keeps its intended shape once the plastic
has shrunk. The corrected G-code is written to stdout unless --output is set.
Use "--" or "-" as infile to read from stdin.`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := parseFlags(cmd)
			if err != nil {
				return fmt.Errorf("error parsing flags: %w", err)
			}
			inPath := fs.StdinPath
			if len(args) == 1 {
				inPath = args[0]
			}
			return run(cmd, fsys, inPath, flags)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of poststretch",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "poststretch %s\n", Version)
		},
	}
	rootCmd.AddCommand(versionCmd)
	// -v/--version as in post_stretch.
	rootCmd.SetVersionTemplate("poststretch {{.Version}}\n")

	config.RegisterFlags(rootCmd.Flags())
	rootCmd.Flags().StringP("config", "c", "", "Path to custom configuration file")
	rootCmd.Flags().StringP("output", "o", "", "Write the corrected G-code to this file")
	rootCmd.Flags().Bool("progress", false, "Show progress on stderr")

	return rootCmd
}

func parseFlags(cmd *cobra.Command) (runFlags, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return runFlags{}, err
	}

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return runFlags{}, err
	}

	progress, err := cmd.Flags().GetBool("progress")
	if err != nil {
		return runFlags{}, err
	}

	return runFlags{
		config:   cfgPath,
		output:   output,
		progress: progress,
	}, nil
}

func run(cmd *cobra.Command, fsys *fs.FileSystem, inPath string, flags runFlags) error {
	cfg, err := config.LoadConfig(fsys, flags.config, cmd.Flags())
	if err != nil {
		return err
	}

	if err := utils.InitLogger(cfg.LogFile, cfg.Verbose); err != nil {
		return err
	}
	logger := utils.GetLogger()
	logger.Info().
		Str("version", Version).
		Str("input", inPath).
		Int("stretch", cfg.Stretch).
		Int("width", cfg.Width).
		Int("nozzle", cfg.Nozzle).
		Int("dump_layer", cfg.DumpLayer).
		Float64("bed_size", cfg.BedSize).
		Msg("Starting poststretch")

	if err := checkOutputs(fsys, cfg, flags.output); err != nil {
		logger.Error().Err(err).Msg("Invalid output path")
		return err
	}

	in, err := fsys.OpenInput(inPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open input")
		return err
	}
	defer in.Close()

	var out io.Writer = cmd.OutOrStdout()
	if flags.output != "" {
		f, err := fsys.CreateFile(flags.output)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create output")
			return err
		}
		defer f.Close()
		out = f
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var (
		summary core.Summary
		pub     *CliStepPublisher
	)
	if flags.progress {
		pub = NewCliStepPublisher(logger)
		engine := core.NewEngine(cfg, fsys, out, pub, logger)
		summary, err = runWithProgress(ctx, engine, in, pub, in.Size >= 0)
	} else {
		engine := core.NewEngine(cfg, fsys, out, nil, logger)
		summary, err = engine.Run(ctx, in)
	}
	if err != nil {
		logger.Error().Err(err).Int("lines", summary.Lines).Int("layers", summary.Layers).Msg("Run failed")
		return err
	}

	logger.Info().Int("lines", summary.Lines).Int("layers", summary.Layers).Int("moved", summary.Moved).Msg("Run completed")
	if flags.progress {
		check := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("✓")
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s layers corrected, %s points moved\n",
			check, successStyle.Render(fmt.Sprint(summary.Layers)), successStyle.Render(fmt.Sprint(summary.Moved)))
	}
	return nil
}

// checkOutputs rejects output paths naming a directory before any input is
// read.
func checkOutputs(fsys *fs.FileSystem, cfg *config.Config, output string) error {
	if output != "" && fsys.IsDir(output) {
		return fmt.Errorf("output %s is a directory", output)
	}
	if cfg.DumpLayer > 0 && fsys.IsDir(cfg.DebugImage) {
		return fmt.Errorf("debug image %s is a directory", cfg.DebugImage)
	}
	return nil
}

func Execute() {
	defer utils.CloseLogger()

	rootCmd := NewRootCmd(fs.NewOsFileSystem())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		utils.CloseLogger()
		os.Exit(1)
	}
}
