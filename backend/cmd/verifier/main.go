package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"text/tabwriter"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lineage-verifier/backend/internal/graph"
	"lineage-verifier/backend/internal/lineage"
	"lineage-verifier/backend/internal/verifier"
	"lineage-verifier/backend/pkg/config"
	apperrors "lineage-verifier/backend/pkg/errors"
	"lineage-verifier/backend/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "verifier",
		Short: "Verify lineage charts before publishing",
		Long: `verifier checks a lineage chart for data-entry errors: duplicated
persons, impossible parent relations, suspicious families and malformed
labels. Advisory findings go to stdout, warnings to stderr. The exit
status is 1 when a hard check fails.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Also report cousin marriages")
	flags.StringSlice("known-problem", nil, "Names exempt from lineage-cycle checks (substring match)")
	flags.String("exceptions-file", "", "YAML allow-list file, merged with EXCEPTIONS_FILE")
	flags.StringSlice("enable", nil, "Stages to enable")
	flags.StringSlice("disable", nil, "Stages to disable")
	flags.String("on-soft-violation", "", "escalate|log-only (default from RAISE_EXCEPTION)")

	// Check command - verify chart files
	checkCmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Verify one or more .xml or .json chart files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCheck,
	}

	// Neo4j command - verify a stored chart
	neo4jCmd := &cobra.Command{
		Use:   "neo4j",
		Short: "Verify a chart stored in Neo4j",
		Args:  cobra.NoArgs,
		RunE:  runNeo4j,
	}
	neo4jCmd.Flags().String("chart", "", "Chart name (default: every Person)")
	neo4jCmd.Flags().String("save", "", "Also write the loaded chart to this .xml file")

	stagesCmd := &cobra.Command{
		Use:   "stages",
		Short: "List verification stages in execution order",
		Args:  cobra.NoArgs,
		RunE:  runStages,
	}

	rootCmd.AddCommand(checkCmd, neo4jCmd, stagesCmd)
	return rootCmd
}

// setup loads configuration, starts the logger and builds the run options
// from config overridden by flags.
func setup(cmd *cobra.Command) (*config.Config, verifier.Options, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, verifier.Options{}, err
	}
	if err := logger.Init(cfg.Env, cfg.Debug); err != nil {
		return nil, verifier.Options{}, fmt.Errorf("failed to initialize logger: %w", err)
	}

	flags := cmd.Flags()
	if path, _ := flags.GetString("exceptions-file"); path != "" {
		exc, err := config.LoadExceptions(path)
		if err != nil {
			return nil, verifier.Options{}, err
		}
		cfg.MergeExceptions(exc)
	}

	opts, err := verifier.FromConfig(cfg)
	if err != nil {
		return nil, verifier.Options{}, err
	}

	opts.Verbose, _ = flags.GetBool("verbose")
	known, _ := flags.GetStringSlice("known-problem")
	opts.KnownProblemCases = append(opts.KnownProblemCases, known...)

	if policy, _ := flags.GetString("on-soft-violation"); policy != "" {
		opts.OnSoftViolation, err = verifier.ParseSoftViolationPolicy(policy)
		if err != nil {
			return nil, verifier.Options{}, err
		}
	}

	enable, _ := flags.GetStringSlice("enable")
	disable, _ := flags.GetStringSlice("disable")
	if err := opts.Toggle(enable, disable); err != nil {
		return nil, verifier.Options{}, err
	}

	opts.Out = cmd.OutOrStdout()
	opts.Err = cmd.ErrOrStderr()
	return cfg, opts, nil
}

// fileResult is the captured outcome of verifying one file
type fileResult struct {
	path       string
	stdout     bytes.Buffer
	stderr     bytes.Buffer
	collisions []verifier.Collision
	err        error
}

func runCheck(cmd *cobra.Command, args []string) error {
	_, opts, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Get()

	results := make([]*fileResult, len(args))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, path := range args {
		path := path
		res := &fileResult{path: path}
		results[i] = res
		g.Go(func() error {
			chart, err := lineage.DecodeFile(path)
			if err != nil {
				return err
			}
			fileOpts := opts.Clone()
			fileOpts.Out = &res.stdout
			fileOpts.Err = &res.stderr
			res.collisions, res.err = verifier.Verify(chart, fileOpts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var failed int
	for _, res := range results {
		if len(results) > 1 {
			fmt.Fprintf(opts.Out, "== %s\n", res.path)
		}
		io.Copy(opts.Out, &res.stdout)
		io.Copy(opts.Err, &res.stderr)
		if res.err != nil {
			failed++
			fmt.Fprintf(opts.Err, "%s: %v\n", res.path, res.err)
			continue
		}
		log.Info("Chart verified",
			zap.String("file", res.path),
			zap.Int("collisions", len(res.collisions)),
		)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d charts failed verification", failed, len(results))
	}
	return nil
}

func runNeo4j(cmd *cobra.Command, args []string) error {
	cfg, opts, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Get()

	chart, _ := cmd.Flags().GetString("chart")
	save, _ := cmd.Flags().GetString("save")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		return apperrors.NewGraphConnectionFailed(cfg.Neo4jURI, err)
	}
	repo := graph.NewRepository(driver)
	defer repo.Close()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return apperrors.NewGraphConnectionFailed(cfg.Neo4jURI, err)
	}

	g, err := repo.LoadLineage(ctx, chart)
	if err != nil {
		return err
	}

	// written before verification strips year_of_birth
	if save != "" {
		if err := saveChart(save, g); err != nil {
			return err
		}
		log.Info("Chart saved", zap.String("file", save))
	}

	collisions, err := verifier.Verify(g, opts)
	if err != nil {
		fmt.Fprintln(opts.Err, err)
		return err
	}
	log.Info("Chart verified", zap.String("chart", chart), zap.Int("collisions", len(collisions)))
	return nil
}

func saveChart(path string, g *lineage.Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := lineage.EncodeXML(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runStages(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tDEFAULT\tDESCRIPTION")
	for _, st := range verifier.Stages() {
		state := "off"
		switch {
		case !st.Toggleable:
			state = "always"
		case st.Default:
			state = "on"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", st.Stage, state, st.Description)
	}
	return w.Flush()
}
