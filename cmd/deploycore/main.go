// Command deploycore is a thin demo CLI over the deployment core: it
// reads a context document and deploys it to one IDE platform, using
// no-op stand-ins for the validator/transformer collaborators a real
// embedder supplies (spec.md §1 places those out of the core's scope).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	deploycore "github.com/bulgogi-whopper/taptik-deploy-core"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/reporter"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

var (
	homeDir       string
	configPath    string
	contextPath   string
	platformFlag  string
	dryRun        bool
	validateOnly  bool
	force         bool
	jsonOutput    bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "deploycore",
		Short: "deploycore - deploy a portable developer-environment context onto an IDE platform",
	}

	root.PersistentFlags().StringVar(&homeDir, "home", defaultHome(), "home directory under which .taptik state is rooted")
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional dcconfig TOML file")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print the deployment result as JSON")

	root.AddCommand(deployCmd())
	return root
}

func deployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "deploy a context document to a target platform",
		RunE:  runDeploy,
	}
	cmd.Flags().StringVar(&contextPath, "context", "", "path to a context JSON document")
	cmd.Flags().StringVar(&platformFlag, "platform", "", "target platform (claudeCode, kiro, cursor, windsurf)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute artifacts and conflicts without writing")
	cmd.Flags().BoolVar(&validateOnly, "validate-only", false, "run validation and transformation, then stop before backup and writes")
	cmd.Flags().BoolVar(&force, "force", false, "downgrade non-security validation failures to warnings")
	_ = cmd.MarkFlagRequired("context")
	_ = cmd.MarkFlagRequired("platform")
	return cmd
}

func runDeploy(cmd *cobra.Command, args []string) error {
	platform := types.Platform(platformFlag)
	if !platform.Valid() {
		return fmt.Errorf("unknown platform %q", platformFlag)
	}

	raw, err := os.ReadFile(contextPath)
	if err != nil {
		return fmt.Errorf("read context file: %w", err)
	}
	var deployCtx types.Context
	if err := json.Unmarshal(raw, &deployCtx); err != nil {
		return fmt.Errorf("parse context file: %w", err)
	}

	orch, err := deploycore.New(deploycore.Options{
		Home:       homeDir,
		ConfigPath: configPath,
		Validators: []deploycore.Validator{noopValidator{}},
		Transformers: map[deploycore.Platform]deploycore.Transformer{
			platform: passthroughTransformer{},
		},
	})
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	result := orch.Deploy(context.Background(), deployCtx, types.DeploymentOptions{
		Platform:     platform,
		DryRun:       dryRun,
		ValidateOnly: validateOnly,
		Force:        force,
	})

	report := reporter.Build(result, time.Now().UTC())
	reportsDir := filepath.Join(homeDir, ".taptik", "reports")
	if !dryRun {
		if err := reporter.WriteAll(reportsDir, report); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to write deployment report: %v\n", err)
		}
	}

	if jsonOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		md, err := reporter.RenderMarkdown(report)
		if err != nil {
			return err
		}
		fmt.Println(md)
	}

	if !result.Success {
		os.Exit(1)
	}
	return nil
}

func defaultHome() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// noopValidator always succeeds; a real embedder supplies its own
// validation rules (spec.md §1).
type noopValidator struct{}

func (noopValidator) Validate(ctx context.Context, deployCtx types.Context, opts types.DeploymentOptions) error {
	return nil
}

// passthroughTransformer writes the context's personal context back out
// as JSON unchanged (project context is not written), useful only for demoing the
// pipeline end to end; a real embedder supplies a per-platform
// transformer (spec.md §1).
type passthroughTransformer struct{}

func (passthroughTransformer) Transform(ctx context.Context, deployCtx types.Context, opts types.DeploymentOptions) ([]types.TargetArtifact, error) {
	content, err := json.Marshal(deployCtx.PersonalContext)
	if err != nil {
		return nil, err
	}
	return []types.TargetArtifact{
		{
			Path:      filepath.Join(homeDir, ".taptik", "demo", string(opts.Platform), "settings.json"),
			Component: types.ComponentSettings,
			Type:      types.ArtifactJSON,
			Content:   content,
		},
	}, nil
}
