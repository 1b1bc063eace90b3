// Command clipforge is the CLI client: it creates and inspects projects and
// drives a processing run to completion by polling the project status.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipforge/clipforge/internal/client"
	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/model"
)

var (
	apiURL     string
	token      string
	configPath string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "clipforge: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clipforge",
		Short: "ClipForge API client",
		Long: `ClipForge CLI talks to a ClipForge server: create projects from long-form
videos, trigger processing, and watch a run until clips and contents are ready.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&apiURL, "api", "", "Base URL of the ClipForge API (overrides config file)")
	cmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token (overrides config file)")
	cmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Path to the YAML client config")
	cmd.AddCommand(
		newProjectsCmd(),
		newProcessCmd(),
	)
	return cmd
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "clipforge.yaml"
	}
	return filepath.Join(home, ".clipforge.yaml")
}

// newClient resolves flags against the config file and builds the API client.
func newClient() (*client.Client, error) {
	cfg, err := config.LoadClient(configPath)
	if err != nil {
		return nil, err
	}
	base := apiURL
	if base == "" {
		base = cfg.APIURL
	}
	if base == "" {
		base = "http://localhost:8080"
	}
	tok := token
	if tok == "" {
		tok = cfg.Token
	}
	if tok == "" {
		return nil, fmt.Errorf("no bearer token: pass --token or set token in %s", configPath)
	}
	return client.New(base, tok), nil
}

func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects",
	}
	cmd.AddCommand(
		newProjectsCreateCmd(),
		newProjectsListCmd(),
		newProjectsShowCmd(),
		newProjectsDeleteCmd(),
	)
	return cmd
}

func newProjectsCreateCmd() *cobra.Command {
	var title, sourceType, sourceURL string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new project",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			project, err := c.CreateProject(cmd.Context(), title, sourceType, sourceURL)
			if err != nil {
				return err
			}
			fmt.Printf("created %s (%s)\n", project.ID, project.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Project title")
	cmd.Flags().StringVar(&sourceType, "source-type", "youtube", "Source type (youtube or upload)")
	cmd.Flags().StringVar(&sourceURL, "source-url", "", "Source video URL")
	return cmd
}

func newProjectsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your projects, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			projects, err := c.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range projects {
				fmt.Printf("%s  %-10s  %s\n", p.ID, p.Status, p.Title)
			}
			return nil
		},
	}
}

func newProjectsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project with its clips and contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			detail, err := c.GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printDetail(detail)
			return nil
		},
	}
}

func newProjectsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and its clips and contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

func newProcessCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "process <id>",
		Short: "Trigger processing and poll until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			id := args[0]
			ack, err := c.Process(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("%s (job %s), waiting for result...\n", ack.Message, ack.JobID)
			detail, err := c.PollUntilDone(cmd.Context(), id, interval)
			if err != nil {
				return err
			}
			printDetail(detail)
			if detail.Status == model.StatusFailed {
				return fmt.Errorf("processing failed; retry with: clipforge process %s", id)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", client.DefaultPollInterval, "Status poll interval")
	return cmd
}

func printDetail(d *model.ProjectDetail) {
	fmt.Printf("%s  %s\n", d.ID, d.Title)
	fmt.Printf("  status:   %s\n", d.Status)
	if d.Duration > 0 {
		fmt.Printf("  duration: %ds\n", d.Duration)
	}
	if len(d.Clips) > 0 {
		fmt.Println("  clips:")
		for _, c := range d.Clips {
			fmt.Printf("    [%6.1fs - %6.1fs]  %.2f  %s\n", c.StartTime, c.EndTime, c.Score, c.Title)
		}
	}
	if len(d.Contents) > 0 {
		fmt.Println("  contents:")
		for _, c := range d.Contents {
			fmt.Printf("    %-9s %d chars\n", c.Type, len(c.Body))
		}
	}
}
