package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/obra/compose-all/pkg/project"
	"github.com/obra/compose-all/pkg/runner"
	"github.com/obra/compose-all/pkg/ui"
)

var listWatch bool

var listCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "List Docker Compose projects",
	Long: `Display every Docker Compose project below dir with its project name
and services. With --watch the list is printed again whenever projects
appear, disappear or change.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var dir string
		if len(args) > 0 {
			dir = args[0]
		}
		root, err := runner.ResolveDir(dir)
		if err != nil {
			return err
		}

		opts := project.ScanOptions{
			FollowSymlinks: cfg.FollowSymlinks,
			Exclude:        cfg.Exclude,
			OnError: func(path string, err error) {
				logger.Debug().Err(err).Msgf("Cannot read %s", ui.Path(path))
			},
		}
		out := cmd.OutOrStdout()

		if !listWatch {
			projects, err := project.Scan(root, opts)
			if err != nil {
				return fmt.Errorf("failed to scan %s: %w", root, err)
			}
			printProjects(out, root, projects)
			return nil
		}

		ctx, stop := signalContext(cmd)
		defer stop()

		logger.Info().Msgf("Watching %s, press Ctrl-C to stop", ui.PathBold(root))
		return project.Watch(ctx, root, opts, func(projects []project.Project) {
			printProjects(out, root, projects)
		})
	},
}

func printProjects(out io.Writer, root string, projects []project.Project) {
	if len(projects) == 0 {
		fmt.Fprintf(out, "No Docker Compose projects found in %s\n", root)
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDIR\tFILE\tSERVICES")
	for _, p := range projects {
		services := strings.Join(p.Services, ",")
		if services == "" {
			services = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, displayDir(root, p.Dir), p.ComposeFile, services)
	}
	_ = w.Flush()
}

func displayDir(root, dir string) string {
	if dir == root {
		return "."
	}
	if rel := strings.TrimPrefix(dir, root+string(os.PathSeparator)); rel != dir {
		return rel
	}
	return dir
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVarP(&listWatch, "watch", "w", false, "Keep running and print the list again on changes")
}
