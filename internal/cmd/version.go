package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Dallionking/levelchain/internal/tui/styles"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the build version, git commit, build date, and Go runtime details.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, styles.Cyan(styles.CompactLogo)+"  "+styles.Value.Render("v"+Version))
		fmt.Fprintln(out)
		fmt.Fprintln(out, styles.Label.Render("VERSION")+"   "+styles.Value.Render(Version))
		fmt.Fprintln(out, styles.Label.Render("COMMIT")+"    "+styles.Value.Render(GitCommit))
		fmt.Fprintln(out, styles.Label.Render("BUILT")+"     "+styles.Value.Render(BuildDate))
		fmt.Fprintln(out, styles.Label.Render("GO")+"        "+styles.Value.Render(runtime.Version()))
		fmt.Fprintln(out, styles.Label.Render("OS/ARCH")+"   "+styles.Value.Render(runtime.GOOS+"/"+runtime.GOARCH))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
