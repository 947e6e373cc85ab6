package cli

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// Set from main, which receives them through -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the hostwatch version, the commit and date it was built from, and the Go toolchain and platform.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info := currentBuild()
		if versionShort {
			fmt.Fprintln(cmd.OutOrStdout(), info.version)
			return
		}
		info.write(cmd.OutOrStdout())
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version")
	rootCmd.AddCommand(versionCmd)
}

// SetVersionInfo records the build stamp passed in by main.
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

type buildInfo struct {
	version string
	commit  string
	date    string
}

// currentBuild prefers the ldflags stamp. Binaries from `go install` carry no
// stamp, so their module version is used instead.
func currentBuild() buildInfo {
	info := buildInfo{version: version, commit: commit, date: date}
	if info.version != "dev" {
		return info
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.version = bi.Main.Version
	}
	return info
}

func (b buildInfo) write(w io.Writer) {
	fmt.Fprintf(w, "hostwatch %s\n", formatVersion(b.version))
	fmt.Fprintf(w, "  commit   %s\n", b.commit)
	fmt.Fprintf(w, "  built    %s\n", b.date)
	fmt.Fprintf(w, "  go       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// formatVersion adds the v prefix release tags carry. dev builds stay bare.
func formatVersion(v string) string {
	if v == "" || v == "dev" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
