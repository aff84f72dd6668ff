// ABOUTME: Version command showing build information and the run database it would use
// ABOUTME: Reports schema version and stored runs without creating a missing database
package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/harper/topicnaming/internal/storage/sqlite"
)

var (
	versionInfo = VersionInfo{
		Version: "dev",
		Commit:  "none",
		Date:    "unknown",
	}
)

// VersionInfo contains build information
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// SetVersion sets the version information (called from main)
func SetVersion(version, commit, date string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.Date = date
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version, commit hash, and build date for the topicnaming CLI,
plus the run database schema this build reads and what the configured
database currently holds.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "topicnaming %s\n", versionInfo.Version)
			fmt.Fprintf(out, "Commit: %s\n", versionInfo.Commit)
			fmt.Fprintf(out, "Built:  %s\n", versionInfo.Date)
			fmt.Fprintf(out, "Schema: v%d\n", sqlite.SchemaVersion)
			writeDatabaseInfo(out)
		},
	}

	return cmd
}

// writeDatabaseInfo describes the configured run database. A missing file is
// reported rather than created.
func writeDatabaseInfo(out io.Writer) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(out, "Database: unavailable (%v)\n", err)
		return
	}
	if _, err := os.Stat(cfg.DBPath); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(out, "Database: %s (not created yet)\n", cfg.DBPath)
		return
	}
	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(out, "Database: %s (%v)\n", cfg.DBPath, err)
		return
	}
	defer func() { _ = db.Close() }()
	info, err := db.Info()
	if err != nil {
		fmt.Fprintf(out, "Database: %s (%v)\n", cfg.DBPath, err)
		return
	}
	fmt.Fprintf(out, "Database: %s (schema v%d, %d runs, %d documents)\n", info.Path, info.SchemaVersion, info.Runs, info.Documents)
}
