package cli

import (
	"fmt"
	"os"

	"github.com/Sharad077/ClaudeForExcelMemory/internal/probe"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Screen-capture probe commands",
}

// push must never fail loudly: it runs inside the capture loop of the
// host application, so problems go to stderr and the exit code stays 0.
var probePushCmd = &cobra.Command{
	Use:   "push <workbook>",
	Short: "Submit one snapshot of captured fragments from stdin",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, err := probe.NewClient().Push(args[0], os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "push: %v\n", err)
			return
		}
		if res == nil {
			return // server down, snapshot dropped
		}
		fmt.Printf("merged=%v messages=%d\n", res.Merged, res.MessageCount)
	},
}

var probePauseCmd = &cobra.Command{
	Use:   "pause <workbook>",
	Short: "Stop accepting snapshots for a workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return probe.NewClient().SetCapture(args[0], false)
	},
}

var probeResumeCmd = &cobra.Command{
	Use:   "resume <workbook>",
	Short: "Resume accepting snapshots for a workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return probe.NewClient().SetCapture(args[0], true)
	},
}

func init() {
	probeCmd.AddCommand(probePushCmd)
	probeCmd.AddCommand(probePauseCmd)
	probeCmd.AddCommand(probeResumeCmd)
}
