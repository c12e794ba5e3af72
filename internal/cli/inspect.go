package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Sharad077/ClaudeForExcelMemory/internal/engine"
	"github.com/Sharad077/ClaudeForExcelMemory/internal/store"
	"github.com/spf13/cobra"
)

// Inspection commands read the database directly so they work without a
// running server.

var (
	inspectDBPath  string
	summarizeRatio float64
)

func init() {
	for _, cmd := range []*cobra.Command{listCmd, showCmd, summarizeCmd} {
		cmd.Flags().StringVar(&inspectDBPath, "db", "", "path to database (default ~/.excelmemory/excelmemory.db)")
	}
	summarizeCmd.Flags().Float64Var(&summarizeRatio, "ratio", 0.3, "fraction of assistant prose to keep")
}

func openDB() (*store.DB, error) {
	path := inspectDBPath
	if path == "" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	return store.Open(path)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List captured conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		convs, err := db.ListConversations()
		if err != nil {
			return err
		}
		if len(convs) == 0 {
			fmt.Println("no conversations captured yet")
			return nil
		}

		for _, c := range convs {
			fmt.Printf("%-40s %4d messages  updated %s\n",
				c.Workbook, c.MessageCount,
				time.UnixMilli(c.UpdatedAt).Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <workbook>",
	Short: "Print a workbook's canonical transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		conv, err := db.GetConversation(args[0])
		if err != nil {
			return err
		}
		if conv == nil {
			return fmt.Errorf("no conversation for workbook %q", args[0])
		}

		for _, m := range conv.Messages {
			fmt.Printf("[%s]\n%s\n\n", strings.ToUpper(m.Role), m.Content)
		}
		return nil
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <workbook>",
	Short: "Print a compressed transcript (extractive, offline)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		eng := engine.New(db, nil)
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		res, err := eng.Summary(ctx, args[0], summarizeRatio)
		if err != nil {
			return err
		}

		for _, m := range res.Messages {
			fmt.Printf("[%s]\n%s\n\n", strings.ToUpper(m.Role), m.Content)
		}
		return nil
	},
}
