package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/celltrack/pkg/errors"
	ctio "github.com/matzehuels/celltrack/pkg/io"
	"github.com/matzehuels/celltrack/pkg/storage"
)

// storeCommand creates the store command, which keeps data files under
// generated IDs.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Keep data files in the experiment store",
		Long: `Keep data files in the experiment store, a local database by default or
MongoDB when configured under [store].`,
	}

	cmd.AddCommand(c.storePutCommand())
	cmd.AddCommand(c.storeGetCommand())
	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeRemoveCommand())

	return cmd
}

func (c *CLI) storePutCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:               "put [file]",
		Short:             "Store a data file and print its ID",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readData(args[0])
			if err != nil {
				return err
			}
			// Only valid files go in.
			if _, err := ctio.ReadJSON(bytes.NewReader(data)); err != nil {
				return err
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			s, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			entry, err := s.Put(cmd.Context(), name, data)
			if err != nil {
				return err
			}
			printSuccess("Stored %s", name)
			printKeyValue("ID", entry.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "name of the experiment (default: file name)")

	return cmd
}

func (c *CLI) storeGetCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:               "get [id]",
		Short:             "Write a stored data file",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeStoredIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			entry, data, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = entry.Name + ".json"
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <name>.json)")

	return cmd
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored data files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			entries, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				printInfo("Store is empty")
				return nil
			}
			fmt.Println(entryTable(entries))
			return nil
		},
	}
}

func (c *CLI) storeRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "rm [id...]",
		Aliases:           []string{"remove"},
		Short:             "Remove stored data files",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeStoredIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			var failed []string
			for _, id := range args {
				if err := s.Delete(cmd.Context(), id); err != nil {
					printError("%s", errors.UserMessage(err))
					failed = append(failed, id)
					continue
				}
				printSuccess("Removed %s", id)
			}
			if len(failed) > 0 {
				return errors.New(errors.ErrCodeNotFound, "could not remove %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}
}

func entryTable(entries []storage.Entry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.ID, e.Name, humanize.IBytes(uint64(e.Size)), humanize.Time(e.CreatedAt)}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Size", "Stored").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleDim
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
