package folder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cshum/drive-sync/internal/config"
	"github.com/cshum/drive-sync/internal/provider"
	"github.com/cshum/drive-sync/providerapi"
	"github.com/urfave/cli/v2"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:  "folder",
		Usage: "Manage remote folders and the default upload folder",
		Subcommands: []*cli.Command{
			{
				Name:  "ls",
				Usage: "List the entries of a remote folder",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "parent",
						Usage: "ID of the folder to list (defaults to root)",
					},
				},
				Action: listAction,
			},
			{
				Name:  "set",
				Usage: "Pick the default upload folder",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "parent",
						Usage: "ID of the folder whose subfolders are offered (defaults to root)",
					},
				},
				Action: setAction,
			},
			{
				Name:      "mkdir",
				Usage:     "Create a remote folder",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "parent",
						Usage: "ID of the folder to create in (defaults to root)",
					},
				},
				Action: mkdirAction,
			},
			{
				Name:      "rm",
				Usage:     "Delete a remote file or folder",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Skip the confirmation prompt",
					},
				},
				Action: removeAction,
			},
		},
	}
}

func listAction(c *cli.Context) error {
	cfg := config.GetConfig()
	prov, err := provider.FromCLI(c, cfg)
	if err != nil {
		return err
	}
	return List(c.Context, prov, c.String("parent"), c.App.Writer)
}

func setAction(c *cli.Context) error {
	cfg := config.GetConfig()
	prov, err := provider.FromCLI(c, cfg)
	if err != nil {
		return err
	}
	return Select(c.Context, prov, cfg, cfg.ProviderName(c.String("provider")), c.String("parent"), bufio.NewReader(c.App.Reader), c.App.Writer)
}

func mkdirAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("please provide a folder name")
	}
	cfg := config.GetConfig()
	prov, err := provider.FromCLI(c, cfg)
	if err != nil {
		return err
	}
	name := c.Args().First()
	id, err := prov.Create(c.Context, name, c.String("parent"), providerapi.KindFolder, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Folder '%s' has been created (ID: %s).\n", name, id)
	return nil
}

func removeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("please provide the id to delete")
	}
	cfg := config.GetConfig()
	prov, err := provider.FromCLI(c, cfg)
	if err != nil {
		return err
	}
	return Remove(c.Context, prov, cfg, cfg.ProviderName(c.String("provider")), c.Args().First(), c.Bool("yes"), bufio.NewReader(c.App.Reader), c.App.Writer)
}

// List prints the numbered children of parentID.
func List(ctx context.Context, p providerapi.Provider, parentID string, out io.Writer) error {
	nodes, err := p.ListChildren(ctx, parentID)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		fmt.Fprintln(out, "No items found.")
		return nil
	}
	for i, node := range nodes {
		fmt.Fprintf(out, "  %d. %s (%s, ID: %s)\n", i+1, node.Name, node.Kind, node.ID)
	}
	return nil
}

// Select offers the subfolders of parentID and stores the picked one as the
// default upload folder of providerName.
func Select(ctx context.Context, p providerapi.Provider, cfg *config.Config, providerName, parentID string, in *bufio.Reader, out io.Writer) error {
	nodes, err := p.ListChildren(ctx, parentID)
	if err != nil {
		return err
	}
	var folders []providerapi.Node
	for _, node := range nodes {
		if node.IsFolder() {
			folders = append(folders, node)
		}
	}
	if len(folders) == 0 {
		fmt.Fprintln(out, "No folders found.")
		return nil
	}

	fmt.Fprintln(out, "Available folders:")
	for i, node := range folders {
		fmt.Fprintf(out, "  %d. %s (ID: %s)\n", i+1, node.Name, node.ID)
	}
	fmt.Fprint(out, "Enter the number of the folder to upload into: ")
	answer, _ := in.ReadString('\n')
	selection, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || selection < 1 || selection > len(folders) {
		return fmt.Errorf("invalid selection")
	}

	selected := folders[selection-1]
	if err := cfg.SetActiveFolder(providerName, selected.ID, selected.Name); err != nil {
		return err
	}
	fmt.Fprintf(out, "Selected folder: %s (ID: %s)\n", selected.Name, selected.ID)
	return nil
}

// Remove deletes id, asking first unless yes is set. Removing the default
// upload folder clears it.
func Remove(ctx context.Context, p providerapi.Provider, cfg *config.Config, providerName, id string, yes bool, in *bufio.Reader, out io.Writer) error {
	if !yes {
		fmt.Fprintf(out, "Are you sure you want to delete %s? (y/N): ", id)
		answer, _ := in.ReadString('\n')
		if confirm := strings.TrimSpace(answer); confirm != "y" && confirm != "Y" {
			fmt.Fprintln(out, "Delete cancelled.")
			return nil
		}
	}
	if err := p.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %s.\n", id)

	if active, _ := cfg.ActiveFolder(providerName); active != "" && active == id {
		if err := cfg.ClearActiveFolder(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Default upload folder cleared.")
	}
	return nil
}
