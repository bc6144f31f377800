package sync

import (
	"fmt"

	"github.com/cshum/drive-sync/internal/config"
	"github.com/cshum/drive-sync/internal/provider"
	"github.com/cshum/drive-sync/pkg/utils"
	"github.com/urfave/cli/v2"
)

func Commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "pull",
			Usage:     "Download a remote folder tree or file",
			ArgsUsage: "<remote-id> [local-path]",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "file",
					Usage: "Treat the remote id as a single file; local-path names the target file",
				},
			},
			Action: pullAction,
		},
		{
			Name:      "push",
			Usage:     "Upload a local file or folder tree",
			ArgsUsage: "<local-path>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "parent",
					Usage: "Remote folder id to upload into (defaults to the active folder, then root)",
				},
			},
			Action: pushAction,
		},
	}
}

// Overridden in tests.
var (
	loadConfig  = config.GetConfig
	providerFor = provider.FromCLI
)

func newManager(c *cli.Context) (*SyncManager, *config.Config, error) {
	cfg := loadConfig()
	prov, err := providerFor(c, cfg)
	if err != nil {
		return nil, nil, err
	}
	sm := NewSyncManager(prov, cfg)
	sm.SetOutput(c.App.Writer)
	return sm, cfg, nil
}

func pullAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("please provide a remote id")
	}
	id := c.Args().Get(0)
	dest := c.Args().Get(1)

	sm, _, err := newManager(c)
	if err != nil {
		return err
	}
	if c.Bool("file") {
		if dest == "" {
			return fmt.Errorf("please provide the local file path")
		}
		return sm.DownloadFile(c.Context, id, dest)
	}
	if dest == "" {
		dest = "."
	}
	return sm.DownloadFolder(c.Context, id, dest)
}

func pushAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("please provide a local path")
	}
	path := c.Args().Get(0)

	sm, cfg, err := newManager(c)
	if err != nil {
		return err
	}
	parent := c.String("parent")
	if parent == "" {
		parent, _ = cfg.ActiveFolder(cfg.ProviderName(c.String("provider")))
	}

	if utils.IsDir(path) {
		_, err = sm.UploadFolder(c.Context, path, parent)
	} else {
		_, err = sm.UploadFile(c.Context, path, parent)
	}
	return err
}
