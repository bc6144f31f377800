package main

import (
	"fmt"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/cshum/drive-sync/internal/auth"
	"github.com/cshum/drive-sync/internal/config"
	"github.com/cshum/drive-sync/internal/folder"
	"github.com/cshum/drive-sync/internal/menu"
	"github.com/cshum/drive-sync/internal/provider"
	"github.com/cshum/drive-sync/internal/sync"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "drivesync",
		Usage: "Browse, download, upload and delete files in cloud storage",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Storage provider: " + strings.Join(provider.Names, ", ") + " (defaults to the configured provider)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn or error (defaults to the configured log_level)",
			},
		},
		Before: before,
		Commands: append([]*cli.Command{
			auth.Command(),
			config.Command(),
			folder.Command(),
			menu.Command(),
		}, sync.Commands()...),
		Action: menu.Action,
	}
}

func before(c *cli.Context) error {
	if name := c.String("provider"); name != "" && !slices.Contains(provider.Names, name) {
		return fmt.Errorf("unsupported provider: %s (choose one of %s)", name, strings.Join(provider.Names, ", "))
	}
	return setupLogging(c)
}

func setupLogging(c *cli.Context) error {
	name := c.String("log-level")
	if name == "" {
		name = config.GetConfig().GetString("log_level", "info")
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	return nil
}
