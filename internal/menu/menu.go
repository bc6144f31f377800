package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cshum/drive-sync/internal/browse"
	"github.com/cshum/drive-sync/internal/config"
	"github.com/cshum/drive-sync/internal/provider"
	"github.com/cshum/drive-sync/internal/sync"
	"github.com/cshum/drive-sync/providerapi"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	warnColor  = color.New(color.FgRed)
)

func Command() *cli.Command {
	return &cli.Command{
		Name:   "menu",
		Usage:  "Run the interactive download / upload / delete menu",
		Action: Action,
	}
}

// Action runs the menu against the selected provider, reading answers from
// the app's reader.
func Action(c *cli.Context) error {
	cfg := config.GetConfig()
	prov, err := provider.FromCLI(c, cfg)
	if err != nil {
		return err
	}
	sm := sync.NewSyncManager(prov, cfg)
	sm.SetOutput(c.App.Writer)
	b := browse.NewBrowser(sm, bufio.NewReader(c.App.Reader), c.App.Writer)
	return New(b, cfg, cfg.ProviderName(c.String("provider")), prov.Name(), c.App.Writer).Run(c.Context)
}

type Menu struct {
	browser  *browse.Browser
	cfg      *config.Config
	provider string
	title    string
	out      io.Writer
}

// New builds a menu for the provider configured under providerName; title
// is its display name.
func New(b *browse.Browser, cfg *config.Config, providerName, title string, out io.Writer) *Menu {
	return &Menu{browser: b, cfg: cfg, provider: providerName, title: title, out: out}
}

// Run loops until the user exits or input ends. Remote failures end the
// loop with the error.
func (m *Menu) Run(ctx context.Context) error {
	for {
		titleColor.Fprintf(m.out, "\n========= %s Manager =========\n", m.title)
		fmt.Fprintf(m.out, "1. Download from %s\n", m.title)
		fmt.Fprintf(m.out, "2. Upload to %s\n", m.title)
		fmt.Fprintf(m.out, "3. Delete from %s\n", m.title)
		fmt.Fprintln(m.out, "4. Exit")

		choice, err := m.browser.Prompt("Select an option: ")
		if errors.Is(err, browse.ErrQuit) {
			fmt.Fprintln(m.out, "Exiting...")
			return nil
		}
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = m.download(ctx)
		case "2":
			err = m.upload(ctx)
		case "3":
			err = m.browser.ForDelete(ctx, providerapi.RootID)
		case "4":
			fmt.Fprintln(m.out, "Exiting...")
			return nil
		default:
			warnColor.Fprintln(m.out, "Invalid choice. Try again.")
			continue
		}
		if err != nil && !errors.Is(err, browse.ErrQuit) {
			return err
		}
	}
}

func (m *Menu) download(ctx context.Context) error {
	base, err := m.pathOrDefault("Enter base local download path (default is current directory): ")
	if err != nil {
		return err
	}
	return m.browser.ForDownload(ctx, providerapi.RootID, base)
}

func (m *Menu) upload(ctx context.Context) error {
	base, err := m.pathOrDefault("Enter local base folder to browse (default is current directory): ")
	if err != nil {
		return err
	}
	parentID, name := m.cfg.ActiveFolder(m.provider)
	fmt.Fprintf(m.out, "Uploading into %s\n", name)
	return m.browser.LocalForUpload(ctx, base, parentID)
}

func (m *Menu) pathOrDefault(question string) (string, error) {
	answer, err := m.browser.Prompt(question)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return ".", nil
	}
	return answer, nil
}
