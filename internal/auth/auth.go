package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/cshum/drive-sync/internal/config"
	"github.com/urfave/cli/v2"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Subcommands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with the storage provider",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "device",
						Usage: "Use the device code flow instead of a local callback server (needs a TV/limited input client and drive_scope=file for gdrive)",
					},
				},
				Action: login,
			},
			{
				Name:   "logout",
				Usage:  "Remove all cached credentials",
				Action: logout,
			},
			{
				Name:   "ls",
				Usage:  "List all authenticated providers",
				Action: list,
			},
		},
	}
}

func login(c *cli.Context) error {
	cfg := config.GetConfig()
	providerName := cfg.ProviderName(c.String("provider"))
	a, err := NewAuthenticator(cfg, providerName)
	if err != nil {
		return err
	}
	a.Out = c.App.Writer
	if c.Bool("device") {
		a.Method = MethodDevice
	}

	if _, err := a.Login(c.Context); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Successfully authenticated with %s. Token stored in %s\n", providerName, cfg.TokenPath(providerName))
	return nil
}

func logout(c *cli.Context) error {
	if err := config.GetConfig().ClearTokens(Providers()); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Logged out from all providers successfully.")
	return nil
}

func list(c *cli.Context) error {
	cfg := config.GetConfig()
	providers := cfg.GetProvidersWithTokens(Providers())
	if len(providers) == 0 {
		fmt.Fprintln(c.App.Writer, "No authenticated providers found.")
		return nil
	}

	fmt.Fprintln(c.App.Writer, "Authenticated providers:")
	for _, p := range providers {
		cred, err := NewStore(cfg, p).Load()
		if err != nil && !errors.Is(err, ErrNoCredentials) {
			fmt.Fprintf(c.App.Writer, "  - %s (unreadable: %v)\n", p, err)
			continue
		}
		fmt.Fprintf(c.App.Writer, "  - %s (%s)\n", p, describe(cred))
	}
	return nil
}

func describe(cred *Credential) string {
	switch {
	case cred == nil:
		return "missing"
	case cred.Valid() && cred.Expiry.IsZero():
		return "valid"
	case cred.Valid():
		return "valid until " + cred.Expiry.Local().Format(time.RFC3339)
	case cred.RefreshToken != "":
		return "expired, will refresh"
	default:
		return "expired"
	}
}
