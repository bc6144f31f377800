package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
)

const (
	dirName         = ".drivesync"
	globalFile      = "config.json"
	localFile       = "config.local.json"
	tokensDir       = "tokens"
	credentialsFile = "credentials.json"
)

// ErrNotSet is returned by lookups of keys without a value.
var ErrNotSet = errors.New("configuration value not set")

type Config struct {
	GlobalConfig map[string]interface{}
	LocalConfig  map[string]interface{}
	configDir    string
	localDir     string
}

var instance *Config

// GetConfig returns the process-wide configuration rooted at $DRIVESYNC_HOME,
// or ~/.drivesync when unset.
func GetConfig() *Config {
	if instance == nil {
		dir := os.Getenv("DRIVESYNC_HOME")
		if dir == "" {
			home, err := homedir.Dir()
			if err != nil {
				home = "."
			}
			dir = filepath.Join(home, dirName)
		}
		cwd, _ := os.Getwd()
		instance = Load(dir, cwd)
	}
	return instance
}

// Load reads the global config from dir and the nearest local config found
// walking up from cwd. Missing files leave the maps empty.
func Load(dir, cwd string) *Config {
	c := &Config{
		GlobalConfig: make(map[string]interface{}),
		LocalConfig:  make(map[string]interface{}),
		configDir:    dir,
	}
	c.loadGlobalConfig()
	if cwd != "" {
		c.loadLocalConfig(cwd)
	}
	return c
}

func (c *Config) Dir() string {
	return c.configDir
}

func (c *Config) loadGlobalConfig() {
	data, err := os.ReadFile(filepath.Join(c.configDir, globalFile))
	if err == nil {
		json.Unmarshal(data, &c.GlobalConfig)
	}
}

func (c *Config) loadLocalConfig(cwd string) {
	c.localDir = filepath.Join(cwd, dirName)
	for {
		configFile := filepath.Join(cwd, dirName, localFile)
		data, err := os.ReadFile(configFile)
		if err == nil {
			json.Unmarshal(data, &c.LocalConfig)
			c.localDir = filepath.Join(cwd, dirName)
			return
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}
}

func (c *Config) Get(key string) interface{} {
	if value, ok := c.LocalConfig[key]; ok {
		return value
	}
	return c.GlobalConfig[key]
}

// GetString returns the value of key rendered as a string, or def when unset.
func (c *Config) GetString(key, def string) string {
	switch v := c.Get(key).(type) {
	case nil:
		return def
	case string:
		if v == "" {
			return def
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetFloat parses the value of key as a number. Values written by
// "config set" are strings and are parsed here.
func (c *Config) GetFloat(key string, def float64) float64 {
	switch v := c.Get(key).(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return def
		}
		return f
	default:
		return def
	}
}

func (c *Config) GetBool(key string) bool {
	switch v := c.Get(key).(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// GetList splits a comma separated value into trimmed, non-empty items.
func (c *Config) GetList(key string) []string {
	var items []string
	for _, s := range strings.Split(c.GetString(key, ""), ",") {
		if s = strings.TrimSpace(s); s != "" {
			items = append(items, s)
		}
	}
	return items
}

func (c *Config) Set(key string, value interface{}, local bool) error {
	if local {
		if value == nil {
			delete(c.LocalConfig, key)
		} else {
			c.LocalConfig[key] = value
		}
		return c.saveLocalConfig()
	}
	if value == nil {
		delete(c.GlobalConfig, key)
	} else {
		c.GlobalConfig[key] = value
	}
	return c.saveGlobalConfig()
}

func (c *Config) saveGlobalConfig() error {
	if err := os.MkdirAll(c.configDir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.GlobalConfig, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, globalFile), data, 0644)
}

func (c *Config) saveLocalConfig() error {
	if c.localDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		c.localDir = filepath.Join(cwd, dirName)
	}
	if err := os.MkdirAll(c.localDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c.LocalConfig, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.localDir, localFile), data, 0644)
}

// ProviderName resolves the provider to use: the flag value when given,
// then the "provider" key, then gdrive.
func (c *Config) ProviderName(flag string) string {
	if flag != "" {
		return flag
	}
	return c.GetString("provider", "gdrive")
}

// CredentialsFile is the OAuth client secrets file of the installed app.
func (c *Config) CredentialsFile() string {
	return c.GetString("credentials_file", filepath.Join(c.configDir, tokensDir, credentialsFile))
}

func (c *Config) TokenPath(provider string) string {
	return filepath.Join(c.configDir, tokensDir, provider+".json")
}

// ReadToken returns the cached credential document of provider.
func (c *Config) ReadToken(provider string) ([]byte, error) {
	data, err := os.ReadFile(c.TokenPath(provider))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no token cached for provider %s: %w", provider, ErrNotSet)
	}
	return data, err
}

// WriteToken caches the credential document of provider, readable by the
// owner only.
func (c *Config) WriteToken(provider string, data []byte) error {
	path := c.TokenPath(provider)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ClearTokens removes the cached tokens of providers. The client secrets
// file is never removed, even when it sits next to the tokens.
func (c *Config) ClearTokens(providers []string) error {
	secrets, _ := filepath.Abs(c.CredentialsFile())
	for _, p := range c.GetProvidersWithTokens(providers) {
		path := c.TokenPath(p)
		if abs, _ := filepath.Abs(path); abs == secrets {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// GetProvidersWithTokens returns the sorted subset of providers that have
// a cached token.
func (c *Config) GetProvidersWithTokens(providers []string) []string {
	var found []string
	for _, p := range providers {
		if info, err := os.Stat(c.TokenPath(p)); err == nil && !info.IsDir() {
			found = append(found, p)
		}
	}
	sort.Strings(found)
	return found
}

// SetActiveFolder records the default upload folder picked on provider.
func (c *Config) SetActiveFolder(provider, id, name string) error {
	for key, value := range map[string]interface{}{
		"active_folder_id":       id,
		"active_folder_name":     name,
		"active_folder_provider": provider,
	} {
		if err := c.Set(key, value, false); err != nil {
			return err
		}
	}
	return nil
}

// ClearActiveFolder forgets the default upload folder.
func (c *Config) ClearActiveFolder() error {
	for _, key := range []string{"active_folder_id", "active_folder_name", "active_folder_provider"} {
		if err := c.Set(key, nil, false); err != nil {
			return err
		}
	}
	return nil
}

// ActiveFolder returns the default upload folder for provider. A folder
// picked on another provider is ignored and the root is returned instead.
func (c *Config) ActiveFolder(provider string) (id, name string) {
	if owner := c.GetString("active_folder_provider", ""); owner != "" && owner != provider {
		return "", "root"
	}
	id = c.GetString("active_folder_id", "")
	if id == "" {
		return "", "root"
	}
	return id, c.GetString("active_folder_name", id)
}

func Command() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage drivesync configuration",
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Set a configuration value",
				ArgsUsage: "<key> <value>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "local",
						Usage: "Set the value in the local configuration",
					},
				},
				Action: setConfig,
			},
			{
				Name:      "unset",
				Usage:     "Remove a configuration value",
				ArgsUsage: "<key>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "local",
						Usage: "Remove the value from the local configuration",
					},
				},
				Action: unsetConfig,
			},
			{
				Name:      "get",
				Usage:     "Get a configuration value",
				ArgsUsage: "<key>",
				Action:    getConfig,
			},
			{
				Name:   "ls",
				Usage:  "List all configuration values",
				Action: listConfig,
			},
		},
	}
}

func setConfig(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("please provide both key and value")
	}
	return GetConfig().Set(c.Args().Get(0), c.Args().Get(1), c.Bool("local"))
}

func unsetConfig(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("please provide a key")
	}
	return GetConfig().Set(c.Args().Get(0), nil, c.Bool("local"))
}

func getConfig(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("please provide a key")
	}

	key := c.Args().Get(0)
	value := GetConfig().Get(key)
	if value == nil {
		fmt.Fprintf(c.App.Writer, "Configuration %s is not set\n", key)
	} else {
		fmt.Fprintf(c.App.Writer, "%s: %v\n", key, value)
	}
	return nil
}

func listConfig(c *cli.Context) error {
	cfg := GetConfig()
	combinedConfig := make(map[string]interface{})

	for k, v := range cfg.GlobalConfig {
		combinedConfig[k] = v
	}
	for k, v := range cfg.LocalConfig {
		combinedConfig[k] = v
	}

	data, err := json.MarshalIndent(combinedConfig, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
