package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/localstore"
	"github.com/jeffreyruoss/ru-mega-kanban/internal/paths"
	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

// configFile holds the structure written to config.yaml by init.
type configFile struct {
	Backend     string `yaml:"backend"`
	DataDir     string `yaml:"data_dir,omitempty"`
	ProjectName string `yaml:"project_name,omitempty"`
}

func newInitCmd() *cobra.Command {
	var (
		force   bool
		backend string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize megakanban storage",
		Long: "Create the configuration and data directories, write config.yaml, and\n" +
			"initialize the local store. An existing config.yaml is kept unless --force is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, backend, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config.yaml")
	cmd.Flags().StringVar(&backend, "backend", types.BackendSQLite, "local store backend (sqlite or json)")
	return cmd
}

func runInit(cmd *cobra.Command, backend string, force bool) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return sysError(fmt.Errorf("create config directory: %w", err))
	}

	configPath := filepath.Join(configDir, configFileExt)
	existing := readConfigFile(configPath)
	if existing.Backend != "" && !force {
		backend = existing.Backend
	}

	dataDir, err := paths.ResolveDataDir(flags.dataDir, existing.DataDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve data dir: %w", err))
	}

	cfg := types.Config{Backend: backend, DataDir: dataDir}
	if err := cfg.Validate(); err != nil {
		return userError(err)
	}

	configDataDir := flags.dataDir
	if configDataDir == "" {
		configDataDir = existing.DataDir
	}
	if err := writeConfig(configPath, configFile{
		Backend:     backend,
		DataDir:     configDataDir,
		ProjectName: existing.ProjectName,
	}, force); err != nil {
		return sysError(fmt.Errorf("write config: %w", err))
	}

	store, err := localstore.Open(cfg)
	if err != nil {
		return sysError(fmt.Errorf("initialize storage: %w", err))
	}
	if err := store.Close(); err != nil {
		return sysError(fmt.Errorf("finalize storage: %w", err))
	}

	if flags.jsonMode {
		return printJSON(cmd, map[string]string{
			"config":  configPath,
			"dataDir": dataDir,
			"backend": backend,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Mega Kanban initialized successfully")
	fmt.Fprintf(cmd.OutOrStdout(), "config: %s\ndata:   %s (%s)\n", configPath, dataDir, backend)
	return nil
}

// writeConfig writes config.yaml unless it exists and force is false.
func writeConfig(path string, cfg configFile, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return nil
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// readConfigFile reads the init-managed keys of an existing config.yaml.
// A missing or unreadable file yields the zero value.
func readConfigFile(path string) configFile {
	data, err := os.ReadFile(path)
	if err != nil {
		return configFile{}
	}

	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return configFile{}
	}
	return cfg
}
