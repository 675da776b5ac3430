// Package cli 实现了 docctl 命令行工具，命令通过 view 控制器驱动 pkg/client。
package cli

import (
	"bufio"
	"docbase-go/pkg/client"
	"docbase-go/pkg/log"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	defaultServer  = "http://localhost:8080"
	configFileName = ".docctl.yaml"
)

var (
	cfgFile string
	verbose bool

	// api 在 PersistentPreRunE 中根据配置创建。
	api *client.Client
)

var rootCmd = &cobra.Command{
	Use:           "docctl",
	Short:         "Command line client for the docbase knowledge base",
	Long:          `Browse, edit and tag documents, manage tags and chat with other users.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := initConfig(cmd); err != nil {
			return err
		}
		if verbose {
			log.Init("debug", "console", "")
		}
		c, err := client.New(viper.GetString("server"), client.WithToken(viper.GetString("token")))
		if err != nil {
			return err
		}
		api = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/"+configFileName+")")
	rootCmd.PersistentFlags().String("server", defaultServer, "docbase server base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute 运行根命令。
func Execute() error {
	return rootCmd.Execute()
}

// initConfig 读取配置文件和 DOCCTL_ 前缀的环境变量，命令行参数优先。
func initConfig(cmd *cobra.Command) error {
	viper.SetConfigFile(configPath())
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("DOCCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.SetDefault("server", defaultServer)
	if err := viper.BindPFlag("server", cmd.Root().PersistentFlags().Lookup("server")); err != nil {
		return err
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(home, configFileName)
}

// saveConfig 把当前 viper 中的凭据写回配置文件。
func saveConfig() error {
	path := configPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return os.Chmod(path, 0o600)
}

// confirm 在终端上询问 y/N。
func confirm(cmd *cobra.Command, prompt string) bool {
	cmd.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	answer, _ := reader.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
