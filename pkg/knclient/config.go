package knclient

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/function61/gokit/ezhttp"
	"github.com/function61/gokit/fileexists"
	"github.com/function61/gokit/jsonfile"
	"github.com/function61/gokit/osutil"
	"github.com/spf13/cobra"
)

const (
	configFilename = "knowledgesync-config.json"

	envHostname = "OWUI_HOSTNAME"
	envAPIKey   = "OWUI_API_KEY"
)

type ClientConfig struct {
	ServerAddr                string `json:"server_addr"` // example: "https://owui.example.com"
	AuthToken                 string `json:"auth_token"`
	TlsInsecureSkipValidation bool   `json:"tls_insecure_skip_validation"`
}

func (c *ClientConfig) ApiPath(path string) string {
	return c.ServerAddr + "/api/v1" + path
}

func (c *ClientConfig) HttpClient() *http.Client {
	client := http.DefaultClient

	if c.TlsInsecureSkipValidation {
		client = ezhttp.InsecureTlsClient
	}

	return client
}

func (c *ClientConfig) Validate() error {
	if c.ServerAddr == "" {
		return errors.New("server_addr not set")
	}

	if strings.HasSuffix(c.ServerAddr, "/") {
		return fmt.Errorf("server_addr must not end in '/'; got %s", c.ServerAddr)
	}

	if c.AuthToken == "" {
		return errors.New("auth_token not set")
	}

	return nil
}

func WriteConfig(conf *ClientConfig) error {
	confPath, err := ConfigFilePath()
	if err != nil {
		return err
	}

	return WriteConfigWithPath(conf, confPath)
}

func WriteConfigWithPath(conf *ClientConfig, confPath string) error {
	return jsonfile.Write(confPath, conf)
}

func ReadConfig() (*ClientConfig, error) {
	confPath, err := ConfigFilePath()
	if err != nil {
		return nil, fmt.Errorf("knowledgesync config: %w", err)
	}

	return ReadConfigWithPath(confPath, os.Getenv)
}

// config file is optional if the environment provides the settings. environment wins.
func ReadConfigWithPath(confPath string, getenv func(string) string) (*ClientConfig, error) {
	conf := &ClientConfig{}

	exists, err := fileexists.Exists(confPath)
	if err != nil {
		return nil, fmt.Errorf("knowledgesync config: %w", err)
	}

	if exists {
		if err := jsonfile.Read(confPath, conf, true); err != nil {
			return nil, fmt.Errorf("knowledgesync config: %w", err)
		}
	}

	if hostname := getenv(envHostname); hostname != "" {
		conf.ServerAddr = "https://" + hostname
	}

	if apiKey := getenv(envAPIKey); apiKey != "" {
		conf.AuthToken = apiKey
	}

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("knowledgesync config %s: %w", confPath, err)
	}

	return conf, nil
}

func ConfigFilePath() (string, error) {
	usersHomeDirectory, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(usersHomeDirectory, configFilename), nil
}

func configInitEntrypoint() *cobra.Command {
	insecure := false

	cmd := &cobra.Command{
		Use:   "config-init [serverAddr] [authToken]",
		Short: "Initialize configuration",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			confPath, err := ConfigFilePath()
			osutil.ExitIfError(err)

			exists, err := fileexists.Exists(confPath)
			osutil.ExitIfError(err)

			if exists {
				osutil.ExitIfError(errors.New("config file already exists"))
			}

			conf := &ClientConfig{
				ServerAddr:                args[0],
				AuthToken:                 args[1],
				TlsInsecureSkipValidation: insecure,
			}

			osutil.ExitIfError(conf.Validate())

			osutil.ExitIfError(WriteConfig(conf))
		},
	}

	cmd.Flags().BoolVarP(&insecure, "insecure", "", insecure, "Skip TLS certificate validation")

	return cmd
}

func configPrintEntrypoint() *cobra.Command {
	return &cobra.Command{
		Use:   "config-print",
		Short: "Prints path to config file & its contents",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			confPath, err := ConfigFilePath()
			osutil.ExitIfError(err)

			fmt.Printf("file: %s\n", confPath)

			exists, err := fileexists.Exists(confPath)
			osutil.ExitIfError(err)

			if !exists {
				fmt.Printf(".. does not exist. To configure, run:\n    $ %s config-init\n", os.Args[0])
				fmt.Printf(".. or set %s and %s\n", envHostname, envAPIKey)
				return
			}

			file, err := os.Open(confPath)
			osutil.ExitIfError(err)
			defer file.Close()

			_, err = io.Copy(os.Stdout, file)
			osutil.ExitIfError(err)
		},
	}
}
