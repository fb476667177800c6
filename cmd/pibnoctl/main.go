package main

import (
	"Pibno/internal/client"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	tokenFile string
)

var rootCmd = &cobra.Command{
	Use:           "pibnoctl",
	Short:         "Command line client for a Pibno server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	defaultServer := os.Getenv("PIBNO_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer, "Pibno server base URL")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", "", "session token file (default ~/.pibno/token)")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, feedCmd, exportCmd, importCmd, avatarCmd)
}

func tokenPath() (string, error) {
	if tokenFile != "" {
		return tokenFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pibno", "token"), nil
}

func saveToken(token string) error {
	p, err := tokenPath()
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}
	return os.WriteFile(p, []byte(token+"\n"), 0o600)
}

// loadToken PIBNO_TOKEN 优先于本地文件
func loadToken() (string, error) {
	if token := os.Getenv("PIBNO_TOKEN"); token != "" {
		return token, nil
	}
	p, err := tokenPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", errors.New("not logged in, run `pibnoctl login` first")
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func newClient() *client.Client {
	return client.New(strings.TrimRight(serverURL, "/"))
}

func authedClient() (*client.Client, error) {
	token, err := loadToken()
	if err != nil {
		return nil, err
	}
	return newClient().SetToken(token), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
