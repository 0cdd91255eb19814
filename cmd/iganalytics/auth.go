package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"iganalytics/pkg/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Instagram credentials",
	Long: `Manage stored Instagram credentials.

Credentials unlock follower and following enumeration. They are stored
using, in order of preference:
  - the system keychain (when available)
  - an encrypted file with PBKDF2 key derivation
  - INSTA_USERNAME / INSTA_PASSWORD environment variables (read-only)

Never share your credentials or config files.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store Instagram credentials",
	Example: `  # Interactive login
  iganalytics auth login

  # Login with username, prompt for password
  iganalytics auth login myusername`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored credentials",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List stored accounts",
	RunE:  runAuthStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	}
	if username == "" {
		fmt.Print("Instagram username: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) == 0 {
		return fmt.Errorf("password is required")
	}

	account := &auth.Account{Username: username, Password: string(password)}
	if err := manager.Store(account); err != nil {
		return err
	}
	fmt.Printf("Credentials stored for @%s\n", username)
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if len(args) > 0 {
		username := strings.TrimSpace(args[0])
		if err := manager.Delete(username); err != nil {
			return err
		}
		fmt.Printf("Removed credentials for @%s\n", username)
		return nil
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("No stored accounts.")
		return nil
	}
	for _, account := range accounts {
		if err := manager.Delete(account.Username); err != nil {
			fmt.Printf("Could not remove @%s: %v\n", account.Username, err)
			continue
		}
		fmt.Printf("Removed credentials for @%s\n", account.Username)
	}
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("No stored accounts. Run \"iganalytics auth login\" to add one.")
		return nil
	}

	fmt.Println("Stored accounts:")
	for _, account := range accounts {
		masked := auth.Sanitize(account)
		fmt.Printf("  @%s (password %s, updated %s)\n",
			masked.Username, masked.Password, masked.LastModified.Format("2006-01-02 15:04"))
	}
	return nil
}
