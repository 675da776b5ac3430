package cli

import (
	"bufio"
	"context"
	"docbase-go/internal/model"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in and store the access token",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the stored access token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var (
	registerEmail    string
	registerPassword string
)

var registerCmd = &cobra.Command{
	Use:   "register [username]",
	Short: "Create a new account",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegister,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the current user",
	Args:  cobra.NoArgs,
	RunE:  runProfile,
}

var profileEmailCmd = &cobra.Command{
	Use:   "email [new-address]",
	Short: "Change the current user's email address",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileEmail,
}

func init() {
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prompted when omitted)")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "email address")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "password (prompted when omitted)")

	profileCmd.AddCommand(profileEmailCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(profileCmd)
}

// readPassword 在终端上不回显地读取密码，非终端时按行读取。
func readPassword(cmd *cobra.Command) string {
	cmd.Print("Password: ")
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		cmd.Println()
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func runLogin(cmd *cobra.Command, args []string) error {
	password := loginPassword
	if password == "" {
		password = readPassword(cmd)
	}
	tokens, err := api.Login(context.Background(), args[0], password)
	if err != nil {
		if errors.Is(err, model.ErrUnauthorized) {
			return errors.New("invalid username or password")
		}
		return fmt.Errorf("login failed: %w", err)
	}

	viper.Set("token", tokens.AccessToken)
	viper.Set("refresh_token", tokens.RefreshToken)
	if err := saveConfig(); err != nil {
		return err
	}
	cmd.Printf("Logged in as %s\n", args[0])
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	if api.Token() != "" {
		if err := api.Logout(context.Background()); err != nil && !errors.Is(err, model.ErrUnauthorized) {
			return fmt.Errorf("logout failed: %w", err)
		}
	}
	viper.Set("token", "")
	viper.Set("refresh_token", "")
	if err := saveConfig(); err != nil {
		return err
	}
	cmd.Println("Logged out")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	password := registerPassword
	if password == "" {
		password = readPassword(cmd)
	}
	user, err := api.Register(context.Background(), args[0], registerEmail, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	cmd.Printf("Registered user %s (id %d)\n", user.Username, user.ID)
	return nil
}

func runProfile(cmd *cobra.Command, _ []string) error {
	user, err := api.Me(context.Background())
	if err != nil {
		return notLoggedIn(err)
	}
	cmd.Printf("User:     %s\n", user.Username)
	cmd.Printf("ID:       %d\n", user.ID)
	cmd.Printf("Email:    %s\n", user.Email)
	cmd.Printf("Role:     %s\n", user.Role)
	cmd.Printf("Created:  %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runProfileEmail(cmd *cobra.Command, args []string) error {
	user, err := api.UpdateEmail(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to update email: %w", notLoggedIn(err))
	}
	cmd.Printf("Email updated to %s\n", user.Email)
	return nil
}

// notLoggedIn 把 401 转换为提示用户登录的错误。
func notLoggedIn(err error) error {
	if errors.Is(err, model.ErrUnauthorized) {
		return errors.New("not logged in: run 'docctl login <username>' first")
	}
	return err
}
