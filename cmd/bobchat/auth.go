package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bobchat/cli/internal/auth"
	"github.com/spf13/cobra"
)

// prompt reads a line from in when value is empty
func prompt(in *bufio.Reader, out io.Writer, label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(out, "%s: ", label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			var err error
			if email, err = prompt(in, out, "Email", email); err != nil {
				return err
			}
			if password, err = prompt(in, out, "Password", password); err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.auth.Login(ctx, email, password); err != nil {
				return fmt.Errorf("%s", auth.ErrorMessage(err))
			}

			line := "Logged in"
			if token, _ := a.auth.Token(ctx); token != "" {
				if id, err := auth.ParseIdentity(token); err == nil && id.Subject != "" {
					line += " as " + id.Subject
				}
			}
			fmt.Fprintln(out, line)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newSignupCmd() *cobra.Command {
	var form auth.SignupForm

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			fields := []struct {
				label string
				value *string
			}{
				{"Username", &form.Username},
				{"Email", &form.Email},
				{"Password", &form.Password},
				{"Confirm password", &form.ConfirmPassword},
			}
			for _, f := range fields {
				value, err := prompt(in, out, f.label, *f.value)
				if err != nil {
					return err
				}
				*f.value = value
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			message, err := a.auth.Signup(ctx, form)
			if err != nil {
				return fmt.Errorf("%s", auth.ErrorMessage(err))
			}
			if message == "" {
				message = "Signup successful!"
			}
			fmt.Fprintln(out, message, "Please login now.")
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Username, "username", "", "user name")
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "password")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "password again")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
