package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email string
	password := &passwordFlags{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the admin session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := password.resolve(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			result, err := a.sessions.Login(cmd.Context(), email, secret)
			if err != nil {
				return err
			}
			return a.printer.print(result.Admin)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address of the admin")
	password.register(cmd, "password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var email string
	password := &passwordFlags{}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := password.resolve(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			result, err := a.sessions.Register(cmd.Context(), email, secret)
			if err != nil {
				return err
			}
			return a.printer.print(result.Admin)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address of the new admin")
	password.register(cmd, "password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the admin session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			err = a.sessions.Logout(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "logged out of session %q\n", a.store.Name())
			return err
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the admin of the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			admin, err := a.sessions.CurrentAdmin(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.print(admin)
		},
	}
}

// newTokenCmd prints a valid access token, refreshing the session first when it is about to expire.
func newTokenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print the access token of the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			token, err := a.client.TokenSource(cmd.Context()).Token()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)
			return err
		},
	}
}
