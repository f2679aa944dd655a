package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawldash/internal/credential"
)

var (
	// errNoEmail is returned when login or register runs without --email.
	errNoEmail = errors.New("email is required: use --email")

	// errNoPassword is returned when no password could be read.
	errNoPassword = errors.New("password is required")
)

// NewLoginCmd creates the login command.
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the report API and store the token",
		Long: `Login exchanges an email and password for a bearer token and stores it in
the credential file. Later commands send it with every request.

The password is read from the terminal, or from standard input with
--password-stdin.

Examples:
  crawldash login --email me@example.com
  echo "$PASSWORD" | crawldash login --email me@example.com --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAuthCmd(cmd, false)
		},
	}

	addAuthFlags(cmd)
	return cmd
}

// NewRegisterCmd creates the register command.
func NewRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the report API and store the token",
		Long: `Register creates an account with an email and password, then stores the
issued token like login does.

Examples:
  crawldash register --email me@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAuthCmd(cmd, true)
		},
	}

	addAuthFlags(cmd)
	return cmd
}

// NewLogoutCmd creates the logout command.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.creds.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Logged out. Removed %s\n", a.creds.Path())
			return nil
		},
	}
}

// addAuthFlags adds the flags shared by login and register.
func addAuthFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("email", "e", "", "Account email")
	cmd.Flags().Bool("password-stdin", false, "Read the password from standard input")
}

// runAuthCmd reads the email and password, logs in or registers and stores
// the token.
func runAuthCmd(cmd *cobra.Command, register bool) error {
	email, err := cmd.Flags().GetString("email")
	if err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return errNoEmail
	}
	fromStdin, err := cmd.Flags().GetBool("password-stdin")
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if !fromStdin {
		fmt.Fprint(a.stdout, "Password: ")
	}
	password, err := readPassword(cmd.InOrStdin())
	if err != nil {
		return err
	}
	if !fromStdin {
		fmt.Fprintln(a.stdout)
	}

	ctx, cancel := signalContext(cmd, a.logger)
	defer cancel()

	// A stored token may have expired, so none is sent.
	client, err := a.newClient(nil)
	if err != nil {
		return err
	}
	login, done := client.Login, "Logged in"
	if register {
		login, done = client.Register, "Registered"
	}
	token, err := login(ctx, email, password)
	if err != nil {
		// Not wrapped: a rejected password is not a missing login.
		return fmt.Errorf("authentication failed: %v", err) //nolint:errorlint // See above
	}

	if err := a.creds.Save(credential.Credential{
		Token:  token,
		Email:  email,
		APIURL: a.cfg.APIURL,
	}); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "%s as %s. Token stored in %s\n", done, email, a.creds.Path())
	if exp, err := credential.ExpiresAt(token); err == nil {
		fmt.Fprintf(a.stdout, "The token expires at %s (in %s).\n",
			exp.Local().Format(time.DateTime), time.Until(exp).Round(time.Minute))
	}
	return nil
}

// readPassword reads one line from r without its line ending.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errNoPassword
	}
	return password, nil
}
