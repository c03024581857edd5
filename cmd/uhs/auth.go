package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uhs/uhs/internal/domain/identity"
	"github.com/uhs/uhs/internal/platform/session"
)

func (a *app) identity() *identity.Service {
	return identity.NewService(identity.NewAPIRepository(a.client))
}

// prompt writes label and reads one line from the command's input.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	if a.lines == nil {
		a.lines = bufio.NewReader(a.in)
	}
	line, err := a.lines.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimSpace(line), nil
}

func (a *app) begin(s *session.Session) error {
	if err := a.store.Save(s); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s).\n", s.Email, strings.Join(s.Roles, ", "))
	return nil
}

func loginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as an administrator, doctor or nursing assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := a.prompt("Password: ")
				if err != nil {
					return err
				}
				password = p
			}
			s, err := a.identity().AdminSignIn(commandContext(cmd), email, password)
			if err != nil {
				return report(err)
			}
			return a.begin(s)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func otpCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "otp",
		Short: "Sign in as a student with an emailed one-time code",
	}

	send := &cobra.Command{
		Use:   "send <email>",
		Short: "Email a one-time code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.identity().SendOTP(commandContext(cmd), args[0])
			if err != nil {
				return report(err)
			}
			fmt.Fprintln(a.out, messageOr(msg, "Code sent. Check your inbox."))
			return nil
		},
	}

	verify := &cobra.Command{
		Use:   "verify <email> <code>",
		Short: "Exchange a one-time code for a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.identity().VerifyOTP(commandContext(cmd), args[0], args[1])
			if err != nil {
				return report(err)
			}
			return a.begin(s)
		},
	}

	cmd.AddCommand(send, verify)
	return cmd
}

func messageOr(m *identity.Message, fallback string) string {
	if m != nil && m.Message != "" {
		return m.Message
	}
	return fallback
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return report(err)
			}
			if _, err := s.Token(); err != nil {
				return report(err)
			}
			fmt.Fprintf(a.out, "email:  %s\nroles:  %s\n", s.Email, strings.Join(s.Roles, ", "))
			if s.AppointmentID != "" {
				fmt.Fprintf(a.out, "appointment: %s\n", s.AppointmentID)
			}
			return nil
		},
	}
}

func verifyUserCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-user <code>",
		Short: "Confirm an account with the code from its invitation email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.identity().VerifyUser(commandContext(cmd), args[0])
			if err != nil {
				return report(err)
			}
			fmt.Fprintln(a.out, messageOr(msg, "Account verified."))
			return nil
		},
	}
}

func passwordCmd(a *app) *cobra.Command {
	var pc identity.PasswordChange
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Set a new password with the code from a reset email",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if pc.Password == "" {
				if pc.Password, err = a.prompt("New password: "); err != nil {
					return err
				}
			}
			if pc.ConfirmPassword == "" {
				if pc.ConfirmPassword, err = a.prompt("Confirm password: "); err != nil {
					return err
				}
			}
			msg, err := a.identity().ChangePassword(commandContext(cmd), pc)
			if err != nil {
				return report(err)
			}
			fmt.Fprintln(a.out, messageOr(msg, "Password changed. You can sign in now."))
			return nil
		},
	}
	cmd.Flags().StringVar(&pc.Code, "code", "", "code from the reset email")
	cmd.Flags().StringVar(&pc.Role, "role", "", "account role (admin, doctor, ad)")
	cmd.Flags().StringVar(&pc.Password, "new-password", "", "new password (prompted when omitted)")
	cmd.Flags().StringVar(&pc.ConfirmPassword, "confirm", "", "repeat the new password (prompted when omitted)")
	return cmd
}
