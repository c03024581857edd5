package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/uhs/uhs/internal/domain/admin"
	"github.com/uhs/uhs/internal/platform/apiclient"
	"github.com/uhs/uhs/internal/platform/session"
)

func adminService(client *apiclient.Client) *admin.Service {
	return admin.NewService(admin.NewAPIRepository(client))
}

// adminRun wraps an administrator-only command.
func adminRun(a *app, run func(cmd *cobra.Command, svc *admin.Service, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		client, _, err := a.requireRole(session.RoleAdmin)
		if err != nil {
			return report(err)
		}
		return report(run(cmd, adminService(client), args))
	}
}

func adminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator tasks: users, staff permissions, backups and imports",
	}
	cmd.AddCommand(
		adminUsersCmd(a),
		adminAssistantsCmd(a),
		adminDoctorsCmd(a),
		adminBackupCmd(a),
		adminRestoreCmd(a),
		adminImportCmd(a),
	)
	return cmd
}

func adminUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Manage portal users (list with `uhs browse users`)"}
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(a, func(cmd *cobra.Command, svc *admin.Service, args []string) error {
			if err := svc.DeleteUser(commandContext(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted user %s.\n", args[0])
			return nil
		}),
	})
	return cmd
}

func parseCanEdit(raw string) (bool, error) {
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apiclient.Invalid("canEdit", "must be true or false")
	}
	return v, nil
}

func permissionWord(canEdit bool) string {
	if canEdit {
		return "can now edit stock"
	}
	return "can no longer edit stock"
}

func adminAssistantsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "assistants", Short: "Manage nursing assistants (list with `uhs browse assistants`)"}

	var upd admin.AssistantUpdate
	update := &cobra.Command{
		Use:   "update <email>",
		Short: "Change an assistant's details",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(a, func(cmd *cobra.Command, svc *admin.Service, args []string) error {
			if err := svc.UpdateAssistant(commandContext(cmd), args[0], &upd); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Updated %s.\n", args[0])
			return nil
		}),
	}
	update.Flags().StringVar(&upd.Name, "name", "", "full name")
	update.Flags().StringVar(&upd.Phone, "phone", "", "phone number")
	update.Flags().StringVar(&upd.Gender, "gender", "", "gender")

	del := &cobra.Command{
		Use:   "delete <email>",
		Short: "Remove an assistant",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(a, func(cmd *cobra.Command, svc *admin.Service, args []string) error {
			if err := svc.DeleteAssistant(commandContext(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Removed %s.\n", args[0])
			return nil
		}),
	}

	perm := &cobra.Command{
		Use:   "stock-permission <email> <true|false>",
		Short: "Allow or forbid an assistant to edit stock",
		Args:  cobra.ExactArgs(2),
		RunE: adminRun(a, func(cmd *cobra.Command, svc *admin.Service, args []string) error {
			canEdit, err := parseCanEdit(args[1])
			if err != nil {
				return err
			}
			if err := svc.SetAssistantStockPermission(commandContext(cmd), args[0], canEdit, nil); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s %s.\n", args[0], permissionWord(canEdit))
			return nil
		}),
	}

	cmd.AddCommand(update, del, perm)
	return cmd
}

func adminDoctorsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "doctors", Short: "Manage doctors (list with `uhs browse doctors`)"}
	cmd.AddCommand(&cobra.Command{
		Use:   "stock-permission <id> <true|false>",
		Short: "Allow or forbid a doctor to edit stock",
		Args:  cobra.ExactArgs(2),
		RunE: adminRun(a, func(cmd *cobra.Command, svc *admin.Service, args []string) error {
			canEdit, err := parseCanEdit(args[1])
			if err != nil {
				return err
			}
			if err := svc.SetDoctorStockPermission(commandContext(cmd), args[0], canEdit, nil); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Doctor %s %s.\n", args[0], permissionWord(canEdit))
			return nil
		}),
	})
	return cmd
}

func adminBackupCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Download a database backup archive",
		RunE: adminRun(a, func(cmd *cobra.Command, svc *admin.Service, args []string) error {
			att, err := svc.Backup(commandContext(cmd))
			if err != nil {
				return err
			}
			return a.saveAttachment(att, out)
		}),
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "file to write (default: the server's filename)")
	return cmd
}

func adminRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <archive>",
		Short: "Restore the database from a backup archive",
		Args:  cobra.ArbitraryArgs,
		RunE: adminRun(a, func(cmd *cobra.Command, svc *admin.Service, args []string) error {
			files := make([]admin.Upload, 0, len(args))
			for _, path := range args {
				up, err := readUpload(path)
				if err != nil {
					return err
				}
				files = append(files, up)
			}
			if err := svc.Restore(commandContext(cmd), files); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Restore started.")
			return nil
		}),
	}
}

func adminImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-students <file.csv>",
		Short: "Create student accounts from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(a, func(cmd *cobra.Command, svc *admin.Service, args []string) error {
			up, err := readUpload(args[0])
			if err != nil {
				return err
			}
			res, err := svc.ImportStudents(commandContext(cmd), up)
			if err != nil {
				return err
			}
			if res.Message != "" {
				fmt.Fprintln(a.out, res.Message)
			}
			fmt.Fprintf(a.out, "Imported %d, skipped %d.\n", res.Imported, res.Skipped)
			for _, e := range res.Errors {
				fmt.Fprintln(a.out, "  "+e)
			}
			return nil
		}),
	}
}
