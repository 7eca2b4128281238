package main

import (
	"fmt"

	"github.com/agencydesk/console/internal/console"
	"github.com/agencydesk/console/internal/models"
	"github.com/spf13/cobra"
)

// resourceCommands builds the subcommands shared by agencies and companies.
type resourceCommands[R any, I any] struct {
	opts     *rootOptions
	noun     string
	resource func(a *app) *console.Resource[R, I]
}

func (r resourceCommands[R, I]) command(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}
	cmd.AddCommand(r.list())
	cmd.AddCommand(r.create())
	cmd.AddCommand(r.update())
	cmd.AddCommand(r.delete())
	cmd.AddCommand(r.approve())
	cmd.AddCommand(r.reject())
	return cmd
}

func (r resourceCommands[R, I]) list() *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + r.noun + " records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, r.opts)
			if err != nil {
				return err
			}
			result, err := r.resource(a).List(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			return a.printer.print(result)
		},
	}
	cmd.Flags().IntVar(&page, "page", console.DefaultPage, "page to show")
	cmd.Flags().IntVar(&limit, "limit", console.DefaultLimit, "records per page")
	return cmd
}

func (r resourceCommands[R, I]) create() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a " + r.noun + " record from a YAML or JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var input I
			err := readRecordInput(cmd, file, &input)
			if err != nil {
				return err
			}
			a, err := newApp(cmd, r.opts)
			if err != nil {
				return err
			}
			record, err := r.resource(a).Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			return a.printer.print(record)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "file with the record, - reads stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (r resourceCommands[R, I]) update() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace the details of a " + r.noun + " record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			var input I
			err = readRecordInput(cmd, file, &input)
			if err != nil {
				return err
			}
			a, err := newApp(cmd, r.opts)
			if err != nil {
				return err
			}
			record, err := r.resource(a).Update(cmd.Context(), id, input)
			if err != nil {
				return err
			}
			return a.printer.print(record)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "file with the record, - reads stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (r resourceCommands[R, I]) delete() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + r.noun + " record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd, r.opts)
			if err != nil {
				return err
			}
			err = r.resource(a).Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "%s %d deleted\n", r.noun, id)
			return err
		},
	}
}

func (r resourceCommands[R, I]) changeStatus(cmd *cobra.Command, arg string, change models.StatusChange) error {
	id, err := parseRecordID(arg)
	if err != nil {
		return err
	}
	a, err := newApp(cmd, r.opts)
	if err != nil {
		return err
	}
	record, err := r.resource(a).ChangeStatus(cmd.Context(), id, change)
	if err != nil {
		return err
	}
	return a.printer.print(record)
}

func (r resourceCommands[R, I]) approve() *cobra.Command {
	var notify bool
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a pending " + r.noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.changeStatus(cmd, args[0], models.NewStatusChange(models.DecisionApproved, notify, nil, ""))
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", false, "send a notification email")
	return cmd
}

func (r resourceCommands[R, I]) reject() *cobra.Command {
	var notify bool
	var reasons []string
	var other string
	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a pending " + r.noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.changeStatus(cmd, args[0], models.NewStatusChange(models.DecisionRejected, notify, reasons, other))
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", false, "send a notification email")
	cmd.Flags().StringSliceVar(&reasons, "reason", nil, "rejection reason, can be repeated")
	cmd.Flags().StringVar(&other, "other", "", "free text rejection reason")
	return cmd
}

func newAgenciesCmd(opts *rootOptions) *cobra.Command {
	commands := resourceCommands[models.Agency, models.AgencyInput]{
		opts: opts,
		noun: "agency",
		resource: func(a *app) *console.Resource[models.Agency, models.AgencyInput] {
			return &a.agencies.Resource
		},
	}
	return commands.command("agencies", "Manage staffing agencies")
}

func newCompaniesCmd(opts *rootOptions) *cobra.Command {
	commands := resourceCommands[models.Company, models.CompanyInput]{
		opts: opts,
		noun: "company",
		resource: func(a *app) *console.Resource[models.Company, models.CompanyInput] {
			return &a.companies.Resource
		},
	}
	cmd := commands.command("companies", "Manage companies")
	cmd.AddCommand(newCompanyPasswordCmd(opts))
	return cmd
}

func newCompanyPasswordCmd(opts *rootOptions) *cobra.Command {
	password := &passwordFlags{}
	cmd := &cobra.Command{
		Use:   "password <id>",
		Short: "Set a new login password for a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			secret, err := password.resolve(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			err = a.companies.ResetPassword(cmd.Context(), id, secret)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "password of company %d updated\n", id)
			return err
		},
	}
	password.register(cmd, "new-password")
	return cmd
}
