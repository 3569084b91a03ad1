package cmd

import (
	"errors"
	"fmt"

	"github.com/nfrund/yauth/internal/authflow"
	"github.com/spf13/cobra"
)

// errInvalid is returned when validation finds problems, so the process
// exits non-zero.
var errInvalid = errors.New("validation failed")

// fieldFlags binds one command-line flag per widget field.
type fieldFlags struct {
	flow            string
	email           string
	password        string
	confirmPassword string
}

func (f *fieldFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.flow, "flow", authflow.FlowLogin.String(), "flow: login, signup or forgot-password")
	cmd.Flags().StringVar(&f.email, "email", "", "email field")
	cmd.Flags().StringVar(&f.password, "password", "", "password field")
	cmd.Flags().StringVar(&f.confirmPassword, "confirm-password", "", "confirm password field")
}

// fieldSet returns the parsed flow and the values of the fields it renders.
func (f *fieldFlags) fieldSet() (authflow.Flow, authflow.FieldSet, error) {
	flow, err := authflow.ParseFlow(f.flow)
	if err != nil {
		return 0, authflow.FieldSet{}, err
	}
	cfg, err := authflow.ConfigFor(flow)
	if err != nil {
		return 0, authflow.FieldSet{}, err
	}
	values := map[string]string{
		authflow.FieldEmail:           f.email,
		authflow.FieldPassword:        f.password,
		authflow.FieldConfirmPassword: f.confirmPassword,
	}
	fields := authflow.NewFieldSet(cfg.FieldNames()...)
	for _, name := range cfg.FieldNames() {
		if err := fields.Set(name, values[name]); err != nil {
			return 0, authflow.FieldSet{}, err
		}
	}
	return flow, fields, nil
}

type validationDisplay struct {
	Flow   string            `json:"flow"`
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

func newValidateCmd() *cobra.Command {
	var flags fieldFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate field values for a flow",
		Long: `Run the widget's validation rules against the given values and print
every field error. Exits non-zero when any field is invalid.

Examples:
  yauth-cli validate --flow login --email foo@bar.com --password secret
  yauth-cli validate --flow signup --email foo@bar.com --password a --confirm-password b`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(); err != nil {
				return err
			}
			flow, fields, err := flags.fieldSet()
			if err != nil {
				return err
			}
			result := authflow.Validate(flow, fields)
			d := validationDisplay{Flow: flow.String(), Valid: result.Valid(), Errors: result}

			if outputFormat == "json" {
				if err := writeJSON(cmd.OutOrStdout(), d); err != nil {
					return err
				}
			} else if d.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: all fields valid\n", displayName(flow))
			} else {
				tw := newTable(cmd.OutOrStdout(), "FIELD", "ERROR")
				for _, name := range sortedNames(result) {
					fmt.Fprintf(tw, "%s\t%s\n", name, result[name])
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			if !d.Valid {
				return errInvalid
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
