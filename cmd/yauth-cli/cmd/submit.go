package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nfrund/yauth/internal/app"
	"github.com/nfrund/yauth/internal/authflow"
	"github.com/nfrund/yauth/internal/config"
	"github.com/nfrund/yauth/internal/logging"
	"github.com/nfrund/yauth/internal/transport"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

var errSubmissionFailed = errors.New("submission failed")

// newTransport is swapped out in tests.
var newTransport = func(graphqlURL string, logger *slog.Logger) (authflow.Transport, func(), error) {
	if graphqlURL != "" {
		return transport.NewGraphQLClient(graphqlURL), func() {}, nil
	}
	cfg, err := config.New()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	injector := app.NewContainer(cfg, logger)
	tr, err := do.Invoke[authflow.Transport](injector)
	if err != nil {
		_ = injector.Shutdown()
		return nil, nil, err
	}
	return tr, func() { _ = injector.Shutdown() }, nil
}

type submitDisplay struct {
	Flow    string            `json:"flow"`
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func newSubmitCmd() *cobra.Command {
	var (
		flags      fieldFlags
		graphqlURL string
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a flow to the auth backend",
		Long: `Mount the widget, navigate to the flow, fill in the fields and submit,
exactly as a browser would. The backend is the one configured for the server
(TRANSPORT, USER_STORE, ...) unless --graphql-url points at a remote API.

Examples:
  yauth-cli submit --flow signup --email foo@bar.com --password s3cret --confirm-password s3cret
  yauth-cli submit --flow login --email foo@bar.com --password s3cret --graphql-url http://localhost:4000/graphql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(); err != nil {
				return err
			}
			flow, fields, err := flags.fieldSet()
			if err != nil {
				return err
			}

			logger := logging.NewWithWriter(cmd.ErrOrStderr())
			tr, cleanup, err := newTransport(graphqlURL, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			coord := authflow.NewCoordinator(tr, authflow.WithLogger(logger))
			if flow != authflow.FlowLogin {
				if _, err := coord.Navigate(flow); err != nil {
					return err
				}
			}
			view := coord.View()
			for _, name := range fields.Names() {
				if err := view.Change(name, fields.Get(name)); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			state, err := coord.Submit(ctx)

			d := submitDisplay{Flow: flow.String(), Status: state.Status.String(), Message: state.Message}
			if errors.Is(err, authflow.ErrInvalidFields) {
				d.Status = "invalid"
				d.Errors = view.Validate()
			} else if err != nil {
				return err
			}

			if outputFormat == "json" {
				if err := writeJSON(cmd.OutOrStdout(), d); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", displayName(flow), d.Status)
				if d.Message != "" {
					fmt.Fprintln(cmd.OutOrStdout(), d.Message)
				}
				for _, name := range sortedNames(d.Errors) {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", name, d.Errors[name])
				}
			}
			if state.Status != authflow.StatusSucceeded {
				return errSubmissionFailed
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&graphqlURL, "graphql-url", "", "submit to this GraphQL endpoint instead of the configured backend")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "how long to wait for the backend")
	return cmd
}
