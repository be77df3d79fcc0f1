// Package cli contains the cobra commands of the exerlog client.
//
// Every command talks to a running exerlog API. The base URL comes from
// the --url flag, which defaults to whatever BaseURLFunc returns
// (EXERLOG_URL in the standalone binary).
package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// BaseURLFunc provides the default base HTTP API URL.
type BaseURLFunc func() string

// NewRoot constructs the root command with the users, exercises and logs
// command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "exerlog",
		Short:         "Exercise log client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("url", baseURL(), "exerlog API base URL")

	root.AddCommand(newUsersCommand(), newExercisesCommand(), newLogsCommand())
	return root
}

func clientFor(cmd *cobra.Command) *apiClient {
	u, _ := cmd.Flags().GetString("url")
	return newAPIClient(u)
}

func newUsersCommand() *cobra.Command {
	usersCmd := &cobra.Command{Use: "users", Short: "Create and list users"}

	createCmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := clientFor(cmd).postForm(cmd.Context(), "/api/users", url.Values{"username": {args[0]}})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), raw)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := clientFor(cmd).get(cmd.Context(), "/api/users", nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), raw)
		},
	}

	usersCmd.AddCommand(createCmd, listCmd)
	return usersCmd
}

func newExercisesCommand() *cobra.Command {
	exercisesCmd := &cobra.Command{Use: "exercises", Short: "Log exercises"}

	addCmd := &cobra.Command{
		Use:   "add <user-id>",
		Short: "Add an exercise to a user's log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")
			duration, _ := cmd.Flags().GetInt("duration")
			date, _ := cmd.Flags().GetString("date")

			form := url.Values{
				"description": {description},
				"duration":    {strconv.Itoa(duration)},
			}
			if date != "" {
				form.Set("date", date)
			}

			raw, err := clientFor(cmd).postForm(cmd.Context(), "/api/users/"+url.PathEscape(args[0])+"/exercises", form)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), raw)
		},
	}
	addCmd.Flags().StringP("description", "d", "", "what was done")
	addCmd.Flags().IntP("duration", "m", 0, "duration in minutes")
	addCmd.Flags().String("date", "", "date (YYYY-MM-DD); defaults to today on the server")
	_ = addCmd.MarkFlagRequired("description")
	_ = addCmd.MarkFlagRequired("duration")

	exercisesCmd.AddCommand(addCmd)
	return exercisesCmd
}

func newLogsCommand() *cobra.Command {
	logsCmd := &cobra.Command{
		Use:   "logs <user-id>",
		Short: "Show a user's exercise log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			for _, name := range []string{"from", "to"} {
				if v, _ := cmd.Flags().GetString(name); v != "" {
					query.Set(name, v)
				}
			}
			if cmd.Flags().Changed("limit") {
				limit, _ := cmd.Flags().GetInt("limit")
				query.Set("limit", strconv.Itoa(limit))
			}

			raw, err := clientFor(cmd).get(cmd.Context(), "/api/users/"+url.PathEscape(args[0])+"/logs", query)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), raw)
		},
	}
	logsCmd.Flags().String("from", "", "earliest date to include (YYYY-MM-DD)")
	logsCmd.Flags().String("to", "", "latest date to include (YYYY-MM-DD)")
	logsCmd.Flags().Int("limit", 0, "maximum number of entries, taken from the start of the log")

	return logsCmd
}
