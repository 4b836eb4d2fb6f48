package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ve11yn/dochi"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "profile", Short: "Manage the profile of the current identity"}

	var name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				u, err := app.Profile.Create(ctx, name)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), u)
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "Display name (required)")
	_ = create.MarkFlagRequired("name")

	var newName string
	update := &cobra.Command{
		Use:   "update",
		Short: "Rename the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				u, err := app.Profile.Update(ctx, newName)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), u)
			})
		},
	}
	update.Flags().StringVar(&newName, "name", "", "Display name (required)")
	_ = update.MarkFlagRequired("name")

	cmd.AddCommand(create, update,
		&cobra.Command{
			Use:   "show",
			Short: "Show the profile",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
					u, err := app.Profile.Get(ctx)
					if err != nil {
						return err
					}
					if u == nil {
						return dochi.ErrNotFound
					}
					return printJSON(cmd.OutOrStdout(), u)
				})
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Delete the profile",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
					return app.Profile.Delete(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "health",
			Short: "Check the login service",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
					status, err := app.Profile.Health(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), status)
					return nil
				})
			},
		},
	)
	return cmd
}

func appointmentFlags(cmd *cobra.Command, req *dochi.AppointmentRequest) {
	cmd.Flags().StringVar(&req.Title, "title", "", "Title (required)")
	cmd.Flags().StringVar(&req.Date, "date", "", "Date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&req.StartTime, "start", "", "Start time, HH:MM (required)")
	cmd.Flags().StringVar(&req.EndTime, "end", "", "End time, HH:MM (required)")
	cmd.Flags().StringVar(&req.Category, "category", "", "Category name (required)")
	cmd.Flags().StringVar(&req.Color, "color", "", "Color")
	for _, f := range []string{"title", "date", "start", "end", "category"} {
		_ = cmd.MarkFlagRequired(f)
	}
}

func newCalendarCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "calendar", Short: "Appointments and categories"}

	var createReq dochi.AppointmentRequest
	create := &cobra.Command{
		Use:   "add",
		Short: "Create an appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				a, err := app.Calendar.CreateAppointment(ctx, createReq)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), a)
			})
		},
	}
	appointmentFlags(create, &createReq)

	var updateReq dochi.AppointmentRequest
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				a, err := app.Calendar.UpdateAppointment(ctx, id, updateReq)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), a)
			})
		},
	}
	appointmentFlags(update, &updateReq)

	var from, to string
	list := &cobra.Command{
		Use:   "list [date]",
		Short: "List appointments for a date, a range, or all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				var (
					out []dochi.Appointment
					err error
				)
				switch {
				case len(args) == 1:
					out, err = app.Calendar.AppointmentsByDate(ctx, args[0])
				case from != "" || to != "":
					out, err = app.Calendar.AppointmentsByRange(ctx, from, to)
				default:
					out, err = app.Calendar.AllAppointments(ctx)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	list.Flags().StringVar(&from, "from", "", "Range start, YYYY-MM-DD")
	list.Flags().StringVar(&to, "to", "", "Range end, YYYY-MM-DD")

	var cat dochi.Category
	addCategory := &cobra.Command{
		Use:   "add-category",
		Short: "Add a category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				c, err := app.Calendar.AddCategory(ctx, cat)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), c)
			})
		},
	}
	addCategory.Flags().StringVar(&cat.Name, "name", "", "Category name (required)")
	addCategory.Flags().StringVar(&cat.Color, "color", "", "Background color")
	addCategory.Flags().StringVar(&cat.TextColor, "text-color", "", "Text color")
	_ = addCategory.MarkFlagRequired("name")

	cmd.AddCommand(create, update, list, addCategory,
		idCommand("delete <id>", "Delete an appointment", func(ctx context.Context, app *dochi.App, id int64) (any, error) {
			return nil, app.Calendar.DeleteAppointment(ctx, id)
		}),
		idCommand("toggle <id>", "Toggle an appointment's completion", func(ctx context.Context, app *dochi.App, id int64) (any, error) {
			return app.Calendar.ToggleAppointment(ctx, id)
		}),
		&cobra.Command{
			Use:   "categories",
			Short: "List categories",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
					cats, err := app.Calendar.Categories(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), cats)
				})
			},
		},
		&cobra.Command{
			Use:   "delete-category <name>",
			Short: "Delete a category; the last one cannot be deleted",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
					cats, err := app.Calendar.Categories(ctx)
					if err != nil {
						return err
					}
					return app.Calendar.DeleteCategory(ctx, args[0], cats)
				})
			},
		},
	)
	return cmd
}

func newFocusCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "focus", Short: "Focus time per day"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <date> <minutes>",
			Short: "Add focus minutes to a date",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				minutes, err := parseID(args[1])
				if err != nil {
					return err
				}
				return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
					total, err := app.Focus.AddFocusTime(ctx, args[0], minutes)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d minutes\n", args[0], total)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "get <date>",
			Short: "Show focus minutes for a date",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
					minutes, _, err := app.Focus.FocusTime(ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d minutes\n", args[0], minutes)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "all",
			Short: "Show focus minutes for every date",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
					rec, err := app.Focus.AllFocusTime(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), rec)
				})
			},
		},
	)
	return cmd
}

// idCommand builds a command taking a single numeric id argument and
// printing fn's result, if any.
func idCommand(use, short string, fn func(ctx context.Context, app *dochi.App, id int64) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				out, err := fn(ctx, app, id)
				if err != nil || out == nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
}

// queryCommand builds a list command taking one string argument.
func queryCommand[T any](use, short string, fn func(ctx context.Context, app *dochi.App, q string) ([]T, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				out, err := fn(ctx, app, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
}
