package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ve11yn/dochi"
)

func newTodoCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "todo", Short: "Todos and subtasks"}

	var (
		create   dochi.CreateTodoRequest
		priority string
		subtasks []string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a todo",
		RunE: func(cmd *cobra.Command, args []string) error {
			create.Priority = dochi.Priority(priority)
			for _, text := range subtasks {
				create.Subtasks = append(create.Subtasks, dochi.Subtask{Text: text})
			}
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				t, err := app.Todos.Create(ctx, create)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), t)
			})
		},
	}
	add.Flags().StringVar(&create.Title, "title", "", "Title (required)")
	add.Flags().StringVar(&create.Description, "description", "", "Description")
	add.Flags().StringVar(&priority, "priority", "", "Low, Medium or High (default Medium)")
	add.Flags().StringSliceVar(&create.Tags, "tag", nil, "Tag (repeatable)")
	add.Flags().StringArrayVar(&subtasks, "subtask", nil, "Subtask text (repeatable)")
	_ = add.MarkFlagRequired("title")

	var (
		title, description, newPriority string
		tags                            []string
	)
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a todo's fields; unset flags are left unchanged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var req dochi.UpdateTodoRequest
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			if cmd.Flags().Changed("priority") {
				p := dochi.Priority(newPriority)
				req.Priority = &p
			}
			if cmd.Flags().Changed("tag") {
				req.Tags = &tags
			}
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				t, err := app.Todos.Update(ctx, id, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), t)
			})
		},
	}
	update.Flags().StringVar(&title, "title", "", "Title")
	update.Flags().StringVar(&description, "description", "", "Description")
	update.Flags().StringVar(&newPriority, "priority", "", "Low, Medium or High")
	update.Flags().StringSliceVar(&tags, "tag", nil, "Replace tags (repeatable)")

	toggleSubtask := &cobra.Command{
		Use:   "toggle-subtask <id> <subtask-id>",
		Short: "Toggle one subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				t, err := app.Todos.ToggleSubtask(ctx, id, args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), t)
			})
		},
	}

	var tag, byPriority string
	list := &cobra.Command{
		Use:   "list",
		Short: "List todos, optionally by tag or priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				var (
					out []dochi.TodoItem
					err error
				)
				switch {
				case tag != "":
					out, err = app.Todos.ByTag(ctx, tag)
				case byPriority != "":
					out, err = app.Todos.ByPriority(ctx, dochi.Priority(byPriority))
				default:
					out, err = app.Todos.List(ctx)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	list.Flags().StringVar(&tag, "tag", "", "Only todos with this tag")
	list.Flags().StringVar(&byPriority, "priority", "", "Only todos with this priority")

	cmd.AddCommand(add, update, toggleSubtask, list,
		idCommand("delete <id>", "Delete a todo", func(ctx context.Context, app *dochi.App, id int64) (any, error) {
			return nil, app.Todos.Delete(ctx, id)
		}),
		idCommand("toggle <id>", "Toggle a todo and its subtasks", func(ctx context.Context, app *dochi.App, id int64) (any, error) {
			return app.Todos.Toggle(ctx, id)
		}),
		queryCommand("search <text>", "Search todo titles and descriptions", func(ctx context.Context, app *dochi.App, q string) ([]dochi.TodoItem, error) {
			return app.Todos.Search(ctx, q)
		}),
	)
	return cmd
}

func newNoteCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "note", Short: "Notes"}

	var create dochi.CreateNoteRequest
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a note",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				n, err := app.Notes.Create(ctx, create)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), n)
			})
		},
	}
	add.Flags().StringVar(&create.Title, "title", "", "Title (required)")
	add.Flags().StringVar(&create.Description, "description", "", "Body")
	add.Flags().StringSliceVar(&create.Tags, "tag", nil, "Tag (repeatable)")
	_ = add.MarkFlagRequired("title")

	var (
		title, description string
		tags               []string
	)
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a note's fields; unset flags are left unchanged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var req dochi.UpdateNoteRequest
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			if cmd.Flags().Changed("tag") {
				req.Tags = &tags
			}
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				n, err := app.Notes.Update(ctx, id, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), n)
			})
		},
	}
	update.Flags().StringVar(&title, "title", "", "Title")
	update.Flags().StringVar(&description, "description", "", "Body")
	update.Flags().StringSliceVar(&tags, "tag", nil, "Replace tags (repeatable)")

	var tag string
	list := &cobra.Command{
		Use:   "list",
		Short: "List notes, optionally by tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				var (
					out []dochi.Note
					err error
				)
				if tag != "" {
					out, err = app.Notes.ByTag(ctx, tag)
				} else {
					out, err = app.Notes.List(ctx)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	list.Flags().StringVar(&tag, "tag", "", "Only notes with this tag")

	cmd.AddCommand(add, update, list,
		idCommand("delete <id>", "Delete a note", func(ctx context.Context, app *dochi.App, id int64) (any, error) {
			return nil, app.Notes.Delete(ctx, id)
		}),
		queryCommand("search <text>", "Search note titles and descriptions", func(ctx context.Context, app *dochi.App, q string) ([]dochi.Note, error) {
			return app.Notes.Search(ctx, q)
		}),
	)
	return cmd
}
