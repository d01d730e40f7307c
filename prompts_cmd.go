package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/models"
	"github.com/Bennie-Haelen/llm-based-metadata-creation/pkg/prompts"
)

func promptsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Maintain the prompt templates",
	}
	cmd.AddCommand(promptsListCmd(opts))
	cmd.AddCommand(promptsGetCmd(opts))
	cmd.AddCommand(promptsSetCmd(opts))
	cmd.AddCommand(promptsDeleteCmd(opts))
	cmd.AddCommand(promptsSeedCmd(opts))
	return cmd
}

// withPromptStore runs fn with the prompt store open.
func withPromptStore(ctx context.Context, opts *rootOptions, fn func(a *app) error) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.openPromptStore(ctx); err != nil {
		return err
	}
	return fn(a)
}

func promptsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List template names and the parameters they reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPromptStore(cmd.Context(), opts, func(a *app) error {
				list, err := listPrompts(cmd.Context(), a)
				if err != nil {
					return err
				}
				return writePromptList(cmd.OutOrStdout(), list)
			})
		},
	}
}

// listPrompts reads the store, or the in-memory templates when no store is configured.
func listPrompts(ctx context.Context, a *app) ([]*models.Prompt, error) {
	if a.promptRepo != nil {
		return a.promptRepo.List(ctx)
	}
	mem, ok := a.resolver.(*prompts.MemoryResolver)
	if !ok {
		return nil, errMemoryStore
	}
	var list []*models.Prompt
	for _, name := range mem.Names() {
		tmpl, err := mem.GetTemplate(ctx, name)
		if err != nil {
			return nil, err
		}
		list = append(list, &models.Prompt{Name: tmpl.Name, Template: tmpl.Text})
	}
	return list, nil
}

func writePromptList(out io.Writer, list []*models.Prompt) error {
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPARAMETERS\tUPDATED")
	for _, p := range list {
		tmpl := prompts.Template{Name: p.Name, Text: p.Template}
		updated := "-"
		if !p.UpdatedAt.IsZero() {
			updated = p.UpdatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, strings.Join(tmpl.Params(), ","), updated)
	}
	return w.Flush()
}

func promptsGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Print a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPromptStore(cmd.Context(), opts, func(a *app) error {
				tmpl, err := a.resolver.GetTemplate(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), tmpl.Text)
				return nil
			})
		},
	}
}

func promptsSetCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "set NAME",
		Short: "Create or replace a template from a file or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readTemplateText(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			return withPromptStore(cmd.Context(), opts, func(a *app) error {
				if a.promptRepo == nil {
					return errMemoryStore
				}
				if err := a.promptRepo.Upsert(cmd.Context(), &models.Prompt{Name: args[0], Template: text}); err != nil {
					return err
				}
				tmpl := prompts.Template{Name: args[0], Text: text}
				fmt.Fprintf(cmd.OutOrStdout(), "stored %s (parameters: %s)\n", args[0], strings.Join(tmpl.Params(), ", "))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "template file (default: stdin)")
	return cmd
}

func readTemplateText(stdin io.Reader, file string) (string, error) {
	var (
		data []byte
		err  error
	)
	if file != "" {
		data, err = os.ReadFile(file)
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("template is empty")
	}
	return text, nil
}

func promptsDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPromptStore(cmd.Context(), opts, func(a *app) error {
				if a.promptRepo == nil {
					return errMemoryStore
				}
				if err := a.promptRepo.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func promptsSeedCmd(opts *rootOptions) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "seed [FILE]",
		Short: "Store the built-in templates, or the templates of a seed file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed := prompts.DefaultPrompts()
			if len(args) == 1 {
				var err error
				if seed, err = prompts.LoadSeedFile(args[0]); err != nil {
					return err
				}
			}
			return withPromptStore(cmd.Context(), opts, func(a *app) error {
				if a.promptRepo == nil {
					return errMemoryStore
				}
				written, err := prompts.Seed(cmd.Context(), a.promptRepo, seed, overwrite)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d of %d templates\n", written, len(seed))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace templates that already exist")
	return cmd
}
