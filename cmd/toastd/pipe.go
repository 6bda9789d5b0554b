package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastd/internal/adapter/input"
	"github.com/jmylchreest/toastd/internal/adapter/output"
	"github.com/jmylchreest/toastd/internal/clock"
	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/core"
	"github.com/jmylchreest/toastd/internal/daemon"
	"github.com/jmylchreest/toastd/internal/toast"
)

var pipeOpts struct {
	// Input options
	source string

	// Filter options
	filter string
	search string
	limit  int

	// Sort options
	sortBy    string
	sortOrder string

	// Output options
	format   string
	field    string
	template string
}

var pipeCmd = &cobra.Command{
	Use:   "pipe [index|id]",
	Short: "Read toasts and print them without a UI",
	Long: `Read toasts from a source and print the resulting stack.

Every toast is evaluated at the moment toastd starts reading, so nothing
expires while input is still arriving.

With an index (1-based) or ID prefix argument, prints that toast only.
A full dmenu line is accepted as the argument too.

Examples:
  # Show a JSON stream as a stack
  printf '{"message":"deployed","category":"success"}\n' | toastd pipe

  # Errors and warnings only, newest first, as JSON
  toastd pipe --filter 'category>=warning' --format json < events.jsonl

  # Pick a dunst notification with fuzzel and print its message
  toastd pipe --source dunst --format dmenu | fuzzel -d | \
    xargs -0 toastd pipe --source dunst --field message`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPipe,
}

func init() {
	rootCmd.AddCommand(pipeCmd)

	pipeCmd.Flags().StringVar(&pipeOpts.source, "source", "stdin",
		"Toast source (stdin, dunst)")

	pipeCmd.Flags().StringVar(&pipeOpts.filter, "filter", "",
		"Filter expression, e.g. 'app=make,category>=warning'")
	pipeCmd.Flags().StringVarP(&pipeOpts.search, "search", "s", "",
		"Search in message and app name")
	pipeCmd.Flags().IntVarP(&pipeOpts.limit, "limit", "n", 0,
		"Maximum number of toasts to show (0=unlimited)")

	pipeCmd.Flags().StringVar(&pipeOpts.sortBy, "sort", "created",
		"Sort by field (created, app, category, remaining)")
	pipeCmd.Flags().StringVar(&pipeOpts.sortOrder, "order", "desc",
		"Sort order (asc, desc)")

	pipeCmd.Flags().StringVarP(&pipeOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml, dmenu, ids)")
	pipeCmd.Flags().StringVar(&pipeOpts.field, "field", "",
		"Print a single field of the selected toast (id, message, app, category, source, duration, remaining)")
	pipeCmd.Flags().StringVar(&pipeOpts.template, "template", "",
		"Custom Go template for dmenu and plain output")
}

func runPipe(cmd *cobra.Command, args []string) error {
	src, err := input.NewSource(pipeOpts.source)
	if err != nil {
		return err
	}
	formatter, err := createFormatter()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	views, err := readToasts(ctx, src, cfg)
	if err != nil {
		return err
	}

	views, err = selectViews(views)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) > 0 {
		return printOne(out, views, args[0])
	}

	if len(views) == 0 && pipeOpts.format != string(output.FormatPlain) {
		logger.Debug("no toasts to output")
		return nil
	}
	return formatter.Format(out, views)
}

// readToasts drains src into a registry frozen at the current instant and
// returns its snapshot.
func readToasts(ctx context.Context, src input.Source, cfg *config.Config) ([]toast.View, error) {
	opts := daemon.ToastOptions(cfg)
	opts.MaxVisible = 0

	reg := toast.NewRegistry(clock.NewFake(time.Now()), opts, logger)
	defer reg.Shutdown()

	n, err := src.Run(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to read toasts: %w", err)
	}
	logger.Debug("read toasts", "source", src.Name(), "count", n)

	return reg.Snapshot(), nil
}

// selectViews applies filter, search, sort and limit options.
func selectViews(views []toast.View) ([]toast.View, error) {
	expr, err := core.ParseFilter(pipeOpts.filter)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	views = core.FilterWithExpr(views, expr)
	views = core.Search(views, pipeOpts.search)

	field, err := core.ParseSortField(pipeOpts.sortBy)
	if err != nil {
		return nil, fmt.Errorf("invalid sort: %w", err)
	}
	order, err := core.ParseSortOrder(pipeOpts.sortOrder)
	if err != nil {
		return nil, fmt.Errorf("invalid sort: %w", err)
	}
	core.Sort(views, core.SortOptions{Field: field, Order: order})

	return core.Filter(views, core.FilterOptions{Limit: pipeOpts.limit}), nil
}

// printOne prints the toast picked by selector.
func printOne(w io.Writer, views []toast.View, selector string) error {
	v := core.Lookup(views, selector)
	if v == nil {
		return fmt.Errorf("no toast matches %q", strings.TrimSpace(selector))
	}

	if pipeOpts.field != "" {
		value, err := formatField(*v, pipeOpts.field)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, value)
		return err
	}

	return output.NewJSONFormatter(output.DefaultFormatterOptions()).FormatSingle(w, *v)
}

// formatField returns a single field of a toast as text.
func formatField(v toast.View, field string) (string, error) {
	switch strings.ToLower(field) {
	case "id":
		return v.ID, nil
	case "message", "msg", "body":
		return v.Message, nil
	case "app", "app_name":
		return v.AppName, nil
	case "category":
		return string(v.Category), nil
	case "source":
		return v.Source, nil
	case "duration":
		return strconv.FormatInt(v.Duration.Milliseconds(), 10), nil
	case "remaining":
		return strconv.FormatInt(v.Remaining.Milliseconds(), 10), nil
	default:
		return "", fmt.Errorf("unknown field %q", field)
	}
}

// createFormatter creates the output formatter based on options.
func createFormatter() (output.Formatter, error) {
	opts := output.DefaultFormatterOptions()
	opts.Template = pipeOpts.template
	return output.NewFormatter(output.FormatType(strings.ToLower(pipeOpts.format)), opts)
}
