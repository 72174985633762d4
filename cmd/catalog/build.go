package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/WessleyAI/vehicle-select/engine/catalog"
	"github.com/WessleyAI/vehicle-select/engine/domain"
	"github.com/WessleyAI/vehicle-select/engine/resolve"
	"github.com/WessleyAI/vehicle-select/engine/vpic"
	"github.com/WessleyAI/vehicle-select/pkg/fn"
)

type buildOptions struct {
	from   int
	to     int
	output string
	format string
}

func newBuildCommand(a *app) *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Resolve every model year and write a catalog file",
		Long: `Build walks model years from --from down to --to, resolves the makes of
each year and the models of each make, and writes the result.

Years without makes and makes without specific models are skipped.
Resolutions that keep failing after --attempts tries are skipped as well;
the catalog is still written and the command exits with code 3.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, a, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.from, "from", 0, "newest model year (default: current year)")
	f.IntVar(&opts.to, "to", domain.MinModelYear, "oldest model year")
	f.StringVarP(&opts.output, "output", "o", "vehicle_options.json", `output file, "-" for stdout`)
	f.StringVar(&opts.format, "format", "", "output format: json, yaml (default: from file extension)")
	f.Int("workers", 4, "makes resolved concurrently per year")
	f.Int("attempts", 3, "tries per resolution before giving up")
	f.String("vpic-url", vpic.DefaultBaseURL, "vPIC API base URL")

	return cmd
}

func (o *buildOptions) years(now time.Time) ([]int, error) {
	from := o.from
	if from == 0 {
		from = now.Year()
	}
	for _, y := range []int{from, o.to} {
		if err := domain.ValidateYear(y, now); err != nil {
			return nil, err
		}
	}
	if from < o.to {
		return nil, fmt.Errorf("--from %d is older than --to %d", from, o.to)
	}
	years := make([]int, 0, from-o.to+1)
	for y := from; y >= o.to; y-- {
		years = append(years, y)
	}
	return years, nil
}

func (o *buildOptions) encoding() (catalog.Format, error) {
	if o.format != "" {
		return catalog.ParseFormat(o.format)
	}
	return catalog.FormatFromPath(o.output), nil
}

func runBuild(cmd *cobra.Command, a *app, opts *buildOptions) error {
	years, err := opts.years(time.Now())
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}
	format, err := opts.encoding()
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	client := vpic.New(a.cfg.VPIC())
	svc := resolve.New(client, a.log)
	gen := catalog.NewGenerator(svc, a.log,
		catalog.WithWorkers(a.cfg.Workers),
		catalog.WithRetry(fn.RetryOpts{
			MaxAttempts: a.cfg.Attempts,
			InitialWait: time.Second,
			MaxWait:     30 * time.Second,
			Jitter:      true,
		}),
	)

	start := time.Now()
	cat, buildErr := gen.Build(cmd.Context(), years)

	if err := writeCatalog(cmd.OutOrStdout(), opts.output, cat, format); err != nil {
		return err
	}
	st := cat.Stats()
	a.log.Info("catalog written", "output", opts.output, "years", st.Years, "makes", st.Makes, "models", st.Models, "took", time.Since(start).Round(time.Second))

	if buildErr != nil {
		if ctxErr := cmd.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return &ExitError{Code: exitPartial, Err: fmt.Errorf("catalog is incomplete: %w", buildErr)}
	}
	return nil
}

func writeCatalog(stdout io.Writer, path string, cat catalog.Catalog, format catalog.Format) error {
	if path == "-" {
		return cat.Encode(stdout, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := cat.Encode(f, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readCatalog(path string) (catalog.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cat, err := catalog.Decode(f, catalog.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}
