package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/midbel/crimeviz"
	"github.com/midbel/crimeviz/dash"
	"github.com/midbel/crimeviz/internal/logging"
	"github.com/midbel/crimeviz/lifecycle"
	"github.com/spf13/cobra"
)

type options struct {
	config string
	data   string
	level  string
	format string
	width  float64
	height float64
	output string
}

type app struct {
	root *cobra.Command
	opts options
	cfg  dash.Config
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newApp().root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *app {
	var a app
	a.root = &cobra.Command{
		Use:   "draw",
		Short: "Draw the charts of the London crime dashboard",
		Long: `draw renders the charts of the crime dashboard as SVG documents.

Each dataset of the catalogue is drawn as a line or a radial bar chart, the
crime counts per borough as a choropleth and the monthly counts of a borough
as a detail chart. The serve command exposes the same charts over HTTP.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	flags := a.root.PersistentFlags()
	flags.StringVarP(&a.opts.config, "config", "c", "", "configuration file")
	flags.StringVarP(&a.opts.data, "data", "d", "", "directory of the data files")
	flags.StringVar(&a.opts.level, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&a.opts.format, "log-format", "", "log format (console or json)")
	flags.Float64Var(&a.opts.width, "width", 0, "chart width")
	flags.Float64Var(&a.opts.height, "height", 0, "chart height")
	flags.StringVarP(&a.opts.output, "output", "o", "", "output file")

	a.root.AddCommand(
		a.newDatasetsCmd(),
		a.newChartCmd(),
		a.newMapCmd(),
		a.newDetailCmd(),
		a.newServeCmd(),
	)
	return &a
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := dash.LoadConfig(a.opts.config)
	if err != nil {
		return err
	}
	if a.opts.data != "" {
		cfg.Data = a.opts.data
	}
	if a.opts.level != "" {
		cfg.Log.Level = a.opts.level
	}
	if a.opts.format != "" {
		cfg.Log.Format = a.opts.format
	}
	if a.opts.width > 0 {
		cfg.Width = a.opts.width
	}
	if a.opts.height > 0 {
		cfg.Height = a.opts.height
	}
	cfg.Log.Output = cmd.ErrOrStderr()
	logging.Init(cfg.Log)

	a.cfg = cfg
	return nil
}

func (a *app) load(ctx context.Context) (*dash.Store, error) {
	store := dash.NewStore(a.cfg)
	return store, store.Load(ctx)
}

func (a *app) size() crimeviz.Budget {
	return crimeviz.NewBudget(a.cfg.Width, a.cfg.Height)
}

// dashboard returns a dashboard whose charts are laid out as soon as they
// are attached. The returned function disposes them.
func (a *app) dashboard() (*dash.Dashboard, func()) {
	var (
		ctrl = lifecycle.NewController(lifecycle.WithDebounce(a.cfg.Debounce))
		doc  = dash.NewDocument(a.size())
		d    = dash.NewDashboard(doc, ctrl)
	)
	d.SetStyle(a.cfg.Style.Apply(crimeviz.DefaultStyle()))
	return d, func() {
		ctrl.Close()
	}
}

func (a *app) newDatasetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the datasets of the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			charts := a.cfg.Charts()
			names := make([]string, 0, len(charts))
			for n := range charts {
				names = append(names, n)
			}
			sort.Strings(names)
			for _, n := range names {
				d, _ := a.cfg.Dataset(n)
				fmt.Fprintf(cmd.OutOrStdout(), "%-30s %-12s %s\n", n, d.Mapping.Chart, charts[n])
			}
			return nil
		},
	}
}

func (a *app) newChartCmd() *cobra.Command {
	var legend string
	cmd := &cobra.Command{
		Use:   "chart <dataset>",
		Short: "Draw a dataset of the catalogue",
		Long: `Draw a dataset of the catalogue with the chart its columns are mapped to.

Examples:
  draw chart Major_Crimes_Trend -o trend.svg --legend trend-legend.svg
  draw chart Crime_Lockdown_Patterns --width 600 --height 600`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			data, mapping, err := store.Dataset(args[0])
			if err != nil {
				return err
			}
			d, done := a.dashboard()
			defer done()

			var (
				doc    = d.Document()
				target = doc.Add(args[0], dash.RootTarget, a.size())
			)
			switch mapping.Chart {
			case dash.ChartLine:
				side := doc.Add(args[0]+"-legend", dash.RootTarget, a.size())
				_, err = d.RenderLineChart(data, mapping, target.ID(), side.ID())
				if err == nil && legend != "" {
					err = writeOutput(legend, side)
				}
			default:
				_, err = d.RenderRadialChart(data, target.ID(), mapping.Title)
			}
			if err != nil {
				return err
			}
			return writeOutput(a.opts.output, target)
		},
	}
	cmd.Flags().StringVar(&legend, "legend", "", "output file of the legend of a line chart")
	return cmd
}

func (a *app) newMapCmd() *cobra.Command {
	var (
		crime     string
		highlight string
	)
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Draw the crime counts of the boroughs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			fc, ok := store.Boroughs()
			if !ok {
				return fmt.Errorf("%s: boroughs not loaded", a.cfg.Sources.Boroughs)
			}
			var (
				counts = store.Choropleth(crime)
				sum    = crimeviz.Summarize(counts)
				rates  = crimeviz.Summarize(store.Rates(crime))
				state  = crimeviz.MapState{
					Highlighted: crimeviz.TitleCase(highlight),
				}
			)
			logging.Info().
				Add(logging.Str("crime_type", crime)).
				Add(logging.Int("regions", sum.Regions)).
				Add(logging.Int("with_data", sum.WithData)).
				Add(logging.Str("total", crimeviz.FormatThousands(sum.Total))).
				Add(logging.Str("mean_rate", crimeviz.FormatThousands(rates.Mean))).
				Msg("choropleth computed")
			return writeTo(a.opts.output, func(w io.Writer) error {
				return crimeviz.RenderMap(w, fc, counts, a.size(), state)
			})
		},
	}
	cmd.Flags().StringVar(&crime, "crime-type", dash.AllTypes, "crime type to count")
	cmd.Flags().StringVar(&highlight, "highlight", "", "borough to highlight")
	return cmd
}

func (a *app) newDetailCmd() *cobra.Command {
	var crime string
	cmd := &cobra.Command{
		Use:   "detail <borough>",
		Short: "Draw the monthly crime counts of a borough",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			var (
				name   = crimeviz.TitleCase(args[0])
				series = store.BoroughSeries(name, crime)
				list   = make([]crimeviz.TimeRecord, 0, len(series))
			)
			for _, m := range series {
				list = append(list, m.Record())
			}
			d, done := a.dashboard()
			defer done()

			doc := d.Document()
			target := doc.Add(dash.DetailTarget, dash.RootTarget, crimeviz.NewBudget(a.cfg.Width, crimeviz.DetailHeight))
			doc.Add(dash.DetailTitleTarget, dash.RootTarget, crimeviz.NewBudget(a.cfg.Width, 0))
			if _, err := d.RenderTimeSeriesDetail(list, name, crime); err != nil {
				return err
			}
			return writeOutput(a.opts.output, target)
		},
	}
	cmd.Flags().StringVar(&crime, "crime-type", dash.AllTypes, "crime type to count")
	return cmd
}

func (a *app) newServeCmd() *cobra.Command {
	var (
		addr  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the data and the charts over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Addr = addr
			}
			ctx := cmd.Context()
			store, err := a.load(ctx)
			if err != nil {
				return err
			}
			metrics, err := lifecycle.NewMetrics(nil)
			if err != nil {
				return err
			}
			var (
				ctrl = lifecycle.NewController(
					lifecycle.WithDebounce(a.cfg.Debounce),
					lifecycle.WithMetrics(metrics),
				)
				doc = dash.NewDocument(a.size())
				d   = dash.NewDashboard(doc, ctrl)
			)
			defer ctrl.Close()
			d.SetStyle(a.cfg.Style.Apply(crimeviz.DefaultStyle()))

			if watch {
				go func() {
					if err := store.Watch(ctx); err != nil {
						logging.Error().
							Add(logging.ErrorField(err)).
							Msg("data directory not watched")
					}
				}()
			}
			return dash.NewServer(a.cfg, store, d).ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listening address")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload the data files when they change")
	return cmd
}

func writeOutput(file string, target *dash.Target) error {
	return writeTo(file, func(w io.Writer) error {
		_, err := target.WriteTo(w)
		return err
	})
}

func writeTo(file string, fn func(io.Writer) error) error {
	var w io.Writer = os.Stdout
	if file != "" {
		f, err := os.Create(file)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return fn(w)
}
