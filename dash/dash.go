// Package dash binds the crime datasets to the charts: it loads and
// aggregates the data files, keeps one chart instance per target surface and
// serves both the data and the rendered charts over HTTP.
package dash

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/midbel/crimeviz"
	"github.com/midbel/crimeviz/internal/logging"
	"gopkg.in/yaml.v3"
)

var (
	DefaultWidth  = 800.0
	DefaultHeight = 600.0

	DefaultAddr = ":8888"
	DefaultData = "static/data"
)

const (
	ChartLine   = "line"
	ChartRadial = "radial-bar"
)

var (
	ErrUnknownDataset = errors.New("unknown dataset")
	ErrTargetMissing  = errors.New("target missing")
)

// Dataset describes a file of {label, x, y} rows and how its columns are
// displayed.
type Dataset struct {
	Name    string           `yaml:"name"`
	File    string           `yaml:"file"`
	Mapping crimeviz.Mapping `yaml:"columns"`
}

// Window is the period the map data is restricted to. Both ends are
// inclusive.
type Window struct {
	From time.Time `yaml:"from"`
	To   time.Time `yaml:"to"`
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

type Sources struct {
	Crimes     string `yaml:"crimes"`
	Population string `yaml:"population"`
	Boroughs   string `yaml:"boroughs"`
}

type Limit struct {
	Rate  int `yaml:"rate"`
	Burst int `yaml:"burst"`
}

type Config struct {
	Data     string        `yaml:"data"`
	Addr     string        `yaml:"addr"`
	Width    float64       `yaml:"width"`
	Height   float64       `yaml:"height"`
	Debounce time.Duration `yaml:"debounce"`
	Retries  int           `yaml:"retries"`
	Window   Window        `yaml:"window"`
	Limit    Limit         `yaml:"limit"`
	Sources  Sources       `yaml:"sources"`
	Datasets []Dataset     `yaml:"datasets"`
	Style    StyleConfig   `yaml:"style"`

	Log logging.Config `yaml:"log"`
}

func DefaultConfig() Config {
	return Config{
		Data:     DefaultData,
		Addr:     DefaultAddr,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		Debounce: 250 * time.Millisecond,
		Retries:  3,
		Window: Window{
			From: time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
		},
		Limit: Limit{
			Rate:  50,
			Burst: 100,
		},
		Sources: Sources{
			Crimes:     "Crime_Data.csv",
			Population: "Population_Forecast.csv",
			Boroughs:   "london_boroughs.geojson",
		},
		Datasets: []Dataset{
			{
				Name: "Major_Crimes_Trend",
				File: "Crime_Major_Trend.csv",
				Mapping: crimeviz.Mapping{
					X:     "Year",
					Y:     "Count",
					Label: "Offence Group",
					Chart: ChartLine,
					Title: "Trend of Major Crimes in London (2014–2024)",
				},
			},
			{
				Name: "Crime_Lockdown_Patterns",
				File: "COVID_Crime_Data.csv",
				Mapping: crimeviz.Mapping{
					X:     "Phase",
					Y:     "Count",
					Label: "CrimeCategory",
					Chart: ChartRadial,
					Title: "Crime Counts across COVID Lockdown Phases (2014–2024)",
				},
			},
		},
		Log: logging.DefaultConfig(),
	}
}

// LoadConfig reads a yaml file on top of the default configuration. Keys
// absent from the file keep their default value.
func LoadConfig(file string) (Config, error) {
	cfg := DefaultConfig()
	if file == "" {
		return cfg, nil
	}
	r, err := os.Open(file)
	if err != nil {
		return cfg, err
	}
	defer r.Close()

	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", file, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid default size %gx%g", c.Width, c.Height)
	}
	if c.Window.To.Before(c.Window.From) {
		return fmt.Errorf("window ends before it starts")
	}
	seen := make(map[string]struct{})
	for _, d := range c.Datasets {
		if d.Name == "" || d.File == "" {
			return fmt.Errorf("dataset without name or file")
		}
		if _, ok := seen[d.Name]; ok {
			return fmt.Errorf("%s: dataset defined twice", d.Name)
		}
		seen[d.Name] = struct{}{}
		switch d.Mapping.Chart {
		case ChartLine, ChartRadial:
		default:
			return fmt.Errorf("%s: unsupported chart %q", d.Name, d.Mapping.Chart)
		}
	}
	return nil
}

func (c Config) Dataset(name string) (Dataset, error) {
	for _, d := range c.Datasets {
		if d.Name == name {
			return d, nil
		}
	}
	return Dataset{}, fmt.Errorf("%s: %w", name, ErrUnknownDataset)
}

// Charts returns the title of each dataset keyed by its name.
func (c Config) Charts() map[string]string {
	list := make(map[string]string)
	for _, d := range c.Datasets {
		list[d.Name] = d.Mapping.Title
	}
	return list
}
