package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/chrissnell/basinview/internal/artifact"
	"github.com/chrissnell/basinview/internal/bundle"
	"github.com/chrissnell/basinview/internal/log"
	"github.com/chrissnell/basinview/internal/session"
	"github.com/chrissnell/basinview/internal/stats"
	"github.com/chrissnell/basinview/internal/viewer"
	"github.com/chrissnell/basinview/internal/viewport"
	"github.com/chrissnell/basinview/pkg/config"
)

func main() {
	var (
		cfgFile    = flag.String("config", "config.yaml", "Path to configuration source")
		cfgBackend = flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
		sourceName = flag.String("source", "", "Data source (default: first configured)")
		basinID    = flag.String("basin", "", "Basin id to select (required)")
		asJSON     = flag.Bool("json", false, "Print the report as JSON")
		debug      = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	if *basinID == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -basin <id> [-source <name>] [-config config.yaml]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	v, err := viewer.NewFromConfig(cfg, log.Named("report"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening basin artifacts: %v\n", err)
		os.Exit(1)
	}

	source, ok := v.Catalog.Default()
	if *sourceName != "" {
		source, err = artifact.ParseDataSource(*sourceName)
		ok = err == nil
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown data source %q\n", *sourceName)
		os.Exit(1)
	}

	basin := artifact.BasinID(*basinID)
	if !v.Catalog.Contains(source, basin) {
		fmt.Fprintf(os.Stderr, "Error: basin %s is not offered under %s\n", basin, source)
		os.Exit(1)
	}

	s := v.Sessions.Create()
	defer v.Sessions.End(s.ID)

	view, err := s.Select(source, basin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error selecting basin %s: %v\n", basin, err)
		os.Exit(1)
	}

	if *asJSON {
		printJSON(view)
		return
	}
	printText(view)
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	var provider config.ConfigProvider
	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(cfgFile)
	case "sqlite":
		p, err := config.NewSQLiteProvider(cfgFile)
		if err != nil {
			return nil, err
		}
		provider = p
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s", cfgBackend)
	}
	defer provider.Close()

	return provider.LoadConfig()
}

type report struct {
	Source    artifact.DataSource `json:"source"`
	Basin     artifact.BasinID    `json:"basin"`
	Viewport  viewport.State      `json:"viewport"`
	Image     bundle.Status       `json:"image"`
	Timelapse bundle.Status       `json:"timelapse"`
	Statistic *stats.Statistic    `json:"statistic,omitempty"`
	Error     string              `json:"statistic_error,omitempty"`
	Summary   []stats.ClassChange `json:"summary,omitempty"`
}

func printJSON(view *session.View) {
	r := report{
		Source:    view.Bundle.Source,
		Basin:     view.Bundle.BasinID,
		Viewport:  view.Viewport,
		Image:     view.Bundle.ChangeImage.Status,
		Timelapse: view.Bundle.Timelapse.Status,
		Statistic: view.Statistic,
		Summary:   view.Summary,
	}
	if view.StatisticError != nil {
		r.Error = view.StatisticError.Error()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
		os.Exit(1)
	}
}

func printText(view *session.View) {
	vp := view.Viewport
	b := view.Bundle

	fmt.Printf("Basin %s (%s)\n", b.BasinID, b.Source)
	fmt.Printf("  Viewport: (%.5f, %.5f) zoom %d, %s\n", vp.CenterLat, vp.CenterLon, vp.Zoom, vp.Mode)
	if b.BasinID.IsAll() {
		return
	}

	fmt.Printf("  Change image: %s\n", b.ChangeImage.Status)
	fmt.Printf("  Timelapse: %s\n", b.Timelapse.Status)

	switch {
	case view.Statistic != nil:
		fmt.Printf("  %s\n", view.Statistic)
	case view.StatisticError != nil:
		fmt.Printf("  Statistic unavailable: %v\n", view.StatisticError)
	}

	if len(view.Summary) == 0 {
		return
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CLASS\tBEFORE\tAFTER\tNET")
	for _, c := range view.Summary {
		fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%+.0f\n", c.Class, c.Before, c.After, c.Net)
	}
	w.Flush()
}
