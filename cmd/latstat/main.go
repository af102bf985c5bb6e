// Copyright 2026 The latstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Latstat computes robust statistics about microbenchmark latency
// measurements.
//
// Usage:
//
//	latstat [flags] file.csv
//
// The input is a CSV file with a header row, one row per measurement.
// Latstat partitions the rows into groups, rejects outliers within
// each group independently, and summarizes what remains. For example,
// given timings of a pointer chase over working sets of several sizes
//
//	size,time
//	16384,4
//	16384,5
//	16384,95
//	4194304,200
//	4194304,210
//
// latstat reports
//
//	$ latstat -kind curve -x size -value time -sigma 1 sweep.csv
//	sweep.csv: curve of time by size
//	sigma 1: rejected 1 of 5 samples
//
//	size     n  kept    mean   std  median     p25     p75     min     max
//	-------  -  ----  ------  ----  ------  ------  ------  ------  ------
//	16384    3     2    4.50  0.71    4.50    4.25    4.75    4.00    5.00
//	4194304  2     2  205.00  7.07  205.00  202.50  207.50  200.00  210.00
//
//	center: mean, smoother: none
//	jumps (ratio > 1.3):
//	  16384  ->  4194304  x45.56
//
// The 95 cycle sample lies more than one standard deviation from the
// mean of its group and is rejected.
//
// # Analyses
//
// The -kind flag selects the analysis.
//
// A "groups" analysis (the default) summarizes each distinct tuple of
// the -by key columns. Numeric keys sort numerically and other keys
// alphabetically; -order fixes the order of a key's categories:
//
//	latstat -by pattern -value cycles -order pattern=sequential,random,stride pattern.csv
//
// A "curve" analysis groups by the -x column and treats the per-x
// centers (-center mean or median) as a curve. With -knee, latstat
// smooths the curve (-smooth none, mean or savgol) and reports the
// point of largest curvature, the knee. A knee is labeled with the
// first matching range of a preset's labels.
//
// A "columns" analysis summarizes each of the -values columns on its
// own and reports the penalty between adjacent column means, their
// total, and the ratio of the last mean to the first. Given -region
// flags instead of -values, it compares the -value column across
// named subsets of the rows, each filtered on its own:
//
//	latstat -kind columns -value time -region hit:size<=32K -region miss:size>=64M sweep.csv
//
// # Presets
//
// The -preset flag starts from a named analysis. The built-in presets
// are sweep, pattern, stride, latency, inclusivity, hitmiss,
// hitmiss-sweep, rob, prf and series. More presets, and defaults for
// -format, -j and -archive, may be given in a latstat.yaml file in the
// current directory or in the latstat user configuration directory,
// or named with -config.
// Environment variables such as LATSTAT_FORMAT override the file.
// Flags given explicitly override the preset.
//
// # Output
//
// The -format flag selects text, csv, json, yaml or html output. The
// -o flag writes the report to a file or, for a gs://bucket/object
// destination, to Google Cloud Storage. The -png and -svg flags draw
// the curve, or the group means, as a chart.
//
// Warnings, such as groups too small to have a standard deviation,
// are printed to standard error.
//
// # Archive
//
// The -archive flag stores the JSON report in a SQL database given as
// "driver:dsn", indexed by a fingerprint of the input and the analysis
// settings. The sqlite3 and mysql drivers are supported; a mysql DSN
// may connect through Cloud SQL, as in
//
//	-archive 'mysql:root@cloudsql(project:region:instance)/latstat'
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"gopkg.in/yaml.v3"

	"github.com/uarchlab/latstat/analysis"
	"github.com/uarchlab/latstat/internal/config"
	"github.com/uarchlab/latstat/latchart"
	"github.com/uarchlab/latstat/latfmt"
	"github.com/uarchlab/latstat/storage/archive"
	_ "github.com/uarchlab/latstat/storage/archive/sqlite3"
	"github.com/uarchlab/latstat/storage/export"
)

var exit = os.Exit // replaced during testing

// errUsage is returned for bad command lines. The usage message has
// already been printed.
var errUsage = errors.New("usage error")

func main() {
	log.SetPrefix("latstat: ")
	log.SetFlags(0)

	if err := latstat(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if err == errUsage {
			exit(2)
		}
		log.Print(err)
		exit(1)
	}
}

// orderFlag collects -order key=a,b,c flags.
type orderFlag map[string]string

func (o orderFlag) String() string {
	var parts []string
	for k, v := range o {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}

func (o orderFlag) Set(s string) error {
	key, order, ok := strings.Cut(s, "=")
	if !ok || key == "" || order == "" {
		return fmt.Errorf("want key=order, got %q", s)
	}
	o[key] = order
	return nil
}

// regionFlag collects -region name:ranges flags in order.
type regionFlag []analysis.Region

func (r *regionFlag) String() string {
	var parts []string
	for _, reg := range *r {
		parts = append(parts, reg.Name+":"+strings.Join(reg.Where, ","))
	}
	return strings.Join(parts, " ")
}

func (r *regionFlag) Set(s string) error {
	reg, err := analysis.ParseRegion(s)
	if err != nil {
		return err
	}
	*r = append(*r, reg)
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func latstat(w, wErr io.Writer, args []string) error {
	fs := flag.NewFlagSet("latstat", flag.ContinueOnError)
	fs.SetOutput(wErr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: latstat [flags] file.csv\n")
		fs.PrintDefaults()
	}

	flagConfig := fs.String("config", "", "read settings and presets from `file`")
	flagPreset := fs.String("preset", "", "start from the named `preset`")
	flagKind := fs.String("kind", "groups", "analysis `kind`: groups, curve or columns")
	flagX := fs.String("x", "", "independent `column` of a curve")
	flagValue := fs.String("value", "", "measurement `column`")
	flagValues := fs.String("values", "", "comma-separated measurement `columns` to compare")
	flagBy := fs.String("by", "", "comma-separated key `columns`")
	flagSigma := fs.Float64("sigma", 2, "reject samples more than `k` standard deviations from the mean")
	flagNoFilter := fs.Bool("nofilter", false, "disable outlier rejection")
	flagOrder := orderFlag{}
	fs.Var(flagOrder, "order", "order key's categories as `key=a,b,c`; may be repeated")
	flagWhere := fs.String("where", "", "comma-separated row `ranges`, such as size>=4096,size<=65536")
	var flagRegions regionFlag
	fs.Var(&flagRegions, "region", "compare -value across the rows in `name:ranges`; may be repeated")
	flagCenter := fs.String("center", "mean", "curve `center`: mean or median")
	flagSmooth := fs.String("smooth", "none", "curve `smoother`: none, mean or savgol")
	flagWindow := fs.Int("window", 0, "smoothing window `n`; 0 chooses automatically")
	flagDegree := fs.Int("degree", 0, "Savitzky-Golay polynomial `degree`")
	flagEdge := fs.String("edge", "shrink", "smoothing at the curve `edges`: shrink or raw")
	flagKnee := fs.Bool("knee", false, "locate the knee of the curve")
	flagTrim := fs.String("trim", "", "knee search `window`: fraction[=F], leading[=N] or none")
	flagSelect := fs.String("select", "", "knee `selection`: maxabs or max")
	flagJump := fs.Float64("jump", 1.3, "report curve steps larger than `ratio`; 0 disables")
	flagFormat := fs.String("format", "", "report `format`: text, csv, json, yaml or html")
	flagOut := fs.String("o", "-", "write the report to `dest`, a file or gs://bucket/object")
	flagPNG := fs.String("png", "", "draw a PNG chart to `dest`")
	flagSVG := fs.String("svg", "", "draw an SVG chart to `dest`")
	flagArchive := fs.String("archive", "", "store the report in `driver:dsn`")
	flagCodec := fs.String("codec", "", "archive compression `codec`: none, zstd or lz4")
	flagJ := fs.Int("j", 0, "summarize up to `n` groups concurrently")
	flagV := fs.Bool("v", false, "print progress")

	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	settings, err := config.Load(*flagConfig)
	if err != nil {
		return err
	}

	cfg := analysis.DefaultConfig()
	if *flagPreset != "" {
		cfg, err = settings.Preset(*flagPreset)
		if err != nil {
			return err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "kind":
			cfg.Kind = analysis.Kind(*flagKind)
		case "x":
			cfg.XColumn = *flagX
		case "value":
			cfg.ValueColumn = *flagValue
		case "values":
			cfg.ValueColumns = splitList(*flagValues)
		case "by":
			cfg.GroupKeys = splitList(*flagBy)
		case "sigma":
			cfg.Sigma = *flagSigma
		case "nofilter":
			cfg.Filter = !*flagNoFilter
		case "order":
			if cfg.Orders == nil {
				cfg.Orders = make(map[string]string)
			}
			for k, v := range flagOrder {
				cfg.Orders[k] = v
			}
		case "where":
			cfg.Where = splitList(*flagWhere)
		case "region":
			cfg.Regions = flagRegions
		case "center":
			cfg.Center = *flagCenter
		case "smooth":
			cfg.Smoother = *flagSmooth
		case "window":
			cfg.Window = *flagWindow
		case "degree":
			cfg.Degree = *flagDegree
		case "edge":
			cfg.Edge = *flagEdge
		case "knee":
			cfg.Knee = *flagKnee
		case "trim":
			cfg.Trim = *flagTrim
		case "select":
			cfg.Select = *flagSelect
		case "jump":
			cfg.JumpRatio = *flagJump
		}
	})

	format := *flagFormat
	if format == "" {
		format = settings.Format
	}
	workers := *flagJ
	if workers <= 0 {
		workers = settings.Workers
	}

	logger := logrus.New()
	logger.SetOutput(wErr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableQuote: true})
	logger.SetLevel(logrus.WarnLevel)
	if *flagV {
		logger.SetLevel(logrus.DebugLevel)
	}

	t, err := latfmt.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	r, err := analysis.Run(t, cfg, analysis.WithLogger(logger), analysis.WithParallelism(workers))
	if err != nil {
		return err
	}

	data, err := render(r, format)
	if err != nil {
		return err
	}
	ctx := context.Background()
	exportOpts := []export.Option{export.WithStdout(w)}
	if settings.Credentials != "" {
		exportOpts = append(exportOpts, export.WithCredentialsFile(settings.Credentials))
	}
	if err := export.Write(ctx, *flagOut, data, exportOpts...); err != nil {
		return err
	}

	for _, chart := range []struct{ dest, format string }{{*flagPNG, "png"}, {*flagSVG, "svg"}} {
		if chart.dest == "" {
			continue
		}
		p, err := latchart.Chart(r)
		if err != nil {
			return err
		}
		img, err := latchart.Render(p, chart.format)
		if err != nil {
			return err
		}
		if err := export.Write(ctx, chart.dest, img, exportOpts...); err != nil {
			return err
		}
	}

	dsn := *flagArchive
	if dsn == "" {
		dsn = settings.Archive
	}
	if dsn != "" {
		codec := *flagCodec
		if codec == "" {
			codec = settings.Codec
		}
		fp := archive.Fingerprint(t, cfg)
		runID, err := store(ctx, dsn, codec, fp, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(wErr, "archived as %s (fingerprint %s)\n", runID, fp)
	}
	return nil
}

// render encodes r in the named format.
func render(r *analysis.Report, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "text":
		formatText(&buf, r)
	case "csv":
		if err := formatCSV(&buf, r); err != nil {
			return nil, err
		}
	case "json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "\t")
		if err := enc.Encode(r); err != nil {
			return nil, err
		}
	case "yaml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	case "html":
		if err := formatHTML(&buf, r); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown format %q (want text, csv, json, yaml or html)", format)
	}
	return buf.Bytes(), nil
}

// store archives r and returns its run ID.
func store(ctx context.Context, dsn, codec, fp string, r *analysis.Report) (string, error) {
	c, err := archive.ParseCodec(codec)
	if err != nil {
		return "", err
	}
	a, err := archive.Open(dsn)
	if err != nil {
		return "", err
	}
	defer a.Close()
	if err := a.SetCodec(c); err != nil {
		return "", err
	}
	return a.Put(ctx, fp, r)
}
