// Command csinfo synthesizes a spectrum-image cube and prints summaries of
// background fits, integrations and principal components computed on it.
//
// Usage:
//
//	csinfo [flags] [operation ...]
//
// Without a request file the built-in default cube is used. Without
// operation arguments the operations listed in the request run.
//
// Examples:
//
//	csinfo
//	csinfo -list
//	csinfo -config request.yaml integrate pca
//	csinfo -model lcpl -oversampling 2 modelfit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-csi/analyzer"
	"github.com/cwbudde/algo-csi/cube"
	"github.com/cwbudde/algo-csi/internal/logger"
	"gonum.org/v1/gonum/floats"
)

// summary is one output row.
type summary struct {
	op     string
	shape  string
	lo, hi float64
	total  float64
	note   string
}

type operation struct {
	name string
	desc string
	run  func(ctx context.Context, r analyzer.Request) ([]summary, error)
}

var registry = []operation{
	{"fit", "per-pixel background coefficients", runFit},
	{"subtract", "background-subtracted cube", runSubtract},
	{"integrate", "integrated map over the integration window", runIntegrate},
	{"hcm", "HCM-weighted integrated map", runHCM},
	{"modelfit", "oversampled fit-to-model scale and edge maps", runModelFit},
	{"residual", "exp(fit residual) over the fit window interior", runResidual},
	{"pca", "principal components of the PCA window", runPCA},
	{"denoise", "fit window rebuilt from the leading components", runDenoise},
}

func main() {
	configPath := flag.String("config", "", "YAML request file (default: built-in synthetic cube)")
	model := flag.String("model", "", "override the background model (none, constant, linear, exponential, power, lcpl)")
	oversampling := flag.Float64("oversampling", math.NaN(), "override the oversampling FWHM in pixels")
	list := flag.Bool("list", false, "list available operations")
	quiet := flag.Bool("quiet", false, "suppress progress messages")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: csinfo [flags] [operation ...]\n\n")
		fmt.Fprintf(os.Stderr, "Runs spectrum-image analyses on a synthetic cube and prints summaries.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  csinfo\n")
		fmt.Fprintf(os.Stderr, "  csinfo -config request.yaml integrate pca\n")
		fmt.Fprintf(os.Stderr, "  csinfo -model lcpl -oversampling 2 modelfit\n")
	}
	flag.Parse()
	logger.Quiet = *quiet

	if *list {
		printList(os.Stdout)
		return
	}

	req := Default()
	if *configPath != "" {
		var err error
		req, err = Load(*configPath)
		if err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
	}
	if *model != "" {
		req.Model = *model
	}
	if !math.IsNaN(*oversampling) {
		req.Oversampling = *oversampling
	}
	if args := flag.Args(); len(args) > 0 {
		req.Operations = args
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, req, os.Stdout); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func printList(w io.Writer) {
	ops := append([]operation(nil), registry...)
	sort.Slice(ops, func(i, j int) bool { return ops[i].name < ops[j].name })
	for _, op := range ops {
		fmt.Fprintf(w, "%-10s %s\n", op.name, op.desc)
	}
}

func resolveOperations(names []string) ([]operation, error) {
	byName := make(map[string]operation, len(registry))
	for _, op := range registry {
		byName[op.name] = op
	}
	var ops []operation
	for _, name := range names {
		op, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown operation %q (use -list to see available)", name)
		}
		ops = append(ops, op)
	}
	if len(ops) == 0 {
		return nil, errors.New("no operations requested")
	}
	return ops, nil
}

// run builds the cube, runs every requested operation and writes the
// summary table to w.
func run(ctx context.Context, req *Request, w io.Writer) error {
	ops, err := resolveOperations(req.Operations)
	if err != nil {
		return err
	}
	c, err := req.Build()
	if err != nil {
		return fmt.Errorf("build cube: %w", err)
	}
	logger.Info("cube %dx%dx%d (%s), x %.1f..%.1f %s", c.Channels(), c.Height(), c.Width(),
		c.Kind(), c.Calibration().X[0], c.Calibration().X[c.Channels()-1], c.Calibration().XUnit)

	ar, err := req.Analysis(c)
	if err != nil {
		return err
	}
	if err := ar.Validate(); err != nil {
		return err
	}

	var rows []summary
	for _, op := range ops {
		ar.Progress = progressLogger(op.name)
		out, err := op.run(ctx, ar)
		if err != nil {
			return fmt.Errorf("%s: %w", op.name, err)
		}
		rows = append(rows, out...)
	}
	return printSummaries(w, rows)
}

// progressLogger logs every completed quarter.
func progressLogger(name string) func(float64) {
	next := 0.25
	return func(f float64) {
		for f >= next && next <= 1 {
			logger.Info("%s: %3.0f%%", name, next*100)
			next += 0.25
		}
	}
}

func mapSummary(op string, m *cube.Map2D, note string) summary {
	lo, hi := m.Range()
	return summary{
		op:    op,
		shape: fmt.Sprintf("%dx%d", m.Height, m.Width),
		lo:    lo,
		hi:    hi,
		total: m.Sum(),
		note:  note,
	}
}

func cubeSummary(op string, c *cube.Cube, note string) summary {
	data := c.Data()
	return summary{
		op:    op,
		shape: fmt.Sprintf("%dx%dx%d", c.Channels(), c.Height(), c.Width()),
		lo:    floats.Min(data),
		hi:    floats.Max(data),
		total: floats.Sum(data),
		note:  note,
	}
}

func sliceSummary(op string, v []float64, note string) summary {
	return summary{
		op:    op,
		shape: fmt.Sprintf("%d", len(v)),
		lo:    floats.Min(v),
		hi:    floats.Max(v),
		total: floats.Sum(v),
		note:  note,
	}
}

func runFit(ctx context.Context, r analyzer.Request) ([]summary, error) {
	coef, err := analyzer.Fit(ctx, r)
	if err != nil {
		return nil, err
	}
	note := fmt.Sprintf("%s over %v", coef.Model, r.FitWindow)
	if coef.Singular {
		note += ", singular"
	}
	return []summary{
		sliceSummary("fit c0", coef.C0, note),
		sliceSummary("fit c1", coef.C1, note),
	}, nil
}

func runSubtract(ctx context.Context, r analyzer.Request) ([]summary, error) {
	c, err := analyzer.Subtract(ctx, r)
	if err != nil {
		return nil, err
	}
	return []summary{cubeSummary("subtract", c, "")}, nil
}

func runIntegrate(ctx context.Context, r analyzer.Request) ([]summary, error) {
	m, err := analyzer.Integrate(ctx, r)
	if err != nil {
		return nil, err
	}
	return []summary{mapSummary("integrate", m, fmt.Sprintf("over %v", r.IntWindow))}, nil
}

func runHCM(ctx context.Context, r analyzer.Request) ([]summary, error) {
	m, err := analyzer.HCMIntegrate(ctx, r)
	if err != nil {
		return nil, err
	}
	return []summary{mapSummary("hcm", m, fmt.Sprintf("over %v", r.IntWindow))}, nil
}

func runModelFit(ctx context.Context, r analyzer.Request) ([]summary, error) {
	res, err := analyzer.ModelFit(ctx, r)
	if err != nil {
		return nil, err
	}
	note := fmt.Sprintf("fwhm %.2f", r.Oversampling)
	return []summary{
		mapSummary("modelfit scale", res.Scale, note),
		mapSummary("modelfit edge", res.Edge, note),
	}, nil
}

func runResidual(ctx context.Context, r analyzer.Request) ([]summary, error) {
	c, err := analyzer.Residual(ctx, r)
	if err != nil {
		return nil, err
	}
	return []summary{cubeSummary("residual", c, "")}, nil
}

func runPCA(ctx context.Context, r analyzer.Request) ([]summary, error) {
	res, err := analyzer.PCA(ctx, r)
	if err != nil {
		return nil, err
	}
	out := []summary{sliceSummary("pca scree", res.Scree, fmt.Sprintf("%d components", res.Components()))}
	for i := 0; i < min(3, res.Components()); i++ {
		out = append(out, mapSummary(fmt.Sprintf("pca map %d", i), res.Map(i),
			fmt.Sprintf("s=%.4g", res.Values[i])))
	}
	return out, nil
}

func runDenoise(ctx context.Context, r analyzer.Request) ([]summary, error) {
	c, err := analyzer.Denoise(ctx, r)
	if err != nil {
		return nil, err
	}
	return []summary{cubeSummary("denoise", c, fmt.Sprintf("%d components", max(r.Components, 1)))}, nil
}

func printSummaries(w io.Writer, rows []summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Operation\tShape\tMin\tMax\tSum\tNote\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := fmt.Fprintf(tw, "---------\t-----\t---\t---\t---\t----\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%.4g\t%.4g\t%.4g\t%s\n",
			s.op, s.shape, s.lo, s.hi, s.total, s.note); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return tw.Flush()
}
