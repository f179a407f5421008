package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"

	"github.com/cwbudde/algo-csi/analyzer"
	"github.com/cwbudde/algo-csi/cube"
	"github.com/cwbudde/algo-csi/fit"
	"github.com/cwbudde/algo-csi/pca"
	"gopkg.in/yaml.v3"
)

// Request is the YAML description of a synthetic cube and the analysis to
// run on it.
type Request struct {
	Cube CubeSpec `yaml:"cube"`

	Model        string  `yaml:"model"`
	FitWindow    []int   `yaml:"fit_window"`
	IntWindow    []int   `yaml:"int_window"`
	PCAWindow    []int   `yaml:"pca_window"`
	Weighted     bool    `yaml:"weighted"`
	MeanCentered bool    `yaml:"mean_centered"`
	Center       string  `yaml:"center"`
	Oversampling float64 `yaml:"oversampling"`
	Components   int     `yaml:"components"`

	Operations []string `yaml:"operations"`
}

// CubeSpec describes the synthetic cube.
type CubeSpec struct {
	Channels    int             `yaml:"channels"`
	Height      int             `yaml:"height"`
	Width       int             `yaml:"width"`
	Calibration CalibrationSpec `yaml:"calibration"`
	Background  BackgroundSpec  `yaml:"background"`
	Peaks       []PeakSpec      `yaml:"peaks"`
	Noise       NoiseSpec       `yaml:"noise"`
}

// CalibrationSpec gives x[i] = origin + step*i.
type CalibrationSpec struct {
	Origin float64 `yaml:"origin"`
	Step   float64 `yaml:"step"`
	Unit   string  `yaml:"unit"`
}

// BackgroundSpec is evaluated with the named fit model. Gradient scales
// the background linearly across the pixels, from 1 to 1+gradient.
type BackgroundSpec struct {
	Model    string  `yaml:"model"`
	C0       float64 `yaml:"c0"`
	C1       float64 `yaml:"c1"`
	R1       float64 `yaml:"r1"`
	R2       float64 `yaml:"r2"`
	Gradient float64 `yaml:"gradient"`
}

// PeakSpec is a Gaussian edge in channel units. With Ramp set the
// amplitude grows linearly from 0 to Amplitude across the pixels.
type PeakSpec struct {
	Channel   float64 `yaml:"channel"`
	Width     float64 `yaml:"width"`
	Amplitude float64 `yaml:"amplitude"`
	Ramp      bool    `yaml:"ramp"`
}

// NoiseSpec adds uniform noise in [-amplitude, amplitude].
type NoiseSpec struct {
	Amplitude float64 `yaml:"amplitude"`
	Seed      int64   `yaml:"seed"`
}

// Default returns the request used without a file: a power-law background
// with one edge, analysed with every operation.
func Default() *Request {
	return &Request{
		Cube: CubeSpec{
			Channels: 128,
			Height:   8,
			Width:    8,
			Calibration: CalibrationSpec{
				Origin: 250,
				Step:   1,
				Unit:   "eV",
			},
			Background: BackgroundSpec{
				Model:    "power",
				C0:       math.Log(1e8),
				C1:       -2.5,
				Gradient: 0.5,
			},
			Peaks: []PeakSpec{
				{Channel: 80, Width: 4, Amplitude: 40, Ramp: true},
			},
		},
		Model:      "power",
		FitWindow:  []int{10, 60},
		IntWindow:  []int{70, 100},
		PCAWindow:  []int{60, 110},
		Components: 2,
		Operations: []string{"fit", "subtract", "integrate", "hcm", "modelfit", "pca"},
	}
}

// Load reads a request from YAML and fills unset fields from Default.
func Load(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML request and fills unset fields from Default.
func Parse(data []byte) (*Request, error) {
	var r Request
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	applyDefaults(&r)
	return &r, nil
}

func applyDefaults(r *Request) {
	d := Default()
	c := &r.Cube
	if c.Channels == 0 {
		c.Channels = d.Cube.Channels
	}
	if c.Height == 0 {
		c.Height = d.Cube.Height
	}
	if c.Width == 0 {
		c.Width = d.Cube.Width
	}
	if c.Calibration.Step == 0 {
		c.Calibration.Step = d.Cube.Calibration.Step
	}
	if c.Background.Model == "" {
		c.Background = d.Cube.Background
	}
	if r.Model == "" {
		r.Model = d.Model
	}
	if len(r.FitWindow) == 0 {
		r.FitWindow = d.FitWindow
	}
	if len(r.IntWindow) == 0 {
		r.IntWindow = d.IntWindow
	}
	if len(r.PCAWindow) == 0 {
		r.PCAWindow = d.PCAWindow
	}
	if len(r.Operations) == 0 {
		r.Operations = d.Operations
	}
}

// Build synthesizes the cube.
func (r *Request) Build() (*cube.Cube, error) {
	spec := r.Cube
	cal, err := cube.Affine(spec.Channels, spec.Calibration.Step, spec.Calibration.Origin)
	if err != nil {
		return nil, err
	}
	cal.XUnit = spec.Calibration.Unit

	bgModel, err := fit.ParseModel(spec.Background.Model)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	params := fit.DefaultParams()
	params.R1, params.R2 = spec.Background.R1, spec.Background.R2

	pixels := spec.Height * spec.Width
	data := make([]float64, spec.Channels*pixels)
	rng := rand.New(rand.NewSource(spec.Noise.Seed))
	for k := 0; k < spec.Channels; k++ {
		base := bgModel.EvalParams(spec.Background.C0, spec.Background.C1, cal.X[k], params)
		for p := 0; p < pixels; p++ {
			frac := 0.0
			if pixels > 1 {
				frac = float64(p) / float64(pixels-1)
			}
			v := base * (1 + spec.Background.Gradient*frac)
			for _, pk := range spec.Peaks {
				amp := pk.Amplitude
				if pk.Ramp {
					amp *= frac
				}
				v += amp * edge(float64(k), pk.Channel, pk.Width)
			}
			if spec.Noise.Amplitude > 0 {
				v += (rng.Float64()*2 - 1) * spec.Noise.Amplitude
			}
			data[k*pixels+p] = v
		}
	}
	return cube.New(spec.Channels, spec.Height, spec.Width, data, cal)
}

// edge is a Gaussian-smoothed onset: 0 well below center, 1 well above.
func edge(k, center, width float64) float64 {
	if width <= 0 {
		if k >= center {
			return 1
		}
		return 0
	}
	return 0.5 * math.Erfc(-(k-center)/(width*math.Sqrt2))
}

// Analysis converts the request into an analyzer.Request for c.
func (r *Request) Analysis(c *cube.Cube) (analyzer.Request, error) {
	m, err := fit.ParseModel(r.Model)
	if err != nil {
		return analyzer.Request{}, err
	}
	center, err := parseCenter(r.Center)
	if err != nil {
		return analyzer.Request{}, err
	}
	fw, err := parseWindow("fit_window", r.FitWindow)
	if err != nil {
		return analyzer.Request{}, err
	}
	iw, err := parseWindow("int_window", r.IntWindow)
	if err != nil {
		return analyzer.Request{}, err
	}
	pw, err := parseWindow("pca_window", r.PCAWindow)
	if err != nil {
		return analyzer.Request{}, err
	}
	return analyzer.Request{
		Cube:         c,
		Model:        m,
		FitWindow:    fw,
		IntWindow:    iw,
		PCAWindow:    pw,
		Weighted:     r.Weighted,
		MeanCentered: r.MeanCentered,
		Center:       center,
		Oversampling: r.Oversampling,
		Components:   r.Components,
	}, nil
}

// parseWindow reads a [start, end) pair. An empty list is the zero window,
// rejected later by the operations that need it.
func parseWindow(name string, v []int) (cube.Window, error) {
	switch len(v) {
	case 0:
		return cube.Window{}, nil
	case 2:
		return cube.Window{Start: v[0], End: v[1]}, nil
	default:
		return cube.Window{}, fmt.Errorf("%s: want [start, end], got %v", name, v)
	}
}

func parseCenter(s string) (pca.Center, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return pca.CenterAuto, nil
	case "pixels", "pixel":
		return pca.CenterPixels, nil
	case "channels", "channel":
		return pca.CenterChannels, nil
	}
	return pca.CenterAuto, fmt.Errorf("unknown center %q (auto, pixels, channels)", s)
}
