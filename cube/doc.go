// Package cube provides the immutable spectrum-image data model.
//
// A Cube holds intensities indexed by channel and spatial position together
// with the calibration of its spectral axis. Three shapes are supported:
//
//   - Map: Channels x Height x Width, a full spectrum image
//   - Line: Channels x Height x 1, a line scan
//   - Point: Channels x 1 x 1, a single spectrum
//
// Storage is channel-major, so one channel image (all pixels at channel k)
// is contiguous. Pixels are numbered row-major: p = row*Width + col.
//
// Channel ranges are expressed as half-open Windows [Start, End). Fit,
// integration and PCA windows are chosen independently and may overlap.
//
// # Usage
//
//	cal, _ := cube.Affine(1024, 0.25, 100) // x[i] = 0.25*i + 100 eV
//	cal.XUnit = "eV"
//	c, err := cube.New(1024, 64, 64, data, cal)
//	spectrum, _ := c.Profile(nil) // mean spectrum of the whole map
package cube
