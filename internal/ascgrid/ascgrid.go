// Package ascgrid reads and writes rasters in the ESRI ASCII grid format.
package ascgrid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/natevvv/walking-coverage/pkg/grid"
	"github.com/natevvv/walking-coverage/pkg/raster"
)

var (
	ErrMalformedHeader = errors.New("ascgrid: malformed header")
	ErrShortData       = errors.New("ascgrid: fewer values than ncols*nrows")
	ErrNonSquareCells  = errors.New("ascgrid: cells must be square")
)

// DefaultNoData is written for unreachable cells when the caller has no nodata value of its own.
const DefaultNoData = -9999

type Raster struct {
	Grid         *grid.Grid[float32]
	GeoTransform raster.GeoTransform
	NoData       float64
	HasNoData    bool
}

type header struct {
	ncols, nrows     int
	x, y             float64
	xCenter, yCenter bool
	dx, dy           float64
	nodata           float64
	hasNoData        bool
}

func (h *header) set(key, value string) error {
	var err error
	switch key {
	case "ncols":
		h.ncols, err = strconv.Atoi(value)
	case "nrows":
		h.nrows, err = strconv.Atoi(value)
	case "xllcorner", "xllcenter":
		h.x, err = strconv.ParseFloat(value, 64)
		h.xCenter = key == "xllcenter"
	case "yllcorner", "yllcenter":
		h.y, err = strconv.ParseFloat(value, 64)
		h.yCenter = key == "yllcenter"
	case "cellsize":
		h.dx, err = strconv.ParseFloat(value, 64)
		h.dy = h.dx
	case "dx":
		h.dx, err = strconv.ParseFloat(value, 64)
	case "dy":
		h.dy, err = strconv.ParseFloat(value, 64)
	case "nodata_value":
		h.nodata, err = strconv.ParseFloat(value, 64)
		h.hasNoData = true
	default:
		return fmt.Errorf("%w: unknown key %q", ErrMalformedHeader, key)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedHeader, key, err)
	}
	return nil
}

func (h *header) geoTransform() raster.GeoTransform {
	left, bottom := h.x, h.y
	if h.xCenter {
		left -= h.dx / 2
	}
	if h.yCenter {
		bottom -= h.dy / 2
	}
	return raster.MakeGeoTransform(left, bottom+float64(h.nrows)*h.dy, h.dx, h.dy)
}

func isKey(token string) bool {
	c := token[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Read parses an ASCII grid. Rows are stored top row first, like the file.
func Read(r io.Reader) (*Raster, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(bufio.ScanWords)

	h := header{}
	var first string
	for scanner.Scan() {
		token := scanner.Text()
		if !isKey(token) || strings.EqualFold(token, "nan") || strings.EqualFold(token, "inf") {
			first = token
			break
		}
		if !scanner.Scan() {
			return nil, fmt.Errorf("%w: missing value of %s", ErrMalformedHeader, token)
		}
		if err := h.set(strings.ToLower(token), scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if h.ncols <= 0 || h.nrows <= 0 {
		return nil, fmt.Errorf("%w: ncols and nrows must be positive", ErrMalformedHeader)
	}
	if !(h.dx > 0) || !(h.dy > 0) {
		return nil, fmt.Errorf("%w: cell size must be positive", ErrMalformedHeader)
	}

	g, err := grid.New[float32](h.ncols, h.nrows)
	if err != nil {
		return nil, err
	}
	n := 0
	parse := func(token string) error {
		v, err := strconv.ParseFloat(token, 32)
		if err != nil {
			return fmt.Errorf("ascgrid: value %d: %w", n, err)
		}
		g.Data[n] = float32(v)
		n++
		return nil
	}
	if first != "" {
		if err := parse(first); err != nil {
			return nil, err
		}
	}
	for n < len(g.Data) && scanner.Scan() {
		if err := parse(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if n < len(g.Data) {
		return nil, fmt.Errorf("%w: got %d of %d", ErrShortData, n, len(g.Data))
	}

	return &Raster{Grid: g, GeoTransform: h.geoTransform(), NoData: h.nodata, HasNoData: h.hasNoData}, nil
}

func ReadFile(filename string) (*Raster, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Read(file)
}

// IsNoData reports whether v is the nodata value or not a number.
func (r *Raster) IsNoData(v float32) bool {
	return math.IsNaN(float64(v)) || (r.HasNoData && v == float32(r.NoData))
}

// FrictionGrid returns a copy of the grid with nodata cells set to +Inf, which makes them impassable.
func (r *Raster) FrictionGrid() *grid.Grid[float32] {
	friction := r.Grid.Clone()
	for i, v := range friction.Data {
		if r.IsNoData(v) {
			friction.Data[i] = float32(math.Inf(1))
		}
	}
	return friction
}

func (r *Raster) Adapter() (*raster.Adapter, error) {
	return raster.NewAdapter(r.GeoTransform, r.Grid.Width, r.Grid.Height)
}

// Write stores g in the ASCII grid format. Non-finite values are written as nodata.
func Write(w io.Writer, g *grid.Grid[float32], gt raster.GeoTransform, nodata float64) error {
	if !gt.IsNorthUp() {
		return raster.ErrNotNorthUp
	}
	cellSize := gt[1]
	if math.Abs(cellSize+gt[5]) > 1e-9*cellSize {
		return fmt.Errorf("%w: %v x %v", ErrNonSquareCells, gt[1], -gt[5])
	}

	bw := bufio.NewWriter(w)
	noDataText := strconv.FormatFloat(nodata, 'g', -1, 64)
	fmt.Fprintf(bw, "ncols %d\n", g.Width)
	fmt.Fprintf(bw, "nrows %d\n", g.Height)
	fmt.Fprintf(bw, "xllcorner %s\n", strconv.FormatFloat(gt[0], 'g', -1, 64))
	fmt.Fprintf(bw, "yllcorner %s\n", strconv.FormatFloat(gt[3]+gt[5]*float64(g.Height), 'g', -1, 64))
	fmt.Fprintf(bw, "cellsize %s\n", strconv.FormatFloat(cellSize, 'g', -1, 64))
	fmt.Fprintf(bw, "NODATA_value %s\n", noDataText)

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if x > 0 {
				bw.WriteByte(' ')
			}
			v := g.At(x, y)
			if math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
				bw.WriteString(noDataText)
			} else {
				bw.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func WriteFile(filename string, g *grid.Grid[float32], gt raster.GeoTransform, nodata float64) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := Write(file, g, gt, nodata); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
