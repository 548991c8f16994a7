package crimeviz

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/midbel/svg"
)

var ErrGeometry = errors.New("unsupported geometry")

type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Rings returns the polygons of the geometry, each as a list of rings of
// [lon, lat] pairs.
func (g Geometry) Rings() ([][][][2]float64, error) {
	switch g.Type {
	case "Polygon":
		var poly [][][2]float64
		if err := json.Unmarshal(g.Coordinates, &poly); err != nil {
			return nil, err
		}
		return [][][][2]float64{poly}, nil
	case "MultiPolygon":
		var multi [][][][2]float64
		if err := json.Unmarshal(g.Coordinates, &multi); err != nil {
			return nil, err
		}
		return multi, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrGeometry, g.Type)
	}
}

type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

// Name returns the region name of the feature, or an empty string when none
// of its properties can be used.
func (f Feature) Name() string {
	if str, ok := f.Properties["name"].(string); ok {
		return TitleCase(str)
	}
	return ""
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// DecodeFeatures reads a feature collection and normalizes the name of each
// feature under the name property.
func DecodeFeatures(r io.Reader) (FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return fc, err
	}
	col := nameProperty(fc.Features)
	for i := range fc.Features {
		f := &fc.Features[i]
		if f.Properties == nil {
			continue
		}
		if col != "" && col != "name" {
			f.Properties["name"] = f.Properties[col]
			delete(f.Properties, col)
		}
		if str, ok := f.Properties["name"].(string); ok {
			f.Properties["name"] = TitleCase(str)
		}
	}
	return fc, nil
}

func nameProperty(features []Feature) string {
	var keys []string
	for _, f := range features {
		if _, ok := f.Properties["name"]; ok {
			return "name"
		}
		for k := range f.Properties {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		lower := strings.ToLower(k)
		if strings.Contains(lower, "name") || strings.Contains(lower, "borough") {
			return k
		}
	}
	return ""
}

type bounds struct {
	minX, minY float64
	maxX, maxY float64
}

func emptyBounds() bounds {
	return bounds{
		minX: math.Inf(1),
		minY: math.Inf(1),
		maxX: math.Inf(-1),
		maxY: math.Inf(-1),
	}
}

func (b *bounds) add(x, y float64) {
	b.minX = math.Min(b.minX, x)
	b.minY = math.Min(b.minY, y)
	b.maxX = math.Max(b.maxX, x)
	b.maxY = math.Max(b.maxY, y)
}

func (b bounds) valid() bool {
	return !math.IsInf(b.minX, 0) && b.maxX >= b.minX && b.maxY >= b.minY
}

// Projection is an equirectangular projection fitted to a pixel area.
type Projection struct {
	scale  float64
	coslat float64
	dx     float64
	dy     float64
}

func FitProjection(fc FeatureCollection, width, height float64) Projection {
	var (
		shapes = projectRaw(fc)
		box    = emptyBounds()
		lat    = emptyBounds()
	)
	for _, s := range shapes {
		for _, ring := range s {
			for _, pt := range ring {
				lat.add(pt[0], pt[1])
			}
		}
	}
	p := Projection{
		scale:  1,
		coslat: 1,
	}
	if !lat.valid() {
		return p
	}
	p.coslat = math.Cos((lat.minY + lat.maxY) / 2 * math.Pi / 180)
	for _, s := range shapes {
		for _, ring := range s {
			for _, pt := range ring {
				box.add(pt[0]*p.coslat, -pt[1])
			}
		}
	}
	var (
		w = box.maxX - box.minX
		h = box.maxY - box.minY
	)
	if w > 0 && h > 0 {
		p.scale = math.Min(width/w, height/h)
	}
	p.dx = (width-w*p.scale)/2 - box.minX*p.scale
	p.dy = (height-h*p.scale)/2 - box.minY*p.scale
	return p
}

func projectRaw(fc FeatureCollection) [][][][2]float64 {
	var list [][][][2]float64
	for _, f := range fc.Features {
		polys, err := f.Geometry.Rings()
		if err != nil {
			continue
		}
		list = append(list, polys...)
	}
	return list
}

func (p Projection) Project(lon, lat float64) svg.Pos {
	return svg.NewPos(lon*p.coslat*p.scale+p.dx, -lat*p.scale+p.dy)
}

func (p Projection) path(polys [][][][2]float64) svg.Path {
	pat := getBasePath("", 0)
	for _, poly := range polys {
		for _, ring := range poly {
			for i, pt := range ring {
				pos := p.Project(pt[0], pt[1])
				if i == 0 {
					pat.AbsMoveTo(pos)
					continue
				}
				pat.AbsLineTo(pos)
			}
			pat.ClosePath()
		}
	}
	pat.Fill.Rule = "evenodd"
	return pat
}

const (
	legendBlock = 25.0
	legendTitle = "Crime Count"
)

// MapState carries the region under the pointer, if any.
type MapState struct {
	Highlighted string
}

// RenderMap draws the regions colored by their counts, with the legend in
// the bottom right corner.
func RenderMap(w io.Writer, fc FeatureCollection, counts map[string]float64, b Budget, state MapState) error {
	if len(fc.Features) == 0 {
		return RenderMessage(w, b, MessageNoData)
	}
	var (
		el     = newSurface(b)
		breaks = Breaks(counts)
		scale  = NewThresholdScale(breaks)
		proj   = FitProjection(fc, b.Width, b.Height-legendBlock*2)
	)
	el.Class = append(el.Class, "choropleth")

	regions := getBaseGroup("", "regions")
	var top svg.Element
	for _, f := range fc.Features {
		polys, err := f.Geometry.Rings()
		if err != nil {
			continue
		}
		var (
			name = f.Name()
			st   = StyleFeature(name, counts, scale)
			pat  = proj.path(polys)
		)
		highlighted := name != "" && name == state.Highlighted
		if highlighted {
			st = st.Highlight()
		}
		pat.Fill.Color = st.Fill
		pat.Fill.Opacity = st.FillOpacity
		pat.Stroke = svg.NewStroke(st.Border, st.Weight)
		pat.Stroke.Opacity = st.Opacity
		pat.Class = []string{"region", "region-" + Slugify(name)}
		if name != "" {
			pat.Data = []svg.Datum{
				{Name: "name", Value: escape(name)},
			}
			pat.Title = escape(regionTooltip(name, counts))
		}
		if highlighted {
			top = pat.AsElement()
			continue
		}
		regions.Append(pat.AsElement())
	}
	if top != nil {
		regions.Append(top)
	}
	el.Append(regions.AsElement())
	el.Append(renderGrades(breaks, scale, b))
	return render(w, el.AsElement())
}

func regionTooltip(name string, counts map[string]float64) string {
	v, ok := counts[name]
	if !ok {
		return fmt.Sprintf("%s - Count: N/A", name)
	}
	return fmt.Sprintf("%s - Count: %s", name, FormatThousands(v))
}

func renderGrades(breaks []float64, scale ThresholdScale, b Budget) svg.Element {
	var (
		grades, next = LegendGrades(breaks, scale)
		grp          = getBaseGroup("", "map-legend")
		width        = float64(len(grades)+1) * legendBlock
		font         = svg.NewFont(TickFontSize)
	)
	font.Fill = "currentColor"
	grp.Transform = svg.Translate(b.Width-width, b.Height-legendBlock*2)

	title := svg.NewText(legendTitle)
	title.Font = font
	title.Font.Weight = "bold"
	grp.Append(title.AsElement())

	for i, g := range grades {
		x := float64(i) * legendBlock
		grp.Append(GetSquare(svg.NewPos(x+legendBlock/2, legendBlock*0.75), legendBlock/2, g.Color))

		txt := svg.NewText(g.Label)
		txt.Pos = svg.NewPos(x+legendBlock/2, legendBlock*1.5)
		txt.Anchor = "middle"
		txt.Font = font
		grp.Append(txt.AsElement())
	}
	if next != "" {
		txt := svg.NewText(next)
		txt.Pos = svg.NewPos(float64(len(grades))*legendBlock+legendBlock/2, legendBlock*1.5)
		txt.Anchor = "middle"
		txt.Font = font
		grp.Append(txt.AsElement())
	}
	return grp.AsElement()
}
