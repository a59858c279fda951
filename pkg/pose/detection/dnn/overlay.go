package dnn

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/teslashibe/posetempo/pkg/pose"
)

// Overlay draws pose skeletons onto JPEG frames.
type Overlay struct {
	LineColor  color.RGBA
	PointColor color.RGBA
	Thickness  int
	Quality    int // JPEG quality 1-100
	Points     bool
}

// NewOverlay returns an overlay that draws connectors only.
func NewOverlay() *Overlay {
	return &Overlay{
		LineColor:  color.RGBA{0, 255, 0, 0},
		PointColor: color.RGBA{255, 0, 0, 0},
		Thickness:  2,
		Quality:    80,
	}
}

// Render decodes the frame, draws every pose and re-encodes it.
func (o *Overlay) Render(jpeg []byte, poses []pose.Pose) ([]byte, error) {
	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	for _, p := range poses {
		o.draw(&img, p)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, o.Quality})
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

func (o *Overlay) draw(img *gocv.Mat, p pose.Pose) {
	w, h := img.Cols(), img.Rows()
	pt := func(l pose.Landmark) image.Point {
		return image.Pt(int(l.X*float64(w)), int(l.Y*float64(h)))
	}

	for _, c := range pose.Connections {
		if !p.Has(c.From) || !p.Has(c.To) {
			continue
		}
		gocv.Line(img, pt(p[c.From]), pt(p[c.To]), o.LineColor, o.Thickness)
	}

	if !o.Points {
		return
	}
	for _, l := range p {
		gocv.Circle(img, pt(l), o.Thickness+1, o.PointColor, -1)
	}
}
