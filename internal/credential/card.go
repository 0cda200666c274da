package credential

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Card dimensions follow the Open Graph image size.
const (
	CardWidth  = 1200
	CardHeight = 630
)

var (
	navy  = color.NRGBA{R: 0x14, G: 0x21, B: 0x3d, A: 0xff}
	gold  = color.NRGBA{R: 0xfc, G: 0xa3, B: 0x11, A: 0xff}
	light = color.NRGBA{R: 0xe5, G: 0xe5, B: 0xe5, A: 0xff}
)

type fonts struct {
	title, heading, body font.Face
}

var loadFonts = sync.OnceValues(parseFonts)

func parseFonts() (*fonts, error) {
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	return &fonts{
		title:   truetype.NewFace(bold, &truetype.Options{Size: 64}),
		heading: truetype.NewFace(bold, &truetype.Options{Size: 36}),
		body:    truetype.NewFace(regular, &truetype.Options{Size: 28}),
	}, nil
}

// RenderCard draws the shareable PNG card.
func RenderCard(v *View) ([]byte, error) {
	f, err := loadFonts()
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(CardWidth, CardHeight)
	dc.SetColor(navy)
	dc.Clear()

	dc.SetColor(gold)
	dc.DrawRectangle(0, 0, 24, CardHeight)
	dc.Fill()

	const left = 80.0
	dc.SetFontFace(f.body)
	dc.SetColor(light)
	dc.DrawString("EXCELLERE CREDENTIAL", left, 100)

	dc.SetFontFace(f.title)
	dc.SetColor(color.White)
	dc.DrawStringWrapped(v.LearnerName, left, 130, 0, 0, CardWidth-2*left, 1.1, gg.AlignLeft)

	dc.SetFontFace(f.heading)
	dc.SetColor(gold)
	dc.DrawString(v.Archetype, left, 300)

	dc.SetFontFace(f.body)
	dc.SetColor(light)
	dc.DrawStringWrapped(v.ModuleTitle, left, 330, 0, 0, CardWidth-2*left, 1.3, gg.AlignLeft)
	dc.DrawString(fmt.Sprintf("Overall score %d", v.OverallScore), left, 450)
	if len(v.Badges) > 0 {
		names := make([]string, len(v.Badges))
		for i, b := range v.Badges {
			names[i] = b.Name
		}
		dc.DrawStringWrapped(strings.Join(names, "  |  "), left, 480, 0, 0, CardWidth-2*left, 1.3, gg.AlignLeft)
	}
	dc.DrawString("Validated "+v.ValidatedAt.Format("2 Jan 2006"), left, CardHeight-50)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return buf.Bytes(), nil
}
