package report

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const (
	DefaultClient      = "PETROBRAS"
	DefaultProject     = "FPSO_P-82"
	DefaultTitle       = "Request For Fabrication"
	DefaultVendor      = "EJA"
	DefaultInstruction = "Special Instruction : Please be informed that Materials for the following. SPOOL PIECE No.[s] are available for Issuance."

	// logos are fitted into the A1:B5 / I1:L5 title boxes
	logoMaxWidth  = 140
	logoMaxHeight = 90
)

// Layout carries the fixed texts and optional logos of the report title block.
type Layout struct {
	Client      string
	Project     string
	Title       string
	Vendor      string
	Instruction string
	LeftLogo    []byte
	RightLogo   []byte
}

func DefaultLayout() Layout {
	return Layout{
		Client:      DefaultClient,
		Project:     DefaultProject,
		Title:       DefaultTitle,
		Vendor:      DefaultVendor,
		Instruction: DefaultInstruction,
	}
}

func (l Layout) withDefaults() Layout {
	d := DefaultLayout()
	if l.Client == "" {
		l.Client = d.Client
	}
	if l.Project == "" {
		l.Project = d.Project
	}
	if l.Title == "" {
		l.Title = d.Title
	}
	if l.Vendor == "" {
		l.Vendor = d.Vendor
	}
	if l.Instruction == "" {
		l.Instruction = d.Instruction
	}
	return l
}

// LoadLogo reads an image file and returns it as a PNG scaled to the title box.
// An empty path yields no logo.
func LoadLogo(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read logo: %w", err)
	}
	return PrepareLogo(raw)
}

// PrepareLogo decodes png, jpeg, gif or webp and re-encodes it as PNG no larger
// than the logo box, keeping the aspect ratio.
func PrepareLogo(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, errors.New("logo file is empty")
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		decoded, decodeErr := webp.Decode(bytes.NewReader(raw))
		if decodeErr != nil {
			return nil, errors.New("unable to decode logo")
		}
		img = decoded
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, errors.New("invalid logo dimensions")
	}
	scale := min(float64(logoMaxWidth)/float64(w), float64(logoMaxHeight)/float64(h), 1)
	tw, th := max(int(float64(w)*scale), 1), max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, fmt.Errorf("encode logo: %w", err)
	}
	return out.Bytes(), nil
}
