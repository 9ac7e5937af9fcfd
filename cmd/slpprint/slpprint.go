// slpprint decodes an SLP sprite container and prints a summary of its
// first (or requested) frame, optionally drawing it on the terminal.
//
// The summary path goes through the shim package on purpose, to exercise
// the legacy status-code boundary end to end.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"

	"badc0de.net/pkg/flagutil/v1"

	"badc0de.net/pkg/go-genie/imageprint"
	"badc0de.net/pkg/go-genie/pal"
	"badc0de.net/pkg/go-genie/shim"
	"badc0de.net/pkg/go-genie/slp"

	"github.com/golang/glog"
	"github.com/nfnt/resize"
)

var (
	frameID  = flag.Int("frame", 0, "frame to decode")
	player   = flag.Int("player", 0, "player identifier for player-color runs (0 = default)")
	palPath  = flag.String("pal", "", "path to a JASC-PAL palette; a grayscale ramp is used if unset")
	show     = flag.Bool("show", false, "draw the decoded frame on the terminal")
	col256   = flag.Bool("col256", false, "whether to use 256 col instead of 24 bit")
	iterm    = flag.Bool("iterm", false, "whether to print with iterm escape code instead of 24 bit")
	blanks   = flag.Bool("blanks", true, "whether to just use colored blanks instead of some bad ascii art")
	maxWidth = flag.Uint("maxwidth", 80, "downscale frames wider than this before drawing; 0 disables")
)

func main() {
	flagutil.Parse()
	flag.Set("logtostderr", "true")

	if flag.NArg() != 1 {
		fmt.Println("usage: slpprint [flags] <path/to/your.slp>")
		os.Exit(1)
	}
	path := flag.Arg(0)

	buf, w, h, code := shim.DecodeFile(path)
	if code != shim.StatusOK {
		fmt.Println(code)
		os.Exit(2)
	}

	fmt.Printf("image_data_len: %d\n", w*h)
	fmt.Printf("width: %d height: %d\n", w, h)

	if *show {
		showFrame(path)
	}

	if err := shim.Release(buf, w*h); err != nil {
		glog.Errorf("releasing frame buffer: %v", err)
		os.Exit(2)
	}
}

func loadPalette() color.Palette {
	if *palPath == "" {
		return pal.Default()
	}
	f, err := os.Open(*palPath)
	if err != nil {
		glog.Errorf("opening palette: %v", err)
		return pal.Default()
	}
	defer f.Close()
	p, err := pal.ReadJASC(f)
	if err != nil {
		glog.Errorf("parsing palette %s: %v", *palPath, err)
		return pal.Default()
	}
	return p
}

func showFrame(path string) {
	f, err := os.Open(path)
	if err != nil {
		glog.Errorf("opening %s: %v", path, err)
		return
	}
	defer f.Close()

	frame, err := slp.DecodeOne(f, *frameID, slp.Options{Player: uint8(*player)})
	if err != nil {
		glog.Errorf("decoding frame %d: %v", *frameID, err)
		return
	}

	img, err := frame.Image(loadPalette())
	if err != nil {
		glog.Errorf("resolving palette: %v", err)
		return
	}

	out(img)
}

func out(img image.Image) {
	if *maxWidth > 0 && img.Bounds().Dx() > int(*maxWidth) {
		img = resize.Resize(*maxWidth, 0, img, resize.NearestNeighbor)
	}
	if *iterm {
		imageprint.PrintITerm(img, "frame.png")
	} else if *col256 {
		imageprint.Print256Color(img, *blanks)
	} else {
		imageprint.Print24bit(img, *blanks)
	}
}
