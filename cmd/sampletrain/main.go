// Command sampletrain extracts labeled glyph samples from an image of
// handwriting or print. It binarizes the image, segments it into glyphs
// and pairs them left to right with the given labels (or with Tesseract's
// reading of each glyph), then merges them into a sample set JSON file.
//
// Usage: sampletrain [options] <image> [labels]
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"glyphocr/internal/binarize"
	"glyphocr/internal/config"
	"glyphocr/internal/ocr"
	"glyphocr/internal/raster"
	"glyphocr/internal/reference"
	"glyphocr/internal/samples"
	"glyphocr/internal/version"

	log "github.com/sirupsen/logrus"
)

var (
	flagConfig    = flag.String("config", os.Getenv("GLYPHOCR_CONFIG"), "Config file")
	flagOut       = flag.String("out", "", "Sample set to merge into (default from config)")
	flagAutoLabel = flag.Bool("autolabel", false, "Label glyphs with Tesseract instead of the labels argument")
	flagThreshold = flag.Float64("threshold", 0, "Plain luminance threshold (0-255); skips OpenCV binarization")
	flagSource    = flag.String("source", samples.SourceImage, "Source recorded on each sample")
	flagDryRun    = flag.Bool("n", false, "Print the glyphs without writing the sample set")
	flagVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <image> [labels]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nExtracts labeled glyph samples from an image.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *flagVersion {
		fmt.Println(version.String())
		return
	}
	if flag.NArg() < 1 || (flag.NArg() < 2 && !*flagAutoLabel) {
		flag.Usage()
		os.Exit(1)
	}
	imagePath := flag.Arg(0)

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	log.SetLevel(cfg.Level())

	params, err := cfg.OCRParams()
	if err != nil {
		log.Fatalf("Error in config: %v", err)
	}
	rec, err := ocr.NewRecognizer(params)
	if err != nil {
		log.Fatalf("Error creating recognizer: %v", err)
	}

	fmt.Printf("Loading image: %s\n", imagePath)
	canvas, err := loadCanvas(imagePath, cfg.Binarize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
		os.Exit(1)
	}
	boxes := rec.Segment(canvas)
	fmt.Printf("  %dx%d, %d glyphs\n", canvas.Width(), canvas.Height(), len(boxes))

	labels := strings.Join(flag.Args()[1:], "")
	if *flagAutoLabel {
		if labels, err = autoLabel(canvas, rec, cfg.Alphabet); err != nil {
			fmt.Fprintf(os.Stderr, "Error labeling with Tesseract: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  Tesseract labels: %q\n", labels)
	}

	glyphs, ignored := rec.LabelBoxes(canvas, labels)
	if _, ok := glyphs[unread]; ok && *flagAutoLabel {
		delete(glyphs, unread)
		fmt.Println("Warning: skipped glyphs Tesseract could not read")
	}
	if ignored > 0 {
		fmt.Printf("Warning: %d glyphs have no label (%d labels, %d glyphs)\n",
			ignored, len(ocr.Graphemes(labels)), len(boxes))
	}
	for _, label := range sortedLabels(glyphs) {
		g := glyphs[label]
		fmt.Printf("  %s: %dx%d, %d pixels\n", label, g.Width(), g.Height(), g.Count())
	}
	if len(glyphs) == 0 {
		fmt.Println("No labeled glyphs found.")
		os.Exit(0)
	}
	if *flagDryRun {
		return
	}

	outputPath := *flagOut
	if outputPath == "" {
		outputPath = cfg.SamplesPath
	}
	if outputPath == "" {
		if outputPath, err = samples.DefaultPath(); err != nil {
			log.Fatalf("No output path: %v", err)
		}
	}

	set, err := samples.Load(outputPath)
	if err != nil {
		fmt.Printf("Warning: could not load existing %s, starting fresh: %v\n", outputPath, err)
		set = samples.NewSet()
		set.SetFilePath(outputPath)
	} else if set.Len() > 0 {
		fmt.Printf("Loaded %d existing samples from %s\n", set.Len(), outputPath)
	}

	source := *flagSource
	if *flagAutoLabel && source == samples.SourceImage {
		source = samples.SourceReference
	}
	added := set.Merge(glyphs, source)
	if err := set.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nMerged %d samples into %s (%d total)\n", added, outputPath, set.Len())
}

// loadCanvas binarizes the image with OpenCV, or with a plain luminance
// threshold when -threshold is set.
func loadCanvas(path string, params binarize.Params) (*raster.Grid, error) {
	if *flagThreshold > 0 {
		return raster.Load(path, *flagThreshold)
	}
	return binarize.File(path, params)
}

// unread stands in for a glyph Tesseract could not read, keeping the
// remaining labels aligned with their boxes.
const unread = "?"

// autoLabel reads each glyph with Tesseract.
func autoLabel(canvas *raster.Grid, rec *ocr.Recognizer, alphabet string) (string, error) {
	engine, err := reference.NewEngine(alphabet)
	if err != nil {
		return "", err
	}
	defer engine.Close()

	labels, err := engine.ReadBoxes(canvas, rec.Segment(canvas))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, l := range labels {
		if l == "" {
			l = unread
		}
		sb.WriteString(l)
	}
	return sb.String(), nil
}

func sortedLabels(glyphs map[string]*raster.Grid) []string {
	labels := make([]string, 0, len(glyphs))
	for l := range glyphs {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}
