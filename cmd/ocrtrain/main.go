// Command ocrtrain trains the Kohonen recognizer from font glyphs and/or a
// sample file, scores it on rendered test words and optionally reads image
// files with the best network.
//
// It runs several training trials with different seeds in parallel and
// keeps the one that reads the test words best, since the outcome of a
// Kohonen run depends on its random start.
//
// Usage: ocrtrain [options] [image ...]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"glyphocr/internal/binarize"
	"glyphocr/internal/config"
	"glyphocr/internal/glyphgen"
	"glyphocr/internal/kohonen"
	"glyphocr/internal/ocr"
	"glyphocr/internal/raster"
	"glyphocr/internal/reference"
	"glyphocr/internal/samples"
	"glyphocr/internal/version"

	log "github.com/sirupsen/logrus"
)

// Trial holds the outcome of training with one seed.
type Trial struct {
	Seed     int64               `json:"seed"`
	Train    kohonen.TrainResult `json:"train"`
	Score    float64             `json:"score"`
	Accuracy float64             `json:"accuracy"`
	Readings []Reading           `json:"readings"`
	Duration time.Duration       `json:"duration_ns"`

	recognizer *ocr.Recognizer
}

// testWord is a test word and its rendered canvas.
type testWord struct {
	text   string
	canvas *raster.Grid
}

// Reading is one test word and what a recognizer made of it.
type Reading struct {
	Truth    string  `json:"truth"`
	Detected string  `json:"detected"`
	Score    float64 `json:"score"`
}

var (
	flagConfig   = flag.String("config", os.Getenv("GLYPHOCR_CONFIG"), "Config file")
	flagSamples  = flag.String("samples", "", "Sample set to train on")
	flagFonts    = flag.Bool("fonts", true, "Train on rendered font glyphs")
	flagAlphabet = flag.String("alphabet", "", "Characters to render (default from config)")
	flagWords    = flag.String("words", "", "Comma-separated test words (default built from the alphabet)")
	flagTrials   = flag.Int("trials", 4, "Number of training seeds to try")
	flagParallel = flag.Int("j", 4, "Number of parallel workers")
	flagSeed     = flag.Int64("seed", 1, "First seed")
	flagCompare  = flag.Bool("compare", false, "Also read the test words with Tesseract")
	flagJSON     = flag.String("json", "", "Output results to JSON file")
	flagDebugImg = flag.String("debug-img", "", "Save test word images with this path prefix")
	flagVerbose  = flag.Bool("v", false, "Verbose output")
	flagVersion  = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *flagVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	log.SetLevel(cfg.Level())
	if *flagVerbose {
		log.SetLevel(log.DebugLevel)
	}
	alphabet := cfg.Alphabet
	if *flagAlphabet != "" {
		alphabet = *flagAlphabet
	}

	params, err := cfg.OCRParams()
	if err != nil {
		log.Fatalf("Error in config: %v", err)
	}

	font := glyphgen.Default()
	if cfg.FontPath != "" {
		if font, err = glyphgen.Load(cfg.FontPath, cfg.FontSize); err != nil {
			log.Fatalf("Error loading font: %v", err)
		}
	}

	set, err := trainingSet(font, alphabet)
	if err != nil {
		log.Fatalf("Error building training set: %v", err)
	}
	glyphs, err := set.Grids()
	if err != nil {
		log.Fatalf("Error reading samples: %v", err)
	}
	if len(glyphs) == 0 {
		fmt.Fprintln(os.Stderr, "No training glyphs: enable -fonts or pass -samples")
		os.Exit(1)
	}
	fmt.Printf("Training on %d labels: %s\n", len(glyphs), strings.Join(set.Labels(), ""))

	words := testWords(*flagWords, set.Labels(), 8)
	fmt.Printf("Test words: %s\n", strings.Join(words, " "))

	// Rendered up front: the font face is not safe for concurrent use.
	tests := make([]testWord, len(words))
	for i, w := range words {
		tests[i] = testWord{text: w, canvas: font.RenderText(w)}
	}

	if *flagDebugImg != "" {
		saveDebugImages(tests, params)
	}

	trials := runTrials(params, glyphs, tests, *flagSeed, *flagTrials, *flagParallel)
	printResults(trials)

	if *flagCompare {
		compareReference(tests, alphabet)
	}

	if *flagJSON != "" {
		if err := outputJSON(trials, *flagJSON); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
		} else {
			fmt.Printf("\nResults written to: %s\n", *flagJSON)
		}
	}

	if len(trials) > 0 && flag.NArg() > 0 {
		readImages(trials[0].recognizer, cfg.Binarize, flag.Args())
	}
}

// trainingSet gathers the rendered alphabet and the sample file. Samples
// override font glyphs with the same label.
func trainingSet(font *glyphgen.Renderer, alphabet string) (*samples.Set, error) {
	set := samples.NewSet()
	if *flagFonts {
		n := set.Merge(font.TrainingSet(alphabet), samples.SourceFont)
		log.WithField("glyphs", n).Debug("Rendered font glyphs")
	}
	if *flagSamples != "" {
		fromFile, err := samples.Load(*flagSamples)
		if err != nil {
			return nil, err
		}
		n := set.MergeSet(fromFile)
		log.WithFields(log.Fields{"path": *flagSamples, "samples": n}).Debug("Loaded samples")
	}
	return set, nil
}

// testWords returns the words given on the command line, or splits the
// labels into reversed words of up to size characters.
func testWords(given string, labels []string, size int) []string {
	if given != "" {
		var words []string
		for _, w := range strings.Split(given, ",") {
			if w = strings.TrimSpace(w); w != "" {
				words = append(words, w)
			}
		}
		return words
	}

	var words []string
	for start := 0; start < len(labels); start += size {
		end := min(start+size, len(labels))
		chunk := make([]string, 0, end-start)
		for i := end - 1; i >= start; i-- {
			chunk = append(chunk, labels[i])
		}
		words = append(words, strings.Join(chunk, ""))
	}
	return words
}

// runTrials trains one recognizer per seed on a worker pool and returns
// the trials best first.
func runTrials(params ocr.Params, glyphs map[string]*raster.Grid, tests []testWord,
	firstSeed int64, count, workers int) []Trial {
	seeds := make(chan int64)
	var (
		mu      sync.Mutex
		results []Trial
		wg      sync.WaitGroup
	)

	for w := 0; w < max(workers, 1); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seed := range seeds {
				trial, err := runTrial(params, glyphs, tests, seed)
				if err != nil {
					log.WithError(err).WithField("seed", seed).Warn("Trial failed")
					continue
				}
				log.WithFields(log.Fields{
					"seed":      seed,
					"score":     trial.Score,
					"error":     trial.Train.Error,
					"converged": trial.Train.Converged,
				}).Info("Trial finished")

				mu.Lock()
				results = append(results, trial)
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < count; i++ {
		seeds <- firstSeed + int64(i)
	}
	close(seeds)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Seed < results[j].Seed
	})
	return results
}

// runTrial trains with one seed and reads every test word.
func runTrial(params ocr.Params, glyphs map[string]*raster.Grid, tests []testWord, seed int64) (Trial, error) {
	start := time.Now()
	rec, err := ocr.NewRecognizer(params,
		ocr.WithRand(rand.New(rand.NewSource(seed))),
		ocr.WithLogger(log.WithField("seed", seed)))
	if err != nil {
		return Trial{}, err
	}
	res, err := rec.Train(glyphs)
	if err != nil {
		return Trial{}, err
	}

	trial := Trial{Seed: seed, Train: res, recognizer: rec}
	var detected, truth strings.Builder
	for _, tw := range tests {
		text, _, err := rec.Recognize(tw.canvas)
		if err != nil {
			return Trial{}, err
		}
		trial.Readings = append(trial.Readings, Reading{
			Truth:    tw.text,
			Detected: text,
			Score:    ocr.TextSimilarity(text, tw.text),
		})
		detected.WriteString(text)
		truth.WriteString(tw.text)
	}
	trial.Score = ocr.TextSimilarity(detected.String(), truth.String())
	trial.Accuracy = ocr.Accuracy(detected.String(), truth.String())
	trial.Duration = time.Since(start)
	return trial, nil
}

func saveDebugImages(tests []testWord, params ocr.Params) {
	rec, err := ocr.NewRecognizer(params)
	if err != nil {
		log.WithError(err).Warn("Failed to create recognizer for debug images")
		return
	}
	for i, tw := range tests {
		g := tw.canvas
		path := fmt.Sprintf("%s_%02d.png", *flagDebugImg, i)
		if err := raster.SavePNG(path, raster.ToImage(g, 4, rec.Segment(g))); err != nil {
			log.WithError(err).Warn("Failed to save debug image")
			continue
		}
		fmt.Printf("  Saved debug image: %s (%dx%d)\n", path, g.Width(), g.Height())
	}
}

// compareReference reads the test words with Tesseract for a baseline.
func compareReference(tests []testWord, alphabet string) {
	engine, err := reference.NewEngine(alphabet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating Tesseract engine: %v\n", err)
		return
	}
	defer engine.Close()

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("TESSERACT BASELINE")
	fmt.Println(strings.Repeat("=", 80))

	var detected, truth strings.Builder
	for _, tw := range tests {
		text, err := engine.ReadLine(tw.canvas)
		if err != nil {
			log.WithError(err).WithField("word", tw.text).Warn("Tesseract failed")
		}
		fmt.Printf("  %5.1f%% %q -> %q\n", ocr.TextSimilarity(text, tw.text)*100, tw.text, text)
		detected.WriteString(text)
		truth.WriteString(tw.text)
	}
	fmt.Printf("\nTesseract score: %.1f%%, accuracy %.1f%%\n",
		ocr.TextSimilarity(detected.String(), truth.String())*100,
		ocr.Accuracy(detected.String(), truth.String())*100)
}

// readImages binarizes each image and reads it with rec.
func readImages(rec *ocr.Recognizer, bp binarize.Params, paths []string) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("IMAGES")
	fmt.Println(strings.Repeat("=", 80))

	for _, path := range paths {
		g, err := binarize.File(path, bp)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		text, boxes, err := rec.Recognize(g)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		fmt.Printf("%s: %q (%d glyphs)\n", path, text, len(boxes))
	}
}

func printResults(trials []Trial) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("TRIALS")
	fmt.Println(strings.Repeat("=", 80))

	if len(trials) == 0 {
		fmt.Println("No successful trials")
		return
	}

	for _, t := range trials {
		state := "converged"
		if !t.Train.Converged {
			state = "not converged"
		}
		fmt.Printf("\nSeed %d: score %.1f%%, accuracy %.1f%% in %v\n",
			t.Seed, t.Score*100, t.Accuracy*100, t.Duration.Round(time.Millisecond))
		fmt.Printf("  Training %s: error %.4f, %d epochs, %d restarts, %d forced wins\n",
			state, t.Train.Error, t.Train.Epochs, t.Train.Restarts, t.Train.ForcedWins)
		if *flagVerbose {
			for _, r := range t.Readings {
				fmt.Printf("    %5.1f%% %q -> %q\n", r.Score*100, r.Truth, r.Detected)
			}
		}
	}

	best := trials[0]
	fmt.Printf("\nBest seed %d: score %.1f%%\n", best.Seed, best.Score*100)
	for _, r := range best.Readings {
		fmt.Printf("  %5.1f%% %q -> %q\n", r.Score*100, r.Truth, r.Detected)
	}
}

func outputJSON(trials []Trial, path string) error {
	data, err := json.MarshalIndent(trials, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
