// Package main provides a one-shot inspection tool for cell-tracking
// datasets. It builds the frame records for selected batches, prints
// per-frame statistics, and optionally writes QA artifacts (HTML report,
// count plot, crop contact sheet).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cellscope-data/tracking.dataset/internal/config"
	"github.com/cellscope-data/tracking.dataset/internal/dataset"
	"github.com/cellscope-data/tracking.dataset/internal/monitor"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to dataset config JSON (required)")
		batch      = flag.Int("batch", -1, "batch index to inspect (-1 = all batches)")
		outputDir  = flag.String("output", "", "directory for QA artifacts (empty = stats only)")
		verbose    = flag.Bool("verbose", false, "log per-frame assembly diagnostics")
	)
	flag.Parse()

	if *configPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *verbose {
		dataset.SetDiagWriter(os.Stderr)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	fbCfg, err := cfg.FrameBuilderConfig()
	if err != nil {
		log.Fatalf("resolve videos: %v", err)
	}
	fb, err := dataset.NewFrameBuilder(fbCfg)
	if err != nil {
		log.Fatalf("build frame builder: %v", err)
	}

	batches := make([]int, 0, fb.NumBatches())
	if *batch >= 0 {
		batches = append(batches, *batch)
	} else {
		for i := 0; i < fb.NumBatches(); i++ {
			batches = append(batches, i)
		}
	}

	runID := uuid.New().String()
	log.Printf("inspection run %s: %d batches over %d videos", runID, len(batches), len(fbCfg.Videos))

	var all []dataset.Frame
	totalInstances := 0
	for _, b := range batches {
		videoID, frames, err := fb.GetIndices(b)
		if err != nil {
			log.Fatalf("batch %d: %v", b, err)
		}
		records, err := fb.GetInstances(videoID, frames)
		if err != nil {
			log.Fatalf("batch %d (video %d): %v", b, videoID, err)
		}
		for _, r := range records {
			totalInstances += len(r.Instances)
			fmt.Printf("batch=%d video=%d frame=%d shape=%dx%dx%d instances=%d\n",
				b, r.VideoID, r.FrameID, r.ImgShape[0], r.ImgShape[1], r.ImgShape[2], len(r.Instances))
		}
		all = append(all, records...)
	}
	fmt.Printf("total: %d frames, %d instances\n", len(all), totalInstances)

	if *outputDir == "" {
		return
	}
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}
	title := fmt.Sprintf("run %s", runID)
	if err := monitor.WriteReport(all, title, filepath.Join(*outputDir, "report.html")); err != nil {
		log.Fatalf("write report: %v", err)
	}
	if err := monitor.SaveCountPlot(all, filepath.Join(*outputDir, "instance_counts.png")); err != nil {
		log.Fatalf("write count plot: %v", err)
	}
	if err := monitor.SaveContactSheet(all, filepath.Join(*outputDir, "crops.png")); err != nil {
		// A dataset with zero instances has nothing to tile; not fatal.
		log.Printf("contact sheet skipped: %v", err)
	}
	log.Printf("wrote QA artifacts to %s", *outputDir)
}
