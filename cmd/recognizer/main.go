package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"platewatch/internal/config"
	"platewatch/internal/pipeline"
	"platewatch/internal/report"
	"platewatch/internal/stream"
	"platewatch/internal/vision"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.LoadRecognizer()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	// The first open must succeed; only drops after startup are retried.
	source, err := vision.OpenCapture(cfg.StreamURL, cfg.FlipHorizontal)
	if err != nil {
		log.Fatal("Failed to open stream:", err)
	}
	log.Printf("Stream open: %s (%.1f fps reported)", cfg.StreamURL, source.FPS())

	opener := func() (vision.FrameSource, error) {
		return vision.OpenCapture(cfg.StreamURL, cfg.FlipHorizontal)
	}
	controller := stream.NewController(source, opener, stream.Config{})
	defer controller.Close()

	recognizer, err := vision.NewTesseractRecognizer()
	if err != nil {
		log.Fatal("Failed to initialize OCR:", err)
	}
	defer recognizer.Close()

	detector := vision.NewYOLODetector(cfg.DetectEndpoint)
	aggregator := pipeline.NewAggregator(detector, recognizer, cfg.DetectConfidence)

	var policy pipeline.Policy
	switch cfg.VotePolicy {
	case "immediate":
		policy = pipeline.NewImmediatePolicy(cfg.MinReportInterval)
	default:
		policy = pipeline.NewWindowPolicy(cfg.VoteWindow)
	}
	log.Printf("Voting policy: %s", cfg.VotePolicy)

	reporter := report.NewClient(cfg.ServerURL + "/api/detect")

	runner := pipeline.NewRunner(pipeline.RunnerConfig{
		Frames:       controller,
		Aggregator:   aggregator,
		Policy:       policy,
		Reporter:     reporter,
		ProcessEvery: cfg.ProcessEvery,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil {
		log.Fatal("Pipeline failed:", err)
	}
	log.Println("Shutting down")
}
