// Command streamcheck probes a camera stream: it opens the source, reads
// frames for a fixed duration, and prints a short health summary. Useful
// when pointing the recognizer at a new camera.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"platewatch/internal/config"
	"platewatch/internal/vision"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "how long to read frames")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.LoadRecognizer()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	fmt.Printf("Probing stream %s for %s\n", cfg.StreamURL, *duration)

	source, err := vision.OpenCapture(cfg.StreamURL, cfg.FlipHorizontal)
	if err != nil {
		log.Fatal("Failed to open stream:", err)
	}
	defer source.Close()

	fmt.Printf("Reported FPS: %.1f\n", source.FPS())

	var frames, failures int
	start := time.Now()
	deadline := start.Add(*duration)

	for time.Now().Before(deadline) {
		img, ok := source.Read()
		if !ok {
			failures++
			continue
		}
		frames++
		if frames == 1 {
			bounds := img.Bounds()
			fmt.Printf("Frame size: %dx%d\n", bounds.Dx(), bounds.Dy())
		}
	}

	elapsed := time.Since(start).Seconds()
	fmt.Printf("Read %d frames, %d failures in %.1fs (%.1f fps measured)\n",
		frames, failures, elapsed, float64(frames)/elapsed)

	if failures > frames {
		fmt.Println("Stream looks unhealthy")
	}
}
