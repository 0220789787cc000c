// Command check-backend verifies that the FridgeSaver backend is reachable
// and, given image paths, runs them through ingredient analysis.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fridgesaver/fridgesaver/internal/backend"
	"github.com/fridgesaver/fridgesaver/internal/config"
	"github.com/fridgesaver/fridgesaver/internal/logger"
	"github.com/fridgesaver/fridgesaver/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"})
	defer log.Sync()

	client := backend.NewClient(backend.Config{BaseURL: cfg.BackendURL, Timeout: cfg.RequestTimeout}, log)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println("Checking FridgeSaver backend")
	fmt.Println("============================")
	fmt.Printf("Backend URL: %s\n", cfg.BackendURL)

	status, err := client.Health(ctx)
	if err != nil {
		fmt.Printf("Backend unreachable: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Status: %s (mock mode: %t)\n\n", status.Status, status.MockMode)

	uploads := make([]workflow.Upload, 0, len(os.Args)-1)
	for _, path := range os.Args[1:] {
		upload, err := fileUpload(path)
		if err != nil {
			log.Fatal("invalid image", zap.String("path", path), zap.Error(err))
		}
		uploads = append(uploads, upload)
	}

	switch len(uploads) {
	case 0:
		fmt.Println("No images given, skipping analysis.")
		return
	case 1:
		ingredients, err := client.Analyze(ctx, uploads[0])
		if err != nil {
			fmt.Printf("Analysis failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d ingredient(s)\n", uploads[0].Filename, len(ingredients))
		for _, ing := range ingredients {
			fmt.Printf("  - %s %s\n", ing.Name, ing.Quantity)
		}
	default:
		resp, err := client.BatchUpload(ctx, uploads)
		if err != nil {
			fmt.Printf("Batch analysis failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%d image(s): %d ingredient(s)\n", resp.TotalImages, len(*resp.Ingredients))
		for _, ing := range *resp.Ingredients {
			fmt.Printf("  - %s %s\n", ing.Name, ing.Quantity)
		}
	}
}

func fileUpload(path string) (workflow.Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return workflow.Upload{}, err
	}

	name := filepath.Base(path)
	contentType := workflow.NormalizeContentType(name, "")
	if reasons := workflow.CheckFile(name, contentType, info.Size(), workflow.MaxFileSize); len(reasons) > 0 {
		return workflow.Upload{}, &workflow.RejectedInputError{Filename: name, Reasons: reasons}
	}

	return workflow.Upload{
		Filename:    name,
		ContentType: contentType,
		Size:        info.Size(),
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}
