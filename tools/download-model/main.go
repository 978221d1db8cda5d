// Tool that fetches the all-MiniLM-L6-v2 sentence embedding model for
// the local hugot provider. The serve command looks for it under
// DATA_DIR/models by default.
//
// Usage: go run ./tools/download-model [dest]
package main

import (
	"fmt"
	"os"

	"github.com/knights-analytics/hugot"
)

const modelRepo = "sentence-transformers/all-MiniLM-L6-v2"

func run(dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	fmt.Printf("Fetching %s into %s...\n", modelRepo, dest)

	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "onnx/model.onnx"
	modelPath, err := hugot.DownloadModel(modelRepo, dest, opts)
	if err != nil {
		return fmt.Errorf("download %s: %w", modelRepo, err)
	}

	fmt.Printf("Model ready at %s\n", modelPath)
	return nil
}

func main() {
	dest := ".stylo/models"
	if len(os.Args) > 1 {
		dest = os.Args[1]
	}
	if err := run(dest); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
