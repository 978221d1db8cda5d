// Tool that fetches the native libraries the ORT build of the local
// embedding provider links against: the ONNX Runtime shared library and
// the HuggingFace tokenizers static library.
//
// Optional env: ORT_VERSION        (default "1.23.2")
//               TOKENIZERS_VERSION (default "1.24.0")
//               ORT_LIB_DIR        (default "./lib", where the provider looks)
//
// Usage: go run ./tools/download-ort
package main

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// artifact describes one downloadable library for the current platform.
type artifact struct {
	name    string // display name
	url     string
	libName string // file name written into the lib dir
}

func main() {
	libDir := envOr("ORT_LIB_DIR", "./lib")
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		fatal("create %s: %v", libDir, err)
	}

	artifacts, err := platformArtifacts(
		envOr("ORT_VERSION", "1.23.2"),
		envOr("TOKENIZERS_VERSION", "1.24.0"),
	)
	if err != nil {
		fatal("%v", err)
	}

	for _, a := range artifacts {
		dest := filepath.Join(libDir, a.libName)
		if _, statErr := os.Stat(dest); statErr == nil {
			fmt.Printf("%s already present at %s, skipping\n", a.name, dest)
			continue
		}

		fmt.Printf("Fetching %s from %s\n", a.name, a.url)
		if err := fetchAndExtract(a.url, dest); err != nil {
			fatal("%s download failed: %v", a.name, err)
		}
		fmt.Printf("%s installed to %s\n", a.name, dest)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// platformArtifacts resolves upstream archive names for GOOS/GOARCH.
func platformArtifacts(ortVersion, tokVersion string) ([]artifact, error) {
	type names struct {
		ortArchive string
		ortLib     string
		tokArchive string
	}
	table := map[string]names{
		"linux/amd64":  {"onnxruntime-linux-x64-%s.tgz", "libonnxruntime.so", "libtokenizers.linux-amd64.tar.gz"},
		"linux/arm64":  {"onnxruntime-linux-aarch64-%s.tgz", "libonnxruntime.so", "libtokenizers.linux-arm64.tar.gz"},
		"darwin/arm64": {"onnxruntime-osx-arm64-%s.tgz", "libonnxruntime.dylib", "libtokenizers.darwin-arm64.tar.gz"},
		"darwin/amd64": {"onnxruntime-osx-x86_64-%s.tgz", "libonnxruntime.dylib", "libtokenizers.darwin-x86_64.tar.gz"},
	}

	key := runtime.GOOS + "/" + runtime.GOARCH
	n, ok := table[key]
	if !ok {
		return nil, fmt.Errorf("no prebuilt libraries for %s", key)
	}

	return []artifact{
		{
			name: "ONNX Runtime " + ortVersion,
			url: fmt.Sprintf("https://github.com/microsoft/onnxruntime/releases/download/v%s/%s",
				ortVersion, fmt.Sprintf(n.ortArchive, ortVersion)),
			libName: n.ortLib,
		},
		{
			name: "tokenizers " + tokVersion,
			url: fmt.Sprintf("https://github.com/daulet/tokenizers/releases/download/v%s/%s",
				tokVersion, n.tokArchive),
			libName: "libtokenizers.a",
		},
	}, nil
}

func fetchAndExtract(url, dest string) error {
	delay := 2 * time.Second
	var err error
	for attempt := 0; attempt < 4; attempt++ {
		if attempt > 0 {
			fmt.Fprintf(os.Stderr, "retry in %s: %v\n", delay, err)
			time.Sleep(delay)
			delay *= 2
		}
		if err = tryFetchAndExtract(url, dest); err == nil {
			return nil
		}
	}
	return err
}

func tryFetchAndExtract(url, dest string) error {
	resp, err := http.Get(url) //nolint:gosec
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	return extractTgz(resp.Body, dest)
}

// extractTgz pulls the wanted library out of a .tgz stream. Versioned
// variants like libonnxruntime.1.23.2.dylib match the unversioned name.
func extractTgz(body io.Reader, dest string) error {
	gz, err := gzip.NewReader(body)
	if err != nil {
		return fmt.Errorf("gzip reader: %w", err)
	}
	defer gz.Close() //nolint:errcheck

	want := filepath.Base(dest)
	stem := strings.TrimSuffix(want, filepath.Ext(want))

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("tar read: %w", err)
		}

		// Only regular files; archives carry symlink aliases too.
		if header.Typeflag != tar.TypeReg {
			continue
		}

		base := filepath.Base(header.Name)
		if base != want && !strings.HasPrefix(base, stem+".") {
			continue
		}

		return writeFile(dest, tr)
	}

	return fmt.Errorf("%s not found in archive", want)
}

func writeFile(path string, src io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	return out.Close()
}
