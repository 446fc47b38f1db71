// Package download fetches reference files (shapefiles, csv tables) used
// to provision the local database.
package download

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// MaxElapsed bounds how long File keeps retrying
var MaxElapsed = 2 * time.Minute

// File downloads url to path. Server errors and 429s are retried with
// exponential backoff; other non-200 statuses fail immediately. The body
// is written to a temp file and renamed into place.
func File(ctx context.Context, path, url string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating download directory: %w", err)
	}
	tmp := path + ".part"

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("server error: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("bad status: %s", resp.Status))
		}

		out, err := os.Create(tmp)
		if err != nil {
			return backoff.Permanent(err)
		}
		_, err = io.Copy(out, resp.Body)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = MaxElapsed
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("url", url).Dur("wait", wait).Msg("download failed, retrying")
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(bo, ctx), notify); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Unzip extracts src into dest, rejecting entries that escape dest
func Unzip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	root := filepath.Clean(dest) + string(os.PathSeparator)
	for _, f := range r.File {
		fpath := filepath.Join(dest, f.Name)

		// Check for ZipSlip
		if !strings.HasPrefix(fpath, root) {
			return fmt.Errorf("illegal file path: %s", fpath)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, os.ModePerm); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(fpath), os.ModePerm); err != nil {
			return err
		}
		if err := extract(f, fpath); err != nil {
			return err
		}
	}
	return nil
}

func extract(f *zip.File, fpath string) error {
	outFile, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer outFile.Close()

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = io.Copy(outFile, rc)
	return err
}

// ShapefileExtensions are the sidecar files of a shapefile
var ShapefileExtensions = []string{".shp", ".shx", ".dbf", ".prj", ".cpg", ".shp.xml", ".README.html", ".VERSION.txt"}

// Cleanup removes dir/base+ext for every extension, ignoring errors
func Cleanup(dir, base string, extensions ...string) {
	for _, ext := range extensions {
		os.Remove(filepath.Join(dir, base+ext))
	}
}
