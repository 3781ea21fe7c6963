package series

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	ErrNoPairs   = errors.New("no complete band pairs found")
	ErrDateParse = errors.New("cannot parse date from filename")
)

// Band tokens looked for in filenames. B03 is the Sentinel-2 green band,
// B08 the near-infrared band.
const (
	BandGreen = "B03"
	BandNIR   = "B08"
)

const dateLayout = "2006-01-02"

var dateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// BandPair holds the two co-dated source rasters needed to compute one
// date's NDWI. Immutable once collected.
type BandPair struct {
	Date  time.Time
	Green string
	NIR   string
}

// detectBand returns the band token embedded in a filename, or "" when the
// file is not a band raster.
func detectBand(name string) string {
	u := strings.ToUpper(name)
	if strings.Contains(u, BandGreen) {
		return BandGreen
	}
	if strings.Contains(u, BandNIR) {
		return BandNIR
	}
	return ""
}

// ExtractDate parses the YYYY-MM-DD token out of a filename.
func ExtractDate(name string) (time.Time, error) {
	m := dateRe.FindString(name)
	if m == "" {
		return time.Time{}, fmt.Errorf("%w: %s", ErrDateParse, name)
	}
	date, err := time.Parse(dateLayout, m)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrDateParse, name, err)
	}
	return date, nil
}

// CollectPairs scans a directory of per-date band rasters and assembles the
// complete (B03, B08) pair for each date. Dates missing one band are skipped
// with a warning; the archive being incomplete is tolerated, losing a date
// is not worth failing the whole run for. A band-tagged file whose date
// token is malformed fails the run when strict is true and is skipped with a
// warning otherwise. Returns ErrNoPairs when no date has both bands.
func CollectPairs(dir string, strict bool) (map[time.Time]BandPair, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan band directory %s: %w", dir, err)
	}

	type bandFiles map[string]string
	byDate := make(map[time.Time]bandFiles)

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".tif" && ext != ".tiff" {
			continue
		}
		if strings.HasSuffix(strings.ToLower(name), ".aux.xml") {
			continue
		}

		band := detectBand(name)
		if band == "" {
			continue
		}

		date, err := ExtractDate(name)
		if err != nil {
			if strict {
				return nil, err
			}
			slog.Warn("skipping band file with unparseable date", "file", name)
			continue
		}

		if byDate[date] == nil {
			byDate[date] = bandFiles{}
		}
		byDate[date][band] = filepath.Join(dir, name)
	}

	pairs := make(map[time.Time]BandPair)
	for date, files := range byDate {
		green, hasGreen := files[BandGreen]
		nir, hasNIR := files[BandNIR]
		if !hasGreen || !hasNIR {
			slog.Warn("skipping date with incomplete band pair",
				"date", date.Format(dateLayout),
				"has_green", hasGreen,
				"has_nir", hasNIR)
			continue
		}
		pairs[date] = BandPair{Date: date, Green: green, NIR: nir}
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w in %s: filenames need a YYYY-MM-DD date and a %s/%s token",
			ErrNoPairs, dir, BandGreen, BandNIR)
	}
	return pairs, nil
}
