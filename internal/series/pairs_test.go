package series

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectPairs_DropsIncompleteDates(t *testing.T) {
	dir := t.TempDir()
	// 2023-09-10 only has the green band; 2023-09-11 is complete.
	touch(t, dir, "2023-09-10-00_00_2023-09-10-23_59_Sentinel-2_L2A_B03_(Raw).tiff")
	touch(t, dir, "2023-09-11-00_00_2023-09-11-23_59_Sentinel-2_L2A_B03_(Raw).tiff")
	touch(t, dir, "2023-09-11-00_00_2023-09-11-23_59_Sentinel-2_L2A_B08_(Raw).tiff")

	pairs, err := CollectPairs(dir, true)
	if err != nil {
		t.Fatalf("CollectPairs: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}

	want := time.Date(2023, 9, 11, 0, 0, 0, 0, time.UTC)
	pair, ok := pairs[want]
	if !ok {
		t.Fatalf("pair for %s missing, got %v", want.Format("2006-01-02"), pairs)
	}
	if pair.Green == "" || pair.NIR == "" {
		t.Errorf("incomplete pair returned: %+v", pair)
	}
}

func TestCollectPairs_IgnoresNonBandFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "2023-09-11_B03.tif")
	touch(t, dir, "2023-09-11_B08.tif")
	touch(t, dir, "2023-09-11_B08.tif.aux.xml")
	touch(t, dir, "2023-09-11_B04.tif") // not a pairing band
	touch(t, dir, "readme.txt")

	pairs, err := CollectPairs(dir, true)
	if err != nil {
		t.Fatalf("CollectPairs: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
}

func TestCollectPairs_NoPairs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "2023-09-10_B03.tif")

	_, err := CollectPairs(dir, true)
	if !errors.Is(err, ErrNoPairs) {
		t.Fatalf("got %v, want ErrNoPairs", err)
	}
}

func TestCollectPairs_EmptyDirectory(t *testing.T) {
	_, err := CollectPairs(t.TempDir(), true)
	if !errors.Is(err, ErrNoPairs) {
		t.Fatalf("got %v, want ErrNoPairs", err)
	}
}

func TestCollectPairs_BadDateStrict(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "someday_B03.tif")
	touch(t, dir, "2023-09-11_B03.tif")
	touch(t, dir, "2023-09-11_B08.tif")

	_, err := CollectPairs(dir, true)
	if !errors.Is(err, ErrDateParse) {
		t.Fatalf("got %v, want ErrDateParse", err)
	}
}

func TestCollectPairs_BadDateLenient(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "someday_B03.tif")
	touch(t, dir, "2023-09-11_B03.tif")
	touch(t, dir, "2023-09-11_B08.tif")

	pairs, err := CollectPairs(dir, false)
	if err != nil {
		t.Fatalf("CollectPairs: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
}

func TestCollectPairs_ImpossibleCalendarDate(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "2023-13-45_B03.tif")

	_, err := CollectPairs(dir, true)
	if !errors.Is(err, ErrDateParse) {
		t.Fatalf("got %v, want ErrDateParse", err)
	}
}

func TestExtractDate(t *testing.T) {
	date, err := ExtractDate("2023-09-10-00_00_2023-09-10-23_59_Sentinel-2_L2A_NDWI.tiff")
	if err != nil {
		t.Fatalf("ExtractDate: %v", err)
	}
	want := time.Date(2023, 9, 10, 0, 0, 0, 0, time.UTC)
	if !date.Equal(want) {
		t.Errorf("date = %v, want %v", date, want)
	}

	if _, err := ExtractDate("no_date_here.tiff"); !errors.Is(err, ErrDateParse) {
		t.Errorf("got %v, want ErrDateParse", err)
	}
}

func TestDetectBand(t *testing.T) {
	if got := detectBand("2023-09-10_b03.tif"); got != BandGreen {
		t.Errorf("lowercase b03 = %q, want %q", got, BandGreen)
	}
	if got := detectBand("2023-09-10_B08.tif"); got != BandNIR {
		t.Errorf("B08 = %q, want %q", got, BandNIR)
	}
	if got := detectBand("2023-09-10_NDWI.tif"); got != "" {
		t.Errorf("NDWI = %q, want empty", got)
	}
}
