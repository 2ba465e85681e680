package filter

import (
	"fmt"
	"testing"

	"github.com/cognicore/feedscope/pkg/feedscope/catalog"
	"github.com/cognicore/feedscope/pkg/feedscope/rank"
)

func TestQualityRankingStable(t *testing.T) {
	cat := testCatalog(t)
	res := New(cat).QualityRanking()

	if res.Count != cat.Len() {
		t.Fatalf("ranking should cover the catalog, got %d", res.Count)
	}

	order := make(map[string]int)
	for i, f := range cat.Records() {
		order[f.ID] = i
	}

	for i := 1; i < len(res.Records); i++ {
		prev, cur := res.Records[i-1], res.Records[i]
		if *prev.QualityScore < *cur.QualityScore {
			t.Fatalf("not sorted descending at %d", i)
		}
		if *prev.QualityScore == *cur.QualityScore && order[prev.ID] > order[cur.ID] {
			t.Errorf("tie between %s and %s not in catalog order", prev.ID, cur.ID)
		}
	}

	// FD-001 6, FD-007 6, FD-004 5, FD-003 4, FD-005 3, FD-002 0, FD-006 0
	want := []string{"FD-001", "FD-007", "FD-004", "FD-003", "FD-005", "FD-002", "FD-006"}
	if fmt.Sprint(res.IDs()) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, res.IDs())
	}
	if res.Metadata["resolution_weight"] != 3 || res.Metadata["codec_weight"] != 2 || res.Metadata["latency_weight"] != 1 {
		t.Errorf("unexpected metadata %v", res.Metadata)
	}
}

func TestQualityScoreMatchesFormula(t *testing.T) {
	res := New(testCatalog(t)).QualityRanking()
	for _, r := range res.Records {
		want := 0
		if r.Width >= 1920 && r.Height >= 1080 {
			want += 3
		}
		if rank.ModernCodecs[r.Codec] {
			want += 2
		}
		if r.LatencyMS <= 500 {
			want++
		}
		if *r.QualityScore != want {
			t.Errorf("%s: expected %d, got %d", r.ID, want, *r.QualityScore)
		}
		if *r.QualityScore < 0 || *r.QualityScore > rank.MaxScore {
			t.Errorf("%s: score %d out of range", r.ID, *r.QualityScore)
		}
	}
}

func TestDistributionsSumToTotal(t *testing.T) {
	cat := testCatalog(t)
	eng := New(cat)

	for _, d := range []Distribution{eng.TheaterDistribution(), eng.CodecDistribution()} {
		sum := 0
		for _, n := range d.Counts {
			sum += n
		}
		if sum != cat.Len() || d.Total != cat.Len() {
			t.Errorf("%s: counts sum to %d, total %d, want %d", d.Column, sum, d.Total, cat.Len())
		}
		if len(d.Categories) != len(d.Counts) {
			t.Errorf("%s: categories %v do not match counts %v", d.Column, d.Categories, d.Counts)
		}
		for _, c := range d.Categories {
			if d.Counts[c] == 0 {
				t.Errorf("%s: zero-count category %s reported", d.Column, c)
			}
		}
	}
}

func TestTheaterDistributionOrder(t *testing.T) {
	d := New(testCatalog(t)).TheaterDistribution()
	want := []string{"PAC", "EUR", "ME", "ARC"}
	if fmt.Sprint(d.Categories) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, d.Categories)
	}
	if _, ok := d.Counts["CONUS"]; ok {
		t.Error("unobserved theater should be omitted")
	}
}

func TestResolutionDistribution(t *testing.T) {
	d := New(testCatalog(t)).ResolutionDistribution()

	want := map[string]int{
		"4K (3840x2160)":    1,
		"1440p (2560x1440)": 1,
		"1080p (1920x1080)": 2,
		"720p (1280x720)":   1,
		"480p (640x480)":    1,
	}
	if len(d.Buckets) != len(StandardBuckets) {
		t.Fatalf("expected %d buckets, got %d", len(StandardBuckets), len(d.Buckets))
	}
	bucketed := 0
	for _, b := range d.Buckets {
		if b.Count != want[b.Name] {
			t.Errorf("%s: expected %d, got %d", b.Name, want[b.Name], b.Count)
		}
		bucketed += b.Count
	}
	// FD-006 (1024x768) matches no bucket
	if bucketed != d.Total-1 {
		t.Errorf("expected one unbucketed feed, bucketed %d of %d", bucketed, d.Total)
	}
	if d.UniqueResolutions != 6 {
		t.Errorf("expected 6 unique resolutions, got %d", d.UniqueResolutions)
	}
}

func TestDistributionEmptyCatalog(t *testing.T) {
	cat, err := catalog.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	d := New(cat).CodecDistribution()
	if d.Total != 0 || len(d.Categories) != 0 {
		t.Errorf("expected empty distribution, got %+v", d)
	}
}
