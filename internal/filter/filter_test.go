package filter

import (
	"net/url"
	"reflect"
	"strings"
	"testing"

	"campusevents/internal/day"
	"campusevents/internal/model"
)

func sampleEvents() []model.Event {
	return []model.Event{
		{ID: "1", Date: day.MustParse("2025-01-10"), Category: "Technical", Title: "Hack Day", Description: "Build things overnight"},
		{ID: "2", Date: day.MustParse("2025-01-10"), Category: "Social", Title: "Mixer", Description: "Meet the new cohort"},
		{ID: "3", Date: day.MustParse("2024-06-01"), Category: "Technical", Title: "Old Talk", Description: "A retrospective"},
	}
}

func ids(events []model.Event) []model.ID {
	out := make([]model.ID, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}

func TestUpcomingTechnical(t *testing.T) {
	today := day.MustParse("2025-01-01")
	c := Criteria{Category: "Technical", Status: StatusUpcoming, Sort: SortDateAsc}

	got := ids(Events(sampleEvents(), c, today))
	if !reflect.DeepEqual(got, []model.ID{"1"}) {
		t.Fatalf("got %v, want [1]", got)
	}
}

func TestSortByName(t *testing.T) {
	c := Criteria{Category: All, Status: StatusAll, Sort: SortNameAsc}

	got := Events(sampleEvents(), c, day.MustParse("2025-01-01"))
	titles := make([]string, 0, len(got))
	for _, e := range got {
		titles = append(titles, e.Title)
	}
	want := []string{"Hack Day", "Mixer", "Old Talk"}
	if !reflect.DeepEqual(titles, want) {
		t.Fatalf("got %v, want %v", titles, want)
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	tests := []struct {
		search string
		want   []model.ID
	}{
		{"mix", []model.ID{"2"}},
		{"MIX", []model.ID{"2"}},
		{"overnight", []model.ID{"1"}},
		{"talk", []model.ID{"3"}},
		{"nothing matches", []model.ID{}},
	}
	for _, tt := range tests {
		c := Criteria{Search: tt.search, Status: StatusAll, Sort: SortDateAsc}
		got := ids(Events(sampleEvents(), c, day.MustParse("2025-01-01")))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("search %q: got %v, want %v", tt.search, got, tt.want)
		}
	}
}

func TestStatusBoundaryIsDayGranular(t *testing.T) {
	today := day.MustParse("2025-01-10")
	events := []model.Event{{ID: "today", Date: today}}

	if got := Events(events, Criteria{Status: StatusUpcoming}, today); len(got) != 1 {
		t.Fatalf("event dated today should be upcoming, got %d", len(got))
	}
	if got := Events(events, Criteria{Status: StatusPast}, today); len(got) != 0 {
		t.Fatalf("event dated today should not be past, got %d", len(got))
	}
	if got := Events(events, Criteria{Status: StatusPast}, today.AddDays(1)); len(got) != 1 {
		t.Fatalf("event dated yesterday should be past, got %d", len(got))
	}
}

func TestYearFilter(t *testing.T) {
	c := Criteria{Status: StatusAll, Year: 2024, Sort: SortDateAsc}
	got := ids(Events(sampleEvents(), c, day.MustParse("2025-01-01")))
	if !reflect.DeepEqual(got, []model.ID{"3"}) {
		t.Fatalf("got %v", got)
	}

	c.Year = 1999
	if got := Events(sampleEvents(), c, day.MustParse("2025-01-01")); got == nil || len(got) != 0 {
		t.Fatalf("absent year should give empty non-nil result, got %#v", got)
	}
}

func TestUnknownCategoryYieldsEmpty(t *testing.T) {
	c := Criteria{Status: StatusAll, Category: "Astronomy"}
	got := Events(sampleEvents(), c, day.MustParse("2025-01-01"))
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %#v", got)
	}
}

func TestEmptyCollection(t *testing.T) {
	got := Events(nil, DefaultCriteria(), day.MustParse("2025-01-01"))
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
	if groups := GroupEventsByYear(nil); groups == nil || len(groups) != 0 {
		t.Fatalf("expected no groups, got %#v", groups)
	}
}

func TestIdentityWithoutActiveFilters(t *testing.T) {
	in := sampleEvents()
	c := Criteria{Category: All, Status: StatusAll}
	got := Events(in, c, day.MustParse("2025-01-01"))
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("expected input order unchanged, got %v", ids(got))
	}
}

func TestResultIsSubsetAndSatisfiesPredicates(t *testing.T) {
	today := day.MustParse("2025-01-01")
	in := sampleEvents()
	criteria := []Criteria{
		{Status: StatusUpcoming, Sort: SortDateDesc},
		{Status: StatusPast, Category: "Technical", Sort: SortNameAsc},
		{Status: StatusAll, Search: "e", Year: 2025, Sort: SortDateAsc},
	}
	for _, c := range criteria {
		for _, e := range Events(in, c, today) {
			if !Matches(e, c, today) {
				t.Errorf("%+v: %s does not satisfy criteria", c, e.ID)
			}
			found := false
			for _, orig := range in {
				if reflect.DeepEqual(orig, e) {
					found = true
				}
			}
			if !found {
				t.Errorf("%+v: %s is not from the input", c, e.ID)
			}
		}
	}
}

func TestSortIsStable(t *testing.T) {
	d := day.MustParse("2025-03-01")
	in := []model.Event{
		{ID: "a", Date: d, Title: "Same"},
		{ID: "b", Date: d.AddDays(-1), Title: "Earlier"},
		{ID: "c", Date: d, Title: "Same"},
		{ID: "d", Date: d, Title: "Same"},
	}
	for _, key := range []SortKey{SortDateAsc, SortDateDesc, SortNameAsc} {
		got := Events(in, Criteria{Status: StatusAll, Sort: key}, d)
		var ties []model.ID
		for _, e := range got {
			if e.Title == "Same" {
				ties = append(ties, e.ID)
			}
		}
		if !reflect.DeepEqual(ties, []model.ID{"a", "c", "d"}) {
			t.Errorf("%s: tie order %v, want [a c d]", key, ties)
		}
	}
}

func TestEventsDoesNotMutateInput(t *testing.T) {
	in := sampleEvents()
	before := ids(in)
	Events(in, Criteria{Status: StatusAll, Sort: SortNameAsc}, day.MustParse("2025-01-01"))
	if !reflect.DeepEqual(ids(in), before) {
		t.Fatalf("input reordered: %v", ids(in))
	}
}

func TestGroupByYear(t *testing.T) {
	groups := GroupEventsByYear(sampleEvents())
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Key != "2025" || !reflect.DeepEqual(ids(groups[0].Items), []model.ID{"1", "2"}) {
		t.Fatalf("first group = %s %v", groups[0].Key, ids(groups[0].Items))
	}
	if groups[1].Key != "2024" || !reflect.DeepEqual(ids(groups[1].Items), []model.ID{"3"}) {
		t.Fatalf("second group = %s %v", groups[1].Key, ids(groups[1].Items))
	}
}

func TestGroupingPartitionsCompletely(t *testing.T) {
	in := append(sampleEvents(),
		model.Event{ID: "4", Date: day.MustParse("2023-09-09")},
		model.Event{ID: "5", Date: day.MustParse("2024-02-02")},
	)
	seen := map[model.ID]int{}
	for _, g := range GroupEventsByYear(in) {
		for _, e := range g.Items {
			if EventYear(e) != g.Key {
				t.Errorf("%s placed in group %s", e.ID, g.Key)
			}
			seen[e.ID]++
		}
	}
	if len(seen) != len(in) {
		t.Fatalf("expected %d members, got %d", len(in), len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("%s appears %d times", id, n)
		}
	}
}

func TestGroupKeysCompareNumerically(t *testing.T) {
	groups := GroupBy([]string{"999", "1000", "999"}, func(s string) string { return s })
	if len(groups) != 2 || groups[0].Key != "1000" || groups[1].Key != "999" {
		t.Fatalf("groups = %+v", groups)
	}
	if len(groups[1].Items) != 2 {
		t.Fatalf("expected both 999 items in one group, got %d", len(groups[1].Items))
	}
}

func TestCategoriesAndYears(t *testing.T) {
	cats := Categories(sampleEvents())
	if !reflect.DeepEqual(cats, []string{"All", "Social", "Technical"}) {
		t.Fatalf("categories %v", cats)
	}
	years := Years(sampleEvents())
	if !reflect.DeepEqual(years, []string{"All", "2025", "2024"}) {
		t.Fatalf("years %v", years)
	}
}

func TestFeaturedAndUpcoming(t *testing.T) {
	today := day.MustParse("2025-01-01")
	events := sampleEvents()
	events[0].Featured = true
	events[2].Featured = true // past, never featured

	got, ok := Featured(events, today)
	if !ok || got.ID != "1" {
		t.Fatalf("featured = %v %v", got.ID, ok)
	}
	if _, ok := Featured(events, day.MustParse("2026-01-01")); ok {
		t.Fatal("no featured event should remain after every date passed")
	}

	up := Upcoming(events, today, 1)
	if len(up) != 1 || up[0].ID != "1" {
		t.Fatalf("upcoming = %v", ids(up))
	}
}

func TestGallery(t *testing.T) {
	images := []model.GalleryImage{
		{ID: "a", Category: "Sports", Year: "2023", Caption: "Final whistle"},
		{ID: "b", Category: "Cultural", Year: "2024", Caption: "Dance night"},
		{ID: "c", Category: "Sports", Year: "2024", Caption: "Relay"},
	}

	sports := Gallery(images, GalleryCriteria{Category: "Sports"})
	if len(sports) != 2 || sports[0].ID != "a" || sports[1].ID != "c" {
		t.Fatalf("sports = %+v", sports)
	}

	groups := GroupGalleryByYear(Gallery(images, GalleryCriteria{Category: All}))
	if len(groups) != 2 || groups[0].Key != "2024" || groups[1].Key != "2023" {
		t.Fatalf("groups = %+v", groups)
	}
	if groups[0].Items[0].ID != "b" || groups[0].Items[1].ID != "c" {
		t.Fatalf("group order not preserved: %+v", groups[0].Items)
	}

	if got := Gallery(images, GalleryCriteria{Search: "DANCE"}); len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("caption search = %+v", got)
	}

	cats := GalleryCategories(images)
	if !reflect.DeepEqual(cats, []string{"All", "Sports", "Cultural"}) {
		t.Fatalf("gallery categories %v", cats)
	}
}

func TestParseCriteria(t *testing.T) {
	c, err := ParseCriteria(url.Values{})
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if c != DefaultCriteria() {
		t.Fatalf("defaults = %+v", c)
	}

	c, err = ParseCriteria(url.Values{
		"search":   {" mix "},
		"category": {"Social"},
		"status":   {"past"},
		"year":     {"2024"},
		"sort":     {"NAME-ASC"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := Criteria{Search: "mix", Category: "Social", Status: StatusPast, Year: 2024, Sort: SortNameAsc}
	if c != want {
		t.Fatalf("got %+v, want %+v", c, want)
	}

	c, err = ParseCriteria(url.Values{"year": {"All"}, "status": {"ALL"}})
	if err != nil || c.Year != 0 || c.Status != StatusAll {
		t.Fatalf("All values: %+v %v", c, err)
	}

	for _, bad := range []url.Values{
		{"status": {"soon"}},
		{"year": {"twenty"}},
		{"sort": {"random"}},
	} {
		if _, err := ParseCriteria(bad); err == nil || !strings.Contains(err.Error(), ErrInvalidCriteria.Error()) {
			t.Errorf("%v: expected invalid criteria, got %v", bad, err)
		}
	}
}

func TestParseGalleryCriteria(t *testing.T) {
	c, err := ParseGalleryCriteria(url.Values{"year": {"2024"}, "category": {"Sports"}})
	if err != nil || c.Year != "2024" || c.Category != "Sports" {
		t.Fatalf("got %+v %v", c, err)
	}
	if _, err := ParseGalleryCriteria(url.Values{"year": {"24"}}); err == nil {
		t.Fatal("expected error for 2-digit year")
	}
}
