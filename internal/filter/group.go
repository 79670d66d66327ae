package filter

import (
	"slices"
	"strconv"
	"strings"

	"campusevents/internal/model"
)

// Group is one bucket of a grouped result.
type Group[T any] struct {
	Key   string `json:"key"`
	Items []T    `json:"items"`
}

// GroupBy partitions items by key. Items keep their input order inside a
// group; groups are ordered by key, highest first. Keys that are both
// integers compare numerically, anything else compares as text.
func GroupBy[T any](items []T, key func(T) string) []Group[T] {
	index := make(map[string]int)
	groups := make([]Group[T], 0)
	for _, it := range items {
		k := key(it)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[T]{Key: k})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	slices.SortStableFunc(groups, func(a, b Group[T]) int {
		return compareKeys(b.Key, a.Key)
	})
	return groups
}

func compareKeys(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

// EventYear is the grouping key of an event.
func EventYear(e model.Event) string {
	return strconv.Itoa(e.Date.Year)
}

// GroupEventsByYear buckets already-filtered events by calendar year.
func GroupEventsByYear(events []model.Event) []Group[model.Event] {
	return GroupBy(events, EventYear)
}

// GalleryCriteria is the filter state of the gallery view.
type GalleryCriteria struct {
	Category string // All or "" matches any category
	Year     string // All or "" matches any year
	Search   string // matched against the caption
}

// Gallery filters images, keeping their input order.
func Gallery(images []model.GalleryImage, c GalleryCriteria) []model.GalleryImage {
	needle := strings.ToLower(c.Search)
	out := make([]model.GalleryImage, 0, len(images))
	for _, img := range images {
		if c.Category != "" && c.Category != All && img.Category != c.Category {
			continue
		}
		if c.Year != "" && c.Year != All && img.Year != c.Year {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(img.Caption), needle) {
			continue
		}
		out = append(out, img)
	}
	return out
}

// GroupGalleryByYear buckets filtered images by their year, most recent
// first.
func GroupGalleryByYear(images []model.GalleryImage) []Group[model.GalleryImage] {
	return GroupBy(images, func(img model.GalleryImage) string { return img.Year })
}

// GalleryCategories returns "All" followed by the distinct image
// categories in first-seen order.
func GalleryCategories(images []model.GalleryImage) []string {
	seen := make(map[string]struct{}, len(images))
	out := []string{All}
	for _, img := range images {
		if _, ok := seen[img.Category]; ok {
			continue
		}
		seen[img.Category] = struct{}{}
		out = append(out, img.Category)
	}
	return out
}
