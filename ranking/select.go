package ranking

import (
	"sort"

	"github.com/figharvest/figharvest/model"
)

// Select returns the k highest scoring images in document order. Equal
// scores go to the image encountered first. k <= 0 selects nothing.
func Select(scored []model.ScoredImage, k int) []model.ScoredImage {
	if k <= 0 || len(scored) == 0 {
		return nil
	}

	byScore := make([]model.ScoredImage, len(scored))
	copy(byScore, scored)
	sort.SliceStable(byScore, func(i, j int) bool {
		if byScore[i].Score != byScore[j].Score {
			return byScore[i].Score > byScore[j].Score
		}
		return byScore[i].Index < byScore[j].Index
	})
	if k < len(byScore) {
		byScore = byScore[:k]
	}

	SortByPosition(byScore)
	return byScore
}

// SortByPosition orders images by page, then top edge, then left edge, then
// encounter order.
func SortByPosition(images []model.ScoredImage) {
	sort.SliceStable(images, func(i, j int) bool {
		a, b := images[i].Region, images[j].Region
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.BBox.Y0 != b.BBox.Y0 {
			return a.BBox.Y0 < b.BBox.Y0
		}
		if a.BBox.X0 != b.BBox.X0 {
			return a.BBox.X0 < b.BBox.X0
		}
		return images[i].Index < images[j].Index
	})
}

// Rank scores every region and selects the top k. Index is the region's
// position in regions.
func (s *Scorer) Rank(regions []model.FigureRegion, totalPages, k int) (all, selected []model.ScoredImage) {
	all = make([]model.ScoredImage, len(regions))
	for i, r := range regions {
		all[i] = model.ScoredImage{Region: r, Score: s.Score(r, totalPages), Index: i}
	}
	return all, Select(all, k)
}
