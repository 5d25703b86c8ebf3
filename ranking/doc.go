// Package ranking scores extracted figures by likely importance and selects
// the top K while keeping document order.
//
// A score is the sum of a size band, a caption contribution (a base for any
// caption, the best matching lexicon keyword and a length bonus) and a
// position band favoring early pages. Small figures without a caption have
// their score halved. Selection picks the highest scores and then re-sorts
// the winners by page and position, so ranking decides membership but not
// output order.
package ranking
