package output

import (
	"fmt"
	"strings"

	"github.com/figharvest/figharvest/caption"
	"github.com/figharvest/figharvest/model"
)

// SlugLength bounds the caption part of raw heuristic file names
const SlugLength = 40

// BaseName returns the file name of a region without extension or collision
// suffix.
func BaseName(r model.FigureRegion) string {
	if r.Source != model.SourceRawHeuristic {
		if label := r.Label(); label != "" {
			return sanitize(label)
		}
		return fmt.Sprintf("%s_page%d_%d", strings.ToLower(r.FigType.String()), r.Page, r.Order)
	}

	typ, name, ok := r.FigType, r.FigName, r.FigName != ""
	if !ok {
		typ, name, ok = caption.Parse(r.Caption)
	}
	if ok {
		base := strings.ToLower(typ.String()) + sanitize(name)
		if slug := caption.Slug(caption.Strip(r.Caption), SlugLength); slug != "" {
			base += "_" + slug
		}
		return base
	}

	id := r.ObjectID
	if id == "" {
		id = fmt.Sprintf("i%d", r.Order)
	}
	return fmt.Sprintf("image_page%d_%s", r.Page, sanitize(id))
}

// sanitize keeps characters that are safe in file names on every platform
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// namer hands out unique file names within one output directory
type namer struct {
	used map[string]int
}

func newNamer() *namer {
	return &namer{used: make(map[string]int)}
}

// next returns base+".png", or base_N+".png" when the name was taken
func (n *namer) next(base string) string {
	key := strings.ToLower(base)
	n.used[key]++
	count := n.used[key]
	if count == 1 {
		return base + ".png"
	}
	for {
		candidate := fmt.Sprintf("%s_%d", base, count)
		ckey := strings.ToLower(candidate)
		if _, taken := n.used[ckey]; !taken {
			n.used[ckey] = 1
			return candidate + ".png"
		}
		count++
		n.used[key] = count
	}
}
