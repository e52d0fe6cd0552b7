package model

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/m-mizutani/goerr/v2"

	"github.com/slipway-sh/slipway/pkg/domain/types"
)

var partNamePattern = regexp.MustCompile(`(?i)^(.+)\.part([0-9]+)$`)

// ParsePartName splits a split-archive file name into its base archive
// name and part number. Part numbers start at 1; anything else is a
// plain file name.
func ParsePartName(filename string) (base string, num int, ok bool) {
	m := partNamePattern.FindStringSubmatch(filename)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n < 1 {
		return "", 0, false
	}
	return m[1], n, true
}

// PartRef is one declared part of a split archive
type PartRef struct {
	Name string
	Num  int
}

// PartSet describes how the declared files of a component assemble into
// one logical archive. A single declared file passes through unchanged
// and has no Parts; a multi-file declaration lists its parts in
// ascending numeric order.
type PartSet struct {
	Base  string
	Parts []PartRef
}

// Split reports whether the set was declared as a split archive
func (x *PartSet) Split() bool {
	return len(x.Parts) > 0
}

// PlanPartSet validates a component's declared files and returns the
// reassembly plan. A component declares either exactly one file or the
// parts of exactly one split archive; every multi-file name must parse
// as <base>.part<N> with a shared base and unique part numbers.
func PlanPartSet(files []FileRef) (*PartSet, error) {
	if len(files) == 0 {
		return nil, goerr.New("component declares no files")
	}

	if len(files) == 1 {
		return &PartSet{Base: files[0].Filename}, nil
	}

	set := &PartSet{}
	seen := map[int]string{}
	for _, f := range files {
		base, num, ok := ParsePartName(f.Filename)
		if !ok {
			return nil, goerr.Wrap(types.ErrPartNamePattern, "multi-file component requires part-numbered names",
				goerr.V("filename", f.Filename),
			)
		}
		if set.Base == "" {
			set.Base = base
		} else if set.Base != base {
			return nil, goerr.Wrap(types.ErrPartNamePattern, "parts reference different archives",
				goerr.V("base", set.Base),
				goerr.V("filename", f.Filename),
			)
		}
		if prev, ok := seen[num]; ok {
			return nil, goerr.Wrap(types.ErrDuplicatePart, "part number declared twice",
				goerr.V("part", num),
				goerr.V("filename", f.Filename),
				goerr.V("conflicts_with", prev),
			)
		}
		seen[num] = f.Filename
		set.Parts = append(set.Parts, PartRef{Name: f.Filename, Num: num})
	}

	sort.Slice(set.Parts, func(i, j int) bool {
		return set.Parts[i].Num < set.Parts[j].Num
	})

	return set, nil
}
