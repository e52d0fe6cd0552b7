package model_test

import (
	"errors"
	"testing"

	"github.com/slipway-sh/slipway/pkg/domain/model"
	"github.com/slipway-sh/slipway/pkg/domain/types"
)

func TestParsePartName(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantBase string
		wantNum  int
		wantOK   bool
	}{
		{
			name:     "simple part",
			filename: "app.zip.part1",
			wantBase: "app.zip",
			wantNum:  1,
			wantOK:   true,
		},
		{
			name:     "double digit part",
			filename: "app.zip.part12",
			wantBase: "app.zip",
			wantNum:  12,
			wantOK:   true,
		},
		{
			name:     "leading zeros",
			filename: "data.tar.gz.part007",
			wantBase: "data.tar.gz",
			wantNum:  7,
			wantOK:   true,
		},
		{
			name:     "uppercase suffix",
			filename: "app.zip.PART3",
			wantBase: "app.zip",
			wantNum:  3,
			wantOK:   true,
		},
		{
			name:     "plain file",
			filename: "app.zip",
			wantOK:   false,
		},
		{
			name:     "part zero is not a part",
			filename: "app.zip.part0",
			wantOK:   false,
		},
		{
			name:     "part without number",
			filename: "app.zip.part",
			wantOK:   false,
		},
		{
			name:     "part in the middle",
			filename: "app.part1.zip",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, num, ok := model.ParsePartName(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ParsePartName(%q) ok = %v, want %v", tt.filename, ok, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}
			if base != tt.wantBase {
				t.Errorf("base = %q, want %q", base, tt.wantBase)
			}
			if num != tt.wantNum {
				t.Errorf("num = %d, want %d", num, tt.wantNum)
			}
		})
	}
}

func refs(names ...string) []model.FileRef {
	out := make([]model.FileRef, 0, len(names))
	for _, n := range names {
		out = append(out, model.FileRef{Filename: n})
	}
	return out
}

func TestPlanPartSet_SingleFile(t *testing.T) {
	set, err := model.PlanPartSet(refs("app.zip"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Base != "app.zip" {
		t.Errorf("Base = %q, want %q", set.Base, "app.zip")
	}
	if set.Split() {
		t.Error("single file must not be treated as a split archive")
	}
}

func TestPlanPartSet_SingleFileWithPartName(t *testing.T) {
	// A lone declared file passes through even when its name looks
	// like a part
	set, err := model.PlanPartSet(refs("app.zip.part1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Base != "app.zip.part1" {
		t.Errorf("Base = %q, want pass-through name", set.Base)
	}
	if set.Split() {
		t.Error("single file must not be treated as a split archive")
	}
}

func TestPlanPartSet_SortsNumerically(t *testing.T) {
	set, err := model.PlanPartSet(refs("x.zip.part10", "x.zip.part2", "x.zip.part1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Base != "x.zip" {
		t.Errorf("Base = %q, want %q", set.Base, "x.zip")
	}
	want := []int{1, 2, 10}
	for i, ref := range set.Parts {
		if ref.Num != want[i] {
			t.Errorf("Parts[%d].Num = %d, want %d", i, ref.Num, want[i])
		}
	}
}

func TestPlanPartSet_DuplicateNumber(t *testing.T) {
	_, err := model.PlanPartSet(refs("x.zip.part1", "x.zip.part1"))
	if !errors.Is(err, types.ErrDuplicatePart) {
		t.Fatalf("expected ErrDuplicatePart, got %v", err)
	}
}

func TestPlanPartSet_MixedPlainAndParts(t *testing.T) {
	_, err := model.PlanPartSet(refs("x.zip.part1", "y.zip"))
	if !errors.Is(err, types.ErrPartNamePattern) {
		t.Fatalf("expected ErrPartNamePattern, got %v", err)
	}
}

func TestPlanPartSet_DifferentBases(t *testing.T) {
	_, err := model.PlanPartSet(refs("x.zip.part1", "y.zip.part2"))
	if !errors.Is(err, types.ErrPartNamePattern) {
		t.Fatalf("expected ErrPartNamePattern, got %v", err)
	}
}

func TestPlanPartSet_NoFiles(t *testing.T) {
	if _, err := model.PlanPartSet(nil); err == nil {
		t.Fatal("expected error for empty declaration")
	}
}
