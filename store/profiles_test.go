package store

import (
	"context"
	"errors"
	"testing"

	"github.com/linksclub/teelottery/lottery"
	"github.com/linksclub/teelottery/models"
)

func TestCheckAdjustment(t *testing.T) {
	cases := []struct {
		delta int
		ok    bool
	}{
		{-11, false},
		{-10, true},
		{0, true},
		{10, true},
		{11, false},
	}
	for _, c := range cases {
		err := checkAdjustment(c.delta)
		if c.ok && err != nil {
			t.Errorf("adjustment %d: expected no error, got %v", c.delta, err)
		}
		if !c.ok && !errors.Is(err, lottery.ErrOutOfRange) {
			t.Errorf("adjustment %d: expected ErrOutOfRange, got %v", c.delta, err)
		}
	}
}

func TestSetAdjustmentRejectsOutOfRangeBeforeAnyQuery(t *testing.T) {
	// No database: the range check must fail first.
	s := NewProfileStore(nil, 225, 256)
	for _, delta := range []int{11, -11} {
		if err := s.SetAdjustment(context.Background(), 1, 1, delta); !errors.Is(err, lottery.ErrOutOfRange) {
			t.Errorf("adjustment %d: expected ErrOutOfRange, got %v", delta, err)
		}
	}
}

func TestTierFor(t *testing.T) {
	s := NewProfileStore(nil, 225, 256)
	cases := []struct {
		avg  float64
		want models.SpeedTier
	}{
		{200, models.TierFast},
		{225, models.TierFast},
		{225.5, models.TierAverage},
		{255.9, models.TierAverage},
		{256, models.TierSlow},
		{300, models.TierSlow},
	}
	for _, c := range cases {
		if got := s.tierFor(c.avg); got != c.want {
			t.Errorf("tierFor(%v) = %s, want %s", c.avg, got, c.want)
		}
	}
}
