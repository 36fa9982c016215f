package metrics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorUpdatesCatalogGauges(t *testing.T) {
	var calls atomic.Int32
	stats := func(context.Context) (Stats, error) {
		calls.Add(1)
		return Stats{Files: 12, Bytes: 4096, Tags: 3, Associations: 7}, nil
	}

	c := NewCollector(stats, time.Hour)
	c.collect()

	if got := testutil.ToFloat64(CatalogFilesTotal); got != 12 {
		t.Errorf("CatalogFilesTotal = %v, want 12", got)
	}
	if got := testutil.ToFloat64(CatalogBytesTotal); got != 4096 {
		t.Errorf("CatalogBytesTotal = %v, want 4096", got)
	}
	if got := testutil.ToFloat64(CatalogTagsTotal); got != 3 {
		t.Errorf("CatalogTagsTotal = %v, want 3", got)
	}
	if got := testutil.ToFloat64(CatalogTagAssignments); got != 7 {
		t.Errorf("CatalogTagAssignments = %v, want 7", got)
	}
	if calls.Load() != 1 {
		t.Errorf("stats func called %d times, want 1", calls.Load())
	}
}

func TestCollectorKeepsGaugesOnError(t *testing.T) {
	CatalogFilesTotal.Set(5)

	c := NewCollector(func(context.Context) (Stats, error) {
		return Stats{}, errors.New("database is locked")
	}, time.Hour)
	c.collect()

	if got := testutil.ToFloat64(CatalogFilesTotal); got != 5 {
		t.Errorf("CatalogFilesTotal = %v, want 5 to be preserved after error", got)
	}
}

func TestCollectorNilStatsFunc(_ *testing.T) {
	c := NewCollector(nil, time.Hour)
	c.collect()
}

func TestCollectorStartStop(t *testing.T) {
	done := make(chan struct{}, 1)
	c := NewCollector(func(context.Context) (Stats, error) {
		select {
		case done <- struct{}{}:
		default:
		}
		return Stats{}, nil
	}, time.Hour)

	c.Start()
	defer c.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not collect on start")
	}
}

func TestInitializeMetrics(_ *testing.T) {
	InitializeMetrics()
	InitializeMetrics()
}
