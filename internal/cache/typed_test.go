// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTypedCache_SetGet(t *testing.T) {
	mem := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = mem.Close() }()

	c := NewTypedCache[map[string]string](mem, time.Hour)
	ctx := context.Background()

	bundle := map[string]string{"greet": "Bonjour", "farewell": ""}
	if err := c.Set(ctx, "fr", &bundle); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := c.Get(ctx, "fr")
	if !ok {
		t.Fatal("expected bundle fr")
	}
	if len(*got) != 2 || (*got)["greet"] != "Bonjour" {
		t.Errorf("got %v", *got)
	}
	if text, present := (*got)["farewell"]; !present || text != "" {
		t.Error("empty text must survive encoding")
	}

	if _, ok := c.Get(ctx, "de"); ok {
		t.Error("unexpected hit for de")
	}
	if !c.Has(ctx, "fr") {
		t.Error("Has(fr) = false")
	}
	if err := c.Delete(ctx, "fr"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if c.Has(ctx, "fr") {
		t.Error("fr should be deleted")
	}
}

func TestTypedCache_UndecodableValue(t *testing.T) {
	mem := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = mem.Close() }()

	ctx := context.Background()
	_ = mem.Set(ctx, "fr", []byte("not json"), 0)

	c := NewTypedCache[map[string]string](mem, time.Hour)
	if _, ok := c.Get(ctx, "fr"); ok {
		t.Error("undecodable value must be a miss")
	}
}

func TestTypedCache_GetOrSet(t *testing.T) {
	mem := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = mem.Close() }()

	c := NewTypedCache[map[string]string](mem, time.Hour)
	ctx := context.Background()

	calls := 0
	build := func() (*map[string]string, error) {
		calls++
		m := map[string]string{"greet": "Hallo"}
		return &m, nil
	}

	for i := 0; i < 3; i++ {
		got, err := c.GetOrSet(ctx, "de", build)
		if err != nil {
			t.Fatalf("GetOrSet: %v", err)
		}
		if (*got)["greet"] != "Hallo" {
			t.Errorf("got %v", *got)
		}
	}
	if calls != 1 {
		t.Errorf("builder called %d times, want 1", calls)
	}

	errBuild := errors.New("build failed")
	_, err := c.GetOrSet(ctx, "it", func() (*map[string]string, error) { return nil, errBuild })
	if !errors.Is(err, errBuild) {
		t.Errorf("err = %v, want %v", err, errBuild)
	}
	if c.Has(ctx, "it") {
		t.Error("failed build must not be stored")
	}
}

func TestTypedCache_SetWithTTL(t *testing.T) {
	mem := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = mem.Close() }()

	c := NewTypedCache[map[string]string](mem, time.Hour)
	ctx := context.Background()

	m := map[string]string{"a": "b"}
	_ = c.SetWithTTL(ctx, "short", &m, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get(ctx, "short"); ok {
		t.Error("expected expiry")
	}
}
