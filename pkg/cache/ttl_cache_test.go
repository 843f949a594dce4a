package cache

import (
	"strings"
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()

	c.Set("a", 1)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if _, ok := c.Get("yok"); ok {
		t.Error("olmayan anahtar bulunmamalı")
	}
}

func TestExpiry(t *testing.T) {
	c := New[string, string](20*time.Millisecond, time.Minute)
	defer c.Close()

	c.Set("a", "x")
	time.Sleep(30 * time.Millisecond)

	// Cleanup goroutine'i beklemeden Get kendi expiry kontrolünü yapar
	if _, ok := c.Get("a"); ok {
		t.Error("TTL dolmuş entry dönmemeli")
	}
}

func TestDeleteFunc(t *testing.T) {
	c := New[string, struct{}](time.Minute, time.Minute)
	defer c.Close()

	c.Set("user1:chA", struct{}{})
	c.Set("user1:chB", struct{}{})
	c.Set("user2:chA", struct{}{})

	// user1'in tüm entry'lerini prefix ile düşür (disconnect senaryosu)
	c.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, "user1:")
	})

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if _, ok := c.Get("user2:chA"); !ok {
		t.Error("user2'nin entry'si silinmemeliydi")
	}
}

func TestClear(t *testing.T) {
	c := New[int, int](time.Minute, time.Minute)
	defer c.Close()

	c.Set(1, 1)
	c.Set(2, 2)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Clear sonrası Len() = %d, want 0", c.Len())
	}
}
