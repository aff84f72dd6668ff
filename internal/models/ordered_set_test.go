// ABOUTME: Tests for the insertion-ordered string set
// ABOUTME: Covers ordering, duplicate handling and zero-value use
package models

import (
	"reflect"
	"testing"
)

func TestOrderedSet_PreservesInsertionOrder(t *testing.T) {
	s := NewOrderedSet("b", "a", "b", "c")

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	if got := s.Items(); !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("Items() = %v, want [b a c]", got)
	}
	if s.Add("a") {
		t.Error("Add() of existing item should return false")
	}
	if !s.Add("d") {
		t.Error("Add() of new item should return true")
	}
	if !s.Contains("d") || s.Contains("z") {
		t.Error("Contains() reported wrong membership")
	}
}

func TestOrderedSet_ZeroValue(t *testing.T) {
	var s OrderedSet
	if s.Contains("x") {
		t.Error("zero value should be empty")
	}
	s.Add("x")
	if !s.Contains("x") {
		t.Error("zero value should accept items")
	}
}

func TestOrderedSet_ItemsIsCopy(t *testing.T) {
	s := NewOrderedSet("a")
	items := s.Items()
	items[0] = "mutated"
	if !s.Contains("a") || s.Items()[0] != "a" {
		t.Error("Items() should return a copy")
	}
}
