package service

import (
	"context"
	"errors"
	"testing"
)

func TestSanitizeCategoryName(t *testing.T) {
	cases := map[string]string{
		"Day Job":      "DayJob",
		"a/b.c#d[e]f":  "abcdef",
		"Tab\tand\nNL": "TabandNL",
		"Plain":        "Plain",
	}
	for in, want := range cases {
		if got := SanitizeCategoryName(in); got != want {
			t.Fatalf("SanitizeCategoryName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCategoryServiceAdd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	category, err := f.categories.Add(ctx, "u1", "  Day Job ", "")
	if err != nil {
		t.Fatal(err)
	}
	if category.ID != "DayJob" || category.Name != "Day Job" || category.Color != "blue" {
		t.Fatalf("unexpected category %+v", category)
	}

	same, err := f.categories.Add(ctx, "u1", "DayJob", "red")
	if err != nil {
		t.Fatal(err)
	}
	if same.Color != "blue" {
		t.Fatalf("existing category overwritten: %+v", same)
	}

	if _, err := f.categories.Add(ctx, "u1", " / ", "red"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.categories.Add(ctx, "u1", "Gym", "beige"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	list, err := f.categories.List(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 category, got %d", len(list))
	}

	if err := f.categories.Delete(ctx, "u1", "DayJob"); err != nil {
		t.Fatal(err)
	}
	if err := f.categories.Delete(ctx, "u1", "DayJob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegisterProvisionsDefaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.users.Register(ctx, "ada@example.com")
	if err != nil {
		t.Fatal(err)
	}
	list, err := f.categories.List(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != len(DefaultCategories) {
		t.Fatalf("expected %d default categories, got %d", len(DefaultCategories), len(list))
	}

	if _, err := f.users.Register(ctx, "not-an-email"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEnsureTelegramUserProvisionsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.users.EnsureTelegramUser(ctx, 42, "Ada", "", "ada")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.categories.Delete(ctx, user.ID, "Work"); err != nil {
		t.Fatal(err)
	}

	again, err := f.users.EnsureTelegramUser(ctx, 42, "Ada", "Lovelace", "ada")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != user.ID {
		t.Fatalf("telegram user duplicated: %s vs %s", again.ID, user.ID)
	}
	list, _ := f.categories.List(ctx, user.ID)
	if len(list) != len(DefaultCategories)-1 {
		t.Fatalf("defaults re-provisioned for an existing user: %d categories", len(list))
	}
}
