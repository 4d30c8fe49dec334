package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidateIDPresent(t *testing.T) {
	if err := ValidateIDPresent("abc", "id"); err != nil {
		t.Fatalf("valid id rejected: %v", err)
	}
	if err := ValidateIDPresent("  ", "id"); !IsValidation(err) {
		t.Fatalf("blank id accepted")
	}
}

func TestValidateContent(t *testing.T) {
	if err := ValidateContent("hi", "content"); err != nil {
		t.Fatalf("valid content rejected: %v", err)
	}
	if err := ValidateContent(" \n\t ", "content"); !IsValidation(err) {
		t.Fatalf("whitespace content accepted")
	}
}

func TestFeedFilterScopes(t *testing.T) {
	cases := []struct {
		filter FeedFilter
		ok     bool
	}{
		{FeedFilter{}, true},
		{FeedFilter{GroupID: "g1"}, true},
		{FeedFilter{AuthorID: "u1"}, true},
		{FeedFilter{FollowingOf: "u1"}, true},
		{FeedFilter{GroupID: "g1", AuthorID: "u1"}, false},
		{FeedFilter{GroupID: "g1", FollowingOf: "u1"}, false},
		{FeedFilter{GroupID: "g1", AuthorID: "u1", FollowingOf: "u2"}, false},
	}
	for i, tc := range cases {
		err := tc.filter.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d: valid filter rejected: %v", i, err)
		}
		if !tc.ok && !IsValidation(err) {
			t.Fatalf("case %d: invalid filter accepted", i)
		}
	}
}

func TestIsValidationMatchesWrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", &ValidationError{Field: "x", Reason: "bad"})
	if !IsValidation(err) {
		t.Fatalf("wrapped validation error not detected")
	}
	if IsValidation(errors.New("other")) {
		t.Fatalf("unrelated error detected as validation")
	}
}
