package catalog

import "testing"

func testApps() []Application {
	return []Application{
		{ID: 1, Name: "RobotArm", Description: "Wave and point gestures", Author: "entl"},
		{ID: 2, Name: "Patrol", Description: "Drive a patrol loop around the room", Author: "entl"},
		{ID: 3, Name: "Greeter", Description: "Say hello when a face is seen", Author: "community"},
		{ID: 4, Name: "Lamp", Description: "Use the backpack light as a desk lamp", Author: "robotfan"},
	}
}

func names(apps []Application) []string {
	out := make([]string, len(apps))
	for i, a := range apps {
		out[i] = a.Name
	}
	return out
}

func TestSearchSubstringCaseInsensitive(t *testing.T) {
	res := Search(testApps(), Query{Text: "BOT", Fields: NewFieldSet(FieldName)})

	if res.Count != 1 || len(res.Matches) != 1 {
		t.Fatalf("expected exactly one match, got %v", names(res.Matches))
	}
	if res.Matches[0].Name != "RobotArm" {
		t.Errorf("matched %q, want RobotArm", res.Matches[0].Name)
	}
}

func TestSearchRespectsEnabledFields(t *testing.T) {
	apps := testApps()

	// "robot" appears in RobotArm's name and in robotfan's author field.
	byName := Search(apps, Query{Text: "robot", Fields: NewFieldSet(FieldName)})
	if got := names(byName.Matches); len(got) != 1 || got[0] != "RobotArm" {
		t.Errorf("name-only search matched %v", got)
	}

	byAuthor := Search(apps, Query{Text: "robot", Fields: NewFieldSet(FieldAuthor)})
	if got := names(byAuthor.Matches); len(got) != 1 || got[0] != "Lamp" {
		t.Errorf("author-only search matched %v", got)
	}

	both := Search(apps, Query{Text: "robot", Fields: NewFieldSet(FieldName, FieldAuthor)})
	if both.Count != 2 {
		t.Errorf("name+author search matched %v", names(both.Matches))
	}
}

func TestSearchDescriptionField(t *testing.T) {
	res := Search(testApps(), Query{Text: "hello", Fields: NewFieldSet(FieldDescription)})
	if got := names(res.Matches); len(got) != 1 || got[0] != "Greeter" {
		t.Errorf("description search matched %v", got)
	}
}

func TestSearchEmptyTextMatchesAll(t *testing.T) {
	apps := testApps()
	res := Search(apps, Query{Text: "", Fields: NewFieldSet(FieldName)})

	if res.Count != len(apps) {
		t.Fatalf("empty text should match all %d apps, got %d", len(apps), res.Count)
	}
	// Catalog order must be preserved.
	for i, app := range res.Matches {
		if app.ID != apps[i].ID {
			t.Errorf("position %d: id %d, want %d", i, app.ID, apps[i].ID)
		}
	}
}

func TestSearchNoFieldsMatchesNothing(t *testing.T) {
	res := Search(testApps(), Query{Text: "robot", Fields: nil})
	if res.Count != 0 || len(res.Matches) != 0 {
		t.Errorf("empty field set must match nothing, got %v", names(res.Matches))
	}

	// Even with empty text: no criteria is not "match everything".
	res = Search(testApps(), Query{Text: "", Fields: NewFieldSet()})
	if res.Count != 0 {
		t.Errorf("empty field set with empty text must match nothing, got %v", names(res.Matches))
	}
}

func TestSearchNoMatches(t *testing.T) {
	res := Search(testApps(), Query{Text: "zzz", Fields: NewFieldSet(FieldName, FieldDescription, FieldAuthor)})
	if res.Count != 0 {
		t.Errorf("expected no matches, got %v", names(res.Matches))
	}
	if res.Matches == nil {
		t.Error("matches must be an empty slice, not nil")
	}
}

func TestSearchEmptyCatalog(t *testing.T) {
	res := Search(nil, Query{Text: "robot", Fields: NewFieldSet(FieldName)})
	if res.Count != 0 {
		t.Errorf("expected no matches on empty catalog, got %d", res.Count)
	}
}

func TestParseField(t *testing.T) {
	tests := []struct {
		in   string
		want Field
		ok   bool
	}{
		{"name", FieldName, true},
		{"DESCRIPTION", FieldDescription, true},
		{" author ", FieldAuthor, true},
		{"rating", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseField(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseField(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
