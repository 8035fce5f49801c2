package record

import (
	"encoding/json"
	"testing"
)

func TestParse_Kinds(t *testing.T) {
	cases := []struct {
		raw  string
		kind Kind
	}{
		{"alice", KindString},
		{"42", KindNumber},
		{"-3.14", KindNumber},
		{"true", KindBool},
		{"false", KindBool},
		{"", KindString},
		{"null", KindNull},
		{"042", KindString},
		{"2023-06-01T12:00:00Z", KindTime},
		{"not a date 2023", KindString},
	}
	for _, tc := range cases {
		if got := Parse(tc.raw).Kind(); got != tc.kind {
			t.Errorf("Parse(%q).Kind() = %v, want %v", tc.raw, got, tc.kind)
		}
	}
}

func TestParse_LongDigitStringsStayStrings(t *testing.T) {
	// Phone numbers and idcards must keep exact digits.
	raw := "110101199003074518"
	v := Parse(raw)
	if v.Kind() != KindString {
		t.Fatalf("kind = %v, want string for %d digits", v.Kind(), len(raw))
	}
	if v.Display() != raw {
		t.Errorf("Display() = %q", v.Display())
	}
}

func TestFromStringMap_SortedAndOrderedJSON(t *testing.T) {
	rec := FromStringMap(map[string]string{
		"phone": "13800000000",
		"age":   "30",
		"name":  "alice",
	})

	names := make([]string, 0, rec.Len())
	for _, f := range rec.Fields() {
		names = append(names, f.Name)
	}
	want := []string{"age", "name", "phone"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("field order = %v, want %v", names, want)
		}
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"age":30,"name":"alice","phone":13800000000}` {
		t.Errorf("json = %s", raw)
	}
}

func TestWithout(t *testing.T) {
	rec := FromStringMap(map[string]string{"_id": "1", "name": "alice"})
	got := rec.Without("_id")

	if _, ok := got.Get("_id"); ok {
		t.Error("_id survived Without")
	}
	if _, ok := got.Get("name"); !ok {
		t.Error("name dropped by Without")
	}
	if _, ok := rec.Get("_id"); !ok {
		t.Error("Without mutated the receiver")
	}
}

func TestMatchesFold(t *testing.T) {
	rec := FromStringMap(map[string]string{"email": "User@Example.COM"})

	if !rec.MatchesFold("email", "user@example.com") {
		t.Error("case-insensitive match failed")
	}
	if rec.MatchesFold("email", "other@example.com") {
		t.Error("mismatched value matched")
	}
	if rec.MatchesFold("phone", "anything") {
		t.Error("absent field matched")
	}
}
