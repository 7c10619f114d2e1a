package reconcile

import "testing"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"My-Repo_1":        "my-repo-1",
		"simple":           "simple",
		"Widget.Service":   "widget-service",
		"__edge__":         "edge",
		"UPPER":            "upper",
		"a b  c":           "a-b-c",
		"":                 "",
		"---":              "",
		"svc-a":            "svc-a",
		"Data/Loader":      "data-loader",
		"weird!!!chars###1": "weird-chars-1",
	}

	for name, expected := range cases {
		if actual := Slugify(name); actual != expected {
			t.Errorf("Slugify(%q) = %q, expected %q", name, actual, expected)
		}
	}
}

func TestSlugifyDeterminism(t *testing.T) {
	first := Slugify("My-Repo_1")
	for i := 0; i < 10; i++ {
		if Slugify("My-Repo_1") != first {
			t.Fatal("Slugify must be deterministic")
		}
	}
}
