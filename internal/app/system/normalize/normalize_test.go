package normalize

import "testing"

func TestCategory(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Direct Mail", "Direct Mail"},
		{"  Acme Corp  ", "Acme Corp"},
		{"N/A", "Not Provided"},
		{"n/a", "Not Provided"},
		{"na", "Not Provided"},
		{"NA", "Not Provided"},
		{"null", "Not Provided"},
		{"NULL", "Not Provided"},
		{"undefined", "Not Provided"},
		{"none", "Not Provided"},
		{"-", "Not Provided"},
		{"unknown", "Not Provided"},
		{"UNKNOWN", "Not Provided"},
		{"Unknown", "Unknown"}, // canonical blank-bucket label stays put
		{"not provided", "Not Provided"},
		{"  Not Provided  ", "Not Provided"},
		{"", "Unknown"},
		{"   ", "Unknown"},
		{"\t\n", "Unknown"},
		{"n/a stuff", "n/a stuff"}, // only exact matches count
		{"MixedCase", "MixedCase"}, // case preserved for real values
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Category(tt.input); got != tt.want {
				t.Errorf("Category(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCategoryIdempotent(t *testing.T) {
	inputs := []string{
		"Direct Mail", "N/A", "null", "", "   ", "-", "unknown", "  Acme  ",
	}
	for _, in := range inputs {
		once := Category(in)
		twice := Category(once)
		if once != twice {
			t.Errorf("Category not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestMergeCategories(t *testing.T) {
	rows := []map[string]any{
		{"name": "Email", "value": 10.0},
		{"name": "email", "value": 5.0},
		{"name": "  EMAIL ", "value": 2.0},
		{"name": "SMS", "value": 3.0},
		{"name": "n/a", "value": 1.0},
		{"name": "null", "value": 4.0},
	}

	got := MergeCategories(rows, "name", "value")

	if len(got) != 3 {
		t.Fatalf("merged length = %d, want 3", len(got))
	}

	// First-occurrence order: Email, SMS, Not Provided.
	if got[0]["name"] != "Email" || got[0]["value"] != 17.0 {
		t.Errorf("row 0 = %v, want Email/17", got[0])
	}
	if got[1]["name"] != "SMS" || got[1]["value"] != 3.0 {
		t.Errorf("row 1 = %v, want SMS/3", got[1])
	}
	if got[2]["name"] != "Not Provided" || got[2]["value"] != 5.0 {
		t.Errorf("row 2 = %v, want Not Provided/5", got[2])
	}
}

func TestMergeCategoriesKeepsFirstDisplayName(t *testing.T) {
	rows := []map[string]any{
		{"name": "Facebook Ads", "value": 1.0},
		{"name": "FACEBOOK ADS", "value": 1.0},
	}
	got := MergeCategories(rows, "name", "value")
	if len(got) != 1 {
		t.Fatalf("merged length = %d, want 1", len(got))
	}
	if got[0]["name"] != "Facebook Ads" {
		t.Errorf("display name = %q, want first-seen casing %q", got[0]["name"], "Facebook Ads")
	}
}

func TestMergeCategoriesDoesNotMutateInput(t *testing.T) {
	rows := []map[string]any{
		{"name": "  Email ", "value": "7"},
	}
	_ = MergeCategories(rows, "name", "value")
	if rows[0]["name"] != "  Email " {
		t.Errorf("input row mutated: name = %q", rows[0]["name"])
	}
	if rows[0]["value"] != "7" {
		t.Errorf("input row mutated: value = %v", rows[0]["value"])
	}
}

func TestFloat(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{"float64", 2.5, 2.5},
		{"int", 7, 7},
		{"int64", int64(9), 9},
		{"numeric string", "250.50", 250.5},
		{"padded string", " 12 ", 12},
		{"negative string", "-3.5", -3.5},
		{"empty string", "", 0},
		{"garbage string", "abc", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Float(tt.input); got != tt.want {
				t.Errorf("Float(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  user@example.com  ", "user@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRole(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"admin", "admin"},
		{"ADMIN", "admin"},
		{"  Analyst  ", "analyst"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Role(tt.input); got != tt.want {
				t.Errorf("Role(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
