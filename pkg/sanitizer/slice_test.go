package sanitizer

import (
	"reflect"
	"testing"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "convert to lowercase",
			input: []string{"WiFi", "Organic Meals"},
			want:  []string{"wifi", "organic meals"},
		},
		{
			name:  "collapse inner whitespace",
			input: []string{"Bullock   Cart   Ride"},
			want:  []string{"bullock cart ride"},
		},
		{
			name:  "remove duplicates",
			input: []string{"Cleanliness", "cleanliness ", " CLEANLINESS"},
			want:  []string{"cleanliness"},
		},
		{
			name:  "filter empty strings",
			input: []string{"Hospitality", "", "  ", "Food"},
			want:  []string{"hospitality", "food"},
		},
		{
			name:  "empty input",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTags(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeTags(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeURLs(t *testing.T) {
	input := []string{
		"HTTPS://Images.Example.com/Stay/Front.JPG",
		"https://images.example.com/Stay/Front.JPG",
		"ftp://files.example.com/a.jpg",
		"not a url",
	}
	want := []string{"https://images.example.com/Stay/Front.JPG"}

	got := NormalizeURLs(input)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeURLs() = %v, want %v", got, want)
	}
}
