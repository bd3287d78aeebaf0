package pagination

import "testing"

func TestClampPageSize(t *testing.T) {
	cfg := PageSizeConfig{Default: 10, Max: 50}
	tests := []struct {
		in   int32
		want int
	}{
		{0, 10},
		{-3, 10},
		{7, 7},
		{500, 50},
	}
	for _, tt := range tests {
		if got := ClampPageSize(tt.in, cfg); got != tt.want {
			t.Fatalf("ClampPageSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := ClampPageSize(0, PageSizeConfig{}); got != 1 {
		t.Fatalf("expected floor of 1 without defaults, got %d", got)
	}
}

func TestPageToken(t *testing.T) {
	if got := PageToken("  enc-9 "); got != "enc-9" {
		t.Fatalf("expected trimmed token, got %q", got)
	}
}
