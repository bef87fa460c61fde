package validation

import (
	"testing"
	"time"
)

func TestValidateFrequency(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"daily", "weekly", "custom"} {
		if err := ValidateFrequency(valid); err != nil {
			t.Errorf("ValidateFrequency(%q) = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"", "DAILY", "monthly", "3x"} {
		if err := ValidateFrequency(invalid); err == nil {
			t.Errorf("ValidateFrequency(%q) = nil, want error", invalid)
		}
	}
}

func TestValidateDayStatus(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"neutral", "completed", "failed"} {
		if err := ValidateDayStatus(valid); err != nil {
			t.Errorf("ValidateDayStatus(%q) = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"", "done", "skipped", "Completed"} {
		if err := ValidateDayStatus(invalid); err == nil {
			t.Errorf("ValidateDayStatus(%q) = nil, want error", invalid)
		}
	}
}

func TestValidateLedgerDate(t *testing.T) {
	t.Parallel()

	if err := ValidateLedgerDate("2025-06-02"); err != nil {
		t.Errorf("ValidateLedgerDate(valid) = %v", err)
	}
	for _, invalid := range []string{"", "06-02-2025", "2025-13-01", "2025-06-2", "yesterday"} {
		if err := ValidateLedgerDate(invalid); err == nil {
			t.Errorf("ValidateLedgerDate(%q) = nil, want error", invalid)
		}
	}
}

func TestValidateHexColor(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"#4F46E5", "#000000", "#ffffff"} {
		if err := ValidateHexColor(valid); err != nil {
			t.Errorf("ValidateHexColor(%q) = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"", "4F46E5", "#4F46E", "#4F46E5A", "#GGGGGG"} {
		if err := ValidateHexColor(invalid); err == nil {
			t.Errorf("ValidateHexColor(%q) = nil, want error", invalid)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "trims whitespace", in: "  read  ", want: "read"},
		{name: "strips control chars", in: "re\x00ad", want: "read"},
		{name: "keeps newline and tab", in: "a\n\tb", want: "a\n\tb"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.in); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDateRange(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 4, 12, 0, 0, 0, time.UTC)

	t.Run("defaults to current week", func(t *testing.T) {
		t.Parallel()

		start, end, err := ParseDateRange("", "", now)
		if err != nil {
			t.Fatalf("ParseDateRange() error: %v", err)
		}
		if start.Format("2006-01-02") != "2025-06-02" || end.Format("2006-01-02") != "2025-06-08" {
			t.Errorf("default range = %v..%v, want current week", start, end)
		}
	})

	t.Run("explicit range", func(t *testing.T) {
		t.Parallel()

		start, end, err := ParseDateRange("2025-05-01", "2025-05-31", now)
		if err != nil {
			t.Fatalf("ParseDateRange() error: %v", err)
		}
		if start.Day() != 1 || end.Day() != 31 {
			t.Errorf("range = %v..%v", start, end)
		}
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		t.Parallel()

		if _, _, err := ParseDateRange("2025-06-10", "2025-06-01", now); err == nil {
			t.Error("inverted range accepted")
		}
	})
}
