package validation

import "testing"

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{
			name:    "valid email",
			email:   "test@example.com",
			wantErr: false,
		},
		{
			name:    "valid email with subdomain",
			email:   "user@mail.example.com",
			wantErr: false,
		},
		{
			name:    "valid email with plus",
			email:   "user+tag@example.com",
			wantErr: false,
		},
		{
			name:    "missing @",
			email:   "testexample.com",
			wantErr: true,
		},
		{
			name:    "missing domain",
			email:   "test@",
			wantErr: true,
		},
		{
			name:    "missing local part",
			email:   "@example.com",
			wantErr: true,
		},
		{
			name:    "empty string",
			email:   "",
			wantErr: true,
		},
		{
			name:    "spaces in email",
			email:   "test @example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid name", input: "Minh Anh", wantErr: false},
		{name: "single letter", input: "A", wantErr: false},
		{name: "empty name", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName("name", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTimes(t *testing.T) {
	tests := []struct {
		name    string
		times   []string
		wantErr bool
	}{
		{name: "single time", times: []string{"08:00"}, wantErr: false},
		{name: "morning and evening", times: []string{"08:00", "20:30"}, wantErr: false},
		{name: "empty", times: nil, wantErr: true},
		{name: "duplicate", times: []string{"08:00", "08:00"}, wantErr: true},
		{name: "missing leading zero", times: []string{"8:00"}, wantErr: true},
		{name: "hour out of range", times: []string{"24:00"}, wantErr: true},
		{name: "minute out of range", times: []string{"12:60"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTimes(tt.times)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTimes(%v) error = %v, wantErr %v", tt.times, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDateRange(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantErr bool
	}{
		{name: "open ended", start: "2026-10-01", end: "", wantErr: false},
		{name: "same day", start: "2026-10-01", end: "2026-10-01", wantErr: false},
		{name: "end before start", start: "2026-10-02", end: "2026-10-01", wantErr: true},
		{name: "bad start", start: "01/10/2026", end: "", wantErr: true},
		{name: "bad end", start: "2026-10-01", end: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDateRange(tt.start, tt.end)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDateRange(%q, %q) error = %v, wantErr %v", tt.start, tt.end, err, tt.wantErr)
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := ValidatePositive("pointsCost", 0)
	if err == nil {
		t.Fatal("ValidatePositive(0) should fail")
	}
	if got, want := err.Error(), "pointsCost: pointsCost must be greater than zero"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if err := ValidateNonNegative("minutes", 0); err != nil {
		t.Errorf("ValidateNonNegative(0) error = %v", err)
	}
}
