package auth

import "testing"

func TestExtractPath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain path",
			input: "/users/42",
			want:  "/users/42",
		},
		{
			name:  "path with query",
			input: "/users?page=2&limit=10",
			want:  "/users",
		},
		{
			name:  "absolute URL",
			input: "https://api.example.com/users/42",
			want:  "/users/42",
		},
		{
			name:  "absolute URL with query",
			input: "https://api.example.com/users?page=2",
			want:  "/users",
		},
		{
			name:  "absolute URL without path",
			input: "https://api.example.com",
			want:  "",
		},
		{
			name:  "absolute URL with fragment",
			input: "https://api.example.com/docs#section",
			want:  "/docs",
		},
		{
			name:  "escaped path preserved",
			input: "/users/a%2Fb",
			want:  "/users/a%2Fb",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractPath(tt.input); got != tt.want {
				t.Errorf("ExtractPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
