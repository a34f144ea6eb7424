package study

import "testing"

func TestNormalizeTitle(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Two Sum", "two sum"},
		{"  two   SUM \t", "two sum"},
		{"Ｔｗｏ Ｓｕｍ", "two sum"},
		{"Straße", "strasse"},
		{"LRU Cache\n(Design)", "lru cache (design)"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeTitle(tc.in); got != tc.want {
			t.Fatalf("NormalizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
