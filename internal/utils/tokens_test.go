package utils

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestValidatePasswordStrength(t *testing.T) {
	cases := []struct {
		pw   string
		want bool
	}{
		{"", false},
		{"Ab1!", false},
		{"abcdefgh", false},
		{"abcdefg1", false},
		{"Abcdefg1", true},
		{"abcdef1!", true},
		{"ABCDEF1!", true},
		{"Abcdefg!", true},
		{"Str0ng!Pass", true},
		{"Ab1!Ab1", false},
		{"пароль12!", true},
	}
	for _, tc := range cases {
		if got := ValidatePasswordStrength(tc.pw); got != tc.want {
			t.Errorf("ValidatePasswordStrength(%q) = %v, want %v", tc.pw, got, tc.want)
		}
	}
}

// Adding a character of any class never turns a strong password weak.
func TestValidatePasswordStrengthMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pools := []string{"ABCDEFGHIJKLMNOPQRSTUVWXYZ", "abcdefghijklmnopqrstuvwxyz", "0123456789", "!@#$%^&*()-_=+[]{};:,.<>?/"}
	randomString := func(n int) string {
		var b strings.Builder
		for i := 0; i < n; i++ {
			p := pools[rng.Intn(len(pools))]
			b.WriteByte(p[rng.Intn(len(p))])
		}
		return b.String()
	}
	for i := 0; i < 2000; i++ {
		s := randomString(1 + rng.Intn(14))
		before := ValidatePasswordStrength(s)
		for _, p := range pools {
			extended := s + string(p[rng.Intn(len(p))])
			if before && !ValidatePasswordStrength(extended) {
				t.Fatalf("%q strong but %q weak", s, extended)
			}
		}
	}
}

func TestHashSecret(t *testing.T) {
	inputs := []string{"", "a", "123456", strings.Repeat("x", 10_000)}
	for _, in := range inputs {
		h := HashSecret(in)
		if h != HashSecret(in) {
			t.Errorf("HashSecret(%.10q) not deterministic", in)
		}
		if h == in {
			t.Errorf("HashSecret(%.10q) returned its input", in)
		}
		if len(h) != 64 {
			t.Errorf("HashSecret(%.10q) length %d, want 64", in, len(h))
		}
	}
	if HashSecret("a") == HashSecret("b") {
		t.Error("distinct inputs share a hash")
	}
}

func TestSecretMatches(t *testing.T) {
	h := HashSecret("123456")
	if !SecretMatches(h, "123456") {
		t.Error("matching secret rejected")
	}
	if SecretMatches(h, "123457") {
		t.Error("wrong secret accepted")
	}
	if SecretMatches("", "") {
		t.Error("empty stored hash must never match")
	}
}

func TestGenerateNumericCodeFormat(t *testing.T) {
	for _, digits := range []int{4, 6, 8} {
		re := regexp.MustCompile(`^\d{` + string(rune('0'+digits)) + `}$`)
		for i := 0; i < 500; i++ {
			code, err := GenerateNumericCode(digits)
			if err != nil {
				t.Fatalf("GenerateNumericCode(%d): %v", digits, err)
			}
			if !re.MatchString(code) {
				t.Fatalf("GenerateNumericCode(%d) = %q", digits, code)
			}
		}
	}
	if _, err := GenerateNumericCode(0); err == nil {
		t.Error("zero digits accepted")
	}
}

// Chi-squared over the leading digit: 10 buckets, 9 degrees of freedom.
// 40 is far beyond the 0.9999 quantile (~33.7).
func TestGenerateNumericCodeUniform(t *testing.T) {
	const n = 20000
	var buckets [10]int
	for i := 0; i < n; i++ {
		code, err := GenerateNumericCode(6)
		if err != nil {
			t.Fatal(err)
		}
		buckets[code[0]-'0']++
	}
	expected := float64(n) / 10
	var chi2 float64
	for _, got := range buckets {
		d := float64(got) - expected
		chi2 += d * d / expected
	}
	if chi2 > 40 {
		t.Fatalf("leading digit distribution looks skewed: chi2=%.1f buckets=%v", chi2, buckets)
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken(32)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := GenerateToken(32)
	if len(a) != 64 || a == b {
		t.Fatalf("tokens %q %q", a, b)
	}
}

func TestGenerateSlug(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-z]{10}$`)
	for i := 0; i < 100; i++ {
		s, err := GenerateSlug(10)
		if err != nil {
			t.Fatal(err)
		}
		if !re.MatchString(s) {
			t.Fatalf("slug %q", s)
		}
	}
}

func TestMasking(t *testing.T) {
	emails := map[string]string{
		"admin@x.test":    "a***@x.test",
		"élan@x.test":     "é***@x.test",
		"ädmin@menu.kz":   "ä***@menu.kz",
		" Owner@menu.kz ": "O***@menu.kz",
		"no-at-sign":      "***",
		"@x.test":         "***",
		"admin@":          "***",
		"":                "***",
	}
	for in, want := range emails {
		got := MaskEmail(in)
		if got != want {
			t.Errorf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("MaskEmail(%q) is not valid UTF-8", in)
		}
	}

	if got := NormalizePhone("+7 (701) 123-45-67"); got != "+77011234567" {
		t.Errorf("NormalizePhone = %q", got)
	}
	if got := PhoneEnding("+7 (701) 123-45-67"); got != "4567" {
		t.Errorf("PhoneEnding = %q", got)
	}
	if got := MaskPhone("+77011234567"); got != "***4567" {
		t.Errorf("MaskPhone = %q", got)
	}
	if got := MaskPhone(""); got != "" {
		t.Errorf("MaskPhone(empty) = %q", got)
	}
}
