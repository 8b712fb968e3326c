package auth

import "testing"

func TestGetEnvKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "  gem-key  ")
	t.Setenv("OPENAI_API_KEY", "")

	key, ok := GetEnvKey("gemini")
	if !ok || key != "gem-key" {
		t.Fatalf("GetEnvKey(gemini) = (%q, %v), want trimmed key", key, ok)
	}
	if _, ok := GetEnvKey("openai"); ok {
		t.Fatal("expected no openai key")
	}
}

func TestGetKey_EnvDisabledByDefault(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-env")
	// Keychain is unavailable or empty in CI; with allowEnv=false the env
	// var must not leak through.
	if key, _ := GetKey("openai", false); key == "from-env" {
		t.Fatal("environment key used despite allowEnv=false")
	}
}

func TestAccountFor(t *testing.T) {
	if acc, env := accountFor("openai"); acc != openaiAccount || env != openaiEnvVar {
		t.Errorf("accountFor(openai) = (%q, %q)", acc, env)
	}
	// Anything else maps to gemini, the default backend.
	if acc, env := accountFor("gemini"); acc != geminiAccount || env != geminiEnvVar {
		t.Errorf("accountFor(gemini) = (%q, %q)", acc, env)
	}
}
