package language

import (
	"context"
	"errors"
	"testing"

	"github.com/koopa0/parley/internal/log"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"english", "hello world", "en"},
		{"empty", "", "en"},
		{"numbers and symbols", "12 + 34 = 46!", "en"},
		{"chinese", "今天天氣很好", "zh"},
		{"japanese kana", "こんにちは", "ja"},
		{"japanese with kanji", "東京の天気はどうですか", "ja"},
		{"korean", "안녕하세요", "ko"},
		{"russian", "привет мир", "ru"},
		{"arabic", "مرحبا بالعالم", "ar"},
		{"mostly english with one han", "the character 水 means water", "zh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.text); got != tt.want {
				t.Errorf("Detect(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

type stubGenerator struct {
	reply string
	err   error
	calls int
}

func (s *stubGenerator) Generate(context.Context, string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestTranslate(t *testing.T) {
	gen := &stubGenerator{reply: "你好"}
	tr, err := NewLLMTranslator(gen, 0, log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	out, err := tr.Translate(context.Background(), "hello", "zh")
	if err != nil {
		t.Fatal(err)
	}
	if out != "你好" {
		t.Errorf("Translate = %q", out)
	}
}

func TestTranslateSkipsSameLanguage(t *testing.T) {
	gen := &stubGenerator{reply: "should not be used"}
	tr, err := NewLLMTranslator(gen, 0, log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	out, err := tr.Translate(context.Background(), "already english", "en")
	if err != nil {
		t.Fatal(err)
	}
	if out != "already english" {
		t.Errorf("Translate = %q, want passthrough", out)
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times, want 0", gen.calls)
	}
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
	}{
		{"collaborator failure", &stubGenerator{err: errors.New("model down")}},
		{"empty output", &stubGenerator{reply: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewLLMTranslator(tt.gen, 0, log.NewNop())
			if err != nil {
				t.Fatal(err)
			}
			if _, err := tr.Translate(context.Background(), "hello", "zh"); err == nil {
				t.Error("Translate succeeded, want error")
			}
		})
	}
}

func TestTranslateEmptyText(t *testing.T) {
	gen := &stubGenerator{}
	tr, err := NewLLMTranslator(gen, 0, log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	out, err := tr.Translate(context.Background(), "", "zh")
	if err != nil {
		t.Fatal(err)
	}
	if out != "" || gen.calls != 0 {
		t.Errorf("empty text: out=%q calls=%d", out, gen.calls)
	}
}
