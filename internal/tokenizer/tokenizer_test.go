package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases", "Whisper WER", []string{"whisper", "wer"}},
		{"punctuation separates", "ASR/TTS, low-latency!", []string{"asr", "tts", "low", "latency"}},
		{"drops single chars", "a b cd 9 10", []string{"cd", "10"}},
		{"non ascii letters separate", "caféteria naïve", []string{"caf", "teria", "na", "ve"}},
		{"keeps duplicates", "wer WER wer", []string{"wer", "wer", "wer"}},
		{"blank", "   ", nil},
		{"empty", "", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Tokenize(tc.in))
		})
	}
}

func TestTokenizeDeterministic(t *testing.T) {
	in := "Reduced WER to 9% using Whisper LoRA"
	assert.Equal(t, Tokenize(in), Tokenize(in))
}

func TestSet(t *testing.T) {
	s := Set([]string{"wer", "wer", "lora"})
	assert.Len(t, s, 2)
	assert.Contains(t, s, "wer")
	assert.Contains(t, s, "lora")
}
