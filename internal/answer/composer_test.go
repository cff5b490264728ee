package answer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"askai/internal/domain"
)

var resume = domain.Document{ID: "r1", Title: "Resume", URL: "/#/resume", Source: domain.SourceResume, Text: "Reduced WER to 9% using Whisper LoRA"}

func TestComposeLocalEmpty(t *testing.T) {
	assert.Equal(t, `Not found in this website data for: "anything"`, ComposeLocal("anything", nil))
}

func TestComposeLocal(t *testing.T) {
	got := ComposeLocal("whisper WER", []domain.Document{resume})
	assert.Equal(t, "Based on your website content:\n1. Reduced WER to 9% using Whisper LoRA", got)
	assert.True(t, strings.HasPrefix(got, "Based on your website content:\n1. Reduced WER to 9%"))
}

func TestComposeLocalTakesFirstThree(t *testing.T) {
	docs := []domain.Document{{Text: "one"}, {Text: "two"}, {Text: "three"}, {Text: "four"}}
	assert.Equal(t, "Based on your website content:\n1. one\n2. two\n3. three", ComposeLocal("q", docs))
}

func TestComposeLocalTruncatesThenTrims(t *testing.T) {
	long := strings.Repeat("x", 179) + " tail that is cut"
	got := ComposeLocal("q", []domain.Document{{Text: "  " + long}})
	// the two leading spaces count towards the cut
	assert.Equal(t, "Based on your website content:\n1. "+strings.Repeat("x", 178), got)

	multibyte := strings.Repeat("é", 200)
	got = ComposeLocal("q", []domain.Document{{Text: multibyte}})
	assert.Equal(t, "Based on your website content:\n1. "+strings.Repeat("é", SnippetChars), got)
}

func TestComposeRemote(t *testing.T) {
	docs := []domain.Document{resume}
	local := ComposeLocal("whisper", docs)

	assert.Equal(t, "WER fell to 9%.", ComposeRemote("whisper", docs, "  WER fell to 9%.\n"))
	assert.Equal(t, local, ComposeRemote("whisper", docs, ""))
	assert.Equal(t, local, ComposeRemote("whisper", docs, "   "))
	assert.Equal(t, local, ComposeRemote("whisper", docs, nil))
	assert.Equal(t, local, ComposeRemote("whisper", docs, 42.0))
	assert.Equal(t, local, ComposeRemote("whisper", docs, []any{"a"}))
}

func TestFailureTexts(t *testing.T) {
	docs := []domain.Document{resume}
	local := ComposeLocal("whisper", docs)

	assert.Equal(t, "Request failed.\n\n"+local, TransportFailure("whisper", docs))
	assert.Equal(t, "Daily limit reached\n\n"+local, ServiceFailure("Daily limit reached", "whisper", docs))

	assert.Equal(t, "Ask AI failed (502).", ServiceErrorText(&domain.ServiceError{Status: 502}))
	assert.Equal(t, "quota", ServiceErrorText(&domain.ServiceError{Status: 429, Message: "quota"}))
}

func TestBuildContext(t *testing.T) {
	other := domain.Document{Title: "LLMCode", URL: "https://github.com/x/LLMCode", Source: domain.SourceProject, Text: "from scratch"}
	got := BuildContext([]domain.Document{resume, other})
	want := "Title: Resume\nURL: /#/resume\nSource: resume\nContent: Reduced WER to 9% using Whisper LoRA" +
		"\n\n---\n\n" +
		"Title: LLMCode\nURL: https://github.com/x/LLMCode\nSource: project\nContent: from scratch"
	assert.Equal(t, want, got)
	assert.Equal(t, "", BuildContext(nil))
}
