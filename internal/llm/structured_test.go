package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient returns a canned response and records the last prompt.
type fakeClient struct {
	content    string
	err        error
	lastPrompt string
}

func (f *fakeClient) Complete(_ context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	f.lastPrompt = req.Messages[len(req.Messages)-1].Content
	if f.err != nil {
		return nil, f.err
	}
	return &CompletionResponse{Content: f.content}, nil
}

func (f *fakeClient) Name() string     { return "fake" }
func (f *fakeClient) Models() []string { return nil }

func testSpec() PromptSpec {
	return PromptSpec{
		Task:  "Extract the answer.",
		Rules: []string{"Be literal."},
		Input: map[string]string{"question": "what?"},
		Fields: []SchemaField{
			{Name: "answer", Type: "string", Required: true},
		},
	}
}

func TestGenerateJSON(t *testing.T) {
	client := &fakeClient{content: `{"answer": "42"}`}
	var out struct {
		Answer string `json:"answer"`
	}

	err := GenerateJSON(context.Background(), client, testSpec(), &out)

	require.NoError(t, err)
	assert.Equal(t, "42", out.Answer)
}

func TestGenerateJSONPromptSections(t *testing.T) {
	client := &fakeClient{content: `{"answer": "x"}`}
	var out map[string]any

	err := GenerateJSON(context.Background(), client, testSpec(), &out)
	require.NoError(t, err)

	for _, section := range []string{"[TASK]", "[RULES]", "[INPUT]", "[OUTPUT]", "[OUTPUT_FORMAT]"} {
		assert.True(t, strings.Contains(client.lastPrompt, section),
			"prompt missing %s section", section)
	}
	assert.Contains(t, client.lastPrompt, "answer (string, required)")
}

func TestGenerateJSONNilClient(t *testing.T) {
	var out map[string]any

	err := GenerateJSON(context.Background(), nil, testSpec(), &out)

	require.Error(t, err)
	assert.True(t, IsCapabilityFailure(err))
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestGenerateJSONProviderError(t *testing.T) {
	client := &fakeClient{err: errors.New("rate limited")}
	var out map[string]any

	err := GenerateJSON(context.Background(), client, testSpec(), &out)

	require.Error(t, err)
	assert.True(t, IsCapabilityFailure(err))
}

func TestGenerateJSONToleratesFencesAndProse(t *testing.T) {
	client := &fakeClient{content: "Sure! Here you go:\n```json\n{\"answer\": \"ok\"}\n```\n"}
	var out struct {
		Answer string `json:"answer"`
	}

	err := GenerateJSON(context.Background(), client, testSpec(), &out)

	require.NoError(t, err)
	assert.Equal(t, "ok", out.Answer)
}

func TestGenerateJSONMalformedOutput(t *testing.T) {
	client := &fakeClient{content: "I could not produce JSON, sorry."}
	var out map[string]any

	err := GenerateJSON(context.Background(), client, testSpec(), &out)

	require.Error(t, err)
	assert.True(t, IsCapabilityFailure(err))
}

func TestGenerateJSONSchemaMismatch(t *testing.T) {
	client := &fakeClient{content: `{"answer": 12}`}
	var out struct {
		Answer string `json:"answer"`
	}

	err := GenerateJSON(context.Background(), client, testSpec(), &out)

	require.Error(t, err)
	assert.True(t, IsCapabilityFailure(err))
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "bare object", in: `{"a":1}`, want: `{"a":1}`},
		{name: "bare array", in: `[1,2]`, want: `[1,2]`},
		{name: "fenced", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose around", in: "here: {\"a\":1} done", want: `{"a":1}`},
		{name: "empty", in: "", wantErr: true},
		{name: "no json", in: "nothing here", wantErr: true},
		{name: "unterminated", in: `{"a":1`, wantErr: true},
		{name: "invalid", in: `{"a":}`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractJSON(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestRenderPromptRejectsEmptySpec(t *testing.T) {
	_, err := renderPrompt(PromptSpec{Fields: []SchemaField{{Name: "x"}}})
	assert.Error(t, err)

	_, err = renderPrompt(PromptSpec{Task: "do it"})
	assert.Error(t, err)
}
