package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/price-scout/pkg/anthropic"
)

type mockAnthropicClient struct {
	calls    int
	lastReq  anthropic.MessageRequest
	response string
	err      error
}

func (m *mockAnthropicClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: m.response}},
	}, nil
}

func TestAIExtractor_Extract(t *testing.T) {
	mock := &mockAnthropicClient{
		response: `{"title":"Gadget Pro 3000","price":"$120","image":"https://cdn.example/g.png"}`,
	}
	ex := NewAIExtractor(mock, "claude-haiku-4-5")

	got := ex.Extract(context.Background(), "<html><h1>Gadget</h1></html>", "https://shop.example/gadget")
	require.NotNil(t, got)
	assert.Equal(t, "Gadget Pro 3000", got.Title)
	assert.Equal(t, "$120", got.PriceText)
	assert.Equal(t, "https://cdn.example/g.png", got.Image)
	assert.Equal(t, 1, mock.calls)
	assert.Equal(t, "claude-haiku-4-5", mock.lastReq.Model)
}

func TestAIExtractor_Extract_PromptCarriesURLAndDomain(t *testing.T) {
	mock := &mockAnthropicClient{response: `{"title":"Widget","price":"€5"}`}
	ex := NewAIExtractor(mock, "claude-haiku-4-5")

	ex.Extract(context.Background(), "<html></html>", "https://www.shop.example/widget")

	require.Len(t, mock.lastReq.Messages, 1)
	prompt := mock.lastReq.Messages[0].Content
	assert.Contains(t, prompt, "https://www.shop.example/widget")
	assert.Contains(t, prompt, "shop.example")
}

func TestAIExtractor_Extract_ReplyWrappedInProse(t *testing.T) {
	mock := &mockAnthropicClient{
		response: "Here is the extracted data:\n```json\n{\"title\":\"Espresso Machine\",\"price\":\"€349,00\",\"image\":\"\"}\n```\nLet me know if you need anything else.",
	}
	ex := NewAIExtractor(mock, "claude-haiku-4-5")

	got := ex.Extract(context.Background(), "<html></html>", "https://shop.example/em")
	require.NotNil(t, got)
	assert.Equal(t, "Espresso Machine", got.Title)
	assert.Equal(t, "€349,00", got.PriceText)
}

func TestAIExtractor_Extract_NilClient(t *testing.T) {
	ex := NewAIExtractor(nil, "claude-haiku-4-5")
	assert.Nil(t, ex.Extract(context.Background(), "<html></html>", "https://shop.example/x"))
}

func TestAIExtractor_Extract_ModelError(t *testing.T) {
	mock := &mockAnthropicClient{err: errors.New("overloaded")}
	ex := NewAIExtractor(mock, "claude-haiku-4-5")

	assert.Nil(t, ex.Extract(context.Background(), "<html></html>", "https://shop.example/x"))
	assert.Equal(t, 1, mock.calls)
}

func TestAIExtractor_Extract_MalformedReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no json at all", "I could not find any product on this page."},
		{"truncated object", `{"title":"Gadget","price":`},
		{"sentinel title", `{"title":"Product Title Not Found","price":"0"}`},
		{"empty title", `{"title":"","price":"€10"}`},
		{"too-short title", `{"title":"TV","price":"€10"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockAnthropicClient{response: tt.reply}
			ex := NewAIExtractor(mock, "claude-haiku-4-5")
			assert.Nil(t, ex.Extract(context.Background(), "<html></html>", "https://shop.example/x"))
		})
	}
}

func TestAIExtractor_HTMLBudget(t *testing.T) {
	mock := &mockAnthropicClient{response: `{"title":"Widget","price":"€5"}`}
	ex := NewAIExtractor(mock, "claude-haiku-4-5").WithHTMLBudget(64)

	big := "<html>" + string(make([]byte, 10_000)) + "</html>"
	ex.Extract(context.Background(), big, "https://shop.example/x")

	require.Len(t, mock.lastReq.Messages, 1)
	assert.Less(t, len(mock.lastReq.Messages[0].Content), 3000)
}

func TestTrimHTML(t *testing.T) {
	in := `<html><script>var x = 1;</script><style>.a{color:red}</style><!-- hidden --><p>keep</p></html>`
	out := trimHTML(in, 1000)
	assert.NotContains(t, out, "var x")
	assert.NotContains(t, out, "color:red")
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "<p>keep</p>")
}

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"leading prose", `sure: {"a":1} trailing`, `{"a":1}`},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`},
		{"brace inside string", `{"a":"}"}`, `{"a":"}"}`},
		{"escaped quote inside string", `{"a":"\"}"}`, `{"a":"\"}"}`},
		{"unbalanced", `{"a":1`, ""},
		{"no object", "nothing here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, firstJSONObject(tt.in))
		})
	}
}
