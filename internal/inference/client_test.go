package inference

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"docstructgo/internal/config"
)

type fakeModel struct {
	content      string
	err          error
	gotTemp      *float32
	gotMaxTokens *int
	gotMessages  []*schema.Message
}

func (f *fakeModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	o := model.GetCommonOptions(&model.Options{}, opts...)
	f.gotTemp = o.Temperature
	f.gotMaxTokens = o.MaxTokens
	f.gotMessages = input
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.content}, nil
}

func testClient(fake *fakeModel) *Client {
	return &Client{
		model: fake,
		cfg: config.InferenceConfig{
			Provider:            "openai",
			APIKey:              "test",
			Model:               "gpt-4o",
			MaxTokens:           4000,
			TemperatureFast:     0.3,
			TemperatureAccurate: 0.1,
		},
	}
}

func TestNewClientRequiresCredential(t *testing.T) {
	_, err := NewClient(context.Background(), config.InferenceConfig{Provider: "openai"})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestConvertValidResponse(t *testing.T) {
	fake := &fakeModel{content: `{"title":"Doc","summary":"Sum","key_points":["a"],"quotes":[]}`}
	client := testClient(fake)

	out, err := client.Convert(context.Background(), "some text", StructureAutoDetect, ModeFast)
	if err != nil {
		t.Fatalf("convert error: %v", err)
	}
	if out.Title != "Doc" || len(out.KeyPoints) != 1 {
		t.Fatalf("unexpected output: %#v", out)
	}
	if out.Metadata == nil || out.Metadata.Confidence != 0.9 {
		t.Fatalf("valid output should carry confidence 0.9: %#v", out.Metadata)
	}
	if out.Metadata.ExtractedAt == "" {
		t.Fatalf("extraction timestamp not stamped")
	}
	if len(fake.gotMessages) != 2 || fake.gotMessages[0].Role != schema.System {
		t.Fatalf("expected system+user messages, got %#v", fake.gotMessages)
	}
}

func TestConvertSanitizesInvalidResponse(t *testing.T) {
	// quotes missing entirely: schema rejects, sanitizer repairs.
	fake := &fakeModel{content: `{"title":"Doc","summary":"Sum","key_points":["a"]}`}
	client := testClient(fake)

	out, err := client.Convert(context.Background(), "text", StructureAutoDetect, ModeAccurate)
	if err != nil {
		t.Fatalf("convert error: %v", err)
	}
	if out.Metadata.Confidence != 0.7 {
		t.Fatalf("sanitized output should carry confidence 0.7, got %v", out.Metadata.Confidence)
	}
	if out.Quotes == nil || len(out.Quotes) != 0 {
		t.Fatalf("quotes should sanitize to empty slice: %#v", out.Quotes)
	}
	if out.Title != "Doc" {
		t.Fatalf("valid fields should survive sanitization: %q", out.Title)
	}
}

func TestConvertTemperatureByMode(t *testing.T) {
	cases := []struct {
		mode string
		want float32
	}{
		{ModeFast, 0.3},
		{ModeAccurate, 0.1},
		{"turbo", 0.3}, // unrecognized mode falls back to fast
	}
	for _, tc := range cases {
		fake := &fakeModel{content: `{"title":"t","summary":"s","key_points":["k"],"quotes":[]}`}
		client := testClient(fake)
		if _, err := client.Convert(context.Background(), "text", StructureAutoDetect, tc.mode); err != nil {
			t.Fatalf("convert error: %v", err)
		}
		if fake.gotTemp == nil || *fake.gotTemp != tc.want {
			t.Fatalf("mode %q: expected temperature %v, got %v", tc.mode, tc.want, fake.gotTemp)
		}
		if fake.gotMaxTokens == nil || *fake.gotMaxTokens != 4000 {
			t.Fatalf("max tokens option not passed: %v", fake.gotMaxTokens)
		}
	}
}

func TestConvertStripsCodeFence(t *testing.T) {
	fake := &fakeModel{content: "```json\n{\"title\":\"t\",\"summary\":\"s\",\"key_points\":[\"k\"],\"quotes\":[]}\n```"}
	client := testClient(fake)

	out, err := client.Convert(context.Background(), "text", StructureAutoDetect, ModeFast)
	if err != nil {
		t.Fatalf("convert error: %v", err)
	}
	if out.Title != "t" {
		t.Fatalf("fenced payload not parsed: %#v", out)
	}
}

func TestConvertRejectsNonJSONResponse(t *testing.T) {
	for _, content := range []string{"I could not process that document.", `["not", "an", "object"]`} {
		fake := &fakeModel{content: content}
		client := testClient(fake)
		_, err := client.Convert(context.Background(), "text", StructureAutoDetect, ModeFast)
		if !errors.Is(err, ErrInferenceParse) {
			t.Fatalf("content %q: expected ErrInferenceParse, got %v", content, err)
		}
	}
}

func TestConvertWrapsUpstreamFailure(t *testing.T) {
	fake := &fakeModel{err: errors.New("connection reset")}
	client := testClient(fake)

	_, err := client.Convert(context.Background(), "text", StructureAutoDetect, ModeFast)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestConvertRejectsUnimplementedStructure(t *testing.T) {
	client := testClient(&fakeModel{content: "{}"})
	if _, err := client.Convert(context.Background(), "text", "table", ModeFast); err == nil {
		t.Fatalf("expected error for unimplemented output structure")
	}
}
