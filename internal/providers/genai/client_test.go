package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestClient(t *testing.T, key string, rt roundTripFunc) *Client {
	t.Helper()
	c, err := NewClient(Options{
		APIKey:     key,
		BaseURL:    "https://gemini.test/v1beta/",
		HTTPClient: &http.Client{Transport: rt},
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return c
}

func TestGenerateVariationSyntheticWithoutKey(t *testing.T) {
	c := newTestClient(t, "", func(r *http.Request) (*http.Response, error) {
		t.Fatal("no http call expected without api key")
		return nil, nil
	})
	req := VariationRequest{Prompt: "a pug", AspectRatio: "16:9", RequestID: "item-1"}
	first, err := c.GenerateVariation(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateVariation error: %v", err)
	}
	if !first.Synthetic || first.Format != "image/png" || first.Width != 1024 || first.Height != 576 {
		t.Fatalf("unexpected synthetic asset: %+v", first)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(first.Data))
	if err != nil || cfg.Width != 1024 {
		t.Fatalf("synthetic data is not a 1024px png: %v %+v", err, cfg)
	}
	second, _ := c.GenerateVariation(context.Background(), req)
	if !bytes.Equal(first.Data, second.Data) {
		t.Fatal("synthetic output should be deterministic")
	}
}

func TestGenerateVariationRemote(t *testing.T) {
	source := []byte("source-bytes")
	out := tinyPNG(t)
	c := newTestClient(t, "k-123", func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-flash-image:generateContent" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "k-123" {
			t.Fatalf("api key header = %q", got)
		}
		var payload geminiGenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		parts := payload.Contents[0].Parts
		if len(parts) != 2 || parts[0].Text != "make it oil" || parts[1].InlineData == nil {
			t.Fatalf("unexpected parts: %+v", parts)
		}
		if parts[1].InlineData.MimeType != "image/jpeg" || parts[1].InlineData.Data != base64.StdEncoding.EncodeToString(source) {
			t.Fatalf("unexpected inline data: %+v", parts[1].InlineData)
		}
		if payload.GenerationConfig.ImageConfig == nil || payload.GenerationConfig.ImageConfig.AspectRatio != "1:1" {
			t.Fatalf("aspect ratio missing: %+v", payload.GenerationConfig)
		}
		body := `{"candidates":[{"content":{"parts":[{"text":"here"},{"inlineData":{"mimeType":"image/png","data":"` +
			base64.StdEncoding.EncodeToString(out) + `"}}]}}]}`
		return jsonResponse(http.StatusOK, body), nil
	})

	asset, err := c.GenerateVariation(context.Background(), VariationRequest{
		Prompt:      "make it oil",
		Source:      InlineImage{MIME: "image/jpeg", Data: source},
		AspectRatio: "1:1",
	})
	if err != nil {
		t.Fatalf("GenerateVariation error: %v", err)
	}
	if asset.Synthetic || !bytes.Equal(asset.Data, out) || asset.Width != 3 || asset.Height != 2 {
		t.Fatalf("unexpected asset: %+v", asset)
	}
}

func TestGenerateVariationAPIError(t *testing.T) {
	c := newTestClient(t, "k", func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusTooManyRequests, `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`), nil
	})
	_, err := c.GenerateVariation(context.Background(), VariationRequest{Prompt: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.HTTPStatus() != 429 || apiErr.Status != "RESOURCE_EXHAUSTED" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("error text should carry status: %q", err.Error())
	}
}

func TestGenerateVariationPlainErrorBody(t *testing.T) {
	c := newTestClient(t, "k", func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, "upstream unavailable"), nil
	})
	_, err := c.GenerateVariation(context.Background(), VariationRequest{Prompt: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 502 || apiErr.Message != "upstream unavailable" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGenerateVariationNoImage(t *testing.T) {
	c := newTestClient(t, "k", func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"I cannot do that"}]}}]}`), nil
	})
	_, err := c.GenerateVariation(context.Background(), VariationRequest{Prompt: "x"})
	if !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestGenerateVariationCancelledContext(t *testing.T) {
	c := newTestClient(t, "", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.GenerateVariation(ctx, VariationRequest{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDescribeImage(t *testing.T) {
	c := newTestClient(t, "k", func(r *http.Request) (*http.Response, error) {
		if !strings.Contains(r.URL.Path, "/models/gemini-2.5-flash:generateContent") {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"  A pug in oil.  "}]}}]}`), nil
	})
	text, err := c.DescribeImage(context.Background(), DescribeRequest{Prompt: "describe", Image: InlineImage{Data: []byte("img")}})
	if err != nil {
		t.Fatalf("DescribeImage error: %v", err)
	}
	if text != "A pug in oil." {
		t.Fatalf("text = %q", text)
	}
}

func TestDescribeImageRequiresKey(t *testing.T) {
	c := newTestClient(t, "", nil)
	if _, err := c.DescribeImage(context.Background(), DescribeRequest{}); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}
