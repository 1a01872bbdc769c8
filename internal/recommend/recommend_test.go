package recommend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auracast/auracast/internal/featureflags"
	"github.com/auracast/auracast/internal/provider/resilience"
	"github.com/auracast/auracast/internal/recommend"
)

func newClient(url, key string) *recommend.Client {
	return recommend.NewClient(recommend.ClientConfig{
		BaseURL: url,
		APIKey:  key,
		Logger:  zerolog.Nop(),
		HTTP: resilience.NewClient(resilience.ClientConfig{
			Name:            "gemini-test",
			MaxRetries:      1,
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
			Logger:          zerolog.Nop(),
		}),
	})
}

func TestPrompt(t *testing.T) {
	assert.Equal(t,
		"The current air quality index (AQI) is 78, which is considered 'Moderate'. "+
			"Provide a short, actionable health recommendation for the general public in 2-3 concise bullet points. "+
			"The tone should be helpful and clear. "+
			"Do not use markdown formatting, just plain text with bullet points (e.g., using '-' or '*').",
		recommend.Prompt(78, "Moderate"))
	assert.Contains(t, recommend.Prompt(50.5, "Moderate"), "is 50.5,")
}

func TestClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		assert.Contains(t, body.Contents[0].Parts[0].Text, "(AQI) is 185")

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"- Stay indoors.\n"},{"text":"- Wear a mask."}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	text, err := newClient(server.URL, "secret").Generate(context.Background(), recommend.Prompt(185, "Unhealthy"))
	require.NoError(t, err)
	assert.Equal(t, "- Stay indoors.\n- Wear a mask.", text)
}

func TestClient_Generate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	}))
	defer server.Close()

	_, err := newClient(server.URL, "bad").Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestClient_Generate_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	_, err := newClient(server.URL, "k").Generate(context.Background(), "x")
	assert.ErrorIs(t, err, recommend.ErrEmptyResponse)
}

func TestClient_Generate_MissingKey(t *testing.T) {
	_, err := newClient("http://127.0.0.1:0", "").Generate(context.Background(), "x")
	assert.ErrorIs(t, err, recommend.ErrMissingAPIKey)
}

type stubGenerator struct {
	prompt string
	text   string
	err    error
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.text, s.err
}

func TestService_Recommend(t *testing.T) {
	gen := &stubGenerator{text: "* Limit outdoor exercise."}
	svc := recommend.NewService(recommend.ServiceConfig{Generator: gen, Logger: zerolog.Nop()})

	text, err := svc.Recommend(context.Background(), 120, "")
	require.NoError(t, err)
	assert.Equal(t, "* Limit outdoor exercise.", text)
	assert.Contains(t, gen.prompt, "'Unhealthy for Sensitive Groups'")
}

func TestService_Recommend_Failure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("timeout")}
	svc := recommend.NewService(recommend.ServiceConfig{Generator: gen, Logger: zerolog.Nop()})

	_, err := svc.Recommend(context.Background(), 40, "Good")
	assert.ErrorIs(t, err, recommend.ErrGenerationFailed)
	assert.Contains(t, err.Error(), "Failed to generate health recommendation.")
}

func TestService_Recommend_Disabled(t *testing.T) {
	flags := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewInMemoryRepositoryWithFlags(map[string]*featureflags.Flag{
			featureflags.FlagHealthRecommendations: {Key: featureflags.FlagHealthRecommendations, Value: false},
		}),
		Logger: zerolog.Nop(),
	})
	gen := &stubGenerator{text: "unused"}
	svc := recommend.NewService(recommend.ServiceConfig{Generator: gen, Flags: flags, Logger: zerolog.Nop()})

	_, err := svc.Recommend(context.Background(), 40, "Good")
	assert.ErrorIs(t, err, recommend.ErrDisabled)
	assert.Empty(t, gen.prompt)

	_, err = recommend.NewService(recommend.ServiceConfig{
		Generator: &stubGenerator{err: recommend.ErrMissingAPIKey},
	}).Recommend(context.Background(), 40, "Good")
	assert.ErrorIs(t, err, recommend.ErrDisabled)
}
