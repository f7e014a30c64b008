package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-arena-service/internal/content"
	"quiz-arena-service/internal/domain"
)

func TestContentClientGenerate(t *testing.T) {
	tests := map[string]struct {
		handler http.HandlerFunc
		req     content.Request
		assert  func(t *testing.T, qs []domain.Question, err error)
	}{
		"decodes questions and applies speed limits": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				var req content.Request
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "/generate-quiz", r.URL.Path)
				assert.Equal(t, "math", req.Subject)
				assert.Equal(t, content.DefaultCount, req.Count)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"questions": []domain.Question{{ID: "q1", Options: []string{"a", "b"}, TimeLimitSeconds: 30}},
				})
			},
			req: content.Request{Subject: "Math", Mode: domain.ModeSpeed},
			assert: func(t *testing.T, qs []domain.Question, err error) {
				require.NoError(t, err)
				require.Len(t, qs, 1)
				assert.Equal(t, 10, qs[0].TimeLimitSeconds)
			},
		},
		"server errors become content unavailable": {
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "model overloaded", http.StatusServiceUnavailable)
			},
			assert: func(t *testing.T, _ []domain.Question, err error) {
				assert.ErrorIs(t, err, domain.ErrContentUnavailable)
				assert.ErrorContains(t, err, "status 503")
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			qs, err := NewContentClient(srv.URL+"/", time.Second).Generate(context.Background(), tc.req)
			tc.assert(t, qs, err)
		})
	}
}

func TestStatsClient(t *testing.T) {
	var got recordCompletionRequest
	var coins updateCoinsRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/record-completion", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(recordCompletionResponse{NewAchievements: []string{"first-quiz"}})
	})
	mux.HandleFunc("/update-coins", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&coins))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/bad", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewStatsClient(srv.URL, time.Second)
	earned, err := c.RecordCompletion(context.Background(), domain.Completion{RunID: "s-9", PlayerID: "p1", Mode: domain.ModeClassic, Score: 300, Streak: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"first-quiz"}, earned)
	assert.Equal(t, "p1", got.PlayerID)
	assert.Equal(t, "s-9", got.RunID)
	assert.Equal(t, 300, got.Score)

	require.NoError(t, c.UpdateCoins(context.Background(), "p1", 42))
	assert.Equal(t, 42, coins.NewBalance)

	err = c.postJSON(context.Background(), "/bad", struct{}{}, nil)
	assert.ErrorIs(t, err, domain.ErrRequestRejected)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}
