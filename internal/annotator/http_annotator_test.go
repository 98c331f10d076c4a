package annotator

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/types"
)

// newTestServer 搭一个假标注服务：/warmup 计数，/annotate 回显预置标注
func newTestServer(t *testing.T, annotation *types.Annotation, warmupHits *int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/warmup", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(warmupHits, 1)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/annotate", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(annotation)
	})
	return httptest.NewServer(mux)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestHTTPAnnotatorAnnotate(t *testing.T) {
	want := &types.Annotation{
		Tokens: []types.Token{
			{Text: "Jane", Lemma: "jane"},
			{Text: "works", Lemma: "work"},
		},
		Sentences: []types.Sentence{{Start: 0, End: 2, Text: "Jane works"}},
		Entities:  []types.Entity{{Label: types.EntityPerson, Text: "Jane"}},
	}

	var warmupHits int64
	server := newTestServer(t, want, &warmupHits)
	defer server.Close()

	a := NewHTTPAnnotator(server.URL, WithAnnotatorLogger(quietLogger()))
	got, err := a.Annotate(context.Background(), "Jane works")
	require.NoError(t, err)

	assert.Equal(t, want.Tokens, got.Tokens)
	assert.Equal(t, want.Sentences, got.Sentences)
	assert.Equal(t, want.Entities, got.Entities)
}

// TestHTTPAnnotatorWarmupOnce 预热只在首次标注前触发一次
func TestHTTPAnnotatorWarmupOnce(t *testing.T) {
	var warmupHits int64
	server := newTestServer(t, &types.Annotation{}, &warmupHits)
	defer server.Close()

	a := NewHTTPAnnotator(server.URL, WithAnnotatorLogger(quietLogger()))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := a.Annotate(ctx, "some text")
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), atomic.LoadInt64(&warmupHits), "多次标注只应预热一次")
}

// TestHTTPAnnotatorModelHeader 语言模型名通过请求头传给服务端
func TestHTTPAnnotatorModelHeader(t *testing.T) {
	var gotModel string
	mux := http.NewServeMux()
	mux.HandleFunc("/warmup", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/annotate", func(w http.ResponseWriter, r *http.Request) {
		gotModel = r.Header.Get("X-Annotator-Model")
		_ = json.NewEncoder(w).Encode(&types.Annotation{})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	a := NewHTTPAnnotator(server.URL,
		WithLanguage("en_core_web_lg"),
		WithAnnotatorLogger(quietLogger()),
	)
	_, err := a.Annotate(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "en_core_web_lg", gotModel)
}

// TestHTTPAnnotatorServerError 非200状态码应返回错误
func TestHTTPAnnotatorServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	a := NewHTTPAnnotator(server.URL, WithAnnotatorLogger(quietLogger()))
	_, err := a.Annotate(context.Background(), "text")
	require.Error(t, err)
}

// TestHTTPAnnotatorWarmupFailureNotFatal 预热失败不阻断标注请求
func TestHTTPAnnotatorWarmupFailureNotFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/warmup", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/annotate", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(&types.Annotation{
			Tokens: []types.Token{{Text: "ok"}},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	a := NewHTTPAnnotator(server.URL, WithAnnotatorLogger(quietLogger()))
	got, err := a.Annotate(context.Background(), "text")
	require.NoError(t, err, "预热失败时标注请求仍应继续")
	assert.Len(t, got.Tokens, 1)
}

// TestHTTPAnnotatorBadJSON 响应不是合法JSON时报错
func TestHTTPAnnotatorBadJSON(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/warmup", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/annotate", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	a := NewHTTPAnnotator(server.URL, WithAnnotatorLogger(quietLogger()))
	_, err := a.Annotate(context.Background(), "text")
	require.Error(t, err)
}
