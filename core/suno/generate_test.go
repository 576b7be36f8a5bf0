package suno

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock 让轮询预算在测试里以虚拟时间流逝，不真正睡眠
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

type sleepCall struct{ min, max int }

// generateFixture 覆盖提交和轮询两个端点的可编程服务商
type generateFixture struct {
	mu sync.Mutex

	payload    map[string]interface{}
	generateFn func() (int, interface{})
	feedFn     func(call int) interface{}

	renewFail bool
	feedCalls int
	sleeps    []sleepCall
}

func (f *generateFixture) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/client", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"response": map[string]string{"last_active_session_id": "sess_123"},
		})
	})

	mux.HandleFunc("/v1/client/sessions/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		fail := f.renewFail
		f.mu.Unlock()
		jwt := "tok_abc"
		if fail {
			jwt = ""
		}
		json.NewEncoder(w).Encode(map[string]string{"jwt": jwt})
	})

	mux.HandleFunc("/api/generate/v2/", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&payload)

		f.mu.Lock()
		f.payload = payload
		fn := f.generateFn
		f.mu.Unlock()

		code, body := fn()
		w.WriteHeader(code)
		if s, ok := body.(string); ok {
			w.Write([]byte(s))
			return
		}
		json.NewEncoder(w).Encode(body)
	})

	mux.HandleFunc("/api/feed/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.feedCalls++
		call := f.feedCalls
		fn := f.feedFn
		f.mu.Unlock()

		json.NewEncoder(w).Encode(fn(call))
	})

	return mux
}

func (f *generateFixture) lastPayload() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payload
}

func newGenerateClient(t *testing.T) (*Client, *generateFixture, *fakeClock) {
	t.Helper()

	f := &generateFixture{
		generateFn: func() (int, interface{}) {
			return http.StatusOK, map[string]interface{}{"clips": submittedClips()}
		},
	}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	fc := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	c := NewClient(Config{
		Cookie:   "__client=test",
		BaseURL:  srv.URL,
		ClerkURL: srv.URL,
	})
	c.now = fc.Now
	c.sleep = func(ctx context.Context, minSec, maxSec int) error {
		f.mu.Lock()
		f.sleeps = append(f.sleeps, sleepCall{minSec, maxSec})
		f.mu.Unlock()
		fc.Advance(time.Duration(maxSec) * time.Second)
		return nil
	}

	require.NoError(t, c.Initialize(context.Background()))
	return c, f, fc
}

func submittedClips() []clip {
	return []clip{
		{ID: "track-1", Title: "晚风", Status: StatusSubmitted},
		{ID: "track-2", Title: "晚风", Status: StatusSubmitted},
	}
}

func terminalClips() []clip {
	duration := 117.2
	return []clip{
		{
			ID: "track-1", Title: "晚风", Status: StatusComplete,
			ImageURL: "https://cdn.example.com/image/clip=track-1.jpeg",
			AudioURL: "https://cdn.example.com/audio/clip=track-1.mp3",
			Metadata: clipMetadata{Prompt: "  line1  \n\n  line2\n", Duration: &duration},
		},
		{
			ID: "track-2", Title: "晚风", Status: StatusStreaming,
			AudioURL: "https://cdn.example.com/audio/clip=track-2.mp3",
			Metadata: clipMetadata{Prompt: "line1\nline2"},
		},
	}
}

func TestGenerateNoWait(t *testing.T) {
	c, f, _ := newGenerateClient(t)

	audios, err := c.Generate(context.Background(), "a song about summer rain", "", false, false)
	require.NoError(t, err)
	require.Len(t, audios, 2)

	assert.Equal(t, "track-1", audios[0].ID)
	assert.Equal(t, StatusSubmitted, audios[0].Status)
	assert.Equal(t, "晚风", audios[1].Title)

	payload := f.lastPayload()
	assert.Equal(t, "a song about summer rain", payload["gpt_description_prompt"])
	assert.Equal(t, "chirp-v3-0", payload["mv"])
	assert.Equal(t, "", payload["prompt"])
	assert.Equal(t, false, payload["make_instrumental"])
	assert.NotContains(t, payload, "tags")
	assert.NotContains(t, payload, "title")

	// 不等待时也要续期一次并按2~4秒的节奏暂停
	assert.Contains(t, f.sleeps, sleepCall{2, 4})
	assert.Equal(t, 0, f.feedCalls, "不等待时不轮询")
}

func TestCustomGeneratePayload(t *testing.T) {
	c, f, _ := newGenerateClient(t)

	_, err := c.CustomGenerate(context.Background(), "line1\nline2", "lofi, chill", "晚风", true, false)
	require.NoError(t, err)

	payload := f.lastPayload()
	assert.Equal(t, "line1\nline2", payload["prompt"])
	assert.Equal(t, "lofi, chill", payload["tags"])
	assert.Equal(t, "晚风", payload["title"])
	assert.Equal(t, true, payload["make_instrumental"])
	assert.NotContains(t, payload, "gpt_description_prompt")
}

func TestGenerateSubmitRejected(t *testing.T) {
	c, f, _ := newGenerateClient(t)
	f.generateFn = func() (int, interface{}) {
		return http.StatusPaymentRequired, `{"detail":"insufficient credits"}`
	}

	_, err := c.Generate(context.Background(), "a song", "", false, false)
	require.Error(t, err)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, http.StatusPaymentRequired, genErr.StatusCode)
	assert.Contains(t, genErr.Body, "insufficient credits")
}

func TestGenerateWaitUntilTerminal(t *testing.T) {
	c, f, _ := newGenerateClient(t)
	f.feedFn = func(call int) interface{} {
		if call == 1 {
			return submittedClips()
		}
		return terminalClips()
	}

	audios, err := c.Generate(context.Background(), "a song", "", false, true)
	require.NoError(t, err)
	require.Len(t, audios, 2)

	for _, audio := range audios {
		assert.True(t, IsTerminal(audio.Status))
	}
	assert.Equal(t, "line1\nline2", audios[0].Lyric, "轮询结果的歌词做行归一化")
	assert.Equal(t, 2, f.feedCalls)

	// 提交后固定等5秒再开始轮询
	require.NotEmpty(t, f.sleeps)
	assert.Equal(t, sleepCall{5, 5}, f.sleeps[0])
}

func TestGenerateWaitBudgetExhausted(t *testing.T) {
	c, f, fc := newGenerateClient(t)
	start := fc.Now()
	f.feedFn = func(call int) interface{} {
		return submittedClips()
	}

	audios, err := c.Generate(context.Background(), "a song", "", false, true)
	require.NoError(t, err, "超时不报错，交还部分结果")
	require.Len(t, audios, 2)

	for _, audio := range audios {
		assert.Equal(t, StatusSubmitted, audio.Status)
	}
	assert.GreaterOrEqual(t, fc.Now().Sub(start), pollBudget, "直到预算用尽才放弃")
	assert.Greater(t, f.feedCalls, 3)
}

func TestGenerateWaitAbortsOnAuthFailure(t *testing.T) {
	c, f, _ := newGenerateClient(t)
	f.feedFn = func(call int) interface{} {
		return submittedClips()
	}
	f.generateFn = func() (int, interface{}) {
		// 提交成功后令所有续期失败
		f.mu.Lock()
		f.renewFail = true
		f.mu.Unlock()
		return http.StatusOK, map[string]interface{}{"clips": submittedClips()}
	}

	_, err := c.Generate(context.Background(), "a song", "", false, true)
	require.Error(t, err)
	assert.True(t, isAuthError(err), "认证失败中断等待，不在预算内重试")
}
