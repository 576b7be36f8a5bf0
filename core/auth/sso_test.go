package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signSSOToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "E1024"})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifyToken(t *testing.T) {
	v := NewSSOVerifier("sso-secret", "", 1)

	assert.NoError(t, v.VerifyToken(signSSOToken(t, "sso-secret")))
	assert.Error(t, v.VerifyToken(signSSOToken(t, "other-secret")))
	assert.Error(t, v.VerifyToken("garbage"))
}

func TestFetchUserInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "oa-token", r.PostForm.Get("token"))
		assert.Equal(t, "7", r.PostForm.Get("pid"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    0,
			"message": "success",
			"data": map[string]interface{}{
				"alias":    "张三",
				"username": "E1024",
				"dept":     "美术中心 > 音频组",
				"extra": map[string]string{
					"job_name": "音频设计师",
					"avatar":   "https://oa.example.com/avatar/E1024.png",
				},
			},
		})
	}))
	defer srv.Close()

	v := NewSSOVerifier("sso-secret", srv.URL, 7)
	info, err := v.FetchUserInfo("oa-token")
	require.NoError(t, err)

	assert.Equal(t, "张三", info.Alias)
	assert.Equal(t, "E1024", info.Username)
	assert.Equal(t, "美术中心 > 音频组", info.Dept)
	assert.Equal(t, "音频设计师", info.Extra.JobName)
}

func TestFetchUserInfoRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    4011,
			"message": "token expired",
		})
	}))
	defer srv.Close()

	v := NewSSOVerifier("sso-secret", srv.URL, 7)
	_, err := v.FetchUserInfo("stale-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}

func TestSplitStudioTeam(t *testing.T) {
	tests := []struct {
		dept   string
		studio string
		team   string
	}{
		{"美术中心 > 音频组", "美术中心", "音频组"},
		{"美术中心>音频组", "美术中心", "音频组"},
		{"美术中心", "美术中心", ""},
		{"a > b > c", "a", "b > c"},
		{"", "", ""},
	}

	for _, tt := range tests {
		studio, team := SplitStudioTeam(tt.dept)
		assert.Equal(t, tt.studio, studio, "dept=%q", tt.dept)
		assert.Equal(t, tt.team, team, "dept=%q", tt.dept)
	}
}
