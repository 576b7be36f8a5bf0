package suno

import "strings"

// 服务商侧的track状态
const (
	StatusSubmitted = "submitted"
	StatusQueued    = "queued"
	StatusStreaming = "streaming"
	StatusComplete  = "complete"
	StatusError     = "error"
)

// IsTerminal 判断状态是否已到终态。
// streaming状态下音频已可播放，按终态处理，complete只补全时长等元数据。
func IsTerminal(status string) bool {
	return status == StatusStreaming || status == StatusComplete
}

// AudioInfo 一条生成结果，按服务商的track id标识
type AudioInfo struct {
	ID                   string   `json:"id"`
	Title                string   `json:"title"`
	ImageURL             string   `json:"image_url"`
	Lyric                string   `json:"lyric"`
	AudioURL             string   `json:"audio_url"`
	VideoURL             string   `json:"video_url"`
	CreatedAt            string   `json:"created_at"`
	ModelName            string   `json:"model_name"`
	GPTDescriptionPrompt string   `json:"gpt_description_prompt"`
	Prompt               string   `json:"prompt"`
	Status               string   `json:"status"`
	Type                 string   `json:"type"`
	Tags                 string   `json:"tags"`
	Duration             *float64 `json:"duration,omitempty"`
}

// Credits 服务商侧的计费信息
type Credits struct {
	CreditsLeft  int64  `json:"creditsLeft"`
	Period       string `json:"period"`
	MonthlyLimit int64  `json:"monthlyLimit"`
	MonthlyUsage int64  `json:"monthlyUsage"`
}

// clip 服务商返回的原始track结构
type clip struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	ImageURL  string       `json:"image_url"`
	AudioURL  string       `json:"audio_url"`
	VideoURL  string       `json:"video_url"`
	CreatedAt string       `json:"created_at"`
	ModelName string       `json:"model_name"`
	Status    string       `json:"status"`
	Metadata  clipMetadata `json:"metadata"`
}

type clipMetadata struct {
	Tags                 string   `json:"tags"`
	Prompt               string   `json:"prompt"`
	GPTDescriptionPrompt string   `json:"gpt_description_prompt"`
	Type                 string   `json:"type"`
	Duration             *float64 `json:"duration"`
}

// audioFromClip 将原始clip映射为AudioInfo，normalizeLyric时对歌词做行归一化
func audioFromClip(cl clip, normalizeLyric bool) AudioInfo {
	lyric := cl.Metadata.Prompt
	if normalizeLyric && lyric != "" {
		lyric = ParseLyrics(lyric)
	}

	return AudioInfo{
		ID:                   cl.ID,
		Title:                cl.Title,
		ImageURL:             cl.ImageURL,
		Lyric:                lyric,
		AudioURL:             cl.AudioURL,
		VideoURL:             cl.VideoURL,
		CreatedAt:            cl.CreatedAt,
		ModelName:            cl.ModelName,
		GPTDescriptionPrompt: cl.Metadata.GPTDescriptionPrompt,
		Prompt:               cl.Metadata.Prompt,
		Status:               cl.Status,
		Type:                 cl.Metadata.Type,
		Tags:                 cl.Metadata.Tags,
		Duration:             cl.Metadata.Duration,
	}
}

// allTerminal 轮询循环的停机条件：所有track都到达终态
func allTerminal(audios []AudioInfo) bool {
	if len(audios) == 0 {
		return false
	}
	for _, audio := range audios {
		if !IsTerminal(audio.Status) {
			return false
		}
	}
	return true
}

// ParseLyrics 归一化多行歌词：逐行trim、去掉空行、再以换行拼接
func ParseLyrics(prompt string) string {
	var lines []string
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
