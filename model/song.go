package model

import "time"

// Song represents a generated song persisted after the media assets
// have been downloaded to local storage.
// ImageURL/AudioURL 一经入库即为 /files/... 形式的本站路径，不保存服务商CDN地址。
type Song struct {
	ID       int64 `gorm:"primaryKey" json:"id"`
	UserID   int64 `gorm:"index" json:"userId"`
	StudioID int64 `gorm:"index" json:"studioId"` // 创建时从用户冗余
	TeamID   int64 `gorm:"index" json:"teamId"`   // 创建时从用户冗余

	SunoID string `gorm:"size:64;index" json:"sunoId"` // 服务商侧的track id
	Title  string `gorm:"size:255" json:"title"`

	ImageURL  string `gorm:"size:512" json:"imageUrl"`
	AudioURL  string `gorm:"size:512" json:"audioUrl"`
	VideoURL  string `gorm:"size:512" json:"videoUrl"`
	ModelName string `gorm:"size:64" json:"modelName"`

	GPTDescriptionPrompt string `gorm:"type:text" json:"gptDescriptionPrompt"`
	Type                 string `gorm:"size:32" json:"type"`
	Prompt               string `gorm:"type:text" json:"prompt"` // 歌曲描述
	Lyrics               string `gorm:"type:text" json:"lyrics"` // 歌词
	Tags                 string `gorm:"size:255" json:"tags"`    // 风格标签

	MakeInstrumental bool `gorm:"default:false" json:"makeInstrumental"` // 是否为纯音乐
	IsCustom         bool `gorm:"default:false" json:"isCustom"`         // 是否为自定义歌词生成

	IsPublic  bool       `gorm:"default:false" json:"isPublic"`
	IsActive  bool       `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

func (Song) TableName() string {
	return "songs"
}
