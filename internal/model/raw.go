package model

import "time"

// PlatformRawPost 采集到的平台原始帖子，Data 为各平台自己的载荷类型
type PlatformRawPost struct {
	Platform string      // 平台名
	SourceID string      // 平台侧帖子 ID
	Data     interface{} // 原始载荷
}

// RedditPost Reddit 检索结果单条载荷
type RedditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Score       int64   `json:"score"`
	NumComments int64   `json:"num_comments"`
	Permalink   string  `json:"permalink"`
	CreatedUTC  float64 `json:"created_utc"`
}

// Tweet Twitter 最近检索结果单条载荷
type Tweet struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}
