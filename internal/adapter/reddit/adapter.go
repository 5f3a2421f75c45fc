package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"FireMe/internal/adapter"
	"FireMe/internal/config"
	"FireMe/internal/interfaces"
	"FireMe/internal/model"
	"FireMe/internal/service"
	"FireMe/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

func init() {
	adapter.Register("reddit", func(cfg *config.PlatformConfig, logger *logrus.Logger) interfaces.SearchAdapter {
		return NewRedditAdapter(cfg, logger)
	})
}

type Adapter struct {
	cfg        *config.PlatformConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewRedditAdapter(cfg *config.PlatformConfig, logger *logrus.Logger) interfaces.SearchAdapter {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// GetName ========== 实现SearchAdapter接口 ==========
func (a *Adapter) GetName() string {
	return "Reddit"
}

// FetchPosts 调用 Reddit 检索接口拉取帖子；conn 带 bearer 时走授权域名
func (a *Adapter) FetchPosts(ctx context.Context, term string, conn *model.UserPlatformConnection) ([]*model.PlatformRawPost, error) {
	limit := a.cfg.PageSize
	if limit <= 0 {
		limit = 25
	}
	searchURL := fmt.Sprintf("%s%s.json?q=%s&limit=%d&sort=new",
		a.cfg.BaseURL, a.cfg.SearchPath, url.QueryEscape(term), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	// Reddit 要求自定义 UA，默认 UA 会被限流
	if a.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", a.cfg.UserAgent)
	}
	if conn != nil {
		if conn.BearerToken != nil {
			req.Header.Set("Authorization", "Bearer "+*conn.BearerToken)
		} else if conn.AccessToken != nil {
			req.Header.Set("Authorization", "Bearer "+*conn.AccessToken)
		}
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求Reddit检索接口失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Reddit检索接口返回 %d", resp.StatusCode)
	}

	// Listing 结构：data.children[].data 为帖子本体
	var listing struct {
		Data struct {
			Children []struct {
				Data model.RedditPost `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("解析Reddit检索结果失败: %w", err)
	}

	var raw []*model.PlatformRawPost
	for _, c := range listing.Data.Children {
		if c.Data.ID == "" {
			continue
		}
		raw = append(raw, &model.PlatformRawPost{
			Platform: a.GetName(),
			SourceID: c.Data.ID,
			Data:     c.Data,
		})
	}
	return raw, nil
}

// ConvertToItems 原始帖子转为可摄入条目，载荷整体塞进 user_data
func (a *Adapter) ConvertToItems(raw []*model.PlatformRawPost) ([]service.BulkItem, error) {
	items := make([]service.BulkItem, 0, len(raw))
	for _, r := range raw {
		post, ok := r.Data.(model.RedditPost)
		if !ok {
			a.logger.Warn("RawPost数据类型错误，跳过")
			continue
		}
		payload, err := json.Marshal(post)
		if err != nil {
			return nil, fmt.Errorf("序列化Reddit帖子失败: %w", err)
		}
		items = append(items, service.BulkItem{
			SourceID: r.SourceID,
			UserData: datatypes.JSON(payload),
		})
	}
	return items, nil
}
