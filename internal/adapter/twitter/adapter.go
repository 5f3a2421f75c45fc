package twitter

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
	adapter.Register("twitter", func(cfg *config.PlatformConfig, logger *logrus.Logger) interfaces.SearchAdapter {
		return NewTwitterAdapter(cfg, logger)
	})
}

type Adapter struct {
	cfg        *config.PlatformConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewTwitterAdapter(cfg *config.PlatformConfig, logger *logrus.Logger) interfaces.SearchAdapter {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// GetName ========== 实现SearchAdapter接口 ==========
func (a *Adapter) GetName() string {
	return "Twitter"
}

// FetchPosts 调最近检索接口（v2 recent search），必须带 bearer
func (a *Adapter) FetchPosts(ctx context.Context, term string, conn *model.UserPlatformConnection) ([]*model.PlatformRawPost, error) {
	bearer := ""
	if conn != nil {
		if conn.BearerToken != nil {
			bearer = *conn.BearerToken
		} else if conn.AccessToken != nil {
			bearer = *conn.AccessToken
		}
	}
	if bearer == "" {
		return nil, fmt.Errorf("Twitter检索需要 bearer token")
	}

	limit := a.cfg.PageSize
	if limit <= 0 {
		limit = 10
	}
	searchURL := fmt.Sprintf("%s%s?query=%s&max_results=%d&tweet.fields=author_id,created_at",
		a.cfg.BaseURL, a.cfg.SearchPath, url.QueryEscape(term), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求Twitter检索接口失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Twitter检索接口返回 %d", resp.StatusCode)
	}

	var body struct {
		Data []model.Tweet `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("解析Twitter检索结果失败: %w", err)
	}

	var raw []*model.PlatformRawPost
	for _, t := range body.Data {
		if t.ID == "" {
			continue
		}
		raw = append(raw, &model.PlatformRawPost{
			Platform: a.GetName(),
			SourceID: t.ID,
			Data:     t,
		})
	}
	return raw, nil
}

// ConvertToItems 原始推文转为可摄入条目
func (a *Adapter) ConvertToItems(raw []*model.PlatformRawPost) ([]service.BulkItem, error) {
	items := make([]service.BulkItem, 0, len(raw))
	for _, r := range raw {
		tweet, ok := r.Data.(model.Tweet)
		if !ok {
			a.logger.Warn("RawPost数据类型错误，跳过")
			continue
		}
		payload, err := json.Marshal(tweet)
		if err != nil {
			return nil, fmt.Errorf("序列化推文失败: %w", err)
		}
		items = append(items, service.BulkItem{
			SourceID: r.SourceID,
			UserData: datatypes.JSON(payload),
		})
	}
	return items, nil
}
