// Package remote - REST-клиент сервера магазина с авторизацией по bearer-токену.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/exp/slog"

	"storekeeper/internal/domain/entity"
)

// IdempotencyHeader - заголовок, по которому сервер отбрасывает повторные создания.
const IdempotencyHeader = "Idempotency-Key"

var ErrUnauthorized = errors.New("unauthorized")

// Error - ошибка, которую вернул сервер. Message передаётся без изменений.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ошибка сервера (%d): %s", e.Status, e.Message)
}

// Credentials - источник токена. Clear вызывается при ответе 401.
type Credentials interface {
	Token() string
	Clear() error
}

type Client struct {
	client    *http.Client
	creds     Credentials
	log       *slog.Logger
	baseURL   string
	userAgent string
}

func New(baseURL string, timeout time.Duration, creds Credentials, log *slog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		creds:     creds,
		log:       log.With("component", "remote_client"),
		baseURL:   baseURL,
		userAgent: "Storekeeper-Client/1.0",
	}
}

// HealthCheck проверяет доступность сервера
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("сервер вернул статус: %d", resp.StatusCode)
	}
	return nil
}

// List читает страницу записей. Ответ-массив приводится к форме страницы.
func (c *Client) List(ctx context.Context, t entity.Type, p entity.Params) (entity.Page, error) {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Date != "" {
		q.Set("date", p.Date)
	}
	for k, v := range p.Filters {
		q.Set(k, v)
	}

	path := "/api/" + string(t.Resource())
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return entity.Page{}, err
	}

	return decodePage(raw, p.Page)
}

// Get читает одну запись.
func (c *Client) Get(ctx context.Context, t entity.Type, id string) (entity.Record, error) {
	var rec entity.Record
	if err := c.do(ctx, http.MethodGet, c.itemPath(t, id), nil, nil, &rec); err != nil {
		return nil, err
	}
	return normalize(rec), nil
}

// Create создаёт запись. Непустой idempotencyKey передаётся заголовком.
func (c *Client) Create(ctx context.Context, t entity.Type, rec entity.Record, idempotencyKey string) (entity.Record, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{IdempotencyHeader: idempotencyKey}
	}

	var created entity.Record
	if err := c.do(ctx, http.MethodPost, "/api/"+string(t.Resource()), headers, rec, &created); err != nil {
		return nil, err
	}
	return normalize(created), nil
}

// Update отправляет частичное изменение записи.
func (c *Client) Update(ctx context.Context, t entity.Type, id string, patch entity.Record) (entity.Record, error) {
	var updated entity.Record
	if err := c.do(ctx, http.MethodPut, c.itemPath(t, id), nil, patch, &updated); err != nil {
		return nil, err
	}
	return normalize(updated), nil
}

// Delete удаляет запись.
func (c *Client) Delete(ctx context.Context, t entity.Type, id string) error {
	return c.do(ctx, http.MethodDelete, c.itemPath(t, id), nil, nil, nil)
}

func (c *Client) itemPath(t entity.Type, id string) string {
	return "/api/" + string(t.Resource()) + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if token := c.creds.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.log.Debug("Отправка запроса",
		"method", method,
		"url", req.URL.String(),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	return c.parseResponse(resp, result)
}

func (c *Client) parseResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	c.log.Debug("Получен ответ",
		"status", resp.StatusCode,
		"bytes", len(body),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.creds.Clear(); err != nil {
			c.log.Error("failed to clear session", "error", err)
		}
		return ErrUnauthorized
	}

	if resp.StatusCode >= 400 {
		return &Error{Status: resp.StatusCode, Message: errorMessage(body, resp.StatusCode)}
	}

	if result != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}

	return nil
}

// errorMessage достаёт текст ошибки из тела: error, message, detail или title.
func errorMessage(body []byte, status int) string {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Title   string `json:"title"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		for _, msg := range []string{errResp.Error, errResp.Message, errResp.Detail, errResp.Title} {
			if msg != "" {
				return msg
			}
		}
	}
	if text := string(bytes.TrimSpace(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}

func decodePage(raw json.RawMessage, page int) (entity.Page, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return entity.EmptyPage(page), nil
	}

	if trimmed[0] == '[' {
		var items []entity.Record
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return entity.Page{}, fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
		for i := range items {
			items[i] = normalize(items[i])
		}
		if items == nil {
			items = []entity.Record{}
		}
		return entity.Page{
			Items:      items,
			Total:      len(items),
			Page:       1,
			TotalPages: entity.TotalPages(len(items), len(items)),
		}, nil
	}

	var p entity.Page
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return entity.Page{}, fmt.Errorf("ошибка парсинга ответа: %w", err)
	}
	for i := range p.Items {
		p.Items[i] = normalize(p.Items[i])
	}
	if p.Items == nil {
		p.Items = []entity.Record{}
	}
	return p, nil
}

// normalize приводит серверный идентификатор _id к полю id.
func normalize(rec entity.Record) entity.Record {
	if rec == nil {
		return rec
	}
	if rec.ID() == "" {
		if id, ok := rec["_id"]; ok {
			rec[entity.FieldID] = entity.Record{"v": id}.String("v")
		}
	}
	delete(rec, "_id")
	return rec
}
