// Package api is the REST client for the marketplace messaging backend.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/ismaelvargas20/motochat/internal/logging"
	"github.com/ismaelvargas20/motochat/internal/models"
)

// ClientConfig captures the knobs for the REST client.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
	AuthToken  string
}

// Client wraps the marketplace REST endpoints behind typed methods. All
// responses pass through the entity normalization functions before reaching
// the rest of the code.
type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

// NewClient creates a REST client for the given backend.
func NewClient(cfg ClientConfig) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json")

	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}
	if cfg.RetryCount > 0 {
		httpClient.
			SetRetryCount(cfg.RetryCount).
			SetRetryWaitTime(cfg.RetryWait)
	}
	if cfg.AuthToken != "" {
		httpClient.SetAuthToken(cfg.AuthToken)
	}

	return &Client{
		http:   httpClient,
		logger: logging.Component("api"),
	}
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out any) error {
	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		return statusError(resp.StatusCode(), string(resp.Body()))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

func (c *Client) write(ctx context.Context, method, path string, body any, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	var resp *resty.Response
	var err error
	switch method {
	case "POST":
		resp, err = req.Post(path)
	case "PUT":
		resp, err = req.Put(path)
	default:
		return fmt.Errorf("unsupported method %s", method)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return statusError(resp.StatusCode(), string(resp.Body()))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

// ListConversations fetches the conversation summaries for a client.
func (c *Client) ListConversations(ctx context.Context, clientID string) ([]models.Conversation, error) {
	var rawConvs []raw
	query := map[string]string{}
	if clientID != "" {
		query["clienteId"] = clientID
	}
	if err := c.get(ctx, "/chats", query, &rawConvs); err != nil {
		return nil, err
	}

	conversations := make([]models.Conversation, 0, len(rawConvs))
	for _, r := range rawConvs {
		conv := NormalizeConversation(r)
		if conv.ID == "" {
			c.logger.Warn().Msg("dropping conversation summary without id")
			continue
		}
		conversations = append(conversations, conv)
	}
	return conversations, nil
}

// ListMessages fetches the ordered message history of a conversation.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var rawMsgs []raw
	path := fmt.Sprintf("/chats/%s/mensajes", conversationID)
	if err := c.get(ctx, path, nil, &rawMsgs); err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(rawMsgs))
	for _, r := range rawMsgs {
		msg := NormalizeMessage(r)
		if msg.ConversationID == "" {
			msg.ConversationID = conversationID
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// SendMessage posts a new message and returns the server echo.
func (c *Client) SendMessage(ctx context.Context, conversationID, senderID, body string) (models.Message, error) {
	payload := map[string]string{
		"remitente": senderID,
		"cuerpo":    body,
		"clienteId": senderID,
	}
	var echo raw
	path := fmt.Sprintf("/chats/%s/mensajes", conversationID)
	if err := c.write(ctx, "POST", path, payload, &echo); err != nil {
		return models.Message{}, err
	}
	msg := NormalizeMessage(echo)
	if msg.ConversationID == "" {
		msg.ConversationID = conversationID
	}
	return msg, nil
}

// MarkRead acknowledges all messages in a conversation for a client.
func (c *Client) MarkRead(ctx context.Context, conversationID, clientID string) error {
	payload := map[string]string{"clienteId": clientID}
	path := fmt.Sprintf("/chats/%s/marcar-leidos", conversationID)
	return c.write(ctx, "PUT", path, payload, nil)
}

// CreateConversation creates (or returns, idempotent by title per buyer/owner
// pair) a conversation anchored to a listing.
func (c *Client) CreateConversation(ctx context.Context, clientID, title string, listingType models.ListingType) (models.Conversation, error) {
	payload := map[string]string{
		"clienteId": clientID,
		"titulo":    title,
		"tipo":      string(listingType),
	}
	var rawConv raw
	if err := c.write(ctx, "POST", "/chats/crear", payload, &rawConv); err != nil {
		return models.Conversation{}, err
	}
	return NormalizeConversation(rawConv), nil
}

// ListNotifications fetches the activity feed for a client.
func (c *Client) ListNotifications(ctx context.Context, clientID string, limit int) ([]models.Notification, error) {
	query := map[string]string{"clienteId": clientID}
	if limit > 0 {
		query["limit"] = strconv.Itoa(limit)
	}
	var rawFeed []raw
	if err := c.get(ctx, "/notificaciones/listar", query, &rawFeed); err != nil {
		return nil, err
	}

	feed := make([]models.Notification, 0, len(rawFeed))
	for _, r := range rawFeed {
		feed = append(feed, NormalizeNotification(r))
	}
	return feed, nil
}

// DismissNotification removes a notification from the feed.
func (c *Client) DismissNotification(ctx context.Context, notificationID string) error {
	path := fmt.Sprintf("/notificaciones/%s/eliminar", notificationID)
	return c.write(ctx, "PUT", path, nil, nil)
}

// CreateReport files a report against a message.
func (c *Client) CreateReport(ctx context.Context, conversationID, messageID, reason string) (models.Report, error) {
	payload := map[string]string{
		"chatId":    conversationID,
		"mensajeId": messageID,
		"motivo":    reason,
	}
	var rawRep raw
	if err := c.write(ctx, "POST", "/reports", payload, &rawRep); err != nil {
		return models.Report{}, err
	}
	return NormalizeReport(rawRep), nil
}

// ListReports fetches all reports (admin only).
func (c *Client) ListReports(ctx context.Context) ([]models.Report, error) {
	var rawReps []raw
	if err := c.get(ctx, "/reports/listar", nil, &rawReps); err != nil {
		return nil, err
	}
	reports := make([]models.Report, 0, len(rawReps))
	for _, r := range rawReps {
		reports = append(reports, NormalizeReport(r))
	}
	return reports, nil
}

// ReportDetail fetches one report (admin only).
func (c *Client) ReportDetail(ctx context.Context, reportID string) (models.Report, error) {
	var rawRep raw
	path := fmt.Sprintf("/reports/detalle/%s", reportID)
	if err := c.get(ctx, path, nil, &rawRep); err != nil {
		return models.Report{}, err
	}
	return NormalizeReport(rawRep), nil
}

// ReportUpdate carries the admin mutation for a report. Zero-valued fields
// are omitted from the request.
type ReportUpdate struct {
	State        string `json:"estado,omitempty"`
	Action       string `json:"accion,omitempty"`
	AdminComment string `json:"comentario_admin,omitempty"`
}

// UpdateReport applies an admin action to a report (admin only).
func (c *Client) UpdateReport(ctx context.Context, reportID string, update ReportUpdate) error {
	path := fmt.Sprintf("/reports/actualizar/%s", reportID)
	return c.write(ctx, "PUT", path, update, nil)
}

// GetProfile fetches a client profile by id.
func (c *Client) GetProfile(ctx context.Context, clientID string) (Profile, error) {
	var rawProfile raw
	path := fmt.Sprintf("/clientes/%s", clientID)
	if err := c.get(ctx, path, nil, &rawProfile); err != nil {
		return Profile{}, err
	}
	return NormalizeProfile(rawProfile), nil
}

// GetListing fetches a listing by id and type.
func (c *Client) GetListing(ctx context.Context, listingID string, listingType models.ListingType) (Listing, error) {
	var resource string
	switch listingType {
	case models.ListingTypePart:
		resource = "piezas"
	default:
		resource = "motos"
	}
	var rawListing raw
	path := fmt.Sprintf("/%s/%s", resource, listingID)
	if err := c.get(ctx, path, nil, &rawListing); err != nil {
		return Listing{}, err
	}
	return NormalizeListing(rawListing), nil
}
