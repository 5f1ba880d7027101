package whatsapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"wainbox/internal/config"

	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://graph.facebook.com/v21.0"

// Client is a WhatsApp Business Cloud API client. Credentials are
// resolved through the config service at call time so runtime settings
// changes take effect without a restart.
type Client struct {
	baseURL string
	cfg     *config.Service
	http    *http.Client
}

// NewClient creates a new WhatsApp Cloud API client
func NewClient(cfg *config.Service) *Client {
	baseURL := os.Getenv("META_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		cfg:     cfg,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SendMessageRequest represents a message send request
type SendMessageRequest struct {
	MessagingProduct string    `json:"messaging_product"`
	RecipientType    string    `json:"recipient_type,omitempty"`
	To               string    `json:"to"`
	Type             string    `json:"type"`
	Text             *TextBody `json:"text,omitempty"`
	Template         *Template `json:"template,omitempty"`
	Image            *Media    `json:"image,omitempty"`
	Audio            *Media    `json:"audio,omitempty"`
	Video            *Media    `json:"video,omitempty"`
	Document         *Document `json:"document,omitempty"`
}

// TextBody represents text message content
type TextBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

// Template represents template message content
type Template struct {
	Name       string            `json:"name"`
	Language   TemplateLanguage  `json:"language"`
	Components []json.RawMessage `json:"components,omitempty"`
}

// TemplateLanguage selects the template language code
type TemplateLanguage struct {
	Code string `json:"code"`
}

// Media represents media content referenced by an uploaded handle
type Media struct {
	ID      string `json:"id,omitempty"`
	Link    string `json:"link,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// Document represents document content
type Document struct {
	ID       string `json:"id,omitempty"`
	Link     string `json:"link,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// SendMessageResponse represents the send API response
type SendMessageResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Messages         []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// apiError is the error envelope the Graph API returns
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendText sends a plain text message and returns the provider message id
func (c *Client) SendText(to, body string) (string, error) {
	return c.sendMessage(SendMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             &TextBody{PreviewURL: true, Body: body},
	})
}

// SendTemplate sends an approved template message
func (c *Client) SendTemplate(to, name, language string, components []json.RawMessage) (string, error) {
	if language == "" {
		language = "es"
	}
	return c.sendMessage(SendMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "template",
		Template: &Template{
			Name:       name,
			Language:   TemplateLanguage{Code: language},
			Components: components,
		},
	})
}

// SendMedia sends a previously uploaded media handle. mediaType is one of
// image, video, audio, document.
func (c *Client) SendMedia(to, mediaType, mediaID, caption, filename string) (string, error) {
	request := SendMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             mediaType,
	}

	switch mediaType {
	case "image":
		request.Image = &Media{ID: mediaID, Caption: caption}
	case "video":
		request.Video = &Media{ID: mediaID, Caption: caption}
	case "audio":
		request.Audio = &Media{ID: mediaID}
	case "document":
		request.Document = &Document{ID: mediaID, Caption: caption, Filename: filename}
	default:
		return "", fmt.Errorf("unsupported media type: %s", mediaType)
	}

	return c.sendMessage(request)
}

// sendMessage posts a message to the send API
func (c *Client) sendMessage(request SendMessageRequest) (string, error) {
	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.cfg.Get(config.KeyPhoneNumberID))

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := c.do("POST", url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	var response SendMessageResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(response.Messages) == 0 {
		return "", fmt.Errorf("no message ID in response")
	}
	return response.Messages[0].ID, nil
}

// MarkRead notifies the provider that a message was read
func (c *Client) MarkRead(messageID string) error {
	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.cfg.Get(config.KeyPhoneNumberID))

	request := map[string]interface{}{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	}
	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	_, err = c.do("POST", url, "application/json", bytes.NewBuffer(jsonData))
	return err
}

// MediaURLResponse is the media handle lookup response
type MediaURLResponse struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// GetMediaURL resolves a provider media handle to a short-lived direct URL
func (c *Client) GetMediaURL(mediaID string) (*MediaURLResponse, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, mediaID)

	body, err := c.do("GET", url, "", nil)
	if err != nil {
		return nil, err
	}

	var response MediaURLResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode media URL response: %w", err)
	}
	if response.URL == "" {
		return nil, fmt.Errorf("no URL in media response")
	}
	return &response, nil
}

// DownloadMedia fetches media bytes from a resolved URL using the same
// bearer credential. Returns the bytes and the reported content type.
func (c *Client) DownloadMedia(url string) ([]byte, string, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Get(config.KeyAccessToken))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("media download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read media body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// UploadMedia uploads binary content and returns the provider media handle.
// The provider does not allow re-fetching bytes by the handle it issues for
// uploads, so callers keep their own copy.
func (c *Client) UploadMedia(data []byte, mimeType, filename string) (string, error) {
	url := fmt.Sprintf("%s/%s/media", c.baseURL, c.cfg.Get(config.KeyPhoneNumberID))

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("messaging_product", "whatsapp"); err != nil {
		return "", fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.WriteField("type", mimeType); err != nil {
		return "", fmt.Errorf("failed to write form field: %w", err)
	}

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename)}
	header["Content-Type"] = []string{mimeType}
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	body, err := c.do("POST", url, writer.FormDataContentType(), &buf)
	if err != nil {
		return "", err
	}

	var response struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if response.ID == "" {
		return "", fmt.Errorf("no media ID in upload response")
	}
	return response.ID, nil
}

// PhoneNumberInfo describes the business phone number behind the configured id
type PhoneNumberInfo struct {
	ID                 string `json:"id"`
	DisplayPhoneNumber string `json:"display_phone_number"`
	VerifiedName       string `json:"verified_name"`
	QualityRating      string `json:"quality_rating"`
}

// VerifyCredentials checks the configured token and phone number id against
// the provider and returns the phone number details
func (c *Client) VerifyCredentials() (*PhoneNumberInfo, error) {
	url := fmt.Sprintf("%s/%s?fields=id,display_phone_number,verified_name,quality_rating", c.baseURL, c.cfg.Get(config.KeyPhoneNumberID))

	body, err := c.do("GET", url, "", nil)
	if err != nil {
		return nil, err
	}

	var info PhoneNumberInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode phone number response: %w", err)
	}
	return &info, nil
}

// ProviderTemplate is a template definition as returned by the provider
type ProviderTemplate struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Language   string            `json:"language"`
	Category   string            `json:"category"`
	Status     string            `json:"status"`
	Components []json.RawMessage `json:"components"`
}

// FetchTemplates retrieves the business account's message templates
func (c *Client) FetchTemplates() ([]ProviderTemplate, error) {
	url := fmt.Sprintf("%s/%s/message_templates?limit=100", c.baseURL, c.cfg.Get(config.KeyWABAID))

	body, err := c.do("GET", url, "", nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		Data []ProviderTemplate `json:"data"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode templates response: %w", err)
	}
	return response.Data, nil
}

// do executes an authenticated request and returns the response body.
// Provider error messages are extracted and passed through verbatim.
func (c *Client) do(method, url, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Get(config.KeyAccessToken))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope apiError
		if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
			log.Error().Int("status", resp.StatusCode).Str("url", url).
				Str("provider_error", envelope.Error.Message).
				Msg("Provider API error")
			return nil, fmt.Errorf("%s", envelope.Error.Message)
		}
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return data, nil
}
