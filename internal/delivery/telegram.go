package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTelegramURL is the Telegram Bot API root.
const DefaultTelegramURL = "https://api.telegram.org"

// DefaultCaption accompanies every relayed document.
const DefaultCaption = "Powered By Nova Calculator"

// ErrMissingField rejects relay requests without an image or a recipient.
var ErrMissingField = errors.New("missing image or user id")

// TelegramRelay forwards images to users through a Telegram bot.
type TelegramRelay struct {
	client   *resty.Client
	botToken string
	caption  string
	logger   *slog.Logger
}

// NewTelegramRelay creates a relay for the bot identified by botToken.
// An empty baseURL uses DefaultTelegramURL.
func NewTelegramRelay(baseURL, botToken string, timeout time.Duration, logger *slog.Logger) *TelegramRelay {
	if baseURL == "" {
		baseURL = DefaultTelegramURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	rc := resty.New()
	rc.SetBaseURL(strings.TrimRight(baseURL, "/"))
	rc.SetTimeout(timeout)
	return &TelegramRelay{client: rc, botToken: botToken, caption: DefaultCaption, logger: logger}
}

// Relay decodes req.Image and sends it to req.ID as a document.
func (t *TelegramRelay) Relay(ctx context.Context, req SendRequest) error {
	if req.ID == "" || req.Image == "" {
		return ErrMissingField
	}
	img, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	return t.SendDocument(ctx, req.ID, "image.png", img)
}

// SendDocument uploads data to chatID via sendDocument.
func (t *TelegramRelay) SendDocument(ctx context.Context, chatID, fileName string, data []byte) error {
	start := time.Now()
	resp, err := t.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id": chatID,
			"caption": t.caption,
		}).
		SetFileReader("document", fileName, bytes.NewReader(data)).
		Post("/bot" + t.botToken + "/sendDocument")
	if err != nil {
		return fmt.Errorf("telegram send document: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return &SendError{StatusCode: resp.StatusCode(), Message: "telegram sendDocument failed"}
	}

	t.logger.Info("document relayed",
		"chat_id", chatID,
		"bytes", len(data),
		"duration", time.Since(start),
	)
	return nil
}
